package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tianmingyun/huggingface-openclaw/pkg/log"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "clawspace",
	Short: "clawspace provisions and runs an OpenClaw gateway inside a HuggingFace Space container.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := log.DefaultConfig()
		if logLevel != "" {
			cfg.Level = log.Level(logLevel)
		} else if v := os.Getenv("CLAWSPACE_LOG_LEVEL"); v != "" {
			cfg.Level = log.Level(v)
		}
		if logFormat != "" {
			cfg.Format = logFormat
		}
		return log.Init(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
}

func main() {
	defer log.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
