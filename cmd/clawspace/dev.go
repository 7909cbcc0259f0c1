package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tianmingyun/huggingface-openclaw/pkg/runtime/docker"
)

var (
	devImage string
	devState string
	devPort  int
	devPull  bool
)

// devPassthroughEnv is forwarded into the dev container when set, so a
// local run behaves like the deployed Space.
var devPassthroughEnv = []string{
	"OPENCLAW_SYNC_DATASET",
	"HF_TOKEN",
	"HF_ENDPOINT",
	"OPENCLAW_PRIMARY_MODEL",
	"OPENCLAW_FALLBACK_MODELS",
	"OPENCLAW_GATEWAY_TOKEN",
	"TELEGRAM_BOT_TOKEN",
	"DISCORD_BOT_TOKEN",
	"ANTHROPIC_AUTH_TOKEN",
	"ANTHROPIC_API_KEY",
	"ANTHROPIC_BASE_URL",
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the Space image locally in Docker",
	Long: `Run the Space image in a local Docker container with the same
environment wiring the hosted deployment uses, binding a local directory
as the state root. Useful for iterating on the container recipe without
deploying.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		absState, err := filepath.Abs(devState)
		if err != nil {
			return fmt.Errorf("failed to resolve state path: %w", err)
		}
		if err := os.MkdirAll(absState, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}

		env := map[string]string{}
		for _, key := range devPassthroughEnv {
			if v := os.Getenv(key); v != "" {
				env[key] = v
			}
		}

		rt, err := docker.NewRuntime()
		if err != nil {
			return fmt.Errorf("failed to initialize Docker runtime: %w", err)
		}
		defer rt.Close()

		return rt.RunSpace(cmd.Context(), &docker.SpaceConfig{
			Image:     devImage,
			StateRoot: absState,
			Port:      devPort,
			Env:       env,
			Pull:      devPull,
		})
	},
}

func init() {
	devCmd.Flags().StringVarP(&devImage, "image", "i", "clawspace:dev", "Space image to run")
	devCmd.Flags().StringVarP(&devState, "state", "s", "./dev-state", "Local directory to bind as the state root")
	devCmd.Flags().IntVarP(&devPort, "port", "p", 7860, "Host port mapped to the gateway")
	devCmd.Flags().BoolVar(&devPull, "pull", false, "Pull the image before running")
	rootCmd.AddCommand(devCmd)
}
