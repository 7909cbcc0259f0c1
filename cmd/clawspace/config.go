package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tianmingyun/huggingface-openclaw/pkg/gatewayconfig"
	"github.com/tianmingyun/huggingface-openclaw/pkg/personas"
)

var configOutPath string

// buildParams maps the environment settings onto the gateway config
// params, one agent entry per persona.
func buildParams(s settings) gatewayconfig.Params {
	p := gatewayconfig.Params{
		Model:          s.Model,
		FallbackModels: s.FallbackModels,
		Port:           s.Port,
		GatewayToken:   s.GatewayToken,
		TelegramToken:  s.TelegramToken,
		DiscordToken:   s.DiscordToken,
		SkillDirs:      []string{skillInstallRoot(s.StateRoot)},
	}
	for _, persona := range personas.Defaults() {
		p.Agents = append(p.Agents, gatewayconfig.AgentParams{
			ID:        persona.ID,
			Name:      persona.Name,
			Workspace: personas.WorkspaceDir(s.StateRoot, persona.ID),
			Heartbeat: persona.Heartbeat,
		})
	}
	return p
}

// configPath is where the rendered gateway config lives. It sits directly
// under the state root, outside every snapshot partition, so a restore
// never resurrects a config rendered from stale environment values.
func configPath(stateRoot string) string {
	return filepath.Join(stateRoot, "openclaw.json")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Gateway configuration helpers",
}

var configRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render openclaw.json from the environment",
	Long: `Render the gateway configuration from the current environment.

By default the JSON is written to stdout for inspection; --output writes
it to a file the way bootstrap does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := buildParams(loadSettings())
		if configOutPath != "" {
			if err := gatewayconfig.WriteFile(configOutPath, params); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", configOutPath)
			return nil
		}
		data, err := gatewayconfig.Render(params)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configRenderCmd.Flags().StringVarP(&configOutPath, "output", "o", "", "Write the config to this path instead of stdout")
	configCmd.AddCommand(configRenderCmd)
	rootCmd.AddCommand(configCmd)
}
