// Package gatewayconfig renders the openclaw.json configuration file the
// pre-built gateway reads on startup. The gateway itself is an external
// product; this package only materializes its config from explicit
// parameters collected at the CLI edge.
package gatewayconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPort is where the gateway listens inside the Space container.
// Spaces route external traffic to this port.
const DefaultPort = 7860

// DefaultHeartbeat is how often idle agents wake to check on their work.
const DefaultHeartbeat = "30m"

// Params is everything the rendered config depends on. No field is read
// from the environment here; cmd wiring populates this struct.
type Params struct {
	// Model is the primary model identifier, e.g. "anthropic/claude-sonnet-4".
	Model string
	// FallbackModels are tried in order when the primary is unavailable.
	FallbackModels []string
	// Port overrides DefaultPort when positive.
	Port int
	// GatewayToken authenticates control-plane clients to the gateway.
	GatewayToken string
	// TelegramToken enables the Telegram channel when non-empty.
	TelegramToken string
	// DiscordToken enables the Discord channel when non-empty.
	DiscordToken string
	// Agents are the personas the gateway runs.
	Agents []AgentParams
	// SkillDirs are extra directories the gateway loads skills from.
	SkillDirs []string
}

// AgentParams configures one agent entry.
type AgentParams struct {
	ID        string
	Name      string
	Workspace string
	Heartbeat string
}

// Validate checks that the params describe a launchable gateway.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if len(p.Agents) == 0 {
		return fmt.Errorf("at least one agent is required")
	}
	seen := map[string]bool{}
	for _, a := range p.Agents {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("agent id cannot be empty")
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate agent id %q", a.ID)
		}
		seen[a.ID] = true
		if strings.TrimSpace(a.Workspace) == "" {
			return fmt.Errorf("agent %s: workspace is required", a.ID)
		}
	}
	return nil
}

// File mirrors the subset of the gateway's config schema this deployment
// uses. Sections are omitted entirely when unused so the gateway falls
// back to its own defaults.
type File struct {
	Agents   AgentsSection   `json:"agents"`
	Models   ModelsSection   `json:"models"`
	Gateway  GatewaySection  `json:"gateway"`
	Channels *ChannelSection `json:"channels,omitempty"`
	Skills   *SkillsSection  `json:"skills,omitempty"`
}

type AgentsSection struct {
	Defaults AgentDefaults `json:"defaults"`
	List     []AgentEntry  `json:"list"`
}

type AgentDefaults struct {
	Heartbeat HeartbeatConfig `json:"heartbeat"`
}

type HeartbeatConfig struct {
	Every string `json:"every"`
}

type AgentEntry struct {
	ID        string           `json:"id"`
	Name      string           `json:"name,omitempty"`
	Workspace string           `json:"workspace"`
	Heartbeat *HeartbeatConfig `json:"heartbeat,omitempty"`
}

type ModelsSection struct {
	Primary   string   `json:"primary"`
	Fallbacks []string `json:"fallbacks,omitempty"`
}

type GatewaySection struct {
	Mode string     `json:"mode"`
	Bind string     `json:"bind"`
	Port int        `json:"port"`
	Auth AuthConfig `json:"auth"`
}

type AuthConfig struct {
	Mode  string `json:"mode"`
	Token string `json:"token,omitempty"`
}

type ChannelSection struct {
	Telegram *BotChannel `json:"telegram,omitempty"`
	Discord  *BotChannel `json:"discord,omitempty"`
}

type BotChannel struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"botToken"`
}

type SkillsSection struct {
	Load SkillsLoad `json:"load"`
}

type SkillsLoad struct {
	ExtraDirs []string `json:"extraDirs"`
}

// Build assembles the config file structure from params.
func Build(p Params) (File, error) {
	if err := p.Validate(); err != nil {
		return File{}, err
	}

	port := p.Port
	if port <= 0 {
		port = DefaultPort
	}

	authMode := "none"
	if p.GatewayToken != "" {
		authMode = "token"
	}

	f := File{
		Agents: AgentsSection{
			Defaults: AgentDefaults{Heartbeat: HeartbeatConfig{Every: DefaultHeartbeat}},
		},
		Models: ModelsSection{
			Primary:   p.Model,
			Fallbacks: p.FallbackModels,
		},
		Gateway: GatewaySection{
			Mode: "local",
			Bind: "0.0.0.0",
			Port: port,
			Auth: AuthConfig{Mode: authMode, Token: p.GatewayToken},
		},
	}

	for _, a := range p.Agents {
		entry := AgentEntry{
			ID:        a.ID,
			Name:      a.Name,
			Workspace: a.Workspace,
		}
		if a.Heartbeat != "" {
			entry.Heartbeat = &HeartbeatConfig{Every: a.Heartbeat}
		}
		f.Agents.List = append(f.Agents.List, entry)
	}

	if p.TelegramToken != "" || p.DiscordToken != "" {
		f.Channels = &ChannelSection{}
		if p.TelegramToken != "" {
			f.Channels.Telegram = &BotChannel{Enabled: true, BotToken: p.TelegramToken}
		}
		if p.DiscordToken != "" {
			f.Channels.Discord = &BotChannel{Enabled: true, BotToken: p.DiscordToken}
		}
	}

	if len(p.SkillDirs) > 0 {
		f.Skills = &SkillsSection{Load: SkillsLoad{ExtraDirs: p.SkillDirs}}
	}

	return f, nil
}

// Render produces the openclaw.json bytes for params.
func Render(p Params) ([]byte, error) {
	f, err := Build(p)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway config: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile renders params and writes the result to path. Tokens live in
// the file, so it is not world-readable.
func WriteFile(path string, p Params) error {
	data, err := Render(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
