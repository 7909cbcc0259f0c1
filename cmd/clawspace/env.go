package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tianmingyun/huggingface-openclaw/pkg/gateway"
	"github.com/tianmingyun/huggingface-openclaw/pkg/gatewayconfig"
	"github.com/tianmingyun/huggingface-openclaw/pkg/log"
)

// defaultStateDir is where Space containers mount persistent-looking disk.
// It is wiped on every redeploy, which is what the snapshot sync exists for.
const defaultStateDir = "/data"

const defaultModel = "anthropic/claude-sonnet-4"

// settings is the full environment surface of the deployment, read once at
// the CLI edge. Packages below cmd never touch os.Getenv; they take
// explicit config structs populated from this.
type settings struct {
	StateRoot string

	// Snapshot sync.
	DatasetID    string
	HubToken     string
	HubEndpoint  string
	LookbackDays int
	Interval     time.Duration

	// Gateway config.
	Model          string
	FallbackModels []string
	Port           int
	GatewayToken   string
	TelegramToken  string
	DiscordToken   string

	// Launch.
	GatewayBinary string

	// Skill provisioning.
	BundleDir string
	SkillRefs []string
}

func loadSettings() settings {
	return settings{
		StateRoot: envStr("OPENCLAW_STATE_DIR", defaultStateDir),

		DatasetID:    envStr("OPENCLAW_SYNC_DATASET", ""),
		HubToken:     envStr("HF_TOKEN", ""),
		HubEndpoint:  envStr("HF_ENDPOINT", ""),
		LookbackDays: envInt("OPENCLAW_SYNC_LOOKBACK_DAYS", 0),
		Interval:     envDuration("OPENCLAW_SYNC_INTERVAL", 0),

		Model:          envStr("OPENCLAW_PRIMARY_MODEL", defaultModel),
		FallbackModels: envList("OPENCLAW_FALLBACK_MODELS"),
		Port:           envInt("PORT", gatewayconfig.DefaultPort),
		GatewayToken:   envStr("OPENCLAW_GATEWAY_TOKEN", ""),
		TelegramToken:  envStr("TELEGRAM_BOT_TOKEN", ""),
		DiscordToken:   envStr("DISCORD_BOT_TOKEN", ""),

		GatewayBinary: envStr("OPENCLAW_GATEWAY_BIN", gateway.DefaultBinary),

		BundleDir: envStr("OPENCLAW_SKILLS_BUNDLE_DIR", "/app/skills"),
		SkillRefs: envList("OPENCLAW_EXTRA_SKILLS"),
	}
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("ignoring %s=%q: not an integer", key, v)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warnf("ignoring %s=%q: not a duration", key, v)
		return fallback
	}
	return d
}

// envList splits a comma-separated variable, dropping empty elements.
func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
