package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tianmingyun/huggingface-openclaw/pkg/gateway"
	"github.com/tianmingyun/huggingface-openclaw/pkg/gatewayconfig"
	"github.com/tianmingyun/huggingface-openclaw/pkg/log"
	"github.com/tianmingyun/huggingface-openclaw/pkg/personas"
	"github.com/tianmingyun/huggingface-openclaw/pkg/preflight"
	"github.com/tianmingyun/huggingface-openclaw/pkg/skills"
	"github.com/tianmingyun/huggingface-openclaw/pkg/snapshot"
)

var skipPreflight bool

// skillInstallRoot is the shared skill install area. It lives under the
// state root but outside every snapshot partition, so skills are always
// the ones provisioned by this boot, never restored stale copies.
func skillInstallRoot(stateRoot string) string {
	return filepath.Join(stateRoot, "skills")
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Provision the container and run the gateway in the foreground",
	Long: `Run the full container startup sequence:

restore the latest state snapshot, render the gateway configuration,
seed agent workspaces, install and wire skills, run preflight checks,
take a first backup, start the periodic backup loop, then exec the
gateway and block until it exits.

The gateway's exit code becomes this command's exit code. Snapshot sync
failures are logged and never abort the boot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runBootstrap(cmd.Context(), loadSettings())
	},
}

func runBootstrap(ctx context.Context, s settings) error {
	syncer, err := newSyncer(s)
	if err != nil {
		// A broken sync config degrades to no sync, not a dead container.
		log.Error("state sync disabled", "error", err)
		syncer, _ = newSyncer(settings{StateRoot: s.StateRoot})
	}

	// Restore blocks everything else: nothing may read or write the state
	// root until the snapshot has landed.
	snapshot.LogResult("restore", syncer.Restore(ctx))

	if err := personas.EnsureAll(s.StateRoot, personas.Defaults()); err != nil {
		return fmt.Errorf("failed to seed agent workspaces: %w", err)
	}

	if err := provisionSkills(s); err != nil {
		return fmt.Errorf("failed to provision skills: %w", err)
	}

	cfgPath := configPath(s.StateRoot)
	if err := gatewayconfig.WriteFile(cfgPath, buildParams(s)); err != nil {
		return fmt.Errorf("failed to render gateway config: %w", err)
	}
	log.Info("gateway config rendered", "path", cfgPath)

	checker := preflight.NewChecker(preflight.Config{
		Skip:                    skipPreflight,
		GatewayBinary:           s.GatewayBinary,
		StateRoot:               s.StateRoot,
		RequireModelCredentials: true,
		RequirePython:           true,
		HubEndpoint:             s.HubEndpoint,
		DatasetID:               s.DatasetID,
	})
	if err := checker.Run(ctx); err != nil {
		return err
	}

	// First backup seeds the dataset on day one; failures only log.
	snapshot.LogResult("backup", syncer.Backup(ctx))
	go syncer.RunPeriodic(ctx)

	launch := gateway.Launch{
		Binary:     s.GatewayBinary,
		ConfigPath: cfgPath,
		StateRoot:  s.StateRoot,
	}
	log.Info("starting gateway", "binary", s.GatewayBinary, "port", s.Port)
	if err := launch.Run(ctx); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Error("gateway exited", "code", exitErr.ExitCode())
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("gateway failed: %w", err)
	}
	return nil
}

// provisionSkills installs every bundled skill and wires it into each
// agent workspace, then does the same for any extra catalog refs.
func provisionSkills(s settings) error {
	installRoot := skillInstallRoot(s.StateRoot)
	if err := os.MkdirAll(installRoot, 0755); err != nil {
		return err
	}

	var installed []skills.Skill

	bundles, err := skills.Discover(s.BundleDir)
	if err != nil {
		log.Warn("no bundled skills found", "dir", s.BundleDir, "error", err)
	}
	for _, b := range bundles {
		skill, err := skills.Install(b.Dir, installRoot)
		if err != nil {
			return err
		}
		log.Info("installed skill", "name", skill.Name, "dir", skill.Dir)
		installed = append(installed, skill)
	}

	if len(s.SkillRefs) > 0 {
		registry := skills.NewRegistry()
		scratch, err := os.MkdirTemp("", "clawspace-skill-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(scratch)
		for _, ref := range s.SkillRefs {
			entry, err := registry.Resolve(ref)
			if err != nil {
				log.Warn("skipping skill ref", "ref", ref, "error", err)
				continue
			}
			bundleDir, err := skills.Fetch(entry, scratch)
			if err != nil {
				log.Warn("failed to fetch skill", "ref", ref, "error", err)
				continue
			}
			skill, err := skills.Install(bundleDir, installRoot)
			if err != nil {
				log.Warn("failed to install fetched skill", "ref", ref, "error", err)
				continue
			}
			log.Info("installed skill", "name", skill.Name, "dir", skill.Dir)
			installed = append(installed, skill)
		}
	}

	var workspaces []string
	for _, p := range personas.Defaults() {
		workspaces = append(workspaces, personas.SkillsDir(s.StateRoot, p.ID))
	}
	return skills.WireAll(installed, workspaces)
}

func init() {
	bootstrapCmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment preflight checks")
	rootCmd.AddCommand(bootstrapCmd)
}
