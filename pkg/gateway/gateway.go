// Package gateway launches the pre-built OpenClaw gateway binary. The
// gateway is an external product: its routing, sessions, and channel
// integrations are its own business. This package only finds the binary,
// assembles its command line and environment, and runs it as the
// container's foreground process.
package gateway

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is the gateway executable name looked up on PATH when no
// explicit path is configured.
const DefaultBinary = "openclaw-gateway"

// Launch describes one gateway invocation.
type Launch struct {
	// Binary is the executable path or name. Defaults to DefaultBinary.
	Binary string
	// ConfigPath is the rendered openclaw.json the gateway reads.
	ConfigPath string
	// StateRoot is handed to the gateway as its data directory.
	StateRoot string
	// ExtraEnv is appended to the inherited environment.
	ExtraEnv map[string]string
}

// Validate checks the launch is runnable.
func (l Launch) Validate() error {
	if strings.TrimSpace(l.ConfigPath) == "" {
		return fmt.Errorf("config path is required")
	}
	if strings.TrimSpace(l.StateRoot) == "" {
		return fmt.Errorf("state root is required")
	}
	return nil
}

// Resolve locates the gateway executable, returning its absolute path.
func (l Launch) Resolve() (string, error) {
	binary := l.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("gateway binary %q not found: %w", binary, err)
	}
	return path, nil
}

// Command builds the exec.Cmd for the launch without starting it.
func (l Launch) Command(ctx context.Context) (*exec.Cmd, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	path, err := l.Resolve()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, "--config", l.ConfigPath)
	cmd.Env = append(os.Environ(),
		"OPENCLAW_STATE_DIR="+l.StateRoot,
	)
	for k, v := range l.ExtraEnv {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd, nil
}

// Run executes the gateway in the foreground until it exits. The
// gateway's exit status is the deployment's exit status; nothing in the
// bootstrap outlives it on purpose.
func (l Launch) Run(ctx context.Context) error {
	cmd, err := l.Command(ctx)
	if err != nil {
		return err
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gateway exited: %w", err)
	}
	return nil
}
