package gateway

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLaunchValidate(t *testing.T) {
	ok := Launch{ConfigPath: "/data/openclaw.json", StateRoot: "/data"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid launch rejected: %v", err)
	}
	if err := (Launch{StateRoot: "/data"}).Validate(); err == nil {
		t.Fatal("expected error for missing config path")
	}
	if err := (Launch{ConfigPath: "/data/openclaw.json"}).Validate(); err == nil {
		t.Fatal("expected error for missing state root")
	}
}

func TestResolveMissingBinary(t *testing.T) {
	l := Launch{Binary: "definitely-not-installed-gateway"}
	if _, err := l.Resolve(); err == nil {
		t.Fatal("expected lookup failure")
	}
}

func fakeBinary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "openclaw-gateway")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return path
}

func TestCommandWiring(t *testing.T) {
	fakeBinary(t)

	l := Launch{
		ConfigPath: "/data/openclaw.json",
		StateRoot:  "/data",
		ExtraEnv:   map[string]string{"ANTHROPIC_API_KEY": "key"},
	}
	cmd, err := l.Command(context.Background())
	if err != nil {
		t.Fatalf("Command: %v", err)
	}

	args := strings.Join(cmd.Args, " ")
	if !strings.Contains(args, "--config /data/openclaw.json") {
		t.Fatalf("args = %q", args)
	}

	env := strings.Join(cmd.Env, "\n")
	if !strings.Contains(env, "OPENCLAW_STATE_DIR=/data") {
		t.Fatal("state dir not passed to gateway")
	}
	if !strings.Contains(env, "ANTHROPIC_API_KEY=key") {
		t.Fatal("extra env not passed to gateway")
	}
}

func TestRunPropagatesExitStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openclaw-gateway")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 3\n"), 0755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}

	l := Launch{Binary: path, ConfigPath: "/dev/null", StateRoot: t.TempDir()}
	if err := l.Run(context.Background()); err == nil {
		t.Fatal("expected non-zero gateway exit to surface")
	}
}
