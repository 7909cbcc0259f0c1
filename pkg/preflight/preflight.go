// Package preflight validates the container environment before the
// gateway is launched. Error-level failures abort bootstrap with an
// actionable message; warnings are logged and bootstrap proceeds.
package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tianmingyun/huggingface-openclaw/pkg/log"
)

// CheckLevel represents the severity of a preflight check result.
type CheckLevel int

const (
	// LevelError indicates a failure that prevents launching the gateway.
	LevelError CheckLevel = iota
	// LevelWarn indicates something degraded that does not block launch.
	LevelWarn
	// LevelInfo indicates informational output.
	LevelInfo
)

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name    string
	Level   CheckLevel
	Message string
	Error   error
}

// Check is a single preflight check.
type Check interface {
	Name() string
	Run(ctx context.Context) CheckResult
}

// Checker runs a collection of preflight checks.
type Checker struct {
	checks  []Check
	skipped bool
	quiet   bool
}

// Config configures which checks run.
type Config struct {
	// Skip skips all checks.
	Skip bool
	// Quiet suppresses info-level messages.
	Quiet bool
	// GatewayBinary is the executable to look up; empty skips the check.
	GatewayBinary string
	// StateRoot is checked for writability when non-empty.
	StateRoot string
	// RequireModelCredentials checks for an Anthropic credential.
	RequireModelCredentials bool
	// RequirePython checks for python3, which the skill scripts need.
	RequirePython bool
	// HubEndpoint is probed for reachability when DatasetID is set.
	HubEndpoint string
	// DatasetID is the configured sync dataset; empty means sync is off,
	// which is reported as info, never as an error.
	DatasetID string
}

// NewChecker builds a checker from the configuration.
func NewChecker(cfg Config) *Checker {
	c := &Checker{skipped: cfg.Skip, quiet: cfg.Quiet}

	if cfg.GatewayBinary != "" {
		c.checks = append(c.checks, &BinaryCheck{Binary: cfg.GatewayBinary})
	}
	if cfg.StateRoot != "" {
		c.checks = append(c.checks, &StateRootCheck{Path: cfg.StateRoot})
	}
	if cfg.RequireModelCredentials {
		c.checks = append(c.checks, &ModelCredentialsCheck{})
	}
	if cfg.RequirePython {
		c.checks = append(c.checks, &PythonCheck{})
	}
	c.checks = append(c.checks, &SyncCheck{
		DatasetID:   cfg.DatasetID,
		HubEndpoint: cfg.HubEndpoint,
	})

	return c
}

// Run executes all registered checks and returns an error if any
// error-level check fails.
func (c *Checker) Run(ctx context.Context) error {
	if c.skipped {
		log.Info("preflight checks skipped")
		return nil
	}

	log.Info("running preflight checks")

	var errors []error
	var warnings []string

	for _, check := range c.checks {
		result := check.Run(ctx)

		switch result.Level {
		case LevelError:
			log.Error("preflight check failed", "check", result.Name, "message", result.Message)
			if result.Error != nil {
				errors = append(errors, result.Error)
			} else {
				errors = append(errors, fmt.Errorf("%s: %s", result.Name, result.Message))
			}
		case LevelWarn:
			log.Warn("preflight check warning", "check", result.Name, "message", result.Message)
			warnings = append(warnings, fmt.Sprintf("%s: %s", result.Name, result.Message))
		case LevelInfo:
			if !c.quiet {
				log.Info("preflight check", "check", result.Name, "message", result.Message)
			}
		}
	}

	if len(warnings) > 0 {
		log.Info("preflight warnings", "count", len(warnings))
	}

	if len(errors) > 0 {
		var msgs []string
		for _, err := range errors {
			msgs = append(msgs, err.Error())
		}
		return fmt.Errorf("preflight checks failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	log.Info("preflight checks passed")
	return nil
}

// BinaryCheck verifies the gateway executable can be found.
type BinaryCheck struct {
	Binary string
}

func (c *BinaryCheck) Name() string { return "gateway-binary" }

func (c *BinaryCheck) Run(ctx context.Context) CheckResult {
	path, err := exec.LookPath(c.Binary)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("gateway binary %q not found on PATH; the container image must install it", c.Binary),
			Error:   err,
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("gateway binary found at %s", path),
	}
}

// StateRootCheck verifies the state root exists and is writable. Spaces
// mount persistent-looking paths read-only in some configurations, and a
// read-only state root makes restore fail in confusing ways later.
type StateRootCheck struct {
	Path string
}

func (c *StateRootCheck) Name() string { return "state-root" }

func (c *StateRootCheck) Run(ctx context.Context) CheckResult {
	if err := os.MkdirAll(c.Path, 0755); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("cannot create state root %s", c.Path),
			Error:   err,
		}
	}

	probe := filepath.Join(c.Path, ".preflight-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("state root %s is not writable", c.Path),
			Error:   err,
		}
	}
	os.Remove(probe)

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("state root %s is writable", c.Path),
	}
}

// ModelCredentialsCheck verifies an Anthropic credential is present.
type ModelCredentialsCheck struct{}

func (c *ModelCredentialsCheck) Name() string { return "model-credentials" }

func (c *ModelCredentialsCheck) Run(ctx context.Context) CheckResult {
	if os.Getenv("ANTHROPIC_AUTH_TOKEN") == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: "no model credential found; set ANTHROPIC_AUTH_TOKEN (or ANTHROPIC_API_KEY) as a Space secret",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: "model credential present",
	}
}

// PythonCheck verifies python3 exists for the skill scripts.
type PythonCheck struct{}

func (c *PythonCheck) Name() string { return "python" }

func (c *PythonCheck) Run(ctx context.Context) CheckResult {
	if _, err := exec.LookPath("python3"); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: "python3 not found; the image-generation skill will not work",
			Error:   err,
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: "python3 is available",
	}
}

// SyncCheck reports the state-sync configuration and probes the hub when
// sync is enabled. An unconfigured dataset is informational: the
// deployment simply runs without persistence.
type SyncCheck struct {
	DatasetID   string
	HubEndpoint string
}

func (c *SyncCheck) Name() string { return "state-sync" }

func (c *SyncCheck) Run(ctx context.Context) CheckResult {
	if c.DatasetID == "" {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelInfo,
			Message: "state sync not configured; agent state will not survive restarts",
		}
	}

	endpoint := c.HubEndpoint
	if endpoint == "" {
		endpoint = "https://huggingface.co"
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, endpoint+"/api/datasets/"+c.DatasetID, nil)
	if err != nil {
		return CheckResult{Name: c.Name(), Level: LevelWarn, Message: "cannot build hub probe request", Error: err}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelWarn,
			Message: fmt.Sprintf("hub unreachable; sync will retry on schedule (dataset %s)", c.DatasetID),
			Error:   err,
		}
	}
	resp.Body.Close()

	return CheckResult{
		Name:    c.Name(),
		Level:   LevelInfo,
		Message: fmt.Sprintf("state sync configured against dataset %s", c.DatasetID),
	}
}
