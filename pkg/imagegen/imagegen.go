// Package imagegen is the thin invocation contract for the bundled
// image-generation skill. The skill's script owns the API call; this
// package only assembles its argv, runs it, and maps the exit status to
// an error. The generated file lands wherever Request.OutputPath says.
package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ScriptRelPath is where the generate script lives inside an installed
// skill bundle.
const ScriptRelPath = "scripts/generate_image.py"

// Resolutions the script accepts.
const (
	Resolution1K = "1K"
	Resolution2K = "2K"
	Resolution4K = "4K"
)

// maxInputImages is the script's documented limit for edit inputs.
const maxInputImages = 14

// Request describes one generation run.
type Request struct {
	// Prompt is the image description. Required.
	Prompt string
	// OutputPath is where the script writes the image. Required.
	OutputPath string
	// InputImages are optional source images for editing.
	InputImages []string
	// Resolution is 1K, 2K, or 4K; the script defaults to 1K when empty.
	Resolution string
}

// Validate checks the request against the script's contract.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return fmt.Errorf("output path is required")
	}
	switch r.Resolution {
	case "", Resolution1K, Resolution2K, Resolution4K:
	default:
		return fmt.Errorf("invalid resolution %q: must be 1K, 2K, or 4K", r.Resolution)
	}
	if len(r.InputImages) > maxInputImages {
		return fmt.Errorf("at most %d input images are supported, got %d", maxInputImages, len(r.InputImages))
	}
	return nil
}

// Args builds the script's command line for the request.
func (r Request) Args() []string {
	args := []string{"--prompt", r.Prompt, "--filename", r.OutputPath}
	if r.Resolution != "" {
		args = append(args, "--resolution", r.Resolution)
	}
	for _, img := range r.InputImages {
		args = append(args, "--input-image", img)
	}
	return args
}

// Runner invokes the generate script of one installed skill bundle.
type Runner struct {
	// SkillDir is the installed bundle directory.
	SkillDir string
	// Python overrides the interpreter; defaults to python3.
	Python string
}

// Generate runs the script for the request. Success or failure is the
// script's exit status; stderr is folded into the returned error so the
// caller has something actionable to log.
func (g *Runner) Generate(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	python := g.Python
	if python == "" {
		python = "python3"
	}
	script := filepath.Join(g.SkillDir, filepath.FromSlash(ScriptRelPath))

	cmd := exec.CommandContext(ctx, python, append([]string{script}, req.Args()...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("image generation failed: %w: %s", err, msg)
		}
		return fmt.Errorf("image generation failed: %w", err)
	}
	return nil
}
