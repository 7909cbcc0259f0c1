package docker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/tianmingyun/huggingface-openclaw/pkg/log"
	"github.com/tianmingyun/huggingface-openclaw/pkg/pathutil"
)

// Runtime runs the Space image in a local Docker container so the bundle
// can be exercised without deploying to Hugging Face.
type Runtime struct {
	cli *client.Client
}

func NewRuntime() (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Runtime{cli: cli}, nil
}

func (r *Runtime) Close() error {
	return r.cli.Close()
}

// SpaceConfig describes a local run of the Space image.
type SpaceConfig struct {
	Image     string            // Space image to run, e.g. clawspace:dev
	StateRoot string            // host directory bind-mounted as the container state dir
	Port      int               // host port mapped to the gateway port inside the container
	Env       map[string]string // extra environment, passed through verbatim
	Pull      bool              // pull the image before running
}

const (
	containerStateDir = "/data"
	gatewayPort       = "7860/tcp"
)

func (c *SpaceConfig) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("image is required")
	}
	if c.StateRoot == "" {
		return fmt.Errorf("state root is required")
	}
	if pathutil.IsFilesystemRoot(c.StateRoot) {
		return fmt.Errorf("refusing to bind filesystem root %s as state root", c.StateRoot)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid host port %d", c.Port)
	}
	return nil
}

// RunSpace creates and starts the container, streams its logs, and blocks
// until it exits or ctx is cancelled. A non-zero container exit code is
// returned as an error.
func (r *Runtime) RunSpace(ctx context.Context, cfg *SpaceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Pull {
		log.Infof("Pulling image %s...", cfg.Image)
		reader, err := r.cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
		if err != nil {
			log.Warnf("failed to pull image %s: %v", cfg.Image, err)
		} else {
			io.Copy(io.Discard, reader)
			reader.Close()
		}
	}

	env := []string{}
	for k, v := range cfg.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	env = append(env, fmt.Sprintf("OPENCLAW_STATE_DIR=%s", containerStateDir))

	mounts := []mount.Mount{
		{
			Type:   mount.TypeBind,
			Source: cfg.StateRoot,
			Target: containerStateDir,
		},
	}

	exposed, bindings, err := nat.ParsePortSpecs([]string{
		fmt.Sprintf("%d:%s", cfg.Port, gatewayPort),
	})
	if err != nil {
		return fmt.Errorf("failed to build port mapping: %w", err)
	}

	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:        cfg.Image,
		Env:          env,
		ExposedPorts: exposed,
	}, &container.HostConfig{
		Mounts:       mounts,
		PortBindings: bindings,
		AutoRemove:   true,
	}, nil, nil, "")
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	if err := r.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	log.Infof("Space container %s listening on localhost:%d", resp.ID[:12], cfg.Port)

	out, err := r.cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err == nil {
		defer out.Close()
		go io.Copy(os.Stdout, out)
	}

	statusCh, errCh := r.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("container wait error: %w", err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return fmt.Errorf("container failed with exit code %d", status.StatusCode)
		}
	}

	return nil
}
