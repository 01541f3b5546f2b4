// Package lxc drives the LXC container runtime through typed, single-attempt
// command invocations. Commands are built as argument vectors and never pass
// through a shell.
package lxc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config configures the gateway.
type Config struct {
	// Binary is the lxc client binary.
	Binary string
	// Image is the base image used for new containers.
	Image string
	// StoragePool is the pool new containers are provisioned on.
	StoragePool string
	// Timeout bounds every command invocation.
	Timeout time.Duration
}

// Gateway executes container runtime commands. Every call is a single
// attempt: on failure the external runtime state is undefined and the caller
// decides what to do about it.
type Gateway struct {
	bin     string
	image   string
	pool    string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewGateway creates a gateway from cfg. Zero fields fall back to the
// conventional defaults.
func NewGateway(cfg Config, log *zap.SugaredLogger) *Gateway {
	if cfg.Binary == "" {
		cfg.Binary = "lxc"
	}
	if cfg.Image == "" {
		cfg.Image = "ubuntu:22.04"
	}
	if cfg.StoragePool == "" {
		cfg.StoragePool = "btrpool"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Gateway{
		bin:     cfg.Binary,
		image:   cfg.Image,
		pool:    cfg.StoragePool,
		timeout: cfg.Timeout,
		log:     log,
	}
}

// TimeoutError reports a command that exceeded the gateway timeout. The
// remote operation may still be running; the caller must not assume it
// failed cleanly.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command timed out after %s: %s", e.Timeout, e.Command)
}

// CommandError reports a command that completed with a non-zero exit status.
type CommandError struct {
	Command string
	Stderr  string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command failed: %s", e.Command)
	}
	return e.Stderr
}

// run executes a single lxc invocation and returns its trimmed stdout.
func (g *Gateway) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return strings.TrimSpace(stdout.String()), nil
	}

	cmdline := g.bin + " " + strings.Join(args, " ")
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		g.log.Errorf("lxc command timed out: %s", cmdline)
		return "", &TimeoutError{Command: cmdline, Timeout: g.timeout}
	}

	msg := strings.TrimSpace(stderr.String())
	g.log.Errorf("lxc command failed: %s: %s", cmdline, msg)
	return "", &CommandError{Command: cmdline, Stderr: msg}
}

// Launch provisions and starts a new container with the given resource limits.
func (g *Gateway) Launch(ctx context.Context, name string, memoryMB, cpus int) error {
	_, err := g.run(ctx, "launch", g.image, name,
		"--config", fmt.Sprintf("limits.memory=%dMB", memoryMB),
		"--config", fmt.Sprintf("limits.cpu=%d", cpus),
		"-s", g.pool)
	return err
}

// Start starts a stopped container.
func (g *Gateway) Start(ctx context.Context, name string) error {
	_, err := g.run(ctx, "start", name)
	return err
}

// Stop stops a running container.
func (g *Gateway) Stop(ctx context.Context, name string) error {
	_, err := g.run(ctx, "stop", name)
	return err
}

// Restart restarts a container.
func (g *Gateway) Restart(ctx context.Context, name string) error {
	_, err := g.run(ctx, "restart", name)
	return err
}

// Delete force-removes a container.
func (g *Gateway) Delete(ctx context.Context, name string) error {
	_, err := g.run(ctx, "delete", name, "--force")
	return err
}
