package lxc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

// writeStub writes an executable shell script standing in for the lxc binary.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lxc")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func newTestGateway(t *testing.T, script string, timeout time.Duration) *Gateway {
	t.Helper()
	return NewGateway(Config{
		Binary:      writeStub(t, script),
		Image:       "ubuntu:22.04",
		StoragePool: "btrpool",
		Timeout:     timeout,
	}, zap.NewNop().Sugar())
}

func TestLaunchBuildsArguments(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	g := newTestGateway(t, fmt.Sprintf(`printf '%%s\n' "$@" > %q`, argsFile), time.Second)

	if err := g.Launch(context.Background(), "vps-1-1", 8192, 1); err != nil {
		t.Fatalf("Launch: %v", err)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	want := "launch\nubuntu:22.04\nvps-1-1\n--config\nlimits.memory=8192MB\n--config\nlimits.cpu=1\n-s\nbtrpool\n"
	if string(data) != want {
		t.Fatalf("args=%q, want %q", data, want)
	}
}

func TestCommandFailureSurfacesStderr(t *testing.T) {
	g := newTestGateway(t, `echo "Error: storage pool not found" >&2; exit 1`, time.Second)

	err := g.Start(context.Background(), "vps-1-1")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err=%T, want *CommandError", err)
	}
	if cmdErr.Stderr != "Error: storage pool not found" {
		t.Fatalf("stderr=%q", cmdErr.Stderr)
	}
	if cmdErr.Error() != "Error: storage pool not found" {
		t.Fatalf("Error()=%q, want the raw runtime message", cmdErr.Error())
	}
}

func TestTimeoutIsDistinguishable(t *testing.T) {
	g := newTestGateway(t, `sleep 5`, 100*time.Millisecond)

	start := time.Now()
	err := g.Stop(context.Background(), "vps-1-1")
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not enforced")
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err=%T (%v), want *TimeoutError", err, err)
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		t.Fatal("timeout also matched *CommandError")
	}
}

func TestInspectParsesState(t *testing.T) {
	out := `[{"name":"vps-1-1","state":{"status":"Running","memory":{"usage":536870912},"cpu":{"usage":12500000000}}}]`
	g := newTestGateway(t, fmt.Sprintf(`echo '%s'`, out), time.Second)

	state, err := g.Inspect(context.Background(), "vps-1-1")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if state.Status != "Running" {
		t.Fatalf("status=%q, want Running", state.Status)
	}
	if state.MemoryUsageBytes != 536870912 {
		t.Fatalf("memory=%d, want 536870912", state.MemoryUsageBytes)
	}
	if state.CPUTimeSeconds != 12.5 {
		t.Fatalf("cpu=%v, want 12.5", state.CPUTimeSeconds)
	}
}

func TestInspectRequiresExactName(t *testing.T) {
	// The list filter is a prefix match: asking for vps-1-1 also returns
	// vps-1-10. A prefix sibling must not pass for the container itself.
	out := `[{"name":"vps-1-10","state":{"status":"Running","memory":{"usage":1048576},"cpu":{"usage":1000000000}}}]`
	g := newTestGateway(t, fmt.Sprintf(`echo '%s'`, out), time.Second)

	_, err := g.Inspect(context.Background(), "vps-1-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound for a prefix sibling", err)
	}

	state, err := g.Inspect(context.Background(), "vps-1-10")
	if err != nil {
		t.Fatalf("Inspect exact match: %v", err)
	}
	if state.Status != "Running" {
		t.Fatalf("status=%q, want Running", state.Status)
	}
}

func TestInspectNotFound(t *testing.T) {
	g := newTestGateway(t, `echo '[]'`, time.Second)

	_, err := g.Inspect(context.Background(), "vps-1-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestInspectMalformedOutput(t *testing.T) {
	g := newTestGateway(t, `echo 'not json'`, time.Second)

	if _, err := g.Inspect(context.Background(), "vps-1-1"); err == nil {
		t.Fatal("Inspect accepted malformed output")
	}
}

func TestDeleteForces(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	g := newTestGateway(t, fmt.Sprintf(`printf '%%s\n' "$@" > %q`, argsFile), time.Second)

	if err := g.Delete(context.Background(), "vps-1-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	data, _ := os.ReadFile(argsFile)
	if string(data) != "delete\nvps-1-1\n--force\n" {
		t.Fatalf("args=%q", data)
	}
}
