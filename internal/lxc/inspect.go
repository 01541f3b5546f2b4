package lxc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound reports that the runtime has no container by that name.
var ErrNotFound = errors.New("container not found")

// ContainerState is the runtime-reported state of one container.
type ContainerState struct {
	Status           string
	MemoryUsageBytes int64
	CPUTimeSeconds   float64
}

// listEntry mirrors the parts of `lxc list --format json` output we read.
type listEntry struct {
	Name  string      `json:"name"`
	State *entryState `json:"state"`
}

type entryState struct {
	Status string `json:"status"`
	Memory struct {
		Usage int64 `json:"usage"`
	} `json:"memory"`
	CPU struct {
		Usage int64 `json:"usage"`
	} `json:"cpu"`
}

// Inspect queries the runtime for a container's status and resource usage.
func (g *Gateway) Inspect(ctx context.Context, name string) (*ContainerState, error) {
	out, err := g.run(ctx, "list", name, "--format", "json")
	if err != nil {
		return nil, err
	}

	var entries []listEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		return nil, fmt.Errorf("decode lxc list output: %w", err)
	}

	// The positional list filter is a prefix match, so vps-1-1 also matches
	// vps-1-10. Only an exact name counts as found.
	for i := range entries {
		if entries[i].Name != name {
			continue
		}
		state := &ContainerState{Status: "Unknown"}
		if s := entries[i].State; s != nil {
			state.Status = s.Status
			state.MemoryUsageBytes = s.Memory.Usage
			// LXD reports CPU usage in nanoseconds.
			state.CPUTimeSeconds = float64(s.CPU.Usage) / 1e9
		}
		return state, nil
	}
	return nil, ErrNotFound
}
