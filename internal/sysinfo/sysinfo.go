// Package sysinfo reads host resource usage directly from /proc and the
// root filesystem for the dashboard overview.
package sysinfo

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Snapshot is a point-in-time view of host resources. All values are best
// effort; unreadable sources leave zeros.
type Snapshot struct {
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	DiskUsedPercent   float64 `json:"disk_used_percent"`
	Load1             float64 `json:"load_1"`
}

// Collect gathers a snapshot from /proc/meminfo, /proc/loadavg and a statfs
// of the root filesystem.
func Collect() Snapshot {
	var s Snapshot

	if total, avail, err := readMeminfo("/proc/meminfo"); err == nil && total > 0 {
		s.MemoryUsedPercent = round2(100 * float64(total-avail) / float64(total))
	}
	if load, err := readLoadavg("/proc/loadavg"); err == nil {
		s.Load1 = load
	}

	var fs syscall.Statfs_t
	if err := syscall.Statfs("/", &fs); err == nil && fs.Blocks > 0 {
		used := fs.Blocks - fs.Bavail
		s.DiskUsedPercent = round2(100 * float64(used) / float64(fs.Blocks))
	}

	return s
}

// readMeminfo returns MemTotal and MemAvailable in kB.
func readMeminfo(path string) (total, avail uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total, _ = strconv.ParseUint(fields[1], 10, 64)
		case "MemAvailable:":
			avail, _ = strconv.ParseUint(fields[1], 10, 64)
		}
		if total > 0 && avail > 0 {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("no MemTotal in %s", path)
	}
	return total, avail, nil
}

// readLoadavg returns the one-minute load average.
func readLoadavg(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty loadavg in %s", path)
	}
	return strconv.ParseFloat(fields[0], 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
