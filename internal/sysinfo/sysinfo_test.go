package sysinfo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadMeminfo(t *testing.T) {
	path := writeFixture(t, "meminfo", "MemTotal:       16384000 kB\nMemFree:         1024000 kB\nMemAvailable:    8192000 kB\nBuffers:          512000 kB\n")

	total, avail, err := readMeminfo(path)
	if err != nil {
		t.Fatalf("readMeminfo: %v", err)
	}
	if total != 16384000 || avail != 8192000 {
		t.Fatalf("total=%d avail=%d, want 16384000/8192000", total, avail)
	}
}

func TestReadMeminfoMissingTotal(t *testing.T) {
	path := writeFixture(t, "meminfo", "MemFree: 1024 kB\n")

	if _, _, err := readMeminfo(path); err == nil {
		t.Fatal("readMeminfo accepted input without MemTotal")
	}
}

func TestReadLoadavg(t *testing.T) {
	path := writeFixture(t, "loadavg", "0.52 0.58 0.59 1/389 12345\n")

	load, err := readLoadavg(path)
	if err != nil {
		t.Fatalf("readLoadavg: %v", err)
	}
	if load != 0.52 {
		t.Fatalf("load=%v, want 0.52", load)
	}
}

func TestCollectDoesNotPanic(t *testing.T) {
	// Values are host-dependent; just exercise the full path.
	s := Collect()
	if s.MemoryUsedPercent < 0 || s.MemoryUsedPercent > 100 {
		t.Fatalf("memory percent out of range: %v", s.MemoryUsedPercent)
	}
	if s.DiskUsedPercent < 0 || s.DiskUsedPercent > 100 {
		t.Fatalf("disk percent out of range: %v", s.DiskUsedPercent)
	}
}
