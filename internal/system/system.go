// Package system holds host-level helpers: resource limits, worker sizing
// and media probing.
package system

import (
	"log/slog"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sys/unix"
)

const wantOpenFiles = 2048

// InitResourceLimits raises the open-file limit so parallel ffmpeg runs do
// not exhaust descriptors.
func InitResourceLimits(logger *slog.Logger) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		logger.Warn("read open file limit", "error", err)
		return
	}
	if rl.Cur >= wantOpenFiles {
		return
	}
	rl.Cur = min(uint64(wantOpenFiles), rl.Max)
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		logger.Warn("raise open file limit", "error", err)
		return
	}
	logger.Debug("open file limit raised", "limit", rl.Cur)
}

// Workers returns the default parallelism: the logical CPU count, capped by
// limit when limit > 0.
func Workers(limit int) int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return max(1, n)
}

// LogHost records the machine the render runs on.
func LogHost(logger *slog.Logger) {
	attrs := []any{"cpus", Workers(0)}
	if vm, err := mem.VirtualMemory(); err == nil {
		attrs = append(attrs, "mem_total_mb", vm.Total>>20, "mem_available_mb", vm.Available>>20)
	}
	logger.Debug("host", attrs...)
}
