// Package launcher prepares the deterministic, low-jitter execution
// environment the streamer assumes and never re-establishes itself: CPU
// affinity, top real-time scheduling priority, OOM-killer immunity,
// disabled ASLR, closed file descriptors, and a new session — then
// replaces the launcher's own process image with the player via exec.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	rtPriority = 99
	oomScoreMin = "-1000"
)

var (
	ErrMissingArgs = errors.New("launcher: usage: launcher <cpu_id> <player_path> <args...>")
	ErrPlayerMissing = errors.New("launcher: player path does not exist")
)

// Run applies the ordered sequence of hygiene actions and then execs into
// playerPath, passing playerArgs as argv[1:]. A missing or nonexistent
// player path is checked before any privilege changes, so a bad invocation
// never leaves the process partially reconfigured. Run never returns on
// success — exec replaces the process image; it only returns on error.
func Run(cpuID int, playerPath string, playerArgs []string) error {
	if _, err := os.Stat(playerPath); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPlayerMissing, playerPath, err)
	}

	pinAffinity(cpuID)
	setRealtimePriority()
	setOOMScoreMin()
	disableASLR()
	closeExtraFileDescriptors()

	if err := unix.Setsid(); err != nil {
		// Setsid failing (already a session leader) is not fatal — the
		// original launcher doesn't check its return value either.
		_ = err
	}

	argv := append([]string{playerPath}, playerArgs...)

	// Empty envp, not os.Environ(): the player must start from a fixed,
	// empty environment for its execution to be deterministic run to run,
	// required for bit-identical behavior across PGO runs.
	if err := unix.Exec(playerPath, argv, []string{}); err != nil {
		return fmt.Errorf("launcher: exec %s: %w", playerPath, err)
	}

	return nil // unreachable: Exec only returns on error
}

// pinAffinity pins the calling process to a single core. A failure here is
// ignored, not fatal — matching the original launcher, which proceeds even
// when sched_setaffinity is refused.
func pinAffinity(cpuID int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)

	_ = unix.SchedSetaffinity(0, &set)
}

// setRealtimePriority requests SCHED_FIFO at the maximum priority.
func setRealtimePriority() {
	_ = unix.SchedSetscheduler(0, unix.SCHED_FIFO, &unix.SchedParam{Priority: rtPriority})
}

// setOOMScoreMin writes the lowest possible OOM score adjustment, which
// exempts this process from the kernel's OOM killer.
func setOOMScoreMin() {
	f, err := os.OpenFile("/proc/self/oom_score_adj", os.O_WRONLY, 0)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.WriteString(oomScoreMin)
}

// disableASLR turns off address-space layout randomization for this
// process image, required for bit-identical behavior across PGO runs.
func disableASLR() {
	_, _ = unix.Personality(unix.ADDR_NO_RANDOMIZE)
}

// closeExtraFileDescriptors closes every open fd except the one used to
// enumerate /proc/self/fd itself, mirroring the original's directory walk;
// falls back to closing the full fd range if /proc isn't available.
func closeExtraFileDescriptors() {
	dir, err := os.Open("/proc/self/fd")
	if err != nil {
		closeFDRangeFallback()

		return
	}

	names, _ := dir.Readdirnames(-1)
	dirFD := int(dir.Fd())

	for _, name := range names {
		fd, convErr := strconv.Atoi(name)
		if convErr != nil || fd == dirFD {
			continue
		}

		_ = unix.Close(fd)
	}

	dir.Close()
}

func closeFDRangeFallback() {
	var rlim unix.Rlimit
	if unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim) != nil {
		return
	}

	for fd := 0; fd < int(rlim.Max); fd++ {
		_ = unix.Close(fd)
	}
}
