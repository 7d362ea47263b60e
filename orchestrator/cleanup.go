package orchestrator

import "os/exec"

// conflictingServices are the user-level units known to hold the sound
// card open; stopped alongside every decode and again before every
// streamer launch.
var conflictingServices = []string{
	"pipewire.socket",
	"pipewire.service",
	"wireplumber.service",
	"pipewire-pulse.socket",
	"pipewire-pulse.service",
}

// stopConflictingDaemons kills any running player process plus a known
// compositor, then stops the user-level sound server units, one command
// at a time. Every step is best-effort: a unit that isn't running, or a
// system without systemd, just produces a nonzero exit that is ignored —
// this call is always safe to make speculatively.
func stopConflictingDaemons() {
	runIgnoringFailure("pkill", "-9", "qua-player")
	runIgnoringFailure("pkill", "-9", "picom")

	for _, svc := range conflictingServices {
		runIgnoringFailure("systemctl", "--user", "stop", svc)
	}
}

func runIgnoringFailure(name string, args ...string) {
	cmd := exec.Command(name, args...) //nolint:gosec // name/args come from a fixed internal table.
	_ = cmd.Run()
}
