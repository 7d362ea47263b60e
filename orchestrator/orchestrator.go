// Package orchestrator is the single module every control-plane entry
// point (socket daemon, signal daemon, media-bus adapter, and the
// play CLI) calls into, so the resolve/decode/post-process/persist/launch
// pipeline exists exactly once rather than once per daemon.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/cache"
	"github.com/br4qua/qua-play/decode"
	"github.com/br4qua/qua-play/navigator"
	"github.com/br4qua/qua-play/policy"
	"github.com/br4qua/qua-play/postprocess"
	"github.com/br4qua/qua-play/wav"
)

// ErrNoTrack is returned by Play("") when there is no current track, no
// resumable state record, and no playable history entry.
var ErrNoTrack = errors.New("orchestrator: no current track and history is empty")

// Config carries the deployment-specific parameters Play needs to launch
// the streamer: which CPU to pin it to, which sound-card device to open,
// and where the launcher/streamer binaries live.
type Config struct {
	CPUID        int
	DeviceID     string
	LauncherPath string
	StreamerPath string
}

// Orchestrator is the glue between the decoder/post-processor/cache and
// the launcher, constructed once per daemon process and passed down
// explicitly rather than kept as package-level state.
type Orchestrator struct {
	cache     *cache.Cache
	policy    policy.Config
	configDir string
	cfg       Config

	mu      sync.Mutex
	current *os.Process
}

// New constructs an Orchestrator backed by c for cache storage, pol for
// target-policy resolution, and cfg for streamer launch parameters.
func New(c *cache.Cache, pol policy.Config, cfg Config) (*Orchestrator, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{cache: c, policy: pol, configDir: dir, cfg: cfg}, nil
}

// Play resolves path to a track (or, if empty, resumes the last track or
// the most recent playable history entry), fills the cache if necessary,
// persists it as the current track, and launches the streamer on it.
func (o *Orchestrator) Play(ctx context.Context, path string) error {
	target, err := o.resolveTarget(path)
	if err != nil {
		return err
	}

	cachePath, err := o.fillCache(ctx, target)
	if err != nil {
		return fmt.Errorf("orchestrator: preparing %s: %w", target, err)
	}

	stopConflictingDaemons()

	if err := writeState(o.configDir, target); err != nil {
		return err
	}

	if err := appendHistory(o.configDir, target, time.Now()); err != nil {
		return err
	}

	return o.launchStreamer(cachePath)
}

// PlayNext resumes the current track's directory and plays the next
// recognized entry, wrapping at the end.
func (o *Orchestrator) PlayNext(ctx context.Context) error {
	return o.playOffset(ctx, 1)
}

// PlayPrev plays the previous recognized entry in the current track's
// directory, wrapping at the start.
func (o *Orchestrator) PlayPrev(ctx context.Context) error {
	return o.playOffset(ctx, -1)
}

func (o *Orchestrator) playOffset(ctx context.Context, offset int) error {
	current, err := readState(o.configDir)
	if err != nil {
		return err
	}

	if current == "" {
		return ErrNoTrack
	}

	next, err := navigator.Next(current, offset)
	if err != nil {
		return fmt.Errorf("orchestrator: navigating: %w", err)
	}

	return o.Play(ctx, next)
}

// Stop terminates the currently running streamer process, if any.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	proc := o.current
	o.current = nil
	o.mu.Unlock()

	if proc == nil {
		return nil
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("orchestrator: stopping streamer: %w", err)
	}

	return nil
}

// Show returns the last played path, or "" if none is recorded.
func (o *Orchestrator) Show() (string, error) {
	return readState(o.configDir)
}

// resolveTarget implements the "play" command's path-resolution precedence:
// an explicit path wins outright; otherwise the state record; otherwise the
// most recent still-extant history entry.
func (o *Orchestrator) resolveTarget(path string) (string, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("orchestrator: resolving %s: %w", path, err)
		}

		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("orchestrator: %s: %w", abs, err)
		}

		return abs, nil
	}

	if current, err := readState(o.configDir); err != nil {
		return "", err
	} else if current != "" {
		return current, nil
	}

	last, err := lastPlayableFromHistory(o.configDir)
	if err != nil {
		return "", err
	}

	if last == "" {
		return "", ErrNoTrack
	}

	return last, nil
}

// fillCache returns the cache entry for target, building it (decode, then
// post-process if required) if it doesn't already exist. A cache miss runs
// the decode in parallel with a daemon-cleanup pass, matching the original
// pipeline's decode/cleanup thread pair.
func (o *Orchestrator) fillCache(ctx context.Context, target string) (string, error) {
	fp, err := cache.Fingerprint(target)
	if err != nil {
		return "", err
	}

	return o.cache.Fill(fp, func(dstPath string) error {
		o.cache.ManageSize() //nolint:errcheck // a failed eviction pass shouldn't block a decode that still fits.

		var result decode.Result

		group, gctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			var decodeErr error
			result, decodeErr = decode.ToWAV(gctx, target, dstPath)

			return decodeErr
		})
		group.Go(func() error {
			stopConflictingDaemons()

			return nil
		})

		if err := group.Wait(); err != nil {
			return err
		}

		return o.postProcessIfNeeded(dstPath, result.Format)
	})
}

// postProcessIfNeeded rewrites dstPath in place when the decoded format
// doesn't already match the resolved target policy.
func (o *Orchestrator) postProcessIfNeeded(dstPath string, detected qua.PCMFormat) error {
	target := o.policy.Resolve(detected.BitDepth, detected.SampleRate)

	needsPostProcess := detected.Channels != 2 ||
		detected.BitDepth != target.BitDepth.AsBitDepth() ||
		detected.SampleRate != target.SampleRate

	if !needsPostProcess {
		return nil
	}

	pcm, err := os.ReadFile(dstPath) //nolint:gosec // dstPath is the caller's own cache temp file.
	if err != nil {
		return fmt.Errorf("orchestrator: reading %s for post-processing: %w", dstPath, err)
	}

	format := detected

	if format.Channels != 2 {
		pcm, err = postprocess.Remap(pcm, format)
		if err != nil {
			return fmt.Errorf("orchestrator: remapping channels: %w", err)
		}

		format.Channels = 2
	}

	if format.SampleRate != target.SampleRate {
		pcm, err = postprocess.Resample(pcm, format, target.SampleRate)
		if err != nil {
			return fmt.Errorf("orchestrator: resampling: %w", err)
		}

		format.SampleRate = target.SampleRate
	}

	if format.BitDepth != target.BitDepth.AsBitDepth() {
		pcm = postprocess.Requantize(pcm, format.BitDepth, target.BitDepth.AsBitDepth())
	}

	tmp := dstPath + ".post"

	out, err := os.Create(tmp) //nolint:gosec // tmp sits alongside the caller's own cache temp file.
	if err != nil {
		return fmt.Errorf("orchestrator: creating %s: %w", tmp, err)
	}

	if err := wav.EncodeClassic(out, pcm, target); err != nil {
		out.Close()
		_ = os.Remove(tmp)

		return fmt.Errorf("orchestrator: encoding post-processed output: %w", err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("orchestrator: closing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, dstPath); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("orchestrator: replacing %s: %w", dstPath, err)
	}

	return nil
}

// launchStreamer starts the launcher binary, which pins affinity and execs
// into the streamer; the orchestrator tracks the resulting process so a
// later Stop can terminate it, but does not wait for it to finish.
func (o *Orchestrator) launchStreamer(cachePath string) error {
	cmd := exec.Command( //nolint:gosec // launcher/streamer paths and device id come from deployment config, not request input.
		o.cfg.LauncherPath,
		fmt.Sprintf("%d", o.cfg.CPUID),
		o.cfg.StreamerPath,
		cachePath,
		o.cfg.DeviceID,
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("orchestrator: launching streamer: %w", err)
	}

	o.mu.Lock()
	o.current = cmd.Process
	o.mu.Unlock()

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
