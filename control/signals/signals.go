// Package signals runs the control-plane signal daemon: three process
// signals map to play/play-next/play-prev, each dispatched by reading a
// buffered channel in the main goroutine rather than doing work inside a
// signal handler — Go's idiomatic realization of the self-pipe trick.
package signals

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/br4qua/qua-play/orchestrator"
)

// DefaultLockPath guards single-instance enforcement, mirroring the socket
// daemon's own lock file in /tmp.
const DefaultLockPath = "/tmp/qua-signal-daemon.lock"

var ErrAlreadyRunning = errors.New("signals: another instance holds the lock")

// Daemon maps SIGUSR1/SIGUSR2/SIGCONT to PlayNext/PlayPrev/Play on a single
// shared Orchestrator.
type Daemon struct {
	LockPath string
	Orch     *orchestrator.Orchestrator

	lockFD int
}

// AcquireLock enforces single-instance semantics via an advisory exclusive
// file lock, exactly like the socket daemon's.
func (d *Daemon) AcquireLock() error {
	if d.LockPath == "" {
		d.LockPath = DefaultLockPath
	}

	fd, err := unix.Open(d.LockPath, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return fmt.Errorf("signals: opening lock %s: %w", d.LockPath, err)
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = unix.Close(fd)

		return ErrAlreadyRunning
	}

	d.lockFD = fd

	return nil
}

// Run installs the signal handlers and blocks, dispatching one request at a
// time until ctx is canceled. SIGCHLD is ignored throughout, matching the
// original daemon's disposition (no children are waited on here — each
// orchestrator call manages its own).
func (d *Daemon) Run(ctx context.Context) error {
	signal.Ignore(syscall.SIGCHLD)

	ch := make(chan os.Signal, 8)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGCONT)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return nil

		case sig := <-ch:
			d.dispatch(ctx, sig)
		}
	}
}

func (d *Daemon) dispatch(ctx context.Context, sig os.Signal) {
	var err error

	switch sig {
	case syscall.SIGUSR1:
		err = d.Orch.PlayNext(ctx)
	case syscall.SIGUSR2:
		err = d.Orch.PlayPrev(ctx)
	case syscall.SIGCONT:
		err = d.Orch.Play(ctx, "")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "[qua-signald] %s: %v\n", sig, err)
	}
}

// Close releases the single-instance lock.
func (d *Daemon) Close() error {
	if d.lockFD == 0 {
		return nil
	}

	return unix.Close(d.lockFD)
}
