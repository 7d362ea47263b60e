// Package socket runs the control-plane Unix socket daemon: one connection
// per command, a NUL-separated "action\0data\0" frame in, one short
// human-readable reply line out.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/br4qua/qua-play/orchestrator"
)

const (
	// DefaultSocketPath is where the daemon listens.
	DefaultSocketPath = "/tmp/qua-socket.sock"
	// DefaultLockPath guards single-instance enforcement.
	DefaultLockPath = "/tmp/qua-socket-daemon.lock"

	readBufSize = 4096
)

var ErrAlreadyRunning = errors.New("socket: another instance holds the lock")

// Daemon is the accept-loop server: one *orchestrator.Orchestrator behind a
// Unix socket, with single-instance enforcement via an advisory file lock.
type Daemon struct {
	SocketPath string
	LockPath   string
	Orch       *orchestrator.Orchestrator

	lockFD int
}

// Listen acquires the single-instance lock, removes any stale socket, binds
// a new listener, and ignores SIGPIPE. It sets no SIGCHLD disposition;
// streamer processes are reaped by the orchestrator that started them.
func (d *Daemon) Listen() (net.Listener, error) {
	if d.SocketPath == "" {
		d.SocketPath = DefaultSocketPath
	}

	if d.LockPath == "" {
		d.LockPath = DefaultLockPath
	}

	fd, err := unix.Open(d.LockPath, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("socket: opening lock %s: %w", d.LockPath, err)
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = unix.Close(fd)

		return nil, ErrAlreadyRunning
	}

	d.lockFD = fd

	_ = os.Remove(d.SocketPath)

	signal.Ignore(syscall.SIGPIPE)

	ln, err := net.Listen("unix", d.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("socket: listening on %s: %w", d.SocketPath, err)
	}

	return ln, nil
}

// Serve accepts connections until ctx is canceled, handling one command per
// connection and never blocking indefinitely on a single client: reads are
// bounded by readBufSize.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			continue
		}

		go d.handle(ctx, conn)
	}
}

func (d *Daemon) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, readBufSize)

	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return
	}

	action, data := parseFrame(buf[:n])

	reply := d.dispatch(ctx, action, data)

	_, _ = conn.Write([]byte(reply))
}

// parseFrame splits a "action\0data\0" (or bare "action\0") frame.
func parseFrame(raw []byte) (action, data string) {
	parts := strings.SplitN(string(raw), "\x00", 3)

	action = parts[0]

	if len(parts) > 1 {
		data = parts[1]
	}

	return action, data
}

func (d *Daemon) dispatch(ctx context.Context, action, data string) string {
	switch action {
	case "play":
		if err := d.Orch.Play(ctx, data); err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}

		return "Playing\n"

	case "play-next":
		if err := d.Orch.PlayNext(ctx); err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}

		return "Next\n"

	case "play-prev":
		if err := d.Orch.PlayPrev(ctx); err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}

		return "Prev\n"

	case "stop":
		if err := d.Orch.Stop(); err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}

		return "Stopped\n"

	case "show":
		path, err := d.Orch.Show()
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}

		return path

	default:
		return fmt.Sprintf("Unknown command: %s\n", action)
	}
}

// Close releases the single-instance lock.
func (d *Daemon) Close() error {
	if d.lockFD == 0 {
		return nil
	}

	return unix.Close(d.lockFD)
}

// SendCommand is a client-side helper that forwards one command over the
// socket and returns the daemon's reply. The signal daemon and the MPRIS
// adapter do not use it; they call the orchestrator directly.
func SendCommand(socketPath, action, data string) (string, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return "", fmt.Errorf("socket: dialing %s: %w", socketPath, err)
	}
	defer conn.Close()

	frame := action + "\x00" + data + "\x00"
	if _, err := conn.Write([]byte(frame)); err != nil {
		return "", fmt.Errorf("socket: writing command: %w", err)
	}

	reply := make([]byte, readBufSize)

	n, err := conn.Read(reply)
	if err != nil && n == 0 {
		return "", fmt.Errorf("socket: reading reply: %w", err)
	}

	return string(reply[:n]), nil
}
