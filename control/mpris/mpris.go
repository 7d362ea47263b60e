// Package mpris adapts the control command set to the MPRIS media-control
// D-Bus interface: a well-known bus name, the standard Player/MediaPlayer2
// interfaces, and PropertiesChanged signals on state transitions.
package mpris

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/br4qua/qua-play/orchestrator"
)

const (
	busName     = "org.mpris.MediaPlayer2.qua"
	objectPath  = "/org/mpris/MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"
	rootIface   = "org.mpris.MediaPlayer2"
	signalDProc = "qua-signald"
)

// Adapter registers busName on the session bus and answers MPRIS method
// calls and property reads from locally tracked playback state.
type Adapter struct {
	conn  *dbus.Conn
	orch  *orchestrator.Orchestrator
	props *prop.Properties

	mu        sync.Mutex
	isPlaying bool
	title     string
	artist    string
}

// Register connects to the session bus, requests busName, and exports the
// MediaPlayer2/Player method and property surface.
func Register(orch *orchestrator.Orchestrator) (*Adapter, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("mpris: connecting to session bus: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagReplaceExisting)
	if err != nil {
		return nil, fmt.Errorf("mpris: requesting %s: %w", busName, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("mpris: %s is already owned by another process", busName)
	}

	a := &Adapter{conn: conn, orch: orch, title: "No track", artist: "Unknown Artist"}

	if err := conn.Export(a, objectPath, playerIface); err != nil {
		return nil, fmt.Errorf("mpris: exporting player methods: %w", err)
	}

	if err := conn.Export(a, objectPath, rootIface); err != nil {
		return nil, fmt.Errorf("mpris: exporting root methods: %w", err)
	}

	props, err := prop.Export(conn, objectPath, a.propSpec())
	if err != nil {
		return nil, fmt.Errorf("mpris: exporting properties: %w", err)
	}

	a.props = props

	node := &introspect.Node{
		Name: objectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
		},
	}

	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("mpris: exporting introspection: %w", err)
	}

	return a, nil
}

func (a *Adapter) propSpec() prop.Map {
	return prop.Map{
		playerIface: {
			"PlaybackStatus": {Value: "Paused", Writable: false, Emit: prop.EmitTrue},
			"Metadata":       {Value: a.metadataMap(), Writable: false, Emit: prop.EmitTrue},
			"CanGoNext":      {Value: true, Writable: false, Emit: prop.EmitFalse},
			"CanGoPrevious":  {Value: true, Writable: false, Emit: prop.EmitFalse},
			"CanPlay":        {Value: true, Writable: false, Emit: prop.EmitFalse},
			"CanPause":       {Value: true, Writable: false, Emit: prop.EmitFalse},
			"CanControl":     {Value: true, Writable: false, Emit: prop.EmitFalse},
		},
	}
}

func (a *Adapter) metadataMap() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/Track/1")),
		"xesam:title":   dbus.MakeVariant(a.title),
		"xesam:artist":  dbus.MakeVariant([]string{a.artist}),
	}
}

// Play dispatches the equivalent of "play" through the orchestrator
// directly; unlike Next and Previous it does not signal the signal daemon.
func (a *Adapter) Play() *dbus.Error {
	if err := a.orch.Play(context.Background(), ""); err != nil {
		return dbus.MakeFailedError(err)
	}

	a.setPlaying(true)

	return nil
}

// Pause maps to Stop: this system has no seek/resume machinery, so there is
// no true pause state to return to.
func (a *Adapter) Pause() *dbus.Error {
	return a.Stop()
}

// PlayPause toggles based on the locally tracked is_playing flag.
func (a *Adapter) PlayPause() *dbus.Error {
	a.mu.Lock()
	playing := a.isPlaying
	a.mu.Unlock()

	if playing {
		return a.Pause()
	}

	return a.Play()
}

// Stop calls the orchestrator's Stop directly, terminating the streamer this
// process launched, if any.
func (a *Adapter) Stop() *dbus.Error {
	if err := a.orch.Stop(); err != nil {
		return dbus.MakeFailedError(err)
	}

	a.setPlaying(false)

	return nil
}

// Next signals the signal daemon (SIGUSR1) when it can be found, preferring
// the inter-process signal route over spawning a fresh orchestrator call.
func (a *Adapter) Next() *dbus.Error {
	if !signalDaemon(syscall.SIGUSR1) {
		if err := a.orch.PlayNext(context.Background()); err != nil {
			return dbus.MakeFailedError(err)
		}
	}

	a.setPlaying(true)

	return nil
}

// Previous signals the signal daemon (SIGUSR2), with the same fallback as Next.
func (a *Adapter) Previous() *dbus.Error {
	if !signalDaemon(syscall.SIGUSR2) {
		if err := a.orch.PlayPrev(context.Background()); err != nil {
			return dbus.MakeFailedError(err)
		}
	}

	a.setPlaying(true)

	return nil
}

// Raise and Quit are no-ops: there is no window to raise and no separate
// process lifecycle to tear down from the bus.
func (a *Adapter) Raise() *dbus.Error { return nil }
func (a *Adapter) Quit() *dbus.Error  { return nil }

// UpdateMetadata lets an external caller (e.g. the orchestrator, via a
// helper process) push a freshly resolved title/artist pair, emitting both
// PropertiesChanged signals the way the original adapter did.
func (a *Adapter) UpdateMetadata(title, artist string) *dbus.Error {
	a.mu.Lock()
	a.title = title
	a.artist = artist
	a.isPlaying = true
	a.mu.Unlock()

	a.props.SetMust(playerIface, "Metadata", a.metadataMap())
	a.setPlaying(true)

	return nil
}

func (a *Adapter) setPlaying(playing bool) {
	a.mu.Lock()
	a.isPlaying = playing
	a.mu.Unlock()

	status := "Paused"
	if playing {
		status = "Playing"
	}

	a.props.SetMust(playerIface, "PlaybackStatus", status)
}

// signalDaemon sends sig to the running qua-signald process, if one can be
// found via pidof, returning whether it was able to.
func signalDaemon(sig syscall.Signal) bool {
	out, err := exec.Command("pidof", signalDProc).Output() //nolint:gosec // fixed process name, not user input.
	if err != nil {
		return false
	}

	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return false
	}

	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return false
	}

	return syscall.Kill(pid, sig) == nil
}
