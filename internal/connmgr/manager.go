package connmgr

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wrenware/bluectl/internal/bluetooth"
	"github.com/wrenware/bluectl/internal/registry"
)

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives connection events for the history log. Recording is
// best-effort: failures are logged, never surfaced to the caller.
type Recorder interface {
	Record(ctx context.Context, addr bluetooth.Address, event, detail string) error
}

// Connection history event names.
const (
	EventConnected        = "connected"
	EventConnectFailed    = "connect_failed"
	EventDisconnected     = "disconnected"
	EventDisconnectFailed = "disconnect_failed"
)

// Manager drives connect/disconnect operations against the adapter
// gateway and keeps the registry's last_connected in step.
//
// The manager mutates only in-memory registry state; persisting the
// registry remains the caller's load-once/save-once responsibility.
type Manager struct {
	registry *registry.Registry
	adapter  bluetooth.Adapter
	recorder Recorder
	logger   Logger

	// now is the clock used for last_connected stamps.
	now func() time.Time
}

// NewManager creates a connection manager over the given registry and
// adapter gateway.
func NewManager(reg *registry.Registry, adapter bluetooth.Adapter) *Manager {
	return &Manager{
		registry: reg,
		adapter:  adapter,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// SetRecorder sets the connection history recorder.
func (m *Manager) SetRecorder(rec Recorder) {
	m.recorder = rec
}

// ResolveTarget resolves the device an operation applies to.
//
// An explicit address is parsed and must be registered. An empty string
// falls back to the configured default device, failing with
// registry.ErrNoDefaultDevice when none is set. The same rule serves
// connect and disconnect, and is the basis of the zero-argument
// auto-connect invocation.
func (m *Manager) ResolveTarget(explicit string) (bluetooth.Address, error) {
	if explicit != "" {
		addr, err := bluetooth.ParseAddress(explicit)
		if err != nil {
			return bluetooth.Address{}, err
		}
		if _, ok := m.registry.Lookup(addr); !ok {
			return bluetooth.Address{}, fmt.Errorf("%s: %w", addr, registry.ErrDeviceNotRegistered)
		}
		return addr, nil
	}

	addr, ok := m.registry.DefaultDevice()
	if !ok {
		return bluetooth.Address{}, registry.ErrNoDefaultDevice
	}
	return addr, nil
}

// Connect drives the connect transition for a resolved target.
//
// An already-connected device short-circuits to AlreadyInDesiredState
// without touching the gateway or last_connected (no duplicate side
// effects on a no-op). On success, last_connected is stamped with the
// current time. On any failure the device stays disconnected and the
// outcome is returned verbatim; the manager performs no retry.
func (m *Manager) Connect(ctx context.Context, addr bluetooth.Address) bluetooth.Outcome {
	if m.adapter.Status(ctx, addr) == bluetooth.StatusConnected {
		m.logger.Debug("already connected", "address", addr.String())
		return bluetooth.AlreadyInDesiredState
	}

	timeout := m.registry.Timeout()
	m.logger.Info("connecting", "address", addr.String(), "timeout", timeout.String())

	outcome := m.adapter.Connect(ctx, addr, timeout)
	switch outcome.Code {
	case bluetooth.OutcomeSucceeded:
		if err := m.registry.TouchConnected(addr, m.now()); err != nil {
			// Resolution guarantees registration; a miss here means the
			// registry changed underneath us.
			m.logger.Warn("updating last_connected failed", "address", addr.String(), "error", err)
		}
		m.record(ctx, addr, EventConnected, "")
		m.logger.Info("connected", "address", addr.String())
	case bluetooth.OutcomeAlreadyInDesiredState:
		m.logger.Debug("already connected", "address", addr.String())
	default:
		m.record(ctx, addr, EventConnectFailed, outcome.String())
		m.logger.Warn("connect failed", "address", addr.String(), "outcome", outcome.String())
	}
	return outcome
}

// Disconnect drives the disconnect transition for a resolved target.
func (m *Manager) Disconnect(ctx context.Context, addr bluetooth.Address) bluetooth.Outcome {
	m.logger.Info("disconnecting", "address", addr.String())

	outcome := m.adapter.Disconnect(ctx, addr)
	switch outcome.Code {
	case bluetooth.OutcomeSucceeded:
		m.record(ctx, addr, EventDisconnected, "")
		m.logger.Info("disconnected", "address", addr.String())
	case bluetooth.OutcomeAlreadyInDesiredState:
		m.logger.Debug("already disconnected", "address", addr.String())
	default:
		m.record(ctx, addr, EventDisconnectFailed, outcome.String())
		m.logger.Warn("disconnect failed", "address", addr.String(), "outcome", outcome.String())
	}
	return outcome
}

// DisconnectAll disconnects every registered device the gateway currently
// reports connected, not merely the default. Gateway calls are
// dispatched concurrently (devices are independent state machines) and
// the result carries one outcome per address, so partial failure stays
// visible per device. No devices connected yields an empty map, not an
// error.
func (m *Manager) DisconnectAll(ctx context.Context) map[bluetooth.Address]bluetooth.Outcome {
	var connected []bluetooth.Address
	for _, rec := range m.registry.List() {
		if m.adapter.Status(ctx, rec.Address) == bluetooth.StatusConnected {
			connected = append(connected, rec.Address)
		}
	}

	outcomes := make(map[bluetooth.Address]bluetooth.Outcome, len(connected))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, addr := range connected {
		wg.Add(1)
		go func(addr bluetooth.Address) {
			defer wg.Done()
			outcome := m.Disconnect(ctx, addr)
			mu.Lock()
			outcomes[addr] = outcome
			mu.Unlock()
		}(addr)
	}
	wg.Wait()
	return outcomes
}

// StatusEntry pairs a persisted record with its best-effort live status.
type StatusEntry struct {
	Record registry.DeviceRecord
	Live   bluetooth.Status
}

// Status reports every registered device alongside a best-effort live
// status query. When the gateway is unavailable the entries still render
// registry data with live status Unknown: status degrades gracefully
// rather than aborting.
func (m *Manager) Status(ctx context.Context) []StatusEntry {
	records := m.registry.List()
	entries := make([]StatusEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, StatusEntry{
			Record: rec,
			Live:   m.adapter.Status(ctx, rec.Address),
		})
	}
	return entries
}

// ListAvailable returns the devices the OS Bluetooth layer currently
// knows, sorted by address for deterministic display. This is a distinct
// read path from ListRegistered: a device can be available but
// unregistered, or registered but currently invisible; both are valid
// displayed states, not errors.
func (m *Manager) ListAvailable(ctx context.Context) ([]bluetooth.LiveDevice, error) {
	devices, err := m.adapter.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Address.String() < devices[j].Address.String()
	})
	return devices, nil
}

// ListRegistered returns the persisted records in insertion order.
func (m *Manager) ListRegistered() []registry.DeviceRecord {
	return m.registry.List()
}

// AutoConnect is the zero-argument convenience path: connect the default
// device. Callers gate it on the registry's auto_connect flag; when that
// flag is off the zero-argument invocation renders Status instead.
func (m *Manager) AutoConnect(ctx context.Context) (bluetooth.Outcome, error) {
	addr, err := m.ResolveTarget("")
	if err != nil {
		return bluetooth.Outcome{}, err
	}
	return m.Connect(ctx, addr), nil
}

// record writes a history event, best-effort.
func (m *Manager) record(ctx context.Context, addr bluetooth.Address, event, detail string) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Record(ctx, addr, event, detail); err != nil {
		m.logger.Warn("recording history failed", "address", addr.String(), "event", event, "error", err)
	}
}
