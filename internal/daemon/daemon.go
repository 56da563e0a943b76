package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wrenware/bluectl/internal/bluetooth"
	"github.com/wrenware/bluectl/internal/bluez"
	"github.com/wrenware/bluectl/internal/connmgr"
	"github.com/wrenware/bluectl/internal/infrastructure/config"
	"github.com/wrenware/bluectl/internal/infrastructure/mqtt"
	"github.com/wrenware/bluectl/internal/registry"
)

// pruneInterval is how often the daemon prunes old history entries.
const pruneInterval = 12 * time.Hour

// Logger defines the logging interface used by the Daemon.
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

// Publisher is the MQTT surface the daemon needs.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// MetricsWriter is the InfluxDB surface the daemon needs.
type MetricsWriter interface {
	WriteConnectionEvent(address, event string, at time.Time)
	WriteSessionDuration(address string, duration time.Duration, endedAt time.Time)
}

// Pruner prunes old history entries.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Daemon watches device transitions and fans them out to the sinks.
type Daemon struct {
	registry *registry.Registry
	manager  *connmgr.Manager
	cfg      *config.Config
	logger   Logger

	recorder connmgr.Recorder
	pruner   Pruner
	pub      Publisher
	metrics  MetricsWriter

	// sessions tracks observed connect times per device so disconnects
	// can report a session duration.
	sessions map[bluetooth.Address]time.Time
}

// New creates a daemon over the shared registry and connection manager.
// Sinks are attached with the Set methods; a daemon with none attached
// only logs.
func New(reg *registry.Registry, mgr *connmgr.Manager, cfg *config.Config) *Daemon {
	return &Daemon{
		registry: reg,
		manager:  mgr,
		cfg:      cfg,
		logger:   noopLogger{},
		sessions: make(map[bluetooth.Address]time.Time),
	}
}

// SetLogger sets the logger for the daemon.
func (d *Daemon) SetLogger(logger Logger) {
	d.logger = logger
}

// SetRecorder attaches the history store.
func (d *Daemon) SetRecorder(rec connmgr.Recorder) {
	d.recorder = rec
}

// SetPruner attaches the history pruner.
func (d *Daemon) SetPruner(p Pruner) {
	d.pruner = p
}

// SetPublisher attaches the MQTT client.
func (d *Daemon) SetPublisher(pub Publisher) {
	d.pub = pub
}

// SetMetricsWriter attaches the InfluxDB client.
func (d *Daemon) SetMetricsWriter(w MetricsWriter) {
	d.metrics = w
}

// Run consumes transition events until the context is cancelled.
// Events arrive from the adapter's signal subscription; the caller owns
// the subscription's lifecycle.
func (d *Daemon) Run(ctx context.Context, events <-chan bluez.Event) error {
	d.logger.Info("watch started",
		"registered_devices", d.registry.Len(),
		"reconnect_default", d.cfg.Daemon.ReconnectDefault,
	)

	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()
	d.pruneHistory(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("watch stopped")
			return nil
		case <-prune.C:
			d.pruneHistory(ctx)
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("daemon: event stream closed")
			}
			d.handleEvent(ctx, ev)
		}
	}
}

// handleEvent fans one transition out to the sinks.
func (d *Daemon) handleEvent(ctx context.Context, ev bluez.Event) {
	rec, ok := d.registry.Lookup(ev.Address)
	if !ok {
		d.logger.Debug("ignoring unregistered device",
			"address", ev.Address.String(), "connected", ev.Connected)
		return
	}

	d.logger.Info("device transition",
		"address", ev.Address.String(), "name", rec.Name, "connected", ev.Connected)

	event := eventName(ev.Connected)
	if d.recorder != nil {
		if err := d.recorder.Record(ctx, ev.Address, event, "observed"); err != nil {
			d.logger.Warn("recording history failed", "address", ev.Address.String(), "error", err)
		}
	}
	if ev.Connected {
		if err := d.registry.TouchConnected(ev.Address, ev.At); err != nil {
			d.logger.Warn("updating last_connected failed", "address", ev.Address.String(), "error", err)
		}
	}

	d.publishState(rec, ev)
	d.writeMetrics(ev, event)

	if !ev.Connected {
		d.maybeReconnect(ctx, ev.Address)
	}
}

// publishState publishes the retained per-device state topic.
func (d *Daemon) publishState(rec registry.DeviceRecord, ev bluez.Event) {
	if d.pub == nil {
		return
	}
	payload, err := statePayload(rec, ev)
	if err != nil {
		d.logger.Warn("encoding state payload failed", "error", err)
		return
	}
	topic := mqtt.Topics{}.DeviceState(ev.Address.String())
	if err := d.pub.PublishRetained(topic, payload); err != nil {
		d.logger.Warn("publishing state failed", "topic", topic, "error", err)
	}
}

// writeMetrics records the event point and, on disconnect, the session
// duration since the observed connect.
func (d *Daemon) writeMetrics(ev bluez.Event, event string) {
	if ev.Connected {
		d.sessions[ev.Address] = ev.At
	} else if started, ok := d.sessions[ev.Address]; ok {
		delete(d.sessions, ev.Address)
		if d.metrics != nil {
			d.metrics.WriteSessionDuration(ev.Address.String(), ev.At.Sub(started), ev.At)
		}
	}
	if d.metrics != nil {
		d.metrics.WriteConnectionEvent(ev.Address.String(), event, ev.At)
	}
}

// maybeReconnect re-attempts the default device after it drops.
func (d *Daemon) maybeReconnect(ctx context.Context, addr bluetooth.Address) {
	if !d.cfg.Daemon.ReconnectDefault || !d.registry.AutoConnect() {
		return
	}
	def, ok := d.registry.DefaultDevice()
	if !ok || def != addr {
		return
	}

	delay := time.Duration(d.cfg.Daemon.ReconnectDelay) * time.Second
	d.logger.Info("default device dropped, scheduling reconnect",
		"address", addr.String(), "delay", delay.String())

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	outcome := d.manager.Connect(ctx, addr)
	if !outcome.Ok() {
		d.logger.Warn("reconnect failed", "address", addr.String(), "outcome", outcome.String())
	}
}

// pruneHistory deletes history entries past the configured retention.
func (d *Daemon) pruneHistory(ctx context.Context) {
	if d.pruner == nil || d.cfg.History.RetentionDays <= 0 {
		return
	}
	retention := time.Duration(d.cfg.History.RetentionDays) * 24 * time.Hour
	deleted, err := d.pruner.Prune(ctx, retention)
	if err != nil {
		d.logger.Warn("pruning history failed", "error", err)
		return
	}
	if deleted > 0 {
		d.logger.Info("pruned history", "deleted", deleted)
	}
}

// eventName maps a transition direction onto a history event name.
func eventName(connected bool) string {
	if connected {
		return connmgr.EventConnected
	}
	return connmgr.EventDisconnected
}

// statePayload renders the retained MQTT state message.
func statePayload(rec registry.DeviceRecord, ev bluez.Event) ([]byte, error) {
	state := "disconnected"
	if ev.Connected {
		state = "connected"
	}
	return json.Marshal(map[string]string{
		"address":     ev.Address.String(),
		"name":        rec.Name,
		"device_type": string(rec.Type),
		"state":       state,
		"timestamp":   ev.At.UTC().Format(time.RFC3339),
	})
}
