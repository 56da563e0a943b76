package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/wrenware/bluectl/internal/bluetooth"
	"github.com/wrenware/bluectl/internal/infrastructure/config"
)

// maxNameLength bounds device display names. Defensive only.
const maxNameLength = 128

// Logger defines the logging interface used by the Registry.
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

// DeviceRecord is one registered device.
type DeviceRecord struct {
	Address       bluetooth.Address
	Name          string
	Type          bluetooth.DeviceType
	LastConnected *time.Time // UTC; nil until the first successful connect
}

// Registry holds the registered devices, the default device and the
// global connection settings. All public methods are thread-safe.
type Registry struct {
	mu sync.RWMutex

	devices []*DeviceRecord // insertion order, for deterministic display
	index   map[bluetooth.Address]*DeviceRecord

	defaultDevice bluetooth.Address // zero value means unset
	autoConnect   bool
	timeout       time.Duration

	dirty  bool
	logger Logger
}

// FromConfig builds a Registry from a loaded configuration.
// The configuration is expected to be validated; records that still fail
// to parse are rejected rather than silently dropped.
func FromConfig(cfg *config.Config) (*Registry, error) {
	reg := &Registry{
		index:       make(map[bluetooth.Address]*DeviceRecord, len(cfg.RegisteredDevices)),
		autoConnect: cfg.AutoConnect,
		timeout:     cfg.Timeout(),
		logger:      noopLogger{},
	}

	for i, dev := range cfg.RegisteredDevices {
		addr, err := bluetooth.ParseAddress(dev.Address)
		if err != nil {
			return nil, fmt.Errorf("registered_devices[%d]: %w", i, err)
		}
		rec := &DeviceRecord{
			Address: addr,
			Name:    dev.Name,
			Type:    bluetooth.DeviceTypeUnknown,
		}
		if dev.DeviceType != "" {
			rec.Type = bluetooth.DeviceType(dev.DeviceType)
		}
		if dev.LastConnected != "" {
			ts, err := time.Parse(time.RFC3339, dev.LastConnected)
			if err != nil {
				return nil, fmt.Errorf("registered_devices[%d]: last_connected: %w", i, err)
			}
			ts = ts.UTC()
			rec.LastConnected = &ts
		}
		reg.devices = append(reg.devices, rec)
		reg.index[addr] = rec
	}

	if cfg.DefaultDevice != "" {
		addr, err := bluetooth.ParseAddress(cfg.DefaultDevice)
		if err != nil {
			return nil, fmt.Errorf("default_device: %w", err)
		}
		if _, ok := reg.index[addr]; !ok {
			return nil, fmt.Errorf("default_device %s: %w", addr, ErrDeviceNotRegistered)
		}
		reg.defaultDevice = addr
	}
	return reg, nil
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Apply writes the registry's current state back into the configuration,
// ready for one atomic save.
func (r *Registry) Apply(cfg *config.Config) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg.RegisteredDevices = make([]config.DeviceConfig, 0, len(r.devices))
	for _, rec := range r.devices {
		dev := config.DeviceConfig{
			Name:       rec.Name,
			Address:    rec.Address.String(),
			DeviceType: string(rec.Type),
		}
		if rec.LastConnected != nil {
			dev.LastConnected = rec.LastConnected.UTC().Format(time.RFC3339)
		}
		cfg.RegisteredDevices = append(cfg.RegisteredDevices, dev)
	}

	if r.defaultDevice.IsZero() {
		cfg.DefaultDevice = ""
	} else {
		cfg.DefaultDevice = r.defaultDevice.String()
	}
}

// Dirty reports whether the registry has unsaved mutations.
func (r *Registry) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// Register adds a device, or updates its name and type when the address
// is already registered (idempotent upsert, never a duplicate record).
//
// An empty name defaults to "Device-" plus the last four hex digits of
// the address. An empty type defaults to Unknown. Names longer than 128
// characters fail with ErrNameTooLong.
func (r *Registry) Register(addr bluetooth.Address, name string, typ bluetooth.DeviceType) (DeviceRecord, error) {
	if len(name) > maxNameLength {
		return DeviceRecord{}, fmt.Errorf("%w: %d characters (max %d)", ErrNameTooLong, len(name), maxNameLength)
	}
	if name == "" {
		name = "Device-" + addr.LastFour()
	}
	if typ == "" {
		typ = bluetooth.DeviceTypeUnknown
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.index[addr]; ok {
		rec.Name = name
		if typ != bluetooth.DeviceTypeUnknown {
			rec.Type = typ
		}
		r.dirty = true
		r.logger.Info("device updated", "address", addr.String(), "name", name)
		return *rec, nil
	}

	rec := &DeviceRecord{Address: addr, Name: name, Type: typ}
	r.devices = append(r.devices, rec)
	r.index[addr] = rec
	r.dirty = true
	r.logger.Info("device registered", "address", addr.String(), "name", name)
	return *rec, nil
}

// Unregister removes a device. If the removed device was the default,
// the default is cleared so the registry never references a record that
// does not exist.
func (r *Registry) Unregister(addr bluetooth.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[addr]; !ok {
		return fmt.Errorf("%s: %w", addr, ErrDeviceNotRegistered)
	}
	delete(r.index, addr)
	for i, rec := range r.devices {
		if rec.Address == addr {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			break
		}
	}
	if r.defaultDevice == addr {
		r.defaultDevice = bluetooth.Address{}
		r.logger.Info("default device cleared", "address", addr.String())
	}
	r.dirty = true
	r.logger.Info("device unregistered", "address", addr.String())
	return nil
}

// SetDefault selects the default device. The device must already be
// registered.
func (r *Registry) SetDefault(addr bluetooth.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[addr]; !ok {
		return fmt.Errorf("%s: %w", addr, ErrDeviceNotRegistered)
	}
	r.defaultDevice = addr
	r.dirty = true
	r.logger.Info("default device set", "address", addr.String())
	return nil
}

// DefaultDevice returns the configured default device, if any.
func (r *Registry) DefaultDevice() (bluetooth.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultDevice.IsZero() {
		return bluetooth.Address{}, false
	}
	return r.defaultDevice, true
}

// Lookup returns a copy of the record for the address, if registered.
func (r *Registry) Lookup(addr bluetooth.Address) (DeviceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.index[addr]
	if !ok {
		return DeviceRecord{}, false
	}
	return *rec, true
}

// List returns copies of all records in insertion order.
func (r *Registry) List() []DeviceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]DeviceRecord, 0, len(r.devices))
	for _, rec := range r.devices {
		records = append(records, *rec)
	}
	return records
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// TouchConnected records a successful connection time for a registered
// device. Unregistered addresses fail with ErrDeviceNotRegistered:
// callers register before connecting and tracking history.
func (r *Registry) TouchConnected(addr bluetooth.Address, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.index[addr]
	if !ok {
		return fmt.Errorf("%s: %w", addr, ErrDeviceNotRegistered)
	}
	at = at.UTC()
	rec.LastConnected = &at
	r.dirty = true
	r.logger.Debug("last_connected updated", "address", addr.String(), "at", at.Format(time.RFC3339))
	return nil
}

// AutoConnect reports whether the zero-argument auto-connect path is
// enabled.
func (r *Registry) AutoConnect() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoConnect
}

// Timeout returns the configured connection timeout.
func (r *Registry) Timeout() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.timeout <= 0 {
		return bluetooth.DefaultConnectTimeout
	}
	return r.timeout
}
