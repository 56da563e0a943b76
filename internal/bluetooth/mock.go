package bluetooth

import (
	"context"
	"sync"
	"time"
)

// MockAdapter is a deterministic in-memory Adapter for tests.
//
// Devices are seeded with AddDevice; connect/disconnect outcomes can be
// forced per address to exercise timeout and rejection paths. All methods
// are safe for concurrent use (the bulk disconnect path dispatches
// concurrently).
type MockAdapter struct {
	mu sync.Mutex

	devices map[Address]*LiveDevice

	// Unavailable makes every call behave as if the radio were off.
	Unavailable bool

	// ConnectOutcomes forces the outcome of Connect for an address,
	// overriding the default state transition.
	ConnectOutcomes map[Address]Outcome

	// DisconnectOutcomes forces the outcome of Disconnect for an address.
	DisconnectOutcomes map[Address]Outcome

	// ConnectCalls records every Connect invocation in order.
	ConnectCalls []ConnectCall

	// DisconnectCalls records every Disconnect invocation in order.
	DisconnectCalls []Address
}

// ConnectCall records the arguments of one Connect invocation.
type ConnectCall struct {
	Addr    Address
	Timeout time.Duration
}

// NewMockAdapter creates an empty mock adapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		devices:            make(map[Address]*LiveDevice),
		ConnectOutcomes:    make(map[Address]Outcome),
		DisconnectOutcomes: make(map[Address]Outcome),
	}
}

// AddDevice seeds a device into the mock's OS view.
func (m *MockAdapter) AddDevice(dev LiveDevice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := dev
	m.devices[dev.Address] = &d
}

// SetConnected flips the connected flag of a seeded device.
func (m *MockAdapter) SetConnected(addr Address, connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.devices[addr]; ok {
		d.Connected = connected
	}
}

// Enumerate returns the seeded devices.
func (m *MockAdapter) Enumerate(_ context.Context) ([]LiveDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return nil, ErrAdapterUnavailable
	}
	devices := make([]LiveDevice, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, *d)
	}
	return devices, nil
}

// Connect records the call and applies the forced or default outcome.
func (m *MockAdapter) Connect(_ context.Context, addr Address, timeout time.Duration) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConnectCalls = append(m.ConnectCalls, ConnectCall{Addr: addr, Timeout: timeout})

	if m.Unavailable {
		return AdapterUnavailable
	}
	if out, ok := m.ConnectOutcomes[addr]; ok {
		return out
	}

	d, ok := m.devices[addr]
	if !ok {
		return DeviceNotFound
	}
	if d.Connected {
		return AlreadyInDesiredState
	}
	d.Connected = true
	return Succeeded
}

// Disconnect records the call and applies the forced or default outcome.
func (m *MockAdapter) Disconnect(_ context.Context, addr Address) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DisconnectCalls = append(m.DisconnectCalls, addr)

	if m.Unavailable {
		return AdapterUnavailable
	}
	if out, ok := m.DisconnectOutcomes[addr]; ok {
		return out
	}

	d, ok := m.devices[addr]
	if !ok {
		return DeviceNotFound
	}
	if !d.Connected {
		return AlreadyInDesiredState
	}
	d.Connected = false
	return Succeeded
}

// Status reports the seeded device's state, or StatusUnknown for devices
// the mock has never seen.
func (m *MockAdapter) Status(_ context.Context, addr Address) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return StatusUnknown
	}
	d, ok := m.devices[addr]
	if !ok {
		return StatusUnknown
	}
	if d.Connected {
		return StatusConnected
	}
	return StatusDisconnected
}
