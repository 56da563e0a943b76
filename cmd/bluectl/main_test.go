package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wrenware/bluectl/internal/bluetooth"
	"github.com/wrenware/bluectl/internal/infrastructure/config"
)

// withMockAdapter swaps the adapter factory for the duration of a test.
func withMockAdapter(t *testing.T, mock *bluetooth.MockAdapter) {
	t.Helper()
	orig := newAdapter
	newAdapter = func() (bluetooth.Adapter, func(), error) {
		return mock, func() {}, nil
	}
	t.Cleanup(func() { newAdapter = orig })
}

// testConfig points BLUECTL_CONFIG at a fresh temp file and returns its path.
func testConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("BLUECTL_CONFIG", path)
	return path
}

func mustAddr(t *testing.T, s string) bluetooth.Address {
	t.Helper()
	addr, err := bluetooth.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q) error = %v", s, err)
	}
	return addr
}

func TestRun_UnknownCommand(t *testing.T) {
	testConfig(t)
	var out bytes.Buffer
	if code := run(context.Background(), []string{"frobnicate"}, &out); code != exitUsage {
		t.Errorf("run() = %d, want %d", code, exitUsage)
	}
}

func TestRun_RegisterPersists(t *testing.T) {
	path := testConfig(t)
	var out bytes.Buffer

	code := run(context.Background(), []string{
		"register", "-a", "AA:BB:CC:DD:EE:FF", "-n", "Mouse", "-t", "Peripheral",
	}, &out)
	if code != exitOK {
		t.Fatalf("register = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "Mouse") {
		t.Errorf("output = %q, want confirmation with name", out.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.RegisteredDevices) != 1 || cfg.RegisteredDevices[0].Address != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("persisted devices = %+v", cfg.RegisteredDevices)
	}
}

func TestRun_RegisterRequiresAddress(t *testing.T) {
	testConfig(t)
	var out bytes.Buffer
	if code := run(context.Background(), []string{"register"}, &out); code != exitUsage {
		t.Errorf("run() = %d, want %d", code, exitUsage)
	}
}

func TestRun_ListRegistered(t *testing.T) {
	testConfig(t)
	var out bytes.Buffer

	run(context.Background(), []string{"register", "-a", "AA:BB:CC:DD:EE:FF", "-n", "Mouse"}, &out)
	out.Reset()

	if code := run(context.Background(), []string{"list", "-registered"}, &out); code != exitOK {
		t.Fatalf("list = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "AA:BB:CC:DD:EE:FF") || !strings.Contains(out.String(), "Mouse") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_ConnectPersistsLastConnected(t *testing.T) {
	path := testConfig(t)
	mock := bluetooth.NewMockAdapter()
	addr := mustAddr(t, "AA:BB:CC:DD:EE:FF")
	mock.AddDevice(bluetooth.LiveDevice{Address: addr, Paired: true})
	withMockAdapter(t, mock)

	var out bytes.Buffer
	run(context.Background(), []string{"register", "-a", "AA:BB:CC:DD:EE:FF", "-n", "Mouse"}, &out)
	out.Reset()

	if code := run(context.Background(), []string{"connect", "AA:BB:CC:DD:EE:FF"}, &out); code != exitOK {
		t.Fatalf("connect = %d, want 0; output = %q", code, out.String())
	}
	if !strings.Contains(out.String(), "succeeded") {
		t.Errorf("output = %q, want succeeded outcome", out.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RegisteredDevices[0].LastConnected == "" {
		t.Error("last_connected not persisted after successful connect")
	}
}

func TestRun_ConnectUnregistered(t *testing.T) {
	testConfig(t)
	withMockAdapter(t, bluetooth.NewMockAdapter())

	var out bytes.Buffer
	if code := run(context.Background(), []string{"connect", "AA:BB:CC:DD:EE:FF"}, &out); code != exitError {
		t.Errorf("connect unregistered = %d, want %d", code, exitError)
	}
}

func TestRun_ConnectFailureExitCode(t *testing.T) {
	testConfig(t)
	mock := bluetooth.NewMockAdapter()
	addr := mustAddr(t, "AA:BB:CC:DD:EE:FF")
	mock.AddDevice(bluetooth.LiveDevice{Address: addr, Paired: true})
	mock.ConnectOutcomes[addr] = bluetooth.TimedOut
	withMockAdapter(t, mock)

	var out bytes.Buffer
	run(context.Background(), []string{"register", "-a", "AA:BB:CC:DD:EE:FF"}, &out)
	out.Reset()

	if code := run(context.Background(), []string{"connect", "AA:BB:CC:DD:EE:FF"}, &out); code != exitError {
		t.Errorf("timed out connect = %d, want %d", code, exitError)
	}
}

func TestRun_DisconnectAllEmpty(t *testing.T) {
	testConfig(t)
	withMockAdapter(t, bluetooth.NewMockAdapter())

	var out bytes.Buffer
	run(context.Background(), []string{"register", "-a", "AA:BB:CC:DD:EE:FF"}, &out)
	out.Reset()

	if code := run(context.Background(), []string{"disconnect"}, &out); code != exitOK {
		t.Errorf("disconnect = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "no connected devices") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_ZeroArgsShowsStatusWhenAutoConnectOff(t *testing.T) {
	testConfig(t)
	withMockAdapter(t, bluetooth.NewMockAdapter())

	var out bytes.Buffer
	if code := run(context.Background(), nil, &out); code != exitOK {
		t.Fatalf("run() = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "no registered devices") {
		t.Errorf("output = %q, want status view", out.String())
	}
}

func TestRun_ZeroArgsAutoConnect(t *testing.T) {
	path := testConfig(t)
	mock := bluetooth.NewMockAdapter()
	addr := mustAddr(t, "AA:BB:CC:DD:EE:FF")
	mock.AddDevice(bluetooth.LiveDevice{Address: addr, Paired: true})
	withMockAdapter(t, mock)

	var out bytes.Buffer
	run(context.Background(), []string{"register", "-a", "AA:BB:CC:DD:EE:FF", "-n", "Mouse"}, &out)
	run(context.Background(), []string{"set-default", "AA:BB:CC:DD:EE:FF"}, &out)

	// Flip auto_connect on in the persisted config.
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.AutoConnect = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out.Reset()
	if code := run(context.Background(), nil, &out); code != exitOK {
		t.Fatalf("run() = %d, want 0; output = %q", code, out.String())
	}
	if len(mock.ConnectCalls) != 1 || mock.ConnectCalls[0].Addr != addr {
		t.Errorf("gateway calls = %v, want one for the default device", mock.ConnectCalls)
	}
}

func TestRun_StatusDegradedWithoutAdapter(t *testing.T) {
	testConfig(t)
	orig := newAdapter
	newAdapter = func() (bluetooth.Adapter, func(), error) {
		return nil, nil, bluetooth.ErrAdapterUnavailable
	}
	t.Cleanup(func() { newAdapter = orig })

	var out bytes.Buffer
	run(context.Background(), []string{"register", "-a", "AA:BB:CC:DD:EE:FF", "-n", "Mouse"}, &out)
	out.Reset()

	if code := run(context.Background(), []string{"status"}, &out); code != exitOK {
		t.Fatalf("status = %d, want 0 even without an adapter", code)
	}
	if !strings.Contains(out.String(), "unknown") {
		t.Errorf("output = %q, want unknown live status", out.String())
	}
}

func TestRun_SetDefaultUnregistered(t *testing.T) {
	testConfig(t)
	var out bytes.Buffer
	if code := run(context.Background(), []string{"set-default", "AA:BB:CC:DD:EE:FF"}, &out); code != exitError {
		t.Errorf("set-default unregistered = %d, want %d", code, exitError)
	}
}

func TestRun_UnregisterClearsDefault(t *testing.T) {
	path := testConfig(t)
	var out bytes.Buffer

	run(context.Background(), []string{"register", "-a", "AA:BB:CC:DD:EE:FF", "-n", "Mouse"}, &out)
	run(context.Background(), []string{"set-default", "AA:BB:CC:DD:EE:FF"}, &out)
	if code := run(context.Background(), []string{"unregister", "AA:BB:CC:DD:EE:FF"}, &out); code != exitOK {
		t.Fatalf("unregister = %d, want 0", code)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultDevice != "" {
		t.Errorf("DefaultDevice = %q, want cleared", cfg.DefaultDevice)
	}
	if len(cfg.RegisteredDevices) != 0 {
		t.Errorf("RegisteredDevices = %+v, want empty", cfg.RegisteredDevices)
	}
}

func TestRun_HistoryEmpty(t *testing.T) {
	testConfig(t)
	var out bytes.Buffer
	if code := run(context.Background(), []string{"history"}, &out); code != exitOK {
		t.Fatalf("history = %d, want 0; output = %q", code, out.String())
	}
	if !strings.Contains(out.String(), "EVENT") {
		t.Errorf("output = %q, want table header", out.String())
	}
}
