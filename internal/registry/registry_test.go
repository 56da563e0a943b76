package registry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wrenware/bluectl/internal/bluetooth"
	"github.com/wrenware/bluectl/internal/infrastructure/config"
)

func mustAddr(t *testing.T, s string) bluetooth.Address {
	t.Helper()
	addr, err := bluetooth.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q) error = %v", s, err)
	}
	return addr
}

func emptyRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := FromConfig(&config.Config{ConnectionTimeout: 30})
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	return reg
}

func TestRegister_DefaultName(t *testing.T) {
	reg := emptyRegistry(t)

	rec, err := reg.Register(mustAddr(t, "11:22:33:44:55:66"), "", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if rec.Name != "Device-5566" {
		t.Errorf("Name = %q, want %q", rec.Name, "Device-5566")
	}
	if rec.Type != bluetooth.DeviceTypeUnknown {
		t.Errorf("Type = %v, want Unknown", rec.Type)
	}
}

func TestRegister_IdempotentUpsert(t *testing.T) {
	reg := emptyRegistry(t)
	addr := mustAddr(t, "AA:BB:CC:DD:EE:FF")

	if _, err := reg.Register(addr, "Old Name", bluetooth.DeviceTypePeripheral); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	rec, err := reg.Register(addr, "New Name", "")
	if err != nil {
		t.Fatalf("second Register() error = %v", err)
	}

	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (no duplicate record)", reg.Len())
	}
	if rec.Name != "New Name" {
		t.Errorf("Name = %q, want latest name", rec.Name)
	}
	// Type survives an upsert that carries no better information.
	if rec.Type != bluetooth.DeviceTypePeripheral {
		t.Errorf("Type = %v, want Peripheral", rec.Type)
	}
}

func TestRegister_NameTooLong(t *testing.T) {
	reg := emptyRegistry(t)

	_, err := reg.Register(mustAddr(t, "AA:BB:CC:DD:EE:FF"), strings.Repeat("x", 129), "")
	if !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Register() error = %v, want ErrNameTooLong", err)
	}
	if reg.Len() != 0 {
		t.Error("failed registration must not be partially applied")
	}
}

func TestUnregister_ClearsDefault(t *testing.T) {
	reg := emptyRegistry(t)
	addr := mustAddr(t, "AA:BB:CC:DD:EE:FF")

	if _, err := reg.Register(addr, "Mouse", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.SetDefault(addr); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}
	if err := reg.Unregister(addr); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	if _, ok := reg.DefaultDevice(); ok {
		t.Error("default device should be cleared when it is unregistered")
	}
	if _, ok := reg.Lookup(addr); ok {
		t.Error("device should be gone after Unregister")
	}
}

func TestUnregister_NotRegistered(t *testing.T) {
	reg := emptyRegistry(t)
	err := reg.Unregister(mustAddr(t, "AA:BB:CC:DD:EE:FF"))
	if !errors.Is(err, ErrDeviceNotRegistered) {
		t.Errorf("Unregister() error = %v, want ErrDeviceNotRegistered", err)
	}
}

func TestSetDefault_NotRegistered(t *testing.T) {
	reg := emptyRegistry(t)
	if _, err := reg.Register(mustAddr(t, "11:22:33:44:55:66"), "Keep", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := reg.SetDefault(mustAddr(t, "AA:BB:CC:DD:EE:FF"))
	if !errors.Is(err, ErrDeviceNotRegistered) {
		t.Errorf("SetDefault() error = %v, want ErrDeviceNotRegistered", err)
	}
	// Registry unchanged on failure.
	if _, ok := reg.DefaultDevice(); ok {
		t.Error("failed SetDefault must leave the default unset")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestList_InsertionOrder(t *testing.T) {
	reg := emptyRegistry(t)
	addrs := []string{
		"33:33:33:33:33:33",
		"11:11:11:11:11:11",
		"22:22:22:22:22:22",
	}
	for _, a := range addrs {
		if _, err := reg.Register(mustAddr(t, a), "", ""); err != nil {
			t.Fatalf("Register(%s) error = %v", a, err)
		}
	}

	records := reg.List()
	if len(records) != len(addrs) {
		t.Fatalf("List() = %d records, want %d", len(records), len(addrs))
	}
	for i, a := range addrs {
		if records[i].Address.String() != a {
			t.Errorf("List()[%d] = %s, want %s (insertion order)", i, records[i].Address, a)
		}
	}
}

func TestTouchConnected(t *testing.T) {
	reg := emptyRegistry(t)
	addr := mustAddr(t, "AA:BB:CC:DD:EE:FF")
	if _, err := reg.Register(addr, "Mouse", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	at := time.Date(2026, 8, 20, 18, 4, 5, 0, time.UTC)
	if err := reg.TouchConnected(addr, at); err != nil {
		t.Fatalf("TouchConnected() error = %v", err)
	}

	rec, _ := reg.Lookup(addr)
	if rec.LastConnected == nil || !rec.LastConnected.Equal(at) {
		t.Errorf("LastConnected = %v, want %v", rec.LastConnected, at)
	}

	err := reg.TouchConnected(mustAddr(t, "11:22:33:44:55:66"), at)
	if !errors.Is(err, ErrDeviceNotRegistered) {
		t.Errorf("TouchConnected() error = %v, want ErrDeviceNotRegistered", err)
	}
}

func TestFromConfig_RoundTripThroughApply(t *testing.T) {
	cfg := &config.Config{
		DefaultDevice:     "AA:BB:CC:DD:EE:FF",
		AutoConnect:       true,
		ConnectionTimeout: 20,
		RegisteredDevices: []config.DeviceConfig{
			{Name: "Mouse", Address: "AA:BB:CC:DD:EE:FF", DeviceType: "Peripheral", LastConnected: "2026-08-20T18:04:05Z"},
			{Name: "Headphones", Address: "11:22:33:44:55:66", DeviceType: "Audio/Video"},
		},
	}

	reg, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if !reg.AutoConnect() {
		t.Error("AutoConnect lost")
	}
	if reg.Timeout() != 20*time.Second {
		t.Errorf("Timeout() = %v, want 20s", reg.Timeout())
	}

	var out config.Config
	out.ConnectionTimeout = cfg.ConnectionTimeout
	reg.Apply(&out)

	if out.DefaultDevice != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("DefaultDevice = %q", out.DefaultDevice)
	}
	if len(out.RegisteredDevices) != 2 {
		t.Fatalf("RegisteredDevices = %d, want 2", len(out.RegisteredDevices))
	}
	if out.RegisteredDevices[0].LastConnected != "2026-08-20T18:04:05Z" {
		t.Errorf("LastConnected = %q", out.RegisteredDevices[0].LastConnected)
	}
	if out.RegisteredDevices[1].LastConnected != "" {
		t.Errorf("absent LastConnected should stay absent, got %q", out.RegisteredDevices[1].LastConnected)
	}
}

func TestFromConfig_DefaultMustBeRegistered(t *testing.T) {
	cfg := &config.Config{
		DefaultDevice:     "AA:BB:CC:DD:EE:FF",
		ConnectionTimeout: 30,
	}
	if _, err := FromConfig(cfg); !errors.Is(err, ErrDeviceNotRegistered) {
		t.Errorf("FromConfig() error = %v, want ErrDeviceNotRegistered", err)
	}
}

func TestDirty(t *testing.T) {
	reg := emptyRegistry(t)
	if reg.Dirty() {
		t.Error("fresh registry should not be dirty")
	}
	if _, err := reg.Register(mustAddr(t, "AA:BB:CC:DD:EE:FF"), "", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !reg.Dirty() {
		t.Error("registry should be dirty after a mutation")
	}
}
