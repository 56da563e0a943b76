package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ConnectionTimeout != 30 {
		t.Errorf("ConnectionTimeout = %d, want 30", cfg.ConnectionTimeout)
	}
	if cfg.AutoConnect {
		t.Error("AutoConnect should default to false")
	}
	if cfg.DefaultDevice != "" {
		t.Errorf("DefaultDevice = %q, want empty", cfg.DefaultDevice)
	}
	if len(cfg.RegisteredDevices) != 0 {
		t.Errorf("RegisteredDevices = %d entries, want 0", len(cfg.RegisteredDevices))
	}
}

func TestLoad_ParsesSpecFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
default_device = "AA:BB:CC:DD:EE:FF"
auto_connect = true
connection_timeout = 15

[[registered_devices]]
name = "Mouse"
address = "AA:BB:CC:DD:EE:FF"
device_type = "Peripheral"
last_connected = "2026-08-20T18:04:05Z"

[[registered_devices]]
name = "Headphones"
address = "11:22:33:44:55:66"
device_type = "Audio/Video"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultDevice != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("DefaultDevice = %q", cfg.DefaultDevice)
	}
	if !cfg.AutoConnect {
		t.Error("AutoConnect should be true")
	}
	if cfg.ConnectionTimeout != 15 {
		t.Errorf("ConnectionTimeout = %d, want 15", cfg.ConnectionTimeout)
	}
	if len(cfg.RegisteredDevices) != 2 {
		t.Fatalf("RegisteredDevices = %d entries, want 2", len(cfg.RegisteredDevices))
	}
	if cfg.RegisteredDevices[0].Name != "Mouse" {
		t.Errorf("first device name = %q", cfg.RegisteredDevices[0].Name)
	}
	if cfg.RegisteredDevices[1].LastConnected != "" {
		t.Errorf("second device last_connected = %q, want empty", cfg.RegisteredDevices[1].LastConnected)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bluectl", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.RegisteredDevices = append(cfg.RegisteredDevices, DeviceConfig{
		Name:       "Keyboard",
		Address:    "AA:BB:CC:DD:EE:FF",
		DeviceType: "Peripheral",
	})
	cfg.DefaultDevice = "AA:BB:CC:DD:EE:FF"
	cfg.AutoConnect = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if loaded.DefaultDevice != cfg.DefaultDevice {
		t.Errorf("DefaultDevice = %q, want %q", loaded.DefaultDevice, cfg.DefaultDevice)
	}
	if !loaded.AutoConnect {
		t.Error("AutoConnect lost in round trip")
	}
	if len(loaded.RegisteredDevices) != 1 || loaded.RegisteredDevices[0].Name != "Keyboard" {
		t.Errorf("RegisteredDevices = %+v", loaded.RegisteredDevices)
	}
}

func TestSave_OmitsAbsentOptionals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.RegisteredDevices = append(cfg.RegisteredDevices, DeviceConfig{
		Name:       "Keyboard",
		Address:    "AA:BB:CC:DD:EE:FF",
		DeviceType: "Peripheral",
	})
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "default_device") {
		t.Error("unset default_device should be absent from the file")
	}
	if strings.Contains(content, "last_connected") {
		t.Error("unset last_connected should be absent from the file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.RegisteredDevices = []DeviceConfig{
			{Name: "Mouse", Address: "AA:BB:CC:DD:EE:FF", DeviceType: "Peripheral"},
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero timeout", func(c *Config) { c.ConnectionTimeout = 0 }, true},
		{"negative timeout", func(c *Config) { c.ConnectionTimeout = -5 }, true},
		{"malformed address", func(c *Config) { c.RegisteredDevices[0].Address = "nope" }, true},
		{"empty name", func(c *Config) { c.RegisteredDevices[0].Name = "" }, true},
		{"name too long", func(c *Config) { c.RegisteredDevices[0].Name = strings.Repeat("x", 129) }, true},
		{"unknown device type", func(c *Config) { c.RegisteredDevices[0].DeviceType = "Toaster" }, true},
		{"bad timestamp", func(c *Config) { c.RegisteredDevices[0].LastConnected = "yesterday" }, true},
		{"default not registered", func(c *Config) { c.DefaultDevice = "11:22:33:44:55:66" }, true},
		{"default malformed", func(c *Config) { c.DefaultDevice = "nope" }, true},
		{"default registered", func(c *Config) { c.DefaultDevice = "AA:BB:CC:DD:EE:FF" }, false},
		{"duplicate address", func(c *Config) {
			c.RegisteredDevices = append(c.RegisteredDevices, DeviceConfig{
				Name: "Copy", Address: "aa:bb:cc:dd:ee:ff",
			})
		}, true},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BLUECTL_CONNECTION_TIMEOUT", "7")
	t.Setenv("BLUECTL_MQTT_HOST", "broker.local")
	t.Setenv("BLUECTL_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConnectionTimeout != 7 {
		t.Errorf("ConnectionTimeout = %d, want 7", cfg.ConnectionTimeout)
	}
	if cfg.MQTT.Host != "broker.local" {
		t.Errorf("MQTT.Host = %q", cfg.MQTT.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("auto_connect = maybe"), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrReadFailed) {
		t.Errorf("Load() error = %v, want ErrReadFailed", err)
	}
}

func TestPath_EnvOverride(t *testing.T) {
	t.Setenv("BLUECTL_CONFIG", "/custom/config.toml")
	if got := Path(); got != "/custom/config.toml" {
		t.Errorf("Path() = %q", got)
	}
}

func TestCheckWritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bluectl", "config.toml")
	if err := CheckWritable(path); err != nil {
		t.Errorf("CheckWritable() error = %v", err)
	}
}
