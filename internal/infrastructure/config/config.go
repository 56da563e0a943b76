package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wrenware/bluectl/internal/bluetooth"
)

// Limits enforced at validation time.
const (
	// maxNameLength bounds device display names. Defensive only; the OS
	// never reports names anywhere near this long.
	maxNameLength = 128

	// dirPermissions is the permission mode for the config directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the config file.
	filePermissions = 0600
)

// Config is the root configuration structure, mirroring the on-disk TOML.
//
// The top-level keys and [[registered_devices]] are the persisted device
// registry; the named sections configure the watch daemon and ambient
// services and are left at defaults for plain CLI use.
type Config struct {
	DefaultDevice     string         `toml:"default_device,omitempty"`
	AutoConnect       bool           `toml:"auto_connect"`
	ConnectionTimeout int            `toml:"connection_timeout"`
	RegisteredDevices []DeviceConfig `toml:"registered_devices,omitempty"`

	Daemon   DaemonConfig   `toml:"daemon"`
	History  HistoryConfig  `toml:"history"`
	MQTT     MQTTConfig     `toml:"mqtt"`
	InfluxDB InfluxDBConfig `toml:"influxdb"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DeviceConfig is the persisted form of one registered device.
// Addresses and timestamps are stored as strings; internal/registry
// converts to and from the typed representation.
type DeviceConfig struct {
	Name          string `toml:"name"`
	Address       string `toml:"address"`
	DeviceType    string `toml:"device_type"`
	LastConnected string `toml:"last_connected,omitempty"`
}

// DaemonConfig contains settings for the watch daemon.
type DaemonConfig struct {
	// ReconnectDefault re-attempts the default device when it drops,
	// provided auto_connect is also enabled.
	ReconnectDefault bool `toml:"reconnect_default"`

	// ReconnectDelay is the wait before a reconnect attempt (seconds).
	ReconnectDelay int `toml:"reconnect_delay"`
}

// HistoryConfig contains connection history settings.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`

	// Path is the SQLite database file. Empty means a "history.db"
	// sibling of the config file.
	Path string `toml:"path,omitempty"`

	// RetentionDays bounds how long events are kept. 0 disables pruning.
	RetentionDays int `toml:"retention_days"`
}

// MQTTConfig contains MQTT broker settings for the watch daemon.
type MQTTConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	TLS      bool   `toml:"tls"`
	ClientID string `toml:"client_id"`
	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
	QoS      int    `toml:"qos"`
}

// InfluxDBConfig contains InfluxDB settings for the watch daemon.
type InfluxDBConfig struct {
	Enabled       bool   `toml:"enabled"`
	URL           string `toml:"url"`
	Token         string `toml:"token,omitempty"`
	Org           string `toml:"org"`
	Bucket        string `toml:"bucket"`
	BatchSize     int    `toml:"batch_size"`
	FlushInterval int    `toml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Timeout returns the connection timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ConnectionTimeout) * time.Second
}

// DefaultPath returns the default configuration file location:
// $XDG_CONFIG_HOME/bluectl/config.toml, falling back to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "bluectl", "config.toml")
}

// Path returns the configuration file to use, honouring the
// BLUECTL_CONFIG environment variable.
func Path() string {
	if p := os.Getenv("BLUECTL_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

// Load reads the configuration from a TOML file and applies environment
// variable overrides.
//
// A missing file yields the default configuration without error; any
// other read or parse failure wraps ErrReadFailed. The result is always
// validated.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: defaults only.
	case err != nil:
		return nil, fmt.Errorf("%w: reading %s: %w", ErrReadFailed, path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", ErrReadFailed, path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration atomically: the TOML is rendered to a
// temporary sibling file and renamed over the target, so a crash mid-write
// never leaves a truncated registry behind.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrWriteFailed, dir, err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing temp file: %w", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing temp file: %w", ErrWriteFailed, err)
	}
	if err := os.Chmod(tmpPath, filePermissions); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: setting permissions: %w", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming into place: %w", ErrWriteFailed, err)
	}
	return nil
}

// CheckWritable verifies that the configuration file (or its directory,
// if the file does not exist yet) can be written. Mutating commands call
// this before touching the registry so an operation never succeeds
// against the adapter and then fails to persist.
func CheckWritable(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrWriteFailed, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".bluectl-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %w", ErrWriteFailed, dir, err)
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)
	return nil
}

// Validate checks invariants the rest of the system relies on: a positive
// timeout, parseable unique addresses, bounded names, a recognised device
// type per record, and a default device that resolves to a registered
// record.
func (c *Config) Validate() error {
	if c.ConnectionTimeout <= 0 {
		return fmt.Errorf("%w: connection_timeout must be positive, got %d", ErrInvalidConfig, c.ConnectionTimeout)
	}

	seen := make(map[bluetooth.Address]struct{}, len(c.RegisteredDevices))
	for i, dev := range c.RegisteredDevices {
		addr, err := bluetooth.ParseAddress(dev.Address)
		if err != nil {
			return fmt.Errorf("%w: registered_devices[%d]: %w", ErrInvalidConfig, i, err)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("%w: duplicate device %s", ErrInvalidConfig, addr)
		}
		seen[addr] = struct{}{}

		if dev.Name == "" {
			return fmt.Errorf("%w: registered_devices[%d]: name is required", ErrInvalidConfig, i)
		}
		if len(dev.Name) > maxNameLength {
			return fmt.Errorf("%w: registered_devices[%d]: name exceeds %d characters", ErrInvalidConfig, i, maxNameLength)
		}
		if dev.DeviceType != "" && !bluetooth.DeviceType(dev.DeviceType).IsValid() {
			return fmt.Errorf("%w: registered_devices[%d]: unknown device_type %q", ErrInvalidConfig, i, dev.DeviceType)
		}
		if dev.LastConnected != "" {
			if _, err := time.Parse(time.RFC3339, dev.LastConnected); err != nil {
				return fmt.Errorf("%w: registered_devices[%d]: last_connected: %w", ErrInvalidConfig, i, err)
			}
		}
	}

	if c.DefaultDevice != "" {
		addr, err := bluetooth.ParseAddress(c.DefaultDevice)
		if err != nil {
			return fmt.Errorf("%w: default_device: %w", ErrInvalidConfig, err)
		}
		if _, ok := seen[addr]; !ok {
			return fmt.Errorf("%w: default_device %s is not a registered device", ErrInvalidConfig, addr)
		}
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt qos must be 0-2, got %d", ErrInvalidConfig, c.MQTT.QoS)
	}
	return nil
}

// HistoryPath returns the history database location, defaulting to a
// sibling of the given config file.
func (c *Config) HistoryPath(configPath string) string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(filepath.Dir(configPath), "history.db")
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		AutoConnect:       false,
		ConnectionTimeout: 30,
		Daemon: DaemonConfig{
			ReconnectDefault: true,
			ReconnectDelay:   5,
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		MQTT: MQTTConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "bluectl",
			QoS:      1,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "bluectl",
			Bucket:        "bluetooth",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
// Variables follow the pattern BLUECTL_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BLUECTL_CONNECTION_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ConnectionTimeout = n
		}
	}
	if v := os.Getenv("BLUECTL_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("BLUECTL_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("BLUECTL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("BLUECTL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("BLUECTL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("BLUECTL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
