// bluectl - Bluetooth device registry and connection manager
//
// bluectl keeps a small registry of known Bluetooth devices in a TOML
// config file and drives connect/disconnect operations against the
// BlueZ D-Bus API. Running it with no arguments connects the default
// device when auto_connect is enabled, and shows status otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/wrenware/bluectl/internal/bluetooth"
	"github.com/wrenware/bluectl/internal/bluez"
	"github.com/wrenware/bluectl/internal/connmgr"
	"github.com/wrenware/bluectl/internal/infrastructure/config"
	"github.com/wrenware/bluectl/internal/infrastructure/database"
	"github.com/wrenware/bluectl/internal/infrastructure/logging"
	"github.com/wrenware/bluectl/internal/registry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// newAdapter creates the adapter gateway. Variable so tests can swap in
// a mock without a system bus.
var newAdapter = func() (bluetooth.Adapter, func(), error) {
	a, err := bluez.New()
	if err != nil {
		return nil, nil, err
	}
	return a, func() { a.Close() }, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout))
}

// run dispatches one invocation and returns the process exit code:
// 0 for success (including no-op outcomes), 1 for failed operations,
// 2 for usage errors.
func run(ctx context.Context, args []string, out io.Writer) int {
	log := logging.Default()

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("loading config failed", "path", configPath, "error", err)
		return exitError
	}

	log = logging.New(cfg.Logging, version)

	reg, err := registry.FromConfig(cfg)
	if err != nil {
		log.Error("loading registry failed", "error", err)
		return exitError
	}
	reg.SetLogger(log)

	app := &app{
		cfg:        cfg,
		configPath: configPath,
		registry:   reg,
		log:        log,
		out:        out,
	}
	defer app.close()

	if len(args) == 0 {
		return app.runDefault(ctx)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return app.cmdList(ctx, rest)
	case "register":
		return app.cmdRegister(ctx, rest)
	case "unregister":
		return app.cmdUnregister(ctx, rest)
	case "connect":
		return app.cmdConnect(ctx, rest)
	case "disconnect":
		return app.cmdDisconnect(ctx, rest)
	case "set-default":
		return app.cmdSetDefault(ctx, rest)
	case "status":
		return app.cmdStatus(ctx, rest)
	case "history":
		return app.cmdHistory(ctx, rest)
	case "watch":
		return app.cmdWatch(ctx, rest)
	case "version":
		fmt.Fprintf(out, "bluectl %s (%s)\n", version, commit)
		return exitOK
	case "help", "-h", "--help":
		usage(out)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "bluectl: unknown command %q\n\n", cmd)
		usage(os.Stderr)
		return exitUsage
	}
}

// app carries the loaded state shared by all commands.
type app struct {
	cfg        *config.Config
	configPath string
	registry   *registry.Registry
	log        *logging.Logger
	out        io.Writer
	db         *database.DB
}

// runDefault handles the zero-argument invocation: connect the default
// device when auto_connect is on, show status otherwise.
func (a *app) runDefault(ctx context.Context) int {
	if !a.registry.AutoConnect() {
		return a.cmdStatus(ctx, nil)
	}

	if err := config.CheckWritable(a.configPath); err != nil {
		a.log.Error("config is not writable", "error", err)
		return exitError
	}

	adapter, cleanup, err := newAdapter()
	if err != nil {
		a.log.Error("adapter unavailable", "error", err)
		return exitError
	}
	defer cleanup()

	mgr := a.newManager(ctx, adapter)
	outcome, err := mgr.AutoConnect(ctx)
	if err != nil {
		if errors.Is(err, registry.ErrNoDefaultDevice) {
			fmt.Fprintln(a.out, "auto_connect is enabled but no default device is set")
			fmt.Fprintln(a.out, "run: bluectl set-default <address>")
		}
		a.log.Error("auto-connect failed", "error", err)
		return exitError
	}

	a.saveIfDirty(false)
	return a.reportOutcome("connect", outcome)
}

// newManager builds the connection manager, attaching the history store
// when enabled.
func (a *app) newManager(ctx context.Context, adapter bluetooth.Adapter) *connmgr.Manager {
	mgr := connmgr.NewManager(a.registry, adapter)
	mgr.SetLogger(a.log)
	if rec, _, ok := a.openHistory(ctx); ok {
		mgr.SetRecorder(rec)
	}
	return mgr
}

// saveIfDirty persists registry mutations back to the config file.
// With strict set, a failed save fails the command; otherwise it is
// logged and the command's own result stands (a connect that worked is
// still a connect that worked).
func (a *app) saveIfDirty(strict bool) bool {
	if !a.registry.Dirty() {
		return true
	}
	a.registry.Apply(a.cfg)
	if err := a.cfg.Save(a.configPath); err != nil {
		if strict {
			a.log.Error("saving config failed", "path", a.configPath, "error", err)
			return false
		}
		a.log.Warn("saving config failed", "path", a.configPath, "error", err)
	}
	return true
}

// reportOutcome prints an operation outcome and maps it to an exit code.
// A no-op (already in the desired state) is success.
func (a *app) reportOutcome(op string, outcome bluetooth.Outcome) int {
	fmt.Fprintf(a.out, "%s: %s\n", op, outcome)
	if outcome.Ok() {
		return exitOK
	}
	return exitError
}

func usage(w io.Writer) {
	fmt.Fprint(w, `bluectl - Bluetooth device registry and connection manager

Usage:
  bluectl                        connect default device (auto_connect) or show status
  bluectl list [--registered]    list available or registered devices
  bluectl register -a ADDR [-n NAME] [-t TYPE]
                                 register a device
  bluectl unregister ADDR        remove a device from the registry
  bluectl connect [ADDR]         connect a device (default device if omitted)
  bluectl disconnect [ADDR]      disconnect a device, or all connected devices
  bluectl set-default ADDR       set the default device
  bluectl status                 show registered devices with live status
  bluectl history [ADDR] [-n N]  show recent connection events
  bluectl watch                  run the watch daemon
  bluectl version                print version

Configuration lives at $XDG_CONFIG_HOME/bluectl/config.toml
(override with BLUECTL_CONFIG).
`)
}
