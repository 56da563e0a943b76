package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/wrenware/bluectl/internal/bluetooth"
	"github.com/wrenware/bluectl/internal/bluez"
	"github.com/wrenware/bluectl/internal/connmgr"
	"github.com/wrenware/bluectl/internal/daemon"
	"github.com/wrenware/bluectl/internal/history"
	"github.com/wrenware/bluectl/internal/infrastructure/config"
	"github.com/wrenware/bluectl/internal/infrastructure/database"
	"github.com/wrenware/bluectl/internal/infrastructure/influxdb"
	"github.com/wrenware/bluectl/internal/infrastructure/mqtt"
)

// cmdList shows available devices from the OS, or the registry with
// --registered. Both are valid views: a device can be available but
// unregistered, or registered but currently invisible.
func (a *app) cmdList(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	registered := fs.Bool("registered", false, "list registered devices instead of available ones")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *registered {
		a.printRegistered()
		return exitOK
	}

	adapter, cleanup, err := newAdapter()
	if err != nil {
		a.log.Error("adapter unavailable", "error", err)
		return exitError
	}
	defer cleanup()

	mgr := connmgr.NewManager(a.registry, adapter)
	mgr.SetLogger(a.log)
	devices, err := mgr.ListAvailable(ctx)
	if err != nil {
		a.log.Error("listing devices failed", "error", err)
		return exitError
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tNAME\tTYPE\tPAIRED\tCONNECTED")
	for _, dev := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\n",
			dev.Address, dev.Name, dev.Type, dev.Paired, dev.Connected)
	}
	w.Flush()
	return exitOK
}

func (a *app) printRegistered() {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tNAME\tTYPE\tLAST CONNECTED\tDEFAULT")
	def, _ := a.registry.DefaultDevice()
	for _, rec := range a.registry.List() {
		mark := ""
		if rec.Address == def {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Address, rec.Name, rec.Type, formatTime(rec.LastConnected), mark)
	}
	w.Flush()
}

// cmdRegister adds or updates a device in the registry.
func (a *app) cmdRegister(_ context.Context, args []string) int {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	addrFlag := fs.String("a", "", "device address (AA:BB:CC:DD:EE:FF)")
	fs.StringVar(addrFlag, "address", "", "device address (AA:BB:CC:DD:EE:FF)")
	nameFlag := fs.String("n", "", "display name (defaults to Device-<last four digits>)")
	fs.StringVar(nameFlag, "name", "", "display name")
	typeFlag := fs.String("t", "", "device type (Peripheral, Audio/Video, Computer, Phone)")
	fs.StringVar(typeFlag, "type", "", "device type")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *addrFlag == "" {
		fmt.Fprintln(a.out, "register: an address is required (-a AA:BB:CC:DD:EE:FF)")
		return exitUsage
	}

	addr, err := bluetooth.ParseAddress(*addrFlag)
	if err != nil {
		a.log.Error("invalid address", "input", *addrFlag, "error", err)
		return exitError
	}
	typ := bluetooth.DeviceType(*typeFlag)
	if *typeFlag != "" && !typ.IsValid() {
		a.log.Error("unknown device type", "input", *typeFlag)
		return exitError
	}

	if err := config.CheckWritable(a.configPath); err != nil {
		a.log.Error("config is not writable", "error", err)
		return exitError
	}

	rec, err := a.registry.Register(addr, *nameFlag, typ)
	if err != nil {
		a.log.Error("registering device failed", "error", err)
		return exitError
	}
	if !a.saveIfDirty(true) {
		return exitError
	}

	fmt.Fprintf(a.out, "registered %s (%s)\n", rec.Name, rec.Address)
	return exitOK
}

// cmdUnregister removes a device from the registry.
func (a *app) cmdUnregister(_ context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "unregister: exactly one address is required")
		return exitUsage
	}
	addr, err := bluetooth.ParseAddress(args[0])
	if err != nil {
		a.log.Error("invalid address", "input", args[0], "error", err)
		return exitError
	}

	if err := config.CheckWritable(a.configPath); err != nil {
		a.log.Error("config is not writable", "error", err)
		return exitError
	}

	if err := a.registry.Unregister(addr); err != nil {
		a.log.Error("unregistering device failed", "error", err)
		return exitError
	}
	if !a.saveIfDirty(true) {
		return exitError
	}

	fmt.Fprintf(a.out, "unregistered %s\n", addr)
	return exitOK
}

// cmdSetDefault selects the default device.
func (a *app) cmdSetDefault(_ context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "set-default: exactly one address is required")
		return exitUsage
	}
	addr, err := bluetooth.ParseAddress(args[0])
	if err != nil {
		a.log.Error("invalid address", "input", args[0], "error", err)
		return exitError
	}

	if err := config.CheckWritable(a.configPath); err != nil {
		a.log.Error("config is not writable", "error", err)
		return exitError
	}

	if err := a.registry.SetDefault(addr); err != nil {
		a.log.Error("setting default device failed", "error", err)
		return exitError
	}
	if !a.saveIfDirty(true) {
		return exitError
	}

	fmt.Fprintf(a.out, "default device set to %s\n", addr)
	return exitOK
}

// cmdConnect connects a device: the named one, or the default.
func (a *app) cmdConnect(ctx context.Context, args []string) int {
	if len(args) > 1 {
		fmt.Fprintln(a.out, "connect: at most one address")
		return exitUsage
	}
	target := ""
	if len(args) == 1 {
		target = args[0]
	}

	// Pre-flight: a connect that succeeds on the radio must be able to
	// persist its last_connected stamp.
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
	addr, err := mgr.ResolveTarget(target)
	if err != nil {
		a.log.Error("resolving target failed", "error", err)
		return exitError
	}

	outcome := mgr.Connect(ctx, addr)
	a.saveIfDirty(false)
	return a.reportOutcome("connect "+addr.String(), outcome)
}

// cmdDisconnect disconnects the named device, or every connected
// registered device when no address is given.
func (a *app) cmdDisconnect(ctx context.Context, args []string) int {
	if len(args) > 1 {
		fmt.Fprintln(a.out, "disconnect: at most one address")
		return exitUsage
	}

	adapter, cleanup, err := newAdapter()
	if err != nil {
		a.log.Error("adapter unavailable", "error", err)
		return exitError
	}
	defer cleanup()

	mgr := a.newManager(ctx, adapter)

	if len(args) == 1 {
		addr, err := mgr.ResolveTarget(args[0])
		if err != nil {
			a.log.Error("resolving target failed", "error", err)
			return exitError
		}
		return a.reportOutcome("disconnect "+addr.String(), mgr.Disconnect(ctx, addr))
	}

	outcomes := mgr.DisconnectAll(ctx)
	if len(outcomes) == 0 {
		fmt.Fprintln(a.out, "no connected devices")
		return exitOK
	}

	// Deterministic output order.
	addrs := make([]bluetooth.Address, 0, len(outcomes))
	for addr := range outcomes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].String() < addrs[j].String() })

	code := exitOK
	for _, addr := range addrs {
		fmt.Fprintf(a.out, "disconnect %s: %s\n", addr, outcomes[addr])
		if !outcomes[addr].Ok() {
			code = exitError
		}
	}
	return code
}

// cmdStatus shows every registered device with its live status. A
// missing adapter degrades live status to unknown rather than failing.
func (a *app) cmdStatus(ctx context.Context, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(a.out, "status: takes no arguments")
		return exitUsage
	}

	adapter, cleanup, err := newAdapter()
	if err != nil {
		a.log.Warn("adapter unavailable, status degraded", "error", err)
		adapter = unavailableAdapter{}
		cleanup = func() {}
	}
	defer cleanup()

	mgr := connmgr.NewManager(a.registry, adapter)
	mgr.SetLogger(a.log)

	entries := mgr.Status(ctx)
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "no registered devices")
		return exitOK
	}

	def, _ := a.registry.DefaultDevice()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tNAME\tTYPE\tSTATUS\tLAST CONNECTED\tDEFAULT")
	for _, e := range entries {
		mark := ""
		if e.Record.Address == def {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Record.Address, e.Record.Name, e.Record.Type,
			e.Live, formatTime(e.Record.LastConnected), mark)
	}
	w.Flush()
	return exitOK
}

// cmdHistory shows recent connection events, optionally for one device.
func (a *app) cmdHistory(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "maximum events to show")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(a.out, "history: at most one address")
		return exitUsage
	}

	store, _, ok := a.openHistory(ctx)
	if !ok {
		fmt.Fprintln(a.out, "history is disabled in the configuration")
		return exitError
	}

	var (
		entries []history.Entry
		err     error
	)
	if fs.NArg() == 1 {
		addr, perr := bluetooth.ParseAddress(fs.Arg(0))
		if perr != nil {
			a.log.Error("invalid address", "input", fs.Arg(0), "error", perr)
			return exitError
		}
		entries, err = store.Recent(ctx, addr, *limit)
	} else {
		entries, err = store.RecentAll(ctx, *limit)
	}
	if err != nil {
		a.log.Error("querying history failed", "error", err)
		return exitError
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tADDRESS\tEVENT\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Address, e.Event, e.Detail)
	}
	w.Flush()
	return exitOK
}

// cmdWatch runs the watch daemon until interrupted.
func (a *app) cmdWatch(ctx context.Context, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(a.out, "watch: takes no arguments")
		return exitUsage
	}

	adapter, err := bluez.New()
	if err != nil {
		a.log.Error("adapter unavailable", "error", err)
		return exitError
	}
	defer adapter.Close()
	adapter.SetLogger(a.log.With("component", "bluez"))

	mgr := connmgr.NewManager(a.registry, adapter)
	mgr.SetLogger(a.log)

	d := daemon.New(a.registry, mgr, a.cfg)
	d.SetLogger(a.log.With("component", "daemon"))

	if store, _, ok := a.openHistory(ctx); ok {
		d.SetRecorder(store)
		d.SetPruner(store)
		mgr.SetRecorder(store)
	}

	if a.cfg.MQTT.Enabled {
		mc, err := mqtt.Connect(a.cfg.MQTT)
		if err != nil {
			a.log.Error("connecting to MQTT failed", "error", err)
			return exitError
		}
		defer mc.Close()
		a.log.Info("MQTT connected", "host", a.cfg.MQTT.Host, "port", a.cfg.MQTT.Port)
		d.SetPublisher(mc)
	}

	if a.cfg.InfluxDB.Enabled {
		ic, err := influxdb.Connect(a.cfg.InfluxDB)
		if err != nil {
			a.log.Error("connecting to InfluxDB failed", "error", err)
			return exitError
		}
		defer ic.Close()
		ic.SetOnError(func(err error) {
			a.log.Warn("influxdb write failed", "error", err)
		})
		a.log.Info("InfluxDB connected", "url", a.cfg.InfluxDB.URL)
		d.SetMetricsWriter(ic)
	}

	events, err := adapter.Watch(ctx)
	if err != nil {
		a.log.Error("subscribing to transitions failed", "error", err)
		return exitError
	}

	if err := d.Run(ctx, events); err != nil {
		a.log.Error("watch failed", "error", err)
		return exitError
	}

	// Persist last_connected stamps observed while watching.
	a.saveIfDirty(false)
	return exitOK
}

// openHistory lazily opens the history database. Returns false when
// history is disabled or the database cannot be opened.
func (a *app) openHistory(_ context.Context) (*history.Store, *database.DB, bool) {
	if !a.cfg.History.Enabled {
		return nil, nil, false
	}
	if a.db == nil {
		db, err := database.Open(database.Config{
			Path:        a.cfg.HistoryPath(a.configPath),
			BusyTimeout: 5,
		})
		if err != nil {
			a.log.Warn("opening history database failed", "error", err)
			return nil, nil, false
		}
		a.db = db
	}
	return history.NewStore(a.db.DB), a.db, true
}

// close releases resources held across commands.
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// unavailableAdapter stands in when the system bus cannot be reached,
// so status still renders registry data.
type unavailableAdapter struct{}

func (unavailableAdapter) Enumerate(context.Context) ([]bluetooth.LiveDevice, error) {
	return nil, bluetooth.ErrAdapterUnavailable
}

func (unavailableAdapter) Connect(context.Context, bluetooth.Address, time.Duration) bluetooth.Outcome {
	return bluetooth.AdapterUnavailable
}

func (unavailableAdapter) Disconnect(context.Context, bluetooth.Address) bluetooth.Outcome {
	return bluetooth.AdapterUnavailable
}

func (unavailableAdapter) Status(context.Context, bluetooth.Address) bluetooth.Status {
	return bluetooth.StatusUnknown
}

// formatTime renders an optional timestamp for display.
func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
