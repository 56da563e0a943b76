package bluez

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wrenware/bluectl/internal/bluetooth"
)

// Logger defines the logging interface used by the Adapter.
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

// Adapter is the BlueZ-backed implementation of bluetooth.Adapter.
type Adapter struct {
	conn   *dbus.Conn
	logger Logger
}

// New connects to the system bus and verifies that BlueZ is present.
// A bus without org.bluez (bluetooth.service not running) fails with
// bluetooth.ErrAdapterUnavailable.
func New() (*Adapter, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}

	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == busName {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("org.bluez not on system bus: %w", bluetooth.ErrAdapterUnavailable)
	}
	return &Adapter{conn: conn, logger: noopLogger{}}, nil
}

// SetLogger sets the logger for the adapter.
func (a *Adapter) SetLogger(logger Logger) {
	a.logger = logger
}

// Close releases the bus connection.
func (a *Adapter) Close() error {
	return a.conn.Close()
}

// Enumerate lists every device BlueZ currently knows about, paired or
// merely discovered. A powered-off controller fails with
// bluetooth.ErrAdapterUnavailable.
func (a *Adapter) Enumerate(ctx context.Context) ([]bluetooth.LiveDevice, error) {
	powered, err := a.powered(ctx)
	if err != nil || !powered {
		return nil, bluetooth.ErrAdapterUnavailable
	}

	obj := a.conn.Object(busName, dbus.ObjectPath("/"))
	var objs map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := obj.CallWithContext(ctx, objManagerIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", call.Err)
	}
	if err := call.Store(&objs); err != nil {
		return nil, fmt.Errorf("decode managed objects: %w", err)
	}

	var devices []bluetooth.LiveDevice
	for path, ifaces := range objs {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		dev, ok := deviceFromProps(path, props)
		if !ok {
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// deviceFromProps builds a LiveDevice from a Device1 property map.
func deviceFromProps(path dbus.ObjectPath, props map[string]dbus.Variant) (bluetooth.LiveDevice, bool) {
	addr, ok := addressFromPath(path)
	if !ok {
		// Fall back to the Address property for non-hci0 controllers.
		s, _ := props["Address"].Value().(string)
		var err error
		if addr, err = bluetooth.ParseAddress(s); err != nil {
			return bluetooth.LiveDevice{}, false
		}
	}

	dev := bluetooth.LiveDevice{Address: addr}
	if name, ok := props["Alias"].Value().(string); ok && name != "" {
		dev.Name = name
	} else if name, ok := props["Name"].Value().(string); ok {
		dev.Name = name
	}
	if class, ok := props["Class"].Value().(uint32); ok {
		dev.Type = bluetooth.DeviceTypeFromClass(class)
	} else {
		dev.Type = bluetooth.DeviceTypeUnknown
	}
	dev.Paired, _ = props["Paired"].Value().(bool)
	dev.Connected, _ = props["Connected"].Value().(bool)
	return dev, true
}

// Connect drives Device1.Connect with the given timeout and maps the
// result onto an outcome. An already-connected device short-circuits
// without a method call.
func (a *Adapter) Connect(ctx context.Context, addr bluetooth.Address, timeout time.Duration) bluetooth.Outcome {
	if powered, err := a.powered(ctx); err != nil || !powered {
		return bluetooth.AdapterUnavailable
	}

	switch a.connected(ctx, addr) {
	case connYes:
		return bluetooth.AlreadyInDesiredState
	case connNoObject:
		return bluetooth.DeviceNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	obj := a.conn.Object(busName, deviceObjectPath(addr))
	call := obj.CallWithContext(ctx, deviceIface+".Connect", 0)
	if call.Err == nil {
		return bluetooth.Succeeded
	}
	return a.mapError(ctx, call.Err, true)
}

// Disconnect drives Device1.Disconnect and maps the result onto an
// outcome. An already-disconnected device short-circuits without a
// method call.
func (a *Adapter) Disconnect(ctx context.Context, addr bluetooth.Address) bluetooth.Outcome {
	if powered, err := a.powered(ctx); err != nil || !powered {
		return bluetooth.AdapterUnavailable
	}

	switch a.connected(ctx, addr) {
	case connNo:
		return bluetooth.AlreadyInDesiredState
	case connNoObject:
		return bluetooth.DeviceNotFound
	}

	obj := a.conn.Object(busName, deviceObjectPath(addr))
	call := obj.CallWithContext(ctx, deviceIface+".Disconnect", 0)
	if call.Err == nil {
		return bluetooth.Succeeded
	}
	return a.mapError(ctx, call.Err, false)
}

// Status reports a best-effort connection state. Any failure to read the
// Connected property degrades to unknown, never to an error.
func (a *Adapter) Status(ctx context.Context, addr bluetooth.Address) bluetooth.Status {
	if powered, err := a.powered(ctx); err != nil || !powered {
		return bluetooth.StatusUnknown
	}
	switch a.connected(ctx, addr) {
	case connYes:
		return bluetooth.StatusConnected
	case connNo:
		return bluetooth.StatusDisconnected
	}
	return bluetooth.StatusUnknown
}

// connState is the three-valued answer to "is this device connected".
type connState int

const (
	connNoObject connState = iota // BlueZ has no object for the address
	connNo
	connYes
)

func (a *Adapter) connected(ctx context.Context, addr bluetooth.Address) connState {
	obj := a.conn.Object(busName, deviceObjectPath(addr))
	var v dbus.Variant
	err := obj.CallWithContext(ctx, propsIface+".Get", 0, deviceIface, "Connected").Store(&v)
	if err != nil {
		return connNoObject
	}
	connected, ok := v.Value().(bool)
	if !ok {
		return connNoObject
	}
	if connected {
		return connYes
	}
	return connNo
}

func (a *Adapter) powered(ctx context.Context) (bool, error) {
	obj := a.conn.Object(busName, dbus.ObjectPath(adapterPath))
	var v dbus.Variant
	if err := obj.CallWithContext(ctx, propsIface+".Get", 0, adapterIface, "Powered").Store(&v); err != nil {
		return false, err
	}
	powered, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property Powered is not bool")
	}
	return powered, nil
}

// mapError translates a Device1 call failure into an outcome.
func (a *Adapter) mapError(ctx context.Context, err error, connecting bool) bluetooth.Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return bluetooth.TimedOut
	}

	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case errAlreadyConnected:
			if connecting {
				return bluetooth.AlreadyInDesiredState
			}
		case errNotConnected:
			if !connecting {
				return bluetooth.AlreadyInDesiredState
			}
		case errUnknownObject:
			return bluetooth.DeviceNotFound
		case errNotReady, errServiceUnknown:
			return bluetooth.AdapterUnavailable
		}
		a.logger.Debug("bluez call failed", "error", dbusErr.Name)
		return bluetooth.Rejected(dbusErr.Name)
	}
	return bluetooth.Rejected(err.Error())
}

// Event is one observed device state transition.
type Event struct {
	Address   bluetooth.Address
	Connected bool
	At        time.Time
}

// Watch subscribes to PropertiesChanged under /org/bluez and delivers a
// stream of Connected transitions until ctx is cancelled. Signals for
// other properties and other interfaces are filtered out.
func (a *Adapter) Watch(ctx context.Context) (<-chan Event, error) {
	call := a.conn.BusObject().CallWithContext(
		ctx, "org.freedesktop.DBus.AddMatch", 0,
		"type='signal',interface='"+propsIface+"',member='PropertiesChanged',path_namespace='/org/bluez'",
	)
	if call.Err != nil {
		return nil, fmt.Errorf("subscribe to property changes: %w", call.Err)
	}

	signals := make(chan *dbus.Signal, 16)
	a.conn.Signal(signals)

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer a.conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if ev, ok := eventFromSignal(sig); ok {
					select {
					case events <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return events, nil
}

// eventFromSignal decodes a PropertiesChanged signal into an Event.
// Body layout: [interface string, changed map[string]Variant, invalidated []string].
func eventFromSignal(sig *dbus.Signal) (Event, bool) {
	if sig.Name != propsSignal || len(sig.Body) < 2 {
		return Event{}, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != deviceIface {
		return Event{}, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return Event{}, false
	}
	connVar, ok := changed["Connected"]
	if !ok {
		return Event{}, false
	}
	connected, ok := connVar.Value().(bool)
	if !ok {
		return Event{}, false
	}
	addr, ok := addressFromPath(sig.Path)
	if !ok {
		return Event{}, false
	}
	return Event{Address: addr, Connected: connected, At: time.Now().UTC()}, true
}
