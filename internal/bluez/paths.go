package bluez

import (
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/wrenware/bluectl/internal/bluetooth"
)

const (
	busName      = "org.bluez"
	adapterPath  = "/org/bluez/hci0"
	adapterIface = "org.bluez.Adapter1"
	deviceIface  = "org.bluez.Device1"

	propsIface      = "org.freedesktop.DBus.Properties"
	propsSignal     = "org.freedesktop.DBus.Properties.PropertiesChanged"
	objManagerIface = "org.freedesktop.DBus.ObjectManager"
)

// BlueZ error names the gateway maps onto outcomes.
const (
	errAlreadyConnected = "org.bluez.Error.AlreadyConnected"
	errNotReady         = "org.bluez.Error.NotReady"
	errNotConnected     = "org.bluez.Error.NotConnected"
	errUnknownObject    = "org.freedesktop.DBus.Error.UnknownObject"
	errServiceUnknown   = "org.freedesktop.DBus.Error.ServiceUnknown"
)

// deviceObjectPath maps AA:BB:CC:DD:EE:FF onto
// /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF.
func deviceObjectPath(addr bluetooth.Address) dbus.ObjectPath {
	escaped := strings.ReplaceAll(addr.String(), ":", "_")
	return dbus.ObjectPath(adapterPath + "/dev_" + escaped)
}

// addressFromPath extracts the device address from a BlueZ object path.
// Paths outside the device namespace, and the rare unparseable path,
// return false.
func addressFromPath(path dbus.ObjectPath) (bluetooth.Address, bool) {
	s := string(path)
	prefix := adapterPath + "/dev_"
	if !strings.HasPrefix(s, prefix) {
		return bluetooth.Address{}, false
	}
	addr, err := bluetooth.ParseAddress(strings.ReplaceAll(s[len(prefix):], "_", ":"))
	if err != nil {
		return bluetooth.Address{}, false
	}
	return addr, true
}
