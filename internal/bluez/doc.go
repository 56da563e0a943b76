// Package bluez implements the adapter gateway over the BlueZ D-Bus API.
//
// All operations go through the system bus: device enumeration via
// org.freedesktop.DBus.ObjectManager, connect/disconnect via
// org.bluez.Device1 method calls, and status via the Connected property.
// The daemon additionally subscribes to PropertiesChanged signals under
// /org/bluez to observe connection state transitions as they happen.
//
// BlueZ exposes one object per known device at
// /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF. A device the controller has
// never seen has no object, which this package reports as a not-found
// outcome rather than an error: absence is a normal answer here.
//
// The gateway translates BlueZ failures into outcomes instead of raw
// D-Bus errors so callers reason about connection results, not bus
// plumbing. A powered-off controller or a missing org.bluez bus name
// both surface as adapter-unavailable.
package bluez
