package bluetooth

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// addressBytes is the fixed width of a Bluetooth hardware address.
const addressBytes = 6

// Address is a 6-byte Bluetooth hardware address.
//
// The canonical textual form is "XX:XX:XX:XX:XX:XX" (uppercase hex,
// colon-separated). Parsing is case-insensitive; rendering is always
// canonical, so ParseAddress(a.String()) == a for every valid address.
//
// Address is a comparable value type and can be used directly as a map key.
type Address [addressBytes]byte

// ParseAddress parses a textual Bluetooth address.
//
// Accepts "AA:BB:CC:DD:EE:FF" in any letter case. Anything else (wrong
// length, wrong separators, non-hex digits) fails with ErrInvalidAddress.
//
// Example:
//
//	addr, err := bluetooth.ParseAddress("aa:bb:cc:dd:ee:ff")
//	if err != nil {
//	    return err
//	}
//	addr.String() // "AA:BB:CC:DD:EE:FF"
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ":")
	if len(parts) != addressBytes {
		return Address{}, fmt.Errorf("%w: expected 6 colon-separated octets, got %q", ErrInvalidAddress, s)
	}

	var addr Address
	for i, part := range parts {
		if len(part) != 2 {
			return Address{}, fmt.Errorf("%w: octet %d must be 2 hex digits, got %q", ErrInvalidAddress, i+1, part)
		}
		b, err := hex.DecodeString(part)
		if err != nil {
			return Address{}, fmt.Errorf("%w: octet %d is not hex: %q", ErrInvalidAddress, i+1, part)
		}
		addr[i] = b[0]
	}
	return addr, nil
}

// String returns the canonical uppercase colon-separated form.
//
// Example: "AA:BB:CC:DD:EE:FF"
func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsZero reports whether the address is the all-zero value.
// The zero value is never a valid device address in bluectl.
func (a Address) IsZero() bool {
	return a == Address{}
}

// LastFour returns the last four hex digits of the address without
// separators. Used for the default device name ("Device-5566" for an
// address ending in 55:66).
func (a Address) LastFour() string {
	return fmt.Sprintf("%02X%02X", a[4], a[5])
}
