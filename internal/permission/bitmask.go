// Package permission implements the capability vocabulary, the resolution
// engine and the grant manager for tenant-scoped resource permissions.
package permission

import "strings"

// Bitmask is an 8-bit capability set combined by bitwise OR.
type Bitmask int

// Base capability bits.
const (
	None     Bitmask = 0
	Read     Bitmask = 1 << 0
	Write    Bitmask = 1 << 1
	Delete   Bitmask = 1 << 2
	Share    Bitmask = 1 << 3
	Admin    Bitmask = 1 << 4
	Download Bitmask = 1 << 5
	Comment  Bitmask = 1 << 6
	Export   Bitmask = 1 << 7
)

// Named combinations.
const (
	Reader      = Read | Download                                                    // 33
	Editor      = Read | Write | Download | Comment                                  // 67
	Contributor = Read | Write | Delete | Download | Comment                         // 71
	Owner       = Read | Write | Delete | Share | Admin | Download | Comment | Export // 255
)

var bitNames = []struct {
	bit  Bitmask
	name string
}{
	{Read, "READ"},
	{Write, "WRITE"},
	{Delete, "DELETE"},
	{Share, "SHARE"},
	{Admin, "ADMIN"},
	{Download, "DOWNLOAD"},
	{Comment, "COMMENT"},
	{Export, "EXPORT"},
}

// Has reports whether mask contains every bit of required.
func Has(mask, required Bitmask) bool {
	return mask&required == required
}

// Names returns the set capability names in bit order.
func Names(mask Bitmask) []string {
	var names []string
	for _, b := range bitNames {
		if mask&b.bit != 0 {
			names = append(names, b.name)
		}
	}
	return names
}

// String renders the mask as "READ|WRITE|..." or "NONE".
func (m Bitmask) String() string {
	names := Names(m)
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}
