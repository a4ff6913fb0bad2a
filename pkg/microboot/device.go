package microboot

import (
	"sort"
	"strings"
)

// Descriptor describes a supported target device: its protocol family
// and model codes, the minimum bootloader protocol version it must
// advertise, its addressable flash window, and whether it talks over a
// software (bit-banged, echoing) UART. Descriptors are immutable and
// live for the lifetime of the program.
type Descriptor struct {
	Name        string
	Family      uint8
	Model       uint8
	MinProtocol uint8
	AddrLow     uint16
	AddrHigh    uint16
	SoftUART    bool
}

// registry is the static device table. Keyed by lowercase name, the
// same convention the original tooling used for its CHIPLIST.
var registry = map[string]Descriptor{
	"attiny85": {
		Name: "attiny85", Family: 0x01, Model: 0x01, MinProtocol: 0x10,
		AddrLow: 0x0000, AddrHigh: 0x1BFF, SoftUART: true,
	},
	"atmega8": {
		Name: "atmega8", Family: 0x01, Model: 0x02, MinProtocol: 0x10,
		AddrLow: 0x0000, AddrHigh: 0x1BFF,
	},
	"atmega88": {
		Name: "atmega88", Family: 0x01, Model: 0x03, MinProtocol: 0x10,
		AddrLow: 0x0000, AddrHigh: 0x1BFF,
	},
	"atmega168": {
		Name: "atmega168", Family: 0x01, Model: 0x04, MinProtocol: 0x10,
		AddrLow: 0x0000, AddrHigh: 0x3BFF,
	},
}

// Lookup finds a device descriptor by name, case-insensitively.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[strings.ToLower(name)]
	return d, ok
}

// Names returns the supported device names, for usage/help text.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
