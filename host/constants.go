package host

import "fmt"

// Target device identity.
const (
	DefaultVendorID  uint16 = 0x16c0 // Van Ooijen Technische Informatica
	DefaultProductID uint16 = 0x0763 // Test firmware
)

// Endpoint and interface topology of the benchmark target.
const (
	// EndpointDataIn is the bulk IN endpoint address.
	EndpointDataIn uint8 = 0x82

	// EndpointISOIn is the isochronous IN endpoint address.
	EndpointISOIn uint8 = 0x86

	// Interface is the interface number claimed for the benchmark.
	Interface uint8 = 2

	// BufferSize is the transfer buffer capacity in bytes.
	BufferSize = 2048

	// ISOPackets is the number of packets in an isochronous transfer.
	ISOPackets = 16
)

// Mode selects which transfer preset the benchmark runs.
type Mode uint8

// Benchmark modes.
const (
	ModeIsochronous Mode = iota // Isochronous IN on EndpointISOIn
	ModeBulk                    // Bulk IN on EndpointDataIn
)

// String returns the mode name as accepted on the command line.
func (m Mode) String() string {
	switch m {
	case ModeIsochronous:
		return "iso"
	case ModeBulk:
		return "bulk"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "iso", "isochronous":
		return ModeIsochronous, nil
	case "bulk":
		return ModeBulk, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// Preset is the fixed transfer topology for a Mode.
type Preset struct {
	Endpoint uint8
	Packets  int // 0 for bulk
	Size     int
}

// Preset returns the fixed topology for m.
func (m Mode) Preset() Preset {
	if m == ModeBulk {
		return Preset{Endpoint: EndpointDataIn, Size: BufferSize}
	}
	return Preset{Endpoint: EndpointISOIn, Packets: ISOPackets, Size: BufferSize}
}

// NewTransfer builds the transfer described by p over a freshly allocated
// buffer of p.Size bytes.
func (p Preset) NewTransfer(handler CompletionHandler) (*Transfer, error) {
	buf := make([]byte, p.Size)
	if p.Packets > 0 {
		return NewIsochronousTransfer(p.Endpoint, buf, p.Packets, handler)
	}
	return NewBulkTransfer(p.Endpoint, buf, handler)
}
