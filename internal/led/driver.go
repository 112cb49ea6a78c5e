package led

import (
	"errors"
	"fmt"
)

// Badge USB identifiers.
const (
	VendorID   = 0x0416
	ProductID  = 0x5020
	PacketSize = 64
)

var (
	ErrDeviceNotFound = errors.New("badge not found")
	ErrUnsupported    = errors.New("hid not supported on this platform")
	ErrPacketTooLarge = errors.New("packet exceeds report size")
	ErrUnknownDriver  = errors.New("unknown driver")
)

// Driver abstracts the badge transport.
type Driver interface {
	// Write sends one packet of at most PacketSize bytes.
	Write(pkt []byte) error
	// Close releases resources.
	Close() error
}

type Options struct {
	Driver     string // "hid" | "sim"
	VendorID   uint16
	ProductID  uint16
	PacketSize int
}

func (o Options) withDefaults() Options {
	if o.Driver == "" {
		o.Driver = "hid"
	}
	if o.VendorID == 0 {
		o.VendorID = VendorID
	}
	if o.ProductID == 0 {
		o.ProductID = ProductID
	}
	if o.PacketSize <= 0 {
		o.PacketSize = PacketSize
	}
	return o
}

// Open connects the driver named by opts.
func Open(opts Options) (Driver, error) {
	opts = opts.withDefaults()
	switch opts.Driver {
	case "hid":
		return OpenHID(opts.VendorID, opts.ProductID, opts.PacketSize)
	case "sim":
		return NewSim(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
}

// Opener returns a connect function for the uploader. The simulator is shared
// between uploads so its packet log survives.
func Opener(opts Options) func() (Driver, error) {
	opts = opts.withDefaults()
	if opts.Driver == "sim" {
		sim := NewSim()
		return func() (Driver, error) { return sim, nil }
	}
	return func() (Driver, error) { return Open(opts) }
}
