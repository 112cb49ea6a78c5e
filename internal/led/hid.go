package led

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/karalabe/hid"
	"github.com/rs/zerolog/log"
)

// HID writes packets as output reports to the badge.
type HID struct {
	mu   sync.Mutex
	dev  *hid.Device
	info hid.DeviceInfo
	size int
}

type DeviceInfo struct {
	Path         string `json:"path"`
	VendorID     uint16 `json:"vendor_id"`
	ProductID    uint16 `json:"product_id"`
	Serial       string `json:"serial,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
}

// Devices lists attached HID devices matching vid/pid. Zero matches any.
func Devices(vid, pid uint16) []DeviceInfo {
	var out []DeviceInfo
	for _, d := range hid.Enumerate(vid, pid) {
		out = append(out, DeviceInfo{
			Path:         d.Path,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Serial:       d.Serial,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
		})
	}
	return out
}

// OpenHID opens the first device matching vid/pid.
func OpenHID(vid, pid uint16, size int) (*HID, error) {
	if !hid.Supported() {
		return nil, ErrUnsupported
	}
	devices := hid.Enumerate(vid, pid)
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotFound, vid, pid)
	}
	info := devices[0]
	dev, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}
	if size <= 0 {
		size = PacketSize
	}
	log.Debug().Str("path", info.Path).Str("product", info.Product).Msg("hid opened")
	return &HID{dev: dev, info: info, size: size}, nil
}

// Write pads pkt to the report size and sends it with report id 0.
func (h *HID) Write(pkt []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dev == nil {
		return fmt.Errorf("hid closed")
	}
	if len(pkt) > h.size {
		return fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, len(pkt), h.size)
	}
	// hidapi expects the report id as the first byte; the windows backend adds it.
	off := 1
	if runtime.GOOS == "windows" {
		off = 0
	}
	report := make([]byte, off+h.size)
	copy(report[off:], pkt)
	if _, err := h.dev.Write(report); err != nil {
		return fmt.Errorf("hid write: %w", err)
	}
	return nil
}

func (h *HID) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dev == nil {
		return nil
	}
	err := h.dev.Close()
	h.dev = nil
	return err
}
