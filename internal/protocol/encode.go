package protocol

import (
	"fmt"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

// Encode serializes all eight banks into the header and the combined pixel
// payload. Banks without lit pixels contribute no bytes, a zero length and a
// zero speed/mode byte; their blink and ants bits still follow the bank.
func Encode(banks [layout.Banks]bank.Bank, brightness int) (Header, []byte, error) {
	p := Params{
		Brightness: brightness,
		Modes:      make([]bank.Mode, layout.Banks),
		Speeds:     make([]int, layout.Banks),
		Lengths:    make([]int, layout.Banks),
		Blinks:     make([]bool, layout.Banks),
		Ants:       make([]bool, layout.Banks),
	}
	var payload []byte
	for i, b := range banks {
		if err := b.Validate(); err != nil {
			return Header{}, nil, fmt.Errorf("bank %d: %w", i, err)
		}
		p.Blinks[i] = b.Blink
		p.Ants[i] = b.Ants
		p.Speeds[i] = bank.MinSpeed
		data, err := PackBank(b)
		if err != nil {
			return Header{}, nil, fmt.Errorf("bank %d: %w", i, err)
		}
		if len(data) == 0 {
			continue
		}
		p.Modes[i] = b.Mode
		p.Speeds[i] = b.Speed
		p.Lengths[i] = len(data) / layout.Height
		payload = append(payload, data...)
	}
	return NewHeader(p), payload, nil
}

// Packets splits header and payload into fixed-size packets, header first.
// The last packet is zero padded.
func Packets(h Header, payload []byte, size int) [][]byte {
	if size <= 0 {
		size = PacketSize
	}
	buf := make([]byte, 0, len(h)+len(payload))
	buf = append(buf, h[:]...)
	buf = append(buf, payload...)
	var out [][]byte
	for off := 0; off < len(buf); off += size {
		pkt := make([]byte, size)
		copy(pkt, buf[off:])
		out = append(out, pkt)
	}
	return out
}

// DeviceMemory is the badge's message storage in bytes.
const (
	DeviceMemory = 4096
	bankOverhead = 32
)

// BankMemory estimates the device storage one bank takes: a fixed overhead
// plus 11 bytes for every byte-column up to the rightmost lit pixel.
func BankMemory(b bank.Bank) int {
	maxX := 0
	for x := b.Width() - 1; x >= 0; x-- {
		if b.Pixels.ColumnLit(x) {
			maxX = x
			break
		}
	}
	return bankOverhead + layout.ByteColumns(maxX+1)*layout.Height
}

// Usage is the estimated device memory footprint of a set of banks.
type Usage struct {
	Used     int     `json:"used"`
	Capacity int     `json:"capacity"`
	Percent  float64 `json:"percent"`
}

func (u Usage) Over() bool { return u.Used > u.Capacity }

func MemoryUsage(banks [layout.Banks]bank.Bank) Usage {
	u := Usage{Capacity: DeviceMemory}
	for _, b := range banks {
		u.Used += BankMemory(b)
	}
	u.Percent = float64(u.Used) / float64(u.Capacity) * 100
	return u
}
