package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Device struct {
	VendorID      uint16 `yaml:"vendor_id"`
	ProductID     uint16 `yaml:"product_id"`
	PacketSize    int    `yaml:"packet_size"`
	PacketDelayMs int    `yaml:"packet_delay_ms"`
	ClearFirst    bool   `yaml:"clear_first"`
}

type Font struct {
	Default string `yaml:"default"`
	Dir     string `yaml:"dir"` // extra .bdf/.ttf faces
}

type Preview struct {
	Addr     string `yaml:"addr"`
	LEDColor string `yaml:"led_color"`
}

type Mirror struct {
	Enabled bool   `yaml:"enabled"`
	I2CBus  string `yaml:"i2c_bus"` // empty selects the first bus
}

type Share struct {
	URL string `yaml:"url"`
}

type Config struct {
	Driver     string `yaml:"driver"` // "hid" | "sim"
	Brightness int    `yaml:"brightness"`
	FPS        int    `yaml:"fps"`
	Cycling    bool   `yaml:"cycling"`
	StateDir   string `yaml:"state_dir"`

	Device  Device  `yaml:"device"`
	Font    Font    `yaml:"font"`
	Preview Preview `yaml:"preview"`
	Mirror  Mirror  `yaml:"mirror,omitempty"`
	Share   Share   `yaml:"share,omitempty"`
}

func Default() *Config {
	return &Config{
		Driver:     "hid",
		Brightness: 100,
		FPS:        60,
		StateDir:   ".",
		Device: Device{
			VendorID:      0x0416,
			ProductID:     0x5020,
			PacketSize:    64,
			PacketDelayMs: 100,
			ClearFirst:    true,
		},
		Font:    Font{Default: "gomono"},
		Preview: Preview{Addr: ":8080", LEDColor: "#ff6a00"},
	}
}

// Load reads path on top of Default, so missing keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0644)
}
