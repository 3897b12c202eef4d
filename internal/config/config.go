package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr           string `yaml:"addr"`             // e.g. localhost:7890
	DialTimeoutMs  int    `yaml:"dial_timeout_ms"`  // 0 = OS default
	WriteTimeoutMs int    `yaml:"write_timeout_ms"` // 0 = no deadline
	BestEffort     bool   `yaml:"best_effort"`
}

type Geometry struct {
	Strips       int `yaml:"strips"`
	LedsPerStrip int `yaml:"leds_per_strip"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0, empty = console fallback
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2400000
}

type Config struct {
	Server  Server   `yaml:"server"`
	Channel int      `yaml:"channel"` // 0 = broadcast
	Geo     Geometry `yaml:"geometry"`
	FPS     int      `yaml:"fps"`

	ListenAddr  string `yaml:"listen_addr"`  // simulator OPC listener
	MonitorAddr string `yaml:"monitor_addr"` // simulator websocket monitor
	SPI         SPI    `yaml:"spi,omitempty"`
}

// Default matches the Glimmer server's conventional endpoint and strip
// geometry (8 strips of 64 LEDs per controller).
func Default() *Config {
	return &Config{
		Server:      Server{Addr: "localhost:7890"},
		Geo:         Geometry{Strips: 8, LedsPerStrip: 64},
		FPS:         60,
		ListenAddr:  ":7890",
		MonitorAddr: ":8080",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
