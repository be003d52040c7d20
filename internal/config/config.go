package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version       string        `yaml:"version" json:"version"`
	Server        Server        `yaml:"server" json:"server"`
	Storage       Storage       `yaml:"storage" json:"storage"`
	Notifications Notifications `yaml:"notifications" json:"notifications"`
	Calendar      Calendar      `yaml:"calendar" json:"calendar"`
	EndOfDay      EndOfDay      `yaml:"end_of_day" json:"end_of_day"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Storage struct {
	// Driver selects the persistence backend: file, sqlite, or memory.
	Driver  string `yaml:"driver" json:"driver"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

type Notifications struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type Calendar struct {
	// MaxEnumerationDays caps occurrence-preview ranges; enumeration cost
	// is linear in the number of days requested.
	MaxEnumerationDays int `yaml:"max_enumeration_days" json:"max_enumeration_days"`
}

type EndOfDay struct {
	Hour   int `yaml:"hour" json:"hour"`
	Minute int `yaml:"minute" json:"minute"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8274"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Calendar.MaxEnumerationDays == 0 {
		c.Calendar.MaxEnumerationDays = 366
	}
	if c.EndOfDay.Hour == 0 && c.EndOfDay.Minute == 0 {
		c.EndOfDay.Hour = 18
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Load reads the YAML config at path. A missing file is not an error: the
// defaults describe a working single-user setup.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
