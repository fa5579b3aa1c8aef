package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all lethe configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Decay   DecayConfig   `toml:"decay"`
	Loop    LoopConfig    `toml:"loop"`
	Journal JournalConfig `toml:"journal"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DecayConfig struct {
	IntervalSeconds float64 `toml:"interval_seconds"`
	Probability     float64 `toml:"probability"`
	Seed            int64   `toml:"seed"` // 0 means time-based
}

type LoopConfig struct {
	IntervalSeconds  float64 `toml:"interval_seconds"`
	NarrativeSeconds float64 `toml:"narrative_seconds"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // empty resolves via store.DefaultPath()
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Decay: DecayConfig{
			IntervalSeconds: 5,
			Probability:     0.4,
		},
		Loop: LoopConfig{
			IntervalSeconds:  2,
			NarrativeSeconds: 10,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
	}
}

// DefaultPath returns ~/.lethe/lethe.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".lethe", "lethe.toml"), nil
}

// Load reads a TOML config file on top of the defaults. A missing file
// is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
