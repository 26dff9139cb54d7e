package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/vmerrors"
)

const FileName = "intcode.toml"

type Config struct {
	LogLevel  string         `json:"loglevel" toml:"log_level"`
	LogJson   bool           `json:"logjson" toml:"log_json"`
	Debug     string         `json:"debug" toml:"debug"`
	Telemetry string         `json:"telemetry" toml:"telemetry_endpoint"`
	Pipeline  PipelineConfig `json:"pipeline" toml:"pipeline"`
	Network   NetworkConfig  `json:"network" toml:"network"`
	Console   ConsoleConfig  `json:"console" toml:"console"`

	// Path is the file the config was read from, empty for defaults.
	Path string `json:"path,omitempty" toml:"-"`
}

type PipelineConfig struct {
	ChannelCapacity int `json:"channelcapacity" toml:"channel_capacity"`
}

type NetworkConfig struct {
	Size          int `json:"size" toml:"size"`
	IdleThreshold int `json:"idlethreshold" toml:"idle_threshold"`
}

type ConsoleConfig struct {
	Prompt      string `json:"prompt" toml:"prompt"`
	HistoryFile string `json:"historyfile" toml:"history_file"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{ChannelCapacity: 64},
		Network: NetworkConfig{
			Size:          50,
			IdleThreshold: 100000,
		},
		Console: ConsoleConfig{
			Prompt:      "intcode> ",
			HistoryFile: filepath.Join(os.TempDir(), "intcode_history"),
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w (unknown keys in %s: %s)", vmerrors.ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug(log.ConfigMonitoring, "config loaded", "path", path)
	return cfg, nil
}

// LoadOrDefault loads path when it is set, and the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w (log_level: %v)", vmerrors.ErrInvalidConfig, err)
	}
	if c.Pipeline.ChannelCapacity < 2 {
		return fmt.Errorf("%w (pipeline.channel_capacity=%d, need at least 2)", vmerrors.ErrInvalidConfig, c.Pipeline.ChannelCapacity)
	}
	if c.Network.Size < 1 || c.Network.Size > 255 {
		return fmt.Errorf("%w (network.size=%d, need 1..255)", vmerrors.ErrInvalidConfig, c.Network.Size)
	}
	if c.Network.IdleThreshold < 1 {
		return fmt.Errorf("%w (network.idle_threshold=%d)", vmerrors.ErrInvalidConfig, c.Network.IdleThreshold)
	}
	return nil
}

// String method returns the Config as a formatted JSON string
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}

// TOML renders the config in the file format Load accepts.
func (c *Config) TOML() (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return "", err
	}
	return sb.String(), nil
}
