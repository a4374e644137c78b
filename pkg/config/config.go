// Package config resolves lsbkit settings from defaults, optional files and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/Beastly713/lsbkit/pkg/compression"
	"github.com/Beastly713/lsbkit/pkg/imageio"
	"github.com/Beastly713/lsbkit/pkg/stego"
)

// ErrInvalid is returned when a resolved setting is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config captures the settings shared by every command.
type Config struct {
	OutputFormat   string       `yaml:"output_format" toml:"output_format" default:"png"`
	PNGCompression string       `yaml:"png_compression" toml:"png_compression" default:"default"`
	Layout         string       `yaml:"layout" toml:"layout" default:"rgb"`
	LogLevel       string       `yaml:"log_level" toml:"log_level" default:"warn"`
	Sealed         SealedConfig `yaml:"sealed" toml:"sealed"`
}

// SealedConfig controls the sealed payload format.
type SealedConfig struct {
	DataShards   int    `yaml:"data_shards" toml:"data_shards" default:"4"`
	ParityShards int    `yaml:"parity_shards" toml:"parity_shards" default:"2"`
	Compression  string `yaml:"compression" toml:"compression" default:"zstd"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	// Set only fails on non-pointer input.
	_ = defaults.Set(&cfg)
	return cfg
}

// Load resolves the configuration. When path is set only that file is read,
// and it must exist. Otherwise the lookup order is:
//  1. ~/.lsbkit/config.toml (TOML)
//  2. ./lsbkit.yml (YAML), overriding the home file
//
// Environment variables prefixed with LSBKIT_ have the highest precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(&cfg, path, true); err != nil {
			return Config{}, err
		}
	} else {
		if err := loadHomeConfig(&cfg); err != nil {
			return Config{}, err
		}
		if err := loadFile(&cfg, "lsbkit.yml", false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadHomeConfig(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory (e.g. a bare container); skip it.
		return nil
	}
	return loadFile(cfg, filepath.Join(home, ".lsbkit", "config.toml"), false)
}

func loadFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file %s: want .yml, .yaml or .toml", path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

// fileConfig mirrors Config with pointers so that keys missing from a file
// leave earlier values alone.
type fileConfig struct {
	OutputFormat   *string           `yaml:"output_format" toml:"output_format"`
	PNGCompression *string           `yaml:"png_compression" toml:"png_compression"`
	Layout         *string           `yaml:"layout" toml:"layout"`
	LogLevel       *string           `yaml:"log_level" toml:"log_level"`
	Sealed         *fileSealedConfig `yaml:"sealed" toml:"sealed"`
}

type fileSealedConfig struct {
	DataShards   *int    `yaml:"data_shards" toml:"data_shards"`
	ParityShards *int    `yaml:"parity_shards" toml:"parity_shards"`
	Compression  *string `yaml:"compression" toml:"compression"`
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.OutputFormat, fc.OutputFormat)
	setString(&cfg.PNGCompression, fc.PNGCompression)
	setString(&cfg.Layout, fc.Layout)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.Sealed != nil {
		if fc.Sealed.DataShards != nil {
			cfg.Sealed.DataShards = *fc.Sealed.DataShards
		}
		if fc.Sealed.ParityShards != nil {
			cfg.Sealed.ParityShards = *fc.Sealed.ParityShards
		}
		setString(&cfg.Sealed.Compression, fc.Sealed.Compression)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyEnvOverrides(cfg *Config) error {
	if val := env("LSBKIT_OUTPUT_FORMAT"); val != "" {
		cfg.OutputFormat = val
	}
	if val := env("LSBKIT_PNG_COMPRESSION"); val != "" {
		cfg.PNGCompression = val
	}
	if val := env("LSBKIT_LAYOUT"); val != "" {
		cfg.Layout = val
	}
	if val := env("LSBKIT_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := env("LSBKIT_COMPRESSION"); val != "" {
		cfg.Sealed.Compression = val
	}
	if val := env("LSBKIT_DATA_SHARDS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: LSBKIT_DATA_SHARDS=%q", ErrInvalid, val)
		}
		cfg.Sealed.DataShards = n
	}
	if val := env("LSBKIT_PARITY_SHARDS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: LSBKIT_PARITY_SHARDS=%q", ErrInvalid, val)
		}
		cfg.Sealed.ParityShards = n
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// Validate checks every setting against the values the commands accept.
func (c Config) Validate() error {
	f, err := imageio.ParseFormat(c.OutputFormat)
	if err != nil {
		return fmt.Errorf("%w: output_format: %w", ErrInvalid, err)
	}
	if !f.Lossless() {
		return fmt.Errorf("%w: output_format %s is lossy", ErrInvalid, f)
	}
	if _, err := imageio.ParsePNGCompression(c.PNGCompression); err != nil {
		return fmt.Errorf("%w: png_compression: %w", ErrInvalid, err)
	}
	if _, err := stego.ParseLayout(c.Layout); err != nil {
		return fmt.Errorf("%w: layout: %w", ErrInvalid, err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	if _, err := compression.ParseID(c.Sealed.Compression); err != nil {
		return fmt.Errorf("%w: sealed.compression: %w", ErrInvalid, err)
	}
	if c.Sealed.DataShards < 1 || c.Sealed.ParityShards < 1 || c.Sealed.DataShards+c.Sealed.ParityShards > 256 {
		return fmt.Errorf("%w: sealed shards %d+%d", ErrInvalid, c.Sealed.DataShards, c.Sealed.ParityShards)
	}
	return nil
}
