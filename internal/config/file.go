package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/wagiedev/qrexec-go/internal/frame"
)

// EnvPrefix prefixes environment overrides, with "__" separating nested keys:
// QREXEC_FRAME__LOG__LEVEL=debug sets log.level.
const EnvPrefix = "QREXEC_FRAME__"

// LogConfig selects the process log handler.
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// File is the on-disk configuration of the qrexec-frame tool.
type File struct {
	BufferSize     int       `koanf:"buffer_size"`
	MaxMessageSize int       `koanf:"max_message_size"`
	BridgePath     string    `koanf:"bridge_path"`
	Log            LogConfig `koanf:"log"`
}

// LoadFile merges YAML at path (if present) with environment overrides.
// A missing file is not an error; an empty path skips the file entirely.
func LoadFile(path string) (File, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!stderrors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return File{}, fmt.Errorf("load environment overrides: %w", err)
	}

	var cfg File
	if err := k.Unmarshal("", &cfg); err != nil {
		return File{}, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return File{}, err
	}

	return cfg, nil
}

func applyDefaults(c *File) {
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports configuration values the transport cannot use.
func (c File) Validate() error {
	if c.BufferSize <= frame.HeaderLen {
		return fmt.Errorf("buffer_size %d must exceed the %d-byte frame header", c.BufferSize, frame.HeaderLen)
	}

	if c.MaxMessageSize < 0 {
		return fmt.Errorf("max_message_size %d must not be negative", c.MaxMessageSize)
	}

	return nil
}

// Options converts the file settings into transport options.
func (c File) Options() *Options {
	return &Options{
		BufferSize:     c.BufferSize,
		MaxMessageSize: c.MaxMessageSize,
		BridgePath:     c.BridgePath,
	}
}
