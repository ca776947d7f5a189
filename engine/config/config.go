// Package config holds the settings the app is started with. A config file is flat YAML whose keys
// overlay the defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// DefaultChunkSize is the default staging chunk size in bytes.
const DefaultChunkSize = 1 << 20

// Config is the app's startup configuration.
type Config struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`

	// FrameLimit caps the frame rate; 0 is uncapped.
	FrameLimit float64 `yaml:"frame_limit"`

	StagingChunkSize uint64 `yaml:"staging_chunk_size"`
	StagingPools     int    `yaml:"staging_pools"`

	Profiling bool `yaml:"profiling"`

	AssetDir string  `yaml:"asset_dir"`
	Scene    string  `yaml:"scene"`
	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"font_size"`
	// Overlay is an optional image drawn over the scene.
	Overlay string `yaml:"overlay"`

	// Workers is the texture decode worker count; 0 means one per CPU.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Title:            "PHANTOMa",
		Width:            1280,
		Height:           720,
		VSync:            true,
		StagingChunkSize: DefaultChunkSize,
		StagingPools:     2,
		AssetDir:         "assets",
		FontSize:         32,
	}
}

// Load reads a YAML file over the defaults and validates the result. Unknown keys are rejected.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML bytes over the defaults and validates the result. Empty input yields the defaults.
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(c.Width > 0, "width %d must be positive", c.Width)
	check(c.Height > 0, "height %d must be positive", c.Height)
	check(c.FrameLimit >= 0, "frame_limit %v must not be negative", c.FrameLimit)
	check(c.StagingChunkSize > 0 && c.StagingChunkSize%4 == 0, "staging_chunk_size %d must be a positive multiple of 4", c.StagingChunkSize)
	check(c.StagingPools >= 1, "staging_pools %d must be at least 1", c.StagingPools)
	check(c.FontSize > 0, "font_size %v must be positive", c.FontSize)
	check(c.Workers >= 0, "workers %d must not be negative", c.Workers)
	return errors.Join(errs...)
}

// Asset resolves name against AssetDir. Absolute names and empty names are returned unchanged.
func (c Config) Asset(name string) string {
	if name == "" || filepath.IsAbs(name) || c.AssetDir == "" {
		return name
	}
	return filepath.Join(c.AssetDir, name)
}
