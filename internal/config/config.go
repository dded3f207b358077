// Package config handles converter configuration loading and management.
package config

import "fmt"

// Config holds all converter settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Import  ImportConfig  `yaml:"import"`
	Texture TextureConfig `yaml:"texture"`
	Output  OutputConfig  `yaml:"output"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ImportConfig controls post-processing applied while importing a scene.
type ImportConfig struct {
	FlipWindingOrder bool `yaml:"flip_winding_order"`
	GenerateTangents bool `yaml:"generate_tangents"`
}

// TextureConfig holds texture processing settings.
type TextureConfig struct {
	PreviewDir   string `yaml:"preview_dir"` // Empty disables WebP previews
	CacheDecoded bool   `yaml:"cache_decoded"`
}

// OutputConfig holds artifact naming settings.
type OutputConfig struct {
	ModelName string `yaml:"model_name"` // Empty means the output directory name
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Import: ImportConfig{
			FlipWindingOrder: true,
			GenerateTangents: true,
		},
		Texture: TextureConfig{
			CacheDecoded: true,
		},
	}
}

// Validate checks values that cannot be caught by YAML decoding.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}
