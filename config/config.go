// Package config provides configuration loading for dzextract. A missing
// configuration file is not an error, the defaults are used instead.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/bodgit/dzextract/dzi"
	"gopkg.in/yaml.v3"
)

// Config is the dzextract configuration
type Config struct {
	Tile struct {
		// Quality is the JPEG quality of every written tile
		Quality int `yaml:"quality"`
		// Format must be "jpg", the only tile format written
		Format string `yaml:"format"`
	} `yaml:"tile"`

	Pyramid struct {
		// SynthesizeMaxTiles is the largest coarsest source level, in
		// tiles, from which level 0 is synthesized
		SynthesizeMaxTiles int `yaml:"synthesizeMaxTiles"`
	} `yaml:"pyramid"`

	Thumbnail struct {
		Size   int `yaml:"size"`
		Colors int `yaml:"colors"`
	} `yaml:"thumbnail"`

	// Colors holds the fluorophore names assigned to each composite slot
	Colors struct {
		Red   []string `yaml:"red"`
		Green []string `yaml:"green"`
		Blue  []string `yaml:"blue"`
	} `yaml:"colors"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Tile.Quality = 75
	cfg.Tile.Format = dzi.TileFormat

	cfg.Pyramid.SynthesizeMaxTiles = dzi.DefaultSynthesizeMaxTiles

	cfg.Thumbnail.Size = 256
	cfg.Thumbnail.Colors = 256

	cfg.Colors.Red = []string{"Rhodamine", "RFP", "Alexa Fluor 555", "Alexa Fluor 594", "tdTomato", "Alexa Fluor 633", "Alexa Fluor 647"}
	cfg.Colors.Green = []string{"FITC", "Alexa 488", "EGFP", "Alexa Fluor 488"}
	cfg.Colors.Blue = []string{"DAPI"}

	return cfg
}

// LoadConfig loads configuration from a YAML file. An empty path or a
// missing file returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.Tile.Quality < 1 || c.Tile.Quality > 100 {
		return fmt.Errorf("tile quality %d outside 1-100", c.Tile.Quality)
	}
	if c.Tile.Format != dzi.TileFormat {
		return fmt.Errorf("unsupported tile format %q", c.Tile.Format)
	}
	if c.Pyramid.SynthesizeMaxTiles < 1 {
		return errors.New("synthesizeMaxTiles must be at least 1")
	}
	if c.Thumbnail.Size < 1 {
		return errors.New("thumbnail size must be at least 1")
	}
	if c.Thumbnail.Colors < 2 || c.Thumbnail.Colors > 256 {
		return fmt.Errorf("thumbnail colors %d outside 2-256", c.Thumbnail.Colors)
	}
	for i, t := range c.ColorTables() {
		if len(t) == 0 {
			return fmt.Errorf("colour table %d is empty", i)
		}
	}
	return nil
}

// ColorTables returns the fluorophore tables in slot order: red, green, blue
func (c *Config) ColorTables() [][]string {
	return [][]string{c.Colors.Red, c.Colors.Green, c.Colors.Blue}
}
