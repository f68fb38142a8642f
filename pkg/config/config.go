// Package config loads the YAML configuration file and applies environment
// overrides. Every field has a working default so foldview runs with no
// config at all.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/foldview/foldview/pkg/window"
)

// Virtualization tunes the windowed-rendering math.
type Virtualization struct {
	// Threshold is the row count at and above which windowing activates.
	Threshold int `yaml:"threshold"`
	// RowHeightPx is the fixed row height used for spacer math.
	RowHeightPx int `yaml:"row_height_px"`
	// OverscanRows render beyond the visible viewport.
	OverscanRows int `yaml:"overscan_rows"`
	// MinRows is the smallest window regardless of viewport height.
	MinRows int `yaml:"min_rows"`
}

// Config is foldview's on-disk configuration.
type Config struct {
	// Listen is the tree service's bind address.
	Listen string `yaml:"listen"`
	// Root is the directory served and browsed.
	Root string `yaml:"root"`
	// AllowHidden includes dotfiles in listings.
	AllowHidden bool `yaml:"allow_hidden"`
	// LogLevel is a zerolog level name (trace..panic).
	LogLevel string `yaml:"log_level"`
	// BaseURL points the browser at a remote tree service. Empty means
	// list the local filesystem directly.
	BaseURL string `yaml:"base_url"`

	Virtualization Virtualization `yaml:"virtualization"`
}

// Default returns the built-in configuration.
func Default() Config {
	w := window.DefaultConfig()
	return Config{
		Listen:   ":8377",
		Root:     ".",
		LogLevel: "info",
		Virtualization: Virtualization{
			Threshold:    w.Threshold,
			RowHeightPx:  w.RowHeight,
			OverscanRows: w.OverscanRows,
			MinRows:      w.MinRows,
		},
	}
}

// Load reads path, layering it over the defaults, then applies FOLDVIEW_*
// environment overrides. A missing file is not an error; an unreadable or
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("FOLDVIEW_LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := os.LookupEnv("FOLDVIEW_ROOT"); ok {
		c.Root = v
	}
	if v, ok := os.LookupEnv("FOLDVIEW_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("FOLDVIEW_BASE_URL"); ok {
		c.BaseURL = v
	}
	if v, ok := os.LookupEnv("FOLDVIEW_ALLOW_HIDDEN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FOLDVIEW_ALLOW_HIDDEN=%q: %w", v, err)
		}
		c.AllowHidden = b
	}
	return nil
}

func (c *Config) validate() error {
	v := c.Virtualization
	if v.Threshold < 0 || v.RowHeightPx <= 0 || v.OverscanRows < 0 || v.MinRows < 0 {
		return fmt.Errorf("virtualization settings out of range: %+v", v)
	}
	return nil
}

// WindowConfig converts the tuning block into the windowing package's form.
func (c Config) WindowConfig() window.Config {
	return window.Config{
		Threshold:    c.Virtualization.Threshold,
		RowHeight:    c.Virtualization.RowHeightPx,
		OverscanRows: c.Virtualization.OverscanRows,
		MinRows:      c.Virtualization.MinRows,
	}
}
