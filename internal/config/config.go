// Package config loads star finder settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then a
// .env file, then process environment variables. Later layers win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/starfinder-mcp/internal/controller"
	"github.com/ironsheep/starfinder-mcp/internal/imaging"
	"github.com/ironsheep/starfinder-mcp/internal/starfinder"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STARFINDER_"

// Config represents the application configuration.
type Config struct {
	// Unit is the intensity unit tag applied to loaded images.
	Unit string `yaml:"unit"`

	// Image is an optional FITS file opened at startup.
	Image string `yaml:"image"`

	// LogLevel enables debug logging when set to "debug".
	LogLevel string `yaml:"logLevel"`

	HTTP struct {
		// Addr is the listen address of the web controller. Empty disables
		// it.
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	// Pipeline holds the statistics, detection and display settings.
	Pipeline starfinder.Options `yaml:"pipeline"`

	// Controls holds the slider ranges.
	Controls struct {
		Radius              controller.RangeSpec `yaml:"radius"`
		ThresholdMultiplier controller.RangeSpec `yaml:"thresholdMultiplier"`
	} `yaml:"controls"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{
		Unit:     imaging.DefaultUnit,
		LogLevel: "info",
		Pipeline: starfinder.DefaultOptions(),
	}
	defaults := controller.DefaultBindings(nil)
	cfg.Controls.Radius = defaults.Radius
	cfg.Controls.ThresholdMultiplier = defaults.ThresholdMultiplier
	return cfg
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// RendererOptions returns the pipeline options with the debug flag applied.
func (c *Config) RendererOptions() starfinder.Options {
	opts := c.Pipeline
	opts.Debug = c.Debug()
	return opts
}

// Bindings returns controller bindings for img using the configured ranges.
func (c *Config) Bindings(img *imaging.Image) controller.Bindings {
	b := controller.DefaultBindings(img)
	b.Radius = c.Controls.Radius
	b.ThresholdMultiplier = c.Controls.ThresholdMultiplier
	return b
}

// Validate checks the configuration for values the pipeline cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Unit) == "" {
		return fmt.Errorf("unit must not be empty")
	}
	if err := c.Pipeline.Display.Validate(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if c.Pipeline.Detect.FWHM <= 0 {
		return fmt.Errorf("detect: fwhm must be positive, got %v", c.Pipeline.Detect.FWHM)
	}
	if err := c.Controls.Radius.Validate(); err != nil {
		return fmt.Errorf("controls.radius: %w", err)
	}
	if c.Controls.Radius.Min <= 0 {
		return fmt.Errorf("controls.radius: min must be positive, got %v", c.Controls.Radius.Min)
	}
	if err := c.Controls.ThresholdMultiplier.Validate(); err != nil {
		return fmt.Errorf("controls.thresholdMultiplier: %w", err)
	}
	if c.Controls.ThresholdMultiplier.Min < 0 {
		return fmt.Errorf("controls.thresholdMultiplier: min must not be negative, got %v", c.Controls.ThresholdMultiplier.Min)
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at configPath
// (skipped when empty or missing), ./.env and the environment.
func Load(configPath string) (*Config, error) {
	return LoadWithEnvFiles(configPath, ".env")
}

// LoadWithEnvFiles is Load with explicit dotenv files. Missing dotenv files
// are ignored. Process environment variables take precedence over dotenv
// values.
func LoadWithEnvFiles(configPath string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	dotenv := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		for k, v := range vals {
			dotenv[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"UNIT":          &c.Unit,
		"IMAGE":         &c.Image,
		"LOG_LEVEL":     &c.LogLevel,
		"HTTP_ADDR":     &c.HTTP.Addr,
		"COLORMAP":      &c.Pipeline.Display.Colormap,
		"TITLE":         &c.Pipeline.Title,
		"OVERLAY_COLOR": &c.Pipeline.Overlay.Color,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"VMIN":          &c.Pipeline.Display.VMin,
		"VMAX":          &c.Pipeline.Display.VMax,
		"FWHM":          &c.Pipeline.Detect.FWHM,
		"CLIP_SIGMA":    &c.Pipeline.Clip.SigmaLower,
		"OVERLAY_LW":    &c.Pipeline.Overlay.LineWidth,
		"OVERLAY_ALPHA": &c.Pipeline.Overlay.Alpha,
	}
	for key, dst := range floats {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
		}
		*dst = f
		if key == "CLIP_SIGMA" {
			c.Pipeline.Clip.SigmaUpper = f
		}
	}
	return nil
}

// SaveConfig writes the configuration to a YAML file, creating its
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
