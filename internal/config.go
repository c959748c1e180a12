package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration: the log folders to scan and the
// analysis defaults. Loaded from a YAML file with environment overrides.
type Config struct {
	ImagingFolder string           `yaml:"imagingFolder"`
	GuidingFolder string           `yaml:"guidingFolder"`
	CachePath     string           `yaml:"cachePath"`
	Analysis      AnalysisSettings `yaml:"analysis"`
}

// AnalysisSettings is the file/flag representation of AnalysisConfig.
type AnalysisSettings struct {
	BucketWidthSeconds  float64 `yaml:"bucketWidthSeconds"`
	ExcludeDither       bool    `yaml:"excludeDither"`
	DitherMarginSeconds float64 `yaml:"ditherMarginSeconds"`
}

// AnalysisConfig converts the settings to the aggregator's configuration.
func (s AnalysisSettings) AnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		BucketWidth:   time.Duration(s.BucketWidthSeconds * float64(time.Second)),
		ExcludeDither: s.ExcludeDither,
		DitherMargin:  time.Duration(s.DitherMarginSeconds * float64(time.Second)),
	}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "astro-session", "config.yaml")
}

// DefaultCachePath returns the per-user analysis cache location.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".astro-session", "cache.db")
}

func defaultConfig() Config {
	return Config{
		CachePath: DefaultCachePath(),
		Analysis: AnalysisSettings{
			BucketWidthSeconds:  60,
			ExcludeDither:       true,
			DitherMarginSeconds: 3,
		},
	}
}

// LoadConfig initialises Config from a YAML file and environment overrides.
// A missing file at the default location is fine (defaults apply); an
// explicitly named file must exist.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// defaults
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.BucketWidthSeconds <= 0 {
		return fmt.Errorf("bucketWidthSeconds must be > 0, got %v", c.Analysis.BucketWidthSeconds)
	}
	if c.Analysis.DitherMarginSeconds < 0 {
		return fmt.Errorf("ditherMarginSeconds must be >= 0, got %v", c.Analysis.DitherMarginSeconds)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ASTRO_SESSION_IMAGING_DIR"); v != "" {
		cfg.ImagingFolder = v
	}
	if v := os.Getenv("ASTRO_SESSION_GUIDING_DIR"); v != "" {
		cfg.GuidingFolder = v
	}
	if v := os.Getenv("ASTRO_SESSION_CACHE"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("ASTRO_SESSION_BUCKET_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.BucketWidthSeconds = f
		}
	}
	if v := os.Getenv("ASTRO_SESSION_DITHER_MARGIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.DitherMarginSeconds = f
		}
	}
	if v := os.Getenv("ASTRO_SESSION_EXCLUDE_DITHER"); v != "" {
		cfg.Analysis.ExcludeDither = strings.EqualFold(v, "true") || v == "1"
	}
}

// Save writes the configuration back to the given path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return errors.New("no config path available")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
