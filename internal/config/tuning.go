package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for viewer tuning
// parameters. The schema matches the /api/status payload so the same
// JSON can be inspected at runtime.
type TuningConfig struct {
	// Catalog params
	MaxFiles      *int  `json:"max_files,omitempty"`
	RecursiveScan *bool `json:"recursive_scan,omitempty"`

	// Navigation params
	WrapNavigation *bool `json:"wrap_navigation,omitempty"`

	// Display params
	ZDisplayDivisor *float64 `json:"z_display_divisor,omitempty"`
	PointBudget     *int     `json:"point_budget,omitempty"`
	EyeDomeLighting *bool    `json:"eye_dome_lighting,omitempty"`
	Background      *string  `json:"background,omitempty"`
	HistogramBins   *int     `json:"histogram_bins,omitempty"`

	// Session lifecycle params
	SessionTTL *string `json:"session_ttl,omitempty"` // duration string like "30m"
	CacheTTL   *string `json:"cache_ttl,omitempty"`   // duration string like "10m"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default value.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MaxFiles:        ptrInt(100),
		RecursiveScan:   ptrBool(false),
		WrapNavigation:  ptrBool(false),
		ZDisplayDivisor: ptrFloat64(100000),
		PointBudget:     ptrInt(500000),
		EyeDomeLighting: ptrBool(true),
		Background:      ptrString("black"),
		HistogramBins:   ptrInt(50),
		SessionTTL:      ptrString("30m"),
		CacheTTL:        ptrString("10m"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MaxFiles != nil {
		if *c.MaxFiles < 1 {
			return fmt.Errorf("max_files must be positive, got %d", *c.MaxFiles)
		}
	}

	if c.ZDisplayDivisor != nil {
		if *c.ZDisplayDivisor <= 0 {
			return fmt.Errorf("z_display_divisor must be positive, got %f", *c.ZDisplayDivisor)
		}
	}

	// PointBudget of zero disables payload decimation.
	if c.PointBudget != nil {
		if *c.PointBudget < 0 {
			return fmt.Errorf("point_budget must be non-negative, got %d", *c.PointBudget)
		}
	}

	if c.HistogramBins != nil {
		if *c.HistogramBins < 1 {
			return fmt.Errorf("histogram_bins must be positive, got %d", *c.HistogramBins)
		}
	}

	// Validate SessionTTL can be parsed if set
	if c.SessionTTL != nil && *c.SessionTTL != "" {
		if _, err := time.ParseDuration(*c.SessionTTL); err != nil {
			return fmt.Errorf("invalid session_ttl '%s': %w", *c.SessionTTL, err)
		}
	}

	// Validate CacheTTL can be parsed if set
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
	}

	return nil
}

// GetMaxFiles returns the max_files value or the default.
func (c *TuningConfig) GetMaxFiles() int {
	if c.MaxFiles == nil {
		return 100 // default
	}
	return *c.MaxFiles
}

// GetRecursiveScan returns the recursive_scan value or the default.
func (c *TuningConfig) GetRecursiveScan() bool {
	if c.RecursiveScan == nil {
		return false // default: scan only the selected folder
	}
	return *c.RecursiveScan
}

// GetWrapNavigation returns the wrap_navigation value or the default.
func (c *TuningConfig) GetWrapNavigation() bool {
	if c.WrapNavigation == nil {
		return false // default: clamp at collection edges
	}
	return *c.WrapNavigation
}

// GetZDisplayDivisor returns the z_display_divisor value or the default.
func (c *TuningConfig) GetZDisplayDivisor() float64 {
	if c.ZDisplayDivisor == nil {
		return 100000
	}
	return *c.ZDisplayDivisor
}

// GetPointBudget returns the point_budget value or the default.
func (c *TuningConfig) GetPointBudget() int {
	if c.PointBudget == nil {
		return 500000
	}
	return *c.PointBudget
}

// GetEyeDomeLighting returns the eye_dome_lighting value or the default.
func (c *TuningConfig) GetEyeDomeLighting() bool {
	if c.EyeDomeLighting == nil {
		return true
	}
	return *c.EyeDomeLighting
}

// GetBackground returns the background value or the default.
func (c *TuningConfig) GetBackground() string {
	if c.Background == nil || *c.Background == "" {
		return "black"
	}
	return *c.Background
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *TuningConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 50
	}
	return *c.HistogramBins
}

// GetSessionTTL parses and returns the SessionTTL as a time.Duration.
func (c *TuningConfig) GetSessionTTL() time.Duration {
	if c.SessionTTL == nil || *c.SessionTTL == "" {
		return 30 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.SessionTTL)
	if err != nil {
		return 30 * time.Minute // default on parse error
	}
	return d
}

// GetCacheTTL parses and returns the CacheTTL as a time.Duration.
func (c *TuningConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == nil || *c.CacheTTL == "" {
		return 10 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.CacheTTL)
	if err != nil {
		return 10 * time.Minute // default on parse error
	}
	return d
}
