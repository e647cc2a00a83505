package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Test that defaults are set via pointers
	if cfg.MaxFiles == nil || *cfg.MaxFiles != 100 {
		t.Errorf("Expected MaxFiles 100, got %v", cfg.MaxFiles)
	}
	if cfg.WrapNavigation == nil || *cfg.WrapNavigation != false {
		t.Errorf("Expected WrapNavigation false, got %v", cfg.WrapNavigation)
	}
	if cfg.ZDisplayDivisor == nil || *cfg.ZDisplayDivisor != 100000 {
		t.Errorf("Expected ZDisplayDivisor 100000, got %v", cfg.ZDisplayDivisor)
	}
	if cfg.SessionTTL == nil || *cfg.SessionTTL != "30m" {
		t.Errorf("Expected SessionTTL '30m', got %v", cfg.SessionTTL)
	}
	if cfg.EyeDomeLighting == nil || *cfg.EyeDomeLighting != true {
		t.Errorf("Expected EyeDomeLighting true, got %v", cfg.EyeDomeLighting)
	}

	// Test getter methods
	if cfg.GetMaxFiles() != 100 {
		t.Errorf("GetMaxFiles() = %d, want 100", cfg.GetMaxFiles())
	}
	if cfg.GetWrapNavigation() != false {
		t.Errorf("GetWrapNavigation() = %v, want false", cfg.GetWrapNavigation())
	}
	if cfg.GetZDisplayDivisor() != 100000 {
		t.Errorf("GetZDisplayDivisor() = %f, want 100000", cfg.GetZDisplayDivisor())
	}
	if cfg.GetBackground() != "black" {
		t.Errorf("GetBackground() = %q, want 'black'", cfg.GetBackground())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	// Create temporary directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	// Write test config with flat schema
	testJSON := `{
  "max_files": 40,
  "recursive_scan": true,
  "wrap_navigation": true,
  "point_budget": 200000,
  "session_ttl": "2h",
  "histogram_bins": 80
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Load the config
	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values
	if cfg.MaxFiles == nil || *cfg.MaxFiles != 40 {
		t.Errorf("Expected MaxFiles 40, got %v", cfg.MaxFiles)
	}
	if cfg.RecursiveScan == nil || *cfg.RecursiveScan != true {
		t.Errorf("Expected RecursiveScan true, got %v", cfg.RecursiveScan)
	}
	if cfg.WrapNavigation == nil || *cfg.WrapNavigation != true {
		t.Errorf("Expected WrapNavigation true, got %v", cfg.WrapNavigation)
	}
	if cfg.PointBudget == nil || *cfg.PointBudget != 200000 {
		t.Errorf("Expected PointBudget 200000, got %v", cfg.PointBudget)
	}
	if cfg.SessionTTL == nil || *cfg.SessionTTL != "2h" {
		t.Errorf("Expected SessionTTL '2h', got %v", cfg.SessionTTL)
	}
	if cfg.HistogramBins == nil || *cfg.HistogramBins != 80 {
		t.Errorf("Expected HistogramBins 80, got %v", cfg.HistogramBins)
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	// Write invalid JSON
	invalidJSON := `{
  "max_files": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name: "zero max files",
			cfg: &TuningConfig{
				MaxFiles: ptrInt(0),
			},
			wantErr: true,
		},
		{
			name: "negative z display divisor",
			cfg: &TuningConfig{
				ZDisplayDivisor: ptrFloat64(-1),
			},
			wantErr: true,
		},
		{
			name: "zero z display divisor",
			cfg: &TuningConfig{
				ZDisplayDivisor: ptrFloat64(0),
			},
			wantErr: true,
		},
		{
			name: "negative point budget",
			cfg: &TuningConfig{
				PointBudget: ptrInt(-1),
			},
			wantErr: true,
		},
		{
			name: "zero point budget disables decimation",
			cfg: &TuningConfig{
				PointBudget: ptrInt(0),
			},
			wantErr: false,
		},
		{
			name: "zero histogram bins",
			cfg: &TuningConfig{
				HistogramBins: ptrInt(0),
			},
			wantErr: true,
		},
		{
			name: "invalid session ttl",
			cfg: &TuningConfig{
				SessionTTL: ptrString("invalid"),
			},
			wantErr: true,
		},
		{
			name: "invalid cache ttl",
			cfg: &TuningConfig{
				CacheTTL: ptrString("invalid"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSessionTTL(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{
			name: "30 minutes",
			cfg: &TuningConfig{
				SessionTTL: ptrString("30m"),
			},
			want: 30 * time.Minute,
		},
		{
			name: "2 hours",
			cfg: &TuningConfig{
				SessionTTL: ptrString("2h"),
			},
			want: 2 * time.Hour,
		},
		{
			name: "nil pointer returns default",
			cfg:  &TuningConfig{},
			want: 30 * time.Minute,
		},
		{
			name: "empty string returns default",
			cfg: &TuningConfig{
				SessionTTL: ptrString(""),
			},
			want: 30 * time.Minute,
		},
		{
			name: "invalid duration returns default",
			cfg: &TuningConfig{
				SessionTTL: ptrString("invalid"),
			},
			want: 30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.GetSessionTTL()
			if got != tt.want {
				t.Errorf("GetSessionTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCacheTTL(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{
			name: "10 minutes",
			cfg: &TuningConfig{
				CacheTTL: ptrString("10m"),
			},
			want: 10 * time.Minute,
		},
		{
			name: "nil pointer returns default",
			cfg:  &TuningConfig{},
			want: 10 * time.Minute,
		},
		{
			name: "invalid duration returns default",
			cfg: &TuningConfig{
				CacheTTL: ptrString("invalid"),
			},
			want: 10 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.GetCacheTTL()
			if got != tt.want {
				t.Errorf("GetCacheTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.GetMaxFiles() != 100 {
		t.Errorf("Expected 100, got %d", cfg.GetMaxFiles())
	}
	if cfg.GetEyeDomeLighting() != true {
		t.Errorf("Expected true, got %v", cfg.GetEyeDomeLighting())
	}
}

func TestLoadExampleConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.example.json")
	if err != nil {
		t.Fatalf("Failed to load example: %v", err)
	}
	if cfg.GetMaxFiles() != 40 {
		t.Errorf("Expected 40, got %d", cfg.GetMaxFiles())
	}
	if cfg.GetRecursiveScan() != true {
		t.Errorf("Expected true, got %v", cfg.GetRecursiveScan())
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	// Partial config: only override max_files; everything else should keep defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialJSON := `{
  "max_files": 25
}`
	if err := os.WriteFile(configPath, []byte(partialJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load partial config: %v", err)
	}

	// Overridden value
	if cfg.GetMaxFiles() != 25 {
		t.Errorf("Expected overridden MaxFiles 25, got %d", cfg.GetMaxFiles())
	}
	// Default values should be preserved
	if cfg.GetSessionTTL() != 30*time.Minute {
		t.Errorf("Expected default SessionTTL 30m, got %v", cfg.GetSessionTTL())
	}
	if cfg.GetWrapNavigation() != false {
		t.Errorf("Expected default WrapNavigation false, got %v", cfg.GetWrapNavigation())
	}
	if cfg.GetZDisplayDivisor() != 100000 {
		t.Errorf("Expected default ZDisplayDivisor 100000, got %f", cfg.GetZDisplayDivisor())
	}
	if cfg.GetPointBudget() != 500000 {
		t.Errorf("Expected default PointBudget 500000, got %d", cfg.GetPointBudget())
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	// Create a file larger than 1MB
	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestAllTuningParams(t *testing.T) {
	// Test that all tunable parameters can be set via JSON
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "all_params.json")

	allParamsJSON := `{
  "max_files": 50,
  "recursive_scan": true,
  "wrap_navigation": true,
  "z_display_divisor": 1000,
  "point_budget": 100000,
  "eye_dome_lighting": false,
  "background": "#101018",
  "histogram_bins": 64,
  "session_ttl": "1h",
  "cache_ttl": "5m"
}`
	if err := os.WriteFile(configPath, []byte(allParamsJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify all fields are loaded correctly
	if cfg.MaxFiles == nil || *cfg.MaxFiles != 50 {
		t.Errorf("MaxFiles = %v, want 50", cfg.MaxFiles)
	}
	if cfg.RecursiveScan == nil || *cfg.RecursiveScan != true {
		t.Errorf("RecursiveScan = %v, want true", cfg.RecursiveScan)
	}
	if cfg.WrapNavigation == nil || *cfg.WrapNavigation != true {
		t.Errorf("WrapNavigation = %v, want true", cfg.WrapNavigation)
	}
	if cfg.ZDisplayDivisor == nil || *cfg.ZDisplayDivisor != 1000 {
		t.Errorf("ZDisplayDivisor = %v, want 1000", cfg.ZDisplayDivisor)
	}
	if cfg.PointBudget == nil || *cfg.PointBudget != 100000 {
		t.Errorf("PointBudget = %v, want 100000", cfg.PointBudget)
	}
	if cfg.EyeDomeLighting == nil || *cfg.EyeDomeLighting != false {
		t.Errorf("EyeDomeLighting = %v, want false", cfg.EyeDomeLighting)
	}
	if cfg.Background == nil || *cfg.Background != "#101018" {
		t.Errorf("Background = %v, want '#101018'", cfg.Background)
	}
	if cfg.HistogramBins == nil || *cfg.HistogramBins != 64 {
		t.Errorf("HistogramBins = %v, want 64", cfg.HistogramBins)
	}
	if cfg.SessionTTL == nil || *cfg.SessionTTL != "1h" {
		t.Errorf("SessionTTL = %v, want '1h'", cfg.SessionTTL)
	}
	if cfg.CacheTTL == nil || *cfg.CacheTTL != "5m" {
		t.Errorf("CacheTTL = %v, want '5m'", cfg.CacheTTL)
	}
}

func TestGetterDefaults(t *testing.T) {
	// Test that getter methods return expected defaults when pointers are nil
	cfg := &TuningConfig{} // empty config

	if cfg.GetMaxFiles() != 100 {
		t.Errorf("GetMaxFiles() = %d, want 100", cfg.GetMaxFiles())
	}
	if cfg.GetRecursiveScan() != false {
		t.Errorf("GetRecursiveScan() = %v, want false", cfg.GetRecursiveScan())
	}
	if cfg.GetWrapNavigation() != false {
		t.Errorf("GetWrapNavigation() = %v, want false", cfg.GetWrapNavigation())
	}
	if cfg.GetZDisplayDivisor() != 100000 {
		t.Errorf("GetZDisplayDivisor() = %f, want 100000", cfg.GetZDisplayDivisor())
	}
	if cfg.GetPointBudget() != 500000 {
		t.Errorf("GetPointBudget() = %d, want 500000", cfg.GetPointBudget())
	}
	if cfg.GetEyeDomeLighting() != true {
		t.Errorf("GetEyeDomeLighting() = %v, want true", cfg.GetEyeDomeLighting())
	}
	if cfg.GetBackground() != "black" {
		t.Errorf("GetBackground() = %q, want 'black'", cfg.GetBackground())
	}
	if cfg.GetHistogramBins() != 50 {
		t.Errorf("GetHistogramBins() = %d, want 50", cfg.GetHistogramBins())
	}
	if cfg.GetSessionTTL() != 30*time.Minute {
		t.Errorf("GetSessionTTL() = %v, want 30m", cfg.GetSessionTTL())
	}
	if cfg.GetCacheTTL() != 10*time.Minute {
		t.Errorf("GetCacheTTL() = %v, want 10m", cfg.GetCacheTTL())
	}
}
