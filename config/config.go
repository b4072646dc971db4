package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Clamping bounds for the scanning knobs. Values outside the range are
// pulled back to the nearest bound rather than rejected.
const (
	DefaultConcurrentScans = 5
	MinConcurrentScans     = 1
	MaxConcurrentScans     = 20

	DefaultTimeoutSeconds = 30
	MinTimeoutSeconds     = 10
	MaxTimeoutSeconds     = 300
)

// DefaultFileExtensions is the scan allow-list applied when the config file
// does not set one.
var DefaultFileExtensions = []string{
	".py", ".js", ".java", ".go", ".rb", ".php", ".ts", ".jsx", ".tsx",
	".yml", ".yaml", ".json", ".tf", ".md", ".html", ".css", ".scss",
}

// Config is the top-level configuration for repoatlas.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Scanning  ScanningConfig  `yaml:"scanning"`
	Detectors DetectorsConfig `yaml:"detectors"`
	Analyzers AnalyzersConfig `yaml:"analyzers"`
	Reporting ReportingConfig `yaml:"reporting"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ProviderConfig describes the repository content source.
type ProviderConfig struct {
	Type  string `yaml:"type"`  // "gitlab", "github", "local"
	URL   string `yaml:"url"`   // base URL for self-hosted instances; root dir for "local"
	Token string `yaml:"token"` // inline, ${ENV_VAR}, or file path
	Group string `yaml:"group"` // group/organization to inventory
}

// ScanningConfig holds the orchestrator knobs.
type ScanningConfig struct {
	ConcurrentScans int      `yaml:"concurrent_scans"`
	TimeoutSeconds  int      `yaml:"timeout_seconds"`
	FileExtensions  []string `yaml:"file_extensions"`
}

// CustomPattern defines a user-supplied detector: any file matching
// FilePattern whose content contains ContentPattern yields Name.
type CustomPattern struct {
	Name           string `yaml:"name"`
	Category       string `yaml:"category"`
	FilePattern    string `yaml:"file_pattern"`
	ContentPattern string `yaml:"content_pattern"`
}

// DetectorsConfig toggles the built-in detector categories. Nil means
// enabled; only an explicit `false` disables a detector.
type DetectorsConfig struct {
	Frontend       *bool           `yaml:"frontend"`
	Backend        *bool           `yaml:"backend"`
	Database       *bool           `yaml:"database"`
	Infrastructure *bool           `yaml:"infrastructure"`
	CICD           *bool           `yaml:"cicd"`
	CustomPatterns []CustomPattern `yaml:"custom_patterns"`
}

// AnalyzersConfig toggles the cross-repository analyzers. Nil means enabled.
type AnalyzersConfig struct {
	Connections   *bool `yaml:"connections"`
	Dependencies  *bool `yaml:"dependencies"`
	Documentation *bool `yaml:"documentation"`
}

// ReportingConfig controls report export.
type ReportingConfig struct {
	Format     string `yaml:"format"` // json, json-compact, yaml, markdown, html
	OutputFile string `yaml:"output_file"`
}

// StorageConfig controls the optional Postgres persistence of scan runs.
// Persistence is disabled when the DSN is empty.
type StorageConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment
// variables, resolving token file paths, and applying defaults and clamping.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.Provider.Token = resolveToken(cfg.Provider.Token)
	cfg.ApplyDefaults()

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields and clamps out-of-range values.
func (c *Config) ApplyDefaults() {
	if c.Provider.Type == "" {
		c.Provider.Type = "gitlab"
	}

	c.Scanning.ConcurrentScans = clamp(
		c.Scanning.ConcurrentScans, DefaultConcurrentScans,
		MinConcurrentScans, MaxConcurrentScans,
	)
	c.Scanning.TimeoutSeconds = clamp(
		c.Scanning.TimeoutSeconds, DefaultTimeoutSeconds,
		MinTimeoutSeconds, MaxTimeoutSeconds,
	)
	if len(c.Scanning.FileExtensions) == 0 {
		c.Scanning.FileExtensions = append(
			[]string(nil), DefaultFileExtensions...,
		)
	}

	if c.Reporting.Format == "" {
		c.Reporting.Format = "json"
	}
	if c.Reporting.OutputFile == "" {
		c.Reporting.OutputFile = "repoatlas-report.json"
	}
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".repoatlas.yaml",
		".repoatlas.yml",
		"repoatlas.yaml",
		"repoatlas.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Enabled interprets a tri-state toggle: nil (unset) counts as enabled.
func Enabled(flag *bool) bool {
	return flag == nil || *flag
}

func clamp(value, fallback, low, high int) int {
	if value == 0 {
		value = fallback
	}
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values. A missing or
// unresolvable target is the only configuration error that aborts a run.
func validate(cfg *Config) error {
	switch cfg.Provider.Type {
	case "gitlab", "github", "local":
	default:
		return fmt.Errorf("provider.type %q is not supported", cfg.Provider.Type)
	}

	if cfg.Provider.Type == "local" && cfg.Provider.URL == "" {
		return errors.New(
			"provider.url must point to the clone root directory for the local provider",
		)
	}

	return nil
}
