package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// SamplePlaceholder is replaced by the sample directory name in source
// path templates.
const SamplePlaceholder = "{sample}"

// Paths contains the sample tree and store locations.
type Paths struct {
	SampleDir string `toml:"sample_dir"`
	StoreName string `toml:"store_name"`
	LogDir    string `toml:"log_dir"`
}

// Sources lists the per-mode relative file templates for each annotation
// pipeline. Templates are resolved inside each sample directory.
type Sources struct {
	ISDB   []string `toml:"isdb"`
	Sirius []string `toml:"sirius"`
	GNPS   []string `toml:"gnps"`
}

// NPClassifier contains configuration for the structure classification
// service.
type NPClassifier struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Wikidata contains configuration for the bulk SPARQL cross-reference query.
type Wikidata struct {
	Endpoint       string `toml:"endpoint"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Canonicalizer configures the external structure canonicalization tool.
// An empty Command selects the built-in syntax check.
type Canonicalizer struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for structmeta.
//
// Configuration sections by subsystem:
//   - Paths: sample tree, store file name, optional log directory
//   - Sources: annotation table templates per pipeline and mode
//   - NPClassifier: taxonomy classification service
//   - Wikidata: knowledge-base bulk query
//   - Canonicalizer: structure canonicalization for spectral-search hits
//   - Logging: log format, level and run log retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sources       Sources       `toml:"sources"`
	NPClassifier  NPClassifier  `toml:"npclassifier"`
	Wikidata      Wikidata      `toml:"wikidata"`
	Canonicalizer Canonicalizer `toml:"canonicalizer"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("structmeta.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// StorePath returns the absolute path of the metadata store inside the
// sample directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.SampleDir, c.Paths.StoreName)
}

// NPClassifierTimeout returns the per-request classification timeout.
func (c *Config) NPClassifierTimeout() time.Duration {
	return time.Duration(c.NPClassifier.TimeoutSeconds) * time.Second
}

// WikidataTimeout returns the bulk query timeout.
func (c *Config) WikidataTimeout() time.Duration {
	return time.Duration(c.Wikidata.TimeoutSeconds) * time.Second
}

// CanonicalizerTimeout returns the per-structure canonicalization timeout.
func (c *Config) CanonicalizerTimeout() time.Duration {
	return time.Duration(c.Canonicalizer.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
