package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := validateHTTPURL("npclassifier.base_url", c.NPClassifier.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("wikidata.endpoint", c.Wikidata.Endpoint); err != nil {
		return err
	}
	if err := c.validateCanonicalizer(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"npclassifier.timeout_seconds":  c.NPClassifier.TimeoutSeconds,
		"wikidata.timeout_seconds":      c.Wikidata.TimeoutSeconds,
		"canonicalizer.timeout_seconds": c.Canonicalizer.TimeoutSeconds,
	})
}

// RequireSampleDir reports a usable error when no sample directory was
// configured. Only the commands that touch the store need one.
func (c *Config) RequireSampleDir() error {
	if strings.TrimSpace(c.Paths.SampleDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.sample_dir is required. Pass --sample-dir, set %s, or edit %s (create with 'structmeta config init')", envSampleDir, defaultPath)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.ContainsAny(c.Paths.StoreName, `/\`) {
		return errors.New("paths.store_name must be a file name, not a path")
	}
	return nil
}

func (c *Config) validateSources() error {
	total := 0
	for name, templates := range map[string][]string{
		"sources.isdb":   c.Sources.ISDB,
		"sources.sirius": c.Sources.Sirius,
		"sources.gnps":   c.Sources.GNPS,
	} {
		for _, tmpl := range templates {
			if strings.HasPrefix(tmpl, "/") || strings.Contains(tmpl, "..") {
				return fmt.Errorf("%s: template %q must be relative to the sample directory", name, tmpl)
			}
		}
		total += len(templates)
	}
	if total == 0 {
		return errors.New("sources: at least one annotation file template must be configured")
	}
	return nil
}

func (c *Config) validateCanonicalizer() error {
	if c.Canonicalizer.Command == "" {
		return nil
	}
	for _, arg := range c.Canonicalizer.Args {
		if strings.Contains(arg, SmilesPlaceholder) {
			return nil
		}
	}
	return fmt.Errorf("canonicalizer.args must contain the %s placeholder", SmilesPlaceholder)
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: unsupported scheme %q", key, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: missing host", key)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
