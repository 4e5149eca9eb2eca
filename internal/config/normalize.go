package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSources()
	c.normalizeNPClassifier()
	c.normalizeWikidata()
	c.normalizeCanonicalizer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SampleDir) == "" {
		if value, ok := os.LookupEnv(envSampleDir); ok {
			c.Paths.SampleDir = strings.TrimSpace(value)
		}
	}
	if c.Paths.SampleDir, err = expandPath(strings.TrimSpace(c.Paths.SampleDir)); err != nil {
		return fmt.Errorf("paths.sample_dir: %w", err)
	}
	c.Paths.StoreName = strings.TrimSpace(c.Paths.StoreName)
	if c.Paths.StoreName == "" {
		c.Paths.StoreName = defaultStoreName
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSources() {
	c.Sources.ISDB = cleanTemplates(c.Sources.ISDB)
	c.Sources.Sirius = cleanTemplates(c.Sources.Sirius)
	c.Sources.GNPS = cleanTemplates(c.Sources.GNPS)
}

func cleanTemplates(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func (c *Config) normalizeNPClassifier() {
	c.NPClassifier.BaseURL = strings.TrimSpace(c.NPClassifier.BaseURL)
	if c.NPClassifier.BaseURL == "" {
		if value, ok := os.LookupEnv(envNPClassifierURL); ok {
			c.NPClassifier.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.NPClassifier.BaseURL == "" {
		c.NPClassifier.BaseURL = defaultNPClassifierBaseURL
	}
	c.NPClassifier.BaseURL = strings.TrimRight(c.NPClassifier.BaseURL, "/")
	if c.NPClassifier.TimeoutSeconds <= 0 {
		c.NPClassifier.TimeoutSeconds = defaultNPClassifierTimeout
	}
}

func (c *Config) normalizeWikidata() {
	c.Wikidata.Endpoint = strings.TrimSpace(c.Wikidata.Endpoint)
	if c.Wikidata.Endpoint == "" {
		if value, ok := os.LookupEnv(envWikidataEndpoint); ok {
			c.Wikidata.Endpoint = strings.TrimSpace(value)
		}
	}
	if c.Wikidata.Endpoint == "" {
		c.Wikidata.Endpoint = defaultWikidataEndpoint
	}
	c.Wikidata.UserAgent = strings.TrimSpace(c.Wikidata.UserAgent)
	if c.Wikidata.UserAgent == "" {
		c.Wikidata.UserAgent = defaultWikidataUserAgent
	}
	if c.Wikidata.TimeoutSeconds <= 0 {
		c.Wikidata.TimeoutSeconds = defaultWikidataTimeout
	}
}

func (c *Config) normalizeCanonicalizer() {
	c.Canonicalizer.Command = strings.TrimSpace(c.Canonicalizer.Command)
	if c.Canonicalizer.Command != "" && len(c.Canonicalizer.Args) == 0 {
		c.Canonicalizer.Args = []string{defaultCanonicalizerSmilesArg, "-ocan"}
	}
	if c.Canonicalizer.TimeoutSeconds <= 0 {
		c.Canonicalizer.TimeoutSeconds = defaultCanonicalizerTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
