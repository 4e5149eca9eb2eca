package config

const (
	defaultConfigPath             = "~/.config/structmeta/config.toml"
	defaultStoreName              = "structures_metadata.db"
	defaultNPClassifierBaseURL    = "https://npclassifier.ucsd.edu"
	defaultNPClassifierTimeout    = 30
	defaultWikidataEndpoint       = "https://query.wikidata.org/sparql"
	defaultWikidataUserAgent      = "structmeta/dev (metabolomics metadata resolver)"
	defaultWikidataTimeout        = 600
	defaultCanonicalizerTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	envSampleDir                  = "STRUCTMETA_SAMPLE_DIR"
	envNPClassifierURL            = "NPCLASSIFIER_URL"
	envWikidataEndpoint           = "WIKIDATA_SPARQL_URL"
	defaultCanonicalizerSmilesArg = "-:{smiles}"
)

// SmilesPlaceholder is replaced by the raw structure string in canonicalizer
// arguments.
const SmilesPlaceholder = "{smiles}"

func defaultISDBTemplates() []string {
	return []string{
		"{sample}_isdb_matched_pos_repond_flat.tsv",
		"{sample}_isdb_matched_neg_repond_flat.tsv",
	}
}

func defaultSiriusTemplates() []string {
	return []string{
		"{sample}_WORKSPACE_SIRIUS/compound_identifications.tsv",
		"{sample}_WORKSPACE_SIRIUS_neg/compound_identifications.tsv",
	}
}

func defaultGNPSTemplates() []string {
	return []string{
		"{sample}_gnps_library_hits_pos.tsv",
		"{sample}_gnps_library_hits_neg.tsv",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StoreName: defaultStoreName,
		},
		Sources: Sources{
			ISDB:   defaultISDBTemplates(),
			Sirius: defaultSiriusTemplates(),
			GNPS:   defaultGNPSTemplates(),
		},
		NPClassifier: NPClassifier{
			BaseURL:        defaultNPClassifierBaseURL,
			TimeoutSeconds: defaultNPClassifierTimeout,
		},
		Wikidata: Wikidata{
			Endpoint:       defaultWikidataEndpoint,
			UserAgent:      defaultWikidataUserAgent,
			TimeoutSeconds: defaultWikidataTimeout,
		},
		Canonicalizer: Canonicalizer{
			TimeoutSeconds: defaultCanonicalizerTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
