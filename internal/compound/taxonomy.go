package compound

import "strings"

const (
	// Unknown replaces a taxonomy level the classifier could not provide.
	Unknown = "unknown"
	// NoExternalReference marks records without a knowledge-base match and
	// fills any field still empty after the enrichment join.
	NoExternalReference = "no_wikidata_match"

	labelSeparator = "|"
)

// Taxonomy is the NPClassifier pathway/superclass/class triple. Each level is
// either a pipe-joined label list or Unknown.
type Taxonomy struct {
	Pathway    string `json:"pathway"`
	Superclass string `json:"superclass"`
	Class      string `json:"class"`
}

// UnknownTaxonomy is the terminal value for an identifier whose
// classification failed outright.
func UnknownTaxonomy() Taxonomy {
	return Taxonomy{Pathway: Unknown, Superclass: Unknown, Class: Unknown}
}

// JoinLabels joins a classifier label list. Blank labels are ignored and an
// empty list yields Unknown.
func JoinLabels(labels []string) string {
	kept := make([]string, 0, len(labels))
	for _, label := range labels {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return Unknown
	}
	return strings.Join(kept, labelSeparator)
}

// SplitLabels is the inverse of JoinLabels. Unknown yields nil.
func SplitLabels(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || value == Unknown {
		return nil
	}
	return strings.Split(value, labelSeparator)
}

// Complete fills empty levels with Unknown.
func (t Taxonomy) Complete() Taxonomy {
	return Taxonomy{
		Pathway:    orUnknown(t.Pathway),
		Superclass: orUnknown(t.Superclass),
		Class:      orUnknown(t.Class),
	}
}

// UnknownLevels counts the levels set to Unknown.
func (t Taxonomy) UnknownLevels() int {
	n := 0
	for _, level := range []string{t.Pathway, t.Superclass, t.Class} {
		if level == Unknown {
			n++
		}
	}
	return n
}

func orUnknown(value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return Unknown
}
