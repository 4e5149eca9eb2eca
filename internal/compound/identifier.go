package compound

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IdentifierLength is the length of the InChIKey connectivity block.
const IdentifierLength = 14

// Identifier is the first block of an InChIKey. It is the dedup key across
// every annotation source and the primary key of the store.
type Identifier string

var upper = cases.Upper(language.Und)

// ParseIdentifier accepts either a full InChIKey or an already truncated
// connectivity block and returns the normalized identifier.
func ParseIdentifier(raw string) (Identifier, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("identifier: empty value")
	}
	normalized := upper.String(trimmed)
	if len(normalized) < IdentifierLength {
		return "", fmt.Errorf("identifier %q: shorter than %d characters", raw, IdentifierLength)
	}
	block := normalized[:IdentifierLength]
	for _, r := range block {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("identifier %q: unexpected character %q", raw, r)
		}
	}
	if len(normalized) > IdentifierLength && normalized[IdentifierLength] != '-' {
		return "", fmt.Errorf("identifier %q: not an InChIKey block", raw)
	}
	return Identifier(block), nil
}

// FromInChIKey truncates a full InChIKey to its identifier. It reports false
// for values that do not carry a valid connectivity block.
func FromInChIKey(inchikey string) (Identifier, bool) {
	id, err := ParseIdentifier(inchikey)
	if err != nil {
		return "", false
	}
	return id, true
}

func (id Identifier) String() string { return string(id) }
