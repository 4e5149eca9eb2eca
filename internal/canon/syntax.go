package canon

import (
	"context"
	"fmt"
	"strings"
)

// Syntax is the built-in canonicalizer used when no external tool is
// configured. It only rejects strings that cannot be line notation.
type Syntax struct{}

var _ Canonicalizer = Syntax{}

// Canonicalize trims raw and checks its alphabet and bracket balance.
func (Syntax) Canonicalize(_ context.Context, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "", "nan", "n/a", "na", "none", "null", " ":
		return "", fmt.Errorf("%w: missing structure %q", ErrUnparseable, raw)
	}
	var parens, brackets int
	for _, r := range trimmed {
		switch {
		case r == '(':
			parens++
		case r == ')':
			parens--
		case r == '[':
			if brackets > 0 {
				return "", fmt.Errorf("%w: nested bracket atom in %q", ErrUnparseable, raw)
			}
			brackets++
		case r == ']':
			brackets--
		case !allowed(r):
			return "", fmt.Errorf("%w: unexpected character %q in %q", ErrUnparseable, r, raw)
		}
		if parens < 0 || brackets < 0 {
			return "", fmt.Errorf("%w: unbalanced brackets in %q", ErrUnparseable, raw)
		}
	}
	if parens != 0 || brackets != 0 {
		return "", fmt.Errorf("%w: unbalanced brackets in %q", ErrUnparseable, raw)
	}
	return trimmed, nil
}

func allowed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("=#$:/\\.+-@%*~", r)
}
