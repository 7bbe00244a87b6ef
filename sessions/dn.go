package sessions

import (
	"strings"

	"github.com/pkg/errors"
)

// StandardizeDN normalizes a distinguished name to the canonical form
// used both for authorization set membership and for embedding into
// query filters: RDNs joined by a bare comma, no whitespace around
// the separator or the equals sign, attribute types upper cased.
//
// Subject equality everywhere in this repository assumes both sides
// went through here.
func StandardizeDN(dn string) (string, error) {
	rdns, err := splitDN(dn)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(rdns))
	for _, rdn := range rdns {
		idx := strings.Index(rdn, "=")
		if idx < 1 {
			return "", errors.Errorf(
				"malformed RDN %q in DN %q", rdn, dn)
		}

		attr := strings.ToUpper(strings.TrimSpace(rdn[:idx]))
		value := strings.TrimSpace(rdn[idx+1:])
		if attr == "" || value == "" {
			return "", errors.Errorf(
				"malformed RDN %q in DN %q", rdn, dn)
		}

		parts = append(parts, attr+"="+value)
	}

	return strings.Join(parts, ","), nil
}

// splitDN splits on unescaped commas. Backslash escapes the next
// character per RFC 4514, so "CN=Doe\, Jane,O=X" is two RDNs.
func splitDN(dn string) ([]string, error) {
	if strings.TrimSpace(dn) == "" {
		return nil, errors.New("empty DN")
	}

	var result []string
	var current strings.Builder
	escaped := false

	for _, c := range dn {
		switch {
		case escaped:
			current.WriteRune('\\')
			current.WriteRune(c)
			escaped = false

		case c == '\\':
			escaped = true

		case c == ',':
			result = append(result, current.String())
			current.Reset()

		default:
			current.WriteRune(c)
		}
	}

	if escaped {
		return nil, errors.Errorf("trailing escape in DN %q", dn)
	}

	result = append(result, current.String())
	return result, nil
}
