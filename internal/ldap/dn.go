package ldap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// IdentifierType represents the detected format of a work-item identifier.
type IdentifierType int

const (
	IdentifierTypeUnknown IdentifierType = iota
	IdentifierTypeDN                     // Distinguished Name
	IdentifierTypeGUID                   // objectGUID
	IdentifierTypeSID                    // objectSid
	IdentifierTypeName                   // sAMAccountName / CN
)

// String returns the string representation of the identifier type.
func (i IdentifierType) String() string {
	switch i {
	case IdentifierTypeDN:
		return "DN"
	case IdentifierTypeGUID:
		return "GUID"
	case IdentifierTypeSID:
		return "SID"
	case IdentifierTypeName:
		return "name"
	default:
		return "unknown"
	}
}

// Identifier format patterns.
var (
	// DN format: CN=Device,OU=Workstations,DC=example,DC=com
	dnRegex = regexp.MustCompile(`^(?i)(CN|OU|DC|O|C|L|ST)=.+`)

	// SID format: S-1-5-21-domain-rid
	sidRegex = regexp.MustCompile(`^S-1-\d+(-\d+)*$`)
)

// DetectIdentifierType analyzes an identifier string and determines its
// format. Plain names are the least specific case and match last.
func DetectIdentifierType(identifier string) IdentifierType {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return IdentifierTypeUnknown
	}

	if dnRegex.MatchString(identifier) {
		return IdentifierTypeDN
	}

	if IsValidGUID(identifier) {
		return IdentifierTypeGUID
	}

	if sidRegex.MatchString(identifier) {
		return IdentifierTypeSID
	}

	if !strings.ContainsAny(identifier, "=,\\") {
		return IdentifierTypeName
	}

	return IdentifierTypeUnknown
}

// ParentDN returns the parent container of a DN, or "" for a single-RDN DN.
func ParentDN(dn string) (string, error) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}

	if len(parsed.RDNs) <= 1 {
		return "", nil
	}

	parent := &ldap.DN{RDNs: parsed.RDNs[1:]}
	return parent.String(), nil
}

// LeafRDN returns the first RDN of a DN (e.g. "CN=WS042" for
// "CN=WS042,OU=Workstations,DC=example,DC=com").
func LeafRDN(dn string) (string, error) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}

	if len(parsed.RDNs) == 0 {
		return "", fmt.Errorf("DN has no components: %s", dn)
	}

	rdn := &ldap.DN{RDNs: parsed.RDNs[:1]}
	return rdn.String(), nil
}

// SameDN reports whether two DNs are equal ignoring case and insignificant
// whitespace.
func SameDN(a, b string) bool {
	parsedA, errA := ldap.ParseDN(a)
	parsedB, errB := ldap.ParseDN(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return parsedA.EqualFold(parsedB)
}

// EscapeFilterValue escapes a value for use inside an LDAP search filter.
func EscapeFilterValue(value string) string {
	return ldap.EscapeFilter(value)
}
