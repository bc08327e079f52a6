package ldap

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
)

// Active Directory stores objectSid as binary data that needs conversion to
// the S-1-5-21-... string form.

// SIDToString converts a binary SID to its string representation.
func SIDToString(binarySID []byte) (string, error) {
	if len(binarySID) == 0 {
		return "", fmt.Errorf("binary SID cannot be empty")
	}

	sid := objectsid.Decode(binarySID)
	return sid.String(), nil
}

// ExtractSID extracts the objectSid from a directory entry as a string.
// Returns "" when the attribute is absent or malformed. Handles both binary
// SID data (from a real directory) and string SID data (fake test entries).
func ExtractSID(entry *ldap.Entry) string {
	if entry == nil {
		return ""
	}

	raw := entry.GetRawAttributeValue("objectSid")
	if len(raw) > 0 {
		sid, err := SIDToString(raw)
		if err != nil {
			return ""
		}
		return sid
	}

	if value := entry.GetAttributeValue("objectSid"); sidRegex.MatchString(value) {
		return value
	}

	return ""
}

// SIDSearchFilter builds an equality filter matching an objectSid string.
// AD accepts the string SID form in filters.
func SIDSearchFilter(sidString string) (string, error) {
	if !sidRegex.MatchString(sidString) {
		return "", fmt.Errorf("invalid SID format: %s", sidString)
	}

	return fmt.Sprintf("(objectSid=%s)", EscapeFilterValue(sidString)), nil
}
