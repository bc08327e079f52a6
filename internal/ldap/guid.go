package ldap

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// Active Directory stores objectGUID in a mixed-endian layout that differs
// from the canonical UUID byte order: the first three groups are
// little-endian, the last two big-endian.

// GUIDBytesLength is the fixed binary size of an objectGUID.
const GUIDBytesLength = 16

// IsValidGUID checks if a string parses as a GUID.
func IsValidGUID(guidString string) bool {
	if guidString == "" {
		return false
	}
	_, err := uuid.Parse(strings.TrimSpace(guidString))
	return err == nil
}

// NormalizeGUID converts a GUID string to canonical lower-case hyphenated
// form.
func NormalizeGUID(guidString string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(guidString))
	if err != nil {
		return "", fmt.Errorf("invalid GUID format %q: %w", guidString, err)
	}
	return parsed.String(), nil
}

// GUIDToBytes converts a GUID string to Active Directory binary format.
func GUIDToBytes(guidString string) ([]byte, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(guidString))
	if err != nil {
		return nil, fmt.Errorf("invalid GUID format %q: %w", guidString, err)
	}

	canonical := parsed[:]
	mixed := make([]byte, GUIDBytesLength)

	// Data1 (4 bytes), Data2 (2 bytes), Data3 (2 bytes): little-endian
	mixed[0], mixed[1], mixed[2], mixed[3] = canonical[3], canonical[2], canonical[1], canonical[0]
	mixed[4], mixed[5] = canonical[5], canonical[4]
	mixed[6], mixed[7] = canonical[7], canonical[6]
	// Data4 (8 bytes): big-endian
	copy(mixed[8:], canonical[8:])

	return mixed, nil
}

// GUIDFromBytes converts Active Directory binary objectGUID data to a
// canonical GUID string.
func GUIDFromBytes(data []byte) (string, error) {
	if len(data) != GUIDBytesLength {
		return "", fmt.Errorf("invalid GUID byte length: expected %d, got %d", GUIDBytesLength, len(data))
	}

	canonical := make([]byte, GUIDBytesLength)
	canonical[0], canonical[1], canonical[2], canonical[3] = data[3], data[2], data[1], data[0]
	canonical[4], canonical[5] = data[5], data[4]
	canonical[6], canonical[7] = data[7], data[6]
	copy(canonical[8:], data[8:])

	parsed, err := uuid.FromBytes(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to build GUID from bytes: %w", err)
	}

	return parsed.String(), nil
}

// GUIDSearchFilter builds an equality filter matching an objectGUID, with
// the binary value escaped for filter use.
func GUIDSearchFilter(guidString string) (string, error) {
	guidBytes, err := GUIDToBytes(guidString)
	if err != nil {
		return "", err
	}

	var escaped strings.Builder
	escaped.Grow(len(guidBytes) * 3)
	for _, b := range guidBytes {
		fmt.Fprintf(&escaped, "\\%02x", b)
	}

	return fmt.Sprintf("(objectGUID=%s)", escaped.String()), nil
}

// ExtractGUID extracts the objectGUID from a directory entry as a canonical
// string. Falls back to a string-valued attribute for fake entries in tests.
func ExtractGUID(entry *ldap.Entry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("directory entry cannot be nil")
	}

	raw := entry.GetRawAttributeValue("objectGUID")
	if len(raw) == GUIDBytesLength {
		return GUIDFromBytes(raw)
	}

	if value := entry.GetAttributeValue("objectGUID"); IsValidGUID(value) {
		return NormalizeGUID(value)
	}

	return "", fmt.Errorf("objectGUID attribute not found in entry %s", entry.DN)
}
