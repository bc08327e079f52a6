package ldap

import (
	"encoding/binary"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinarySID encodes a SID the way the directory stores it: revision,
// sub-authority count, 48-bit big-endian identifier authority, then each
// sub-authority as little-endian uint32.
func buildBinarySID(revision byte, authority byte, subAuthorities ...uint32) []byte {
	data := []byte{revision, byte(len(subAuthorities)), 0, 0, 0, 0, 0, authority}
	for _, sub := range subAuthorities {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], sub)
		data = append(data, buf[:]...)
	}
	return data
}

func TestSIDToString(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name:     "domain admins style SID",
			data:     buildBinarySID(1, 5, 21, 1004336348, 1177238915, 682003330, 512),
			expected: "S-1-5-21-1004336348-1177238915-682003330-512",
		},
		{
			name:     "computer account SID",
			data:     buildBinarySID(1, 5, 21, 3623811015, 3361044348, 30300820, 1013),
			expected: "S-1-5-21-3623811015-3361044348-30300820-1013",
		},
		{
			name:     "well known local system",
			data:     buildBinarySID(1, 5, 18),
			expected: "S-1-5-18",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SIDToString(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSIDToStringEmpty(t *testing.T) {
	_, err := SIDToString(nil)
	assert.Error(t, err)
}

func TestExtractSID(t *testing.T) {
	t.Run("binary attribute", func(t *testing.T) {
		entry := ldap.NewEntry("CN=WS-001,DC=example,DC=com", nil)
		entry.Attributes = append(entry.Attributes, &ldap.EntryAttribute{
			Name:       "objectSid",
			ByteValues: [][]byte{buildBinarySID(1, 5, 21, 1, 2, 3, 1105)},
		})

		assert.Equal(t, "S-1-5-21-1-2-3-1105", ExtractSID(entry))
	})

	t.Run("string attribute", func(t *testing.T) {
		// go-ldap stores string values as bytes too, so the binary path
		// would see the text; a SID string never decodes as a valid
		// binary SID length, the string fallback handles it
		entry := &ldap.Entry{
			DN: "CN=WS-001,DC=example,DC=com",
			Attributes: []*ldap.EntryAttribute{{
				Name:   "objectSid",
				Values: []string{"S-1-5-21-1-2-3-1105"},
			}},
		}

		assert.Equal(t, "S-1-5-21-1-2-3-1105", ExtractSID(entry))
	})

	t.Run("absent attribute", func(t *testing.T) {
		entry := ldap.NewEntry("CN=WS-001,DC=example,DC=com", nil)
		assert.Empty(t, ExtractSID(entry))
	})

	t.Run("nil entry", func(t *testing.T) {
		assert.Empty(t, ExtractSID(nil))
	})
}

func TestSIDSearchFilter(t *testing.T) {
	filter, err := SIDSearchFilter("S-1-5-21-1004336348-1177238915-682003330-512")
	require.NoError(t, err)
	assert.Equal(t, "(objectSid=S-1-5-21-1004336348-1177238915-682003330-512)", filter)

	_, err = SIDSearchFilter("not-a-sid")
	assert.Error(t, err)

	_, err = SIDSearchFilter("")
	assert.Error(t, err)
}
