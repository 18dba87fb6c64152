package codec

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Reserved characters of the record format
// --------------------------------------------------------------------------

const (
	// KeySeparator separates the KEY from the contents of a record line
	KeySeparator = '='
	// IDSeparator separates an ID from its VALUES
	IDSeparator = ':'
	// PairSeparator separates two ID:VALUES pairs
	PairSeparator = ';'
	// LineTerminator terminates every record line
	LineTerminator = '\n'
)

// ReservedChars holds all characters that must not occur inside a KEY, an ID
// or VALUES. There is no escaping mechanism.
const ReservedChars = "=:;\n"

// ContainsReserved reports whether s contains any reserved character.
func ContainsReserved(s string) bool {
	return strings.ContainsAny(s, ReservedChars)
}

// ValidateText returns an error naming the first reserved character found in s.
func ValidateText(s string) error {
	if i := strings.IndexAny(s, ReservedChars); i >= 0 {
		return fmt.Errorf("reserved character %q at offset %d in %q", s[i], i, s)
	}
	return nil
}

// SerializeToString runs v.Serialize on a fresh builder and returns the text.
func SerializeToString(v ISerializable) string {
	var sb strings.Builder
	v.Serialize(&sb)
	return sb.String()
}
