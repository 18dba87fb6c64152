package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// ListSeparator is the recommended separator for VALUES holding several numbers.
const ListSeparator = ","

// --------------------------------------------------------------------------
// String
// --------------------------------------------------------------------------

// String stores opaque text as-is.
type String string

func (s String) Serialize(sb *strings.Builder) {
	sb.WriteString(string(s))
}

func (s *String) Deserialize(str string) error {
	if ContainsReserved(str) {
		return fmt.Errorf("string value contains reserved characters: %q", str)
	}
	*s = String(str)
	return nil
}

// --------------------------------------------------------------------------
// IntList
// --------------------------------------------------------------------------

// IntList stores a list of integers as comma separated text, e.g. "4,4,1".
type IntList []int

func (l IntList) Serialize(sb *strings.Builder) {
	for i, v := range l {
		if i > 0 {
			sb.WriteString(ListSeparator)
		}
		sb.WriteString(strconv.Itoa(v))
	}
}

func (l *IntList) Deserialize(str string) error {
	if str == "" {
		return fmt.Errorf("empty int list")
	}
	parts := strings.Split(str, ListSeparator)
	out := make(IntList, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("invalid int list element %q: %w", p, err)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// Equal reports whether both lists hold the same values in the same order.
func (l IntList) Equal(other IntList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
