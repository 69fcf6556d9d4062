package snmp

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is a hierarchical numeric object identifier.
type OID []uint32

// ParseOID parses a dotted form like "1.3.6.1.4.1" (a leading dot is ok).
func ParseOID(s string) (OID, error) {
	s = strings.Trim(s, ".")
	if s == "" {
		return nil, fmt.Errorf("snmp: empty oid")
	}

	parts := strings.Split(s, ".")
	oid := make(OID, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("snmp: bad oid component %q: %w", p, err)
		}
		oid = append(oid, uint32(n))
	}
	return oid, nil
}

func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

func (o OID) String() string {
	sb := strings.Builder{}
	for i, n := range o {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.FormatUint(uint64(n), 10))
	}
	return sb.String()
}

// Compare orders OIDs lexicographically component by component.
// A strict prefix sorts before any longer oid it prefixes.
func (o OID) Compare(other OID) int {
	n := len(o)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if o[i] != other[i] {
			if o[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	default:
		return 0
	}
}

func (o OID) Equal(other OID) bool {
	return o.Compare(other) == 0
}
