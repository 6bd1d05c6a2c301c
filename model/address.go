package model

import "strings"

// Address is a 0x-prefixed, 20-byte hex account or contract address.
type Address string

// ZeroAddress doubles as the "absent" sentinel and the native-currency
// pay token.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

func (a Address) IsZero() bool {
	return a == "" || a.Normalize() == ZeroAddress
}

func (a Address) Valid() bool {
	s := string(a)
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func (a Address) Normalize() Address {
	return Address(strings.ToLower(string(a)))
}

// Equal compares addresses case-insensitively.
func (a Address) Equal(b Address) bool {
	return a.Normalize() == b.Normalize()
}
