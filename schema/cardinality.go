package schema

import "strings"

// Cardinality describes how many records on each side of a link relate.
type Cardinality int

const (
	// Associated is used for any cardinality that could not be recognized.
	Associated Cardinality = iota
	OneToOne
	OneToMany
	ManyToOne
	ManyToMany
)

// String returns the canonical hyphenated name of a Cardinality.
func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "one-to-one"
	case OneToMany:
		return "one-to-many"
	case ManyToOne:
		return "many-to-one"
	case ManyToMany:
		return "many-to-many"
	default:
		return "associated"
	}
}

// Inverse returns the cardinality seen from the other end of the link.
func (c Cardinality) Inverse() Cardinality {
	switch c {
	case OneToMany:
		return ManyToOne
	case ManyToOne:
		return OneToMany
	default:
		return c
	}
}

// Known reports whether c is one of the four recognized cardinalities.
func (c Cardinality) Known() bool {
	return c >= OneToOne && c <= ManyToMany
}

// ParseCardinality accepts the hyphenated form ("one-to-many"), the camel
// case form used by the dashboard ("oneToMany"), snake case and the short
// "1:N" notation. Anything else maps to Associated.
func ParseCardinality(s string) Cardinality {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)

	switch key {
	case "onetoone", "1:1":
		return OneToOne
	case "onetomany", "1:n", "1:*":
		return OneToMany
	case "manytoone", "n:1", "*:1":
		return ManyToOne
	case "manytomany", "n:n", "n:m", "*:*":
		return ManyToMany
	default:
		return Associated
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Cardinality) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails:
// unrecognized values become Associated.
func (c *Cardinality) UnmarshalText(text []byte) error {
	*c = ParseCardinality(string(text))
	return nil
}
