package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// StringArray stores a list of opaque identifiers as a Postgres array literal.
// Elements must not contain commas or braces.
type StringArray []string

func (a *StringArray) Scan(src any) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return a.parseFromString(v)
	case []byte:
		return a.parseFromString(string(v))
	default:
		return fmt.Errorf("StringArray: unsupported Scan type %T", src)
	}
}

func (a StringArray) Value() (driver.Value, error) {
	// Postgres array literal: {a,b}
	if len(a) == 0 {
		return "{}", nil
	}
	for _, id := range a {
		if strings.ContainsAny(id, ",{}") {
			return nil, fmt.Errorf("StringArray: element %q contains a reserved character", id)
		}
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Contains reports whether id is already present.
func (a StringArray) Contains(id string) bool {
	for _, existing := range a {
		if existing == id {
			return true
		}
	}
	return false
}

func (a *StringArray) parseFromString(s string) error {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if strings.TrimSpace(s) == "" {
		*a = StringArray{}
		return nil
	}

	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.Trim(strings.TrimSpace(r), `"`))
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	*a = StringArray(out)
	return nil
}
