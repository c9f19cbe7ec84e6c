// Package event holds the normalized event model: identifiers, typed
// attributes, immutable records, the builder that validates them and the
// per-transaction event set.
package event

import (
	"fmt"
	"strings"
)

// Type names a kind of event. Values are trimmed and upper-cased.
type Type struct{ value string }

// Verb names the action an event represents. Values are trimmed and upper-cased.
type Verb struct{ value string }

// Key identifies a single event. Values are trimmed; case is preserved.
type Key struct{ value string }

// Well-known identifiers.
var (
	TypeCustomer  = MustType("CUSTOMER")
	TypeSiteVisit = MustType("SITE_VISIT")
	TypeImage     = MustType("IMAGE")
	TypeOrder     = MustType("ORDER")

	VerbNew    = MustVerb("NEW")
	VerbUpdate = MustVerb("UPDATE")
	VerbUpload = MustVerb("UPLOAD")
)

// ParseType normalizes raw into a Type.
func ParseType(raw string) (Type, error) {
	v, err := normalize("type", raw, true)
	return Type{v}, err
}

// ParseVerb normalizes raw into a Verb.
func ParseVerb(raw string) (Verb, error) {
	v, err := normalize("verb", raw, true)
	return Verb{v}, err
}

// ParseKey normalizes raw into a Key.
func ParseKey(raw string) (Key, error) {
	v, err := normalize("key", raw, false)
	return Key{v}, err
}

// MustType is like ParseType but panics on error.
func MustType(raw string) Type {
	t, err := ParseType(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// MustVerb is like ParseVerb but panics on error.
func MustVerb(raw string) Verb {
	v, err := ParseVerb(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// MustKey is like ParseKey but panics on error.
func MustKey(raw string) Key {
	k, err := ParseKey(raw)
	if err != nil {
		panic(err)
	}
	return k
}

func normalize(kind, raw string, upper bool) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", fmt.Errorf("%w: event %s must not be blank", ErrInvalidIdentifier, kind)
	}
	if upper {
		v = strings.ToUpper(v)
	}
	return v, nil
}

func (t Type) String() string { return t.value }
func (t Type) IsZero() bool   { return t.value == "" }

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.value), nil }

func (v Verb) String() string { return v.value }
func (v Verb) IsZero() bool   { return v.value == "" }

// MarshalText implements encoding.TextMarshaler.
func (v Verb) MarshalText() ([]byte, error) { return []byte(v.value), nil }

func (k Key) String() string { return k.value }
func (k Key) IsZero() bool   { return k.value == "" }

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) { return []byte(k.value), nil }
