package event

import (
	"fmt"
	"maps"
	"time"

	"github.com/okian/ltv/internal/domain/money"
)

// Builder accumulates the parts of a Record. The zero value is not usable;
// call NewBuilder.
type Builder struct {
	typ        Type
	verb       Verb
	key        Key
	timestamp  int64
	hasTime    bool
	attributes map[string]Attribute
	tags       map[string]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		attributes: make(map[string]Attribute),
		tags:       make(map[string]string),
	}
}

func (b *Builder) WithType(t Type) *Builder { b.typ = t; return b }
func (b *Builder) WithVerb(v Verb) *Builder { b.verb = v; return b }
func (b *Builder) WithKey(k Key) *Builder   { b.key = k; return b }

// WithTimestamp sets the event time in epoch milliseconds.
func (b *Builder) WithTimestamp(ms int64) *Builder {
	b.timestamp = ms
	b.hasTime = true
	return b
}

// WithTime sets the event time from t, truncated to milliseconds.
func (b *Builder) WithTime(t time.Time) *Builder { return b.WithTimestamp(t.UnixMilli()) }

// WithAttribute stores a under name, replacing any earlier value.
func (b *Builder) WithAttribute(name string, a Attribute) *Builder {
	b.attributes[name] = a
	return b
}

func (b *Builder) WithText(name, v string) *Builder {
	return b.WithAttribute(name, TextValue(v))
}

func (b *Builder) WithMoney(name string, v money.Money) *Builder {
	return b.WithAttribute(name, MoneyValue(v))
}

func (b *Builder) WithTimestampAttribute(name string, ms int64) *Builder {
	return b.WithAttribute(name, TimestampValue(ms))
}

func (b *Builder) WithInteger(name string, v int64) *Builder {
	return b.WithAttribute(name, IntegerValue(v))
}

// WithTag sets a tag. A later call with the same key wins; empty keys are ignored.
func (b *Builder) WithTag(key, value string) *Builder {
	if key != "" {
		b.tags[key] = value
	}
	return b
}

// WithTags merges tags with the same rule as WithTag.
func (b *Builder) WithTags(tags map[string]string) *Builder {
	for k, v := range tags {
		b.WithTag(k, v)
	}
	return b
}

// Build validates required fields and returns the Record.
func (b *Builder) Build() (Record, error) {
	switch {
	case b.typ.IsZero():
		return Record{}, Unsupported("type", "missing")
	case b.verb.IsZero():
		return Record{}, Unsupported("verb", "missing")
	case b.key.IsZero():
		return Record{}, Unsupported("key", "missing")
	case !b.hasTime:
		return Record{}, Unsupported("event_time", "missing")
	}
	return Record{
		typ:        b.typ,
		verb:       b.verb,
		key:        b.key,
		timestamp:  b.timestamp,
		attributes: maps.Clone(b.attributes),
		tags:       maps.Clone(b.tags),
	}, nil
}

// ParseTimestamp reads an RFC 3339 timestamp and returns epoch milliseconds.
// Sub-millisecond precision is truncated.
func ParseTimestamp(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp %q: %v", ErrParse, s, err)
	}
	return t.UnixMilli(), nil
}
