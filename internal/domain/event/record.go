package event

import (
	"encoding/json"
	"maps"
	"time"
)

// Record is an immutable, validated event. Build one with Builder.
type Record struct {
	typ        Type
	verb       Verb
	key        Key
	timestamp  int64
	attributes map[string]Attribute
	tags       map[string]string
}

func (r Record) Type() Type { return r.typ }
func (r Record) Verb() Verb { return r.verb }
func (r Record) Key() Key   { return r.key }

// Timestamp returns the event time in epoch milliseconds (UTC).
func (r Record) Timestamp() int64 { return r.timestamp }

// Time returns the event time as a UTC time.Time.
func (r Record) Time() time.Time { return time.UnixMilli(r.timestamp).UTC() }

// Attribute looks up a single attribute.
func (r Record) Attribute(name string) (Attribute, bool) {
	a, ok := r.attributes[name]
	return a, ok
}

// TextAttribute returns a text attribute's value.
func (r Record) TextAttribute(name string) (string, bool) {
	a, ok := r.attributes[name]
	if !ok {
		return "", false
	}
	return a.Text()
}

// Attributes returns a copy of all attributes.
func (r Record) Attributes() map[string]Attribute { return maps.Clone(r.attributes) }

// Tag looks up a single tag.
func (r Record) Tag(key string) (string, bool) {
	v, ok := r.tags[key]
	return v, ok
}

// Tags returns a copy of all tags.
func (r Record) Tags() map[string]string { return maps.Clone(r.tags) }

type recordJSON struct {
	Type       Type                 `json:"type"`
	Verb       Verb                 `json:"verb"`
	Key        Key                  `json:"key"`
	Timestamp  int64                `json:"timestamp"`
	EventTime  string               `json:"event_time"`
	Attributes map[string]Attribute `json:"attributes,omitempty"`
	Tags       map[string]string    `json:"tags,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Type:       r.typ,
		Verb:       r.verb,
		Key:        r.key,
		Timestamp:  r.timestamp,
		EventTime:  r.Time().Format(TimeLayout),
		Attributes: r.attributes,
		Tags:       r.tags,
	})
}
