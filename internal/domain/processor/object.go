package processor

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/pkg/logger"
)

// Wire field names shared by every event type.
const (
	FieldType      = "type"
	FieldVerb      = "verb"
	FieldKey       = "key"
	FieldEventTime = "event_time"
	FieldTags      = "tags"
)

// Object is one decoded JSON object from an ingest payload.
type Object map[string]any

// String returns a string field. Absent and null fields report ok=false;
// any other non-string value is rejected.
func (o Object) String(field string) (string, bool, error) {
	raw, ok := o[field]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, event.Unsupported(field, "must be a string")
	}
	return s, true, nil
}

// RequiredString is like String but also rejects absent or blank values.
func (o Object) RequiredString(field string) (string, error) {
	s, _, err := o.String(field)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", event.Unsupported(field, "cannot be empty")
	}
	return s, nil
}

// Type reads the "type" field. A missing or blank value yields the zero Type.
func (o Object) Type() (event.Type, error) {
	s, err := o.optionalIdentifier(FieldType)
	if err != nil || s == "" {
		return event.Type{}, err
	}
	return event.ParseType(s)
}

func (o Object) Verb() (event.Verb, error) {
	s, err := o.optionalIdentifier(FieldVerb)
	if err != nil || s == "" {
		return event.Verb{}, err
	}
	return event.ParseVerb(s)
}

func (o Object) Key() (event.Key, error) {
	s, err := o.optionalIdentifier(FieldKey)
	if err != nil || s == "" {
		return event.Key{}, err
	}
	return event.ParseKey(s)
}

// EventTime parses "event_time" into epoch milliseconds; ok is false when
// the field is absent or blank.
func (o Object) EventTime() (ms int64, ok bool, err error) {
	s, err := o.optionalIdentifier(FieldEventTime)
	if err != nil || s == "" {
		return 0, false, err
	}
	ms, err = event.ParseTimestamp(s)
	if err != nil {
		return 0, false, event.UnsupportedCause(FieldEventTime, err)
	}
	return ms, true, nil
}

func (o Object) optionalIdentifier(field string) (string, error) {
	s, _, err := o.String(field)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// Tags collects key/value pairs from the "tags" array. Elements that are not
// objects are skipped. When a key repeats the first value is kept.
func (o Object) Tags(ctx context.Context, txID uuid.UUID, log logger.Logger) (map[string]string, error) {
	raw, ok := o[FieldTags]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, event.Unsupported(FieldTags, "must be an array")
	}
	tags := make(map[string]string)
	for i, item := range items {
		pairs, ok := item.(map[string]any)
		if !ok {
			log.Debug(ctx, "skipping non-object tag",
				logger.String("transaction_id", txID.String()),
				logger.Int("index", i),
				logger.Any("element", item))
			continue
		}
		keys := make([]string, 0, len(pairs))
		for k := range pairs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			v, ok := pairs[k].(string)
			if !ok {
				return nil, event.Unsupported(FieldTags, "value for "+k+" must be a string")
			}
			if kept, dup := tags[k]; dup {
				log.Warn(ctx, "duplicate tag key",
					logger.String("transaction_id", txID.String()),
					logger.String("key", k),
					logger.String("kept", kept),
					logger.String("ignored", v))
				continue
			}
			tags[k] = v
		}
	}
	return tags, nil
}
