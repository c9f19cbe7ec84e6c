// Package processor adapts decoded ingest objects into event records. Each
// Processor handles a fixed set of event types and verbs; a Registry routes
// objects to the processor for their type.
package processor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/pkg/logger"
)

// Processor turns a raw object into a validated event.Record.
type Processor interface {
	Name() string
	SupportedTypes() []event.Type
	SupportedVerbs() []event.Verb
	// Adapt returns an error matching event.ErrUnsupportedEvent when obj
	// cannot be represented as an event.
	Adapt(ctx context.Context, txID uuid.UUID, obj Object) (event.Record, error)
}

// AttributeFunc copies type-specific attributes from obj into b.
type AttributeFunc func(obj Object, b *event.Builder) error

// New returns a processor for the given types and verbs that runs attrs
// after the shared fields are extracted. attrs may be nil.
func New(name string, types []event.Type, verbs []event.Verb, attrs AttributeFunc, opts ...Option) (Processor, error) {
	return build(newBase(name, types, verbs, attrs, opts))
}

// base implements the adapt algorithm shared by every processor.
type base struct {
	name       string
	types      []event.Type
	verbs      []event.Verb
	attributes AttributeFunc
	log        logger.Logger
}

func newBase(name string, types []event.Type, verbs []event.Verb, attrs AttributeFunc, opts []Option) (*base, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: %s declares no supported types", ErrConfiguration, name)
	}
	if len(verbs) == 0 {
		return nil, fmt.Errorf("%w: %s declares no supported verbs", ErrConfiguration, name)
	}
	s := applyOptions(name, opts)
	return &base{
		name:       name,
		types:      slices.Clone(types),
		verbs:      slices.Clone(verbs),
		attributes: attrs,
		log:        s.log,
	}, nil
}

func (p *base) Name() string                 { return p.name }
func (p *base) SupportedTypes() []event.Type { return slices.Clone(p.types) }
func (p *base) SupportedVerbs() []event.Verb { return slices.Clone(p.verbs) }

func (p *base) Adapt(ctx context.Context, txID uuid.UUID, obj Object) (event.Record, error) {
	verb, err := obj.Verb()
	if err != nil {
		return event.Record{}, err
	}
	typ, err := obj.Type()
	if err != nil {
		return event.Record{}, err
	}
	key, err := obj.Key()
	if err != nil {
		return event.Record{}, err
	}
	ts, hasTime, err := obj.EventTime()
	if err != nil {
		return event.Record{}, err
	}
	tags, err := obj.Tags(ctx, txID, p.log)
	if err != nil {
		return event.Record{}, err
	}

	if verb.IsZero() {
		return event.Record{}, event.Unsupported(FieldVerb, "missing")
	}
	if !slices.Contains(p.verbs, verb) {
		return event.Record{}, event.Unsupported(FieldVerb,
			fmt.Sprintf("%s not supported for %s", verb, typ))
	}
	if !typ.IsZero() && !slices.Contains(p.types, typ) {
		return event.Record{}, event.Unsupported(FieldType,
			fmt.Sprintf("%s not handled by %s", typ, p.name))
	}

	b := event.NewBuilder().
		WithType(typ).
		WithVerb(verb).
		WithKey(key).
		WithTags(tags)
	if hasTime {
		b.WithTimestamp(ts)
	}
	if p.attributes != nil {
		if err := p.attributes(obj, b); err != nil {
			return event.Record{}, err
		}
	}
	return b.Build()
}

// optionalText copies each present string field into b as a text attribute.
func optionalText(obj Object, b *event.Builder, fields ...string) error {
	for _, f := range fields {
		v, ok, err := obj.String(f)
		if err != nil {
			return err
		}
		if ok {
			b.WithText(f, v)
		}
	}
	return nil
}

// requiredText copies each field into b trimmed, failing when one is absent
// or blank. Required fields are identifiers such as customer_id, so " c1 "
// and "c1" name the same customer.
func requiredText(obj Object, b *event.Builder, fields ...string) error {
	for _, f := range fields {
		v, err := obj.RequiredString(f)
		if err != nil {
			return err
		}
		b.WithText(f, strings.TrimSpace(v))
	}
	return nil
}

// build keeps a failed constructor from returning a non-nil Processor.
func build(p *base, err error) (Processor, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
