// Package ingest turns raw JSON payloads into ordered event records.
//
// A payload is either one object or an array of objects. Every item is
// adapted independently: a bad item becomes a Rejection and never stops the
// rest of the batch.
package ingest

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/processor"
	"github.com/okian/ltv/pkg/logger"
	"github.com/okian/ltv/pkg/metrics"
)

// Finder resolves the processor for an event type.
type Finder interface {
	Find(t event.Type) (processor.Processor, bool)
}

// RejectionKind classifies why an item was dropped.
type RejectionKind string

const (
	// KindUnsupported covers unknown types, unsupported verbs and bad attributes.
	KindUnsupported RejectionKind = "unsupported"
	// KindParse covers malformed JSON and items that are not objects.
	KindParse RejectionKind = "parse"
)

// PayloadIndex is the Rejection index used when the whole payload failed to decode.
const PayloadIndex = -1

// Rejection describes one dropped item.
type Rejection struct {
	Index int
	Kind  RejectionKind
	Field string
	Err   error
}

// Result is the outcome of parsing one payload.
type Result struct {
	// Events are ordered by timestamp; equal timestamps keep payload order.
	Events     []event.Record
	Rejections []Rejection
	// Items is the number of top-level items seen in the payload.
	Items int
}

// Pipeline parses payloads and routes each item to its processor.
type Pipeline struct {
	finder Finder
	log    logger.Logger
}

// New returns a Pipeline that routes items through finder.
func New(finder Finder, opts ...Option) *Pipeline {
	p := &Pipeline{finder: finder}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named("ingest")
	}
	return p
}

// Parse decodes raw and adapts every item. A blank payload yields an empty Result.
func (p *Pipeline) Parse(ctx context.Context, txID uuid.UUID, raw []byte) Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Result{}
	}
	start := time.Now()
	tx := logger.String("transaction_id", txID.String())
	metrics.RecordPayload(len(raw))
	p.log.Debug(ctx, "payload received", tx, logger.String("payload", string(raw)))

	var res Result
	items, err := decode(trimmed)
	if err != nil {
		res.reject(PayloadIndex, KindParse, err)
	}
	res.Items = len(items)
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			res.reject(i, KindParse, fmt.Errorf("expected object, found %s", jsonKind(item)))
			continue
		}
		rec, err := p.adapt(ctx, txID, processor.Object(obj))
		if err != nil {
			res.reject(i, kindOf(err), err)
			continue
		}
		res.Events = append(res.Events, rec)
	}

	slices.SortStableFunc(res.Events, func(a, b event.Record) int {
		return cmp.Compare(a.Timestamp(), b.Timestamp())
	})

	for _, r := range res.Rejections {
		metrics.RecordEventRejected(string(r.Kind))
		p.log.Warn(ctx, "item rejected", tx,
			logger.Int("index", r.Index),
			logger.String("kind", string(r.Kind)),
			logger.String("field", r.Field),
			logger.Error(r.Err))
	}
	for _, e := range res.Events {
		metrics.RecordEventIngested(e.Type().String())
	}
	elapsed := time.Since(start)
	metrics.RecordIngestLatency(float64(elapsed.Microseconds()) / 1000)
	p.log.Info(ctx, "payload parsed", tx,
		logger.Int("items", res.Items),
		logger.Int("events", len(res.Events)),
		logger.Int("rejected", len(res.Rejections)),
		logger.Duration("elapsed", elapsed))
	return res
}

// ParseEvents is Parse without the rejection detail.
func (p *Pipeline) ParseEvents(ctx context.Context, txID uuid.UUID, raw []byte) []event.Record {
	return p.Parse(ctx, txID, raw).Events
}

// Process appends events to set in the order given. It does not re-sort.
func (p *Pipeline) Process(events []event.Record, set *event.Set) error {
	return set.Append(events...)
}

// Collect parses raw into a fresh sealed Set and also returns the Result.
func (p *Pipeline) Collect(ctx context.Context, txID uuid.UUID, raw []byte) (*event.Set, Result) {
	set := event.NewSet(txID)
	res := p.Parse(ctx, txID, raw)
	// A new set is never sealed before this point.
	_ = p.Process(res.Events, set)
	set.Seal()
	return set, res
}

// Ingest parses raw into a fresh sealed Set.
func (p *Pipeline) Ingest(ctx context.Context, txID uuid.UUID, raw []byte) *event.Set {
	set, _ := p.Collect(ctx, txID, raw)
	return set
}

func (p *Pipeline) adapt(ctx context.Context, txID uuid.UUID, obj processor.Object) (rec event.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = event.Record{}, event.UnsupportedCause("", fmt.Errorf("processor panic: %v", r))
		}
	}()
	typ, err := obj.Type()
	if err != nil {
		return event.Record{}, err
	}
	if typ.IsZero() {
		return event.Record{}, event.Unsupported(processor.FieldType, "missing")
	}
	proc, ok := p.finder.Find(typ)
	if !ok {
		return event.Record{}, event.Unsupported(processor.FieldType, "no processor found for "+typ.String())
	}
	rec, err = proc.Adapt(ctx, txID, obj)
	if err != nil && !errors.Is(err, event.ErrUnsupportedEvent) {
		err = event.UnsupportedCause("", err)
	}
	return rec, err
}

func (r *Result) reject(index int, kind RejectionKind, err error) {
	r.Rejections = append(r.Rejections, Rejection{
		Index: index,
		Kind:  kind,
		Field: event.FieldOf(err),
		Err:   err,
	})
}

func kindOf(err error) RejectionKind {
	if errors.Is(err, event.ErrParse) && !errors.Is(err, event.ErrUnsupportedEvent) {
		return KindParse
	}
	return KindUnsupported
}

// decode reads an array or a single value. A single value is returned as a
// one-item slice.
func decode(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var items []any
	if data[0] == '[' {
		if err := dec.Decode(&items); err != nil {
			return nil, parseError(dec, err)
		}
	} else {
		var item any
		if err := dec.Decode(&item); err != nil {
			return nil, parseError(dec, err)
		}
		items = []any{item}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &event.ParseError{Offset: dec.InputOffset(), Err: errors.New("unexpected data after payload")}
	}
	return items, nil
}

func parseError(dec *json.Decoder, err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return &event.ParseError{Offset: syn.Offset, Err: err}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &event.ParseError{Offset: dec.InputOffset(), Err: err}
	}
	return &event.ParseError{Offset: -1, Err: err}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
