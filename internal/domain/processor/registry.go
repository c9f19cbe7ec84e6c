package processor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/pkg/logger"
)

// Registry maps each event type to exactly one Processor. It is built once
// and never modified, so concurrent lookups need no locking.
type Registry struct {
	byType map[event.Type]Processor
	log    logger.Logger
}

// NewRegistry registers every type each processor declares. A type claimed
// twice fails with ErrConfiguration.
func NewRegistry(ctx context.Context, processors []Processor, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{byType: make(map[event.Type]Processor)}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("registry")
	}
	for _, p := range processors {
		if p == nil {
			return nil, fmt.Errorf("%w: nil processor", ErrConfiguration)
		}
		for _, t := range p.SupportedTypes() {
			if prev, ok := r.byType[t]; ok {
				return nil, fmt.Errorf("%w: type %s registered by both %s and %s",
					ErrConfiguration, t, prev.Name(), p.Name())
			}
			r.byType[t] = p
			r.log.Info(ctx, "registered processor",
				logger.String("type", t.String()),
				logger.String("processor", p.Name()))
		}
	}
	return r, nil
}

// Find returns the processor registered for t.
func (r *Registry) Find(t event.Type) (Processor, bool) {
	p, ok := r.byType[t]
	return p, ok
}

// Types lists the registered types in lexical order.
func (r *Registry) Types() []event.Type {
	types := make([]event.Type, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b event.Type) int { return strings.Compare(a.String(), b.String()) })
	return types
}

func (r *Registry) Len() int { return len(r.byType) }

var constructors = map[string]func(...Option) (Processor, error){
	NameCustomer:    NewCustomer,
	NameSiteVisit:   NewSiteVisit,
	NameImageUpload: NewImageUpload,
	NameOrder:       NewOrder,
}

// Names lists the processor names Build accepts, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Build constructs the named processors in order. An empty list builds all of them.
func Build(names []string, opts ...Option) ([]Processor, error) {
	if len(names) == 0 {
		names = Names()
	}
	out := make([]Processor, 0, len(names))
	for _, n := range names {
		ctor, ok := constructors[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown processor %q", ErrConfiguration, n)
		}
		p, err := ctor(opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
