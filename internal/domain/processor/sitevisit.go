package processor

import "github.com/okian/ltv/internal/domain/event"

// NewSiteVisit handles SITE_VISIT NEW and requires customer_id.
func NewSiteVisit(opts ...Option) (Processor, error) {
	return build(newBase(NameSiteVisit,
		[]event.Type{event.TypeSiteVisit},
		[]event.Verb{event.VerbNew},
		func(obj Object, b *event.Builder) error {
			return requiredText(obj, b, event.AttrCustomerID)
		},
		opts))
}
