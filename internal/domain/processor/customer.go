package processor

import "github.com/okian/ltv/internal/domain/event"

// Processor names accepted by Build.
const (
	NameCustomer    = "customer"
	NameSiteVisit   = "site_visit"
	NameImageUpload = "image_upload"
	NameOrder       = "order"
)

// NewCustomer handles CUSTOMER NEW/UPDATE. Name and address are optional.
func NewCustomer(opts ...Option) (Processor, error) {
	return build(newBase(NameCustomer,
		[]event.Type{event.TypeCustomer},
		[]event.Verb{event.VerbNew, event.VerbUpdate},
		func(obj Object, b *event.Builder) error {
			return optionalText(obj, b, event.AttrLastName, event.AttrCity, event.AttrState)
		},
		opts))
}
