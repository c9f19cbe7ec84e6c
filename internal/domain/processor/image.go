package processor

import "github.com/okian/ltv/internal/domain/event"

// NewImageUpload handles IMAGE UPLOAD. customer_id is required; camera
// details are optional.
func NewImageUpload(opts ...Option) (Processor, error) {
	return build(newBase(NameImageUpload,
		[]event.Type{event.TypeImage},
		[]event.Verb{event.VerbUpload},
		func(obj Object, b *event.Builder) error {
			if err := requiredText(obj, b, event.AttrCustomerID); err != nil {
				return err
			}
			return optionalText(obj, b, event.AttrCameraMake, event.AttrCameraModel)
		},
		opts))
}
