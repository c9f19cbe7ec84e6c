package processor

import (
	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/money"
)

// NewOrder handles ORDER NEW/UPDATE. customer_id and a total_amount in
// "<CODE> <amount>" form are required.
func NewOrder(opts ...Option) (Processor, error) {
	return build(newBase(NameOrder,
		[]event.Type{event.TypeOrder},
		[]event.Verb{event.VerbNew, event.VerbUpdate},
		orderAttributes,
		opts))
}

func orderAttributes(obj Object, b *event.Builder) error {
	if err := requiredText(obj, b, event.AttrCustomerID); err != nil {
		return err
	}
	raw, err := obj.RequiredString(event.AttrTotalAmount)
	if err != nil {
		return err
	}
	total, err := money.Parse(raw)
	if err != nil {
		return event.UnsupportedCause(event.AttrTotalAmount, err)
	}
	b.WithMoney(event.AttrTotalAmount, total)
	return nil
}
