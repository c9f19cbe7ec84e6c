package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/ltv/internal/domain/money"
)

// Attribute names shared by processors and reports.
const (
	AttrCustomerID  = "customer_id"
	AttrTotalAmount = "total_amount"
	AttrLastName    = "last_name"
	AttrCity        = "adr_city"
	AttrState       = "adr_state"
	AttrCameraMake  = "camera_make"
	AttrCameraModel = "camera_model"
)

// TimeLayout is the wire layout for event times: RFC 3339 with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Kind tags the value held by an Attribute.
type Kind uint8

// Attribute kinds. The set is closed.
const (
	KindText Kind = iota + 1
	KindMoney
	KindTimestamp
	KindInteger
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMoney:
		return "money"
	case KindTimestamp:
		return "timestamp"
	case KindInteger:
		return "integer"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Attribute is a typed event attribute value.
type Attribute struct {
	kind Kind
	text string
	mon  money.Money
	// num holds integers and timestamps (epoch milliseconds).
	num int64
}

// TextValue wraps a string.
func TextValue(v string) Attribute { return Attribute{kind: KindText, text: v} }

// MoneyValue wraps a money amount.
func MoneyValue(v money.Money) Attribute { return Attribute{kind: KindMoney, mon: v} }

// TimestampValue wraps epoch milliseconds.
func TimestampValue(ms int64) Attribute { return Attribute{kind: KindTimestamp, num: ms} }

// IntegerValue wraps an integer.
func IntegerValue(v int64) Attribute { return Attribute{kind: KindInteger, num: v} }

// Kind reports which variant a holds.
func (a Attribute) Kind() Kind { return a.kind }

// Text returns the string value when a is a text attribute.
func (a Attribute) Text() (string, bool) { return a.text, a.kind == KindText }

// Money returns the amount when a is a money attribute.
func (a Attribute) Money() (money.Money, bool) { return a.mon, a.kind == KindMoney }

// Timestamp returns the UTC time when a is a timestamp attribute.
func (a Attribute) Timestamp() (time.Time, bool) {
	if a.kind != KindTimestamp {
		return time.Time{}, false
	}
	return time.UnixMilli(a.num).UTC(), true
}

// Integer returns the value when a is an integer attribute.
func (a Attribute) Integer() (int64, bool) { return a.num, a.kind == KindInteger }

func (a Attribute) String() string {
	switch a.kind {
	case KindText:
		return a.text
	case KindMoney:
		return a.mon.String()
	case KindTimestamp:
		return time.UnixMilli(a.num).UTC().Format(TimeLayout)
	case KindInteger:
		return strconv.FormatInt(a.num, 10)
	default:
		return ""
	}
}

// MarshalJSON encodes text, money and timestamps as strings and integers as numbers.
func (a Attribute) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case KindText, KindMoney, KindTimestamp:
		return json.Marshal(a.String())
	case KindInteger:
		return []byte(strconv.FormatInt(a.num, 10)), nil
	default:
		return nil, fmt.Errorf("event: cannot marshal attribute of %s", a.kind)
	}
}
