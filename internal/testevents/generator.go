// Package testevents generates synthetic ingest payloads and submits them to
// a running server.
package testevents

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ltv/internal/domain/event"
)

// Defaults for Config fields left zero.
const (
	DefaultEvents    = 1000
	DefaultCustomers = 50
	DefaultWeeks     = 12
)

// Share of generated activity per event type, in percent.
const (
	visitShare = 60
	orderShare = 25
)

const maxOrderCents = 50000

var cities = [...]struct{ city, state string }{
	{"Middletown", "AK"},
	{"Springfield", "IL"},
	{"Portland", "OR"},
	{"Austin", "TX"},
}

var cameras = [...]struct{ make, model string }{
	{"Canon", "EOS 80D"},
	{"Nikon", "D750"},
	{"Sony", "A7 III"},
}

// Config controls a generated payload.
type Config struct {
	// Events is the number of SITE_VISIT, IMAGE and ORDER events.
	Events int
	// Customers is the number of CUSTOMER events; activity is spread over them.
	Customers int
	// Weeks is the span of activity starting at Start.
	Weeks int
	// Seed makes output reproducible.
	Seed  uint64
	Start time.Time
}

func (c Config) withDefaults() Config {
	if c.Events <= 0 {
		c.Events = DefaultEvents
	}
	if c.Customers <= 0 {
		c.Customers = DefaultCustomers
	}
	if c.Weeks <= 0 {
		c.Weeks = DefaultWeeks
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return c
}

// Object is one wire-format event.
type Object map[string]any

// Generate returns cfg.Customers CUSTOMER events followed by cfg.Events
// activity events. The same Config always yields the same objects.
func Generate(cfg Config) []Object {
	cfg = cfg.withDefaults()
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	span := int64(cfg.Weeks) * int64(7*24*time.Hour/time.Millisecond)
	key := func(kind string, i int) string {
		return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s-%d-%d", kind, cfg.Seed, i)).String()
	}
	at := func() string {
		return cfg.Start.Add(time.Duration(r.Int64N(span)) * time.Millisecond).UTC().Format(event.TimeLayout)
	}

	out := make([]Object, 0, cfg.Customers+cfg.Events)
	customers := make([]string, cfg.Customers)
	for i := range customers {
		customers[i] = key("customer", i)
		addr := cities[r.IntN(len(cities))]
		out = append(out, Object{
			"type":             event.TypeCustomer.String(),
			"verb":             event.VerbNew.String(),
			"key":              customers[i],
			"event_time":       cfg.Start.Format(event.TimeLayout),
			event.AttrLastName: fmt.Sprintf("Customer%d", i),
			event.AttrCity:     addr.city,
			event.AttrState:    addr.state,
		})
	}

	for i := range cfg.Events {
		customer := customers[r.IntN(len(customers))]
		obj := Object{
			"key":                key("event", i),
			"event_time":         at(),
			event.AttrCustomerID: customer,
		}
		switch n := r.IntN(100); {
		case n < visitShare:
			obj["type"] = event.TypeSiteVisit.String()
			obj["verb"] = event.VerbNew.String()
			obj["tags"] = []any{map[string]any{"channel": channel(r)}}
		case n < visitShare+orderShare:
			cents := 1 + r.IntN(maxOrderCents)
			obj["type"] = event.TypeOrder.String()
			obj["verb"] = event.VerbNew.String()
			obj[event.AttrTotalAmount] = fmt.Sprintf("USD %d.%02d", cents/100, cents%100)
		default:
			cam := cameras[r.IntN(len(cameras))]
			obj["type"] = event.TypeImage.String()
			obj["verb"] = event.VerbUpload.String()
			obj[event.AttrCameraMake] = cam.make
			obj[event.AttrCameraModel] = cam.model
		}
		out = append(out, obj)
	}
	return out
}

// Payload is Generate encoded as a JSON array.
func Payload(cfg Config) ([]byte, error) {
	raw, err := json.Marshal(Generate(cfg))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

func channel(r *rand.Rand) string {
	if r.IntN(2) == 0 {
		return "web"
	}
	return "mobile"
}
