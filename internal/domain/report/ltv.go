// Package report computes the simple customer lifetime value report:
//
//	ltv = (spend per visit) * (visits per week) * weeksPerYear * lifespanYears
//
// over the ORDER and SITE_VISIT events of one event set.
package report

import (
	"context"
	"errors"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/money"
	"github.com/okian/ltv/pkg/logger"
	"github.com/okian/ltv/pkg/metrics"
)

const (
	defaultLifespanYears = 10
	defaultWeeksPerYear  = 52

	weekMillis = int64(7 * 24 * time.Hour / time.Millisecond)
)

// Reasons a customer is left out of a report.
const (
	ReasonNoOrders      = "no_orders"
	ReasonNoVisits      = "no_visits"
	ReasonMixedCurrency = "mixed_currency"
	ReasonOverflow      = "overflow"
	ReasonInvalidOrder  = "invalid_order"
)

// Source supplies the events to report on. *event.Set satisfies it.
type Source interface {
	Events() []event.Record
}

// Entry is one customer's LTV and the figures it was derived from.
type Entry struct {
	CustomerID    string
	LTV           money.Money
	Visits        int
	Orders        int
	Weeks         int64
	TotalSpent    money.Money
	AvgPerVisit   money.Money
	VisitsPerWeek float64
}

// LTVReporter ranks customers by estimated lifetime value.
type LTVReporter struct {
	lifespanYears int64
	weeksPerYear  int64
	log           logger.Logger
}

// NewLTVReporter returns a reporter using a 10 year lifespan and 52 weeks per year
// unless overridden.
func NewLTVReporter(opts ...Option) *LTVReporter {
	r := &LTVReporter{
		lifespanYears: defaultLifespanYears,
		weeksPerYear:  defaultWeeksPerYear,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("report")
	}
	return r
}

// TopLTVCustomers returns at most n customers, highest LTV first. Equal
// values are ordered by customer id.
func (r *LTVReporter) TopLTVCustomers(ctx context.Context, n int, src Source) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	all := r.Customers(ctx, src)
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Customers returns every qualifying customer in report order.
func (r *LTVReporter) Customers(ctx context.Context, src Source) []Entry {
	start := time.Now()
	groups := r.group(ctx, src.Events())

	entries := make([]Entry, 0, len(groups))
	for _, g := range groups {
		e, reason := r.evaluate(g)
		if reason != "" {
			metrics.RecordCustomerExcluded(reason)
			if reason != ReasonNoOrders {
				r.log.Warn(ctx, "customer excluded from report",
					logger.String("customer_id", g.id),
					logger.String("reason", reason),
					logger.Error(g.err))
			}
			continue
		}
		entries = append(entries, e)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := b.LTV.Cmp(a.LTV); c != 0 {
			return c
		}
		return strings.Compare(a.CustomerID, b.CustomerID)
	})

	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	metrics.UpdateReportCustomers(len(entries))
	metrics.RecordReportLatency(latencyMs)
	r.log.Debug(ctx, "report computed",
		logger.Int("customers", len(groups)),
		logger.Int("qualifying", len(entries)),
		logger.Float64("latencyMs", latencyMs))
	return entries
}

type customer struct {
	id       string
	first    int64
	last     int64
	visits   int
	orders   int
	total    money.Money
	excluded string
	err      error
}

func (r *LTVReporter) group(ctx context.Context, events []event.Record) map[string]*customer {
	groups := make(map[string]*customer)
	for _, e := range events {
		if e.Type() != event.TypeOrder && e.Type() != event.TypeSiteVisit {
			continue
		}
		id, ok := e.TextAttribute(event.AttrCustomerID)
		if !ok {
			r.log.Warn(ctx, "event without customer id skipped",
				logger.String("type", e.Type().String()),
				logger.String("key", e.Key().String()))
			continue
		}
		c, ok := groups[id]
		if !ok {
			c = &customer{id: id, first: e.Timestamp(), last: e.Timestamp()}
			groups[id] = c
		}
		c.first = min(c.first, e.Timestamp())
		c.last = max(c.last, e.Timestamp())

		if e.Type() == event.TypeSiteVisit {
			c.visits++
			continue
		}
		c.orders++
		c.addOrder(e)
	}
	return groups
}

func (c *customer) addOrder(e event.Record) {
	if c.excluded != "" {
		return
	}
	a, _ := e.Attribute(event.AttrTotalAmount)
	amount, ok := a.Money()
	if !ok {
		c.excluded = ReasonInvalidOrder
		c.err = event.Unsupported(event.AttrTotalAmount, "missing on order "+e.Key().String())
		return
	}
	if c.total.IsZero() {
		c.total = amount
		return
	}
	sum, err := c.total.Plus(amount)
	if err != nil {
		c.excluded = ReasonOverflow
		if errors.Is(err, money.ErrCurrencyMismatch) {
			c.excluded = ReasonMixedCurrency
		}
		c.err = err
		return
	}
	c.total = sum
}

func (r *LTVReporter) evaluate(c *customer) (Entry, string) {
	switch {
	case c.orders == 0:
		return Entry{}, ReasonNoOrders
	case c.excluded != "":
		return Entry{}, c.excluded
	case c.visits == 0:
		return Entry{}, ReasonNoVisits
	}

	weeks := max((c.last-c.first)/weekMillis, 1)
	visits := int64(c.visits)

	avg, err := c.total.DividedBy(visits)
	if err != nil {
		c.err = err
		return Entry{}, ReasonOverflow
	}
	perWeek, err := avg.MultipliedBy(big.NewRat(visits, weeks))
	if err != nil {
		c.err = err
		return Entry{}, ReasonOverflow
	}
	ltv, err := perWeek.Times(r.weeksPerYear * r.lifespanYears)
	if err != nil {
		c.err = err
		return Entry{}, ReasonOverflow
	}
	return Entry{
		CustomerID:    c.id,
		LTV:           ltv,
		Visits:        c.visits,
		Orders:        c.orders,
		Weeks:         weeks,
		TotalSpent:    c.total,
		AvgPerVisit:   avg,
		VisitsPerWeek: float64(visits) / float64(weeks),
	}, ""
}
