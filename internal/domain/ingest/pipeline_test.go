package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/ingest"
	"github.com/okian/ltv/internal/domain/processor"
	"github.com/okian/ltv/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func newPipeline() *ingest.Pipeline {
	ps, err := processor.Build(nil)
	if err != nil {
		panic(err)
	}
	reg, err := processor.NewRegistry(context.Background(), ps)
	if err != nil {
		panic(err)
	}
	return ingest.New(reg)
}

func keys(events []event.Record) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Key().String()
	}
	return out
}

func TestParseSupportedPairs(t *testing.T) {
	ctx := context.Background()
	p := newPipeline()

	Convey("Given a minimal payload for every supported type and verb", t, func() {
		cases := []struct {
			payload string
			typ     event.Type
			verb    event.Verb
		}{
			{`{"type":"customer","verb":"new","key":"c1","event_time":"2017-01-06T12:46:46.384Z"}`, event.TypeCustomer, event.VerbNew},
			{`{"type":"CUSTOMER","verb":"UPDATE","key":"c1","event_time":"2017-01-06T12:46:46.384Z"}`, event.TypeCustomer, event.VerbUpdate},
			{`{"type":" site_visit ","verb":"NEW","key":"v1","event_time":"2017-01-06T12:46:46.384Z","customer_id":"c1"}`, event.TypeSiteVisit, event.VerbNew},
			{`{"type":"image","verb":"upload","key":"i1","event_time":"2017-01-06T12:46:46.384Z","customer_id":"c1"}`, event.TypeImage, event.VerbUpload},
			{`{"type":"ORDER","verb":"NEW","key":"o1","event_time":"2017-01-06T12:46:46.384Z","customer_id":"c1","total_amount":"USD 12.34"}`, event.TypeOrder, event.VerbNew},
			{`{"type":"ORDER","verb":"UPDATE","key":"o1","event_time":"2017-01-06T12:46:46.384Z","customer_id":"c1","total_amount":"USD 12.34"}`, event.TypeOrder, event.VerbUpdate},
		}

		Convey("Each produces exactly one normalized event", func() {
			for _, c := range cases {
				res := p.Parse(ctx, uuid.New(), []byte(c.payload))
				So(res.Rejections, ShouldBeEmpty)
				So(res.Events, ShouldHaveLength, 1)
				So(res.Events[0].Type(), ShouldEqual, c.typ)
				So(res.Events[0].Verb(), ShouldEqual, c.verb)
			}
		})
	})
}

func TestParseBatches(t *testing.T) {
	ctx := context.Background()
	p := newPipeline()
	tx := uuid.New()

	Convey("Given an array mixing valid and invalid items", t, func() {
		payload := `[
			{"type":"ORDER","verb":"NEW","key":"late","event_time":"2017-01-08T00:00:00.000Z","customer_id":"c1","total_amount":"USD 5.00"},
			{"type":"ORDER","verb":"NEW","key":"no-amount","event_time":"2017-01-06T00:00:00.000Z","customer_id":"c1"},
			"not an object",
			{"type":"REFUND","verb":"NEW","key":"r","event_time":"2017-01-06T00:00:00.000Z"},
			{"type":"SITE_VISIT","verb":"NEW","key":"tie-a","event_time":"2017-01-07T00:00:00.000Z","customer_id":"c1"},
			{"type":"SITE_VISIT","verb":"NEW","key":"early","event_time":"2017-01-05T00:00:00.000Z","customer_id":"c1"},
			{"type":"IMAGE","verb":"UPLOAD","key":"tie-b","event_time":"2017-01-07T00:00:00.000Z","customer_id":"c1"},
			{"verb":"NEW","key":"typeless","event_time":"2017-01-07T00:00:00.000Z"}
		]`
		res := p.Parse(ctx, tx, []byte(payload))

		Convey("Only valid items become events", func() {
			So(res.Items, ShouldEqual, 8)
			So(res.Events, ShouldHaveLength, 4)
			So(res.Rejections, ShouldHaveLength, 4)
		})

		Convey("Events are ordered by time and ties keep payload order", func() {
			So(keys(res.Events), ShouldResemble, []string{"early", "tie-a", "tie-b", "late"})
		})

		Convey("Rejections carry index, kind and field", func() {
			byIndex := map[int]ingest.Rejection{}
			for _, r := range res.Rejections {
				byIndex[r.Index] = r
			}
			So(byIndex[1].Kind, ShouldEqual, ingest.KindUnsupported)
			So(byIndex[1].Field, ShouldEqual, event.AttrTotalAmount)
			So(byIndex[2].Kind, ShouldEqual, ingest.KindParse)
			So(byIndex[3].Field, ShouldEqual, "type")
			So(errors.Is(byIndex[3].Err, event.ErrUnsupportedEvent), ShouldBeTrue)
			So(byIndex[7].Field, ShouldEqual, "type")
		})
	})

	Convey("Given blank payloads", t, func() {
		Convey("They produce nothing and no rejection", func() {
			for _, raw := range []string{"", "   ", "\n"} {
				res := p.Parse(ctx, tx, []byte(raw))
				So(res.Events, ShouldBeEmpty)
				So(res.Rejections, ShouldBeEmpty)
			}
			So(p.ParseEvents(ctx, tx, nil), ShouldBeEmpty)
		})
	})

	Convey("Given malformed JSON", t, func() {
		for _, raw := range []string{`[{"type":"ORDER"`, `{"type":}`, `{} {}`, `[] x`} {
			res := p.Parse(ctx, tx, []byte(raw))

			So(res.Events, ShouldBeEmpty)
			So(res.Rejections, ShouldHaveLength, 1)
			So(res.Rejections[0].Index, ShouldEqual, ingest.PayloadIndex)
			So(res.Rejections[0].Kind, ShouldEqual, ingest.KindParse)
			So(errors.Is(res.Rejections[0].Err, event.ErrParse), ShouldBeTrue)
		}
	})

	Convey("Given a single non-object value", t, func() {
		res := p.Parse(ctx, tx, []byte(`42`))
		So(res.Items, ShouldEqual, 1)
		So(res.Rejections, ShouldHaveLength, 1)
		So(res.Rejections[0].Kind, ShouldEqual, ingest.KindParse)
	})
}

type panicking struct{}

func (panicking) Name() string                 { return "panicking" }
func (panicking) SupportedTypes() []event.Type { return []event.Type{event.TypeOrder} }
func (panicking) SupportedVerbs() []event.Verb { return []event.Verb{event.VerbNew} }
func (panicking) Adapt(context.Context, uuid.UUID, processor.Object) (event.Record, error) {
	panic("boom")
}

type finderFunc func(event.Type) (processor.Processor, bool)

func (f finderFunc) Find(t event.Type) (processor.Processor, bool) { return f(t) }

func TestProcessorFailureIsolation(t *testing.T) {
	Convey("Given a processor that panics", t, func() {
		p := ingest.New(finderFunc(func(event.Type) (processor.Processor, bool) { return panicking{}, true }))

		Convey("The item is rejected as unsupported and the batch continues", func() {
			res := p.Parse(context.Background(), uuid.New(), []byte(`[{"type":"ORDER"},{"type":"ORDER"}]`))
			So(res.Events, ShouldBeEmpty)
			So(res.Rejections, ShouldHaveLength, 2)
			So(errors.Is(res.Rejections[0].Err, event.ErrUnsupportedEvent), ShouldBeTrue)
		})
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	p := newPipeline()

	Convey("Given a payload ingested into a new set", t, func() {
		tx := uuid.New()
		set := p.Ingest(ctx, tx, []byte(`[
			{"type":"SITE_VISIT","verb":"NEW","key":"v2","event_time":"2017-01-07T00:00:00.000Z","customer_id":"c1"},
			{"type":"SITE_VISIT","verb":"NEW","key":"v1","event_time":"2017-01-06T00:00:00.000Z","customer_id":"c1"}
		]`))

		Convey("The set is ordered, sealed and tagged with the transaction", func() {
			So(set.TransactionID(), ShouldEqual, tx)
			So(keys(set.Events()), ShouldResemble, []string{"v1", "v2"})
			So(set.Sealed(), ShouldBeTrue)
		})
	})

	Convey("Given events handed to Process directly", t, func() {
		set := event.NewSet(uuid.New())
		late := p.ParseEvents(ctx, uuid.New(), []byte(`{"type":"CUSTOMER","verb":"NEW","key":"late","event_time":"2017-01-09T00:00:00.000Z"}`))
		early := p.ParseEvents(ctx, uuid.New(), []byte(`{"type":"CUSTOMER","verb":"NEW","key":"early","event_time":"2017-01-01T00:00:00.000Z"}`))

		Convey("They are appended as given without re-sorting", func() {
			So(p.Process(append(late, early...), set), ShouldBeNil)
			So(keys(set.Events()), ShouldResemble, []string{"late", "early"})
		})
	})
}
