package processor_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/processor"
	"github.com/okian/ltv/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func object(raw string) processor.Object {
	var o processor.Object
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		panic(err)
	}
	return o
}

func mustProcessor(p processor.Processor, err error) processor.Processor {
	if err != nil {
		panic(err)
	}
	return p
}

func TestProcessors(t *testing.T) {
	ctx := context.Background()
	tx := uuid.New()

	Convey("Given the customer processor", t, func() {
		p := mustProcessor(processor.NewCustomer())

		Convey("Optional attributes are copied when present", func() {
			r, err := p.Adapt(ctx, tx, object(`{"type":"customer","verb":" new ","key":"96f55c7d8f42",
				"event_time":"2017-01-06T12:46:46.384Z","last_name":"Smith","adr_city":"Middletown"}`))
			So(err, ShouldBeNil)
			So(r.Type(), ShouldEqual, event.TypeCustomer)
			So(r.Verb(), ShouldEqual, event.VerbNew)
			name, ok := r.TextAttribute(event.AttrLastName)
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Smith")
			_, ok = r.Attribute(event.AttrState)
			So(ok, ShouldBeFalse)
		})

		Convey("UPDATE is accepted but UPLOAD is not", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"CUSTOMER","verb":"UPDATE","key":"c","event_time":"2017-01-06T12:46:46.384Z"}`))
			So(err, ShouldBeNil)
			_, err = p.Adapt(ctx, tx, object(`{"type":"CUSTOMER","verb":"UPLOAD","key":"c","event_time":"2017-01-06T12:46:46.384Z"}`))
			So(errors.Is(err, event.ErrUnsupportedEvent), ShouldBeTrue)
			So(event.FieldOf(err), ShouldEqual, "verb")
		})

		Convey("A non-string attribute is rejected", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"CUSTOMER","verb":"NEW","key":"c","event_time":"2017-01-06T12:46:46.384Z","last_name":7}`))
			So(event.FieldOf(err), ShouldEqual, event.AttrLastName)
		})

		Convey("A missing key is reported by the builder", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"CUSTOMER","verb":"NEW","event_time":"2017-01-06T12:46:46.384Z"}`))
			So(errors.Is(err, event.ErrUnsupportedEvent), ShouldBeTrue)
			So(event.FieldOf(err), ShouldEqual, "key")
		})

		Convey("A malformed event_time is unsupported and wraps the parse error", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"CUSTOMER","verb":"NEW","key":"c","event_time":"soon"}`))
			So(errors.Is(err, event.ErrUnsupportedEvent), ShouldBeTrue)
			So(errors.Is(err, event.ErrParse), ShouldBeTrue)
		})
	})

	Convey("Given the site visit processor", t, func() {
		p := mustProcessor(processor.NewSiteVisit())

		Convey("customer_id is stored trimmed", func() {
			r, err := p.Adapt(ctx, tx, object(`{"type":"SITE_VISIT","verb":"NEW","key":"v","event_time":"2017-01-06T12:46:46.384Z","customer_id":" c1 "}`))
			So(err, ShouldBeNil)
			id, ok := r.TextAttribute(event.AttrCustomerID)
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "c1")
		})

		Convey("customer_id is required", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"SITE_VISIT","verb":"NEW","key":"v","event_time":"2017-01-06T12:46:46.384Z"}`))
			So(event.FieldOf(err), ShouldEqual, event.AttrCustomerID)
			_, err = p.Adapt(ctx, tx, object(`{"type":"SITE_VISIT","verb":"NEW","key":"v","event_time":"2017-01-06T12:46:46.384Z","customer_id":"  "}`))
			So(event.FieldOf(err), ShouldEqual, event.AttrCustomerID)
		})

		Convey("Tags keep the first value for a repeated key and skip non-objects", func() {
			r, err := p.Adapt(ctx, tx, object(`{"type":"SITE_VISIT","verb":"NEW","key":"v","event_time":"2017-01-06T12:46:46.384Z",
				"customer_id":"c1","tags":[{"browser":"firefox"},"junk",{"browser":"chrome","os":"linux"}]}`))
			So(err, ShouldBeNil)
			So(r.Tags(), ShouldResemble, map[string]string{"browser": "firefox", "os": "linux"})
		})

		Convey("Tags that are not an array fail the item", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"SITE_VISIT","verb":"NEW","key":"v","event_time":"2017-01-06T12:46:46.384Z",
				"customer_id":"c1","tags":{"a":"b"}}`))
			So(event.FieldOf(err), ShouldEqual, "tags")
		})
	})

	Convey("Given the image upload processor", t, func() {
		p := mustProcessor(processor.NewImageUpload())

		Convey("Camera details are optional", func() {
			r, err := p.Adapt(ctx, tx, object(`{"type":"IMAGE","verb":"UPLOAD","key":"i","event_time":"2017-01-06T12:47:12.344Z",
				"customer_id":"c1","camera_make":"Canon"}`))
			So(err, ShouldBeNil)
			mk, _ := r.TextAttribute(event.AttrCameraMake)
			So(mk, ShouldEqual, "Canon")
			_, ok := r.Attribute(event.AttrCameraModel)
			So(ok, ShouldBeFalse)
		})

		Convey("Only UPLOAD is supported", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"IMAGE","verb":"NEW","key":"i","event_time":"2017-01-06T12:47:12.344Z","customer_id":"c1"}`))
			So(errors.Is(err, event.ErrUnsupportedEvent), ShouldBeTrue)
		})
	})

	Convey("Given the order processor", t, func() {
		p := mustProcessor(processor.NewOrder())

		Convey("total_amount is parsed as money", func() {
			r, err := p.Adapt(ctx, tx, object(`{"type":"ORDER","verb":"NEW","key":"o","event_time":"2017-01-06T12:55:55.555Z",
				"customer_id":"c1","total_amount":"USD 12.34"}`))
			So(err, ShouldBeNil)
			a, ok := r.Attribute(event.AttrTotalAmount)
			So(ok, ShouldBeTrue)
			m, ok := a.Money()
			So(ok, ShouldBeTrue)
			So(m.String(), ShouldEqual, "USD 12.34")
		})

		Convey("A missing or malformed total_amount is unsupported", func() {
			_, err := p.Adapt(ctx, tx, object(`{"type":"ORDER","verb":"NEW","key":"o","event_time":"2017-01-06T12:55:55.555Z","customer_id":"c1"}`))
			So(event.FieldOf(err), ShouldEqual, event.AttrTotalAmount)
			_, err = p.Adapt(ctx, tx, object(`{"type":"ORDER","verb":"NEW","key":"o","event_time":"2017-01-06T12:55:55.555Z",
				"customer_id":"c1","total_amount":"12.34 USD"}`))
			So(errors.Is(err, event.ErrUnsupportedEvent), ShouldBeTrue)
			So(event.FieldOf(err), ShouldEqual, event.AttrTotalAmount)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given a custom processor definition", t, func() {
		Convey("Empty type or verb sets are configuration errors", func() {
			_, err := processor.New("empty", nil, []event.Verb{event.VerbNew}, nil)
			So(errors.Is(err, processor.ErrConfiguration), ShouldBeTrue)
			p, err := processor.New("empty", []event.Type{event.TypeOrder}, nil, nil)
			So(errors.Is(err, processor.ErrConfiguration), ShouldBeTrue)
			So(p, ShouldBeNil)
		})
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	Convey("Given the default processors", t, func() {
		ps, err := processor.Build(nil)
		So(err, ShouldBeNil)
		So(ps, ShouldHaveLength, 4)

		reg, err := processor.NewRegistry(ctx, ps)
		So(err, ShouldBeNil)

		Convey("Every type resolves to one processor", func() {
			So(reg.Len(), ShouldEqual, 4)
			So(reg.Types(), ShouldResemble, []event.Type{
				event.TypeCustomer, event.TypeImage, event.TypeOrder, event.TypeSiteVisit,
			})
			p, ok := reg.Find(event.MustType("order"))
			So(ok, ShouldBeTrue)
			So(p.Name(), ShouldEqual, processor.NameOrder)
			_, ok = reg.Find(event.MustType("REFUND"))
			So(ok, ShouldBeFalse)
		})

		Convey("A second processor for a type fails construction", func() {
			extra, err := processor.New("orders-v2", []event.Type{event.TypeOrder}, []event.Verb{event.VerbNew}, nil)
			So(err, ShouldBeNil)
			_, err = processor.NewRegistry(ctx, append(ps, extra))
			So(errors.Is(err, processor.ErrConfiguration), ShouldBeTrue)
		})
	})

	Convey("Given a subset of names", t, func() {
		ps, err := processor.Build([]string{"Order", " site_visit"})
		So(err, ShouldBeNil)
		So(ps, ShouldHaveLength, 2)

		_, err = processor.Build([]string{"refund"})
		So(errors.Is(err, processor.ErrConfiguration), ShouldBeTrue)
	})
}
