package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const commented = `[
	// first visit
	{"type":"SITE_VISIT","verb":"NEW","key":"v1","event_time":"2017-01-06T12:45:52.041Z","customer_id":"c1"},
	{"type":"ORDER","verb":"NEW","key":"o1","event_time":"2017-01-06T12:55:55.555Z","customer_id":"c1","total_amount":"USD 12.34"},
	/* rejected: no customer */
	{"type":"ORDER","verb":"NEW","key":"o2","event_time":"2017-01-06T12:55:55.555Z","total_amount":"USD 1.00"},
]`

func TestParseFlags(t *testing.T) {
	convey.Convey("Given command lines", t, func() {
		convey.Convey("Then a file with defaults parses", func() {
			opts, err := parseFlags([]string{"--file", "payload.json"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(opts.file, convey.ShouldEqual, "payload.json")
			convey.So(opts.top, convey.ShouldEqual, 10)
			convey.So(opts.format, convey.ShouldEqual, formatText)
		})

		convey.Convey("Then generation flags parse", func() {
			opts, err := parseFlags([]string{"--generate", "100", "--customers", "4", "--seed", "9", "-n", "3", "--format", "json"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(opts.generate, convey.ShouldEqual, 100)
			convey.So(opts.customers, convey.ShouldEqual, 4)
			convey.So(opts.seed, convey.ShouldEqual, uint64(9))
			convey.So(opts.top, convey.ShouldEqual, 3)
		})

		convey.Convey("Then invalid combinations fail", func() {
			for _, args := range [][]string{
				{},
				{"--file", "a.json", "--generate", "5"},
				{"--file", "a.json", "--top", "0"},
				{"--file", "a.json", "--format", "xml"},
				{"--file", "a.json", "--url", "http://localhost:9080", "--events"},
				{"--file", "a.json", "extra"},
			} {
				_, err := parseFlags(args)
				convey.So(err, convey.ShouldNotBeNil)
			}
		})
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a JSONC payload on stdin", t, func() {
		opts, err := parseFlags([]string{"--file", "-", "--events"})
		convey.So(err, convey.ShouldBeNil)
		var out bytes.Buffer

		convey.Convey("Then the text report lists events, rejections and customers", func() {
			convey.So(run(ctx, opts, strings.NewReader(commented), &out), convey.ShouldBeNil)
			text := out.String()
			convey.So(text, convey.ShouldContainSubstring, "2 events, 1 rejected")
			convey.So(text, convey.ShouldContainSubstring, "rejected item 2 (unsupported)")
			convey.So(text, convey.ShouldContainSubstring, "SITE_VISIT")
			convey.So(text, convey.ShouldContainSubstring, "USD 6416.80")
		})
	})

	convey.Convey("Given a payload file and JSON output", t, func() {
		path := filepath.Join(t.TempDir(), "payload.jsonc")
		convey.So(os.WriteFile(path, []byte(commented), 0o600), convey.ShouldBeNil)
		opts, err := parseFlags([]string{"--file", path, "--format", "json"})
		convey.So(err, convey.ShouldBeNil)
		var out bytes.Buffer

		convey.Convey("Then the report decodes", func() {
			convey.So(run(ctx, opts, nil, &out), convey.ShouldBeNil)
			var got struct {
				Events     json.RawMessage  `json:"events"`
				Rejections []map[string]any `json:"rejections"`
				Report     struct {
					Customers []map[string]any `json:"customers"`
				} `json:"report"`
			}
			convey.So(json.Unmarshal(out.Bytes(), &got), convey.ShouldBeNil)
			convey.So(got.Events, convey.ShouldBeNil)
			convey.So(got.Rejections, convey.ShouldHaveLength, 1)
			convey.So(got.Report.Customers, convey.ShouldHaveLength, 1)
			convey.So(got.Report.Customers[0]["ltv"], convey.ShouldEqual, "USD 6416.80")
		})
	})

	convey.Convey("Given a generated payload", t, func() {
		opts, err := parseFlags([]string{"--generate", "200", "--customers", "5", "--top", "2"})
		convey.So(err, convey.ShouldBeNil)
		var out bytes.Buffer

		convey.Convey("Then the top customers are printed", func() {
			convey.So(run(ctx, opts, nil, &out), convey.ShouldBeNil)
			convey.So(out.String(), convey.ShouldContainSubstring, "205 events, 0 rejected")
			convey.So(out.String(), convey.ShouldContainSubstring, "RANK")
		})
	})

	convey.Convey("Given a missing file", t, func() {
		opts, err := parseFlags([]string{"--file", filepath.Join(t.TempDir(), "missing.json")})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then run fails", func() {
			convey.So(run(ctx, opts, nil, &bytes.Buffer{}), convey.ShouldNotBeNil)
		})
	})
}
