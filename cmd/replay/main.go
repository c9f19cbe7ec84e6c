// Command replay ingests a payload file or a generated payload and prints the
// resulting events and LTV report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	app "github.com/okian/ltv/internal/app"
	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/types"
	"github.com/okian/ltv/internal/testevents"
	"github.com/okian/ltv/pkg/logger"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type options struct {
	file      string
	generate  int
	customers int
	seed      uint64
	top       int
	format    string
	events    bool
	url       string
	timeout   time.Duration
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err == nil {
		err = run(ctx, opts, os.Stdin, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.file, "file", "f", "", "payload file (JSON or JSONC); - reads stdin")
	flagSet.IntVar(&opts.generate, "generate", 0, "generate this many activity events instead of reading --file")
	flagSet.IntVar(&opts.customers, "customers", testevents.DefaultCustomers, "customers in a generated payload")
	flagSet.Uint64Var(&opts.seed, "seed", 1, "seed for a generated payload")
	flagSet.IntVarP(&opts.top, "top", "n", 10, "customers in the LTV report")
	flagSet.StringVar(&opts.format, "format", formatText, "output format: text or json")
	flagSet.BoolVar(&opts.events, "events", false, "print ingested events")
	flagSet.StringVar(&opts.url, "url", "", "post to a running server instead of ingesting in-process")
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout with --url")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline activity to stderr")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	switch {
	case flagSet.NArg() > 0:
		return options{}, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	case (opts.file == "") == (opts.generate <= 0):
		return options{}, errors.New("exactly one of --file or --generate is required")
	case opts.top < 1:
		return options{}, errors.New("--top must be positive")
	case opts.format != formatText && opts.format != formatJSON:
		return options{}, fmt.Errorf("unknown --format %q", opts.format)
	case opts.url != "" && opts.events:
		return options{}, errors.New("--events is not available with --url")
	}
	return opts, nil
}

// output is the JSON form of a replay.
type output struct {
	Events     *event.Set        `json:"events,omitempty"`
	Rejections []types.Rejection `json:"rejections,omitempty"`
	Report     types.Report      `json:"report"`
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		return err
	}
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	raw, err := loadPayload(opts, stdin)
	if err != nil {
		return err
	}

	var out output
	if opts.url != "" {
		out.Report, err = testevents.NewClient(opts.url, opts.timeout).Report(ctx, raw, opts.top)
	} else {
		out, err = replay(ctx, opts, raw)
	}
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printText(stdout, out)
}

func loadPayload(opts options, stdin io.Reader) ([]byte, error) {
	if opts.generate > 0 {
		return testevents.Payload(testevents.Config{
			Events:    opts.generate,
			Customers: opts.customers,
			Seed:      opts.seed,
		})
	}
	var (
		data []byte
		err  error
	)
	if opts.file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(opts.file)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return jsonc.ToJSON(data), nil
}

func replay(ctx context.Context, opts options, raw []byte) (output, error) {
	svc := app.New(app.WithLogger(logger.Named("replay")))
	if err := svc.Start(ctx); err != nil {
		return output{}, err
	}
	defer svc.Stop()

	set, res, err := svc.Ingest(ctx, raw)
	if err != nil {
		return output{}, err
	}
	rep, err := svc.Rank(ctx, set, opts.top)
	if err != nil {
		return output{}, err
	}
	rep.Rejected = len(res.Rejections)

	out := output{Report: rep}
	if opts.events {
		out.Events = set
	}
	if len(res.Rejections) > 0 {
		out.Rejections = app.Rejections(res.Rejections)
	}
	return out, nil
}

func printText(w io.Writer, out output) error {
	rep := out.Report
	fmt.Fprintf(w, "transaction %s: %d events, %d rejected\n", rep.TransactionID, rep.Events, rep.Rejected)
	for _, r := range out.Rejections {
		fmt.Fprintf(w, "  rejected item %d (%s): %s\n", r.Index, r.Kind, r.Error)
	}
	if out.Events != nil {
		fmt.Fprintln(w)
		for _, e := range out.Events.Events() {
			fmt.Fprintf(w, "%s  %-10s %-6s %s\n", e.Time().Format(event.TimeLayout), e.Type(), e.Verb(), e.Key())
		}
	}

	fmt.Fprintln(w)
	if len(rep.Customers) == 0 {
		fmt.Fprintln(w, "no qualifying customers")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RANK\tCUSTOMER\tLTV\tVISITS\tORDERS\tWEEKS\t")
	for _, c := range rep.Customers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t\n", c.Rank, c.CustomerID, c.LTV, c.Visits, c.Orders, c.Weeks)
	}
	return tw.Flush()
}
