// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/ingest"
	"github.com/okian/ltv/internal/domain/processor"
	"github.com/okian/ltv/internal/domain/report"
	"github.com/okian/ltv/internal/domain/types"
	"github.com/okian/ltv/pkg/logger"
	"github.com/okian/ltv/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service wires the processor registry, ingestion pipeline and LTV reporter.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *processor.Registry
	pipeline *ingest.Pipeline
	reporter *report.LTVReporter

	// Configuration
	processorNames []string
	lifespanYears  int
	weeksPerYear   int

	// State
	started   bool
	startedAt time.Time

	payloads atomic.Int64
	ingested atomic.Int64
	rejected atomic.Int64
	reports  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProcessors selects the processors registered at Start. Empty means all.
func WithProcessors(names []string) Option {
	return func(s *Service) {
		s.processorNames = names
	}
}

// WithLifespanYears sets the customer lifespan used by LTV reports.
func WithLifespanYears(years int) Option {
	return func(s *Service) {
		if years > 0 {
			s.lifespanYears = years
		}
	}
}

// WithWeeksPerYear sets the weeks per year used by LTV reports.
func WithWeeksPerYear(weeks int) Option {
	return func(s *Service) {
		if weeks > 0 {
			s.weeksPerYear = weeks
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		lifespanYears: 10,
		weeksPerYear:  52,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the processors and registry. A configuration error leaves the
// service stopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting ltv service...")

	procs, err := processor.Build(s.processorNames, processor.WithLogger(s.logger.Named("processor")))
	if err != nil {
		return fmt.Errorf("build processors: %w", err)
	}
	reg, err := processor.NewRegistry(ctx, procs, processor.WithRegistryLogger(s.logger.Named("registry")))
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	s.registry = reg
	s.pipeline = ingest.New(reg, ingest.WithLogger(s.logger.Named("ingest")))
	s.reporter = report.NewLTVReporter(
		report.WithLifespanYears(s.lifespanYears),
		report.WithWeeksPerYear(s.weeksPerYear),
		report.WithLogger(s.logger.Named("report")),
	)
	s.started = true
	s.startedAt = time.Now()
	metrics.UpdateRegisteredTypes(reg.Len())

	s.logger.Info(ctx, "ltv service started",
		logger.Int("registeredTypes", reg.Len()),
		logger.Int("lifespanYears", s.lifespanYears),
		logger.Int("weeksPerYear", s.weeksPerYear),
	)
	return nil
}

// Stop marks the service stopped. It holds no background resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "ltv service stopped")
}

func (s *Service) components() (*ingest.Pipeline, *report.LTVReporter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.pipeline, s.reporter, nil
}

// Ingest parses raw under a new transaction id and returns the sealed set.
func (s *Service) Ingest(ctx context.Context, raw []byte) (*event.Set, ingest.Result, error) {
	pipeline, _, err := s.components()
	if err != nil {
		return nil, ingest.Result{}, err
	}
	set, res := pipeline.Collect(ctx, uuid.New(), raw)
	s.payloads.Add(1)
	s.ingested.Add(int64(len(res.Events)))
	s.rejected.Add(int64(len(res.Rejections)))
	return set, res, nil
}

// Report ingests raw and returns the top limit customers by LTV.
func (s *Service) Report(ctx context.Context, raw []byte, limit int) (types.Report, error) {
	set, res, err := s.Ingest(ctx, raw)
	if err != nil {
		return types.Report{}, err
	}
	rep, err := s.Rank(ctx, set, limit)
	if err != nil {
		return types.Report{}, err
	}
	rep.Rejected = len(res.Rejections)
	return rep, nil
}

// Rank returns the top limit customers of an already collected set.
func (s *Service) Rank(ctx context.Context, set *event.Set, limit int) (types.Report, error) {
	_, reporter, err := s.components()
	if err != nil {
		return types.Report{}, err
	}
	entries := reporter.TopLTVCustomers(ctx, limit, set)
	s.reports.Add(1)
	return types.Report{
		TransactionID: set.TransactionID().String(),
		Limit:         limit,
		Events:        set.Len(),
		Customers:     Entries(entries),
	}, nil
}

// Entries converts report entries to their ranked wire form.
func Entries(entries []report.Entry) []types.Entry {
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{
			Rank:          i + 1,
			CustomerID:    e.CustomerID,
			LTV:           e.LTV.String(),
			Visits:        e.Visits,
			Orders:        e.Orders,
			Weeks:         e.Weeks,
			TotalSpent:    e.TotalSpent.String(),
			AvgPerVisit:   e.AvgPerVisit.String(),
			VisitsPerWeek: e.VisitsPerWeek,
		}
	}
	return out
}

// Rejections converts pipeline rejections to their wire form.
func Rejections(rs []ingest.Rejection) []types.Rejection {
	out := make([]types.Rejection, len(rs))
	for i, r := range rs {
		out[i] = types.Rejection{
			Index: r.Index,
			Kind:  string(r.Kind),
			Field: r.Field,
			Error: r.Err.Error(),
		}
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Payloads:        s.payloads.Load(),
		EventsIngested:  s.ingested.Load(),
		ItemsRejected:   s.rejected.Load(),
		Reports:         s.reports.Load(),
		RegisteredTypes: []string{},
	}
	if s.started {
		stats.UptimeSeconds = time.Since(s.startedAt).Seconds()
		for _, t := range s.registry.Types() {
			stats.RegisteredTypes = append(stats.RegisteredTypes, t.String())
		}
	}
	return stats
}
