package report

import "github.com/okian/ltv/pkg/logger"

// Option applies a configuration option to the LTVReporter.
type Option func(*LTVReporter)

// WithLifespanYears sets the assumed customer lifespan.
func WithLifespanYears(years int) Option {
	return func(r *LTVReporter) {
		if years > 0 {
			r.lifespanYears = int64(years)
		}
	}
}

// WithWeeksPerYear sets the number of weeks counted per year.
func WithWeeksPerYear(weeks int) Option {
	return func(r *LTVReporter) {
		if weeks > 0 {
			r.weeksPerYear = int64(weeks)
		}
	}
}

// WithLogger sets a custom logger for the reporter.
func WithLogger(l logger.Logger) Option {
	return func(r *LTVReporter) {
		if l != nil {
			r.log = l
		}
	}
}
