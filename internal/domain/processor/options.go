package processor

import "github.com/okian/ltv/pkg/logger"

// Option configures a processor built by this package.
type Option func(*settings)

type settings struct {
	log logger.Logger
}

// WithLogger sets the logger used for tag warnings and debug output.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func applyOptions(name string, opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Named("processor." + name)
	}
	return s
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger that records registrations.
func WithRegistryLogger(l logger.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}
