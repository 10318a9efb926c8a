package replay

import "time"

// driverOptions holds configuration for [NewDriver].
type driverOptions struct {
	tick       time.Duration
	abort      *AbortController
	logger     *Logger
	processes  *ProcessRegistry
}

// DriverOption configures a [Driver] instance.
type DriverOption interface {
	applyDriver(*driverOptions) error
}

type driverOptionFunc func(*driverOptions) error

func (f driverOptionFunc) applyDriver(opts *driverOptions) error {
	return f(opts)
}

// WithTick sets the driver's retry interval for events that return NotYet
// from Proceed. The spec's default is approximately 50ms.
func WithTick(d time.Duration) DriverOption {
	return driverOptionFunc(func(opts *driverOptions) error {
		opts.tick = d
		return nil
	})
}

// WithAbortController wires an externally owned [AbortController] into the
// driver, so that a signal handler (or any other collaborator) can request
// cooperative cancellation. If omitted, the driver creates its own.
func WithAbortController(c *AbortController) DriverOption {
	return driverOptionFunc(func(opts *driverOptions) error {
		opts.abort = c
		return nil
	})
}

// WithLogger overrides the structured logger used by this driver instance.
// If omitted, the package-level default logger (see logging.go) is used.
func WithLogger(l *Logger) DriverOption {
	return driverOptionFunc(func(opts *driverOptions) error {
		opts.logger = l
		return nil
	})
}

// WithProcessRegistry wires an externally owned [ProcessRegistry] into the
// driver. The driver calls the registry's Shutdown when Run finishes or is
// aborted; Shutdown is idempotent, so a signal handler may call it too.
func WithProcessRegistry(r *ProcessRegistry) DriverOption {
	return driverOptionFunc(func(opts *driverOptions) error {
		opts.processes = r
		return nil
	})
}

// resolveDriverOptions applies DriverOption instances to driverOptions.
func resolveDriverOptions(opts []DriverOption) (*driverOptions, error) {
	cfg := &driverOptions{
		tick: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyDriver(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.abort == nil {
		cfg.abort = NewAbortController()
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	return cfg, nil
}
