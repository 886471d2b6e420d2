package join

import "log/slog"

// Option configures a coordinator.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	recorder  Recorder
	ids       IDGenerator
	clock     Sequencer
	keepAlive bool
}

func newConfig(opts []Option) config {
	cfg := config{
		recorder: nopRecorder{},
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithRecorder receives every trace event of the coordinator.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithIDGenerator sets the coordinator id source. Defaults to UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *config) {
		if g != nil {
			c.ids = g
		}
	}
}

// WithClock stamps trace events from a shared sequencer instead of a fresh
// Clock per coordinator.
func WithClock(clock Sequencer) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithKeepAlive keeps a coordinator whose plans have all retired alive and
// silent until it is disposed, instead of completing the downstream observer.
func WithKeepAlive() Option {
	return func(c *config) {
		c.keepAlive = true
	}
}
