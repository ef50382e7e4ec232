package archive

import "log/slog"

type optionData struct {
	logger *slog.Logger
}

// Option configures an Archive or a Writer.
type Option func(*optionData)

// WithLogger sets the logger used for progress and diagnostics. The default
// is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *optionData) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) optionData {
	o := optionData{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
