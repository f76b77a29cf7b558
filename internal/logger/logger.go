package logger

import (
	"github.com/bool64/ctxd"
	"github.com/bool64/zapctxd"
)

// New initiates a new contextualized zap logger. Without output, the logger discards everything.
func New(cfg Config) ctxd.Logger {
	if cfg.Output == nil {
		return ctxd.NoOpLogger{}
	}

	return zapctxd.New(zapctxd.Config{
		Level:   cfg.Level,
		DevMode: true,
		FieldNames: ctxd.FieldNames{
			Timestamp: "timestamp",
			Message:   "message",
		},
		Output:    cfg.Output,
		StripTime: cfg.StripTime,
	})
}
