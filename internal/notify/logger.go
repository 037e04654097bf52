package notify

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter routes watermill's internal logs through zerolog.
// Watermill's Info level is chatty (every subscribe/close), so it is
// demoted to Debug.
type zerologAdapter struct {
	lg zerolog.Logger
}

// NewWatermillLogger wraps lg as a watermill.LoggerAdapter.
func NewWatermillLogger(lg zerolog.Logger) watermill.LoggerAdapter {
	return zerologAdapter{lg: lg.With().Str("component", "watermill").Logger()}
}

func (a zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.lg.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a zerologAdapter) Info(msg string, fields watermill.LogFields) {
	a.lg.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	a.lg.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	a.lg.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zerologAdapter{lg: a.lg.With().Fields(map[string]interface{}(fields)).Logger()}
}
