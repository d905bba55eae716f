// Package zerolog provides a zerolog-backed implementation of logger.Logger,
// for applications that already route their logs through zerolog.
package zerolog

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/logger"
)

type ZerologHandler struct {
	logger zerolog.Logger
}

var _ logger.Logger = (*ZerologHandler)(nil)

// New returns a Logger writing JSON lines to w.
func New(w io.Writer) *ZerologHandler {
	l := zerolog.New(w).With().Timestamp().Logger()
	return &ZerologHandler{logger: l}
}

// FromLogger wraps an existing zerolog.Logger, keeping its configured
// writer, level and context fields.
func FromLogger(l zerolog.Logger) *ZerologHandler {
	return &ZerologHandler{logger: l}
}

func (handler *ZerologHandler) Error(msg string, args ...any) {
	handler.logger.Error().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Warn(msg string, args ...any) {
	handler.logger.Warn().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Info(msg string, args ...any) {
	handler.logger.Info().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Debug(msg string, args ...any) {
	handler.logger.Debug().Fields(args).Msg(msg)
}
