package observability

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	globalLogger zerolog.Logger
	initOnce     sync.Once
)

// InitLogger 初始化全局结构化日志，只有第一次调用生效。
func InitLogger(level string, pretty bool) zerolog.Logger {
	initOnce.Do(func() {
		globalLogger = NewLogger(os.Stdout, level, pretty)
		zerolog.SetGlobalLevel(ParseLevel(level))
		log.Logger = globalLogger
	})
	return globalLogger
}

// NewLogger builds a logger writing to out without touching global state.
func NewLogger(out io.Writer, level string, pretty bool) zerolog.Logger {
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps LOG_LEVEL onto zerolog, unknown values fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent tags logger output with the owning component.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
