package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"jobboard_back_end_go/config"

	"github.com/gin-gonic/gin"
)

type Logger struct {
	*slog.Logger
}

func NewLogger(cfg *config.Config) (*Logger, error) {
	return newLogger(os.Stdout, cfg.Logger), nil
}

func newLogger(w io.Writer, mode config.LoggerMode) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(mode.Level)}
	var h slog.Handler
	if mode.Development {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(h)}
}

// Nop discards everything. Used by tests and by commands that print to stdout.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GinMiddleware logs one line per request once the handler chain is done.
func GinMiddleware(l *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"origin", c.GetHeader("Origin"),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= 500:
			l.Error("request", attrs...)
		case c.Writer.Status() >= 400:
			l.Warn("request", attrs...)
		default:
			l.Info("request", attrs...)
		}
	}
}
