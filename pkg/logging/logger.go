package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with application-specific functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger with the specified level
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter builds a JSON logger that writes to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: redactSecrets,
	}

	handler := slog.NewJSONHandler(w, opts)
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		return Default().Component(name)
	}
	return &Logger{Logger: l.Logger.With("component", name)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var secretKeyMarkers = []string{"token", "secret", "password", "api_key", "apikey", "auth"}

// IsSecretKey reports whether a settings or attribute key names a credential.
func IsSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, marker := range secretKeyMarkers {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}

// Mask hides all but the last four characters of a secret value.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "[HIDDEN]"
	}
	return "[HIDDEN]…" + value[len(value)-4:]
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString || !IsSecretKey(a.Key) {
		return a
	}
	return slog.String(a.Key, Mask(a.Value.String()))
}
