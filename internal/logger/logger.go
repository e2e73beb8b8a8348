package logger

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
)

// Logger is a thin wrapper over slog that stamps every record with the
// service name and a per-request correlation id.
type Logger struct {
	service string
	handler *slog.Logger
}

func New(service string) *Logger {
	hostname, _ := os.Hostname()

	handler := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})).With(
		slog.String("service", service),
		slog.String("hostname", hostname),
	)

	return &Logger{service: service, handler: handler}
}

func (l *Logger) Info(action, requestID, message string, args ...any) {
	l.handler.Info(message, append([]any{
		slog.String("action", action),
		slog.String("request_id", requestID),
	}, args...)...)
}

func (l *Logger) Debug(action, requestID, message string, args ...any) {
	l.handler.Debug(message, append([]any{
		slog.String("action", action),
		slog.String("request_id", requestID),
	}, args...)...)
}

func (l *Logger) Error(action, requestID, message string, err error, args ...any) {
	attrs := []any{
		slog.String("action", action),
		slog.String("request_id", requestID),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.handler.Error(message, append(attrs, args...)...)
}

// GenerateRequestID returns a short random correlation id.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req-unknown"
	}
	return "req-" + hex.EncodeToString(b)
}
