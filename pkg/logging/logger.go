package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is the minimum level a Logger emits
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// ParseLevel reads a level name case-insensitively. Unknown names mean info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds logger configuration
type Config struct {
	Level       LogLevel
	ServiceName string
	Environment string
	Version     string
	// Format is "json" (default) or "text"
	Format    string
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns the JSON configuration used in every environment
func DefaultConfig(serviceName string) *Config {
	return &Config{
		Level:       LevelInfo,
		ServiceName: serviceName,
		Environment: envOr("ENVIRONMENT", "development"),
		Version:     envOr("VERSION", "unknown"),
		Format:      envOr("LOG_FORMAT", "json"),
		Output:      os.Stdout,
	}
}

// Logger is a slog.Logger bound to one service
type Logger struct {
	*slog.Logger
	serviceName string
}

// New creates a Logger. Timestamps are written in UTC.
func New(config *Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       config.Level.slogLevel(),
		AddSource:   config.AddSource,
		ReplaceAttr: utcTime,
	}

	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	base := slog.New(handler).With(
		"service", config.ServiceName,
		"environment", config.Environment,
		"version", config.Version,
	)
	return &Logger{Logger: base, serviceName: config.ServiceName}
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
	}
	return a
}

// ServiceName returns the service the logger was created for
func (l *Logger) ServiceName() string {
	return l.serviceName
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), serviceName: l.serviceName}
}

// WithContext adds the request fields carried by ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	f := fieldsFrom(ctx)
	if f.empty() {
		return l
	}
	return l.with(f.attrs()...)
}

// WithError adds err under "error". A nil err returns l unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

// WithComponent tags entries with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// AuditRecord is one attributable change to a scheduler resource
type AuditRecord struct {
	Action     string
	Resource   string
	ResourceID string
	UserID     string
	Details    map[string]any
}

// Audit writes rec as an "Audit event" entry with its fields grouped under "audit"
func (l *Logger) Audit(ctx context.Context, rec AuditRecord) {
	attrs := []any{
		"action", rec.Action,
		"resource", rec.Resource,
		"resourceId", rec.ResourceID,
		"userId", rec.UserID,
	}
	if len(rec.Details) > 0 {
		details := make([]any, 0, len(rec.Details)*2)
		for k, v := range rec.Details {
			details = append(details, k, v)
		}
		attrs = append(attrs, slog.Group("details", details...))
	}

	l.WithContext(ctx).Info("Audit event", slog.Group("audit", attrs...))
}

// Published logs the outcome of an event publish. Failures log at error level.
func (l *Logger) Published(ctx context.Context, topic, eventType string, err error, took time.Duration) {
	level := slog.LevelDebug
	args := []any{"topic", topic, "eventType", eventType, "durationMs", took.Milliseconds()}
	if err != nil {
		level = slog.LevelError
		args = append(args, "error", err.Error())
	}
	l.WithContext(ctx).Log(ctx, level, "Event published", args...)
}

// SetDefault installs the logger as the slog default
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
