package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/tgienger/taskdeck"

var (
	meter  = otel.Meter(instrumentationName)
	logger = otelslog.NewLogger(instrumentationName)
)

// Logger returns the application logger scoped to a component
func Logger(component string) *slog.Logger {
	return logger.With("component", component)
}

// Log writes a single message at the given level
func Log(content string, level slog.Level) {
	logger.Log(context.Background(), level, content)
}

// Counter creates an Int64 counter on the application meter. Failures are
// logged and a no-op counter is returned so callers never need to check.
func Counter(name, description, unit string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		Log("Failed to create metric "+name+": "+err.Error(), slog.LevelError)
		counter, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return counter
}
