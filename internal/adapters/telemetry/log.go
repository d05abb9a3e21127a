// Package telemetry implements domain.Telemetry sinks.
package telemetry

import (
	"context"

	"go.uber.org/zap"

	"github.com/PabloGalante/farum-panel/internal/domain"
	"github.com/PabloGalante/farum-panel/internal/observability"
)

// LogRecorder writes every event as a structured log line.
type LogRecorder struct{}

func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

func (LogRecorder) Record(ctx context.Context, ev domain.TelemetryEvent) {
	fields := []zap.Field{
		zap.String("event", string(ev.Name)),
		zap.Time("at", ev.At),
	}
	if ev.TriggerID != "" {
		fields = append(fields, zap.String("trigger_id", string(ev.TriggerID)))
	}
	if ev.TabID != "" {
		fields = append(fields, zap.String("event_tab_id", string(ev.TabID)))
	}
	if len(ev.Attributes) > 0 {
		fields = append(fields, zap.Any("attributes", ev.Attributes))
	}

	observability.LoggerFromContext(ctx).Info("telemetry", fields...)
}

// Multi fans an event out to every recorder.
type Multi []domain.Telemetry

func (m Multi) Record(ctx context.Context, ev domain.TelemetryEvent) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, ev)
		}
	}
}
