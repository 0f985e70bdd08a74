package trace

import (
	"context"
	"fmt"

	"github.com/dshills/asl-go/asl"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// OTel implements asl.Emitter by turning each Event into a span, one
// attribute per Meta entry plus the standard runID/state/step fields.
// Spans are point-in-time (started and ended immediately) since an Event
// marks a moment, not a duration already tracked elsewhere.
type OTel struct {
	tracer oteltrace.Tracer
}

// NewOTel builds an OTel emitter from a tracer, e.g. otel.Tracer("asl-go").
func NewOTel(tracer oteltrace.Tracer) *OTel {
	return &OTel{tracer: tracer}
}

func (o *OTel) Emit(ev asl.Event) {
	_, span := o.tracer.Start(context.Background(), string(ev.Kind))
	defer span.End()

	span.SetAttributes(
		attribute.String("asl.run_id", ev.RunID),
		attribute.String("asl.state", ev.State),
		attribute.Int("asl.step", ev.Step),
	)
	if ev.RetryAttempt > 0 {
		span.SetAttributes(attribute.Int("asl.retry_attempt", ev.RetryAttempt))
	}
	for k, v := range ev.Meta {
		span.SetAttributes(attribute.String("asl."+k, fmt.Sprintf("%v", v)))
	}
	if ev.Error != nil {
		span.SetStatus(codes.Error, ev.Error.Name)
		span.RecordError(fmt.Errorf("%s: %s", ev.Error.Name, ev.Error.Cause))
	}
}

// Flush force-flushes the active TracerProvider if it supports it,
// mirroring the teacher's shutdown-time flush convention.
func Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}
