package client

import (
	"context"
	"log/slog"
	"time"

	"fngate/internal/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// runTraced executes t inside a "tool.<name>" span.
func runTraced(ctx context.Context, t Tool, input string) (string, error) {
	ctx, span := trace.Tracer().Start(ctx, "tool."+t.Name(),
		oteltrace.WithAttributes(
			attribute.String("gen_ai.tool.name", t.Name()),
			attribute.Int("gen_ai.tool.input_length", len(input)),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := t.Execute(ctx, input)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("tool failed", "tool", t.Name(), "elapsed", elapsed, "error", err)
		return result, err
	}

	span.SetAttributes(attribute.Int("gen_ai.tool.output_length", len(result)))
	slog.Debug("tool finished", "tool", t.Name(), "elapsed", elapsed, "output_length", len(result))
	return result, nil
}
