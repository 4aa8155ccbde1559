package database

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/storefront/pkg/database"

// QueryTracer wraps store queries in client spans and reports slow ones.
// The zero value traces but never logs.
type QueryTracer struct {
	System        string
	SlowThreshold time.Duration
	Logger        *slog.Logger
}

// Start opens a span for one operation against a collection. Call the
// returned func with the operation's error when it completes:
//
//	ctx, end := tracer.Start(ctx, "select", "cart", stmt)
//	defer func() { end(err) }()
func (t QueryTracer) Start(ctx context.Context, operation, collection, statement string) (context.Context, func(error)) {
	start := time.Now()
	system := t.System
	if system == "" {
		system = "postgresql"
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "store."+operation+" "+collection,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", operation),
			attribute.String("db.collection.name", collection),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if t.SlowThreshold <= 0 || t.Logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= t.SlowThreshold {
			t.Logger.WarnContext(ctx, "slow store call",
				slog.String("operation", operation),
				slog.String("collection", collection),
				slog.Duration("duration", elapsed),
			)
		}
	}
}
