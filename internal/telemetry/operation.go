// Package telemetry wraps a reconciliation run in an OpenTelemetry operation
// span with one child span per step.
package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultOperationID = "operation"

// Operation is a root span covering one logical run. A nil tracer yields an
// operation that runs its steps without emitting spans.
type Operation struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
}

// Start opens the operation span.
func Start(ctx context.Context, tracer trace.Tracer, operation string) *Operation {
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = defaultOperationID
	}
	if tracer == nil {
		return &Operation{ctx: ctx}
	}

	spanCtx, span := tracer.Start(ctx, operation)
	return &Operation{ctx: spanCtx, tracer: tracer, span: span}
}

// Context returns the operation's span context.
func (o *Operation) Context() context.Context {
	if o == nil || o.ctx == nil {
		return context.Background()
	}
	return o.ctx
}

// RunStep runs fn inside a child span named id. The step's error is recorded
// on its span and returned unchanged.
func (o *Operation) RunStep(id string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	if o == nil || o.tracer == nil {
		return fn(o.Context())
	}

	stepCtx, span := o.tracer.Start(o.ctx, id)
	defer span.End()

	err := fn(stepCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	return err
}

// End closes the operation span, recording err when non-nil.
func (o *Operation) End(err error) {
	if o == nil || o.span == nil {
		return
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	o.span.End()
}
