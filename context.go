package schemacli

import (
	"context"
	"time"

	"github.com/thellimist/schemacli/internal/resolve"
)

// ExecutionContext is the state of one invocation, created after the
// instance is built. Hooks and Run reach it through FromContext.
type ExecutionContext struct {
	ID         string // Random per invocation, logged as run_id
	Instance   Cmd
	StartedAt  time.Time
	Path       []string // Selected command path, e.g. ["tool", "alpha"]
	Resolution *resolve.Resolution
}

// Source reports where the named field's value came from: "cli", "json",
// "default" or "missing".
func (e *ExecutionContext) Source(field string) string {
	if e == nil || e.Resolution == nil {
		return resolve.SourceMissing.String()
	}
	v, _ := e.Resolution.Get(field)
	return v.Source.String()
}

type contextKey struct{}

func withExecutionContext(ctx context.Context, ec *ExecutionContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ec)
}

// FromContext returns the ExecutionContext stored in ctx, or nil.
func FromContext(ctx context.Context) *ExecutionContext {
	ec, _ := ctx.Value(contextKey{}).(*ExecutionContext)
	return ec
}
