// package trace tags everything one invocation does with a run ID, so its log lines can be found together.
// Basic usage:
//
//	ctx = trace.SaveCtx(ctx, trace.New())
//	log := zap.L().With(trace.FromCtxOrNew(ctx).Field())
package trace

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// New makes a new Trace with a freshly-generated RunID.
func New() Trace { return Trace{RunID: uuid.New()} }

// Trace identifies a single run of a command.
type Trace struct {
	RunID uuid.UUID `json:"run_id,omitempty"`
}

// Field is the trace as a zap field, for logger.With.
func (t Trace) Field() zap.Field { return zap.Stringer("run_id", t.RunID) }

type ctxKey struct{}

// FromCtx retrieves a trace saved with SaveCtx, returning false if none was found. Most of the time, you want FromCtxOrNew.
func FromCtx(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(ctxKey{}).(Trace)
	return t, ok && t.RunID != uuid.Nil
}

// FromCtxOrNew retrieves a trace from the context, creating a new one if none was found.
func FromCtxOrNew(ctx context.Context) Trace {
	if t, ok := FromCtx(ctx); ok {
		return t
	}
	return New()
}

// SaveCtx returns a new context with the trace, for retrieval with FromCtx.
func SaveCtx(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}
