package trace_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gitlab.com/efronlicht/rawget/observability/trace"
)

func TestSaveCtx(t *testing.T) {
	want := trace.New()
	ctx := trace.SaveCtx(context.Background(), want)
	got, ok := trace.FromCtx(ctx)
	if !ok || got != want {
		t.Fatalf("FromCtx() = %v, %v: want %v, true", got, ok, want)
	}
	if got := trace.FromCtxOrNew(ctx); got != want {
		t.Fatalf("FromCtxOrNew() = %v, want %v", got, want)
	}
}

func TestFromCtxOrNew(t *testing.T) {
	if _, ok := trace.FromCtx(context.Background()); ok {
		t.Fatal("FromCtx(empty context) found a trace")
	}
	a, b := trace.FromCtxOrNew(context.Background()), trace.FromCtxOrNew(context.Background())
	if a.RunID == uuid.Nil || a == b {
		t.Fatalf("FromCtxOrNew() should make a fresh, unique trace: got %v and %v", a, b)
	}
	// a zero trace is as good as none.
	if _, ok := trace.FromCtx(trace.SaveCtx(context.Background(), trace.Trace{})); ok {
		t.Fatal("FromCtx() accepted a nil RunID")
	}
}

func TestField(t *testing.T) {
	tr := trace.New()
	f := tr.Field()
	if f.Key != "run_id" {
		t.Fatalf("Field().Key = %q, want run_id", f.Key)
	}
	if f.Interface.(interface{ String() string }).String() != tr.RunID.String() {
		t.Fatalf("Field() does not carry the RunID")
	}
}
