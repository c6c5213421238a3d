package telemetry_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/tea/internal/adapters/telemetry"
	"go.trai.ch/tea/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
	var _ sdktrace.SpanProcessor = (*telemetry.Bridge)(nil)
}

// fakeRecorder is a simple test double for ports.Telemetry.
type fakeRecorder struct {
	mu       sync.Mutex
	vertices map[string]*fakeVertex
	closed   bool
}

type fakeVertex struct {
	done   bool
	cached bool
	err    error
}

func (v *fakeVertex) Stdout() io.Writer   { return io.Discard }
func (v *fakeVertex) Stderr() io.Writer   { return io.Discard }
func (v *fakeVertex) Complete(err error) { v.done, v.err = true, err }
func (v *fakeVertex) Cached()            { v.cached = true }

func (r *fakeRecorder) Record(ctx context.Context, name string, _ ...ports.VertexOption) (context.Context, ports.Vertex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := &fakeVertex{}
	r.vertices[name] = v
	return ctx, v
}

func (r *fakeRecorder) Close() error {
	r.closed = true
	return nil
}

func TestBridge_MirrorsSpans(t *testing.T) {
	rec := &fakeRecorder{vertices: make(map[string]*fakeVertex)}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(rec)))
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	ctx, install := tracer.Start(t.Context(), "install")
	tracer.EmitPlan(ctx, []string{"zlib.net@1.3.0"})

	_, fetch := tracer.Start(ctx, "fetch zlib.net@1.3.0", ports.WithAttribute(ports.AttrCached, true))
	n, err := fetch.Write([]byte("cache hit"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	fetch.End()

	_, hydrate := tracer.Start(ctx, "hydrate zlib.net@1.3.0")
	hydrate.RecordError(errors.New("disk full"))
	hydrate.End()

	install.SetAttribute("nodes", 1)
	install.End()

	require.NoError(t, tp.Shutdown(context.Background()))

	require.Len(t, rec.vertices, 3)
	assert.True(t, rec.vertices["fetch zlib.net@1.3.0"].cached)
	assert.True(t, rec.vertices["fetch zlib.net@1.3.0"].done)
	assert.NoError(t, rec.vertices["fetch zlib.net@1.3.0"].err)

	assert.False(t, rec.vertices["hydrate zlib.net@1.3.0"].cached)
	require.Error(t, rec.vertices["hydrate zlib.net@1.3.0"].err)
	assert.Equal(t, "disk full", rec.vertices["hydrate zlib.net@1.3.0"].err.Error())

	assert.True(t, rec.vertices["install"].done)
	assert.True(t, rec.closed)
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()

	ctx, span := tracer.Start(t.Context(), "test-span")
	assert.NotNil(t, ctx)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	n, err := span.Write([]byte("test log"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	tracer.EmitPlan(ctx, nil)
	span.End()
}
