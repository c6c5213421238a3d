package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/tea/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor and mirrors every span as a progress vertex.
type Bridge struct {
	rec ports.Telemetry

	mu       sync.Mutex
	vertices map[string]ports.Vertex
}

// NewBridge returns a Bridge recording into rec.
func NewBridge(rec ports.Telemetry) *Bridge {
	return &Bridge{
		rec:      rec,
		vertices: make(map[string]ports.Vertex),
	}
}

// OnStart opens a vertex for the span.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	id := sc.SpanID().String()
	_, v := b.rec.Record(parent, s.Name(), ports.WithVertexID(id))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.vertices[id] = v
}

// OnEnd completes the vertex of the span.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	id := sc.SpanID().String()
	b.mu.Lock()
	v, ok := b.vertices[id]
	delete(b.vertices, id)
	b.mu.Unlock()
	if !ok {
		return
	}

	if isCached(s.Attributes()) {
		v.Cached()
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = s.Name() + " failed"
		}
		err = errors.New(desc)
	}
	v.Complete(err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown closes the recorder.
func (b *Bridge) Shutdown(context.Context) error {
	return b.rec.Close()
}

func isCached(attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		if string(kv.Key) == ports.AttrCached && kv.Value.Type() == attribute.BOOL {
			return kv.Value.AsBool()
		}
	}
	return false
}
