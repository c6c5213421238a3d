// Package progrock records install progress on a progrock tape.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/tea/internal/core/ports"
)

// Recorder implements ports.Telemetry with progrock.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Recorder writing to an in-memory tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts a vertex. The vertex digest is derived from its ID, or its name when no ID is set.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	cfg := ports.VertexConfig{ID: name}
	for _, opt := range opts {
		opt(&cfg)
	}

	v := &Vertex{vertex: r.rec.Vertex(digest.FromString(cfg.ID), name)}
	return ports.ContextWithVertex(ctx, v), v
}

// Close flushes and closes the recording.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
