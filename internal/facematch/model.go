package facematch

import (
	"context"
	"sync"
)

// Frame is one captured camera image. Its pixel format is whatever the
// vendor detector expects; this package treats it as opaque bytes.
type Frame []byte

// Detector produces face predictions for a single frame. Implementations
// wrap a vendor face-detection model.
type Detector interface {
	DetectFaces(ctx context.Context, frame Frame) ([]Detection, error)
}

// LoadFunc loads a detector model. Loading is typically slow (model weights),
// which is why ModelLoader exists.
type LoadFunc func(ctx context.Context) (Detector, error)

// ModelLoader is an explicitly owned, lazily-initialized handle to the shared
// detector model. Concurrent callers of Load share one in-flight load
// (single-flight); a successful load is reused forever, a failed one is
// retried by the next caller.
type ModelLoader struct {
	loadFn LoadFunc

	mu      sync.Mutex
	current *modelLoad
}

type modelLoad struct {
	done     chan struct{}
	detector Detector
	err      error
}

// NewModelLoader wraps a LoadFunc in a single-flight handle.
func NewModelLoader(loadFn LoadFunc) *ModelLoader {
	return &ModelLoader{loadFn: loadFn}
}

// Load returns the shared detector, starting the load on first use. Waiting
// is bounded by ctx; cancellation abandons the wait, not the load itself, so
// a later caller can still reuse the result.
func (l *ModelLoader) Load(ctx context.Context) (Detector, error) {
	l.mu.Lock()
	ld := l.current
	if ld == nil || ld.failed() {
		ld = &modelLoad{done: make(chan struct{})}
		l.current = ld
		go func() {
			ld.detector, ld.err = l.loadFn(context.Background())
			close(ld.done)
		}()
	}
	l.mu.Unlock()

	select {
	case <-ld.done:
		return ld.detector, ld.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// failed reports whether this load finished with an error.
func (ld *modelLoad) failed() bool {
	select {
	case <-ld.done:
		return ld.err != nil
	default:
		return false
	}
}
