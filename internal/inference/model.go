package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// LoadFunc produces a ready-to-use classifier handle.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Model is a write-once handle to a classifier that loads in the background.
// Readers see either no handle (not ready) or the final one. A failed load
// can be attempted again; a successful one is never repeated.
type Model[T any] struct {
	name   string
	load   LoadFunc[T]
	mu     sync.Mutex // Serializes loader calls
	handle atomic.Pointer[T]
}

// NewModel creates an unloaded model. Call Load to initialize it.
func NewModel[T any](name string, load LoadFunc[T]) *Model[T] {
	return &Model[T]{name: name, load: load}
}

// Ready returns a model that is already loaded with handle.
func Ready[T any](name string, handle T) *Model[T] {
	m := &Model[T]{name: name}
	m.handle.Store(&handle)
	return m
}

// Name returns the model name used in logs and readiness reports.
func (m *Model[T]) Name() string {
	return m.name
}

// Load runs the loader unless the model is already loaded. Concurrent
// callers wait for the attempt in progress.
func (m *Model[T]) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle.Load() != nil {
		return nil
	}
	if m.load == nil {
		return fmt.Errorf("model %s: no loader", m.name)
	}

	handle, err := m.load(ctx)
	if err != nil {
		return fmt.Errorf("loading model %s: %w", m.name, err)
	}
	m.handle.Store(&handle)
	return nil
}

// Ready reports whether the model finished loading successfully.
func (m *Model[T]) Ready() bool {
	return m.handle.Load() != nil
}

// Get returns the loaded handle, or ErrModelNotReady.
func (m *Model[T]) Get() (T, error) {
	p := m.handle.Load()
	if p == nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", m.name, ErrModelNotReady)
	}
	return *p, nil
}

// Loadable is any model that can be loaded and queried for readiness.
type Loadable interface {
	Name() string
	Load(ctx context.Context) error
	Ready() bool
}

const (
	defaultMinRetryDelay = time.Second
	defaultMaxRetryDelay = time.Minute
)

// Loader loads models in the background and retries failed attempts with
// exponential backoff until they succeed, fail permanently or ctx is done.
type Loader struct {
	Logger *slog.Logger

	// AttemptTimeout bounds a single load attempt. Zero means no bound.
	AttemptTimeout time.Duration

	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration

	// Permanent reports errors that retrying cannot fix, such as a
	// rejected credential. Nil treats every error as transient.
	Permanent func(error) bool
}

// LoadAll loads every model concurrently in the background. The returned
// channel is closed once every model is loaded or has given up.
// A failing model does not stop the others.
func (l Loader) LoadAll(ctx context.Context, models ...Loadable) <-chan struct{} {
	l = l.withDefaults()
	done := make(chan struct{})

	var g errgroup.Group
	for _, m := range models {
		g.Go(func() error {
			return l.load(ctx, m)
		})
	}

	go func() {
		defer close(done)
		if err := g.Wait(); err != nil {
			l.Logger.Warn("Not all models loaded, affected analyzers will answer the fallback label", "error", err)
			return
		}
		l.Logger.Info("All models loaded successfully")
	}()

	return done
}

func (l Loader) withDefaults() Loader {
	if l.Logger == nil {
		l.Logger = slog.Default()
	}
	if l.MinRetryDelay <= 0 {
		l.MinRetryDelay = defaultMinRetryDelay
	}
	if l.MaxRetryDelay < l.MinRetryDelay {
		l.MaxRetryDelay = max(defaultMaxRetryDelay, l.MinRetryDelay)
	}
	return l
}

func (l Loader) load(ctx context.Context, m Loadable) error {
	start := time.Now()
	delay := l.MinRetryDelay

	for attempt := 1; ; attempt++ {
		l.Logger.Info("Loading model", "model", m.Name(), "attempt", attempt)

		err := l.attempt(ctx, m)
		if err == nil {
			l.Logger.Info("Model loaded", "model", m.Name(), "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		}

		if l.Permanent != nil && l.Permanent(err) {
			l.Logger.Error("Model failed to load, not retrying", "model", m.Name(), "error", err)
			return err
		}
		if ctx.Err() != nil {
			l.Logger.Error("Model failed to load before giving up", "model", m.Name(), "error", err)
			return errors.Join(err, ctx.Err())
		}

		l.Logger.Warn("Model failed to load, retrying", "model", m.Name(), "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			l.Logger.Error("Model failed to load before giving up", "model", m.Name(), "error", err)
			return errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
		delay = min(delay*2, l.MaxRetryDelay)
	}
}

func (l Loader) attempt(ctx context.Context, m Loadable) error {
	if l.AttemptTimeout <= 0 {
		return m.Load(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, l.AttemptTimeout)
	defer cancel()
	return m.Load(ctx)
}
