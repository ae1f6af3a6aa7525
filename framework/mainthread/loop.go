// Package mainthread confines work to a single goroutine.
//
// The dependency-injection runtime does no locking; every scope, bridge and
// lifecycle call has to happen on one goroutine. HTTP handlers run on many,
// so they hand their DI work to a Loop:
//
//	loop := mainthread.New(mainthread.WithLogger(log))
//	go loop.Run(ctx)
//
//	err := loop.Do(r.Context(), func() error {
//	    vm, err := container.Resolve[*viewmodel.Cart](scope)
//	    ...
//	})
//
// Never call Do from inside a task: the loop would wait on itself.
package mainthread

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrStopped is returned for work submitted after Run returned.
	ErrStopped = errors.New("mainthread: loop stopped")
	// ErrRunning is returned when Run is called on a loop that already ran.
	ErrRunning = errors.New("mainthread: loop already started")
)

// PanicError is returned by Do when the task panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("mainthread: task panicked: %v", e.Value) }

type task struct {
	fn   func() error
	done chan error
}

// Loop runs submitted tasks one at a time, in submission order.
type Loop struct {
	tasks   chan task
	stopped chan struct{}
	started atomic.Bool
	log     *zap.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l *zap.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.log = l
		}
	}
}

// WithBacklog sets how many tasks may queue before submitters block.
func WithBacklog(n int) Option {
	return func(lp *Loop) {
		if n >= 0 {
			lp.tasks = make(chan task, n)
		}
	}
}

// New returns a loop that is not yet running.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:   make(chan task, 64),
		stopped: make(chan struct{}),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("mainthread")
	return l
}

// Run executes tasks until ctx is done. Tasks still queued when ctx ends are
// not run; their submitters get ErrStopped. Run returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(l.stopped)

	l.log.Debug("loop started")
	for {
		select {
		case <-ctx.Done():
			l.drain()
			l.log.Debug("loop stopped")
			return nil
		case t := <-l.tasks:
			l.run(t)
		}
	}
}

// Do runs fn on the loop and waits for it. It returns fn's error, a
// *PanicError if fn panicked, ctx's error if ctx ended before fn ran, or
// ErrStopped.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	if l.isStopped() {
		return ErrStopped
	}
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case l.tasks <- t:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-t.done:
		return err
	case <-l.stopped:
		select {
		case err := <-t.done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		// fn may still run; its result is dropped
		return ctx.Err()
	}
}

// Post queues fn without waiting for it. A panic in fn is logged.
func (l *Loop) Post(fn func()) error {
	if l.isStopped() {
		return ErrStopped
	}
	t := task{fn: func() error { fn(); return nil }}
	select {
	case l.tasks <- t:
		return nil
	case <-l.stopped:
		return ErrStopped
	}
}

// Call runs fn on l and returns its result.
func Call[T any](ctx context.Context, l *Loop, fn func() (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func() error {
		v, err := fn()
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (l *Loop) run(t task) {
	err := l.safely(t.fn)
	if t.done != nil {
		t.done <- err
		return
	}
	if err != nil {
		l.log.Error("posted task failed", zap.Error(err))
	}
}

func (l *Loop) safely(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	return fn()
}

func (l *Loop) isStopped() bool {
	select {
	case <-l.stopped:
		return true
	default:
		return false
	}
}

func (l *Loop) drain() {
	for {
		select {
		case t := <-l.tasks:
			if t.done != nil {
				t.done <- ErrStopped
			}
		default:
			return
		}
	}
}
