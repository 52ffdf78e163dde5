// Package worker provides a context-aware goroutine pool for background
// batch execution. All detached concurrency goes through a Pool so the
// process can drain cleanly on shutdown.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware unit of work.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context propagation and a lifecycle owned by the
// process, not by individual requests.
type Pool struct {
	pool   *ants.Pool
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// New creates a pool of the given size. Tasks receive a context derived from
// ctx; cancelling it (via Release) signals in-flight tasks.
func New(ctx context.Context, name string, size int, logger *slog.Logger) (*Pool, error) {
	p, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		pool:   p,
		name:   name,
		ctx:    poolCtx,
		cancel: cancel,
		logger: logger.With(slog.String("pool", name)),
	}, nil
}

// Submit schedules a task on the pool. The task runs with the pool's
// lifecycle context, not the submitter's: request contexts end with the HTTP
// response while the task keeps running.
func (p *Pool) Submit(task Task) error {
	if p.pool.IsClosed() {
		return ErrPoolClosed
	}
	return p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Worker task panicked", slog.Any("panic", r))
			}
		}()
		task(p.ctx)
	})
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release cancels the pool context and releases the underlying pool.
func (p *Pool) Release() {
	p.cancel()
	p.pool.Release()
}
