// Copyright 2025 Quorial Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package taskqueue runs named background jobs on a bounded worker
// pool. Enqueue never blocks the caller on job execution; failures are
// retried per the job's policy and then absorbed into the log, never
// surfaced to the enqueuer.
package taskqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultWorkers is the pool size used when none is configured.
	DefaultWorkers = 4
	// DefaultMaxAttempts is the retry budget for jobs that do not set
	// their own.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the initial retry delay for jobs that do not
	// set their own.
	DefaultBaseDelay = time.Minute
)

// Handle identifies one enqueued job run.
type Handle string

// NewHandle allocates a handle for a job that has not been enqueued
// yet. Callers that persist the handle must do so before EnqueueAs,
// since the job may start running before EnqueueAs returns.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// Args carries a job's parameters. Values are strings so args stay
// trivially loggable and serializable.
type Args map[string]string

// JobFunc is the body of a background job.
type JobFunc func(ctx context.Context, args Args) error

// Job couples a job body with its retry policy.
type Job struct {
	Run JobFunc
	// MaxAttempts bounds total attempts including the first. Zero
	// means DefaultMaxAttempts.
	MaxAttempts int
	// BaseDelay is the first retry delay; it doubles per attempt. Zero
	// means DefaultBaseDelay.
	BaseDelay time.Duration
}

// Queue is the narrow enqueue-only view handed to services.
type Queue interface {
	Enqueue(ctx context.Context, name string, args Args) (Handle, error)
	EnqueueAs(ctx context.Context, handle Handle, name string, args Args) error
}

// WorkerPool implements Queue on an ants goroutine pool.
type WorkerPool struct {
	pool   *ants.Pool
	logger *slog.Logger

	mu     sync.RWMutex
	jobs   map[string]Job
	closed bool

	wg sync.WaitGroup
}

var _ Queue = (*WorkerPool)(nil)

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *WorkerPool) {
		p.logger = logger
	}
}

// NewWorkerPool creates a pool with the given number of workers;
// size <= 0 falls back to DefaultWorkers.
func NewWorkerPool(size int, opts ...PoolOption) (*WorkerPool, error) {
	if size <= 0 {
		size = DefaultWorkers
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	p := &WorkerPool{
		pool:   pool,
		logger: slog.Default(),
		jobs:   make(map[string]Job),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Register binds a job name to its body and retry policy. Registering
// the same name again replaces the previous binding.
func (p *WorkerPool) Register(name string, job Job) {
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = DefaultMaxAttempts
	}
	if job.BaseDelay <= 0 {
		job.BaseDelay = DefaultBaseDelay
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs[name] = job
}

// Enqueue schedules one run of a registered job under a fresh handle
// and returns immediately. The job runs detached from the caller's
// context lifetime but inherits its values.
func (p *WorkerPool) Enqueue(ctx context.Context, name string, args Args) (Handle, error) {
	handle := NewHandle()
	if err := p.EnqueueAs(ctx, handle, name, args); err != nil {
		return "", err
	}
	return handle, nil
}

// EnqueueAs schedules one run of a registered job under a
// caller-allocated handle. It lets the caller record the handle in
// durable state before the job can observe or mutate that state.
func (p *WorkerPool) EnqueueAs(ctx context.Context, handle Handle, name string, args Args) error {
	p.mu.RLock()
	job, ok := p.jobs[name]
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !ok {
		return ErrUnknownJob
	}

	jobCtx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()

		runErr := RetryWithBackoff(jobCtx, func() error {
			return job.Run(jobCtx, args)
		}, job.MaxAttempts, job.BaseDelay)

		if runErr != nil {
			p.logger.Error("background job failed",
				"job", name, "handle", string(handle), "error", runErr)
			return
		}
		p.logger.Debug("background job finished", "job", name, "handle", string(handle))
	})
	if err != nil {
		p.wg.Done()
		return err
	}

	p.logger.Debug("background job enqueued", "job", name, "handle", string(handle))
	return nil
}

// Drain blocks until every enqueued job has finished.
func (p *WorkerPool) Drain() {
	p.wg.Wait()
}

// Release drains the pool and frees its workers. The pool cannot be
// used afterwards.
func (p *WorkerPool) Release() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	p.pool.Release()
}
