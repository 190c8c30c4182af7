package analysis

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkerCount is the execution service's worker budget when the
// caller does not supply one.
const DefaultWorkerCount = 4

// ErrServiceClosed is the outcome of a job scheduled after Shutdown.
var ErrServiceClosed = errors.New("analysis: execution service is shut down")

// DatasetLoader produces the dataset for a scheduled job. It runs inside
// the worker, not on the submitting goroutine, so enqueueing never blocks
// on I/O.
type DatasetLoader func() (*Dataset, error)

// Future is the handle for a scheduled job. It resolves exactly once, to
// either a result or an error.
type Future struct {
	done   chan struct{}
	result *Result
	err    error
}

// Done returns a channel that is closed when the job has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the job finishes or the context is cancelled. A
// context cancellation abandons the wait, not the job: the worker still
// runs the handler to completion.
func (f *Future) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) resolve(result *Result, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// ExecutionService orchestrates module invocations against a registry. At
// most workers jobs run concurrently; ExecuteNow runs on the caller's own
// goroutine and does not count against the budget.
type ExecutionService struct {
	registry *Registry
	workers  *semaphore.Weighted

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewExecutionService creates a service over the registry with the given
// worker budget. A non-positive count falls back to DefaultWorkerCount.
func NewExecutionService(registry *Registry, workerCount int) *ExecutionService {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	return &ExecutionService{
		registry: registry,
		workers:  semaphore.NewWeighted(int64(workerCount)),
	}
}

// ExecuteNow runs one module invocation synchronously: module lookup,
// parameter validation, requirement check, then the handler. Each failure
// kind propagates as its own error type; handler errors pass through
// untouched, with no retry and no partial result.
func (s *ExecutionService) ExecuteNow(ds *Dataset, actx *Context, req *ExecutionRequest) (*Result, error) {
	registered, err := s.registry.Get(req.ModuleID)
	if err != nil {
		return nil, err
	}
	params, err := ValidateParameters(registered.Definition, req.Parameters)
	if err != nil {
		return nil, err
	}
	if err := s.registry.EnsureRequirements(registered.Definition, ds); err != nil {
		return nil, err
	}
	return registered.Handler.Execute(ds, params, actx)
}

// Schedule submits a job to the worker pool and returns immediately. The
// worker first invokes the loader to obtain the dataset, then performs the
// same steps as ExecuteNow. The returned future carries the outcome.
func (s *ExecutionService) Schedule(loader DatasetLoader, actx *Context, req *ExecutionRequest) *Future {
	future := &Future{done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		future.resolve(nil, ErrServiceClosed)
		return future
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if err := s.workers.Acquire(context.Background(), 1); err != nil {
			future.resolve(nil, err)
			return
		}
		defer s.workers.Release(1)

		ds, err := loader()
		if err != nil {
			future.resolve(nil, err)
			return
		}
		future.resolve(s.ExecuteNow(ds, actx, req))
	}()

	return future
}

// Shutdown stops accepting new jobs. With wait set it blocks until every
// queued and running job has finished; otherwise it returns immediately.
func (s *ExecutionService) Shutdown(wait bool) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if wait {
		s.wg.Wait()
	}
}
