// Package worker runs storage calls for a request with bounded concurrency.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
	"github.com/ewilliams-labs/takesort/internal/core/ports"
)

// DefaultWorkers keeps metadata lookups within typical backend rate limits.
const DefaultWorkers = 5

// Job is a single metadata lookup.
type Job struct {
	Index int
	Path  string
}

// Result is the outcome of a Job.
type Result struct {
	Path string
	File domain.FileDescriptor
	Err  error
}

// Pool issues metadata lookups with at most a fixed number in flight.
// A Pool holds no per-request state and can be shared across requests.
type Pool struct {
	storage ports.StorageBackend
	workers int
	logger  *log.Logger
}

// NewPool creates a pool backed by storage with the given worker count.
func NewPool(storage ports.StorageBackend, workers int, logger *log.Logger) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pool{storage: storage, workers: workers, logger: logger}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// FetchMetadata resolves every path and returns results in input order.
// Once ctx is done, jobs that have not started fail with the context error.
func (p *Pool) FetchMetadata(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	jobs := make(chan Job)
	var wg sync.WaitGroup
	for i := 0; i < min(p.workers, len(paths)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results[job.Index] = p.processJob(ctx, job)
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(paths); next++ {
		select {
		case jobs <- Job{Index: next, Path: paths[next]}:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(paths); i++ {
		results[i] = Result{Path: paths[i], Err: fmt.Errorf("worker: %w", ctx.Err())}
	}
	return results
}

func (p *Pool) processJob(ctx context.Context, job Job) Result {
	if err := ctx.Err(); err != nil {
		return Result{Path: job.Path, Err: fmt.Errorf("worker: %w", err)}
	}
	file, err := p.storage.GetFileMetadata(ctx, job.Path)
	if err != nil {
		p.logger.Printf("WARN worker: metadata lookup failed for %s: %v", job.Path, err)
		return Result{Path: job.Path, Err: err}
	}
	return Result{Path: job.Path, File: file}
}
