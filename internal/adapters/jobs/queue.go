// Package jobs provides a bounded in-memory queue and worker pool for
// asynchronous calibration. Callers submit calibration requests and
// receive results through a sink once a worker has run the solver.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Job is a single calibration request flowing through the queue.
type Job struct {
	ID        string
	AthleteID string
	// Fingerprint is an opaque digest of the inputs, carried through so
	// the submitter can key caches off the result.
	Fingerprint string
	History     []model.TrainingDay
	Markers     []model.PerformanceMarker
	Submitted   time.Time
}

// Result carries the outcome of a processed job.
type Result struct {
	JobID       string
	AthleteID   string
	Fingerprint string
	Params      model.ModelParameters
	Err         error
}

// Queue provides bounded enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job to the queue. Returns ErrQueueFull when the
	// queue is at capacity and ErrQueueClosed after Close.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that yields jobs as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len() int

	// Close stops the queue. No new jobs can be enqueued afterwards.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...QueueOption) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueDepth(0)

	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- j:
		metrics.UpdateQueueDepth(len(q.jobs))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue returns a channel that yields jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.UpdateQueueDepth(len(q.jobs))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Close stops the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
