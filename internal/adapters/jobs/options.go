package jobs

import (
	"github.com/mattsre/peakform/pkg/logger"
)

// QueueOption applies a configuration option to the InMemoryQueue.
type QueueOption func(*InMemoryQueue)

// WithCapacity sets the maximum number of queued jobs.
func WithCapacity(capacity int) QueueOption {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WorkerOption applies a configuration option to a Worker.
type WorkerOption func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) WorkerOption {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
