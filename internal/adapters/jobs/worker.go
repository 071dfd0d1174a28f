package jobs

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/pkg/logger"
	"github.com/mattsre/peakform/pkg/metrics"
)

// Default worker configuration constants.
const poolShutdownTimeout = 30 * time.Second

// Calibrator runs the model fit for a single job.
type Calibrator interface {
	Calibrate(ctx context.Context, history []model.TrainingDay, markers []model.PerformanceMarker) (model.ModelParameters, error)
}

// Sink receives results as workers finish jobs.
type Sink interface {
	Deliver(ctx context.Context, r Result)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, r Result)

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, r Result) { f(ctx, r) }

// Worker processes calibration jobs until stopped.
type Worker struct {
	queue      Queue
	calibrator Calibrator
	sink       Sink
	name       string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(queue Queue, calibrator Calibrator, sink Sink, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:      queue,
		calibrator: calibrator,
		sink:       sink,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("jobs"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop until ctx is canceled, the worker is shut
// down, or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobChan:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight job to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs a single job and delivers its result.
func (w *Worker) process(ctx context.Context, j Job) {
	params, err := w.calibrator.Calibrate(ctx, j.History, j.Markers)
	if err != nil {
		metrics.RecordJobError()
		w.logger.Error(ctx, "calibration job failed",
			logger.String("job_id", j.ID),
			logger.String("athlete_id", j.AthleteID),
			logger.Error(err),
		)
		w.sink.Deliver(ctx, Result{JobID: j.ID, AthleteID: j.AthleteID, Fingerprint: j.Fingerprint, Err: err})
		return
	}

	metrics.RecordJobProcessed()
	w.logger.Debug(ctx, "calibration job processed",
		logger.String("job_id", j.ID),
		logger.String("athlete_id", j.AthleteID),
		logger.Duration("queued_for", time.Since(j.Submitted)),
	)
	w.sink.Deliver(ctx, Result{JobID: j.ID, AthleteID: j.AthleteID, Fingerprint: j.Fingerprint, Params: params})
}

// Pool manages a fixed set of workers draining one queue.
type Pool struct {
	workers []*Worker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive workerCount defaults to
// the number of CPUs.
func NewPool(workerCount int, queue Queue, calibrator Calibrator, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("jobs-pool"),
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewWorker(
			queue,
			calibrator,
			sink,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerCount(0)
	return nil
}
