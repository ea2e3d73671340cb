package export

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/util"
)

// Job is one icon to export in a batch.
type Job struct {
	Icon  catalog.Icon
	Kind  Kind
	Size  int
	JobID int
}

// Result is the outcome of a Job.
type Result struct {
	Job  Job
	Path string
	Err  error
}

// Producer renders the artifact of a job.
type Producer func(ctx context.Context, job Job) (Artifact, error)

// WorkerPool runs export jobs on a fixed set of goroutines.
//
// **Architecture:**
//   - One Producer call and one Saver write per job
//   - Buffered job channel sized numWorkers × 2
//   - A single result channel; failures travel in Result.Err
//   - A panic inside a job becomes that job's error
//
// **Thread Safety:**
//   - Submit and FinishSubmitting may be called from any goroutine
//   - Results must be drained by exactly one consumer
//   - Stats may be read while the pool is running
//
// **Usage:**
//
//	pool := NewWorkerPool(0, produce, saver, logger)
//	pool.Start(ctx)
//
//	// Submit from a separate goroutine so results can drain.
//	go func() {
//	    defer pool.FinishSubmitting()
//	    for _, job := range jobs {
//	        pool.Submit(job)
//	    }
//	}()
//
//	for res := range pool.Results() {
//	    // Handle res.Path or res.Err
//	}
type WorkerPool struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
	produce    Producer
	saver      *Saver
	logger     *slog.Logger

	// Lifecycle management
	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	jobsClosed atomic.Bool // Tracks if jobs channel has been closed

	// Statistics
	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a new export pool.
//
// Parameters:
//   - numWorkers: Number of worker goroutines (0 = auto-detect)
//   - produce: Renders the artifact for each job
//   - saver: Writes artifacts into the output directory
//   - logger: Logger for worker messages (nil = slog.Default())
//
// Auto-detection uses: util.GetOptimalPoolSize()
func NewWorkerPool(numWorkers int, produce Producer, saver *Saver, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numWorkers*2), // Buffered for smooth pipeline
		results:    make(chan Result, numWorkers),
		produce:    produce,
		saver:      saver,
		logger:     util.OrDefault(logger),
	}
}

// Start spawns all worker goroutines.
//
// **IMPORTANT:** Must be called before submitting jobs.
//
// Results is closed once every worker has exited. Cancelling ctx makes the
// remaining queued jobs fail with the context error.
func (wp *WorkerPool) Start(ctx context.Context) {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("export pool already started")
		return
	}
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.Debug("starting export pool", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	go func() {
		wp.wg.Wait()
		close(wp.results)
		wp.cancel()
	}()
}

// worker is the main worker goroutine function.
//
// Each worker:
//  1. Receives jobs from the jobs channel
//  2. Produces and saves the artifact
//  3. Sends exactly one Result per job
//  4. Continues until the jobs channel is closed
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for job := range wp.jobs {
		res := wp.process(id, job)
		if res.Err != nil {
			wp.jobsFailed.Add(1)
			wp.logger.Debug("export job failed", "worker_id", id, "icon", job.Icon.Name, "error", res.Err)
		} else {
			wp.jobsProcessed.Add(1)
		}
		wp.results <- res
	}
}

// process runs one job. A panic in produce or Save is reported as the
// job's error and the worker moves on.
func (wp *WorkerPool) process(workerID int, job Job) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("export job panicked",
				"worker_id", workerID,
				"icon", job.Icon.Name,
				"panic", r,
				"stack", string(debug.Stack()))
			res = Result{Job: job, Err: fmt.Errorf("export %s: internal error: %v", job.Icon.Name, r)}
		}
	}()

	if err := wp.ctx.Err(); err != nil {
		return Result{Job: job, Err: err}
	}
	artifact, err := wp.produce(wp.ctx, job)
	if err != nil {
		return Result{Job: job, Err: err}
	}
	path, err := wp.saver.Save(wp.ctx, job.Icon.Name, artifact)
	return Result{Job: job, Path: path, Err: err}
}

// Submit enqueues a job.
//
// **IMPORTANT:** Blocks while the queue is full, so results must be drained
// concurrently. Returns an error before Start or after FinishSubmitting.
func (wp *WorkerPool) Submit(job Job) error {
	if !wp.started.Load() {
		return fmt.Errorf("export pool not started")
	}
	if wp.jobsClosed.Load() {
		return fmt.Errorf("export pool no longer accepts jobs")
	}
	wp.jobsSubmitted.Add(1)
	wp.jobs <- job
	return nil
}

// FinishSubmitting closes the job queue so workers exit once it drains.
// Safe to call more than once.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Results returns the result channel.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.results
}

// Stats returns a snapshot of the pool counters.
func (wp *WorkerPool) Stats() PoolStats {
	return PoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
	}
}

// PoolStats contains export pool counters.
type PoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
}

// BatchExport produces and saves every job and returns one Result per job,
// ordered like jobs.
//
// Parameters:
//   - jobs: Icons to export; JobID is assigned from the slice index
//   - produce: Renders the artifact for a job
//   - workers: Pool size (0 = util.GetOptimalPoolSize(), capped at len(jobs))
//
// A failing or panicking job never aborts the batch.
func (d *Dispatcher) BatchExport(ctx context.Context, jobs []Job, produce Producer, workers int) ([]Result, error) {
	if d.Saver == nil {
		return nil, fmt.Errorf("%w: no output directory configured", ErrFileSave)
	}
	if workers <= 0 {
		workers = util.GetOptimalPoolSize()
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	pool := NewWorkerPool(workers, produce, d.Saver, d.logger)
	pool.Start(ctx)

	go func() {
		defer pool.FinishSubmitting()
		for i, job := range jobs {
			job.JobID = i
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	results := make([]Result, len(jobs))
	for res := range pool.Results() {
		results[res.Job.JobID] = res
	}

	stats := pool.Stats()
	d.logger.Info("batch export finished",
		"jobs", len(jobs),
		"saved", stats.JobsProcessed,
		"failed", stats.JobsFailed)
	return results, nil
}
