package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// Job is one instrument to backtest. When Load is set the worker calls it to
// obtain the series; otherwise Series is used as given.
type Job struct {
	Symbol string
	Series types.Series
	Load   func(ctx context.Context) (types.Series, error)
}

// JobResult is the outcome of a Job. Exactly one of Result and Error is set.
type JobResult struct {
	Symbol   string
	Result   *Result
	Duration time.Duration
	Error    error
}

// WorkerPool runs instrument backtests in parallel. Each job gets its own
// ledger, so workers share nothing but the immutable engine.
type WorkerPool struct {
	engine      *Engine
	workerCount int
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	progress    *ProgressTracker
}

// NewWorkerPool creates a pool for a single batch. workerCount <= 0 means one
// worker per CPU.
func NewWorkerPool(engine *Engine, workerCount int, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobBufferSize < 0 {
		jobBufferSize = 0
	}

	return &WorkerPool{
		engine:      engine,
		workerCount: workerCount,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
	}
}

// Start launches the workers. Cancelling ctx makes workers stop picking up jobs.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Close signals that no more jobs will be submitted. The results channel is
// closed once every in-flight job has reported.
func (wp *WorkerPool) Close() {
	close(wp.jobQueue)
	go func() {
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
	}()
}

// Stop cancels outstanding work without waiting for it.
func (wp *WorkerPool) Stop() {
	if wp.cancel != nil {
		wp.cancel()
	}
}

// SubmitJob queues a job, blocking while the queue is full.
func (wp *WorkerPool) SubmitJob(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the result channel for collecting completed jobs
func (wp *WorkerPool) GetResults() <-chan JobResult {
	return wp.resultQueue
}

// Progress returns the tracker of the current RunAll call, if any.
func (wp *WorkerPool) Progress() *ProgressTracker {
	return wp.progress
}

// RunAll executes jobs and returns their results in submission order. Jobs
// that never ran because ctx ended carry ctx's error.
func (wp *WorkerPool) RunAll(ctx context.Context, jobs []Job) []JobResult {
	wp.progress = NewProgressTracker(len(jobs))
	wp.Start(ctx)

	go func() {
		defer wp.Close()
		for _, job := range jobs {
			if err := wp.SubmitJob(job); err != nil {
				return
			}
		}
	}()

	bySymbol := make(map[string]JobResult, len(jobs))
	for res := range wp.resultQueue {
		bySymbol[res.Symbol] = res
		wp.progress.Increment()
	}

	results := make([]JobResult, len(jobs))
	for i, job := range jobs {
		res, ok := bySymbol[job.Symbol]
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			res = JobResult{Symbol: job.Symbol, Error: fmt.Errorf("%s: not run: %w", job.Symbol, err)}
		}
		results[i] = res
	}
	return results
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob runs one job. A panic is turned into that job's error so the
// rest of the batch carries on.
func (wp *WorkerPool) processJob(job Job) (out JobResult) {
	start := time.Now()
	out.Symbol = job.Symbol

	defer func() {
		if r := recover(); r != nil {
			out.Result = nil
			out.Error = fmt.Errorf("%s: backtest panicked: %v", job.Symbol, r)
		}
		out.Duration = time.Since(start)
	}()

	series := job.Series
	if job.Load != nil {
		loaded, err := job.Load(wp.ctx)
		if err != nil {
			out.Error = err
			return out
		}
		series = loaded
	}
	if series.Symbol == "" {
		series.Symbol = job.Symbol
	}

	result, err := wp.engine.Run(series)
	if err != nil {
		out.Error = err
		return out
	}
	out.Result = result
	return out
}

// ProgressTracker tracks the progress of batch processing
type ProgressTracker struct {
	total     int
	completed int
	startTime time.Time
	mutex     sync.RWMutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Increment increments the completion count
func (pt *ProgressTracker) Increment() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.completed++
}

// GetProgress returns completed, total, percent done and elapsed time.
func (pt *ProgressTracker) GetProgress() (int, int, float64, time.Duration) {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	elapsed := time.Since(pt.startTime)
	progress := 0.0
	if pt.total > 0 {
		progress = float64(pt.completed) / float64(pt.total) * 100
	}
	return pt.completed, pt.total, progress, elapsed
}
