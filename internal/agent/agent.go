// Package agent implements the job agent of spec §4.9/C9: a bounded worker
// pool draining a FIFO queue of typed jobs (refresh-feed, subscribe-feed,
// get-posts, ...), each firing a completion callback on the worker
// goroutine that ran it, with graceful drain on shutdown.
//
// Grounded on the teacher's internal/application/worker.Worker Start/Stop
// signal-handling idiom and on
// _examples/Saul-Punybz-folio-pr/cmd/worker/main.go's sync.WaitGroup
// in-flight tracking, generalized from "one consumer" to "N pool workers
// draining one queue".
package agent

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// JobFunc is the work a Job performs once dequeued.
type JobFunc func(ctx context.Context) (any, error)

// Job is one unit of work submitted to the Agent. ResourceKey, if non-empty,
// serializes this job against any other job sharing the same key — the
// engine's stand-in for the teacher's insert+last-insert-id guard, here
// protecting concurrent operations against the same feed/source instead
// (spec: "a feed is never refreshed by two workers at once").
type Job struct {
	Kind        string
	ResourceKey string
	Run         JobFunc
	OnComplete  func(result any, err error)
}

// Agent is a bounded worker pool draining a FIFO job queue.
type Agent struct {
	workers int
	logger  *zap.Logger

	queue chan *Job
	wg    sync.WaitGroup

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns an Agent with the given worker count and an unbounded-ish
// (1024-deep) job queue; Start must be called before Enqueue.
func New(workers int, logger *zap.Logger) *Agent {
	if workers < 1 {
		workers = 1
	}
	return &Agent{
		workers: workers,
		logger:  logger,
		queue:   make(chan *Job, 1024),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Start launches the worker pool.
func (a *Agent) Start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(a.workers)
	for i := 0; i < a.workers; i++ {
		go a.work()
	}
}

func (a *Agent) work() {
	defer a.wg.Done()
	for job := range a.queue {
		a.run(job)
	}
}

func (a *Agent) run(job *Job) {
	if job.ResourceKey != "" {
		lock := a.resourceLock(job.ResourceKey)
		lock.Lock()
		defer lock.Unlock()
	}
	result, err := job.Run(a.ctx)
	if err != nil && a.logger != nil {
		a.logger.Error("job failed", zap.String("kind", job.Kind), zap.Error(err))
	}
	if job.OnComplete != nil {
		job.OnComplete(result, err)
	}
}

func (a *Agent) resourceLock(key string) *sync.Mutex {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()
	lock, ok := a.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[key] = lock
	}
	return lock
}

// Enqueue submits job to the queue. It blocks if the queue is full.
func (a *Agent) Enqueue(job *Job) {
	a.queue <- job
}

// Stop closes the queue and blocks until every already-enqueued job has
// run to completion (spec: "shutdown drains the queue, it never drops a
// job").
func (a *Agent) Stop() {
	close(a.queue)
	a.wg.Wait()
	if a.cancel != nil {
		a.cancel()
	}
}
