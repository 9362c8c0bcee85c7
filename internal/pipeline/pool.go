package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/cmejia89/fiestabox/internal/logger"
)

// ErrPoolSaturated is returned when the job queue is full.
var ErrPoolSaturated = errors.New("download queue is full")

// Job is one unit of background work.
type Job func(ctx context.Context)

// Pool runs jobs on a fixed number of workers. Submissions never spawn
// goroutines of their own, so a burst of requests can't fork-bomb the host.
type Pool struct {
	workers int
	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *logger.Logger
}

func NewPool(workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, 100),
		ctx:     ctx,
		cancel:  cancel,
		log:     log.WithComponent("pool"),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info("worker pool started", "workers", p.workers)
}

// Stop cancels in-flight jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		return ErrPoolSaturated
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			job(p.ctx)
		}
	}
}
