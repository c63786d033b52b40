package artifact

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// pollInterval is how long an idle worker sleeps when the queue is empty.
const pollInterval = 2 * time.Second

// Pool runs a fixed number of workers that claim and process artifacts until
// the context is cancelled.
type Pool struct {
	queue     *Queue
	processor *Processor
	workers   int
	logger    *zap.Logger

	wg sync.WaitGroup
}

// NewPool creates a worker pool.
func NewPool(queue *Queue, processor *Processor, workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{queue: queue, processor: processor, workers: workers, logger: logger}
}

// Start launches the workers. It returns immediately; call Wait to block
// until all workers have drained after cancellation.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.logger.Info("worker pool started", zap.Int("workers", p.workers))
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.With(zap.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		a, err := p.queue.ClaimNext()
		if err != nil {
			logger.Error("claim failed", zap.Error(err))
			a = nil
		}
		if a == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}

		res := p.processor.Process(ctx, a)
		logger.Info("artifact processed",
			zap.String("artifact_id", a.ID),
			zap.String("outcome", string(res.Outcome)),
			zap.String("doc_type", string(res.DocType)))
	}
}
