// Package dispatch runs fire-and-forget enrichment tasks on a bounded worker
// pool. A task owns only the document id; state is always reloaded from the
// repository by the enrichment usecase.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
	"github.com/mpetrenko/doc-enrichment/internal/observability/metrics"
)

type Pool struct {
	pool        *ants.Pool
	enricher    ports.DocumentEnricher
	taskTimeout time.Duration
	metrics     *metrics.WorkerMetrics
	service     string
	logger      *slog.Logger
}

type Config struct {
	Size        int
	TaskTimeout time.Duration
	Service     string
}

func New(enricher ports.DocumentEnricher, cfg Config, workerMetrics *metrics.WorkerMetrics, logger *slog.Logger) (*Pool, error) {
	size := cfg.Size
	if size <= 0 {
		size = runtime.NumCPU()
		if size < 1 {
			size = 1
		}
	}
	taskTimeout := cfg.TaskTimeout
	if taskTimeout <= 0 {
		taskTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{
		pool:        pool,
		enricher:    enricher,
		taskTimeout: taskTimeout,
		metrics:     workerMetrics,
		service:     cfg.Service,
		logger:      logger,
	}, nil
}

// Submit queues one enrichment attempt. The trigger's context may die as soon
// as the queue callback returns, so the task detaches from its cancellation
// and is bounded by the task timeout alone.
func (p *Pool) Submit(ctx context.Context, documentID string) error {
	base := context.WithoutCancel(ctx)
	return p.pool.Submit(func() {
		taskCtx, cancel := context.WithTimeout(base, p.taskTimeout)
		defer cancel()

		start := time.Now()
		if p.metrics != nil {
			p.metrics.StartEnrichment()
		}
		err := p.enricher.ScheduleByID(taskCtx, documentID)
		if p.metrics != nil {
			p.metrics.FinishEnrichment(p.service, time.Since(start), err)
		}
	})
}

// Handle adapts Submit to the queue subscription callback.
func (p *Pool) Handle(ctx context.Context, documentID string) error {
	if err := p.Submit(ctx, documentID); err != nil {
		p.logger.Warn("enrichment_task_dropped", "document_id", documentID, "error", err)
	}
	return nil
}

func (p *Pool) Release() {
	p.pool.Release()
}
