package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/internal/common/constants"
	"github.com/Alturino/storefront/internal/log"
)

const (
	DefaultInterval  = 300 * time.Millisecond
	DefaultBatchSize = 50
)

// Worker drains the queue in batches on a ticker and stores each order in
// its own transaction.
type Worker struct {
	store     Store
	queue     <-chan Request
	interval  time.Duration
	batchSize int
}

func NewWorker(store Store, queue <-chan Request, interval time.Duration, batchSize int) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Worker{store: store, queue: queue, interval: interval, batchSize: batchSize}
}

func (wrk *Worker) StartWorker(c context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Worker StartWorker").
		Str(log.KeyAppName, constants.APP_ORDER_WORKER).
		Dur(log.KeyWorkerInterval, wrk.interval).
		Int(log.KeyOrderBatchSize, wrk.batchSize).
		Logger()
	logger.Info().Msg("started order worker")

	ticker := time.NewTicker(wrk.interval)
	defer ticker.Stop()
	batch := make([]Request, 0, wrk.batchSize)

	for {
		select {
		case <-c.Done():
			for _, request := range batch {
				request.ResultChannel <- Result{Err: fmt.Errorf("order worker stopped with error=%w", c.Err())}
			}
			logger.Info().Msg("stopped order worker")
			return
		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
			wrk.flush(logger.WithContext(c), batch)
			batch = batch[:0]
		case request := <-wrk.queue:
			batch = append(batch, request)
			if len(batch) >= wrk.batchSize {
				wrk.flush(logger.WithContext(c), batch)
				batch = batch[:0]
			}
		}
	}
}

func (wrk *Worker) flush(c context.Context, batch []Request) {
	batchID := uuid.NewString()
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyRequestID, batchID).
		Int(log.KeyOrderBatchSize, len(batch)).
		Str(log.KeyProcess, "flushing order batch").
		Logger()
	logger.Info().Msg("flushing order batch")

	failed := 0
	for _, request := range batch {
		rc := request.Context
		if err := rc.Err(); err != nil {
			request.ResultChannel <- Result{Err: rejected(rc)}
			failed++
			continue
		}

		receipt, err := wrk.store.InsertOrder(rc, request.Payload)
		if err != nil {
			failed++
		}
		request.ResultChannel <- Result{Receipt: receipt, Err: err}
	}
	logger.Info().Int("failed", failed).Msg("flushed order batch")
}

func rejected(c context.Context) error {
	return fmt.Errorf(
		"order request cancelled with error=%w",
		errors.Join(c.Err(), checkoutErrors.ErrSubmissionAbandoned),
	)
}
