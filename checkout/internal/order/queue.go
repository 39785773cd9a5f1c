package order

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/checkout/internal/otel"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/log"
)

type Result struct {
	Receipt Receipt
	Err     error
}

type Request struct {
	Context       context.Context
	Payload       Payload
	ResultChannel chan<- Result
}

// Queue hands payloads to a Worker and waits for the outcome.
type Queue struct {
	requests chan Request
}

func NewQueue(size int) *Queue {
	return &Queue{requests: make(chan Request, size)}
}

func (q *Queue) Requests() <-chan Request {
	return q.requests
}

func (q *Queue) Submit(c context.Context, payload Payload) (Receipt, error) {
	c, span := otel.Tracer.Start(c, "Queue Submit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Queue Submit").
		Str(log.KeyOrderID, payload.ID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "enqueueing order").Logger()
	logger.Info().Msg("enqueueing order")
	resultChannel := make(chan Result, 1)
	c = logger.WithContext(c)
	select {
	case q.requests <- Request{Context: c, Payload: payload, ResultChannel: resultChannel}:
	case <-c.Done():
		err := fmt.Errorf("failed enqueueing order with error=%w", c.Err())
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger.Info().Msg("enqueued order")

	logger = logger.With().Str(log.KeyProcess, "waiting order result").Logger()
	logger.Info().Msg("waiting order result")
	select {
	case result := <-resultChannel:
		if result.Err != nil {
			err := fmt.Errorf("failed persisting order with error=%w", result.Err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Receipt{}, err
		}
		logger.Info().Msg("received order result")
		return result.Receipt, nil
	case <-c.Done():
		err := fmt.Errorf("stopped waiting order result with error=%w", c.Err())
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
}

var _ Submitter = (*Queue)(nil)
