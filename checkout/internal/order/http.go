package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/checkout/internal/otel"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	commonHttp "github.com/Alturino/storefront/internal/common/http"
	"github.com/Alturino/storefront/internal/log"
)

// HTTPSubmitter posts the payload to an external order endpoint.
type HTTPSubmitter struct {
	client *http.Client
	url    string
	now    func() time.Time
}

func NewHTTPSubmitter(client *http.Client, url string) *HTTPSubmitter {
	return &HTTPSubmitter{client: client, url: url, now: time.Now}
}

func (s *HTTPSubmitter) Submit(c context.Context, payload Payload) (Receipt, error) {
	c, span := otel.Tracer.Start(c, "HTTPSubmitter Submit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "HTTPSubmitter Submit").
		Str(log.KeyOrderID, payload.ID.String()).
		Str(log.KeySubmitterURL, s.url).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "marshaling payload").Logger()
	body, err := json.Marshal(payload)
	if err != nil {
		err = fmt.Errorf("failed marshaling payload with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "posting order").Logger()
	logger.Info().Msg("posting order")
	req, err := http.NewRequestWithContext(c, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	req.Header.Set(commonHttp.HeaderContentType, commonHttp.HeaderValueJson)
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set(commonHttp.HeaderRequestID, requestID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed posting order with error=%w", errors.Join(checkoutErrors.ErrOrderSubmission, err))
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	defer resp.Body.Close()
	logger = logger.With().Int(log.KeyResponseStatus, resp.StatusCode).Logger()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		err = fmt.Errorf("order endpoint responded status=%d with error=%w", resp.StatusCode, checkoutErrors.ErrOrderSubmission)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger.Info().Msg("posted order")

	receipt := Receipt{}
	err = json.NewDecoder(resp.Body).Decode(&receipt)
	if err != nil || receipt.OrderID == uuid.Nil {
		logger.Trace().Msg("endpoint returned no receipt, using payload id")
		receipt = Receipt{OrderID: payload.ID, Status: StatusPlaced, PlacedAt: s.now().UTC()}
	}
	if receipt.Status == "" {
		receipt.Status = StatusPlaced
	}

	return receipt, nil
}

var _ Submitter = (*HTTPSubmitter)(nil)
