package order

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	commonHttp "github.com/Alturino/storefront/internal/common/http"
)

func TestHTTPSubmitter(t *testing.T) {
	remoteID := uuid.New()

	type testCase struct {
		name      string
		handler   func(payload Payload) http.HandlerFunc
		wantError error
		wantID    func(payload Payload) uuid.UUID
	}

	testCases := []testCase{
		{
			name: "uses receipt from endpoint",
			handler: func(payload Payload) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusCreated)
					_ = json.NewEncoder(w).Encode(Receipt{OrderID: remoteID, Status: StatusPlaced, PlacedAt: time.Now()})
				}
			},
			wantID: func(Payload) uuid.UUID { return remoteID },
		},
		{
			name: "empty success body falls back to payload id",
			handler: func(payload Payload) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusAccepted)
				}
			},
			wantID: func(payload Payload) uuid.UUID { return payload.ID },
		},
		{
			name: "server error",
			handler: func(payload Payload) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
				}
			},
			wantError: checkoutErrors.ErrOrderSubmission,
		},
		{
			name: "rejected payload",
			handler: func(payload Payload) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusUnprocessableEntity)
				}
			},
			wantError: checkoutErrors.ErrOrderSubmission,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := newPayload("session-1")
			server := httptest.NewServer(tc.handler(payload))
			defer server.Close()

			submitter := NewHTTPSubmitter(server.Client(), server.URL+"/orders")
			receipt, err := submitter.Submit(testContext(), payload)
			if tc.wantError != nil {
				assert.ErrorIs(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID(payload), receipt.OrderID)
			assert.Equal(t, StatusPlaced, receipt.Status)
		})
	}
}

func TestHTTPSubmitterSendsMaskedPayload(t *testing.T) {
	var body string
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		contentType = r.Header.Get(commonHttp.HeaderContentType)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	payload := newPayload("session-1")
	_, err := NewHTTPSubmitter(server.Client(), server.URL).Submit(testContext(), payload)
	require.NoError(t, err)

	assert.Equal(t, commonHttp.HeaderValueJson, contentType)
	assert.True(t, strings.Contains(body, `"last4":"1111"`))
	assert.False(t, strings.Contains(body, "cvv"))

	decoded := Payload{}
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, payload.ID, decoded.ID)
	assert.True(t, payload.Pricing.Total.Equal(decoded.Pricing.Total))
}

func TestHTTPSubmitterUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewHTTPSubmitter(http.DefaultClient, url).Submit(testContext(), newPayload("session-1"))
	assert.ErrorIs(t, err, checkoutErrors.ErrOrderSubmission)
}
