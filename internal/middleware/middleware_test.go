package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/common"
	commonHttp "github.com/Alturino/storefront/internal/common/http"
	"github.com/Alturino/storefront/internal/log"
)

func TestRedact(t *testing.T) {
	body := map[string]interface{}{
		"method": "credit_card",
		"creditCard": map[string]interface{}{
			"number":     "4111111111111111",
			"holderName": "Ana Souza",
			"cvv":        "123",
		},
		"items": []interface{}{map[string]interface{}{"password": "x"}},
	}

	redacted := Redact(body).(map[string]interface{})
	card := redacted["creditCard"].(map[string]interface{})
	assert.Equal(t, "****", card["number"])
	assert.Equal(t, "****", card["cvv"])
	assert.Equal(t, "Ana Souza", card["holderName"])
	assert.Equal(t, "credit_card", redacted["method"])
	assert.Equal(t, "****", redacted["items"].([]interface{})[0].(map[string]interface{})["password"])

	// input is untouched
	assert.Equal(t, "4111111111111111", body["creditCard"].(map[string]interface{})["number"])
}

func TestLoggingKeepsBodyAndRequestID(t *testing.T) {
	var gotBody []byte
	var gotRequestID string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotRequestID = log.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout/promo", bytes.NewBufferString(`{"code":"luxe10"}`))
	req.Header.Set(commonHttp.HeaderRequestID, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.JSONEq(t, `{"code":"luxe10"}`, string(gotBody))
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "req-1", rec.Header().Get(commonHttp.HeaderRequestID))
}

func TestAuth(t *testing.T) {
	token, err := common.NewToken("session-1", "secret", time.Hour)
	require.NoError(t, err)

	type testCase struct {
		name          string
		authorization string
		wantStatus    int
	}

	testCases := []testCase{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", authorization: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", authorization: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "valid token", authorization: "Bearer " + token, wantStatus: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sessionID string
			handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sessionID, _ = common.SessionIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/checkout/cart", nil)
			if tc.authorization != "" {
				req.Header.Set(commonHttp.HeaderAuthorization, tc.authorization)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, "session-1", sessionID)
				return
			}
			body := map[string]interface{}{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "failed", body["status"])
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := RecoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
