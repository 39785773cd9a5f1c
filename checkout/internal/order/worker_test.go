package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
)

type fakeStore struct {
	mu       sync.Mutex
	payloads []Payload
	err      error
}

func (s *fakeStore) InsertOrder(_ context.Context, payload Payload) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Receipt{}, s.err
	}
	s.payloads = append(s.payloads, payload)
	return Receipt{OrderID: payload.ID, Status: StatusPlaced, PlacedAt: time.Now()}, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func startWorker(t *testing.T, store Store, interval time.Duration, batchSize int) *Queue {
	t.Helper()
	c, cancel := context.WithCancel(testContext())
	queue := NewQueue(1)
	worker := NewWorker(store, queue.Requests(), interval, batchSize)

	var wg sync.WaitGroup
	wg.Add(1)
	go worker.StartWorker(c, &wg)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return queue
}

func TestQueueSubmit(t *testing.T) {
	type testCase struct {
		name      string
		storeErr  error
		wantError bool
	}

	testCases := []testCase{
		{name: "persists order"},
		{name: "store failure is returned", storeErr: errors.New("connection reset"), wantError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{err: tc.storeErr}
			queue := startWorker(t, store, 10*time.Millisecond, DefaultBatchSize)

			payload := newPayload("session-1")
			c, cancel := context.WithTimeout(testContext(), 5*time.Second)
			defer cancel()

			receipt, err := queue.Submit(c, payload)
			if tc.wantError {
				assert.Error(t, err)
				assert.Equal(t, 0, store.count())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payload.ID, receipt.OrderID)
			assert.Equal(t, StatusPlaced, receipt.Status)
			assert.Equal(t, 1, store.count())
		})
	}
}

func TestWorkerFlushesFullBatchWithoutTick(t *testing.T) {
	store := &fakeStore{}
	queue := startWorker(t, store, time.Hour, 3)

	c, cancel := context.WithTimeout(testContext(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := queue.Submit(c, newPayload("session-1"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, store.count())
}

func TestWorkerSkipsCancelledRequests(t *testing.T) {
	store := &fakeStore{}
	worker := NewWorker(store, nil, time.Hour, 1)

	c, cancel := context.WithCancel(testContext())
	cancel()
	result := make(chan Result, 1)
	worker.flush(testContext(), []Request{{Context: c, Payload: newPayload("session-1"), ResultChannel: result}})

	r := <-result
	assert.ErrorIs(t, r.Err, checkoutErrors.ErrSubmissionAbandoned)
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.Equal(t, 0, store.count())
}

func TestQueueSubmitHonoursCallerContext(t *testing.T) {
	queue := NewQueue(0)

	c, cancel := context.WithTimeout(testContext(), 20*time.Millisecond)
	defer cancel()

	_, err := queue.Submit(c, newPayload("session-1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerStopFailsPendingRequests(t *testing.T) {
	store := &fakeStore{}
	queue := NewQueue(1)
	worker := NewWorker(store, queue.Requests(), time.Hour, 10)

	c, cancel := context.WithCancel(testContext())
	var wg sync.WaitGroup
	wg.Add(1)
	go worker.StartWorker(c, &wg)

	done := make(chan error, 1)
	go func() {
		_, err := queue.Submit(testContext(), newPayload("session-1"))
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pending submission was not released")
	}
	assert.Equal(t, 0, store.count())
}
