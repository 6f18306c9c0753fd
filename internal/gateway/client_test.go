package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastClient(baseURL string, auth Authenticator) *Client {
	return NewClient(Config{
		BaseURL:     baseURL,
		Auth:        auth,
		Timeout:     time.Second,
		MaxRetries:  3,
		RetryDelays: []time.Duration{time.Millisecond},
	})
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := fastClient(server.URL, nil).Do(context.Background(), http.MethodGet, "/thing", nil, &out)

	assert.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"message":"upstream down"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := fastClient(server.URL, nil).Do(context.Background(), http.MethodGet, "/thing", nil, nil)

	assert.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "first attempt plus three retries")
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"message":"invalid bank code"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	err := fastClient(server.URL, nil).Do(context.Background(), http.MethodPost, "/thing", map[string]string{"a": "b"}, nil)

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadRequest, gerr.Status)
	assert.Equal(t, "invalid bank code", gerr.Message)
	assert.False(t, gerr.Retryable)
	assert.False(t, gerr.Unknown)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type countingRefresher struct {
	mu        sync.Mutex
	token     string
	refreshes int
}

func (a *countingRefresher) Apply(_ context.Context, req *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+a.token)
	return nil
}

func (a *countingRefresher) ForceRefresh(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshes++
	a.token = "fresh"
	return nil
}

func TestDoRefreshesCredentialsOnceOnUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	auth := &countingRefresher{token: "stale"}
	err := fastClient(server.URL, auth).Do(context.Background(), http.MethodGet, "/thing", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, auth.refreshes)
}

func TestDoFailsWhenRefreshedTokenStillRejected(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"message":"nope"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	auth := &countingRefresher{token: "stale"}
	err := fastClient(server.URL, auth).Do(context.Background(), http.MethodGet, "/thing", nil, nil)

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnauthorized, gerr.Status)
	assert.Equal(t, 1, auth.refreshes, "only one forced refresh per call")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoMarksTimeoutsOutcomeUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:     server.URL,
		Timeout:     20 * time.Millisecond,
		MaxRetries:  1,
		RetryDelays: []time.Duration{time.Millisecond},
	})
	err := client.Do(context.Background(), http.MethodPost, "/pay", map[string]string{"amount": "100"}, nil)

	assert.Error(t, err)
	assert.True(t, OutcomeUnknown(err))
}

func TestTokenAuthenticatorRefreshIsSingleFlight(t *testing.T) {
	var fetches int32
	source := func(ctx context.Context) (string, time.Duration, error) {
		atomic.AddInt32(&fetches, 1)
		time.Sleep(10 * time.Millisecond)
		return "token", time.Hour, nil
	}
	auth := NewTokenAuthenticator(source)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
			assert.NoError(t, auth.Apply(context.Background(), req))
			assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}
