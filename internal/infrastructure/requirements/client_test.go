package requirements

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockalloc/engine/internal/domain/allocation"
	"github.com/stockalloc/engine/internal/infrastructure/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.RequirementsConfig{
		BaseURL:    serverURL,
		Timeout:    2 * time.Second,
		RetryCount: 0,
		RetryWait:  time.Millisecond,
	})
}

func TestClientFetchRequirements(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes requirements from response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/items/CBL-0042/requirements", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{
				"requirements": [
					{"project_code": "P1", "required_quantity": 60, "priority_level": "high", "is_critical": true, "days_remaining": 2},
					{"project_code": "P2", "required_quantity": 50, "priority_level": "medium", "is_critical": false, "days_remaining": 7}
				]
			}`))
		}))
		defer server.Close()

		reqs, err := newTestClient(server.URL).FetchRequirements(ctx, "CBL-0042")
		require.NoError(t, err)
		require.Len(t, reqs, 2)

		assert.Equal(t, "P1", reqs[0].ProjectCode)
		assert.Equal(t, int64(60), reqs[0].RequiredQuantity)
		assert.Equal(t, allocation.PriorityHigh, reqs[0].PriorityLevel)
		assert.True(t, reqs[0].IsCritical)
		assert.Equal(t, 2, reqs[0].DaysRemaining)

		assert.Equal(t, "P2", reqs[1].ProjectCode)
		assert.Equal(t, allocation.PriorityMedium, reqs[1].PriorityLevel)
	})

	t.Run("unknown item yields empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		reqs, err := newTestClient(server.URL).FetchRequirements(ctx, "UNKNOWN")
		require.NoError(t, err)
		assert.Empty(t, reqs)
	})

	t.Run("server error is surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchRequirements(ctx, "CBL-0042")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("empty item number is rejected", func(t *testing.T) {
		_, err := newTestClient("http://localhost:1").FetchRequirements(ctx, "")
		require.Error(t, err)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"requirements": []}`))
		}))
		defer server.Close()

		http := resty.New().
			SetBaseURL(server.URL).
			SetRetryCount(2).
			SetRetryWaitTime(time.Millisecond).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500
			})

		reqs, err := NewClientWithHTTP(http).FetchRequirements(ctx, "CBL-0042")
		require.NoError(t, err)
		assert.Empty(t, reqs)
		assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		}))
		defer server.Close()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := newTestClient(server.URL).FetchRequirements(cancelled, "CBL-0042")
		require.Error(t, err)
	})
}
