package directory_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskledger/internal/adapters/clients/directory"
	"taskledger/internal/domain"
	"taskledger/internal/platform/config"
	"taskledger/internal/platform/httpclient"
)

func newClient(t *testing.T, handler http.HandlerFunc) *directory.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.ClientConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			Multiplier:      2.0,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   100,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
	return directory.NewClient(httpclient.New(cfg, "user-directory", nil, slog.New(slog.DiscardHandler)))
}

func TestClient_FindByID(t *testing.T) {
	t.Parallel()

	t.Run("known user decodes", func(t *testing.T) {
		t.Parallel()
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/alice", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"alice","first_name":"Alice","last_name":"Anders"}`))
		})

		u, err := client.FindByID(context.Background(), "alice")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "Alice", u.FirstName)
		assert.Equal(t, "Anders", u.LastName)
	})

	t.Run("404 is absence not error", func(t *testing.T) {
		t.Parallel()
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		u, err := client.FindByID(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Nil(t, u)

		ok, err := client.Exists(context.Background(), "ghost")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("server error surfaces as unavailable", func(t *testing.T) {
		t.Parallel()
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.FindByID(context.Background(), "alice")
		require.ErrorIs(t, err, domain.ErrUnavailable)
	})
}
