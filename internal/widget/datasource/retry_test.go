package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"remark-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"internal error", &RemoteError{StatusCode: http.StatusInternalServerError}, true},
		{"bad gateway", &RemoteError{StatusCode: http.StatusBadGateway}, true},
		{"too many requests", &RemoteError{StatusCode: http.StatusTooManyRequests}, true},
		{"bad request", &RemoteError{StatusCode: http.StatusBadRequest}, false},
		{"not found", &RemoteError{StatusCode: http.StatusNotFound}, false},
		{"connection refused", &RemoteError{Err: errors.New("dial tcp: connection refused")}, true},
		{"other transport error", &RemoteError{Err: errors.New("tls: bad certificate")}, false},
		{"cancelled", &RemoteError{Err: context.Canceled}, false},
		{"wrapped", fmt.Errorf("delete: %w", &RemoteError{StatusCode: http.StatusServiceUnavailable}), true},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isRetryable(tc.err))
		})
	}
}

func TestDelete_RetriesThrottlingAndServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Delete: op(srv.URL, http.MethodDelete)},
	}))
	require.NoError(t, a.DeleteComment(context.Background(), "7"))
	assert.Equal(t, int32(3), hits.Load())
}
