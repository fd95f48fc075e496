package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 2, nil)
	require.NoError(n.Alert(ctx, "first"))
	require.NoError(n.Alert(ctx, "second"))
	// third exceeds the per-minute budget: dropped, not an error
	require.NoError(n.Alert(ctx, "third"))
	assert.EqualValues(2, received.Load())
}

func TestLogNotifier(t *testing.T) {
	require := require.New(t)
	require.NoError((&LogNotifier{}).Alert(context.Background(), "hello"))
}
