package httpstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openretail/stocksync/internal/config"
	"github.com/openretail/stocksync/internal/remote/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type remoteRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (r *remoteRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		rec := recordedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Auth:   req.Header.Get("Authorization"),
		}
		if req.Body != nil {
			_ = json.NewDecoder(req.Body).Decode(&rec.Body)
		}
		r.mu.Lock()
		r.requests = append(r.requests, rec)
		status, response := r.status, r.response
		r.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
		}
		if response != "" {
			_, _ = w.Write([]byte(response))
		}
	}
}

func (r *remoteRecorder) last(t *testing.T) recordedRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests)
	return r.requests[len(r.requests)-1]
}

func newTestClient(t *testing.T, rec *remoteRecorder) domain.Store {
	t.Helper()
	srv := httptest.NewServer(rec.handler())
	t.Cleanup(srv.Close)
	return New(config.Config{
		RemoteBaseURL: srv.URL,
		RemoteAPIKey:  "test-key",
		RemoteTimeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestFetchAll(t *testing.T) {
	rec := &remoteRecorder{response: `{"documents":[{"id":"rem-1","productName":"Amoxicillin"},{"id":"rem-2"}]}`}
	client := newTestClient(t, rec)

	docs, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "rem-1", docs[0].ID)
	require.NotNil(t, docs[0].Name)
	assert.Equal(t, "Amoxicillin", *docs[0].Name)

	got := rec.last(t)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/v1/products", got.Path)
	assert.Equal(t, "Bearer test-key", got.Auth)
}

func TestUpsert_NewDocumentPostsAndReturnsAssignedID(t *testing.T) {
	rec := &remoteRecorder{response: `{"id":"rem-9"}`}
	client := newTestClient(t, rec)

	name := "Amoxicillin"
	id, err := client.Upsert(context.Background(), domain.Document{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "rem-9", id)

	got := rec.last(t)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/products", got.Path)
	assert.Equal(t, "Amoxicillin", got.Body["productName"])
}

func TestUpsert_ExistingDocumentPuts(t *testing.T) {
	rec := &remoteRecorder{response: `{}`}
	client := newTestClient(t, rec)

	name := "Amoxicillin"
	id, err := client.Upsert(context.Background(), domain.Document{ID: "rem-1", Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "rem-1", id)

	got := rec.last(t)
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/v1/products/rem-1", got.Path)
}

func TestDelete(t *testing.T) {
	rec := &remoteRecorder{}
	client := newTestClient(t, rec)

	require.NoError(t, client.Delete(context.Background(), "rem-1"))

	got := rec.last(t)
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/v1/products/rem-1", got.Path)
}

func TestDelete_EmptyIDIsNoop(t *testing.T) {
	rec := &remoteRecorder{}
	client := newTestClient(t, rec)

	require.NoError(t, client.Delete(context.Background(), ""))
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.requests)
}

func TestErrorsMapToUnavailable(t *testing.T) {
	rec := &remoteRecorder{status: http.StatusInternalServerError, response: `{"error":{"message":"backing store down"}}`}
	client := newTestClient(t, rec)

	_, err := client.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, err.Error(), "backing store down")
}

func TestUnconfiguredBaseURL(t *testing.T) {
	client := New(config.Config{}, zap.NewNop())

	_, err := client.FetchAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestUnreachableRemote(t *testing.T) {
	client := New(config.Config{
		RemoteBaseURL: "http://127.0.0.1:1",
		RemoteTimeout: time.Second,
	}, zap.NewNop())

	_, err := client.FetchAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
