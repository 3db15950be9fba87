package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
)

func fakeCluster(t *testing.T, h http.HandlerFunc) *Indexer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)
	return &Indexer{Client: client, Index: "console-audit"}
}

func TestIndexer_PublishUsesEventID(t *testing.T) {
	var method, path string
	var doc audit.Event
	idx := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})

	err := idx.Publish(context.Background(), audit.Event{ID: "abc", Type: audit.ProductCreated, Name: "Piña"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/console-audit/_doc/abc", path)
	assert.Equal(t, "Piña", doc.Name)
}

func TestIndexer_PublishReportsClusterError(t *testing.T) {
	idx := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"mapper_parsing_exception"}`)
	})
	err := idx.Publish(context.Background(), audit.Event{ID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestIndexer_RecentReadsNewestFirst(t *testing.T) {
	var query string
	idx := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/console-audit/_search"))
		b, _ := io.ReadAll(r.Body)
		query = string(b)
		_, _ = io.WriteString(w, `{"hits":{"hits":[
			{"_source":{"id":"2","type":"product_deleted","product_id":3}},
			{"_source":{"id":"1","type":"login","actor_email":"admin@example.com"}}
		]}}`)
	})

	events, err := idx.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ProductDeleted, events[0].Type)
	assert.Equal(t, int64(3), events[0].ProductID)
	assert.Equal(t, "admin@example.com", events[1].ActorEmail)
	assert.Contains(t, query, `"size":5`)
	assert.Contains(t, query, `"desc"`)
}
