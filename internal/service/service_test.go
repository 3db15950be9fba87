package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/internal/session"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
)

func InitTestStore(t *testing.T) session.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, session.Migrate(db))

	sealer, err := session.NewSealer([]byte("test-secret"))
	require.NoError(t, err)
	return &session.GormStore{DB: db, Sealer: sealer}
}

// fakeAPI answers by "METHOD path" and remembers what it was asked.
type fakeAPI struct {
	mu       sync.Mutex
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
	calls    []string
	auth     map[string]string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *apiclient.Client) {
	t.Helper()
	f := &fakeAPI{
		routes:   map[string]func(http.ResponseWriter, *http.Request){},
		auth:     map[string]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.auth[key] = r.Header.Get("Authorization")
		h, ok := f.routes[key]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"not found"}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, apiclient.NewClient(srv.URL)
}

func (f *fakeAPI) on(key string, status int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

func (f *fakeAPI) handle(key string, h func(w http.ResponseWriter, r *http.Request)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key] = h
}

func (f *fakeAPI) called(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == key {
			return true
		}
	}
	return false
}

func (f *fakeAPI) authOf(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[key]
}

type auditSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *auditSink) Publish(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *auditSink) types() []audit.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Type
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func login(t *testing.T, store session.Store, sid string) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), sid, session.Session{
		Token: "tok-" + sid,
		User:  models.User{ID: 1, Email: "admin@example.com", Name: "Admin"},
	}))
}
