package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shelfkeeper/pkg/app"
	"shelfkeeper/pkg/client"
	"shelfkeeper/pkg/config"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/identity"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/middleware"
	"shelfkeeper/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
	Code string          `json:"code"`
}

type server struct {
	t          *testing.T
	handler    http.Handler
	components *Components
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		Port:              "8080",
		StorageBackend:    config.StorageMemory,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		LoanPeriod:        14 * 24 * time.Hour,
		BorrowLockTTL:     30 * time.Second,
		Log:               logger.Discard(),
		Client:            client.NewClient(),
	}

	components, err := Build(cfg)
	require.NoError(t, err)
	t.Cleanup(components.Close)

	a := app.NewApplication()
	a.SetApp(cfg, components.Health, components.Handlers...)
	return &server{t: t, handler: a.Handler(), components: components}
}

func (s *server) do(method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(identity.HeaderActor, "librarian:1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *server) create(path string, body any) int64 {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, path, body, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &created))
	require.Positive(s.t, created.ID)
	return created.ID
}

func TestBuild_BorrowLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)

	authorID := s.create("/api/v1/authors", map[string]any{"first_name": "Ursula", "last_name": "Le Guin"})
	alice := s.create("/api/v1/members", map[string]any{"first_name": "Alice", "last_name": "Reader", "email": "alice@example.com"})
	bob := s.create("/api/v1/members", map[string]any{"first_name": "Bob", "last_name": "Reader", "email": "bob@example.com"})
	bookID := s.create("/api/v1/books", map[string]any{
		"title":            "The Dispossessed",
		"publication_year": 1974,
		"initial_copies":   1,
		"author_ids":       []int64{authorID},
	})

	rec, env := s.do(http.MethodPost, "/api/v1/borrowings", map[string]any{"member_id": alice, "book_id": bookID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var loan model.BorrowingView
	require.NoError(t, json.Unmarshal(env.Data, &loan))
	assert.Equal(t, model.BorrowingStateActive, loan.State)

	rec, env = s.do(http.MethodPost, "/api/v1/borrowings", map[string]any{"member_id": bob, "book_id": bookID}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeInsufficientInventory, env.Code)

	rec, env = s.do(http.MethodPost, fmt.Sprintf("/api/v1/borrowings/%d/return", loan.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &loan))
	assert.Equal(t, model.BorrowingStateReturned, loan.State)

	rec, env = s.do(http.MethodPost, fmt.Sprintf("/api/v1/borrowings/%d/return", loan.ID), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeAlreadyReturned, env.Code)

	rec, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/books/%d/inventory", bookID), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	entries, err := s.components.Services.AuditLog.ListByRecord(context.Background(), model.AuditTableBorrowings, loan.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "librarian:1", entries[0].Actor)
}

func TestBuild_DeleteBookCascadesOverHTTP(t *testing.T) {
	s := newServer(t)

	authorID := s.create("/api/v1/authors", map[string]any{"first_name": "Italo", "last_name": "Calvino"})
	member := s.create("/api/v1/members", map[string]any{"first_name": "Carol", "last_name": "Reader", "email": "carol@example.com"})
	bookID := s.create("/api/v1/books", map[string]any{
		"title":            "Invisible Cities",
		"publication_year": 1972,
		"initial_copies":   2,
		"author_ids":       []int64{authorID},
	})
	s.create("/api/v1/borrowings", map[string]any{"member_id": member, "book_id": bookID})

	rec, _ := s.do(http.MethodPost, fmt.Sprintf("/api/v1/members/%d/cart", member), map[string]any{"book_id": bookID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", bookID), nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/books/%d", bookID), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.CodeNotFound, env.Code)

	rec, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/members/%d/borrowings", member), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loans []model.BorrowingView
	require.NoError(t, json.Unmarshal(env.Data, &loans))
	assert.Empty(t, loans)

	rec, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/members/%d/cart", member), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart []model.CartEntry
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart)
}

func TestBuild_IdempotentCreate(t *testing.T) {
	s := newServer(t)

	body := map[string]any{"first_name": "Dana", "last_name": "Reader", "email": "dana@example.com"}
	key := map[string]string{middleware.HeaderIdempotencyKey: "create-dana"}

	first, firstEnv := s.do(http.MethodPost, "/api/v1/members", body, key)
	require.Equal(t, http.StatusCreated, first.Code)
	second, secondEnv := s.do(http.MethodPost, "/api/v1/members", body, key)
	require.Equal(t, http.StatusCreated, second.Code)

	assert.JSONEq(t, string(firstEnv.Data), string(secondEnv.Data))
	assert.Equal(t, "true", second.Header().Get(middleware.HeaderIdempotentReplay))

	third := s.create("/api/v1/members", body)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(firstEnv.Data, &created))
	assert.Equal(t, created.ID+1, third)
}

func TestBuild_HealthReportsMemoryBackend(t *testing.T) {
	s := newServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status        string `json:"status"`
		Database      string `json:"database"`
		AuditFailures int64  `json:"audit_failures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "memory", resp.Database)
	assert.Zero(t, resp.AuditFailures)
}
