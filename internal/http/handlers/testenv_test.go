package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/library-be/internal/auth"
	"github.com/shelfwise/library-be/internal/middleware"
	"github.com/shelfwise/library-be/internal/models"
)

const (
	testLoanPeriod = 14 * 24 * time.Hour
	testFineRate   = 1.0
)

// testEnv hosts the full API over a memStore for handler tests.
type testEnv struct {
	store  *memStore
	tokens *auth.TokenManager
	ts     *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	tokens := auth.NewTokenManager("test-secret", "library-test", time.Hour)
	log := zerolog.Nop()

	r := chi.NewRouter()
	NewHealthHandler(time.Now()).Register(r)
	NewAuthHandler(store, tokens, log).Register(r)
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Authenticate(tokens))
		NewUsersHandler(store, store, log).Register(api)
		NewBooksHandler(store, log).Register(api)
		NewBorrowingsHandler(store, store, testLoanPeriod, testFineRate, log).Register(api)
		NewDashboardHandler(store, log).Register(api)
		NewExportHandler(store, store, log).Register(api)
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return &testEnv{store: store, tokens: tokens, ts: ts}
}

// seedUser creates a user directly in the store and returns it with a valid
// bearer token.
func (e *testEnv) seedUser(t *testing.T, name, email, role string) (models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user, err := e.store.CreateUser(context.Background(), models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	require.NoError(t, err)

	token, err := e.tokens.Generate(user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) seedBook(t *testing.T, title, isbn string) models.Book {
	t.Helper()

	book, err := e.store.CreateBook(context.Background(), models.Book{
		Title:    title,
		Author:   "Test Author",
		ISBN:     isbn,
		Category: "Fiction",
	})
	require.NoError(t, err)
	return book
}

// do issues a request against the test server, attaching the token and JSON
// body when provided.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// decodeData unpacks the envelope's data field into out.
func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}
