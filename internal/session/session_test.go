package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	flashes  map[string][]string
	touched  map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]Session),
		flashes:  make(map[string][]string),
		touched:  make(map[string]int),
	}
}

func (m *memStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := s
	return &clone, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memStore) Touch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[id]++
	return nil
}

func (m *memStore) Push(_ context.Context, sessionID, category, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionID + ":" + category
	m.flashes[key] = append(m.flashes[key], message)
	return nil
}

func (m *memStore) Drain(_ context.Context, sessionID, category string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionID + ":" + category
	messages := m.flashes[key]
	delete(m.flashes, key)
	return messages, nil
}

func newTestManager() (*Manager, *memStore) {
	store := newMemStore()
	return NewManager(store, store, "session_id", time.Hour, false), store
}

func TestManager_Ensure_CreatesAnonymousSession(t *testing.T) {
	mgr, store := newTestManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	s, err := mgr.Ensure(rec, req)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.IsLoggedIn)
	assert.Equal(t, uuid.Nil, s.UserID)

	// The record is persisted and the cookie mirrors its id.
	_, err = store.Get(context.Background(), s.ID)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.Equal(t, s.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.False(t, cookies[0].Secure)
}

func TestManager_Ensure_SecureCookieInProduction(t *testing.T) {
	store := newMemStore()
	mgr := NewManager(store, store, "session_id", time.Hour, true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := mgr.Ensure(rec, req)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestManager_Ensure_ReusesExistingSession(t *testing.T) {
	mgr, store := newTestManager()

	first := httptest.NewRecorder()
	s, err := mgr.Ensure(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: s.ID})
	rec := httptest.NewRecorder()

	again, err := mgr.Ensure(rec, req)
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)

	// The returning visit extends the TTL instead of minting a cookie.
	assert.Equal(t, 1, store.touched[s.ID])
	assert.Empty(t, rec.Result().Cookies())
}

func TestManager_Ensure_ReplacesExpiredSession(t *testing.T) {
	mgr, _ := newTestManager()

	// A cookie pointing at a record the store no longer has.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "gone"})
	rec := httptest.NewRecorder()

	s, err := mgr.Ensure(rec, req)
	require.NoError(t, err)
	assert.NotEqual(t, "gone", s.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, s.ID, cookies[0].Value)
}

func TestManager_LogIn(t *testing.T) {
	mgr, store := newTestManager()

	rec := httptest.NewRecorder()
	s, err := mgr.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, mgr.LogIn(context.Background(), s, userID))

	stored, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLoggedIn)
	assert.Equal(t, userID, stored.UserID)
}

func TestManager_Destroy(t *testing.T) {
	mgr, store := newTestManager()

	rec := httptest.NewRecorder()
	s, err := mgr.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	require.NoError(t, mgr.Destroy(context.Background(), rec, s))

	_, err = store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)

	// Destroying again, or destroying nil, still succeeds.
	assert.NoError(t, mgr.Destroy(context.Background(), httptest.NewRecorder(), s))
	assert.NoError(t, mgr.Destroy(context.Background(), httptest.NewRecorder(), nil))
}

func TestManager_FlashDrain(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	rec := httptest.NewRecorder()
	s, err := mgr.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	require.NoError(t, mgr.Flash(ctx, s, "error", "first"))
	require.NoError(t, mgr.Flash(ctx, s, "error", "second"))

	messages, err := mgr.DrainFlash(ctx, s, "error")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, messages)

	// One-shot: a second drain comes back empty.
	messages, err = mgr.DrainFlash(ctx, s, "error")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestLoader_AttachesSessionToContext(t *testing.T) {
	mgr, _ := newTestManager()

	var got *Session
	handler := mgr.Loader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)
}

func TestRequireAuth(t *testing.T) {
	mgr, _ := newTestManager()

	called := false
	handler := mgr.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// No session at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, called)

	// Anonymous session.
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(NewContext(req.Context(), &Session{ID: "anon"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.False(t, called)

	// Authenticated session.
	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(NewContext(req.Context(), &Session{ID: "auth", UserID: uuid.New(), IsLoggedIn: true}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestFromContext_Missing(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
