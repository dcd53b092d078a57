package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// FlashCategoryError is the flash queue used for one-shot error messages.
const FlashCategoryError = "error"

// Session is a server-side record correlating a client-held opaque cookie
// identifier with authentication state. Anonymous visitors get a session too,
// so that flash messages work before login.
type Session struct {
	ID         string
	UserID     uuid.UUID
	IsLoggedIn bool
	CreatedAt  time.Time
}

// Store defines the interface for session persistence. The store is shared
// and server-side so the app can scale horizontally.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
}

// FlashStore defines the interface for one-shot flash message queues keyed
// by session and category. Drain empties a category atomically.
type FlashStore interface {
	Push(ctx context.Context, sessionID, category, message string) error
	Drain(ctx context.Context, sessionID, category string) ([]string, error)
}

// Manager ties cookie handling to the session and flash stores.
type Manager struct {
	store        Store
	flash        FlashStore
	cookieName   string
	ttl          time.Duration
	isProduction bool
}

func NewManager(store Store, flash FlashStore, cookieName string, ttl time.Duration, isProduction bool) *Manager {
	return &Manager{
		store:        store,
		flash:        flash,
		cookieName:   cookieName,
		ttl:          ttl,
		isProduction: isProduction,
	}
}

// Ensure returns the request's session, creating an anonymous one (and
// setting the cookie) if none exists or the stored record has expired.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		s, err := m.store.Get(r.Context(), cookie.Value)
		if err == nil {
			if err := m.store.Touch(r.Context(), s.ID); err != nil {
				return nil, err
			}
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if err := m.store.Save(r.Context(), s); err != nil {
		return nil, err
	}

	m.setCookie(w, s.ID, m.ttl)
	return s, nil
}

// LogIn marks the session as authenticated for the given user and persists it.
func (m *Manager) LogIn(ctx context.Context, s *Session, userID uuid.UUID) error {
	s.UserID = userID
	s.IsLoggedIn = true
	return m.store.Save(ctx, s)
}

// Destroy deletes the session record and expires the cookie. It is idempotent:
// destroying an already-gone session succeeds.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s != nil {
		if err := m.store.Delete(ctx, s.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	m.setCookie(w, "", -time.Second)
	return nil
}

// Flash queues a one-shot message against the session under a category.
func (m *Manager) Flash(ctx context.Context, s *Session, category, message string) error {
	return m.flash.Push(ctx, s.ID, category, message)
}

// DrainFlash returns and clears all messages queued under a category.
func (m *Manager) DrainFlash(ctx context.Context, s *Session, category string) ([]string, error) {
	return m.flash.Drain(ctx, s.ID, category)
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
