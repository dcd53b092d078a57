package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vbhan/go-shop/internal/httputil"
	"github.com/vbhan/go-shop/internal/logging"
	"github.com/vbhan/go-shop/internal/session"
	"github.com/vbhan/go-shop/internal/user"
	"github.com/vbhan/go-shop/internal/view"
)

// RateLimiter defines the rate limiting operations the handlers use.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}

// Handler contains HTTP handlers for the authentication pages and flows.
type Handler struct {
	service     *Service
	sessions    *session.Manager
	renderer    *view.Renderer
	rateLimiter RateLimiter
}

func NewHandler(service *Service, sessions *session.Manager, renderer *view.Renderer, rateLimiter RateLimiter) *Handler {
	return &Handler{
		service:     service,
		sessions:    sessions,
		renderer:    renderer,
		rateLimiter: rateLimiter,
	}
}

// VerifyUser guards authenticated routes against sessions whose account no
// longer exists: the stale session is destroyed and the visitor sent back to
// the login page. Mounted after the session guard, so the session is always
// present and logged in here.
func (h *Handler) VerifyUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		s := session.FromContext(r.Context())
		if _, err := h.service.UserByID(r.Context(), s.UserID); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				logger.Warn("session references a deleted account", "user_id", s.UserID)
				if err := h.sessions.Destroy(r.Context(), w, s); err != nil {
					h.renderer.ServerError(w, err)
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			h.renderer.ServerError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetLogin renders the login form with any flashed error messages.
func (h *Handler) GetLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login.html", view.Page{
		Title:   "Login",
		Path:    "/login",
		Flashes: h.drainFlashes(r),
	})
}

// PostLogin handles the login submission.
func (h *Handler) PostLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "login", "/login") {
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	normalized, fieldErrors := ValidateCredentials(email, password)
	if len(fieldErrors) > 0 {
		h.renderer.Render(w, http.StatusUnprocessableEntity, "login.html", view.Page{
			Title:       "Login",
			Path:        "/login",
			FieldErrors: fieldErrors,
			Form:        map[string]string{"email": email, "password": password},
		})
		return
	}

	loggedInUser, err := h.service.Login(r.Context(), normalized, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			h.flashAndRedirect(w, r, "Invalid credential.", "/login")
			return
		}
		h.renderer.ServerError(w, err)
		return
	}

	s := session.FromContext(r.Context())
	if err := h.sessions.LogIn(r.Context(), s, loggedInUser.ID); err != nil {
		h.renderer.ServerError(w, err)
		return
	}

	logger.Info("user logged in", "user_id", loggedInUser.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// GetSignup renders the signup form.
func (h *Handler) GetSignup(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "signup.html", view.Page{
		Title:   "Signup",
		Path:    "/signup",
		Flashes: h.drainFlashes(r),
	})
}

// PostSignup handles the signup submission. Validation failures re-render
// the form with the submitted email preserved; the passwords are not echoed.
func (h *Handler) PostSignup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "signup", "/signup") {
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	confirmPassword := r.PostFormValue("confirmPassword")

	normalized, fieldErrors := ValidateSignup(email, password, confirmPassword)
	if len(fieldErrors) > 0 {
		h.renderer.Render(w, http.StatusUnprocessableEntity, "signup.html", view.Page{
			Title:       "Signup",
			Path:        "/signup",
			FieldErrors: fieldErrors,
			Form:        map[string]string{"email": email},
		})
		return
	}

	newUser, err := h.service.Signup(r.Context(), normalized, password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("signup failed: email already exists")
			h.flashAndRedirect(w, r, "Email already exists.", "/signup")
			return
		}
		h.renderer.ServerError(w, err)
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// PostLogout destroys the current session. Logging out without a session
// still succeeds.
func (h *Handler) PostLogout(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if err := h.sessions.Destroy(r.Context(), w, s); err != nil {
		h.renderer.ServerError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// GetReset renders the reset-request form.
func (h *Handler) GetReset(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "reset.html", view.Page{
		Title:   "Reset Password",
		Path:    "/reset",
		Flashes: h.drainFlashes(r),
	})
}

// PostReset handles the reset-request submission.
func (h *Handler) PostReset(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	ctx := r.Context()

	if h.limitExceeded(w, r, "reset", "/reset") {
		return
	}

	email := NormalizeEmail(r.PostFormValue("email"))

	if onCooldown, err := h.rateLimiter.CheckEmailCooldown(ctx, email); err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("reset email on cooldown", "email", email)
		h.flashAndRedirect(w, r, "Please wait before requesting another reset.", "/reset")
		return
	}
	if err := h.rateLimiter.SetEmailCooldown(ctx, email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	err := h.service.RequestPasswordReset(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenGeneration):
			// Aborts the flow without touching the user.
			http.Redirect(w, r, "/reset", http.StatusFound)
		case errors.Is(err, ErrUnknownEmail):
			logger.Warn("reset requested for unknown email")
			h.flashAndRedirect(w, r, "No account with that email found.", "/reset")
		default:
			h.renderer.ServerError(w, err)
		}
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// GetNewPassword handles the emailed link click: it validates the token and
// renders the new-password form with the user id and token embedded.
func (h *Handler) GetNewPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	tokenUser, err := h.service.UserForResetToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			h.renderer.Render(w, http.StatusNotFound, "token-invalid.html", view.Page{
				Title: "Token Invalid",
			})
			return
		}
		h.renderer.ServerError(w, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "new-password.html", view.Page{
		Title:   "New Password",
		Path:    "/new-password",
		Flashes: h.drainFlashes(r),
		Form: map[string]string{
			"userId":        tokenUser.ID.String(),
			"passwordToken": token,
		},
	})
}

// PostNewPassword completes the reset: the token is re-validated against the
// submitted user id and consumed together with the password write.
func (h *Handler) PostNewPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	newPassword := r.PostFormValue("password")
	userIDValue := r.PostFormValue("userId")
	passwordToken := r.PostFormValue("passwordToken")

	if fieldErrors := ValidateNewPassword(newPassword); len(fieldErrors) > 0 {
		h.renderer.Render(w, http.StatusUnprocessableEntity, "new-password.html", view.Page{
			Title:       "New Password",
			Path:        "/new-password",
			FieldErrors: fieldErrors,
			Form: map[string]string{
				"userId":        userIDValue,
				"passwordToken": passwordToken,
			},
		})
		return
	}

	userID, err := uuid.Parse(userIDValue)
	if err != nil {
		// A tampered id fails the same way as a tampered token.
		logger.Warn("password reset failed: malformed user id")
		h.flashAndRedirect(w, r, "Token invalid or expired.", "/reset")
		return
	}

	if err := h.service.CompletePasswordReset(r.Context(), userID, passwordToken, newPassword); err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			logger.Warn("password reset failed: invalid or expired token")
			h.flashAndRedirect(w, r, "Token invalid or expired.", "/reset")
			return
		}
		h.renderer.ServerError(w, err)
		return
	}

	logger.Info("password reset completed", "user_id", userID)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// limitExceeded runs the per-IP rate limit preamble for a flow. Limiter
// errors are logged and ignored so Redis trouble never locks users out.
func (h *Handler) limitExceeded(w http.ResponseWriter, r *http.Request, purpose, redirectTo string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := httputil.ClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		h.flashAndRedirect(w, r, "Too many requests, please try again later.", redirectTo)
		return true
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// flashAndRedirect queues a one-shot error message and redirects.
func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, message, to string) {
	logger := logging.GetLoggerFromContext(r.Context())

	s := session.FromContext(r.Context())
	if s != nil {
		if err := h.sessions.Flash(r.Context(), s, session.FlashCategoryError, message); err != nil {
			logger.Error("failed to flash message", "error", err.Error())
		}
	}

	http.Redirect(w, r, to, http.StatusFound)
}

// drainFlashes empties the session's error queue for display.
func (h *Handler) drainFlashes(r *http.Request) []string {
	logger := logging.GetLoggerFromContext(r.Context())

	s := session.FromContext(r.Context())
	if s == nil {
		return nil
	}

	messages, err := h.sessions.DrainFlash(r.Context(), s, session.FlashCategoryError)
	if err != nil {
		logger.Error("failed to drain flash messages", "error", err.Error())
		return nil
	}
	return messages
}
