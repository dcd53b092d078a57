package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbhan/go-shop/internal/logging"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(logging.NewLogger(true))
	require.NoError(t, err)
	return renderer
}

func TestRender(t *testing.T) {
	renderer := newTestRenderer(t)

	rec := httptest.NewRecorder()
	renderer.Render(rec, http.StatusOK, "login.html", Page{
		Title:   "Login",
		Path:    "/login",
		Flashes: []string{"Invalid credential."},
		Form:    map[string]string{"email": "a@x.com"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Login</title>")
	assert.Contains(t, body, "Invalid credential.")
	assert.Contains(t, body, `value="a@x.com"`)
}

func TestRender_NilFormIsSafe(t *testing.T) {
	renderer := newTestRenderer(t)

	// Templates index into .Form; a page without form data must still render.
	rec := httptest.NewRecorder()
	renderer.Render(rec, http.StatusOK, "login.html", Page{Title: "Login"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="email"`)
}

func TestRender_EscapesUserInput(t *testing.T) {
	renderer := newTestRenderer(t)

	rec := httptest.NewRecorder()
	renderer.Render(rec, http.StatusUnprocessableEntity, "login.html", Page{
		Title: "Login",
		Form:  map[string]string{"email": `"><script>alert(1)</script>`},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	renderer := newTestRenderer(t)

	rec := httptest.NewRecorder()
	renderer.Render(rec, http.StatusOK, "no-such.html", Page{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerError(t *testing.T) {
	renderer := newTestRenderer(t)

	rec := httptest.NewRecorder()
	renderer.ServerError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The page never leaks the underlying error.
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestNotFound(t *testing.T) {
	renderer := newTestRenderer(t)

	rec := httptest.NewRecorder()
	renderer.NotFound(rec)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
