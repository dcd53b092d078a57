package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vbhan/go-shop/internal/logging"
	"github.com/vbhan/go-shop/internal/session"
	"github.com/vbhan/go-shop/internal/view"
)

// Store defines the cart persistence operations the handlers need.
type Store interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
}

// Handler contains HTTP handlers for the shopping cart. All routes sit
// behind the authenticated-session guard.
type Handler struct {
	store    Store
	sessions *session.Manager
	renderer *view.Renderer
}

func NewHandler(store Store, sessions *session.Manager, renderer *view.Renderer) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		renderer: renderer,
	}
}

// GetCart renders the user's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	items, err := h.store.ListByUser(r.Context(), s.UserID)
	if err != nil {
		h.renderer.ServerError(w, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "cart.html", view.Page{
		Title:      "Your Cart",
		Path:       "/cart",
		IsLoggedIn: true,
		Data:       items,
	})
}

// PostAdd puts one unit of a product into the cart.
func (h *Handler) PostAdd(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	s := session.FromContext(r.Context())

	productID, err := uuid.Parse(r.PostFormValue("productId"))
	if err != nil {
		h.renderer.NotFound(w)
		return
	}

	if err := h.store.AddItem(r.Context(), s.UserID, productID); err != nil {
		h.renderer.ServerError(w, err)
		return
	}

	logger.Info("cart item added", "product_id", productID)
	http.Redirect(w, r, "/cart", http.StatusFound)
}

// PostDeleteItem removes a product line from the cart.
func (h *Handler) PostDeleteItem(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	productID, err := uuid.Parse(r.PostFormValue("productId"))
	if err != nil {
		h.renderer.NotFound(w)
		return
	}

	if err := h.store.RemoveItem(r.Context(), s.UserID, productID); err != nil {
		h.renderer.ServerError(w, err)
		return
	}

	http.Redirect(w, r, "/cart", http.StatusFound)
}
