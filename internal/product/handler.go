package product

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vbhan/go-shop/internal/logging"
	"github.com/vbhan/go-shop/internal/session"
	"github.com/vbhan/go-shop/internal/view"
)

// Store defines the product persistence operations the handlers need.
type Store interface {
	Create(ctx context.Context, title string, price float64, description, imageURL string, userID uuid.UUID) (*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Product, error)
	Update(ctx context.Context, id uuid.UUID, title string, price float64, description, imageURL string, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// Handler contains HTTP handlers for the storefront and the admin panel.
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

// Index renders the home page with the product list.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context())
	if err != nil {
		h.renderer.ServerError(w, err)
		return
	}

	s := session.FromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "home.html", view.Page{
		Title:      "Shop",
		Path:       "/",
		IsLoggedIn: s != nil && s.IsLoggedIn,
		Flashes:    h.drainFlashes(r),
		Data:       products,
	})
}

// GetAdminProducts lists the products owned by the logged-in user.
func (h *Handler) GetAdminProducts(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	products, err := h.store.ListByUser(r.Context(), s.UserID)
	if err != nil {
		h.renderer.ServerError(w, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "admin-products.html", view.Page{
		Title:      "Admin Products",
		Path:       "/admin/products",
		IsLoggedIn: true,
		Flashes:    h.drainFlashes(r),
		Data:       products,
	})
}

// GetAddProduct renders an empty product form.
func (h *Handler) GetAddProduct(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "edit-product.html", view.Page{
		Title:      "Add Product",
		Path:       "/admin/add-product",
		IsLoggedIn: true,
	})
}

// PostAddProduct creates a product owned by the logged-in user.
func (h *Handler) PostAddProduct(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	s := session.FromContext(r.Context())

	form := productForm(r)
	price, fieldErrors := validateProductForm(form)
	if len(fieldErrors) > 0 {
		h.renderer.Render(w, http.StatusUnprocessableEntity, "edit-product.html", view.Page{
			Title:       "Add Product",
			Path:        "/admin/add-product",
			IsLoggedIn:  true,
			FieldErrors: fieldErrors,
			Form:        form,
		})
		return
	}

	created, err := h.store.Create(r.Context(), form["title"], price, form["description"], form["imageUrl"], s.UserID)
	if err != nil {
		h.renderer.ServerError(w, err)
		return
	}

	logger.Info("product created", "product_id", created.ID)
	http.Redirect(w, r, "/admin/products", http.StatusFound)
}

// GetEditProduct renders the form pre-filled with an existing product.
func (h *Handler) GetEditProduct(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.NotFound(w)
		return
	}

	p, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.renderer.NotFound(w)
			return
		}
		h.renderer.ServerError(w, err)
		return
	}

	// Only the owner may edit.
	if p.UserID != s.UserID {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.renderer.Render(w, http.StatusOK, "edit-product.html", view.Page{
		Title:      "Edit Product",
		Path:       "/admin/edit-product",
		IsLoggedIn: true,
		Form: map[string]string{
			"productId":   p.ID.String(),
			"title":       p.Title,
			"price":       strconv.FormatFloat(p.Price, 'f', 2, 64),
			"description": p.Description,
			"imageUrl":    p.ImageURL,
		},
	})
}

// PostEditProduct updates a product owned by the logged-in user.
func (h *Handler) PostEditProduct(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	id, err := uuid.Parse(r.PostFormValue("productId"))
	if err != nil {
		h.renderer.NotFound(w)
		return
	}

	form := productForm(r)
	form["productId"] = id.String()
	price, fieldErrors := validateProductForm(form)
	if len(fieldErrors) > 0 {
		h.renderer.Render(w, http.StatusUnprocessableEntity, "edit-product.html", view.Page{
			Title:       "Edit Product",
			Path:        "/admin/edit-product",
			IsLoggedIn:  true,
			FieldErrors: fieldErrors,
			Form:        form,
		})
		return
	}

	err = h.store.Update(r.Context(), id, form["title"], price, form["description"], form["imageUrl"], s.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.renderer.NotFound(w)
			return
		}
		h.renderer.ServerError(w, err)
		return
	}

	http.Redirect(w, r, "/admin/products", http.StatusFound)
}

// PostDeleteProduct removes a product owned by the logged-in user.
func (h *Handler) PostDeleteProduct(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	id, err := uuid.Parse(r.PostFormValue("productId"))
	if err != nil {
		h.renderer.NotFound(w)
		return
	}

	if err := h.store.Delete(r.Context(), id, s.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.renderer.NotFound(w)
			return
		}
		h.renderer.ServerError(w, err)
		return
	}

	http.Redirect(w, r, "/admin/products", http.StatusFound)
}

func productForm(r *http.Request) map[string]string {
	return map[string]string{
		"title":       r.PostFormValue("title"),
		"price":       r.PostFormValue("price"),
		"description": r.PostFormValue("description"),
		"imageUrl":    r.PostFormValue("imageUrl"),
	}
}

func validateProductForm(form map[string]string) (float64, []string) {
	var errs []string

	if form["title"] == "" {
		errs = append(errs, "Title must not be empty.")
	}

	price, err := strconv.ParseFloat(form["price"], 64)
	if err != nil || price <= 0 {
		errs = append(errs, "Price must be a positive number.")
	}

	return price, errs
}

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
