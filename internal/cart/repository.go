package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/vbhan/go-shop/internal/database"
)

// Item is one cart line joined with its product for display.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
}

// Repository handles cart persistence. A user's cart is the set of cart_items
// rows for their id; an empty cart is simply no rows.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's cart items joined with product data,
// in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	var items []*Item
	err := r.db.NewSelect().
		Model((*database.CartItem)(nil)).
		ColumnExpr("ci.product_id, p.title, p.price, ci.quantity").
		Join("JOIN products AS p ON p.id = ci.product_id").
		Where("ci.user_id = ?", userID).
		Order("ci.created_at ASC").
		Scan(ctx, &items)

	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	return items, nil
}

// AddItem adds one unit of a product to the user's cart, incrementing the
// quantity if the product is already there.
func (r *Repository) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.CartItem)(nil)).
		Set("quantity = quantity + 1").
		Set("updated_at = NOW()").
		Where("user_id = ?", userID).
		Where("product_id = ?", productID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to increment cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		return nil
	}

	item := &database.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
	}
	if _, err := r.db.NewInsert().Model(item).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert cart item: %w", err)
	}

	return nil
}

// RemoveItem drops a product line from the user's cart. Removing a product
// that is not in the cart is not an error.
func (r *Repository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.CartItem)(nil)).
		Where("user_id = ?", userID).
		Where("product_id = ?", productID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return nil
}
