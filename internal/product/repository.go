package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/vbhan/go-shop/internal/database"
)

var ErrNotFound = errors.New("product not found")

// Repository handles product data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product owned by the given user.
func (r *Repository) Create(ctx context.Context, title string, price float64, description, imageURL string, userID uuid.UUID) (*Product, error) {
	dbProduct := &database.Product{
		Title:       title,
		Price:       price,
		Description: description,
		ImageURL:    imageURL,
		UserID:      userID,
	}

	_, err := r.db.NewInsert().
		Model(dbProduct).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return mapDBProductToModel(dbProduct), nil
}

// GetByID retrieves a product by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	dbProduct := new(database.Product)
	err := r.db.NewSelect().
		Model(dbProduct).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return mapDBProductToModel(dbProduct), nil
}

// List returns all products, newest first.
func (r *Repository) List(ctx context.Context) ([]*Product, error) {
	var dbProducts []*database.Product
	err := r.db.NewSelect().
		Model(&dbProducts).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*Product, 0, len(dbProducts))
	for _, dbp := range dbProducts {
		products = append(products, mapDBProductToModel(dbp))
	}
	return products, nil
}

// ListByUser returns the products owned by a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Product, error) {
	var dbProducts []*database.Product
	err := r.db.NewSelect().
		Model(&dbProducts).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list products by user: %w", err)
	}

	products := make([]*Product, 0, len(dbProducts))
	for _, dbp := range dbProducts {
		products = append(products, mapDBProductToModel(dbp))
	}
	return products, nil
}

// Update rewrites a product's fields. Only the owner's product is touched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title string, price float64, description, imageURL string, userID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.Product)(nil)).
		Set("title = ?", title).
		Set("price = ?", price).
		Set("description = ?", description).
		Set("image_url = ?", imageURL).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a product owned by the user.
func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Product)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBProductToModel converts database model to domain model
func mapDBProductToModel(dbp *database.Product) *Product {
	return &Product{
		ID:          dbp.ID,
		Title:       dbp.Title,
		Price:       dbp.Price,
		Description: dbp.Description,
		ImageURL:    dbp.ImageURL,
		UserID:      dbp.UserID,
		CreatedAt:   dbp.CreatedAt,
		UpdatedAt:   dbp.UpdatedAt,
	}
}
