package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database representation of a storefront account.
// ResetToken and ResetTokenExpiration are always set or cleared together.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                   uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email                string     `bun:"email,notnull"`
	PasswordHash         string     `bun:"password_hash,notnull"`
	ResetToken           *string    `bun:"reset_token"`
	ResetTokenExpiration *time.Time `bun:"reset_token_expiration"`
	CreatedAt            time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt            time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Product is the database representation of a catalog product.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Title       string    `bun:"title,notnull"`
	Price       float64   `bun:"price,notnull"`
	Description string    `bun:"description"`
	ImageURL    string    `bun:"image_url"`
	UserID      uuid.UUID `bun:"user_id,type:uuid,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// CartItem is one line of a user's cart.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:ci"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	ProductID uuid.UUID `bun:"product_id,type:uuid,notnull"`
	Quantity  int       `bun:"quantity,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
