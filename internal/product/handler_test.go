package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProductForm(t *testing.T) {
	tests := []struct {
		name      string
		form      map[string]string
		wantPrice float64
		wantErrs  int
	}{
		{"valid", map[string]string{"title": "Book", "price": "19.99"}, 19.99, 0},
		{"missing title", map[string]string{"title": "", "price": "19.99"}, 19.99, 1},
		{"zero price", map[string]string{"title": "Book", "price": "0"}, 0, 1},
		{"negative price", map[string]string{"title": "Book", "price": "-5"}, -5, 1},
		{"unparseable price", map[string]string{"title": "Book", "price": "cheap"}, 0, 1},
		{"both invalid", map[string]string{"title": "", "price": ""}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, errs := validateProductForm(tt.form)
			assert.Equal(t, tt.wantPrice, price)
			assert.Len(t, errs, tt.wantErrs)
		})
	}
}
