package product

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/xenking/teahouse-backend/db"
)

// CollectionName is the stable name of the product collection.
const CollectionName = "products"

// Product represents a menu item available for purchase.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	RegularPrice decimal.Decimal `json:"regularPrice"`
	LargePrice   decimal.Decimal `json:"largePrice"`
	Type         string          `json:"type"`
	Description  string          `json:"description"`
}

// Input holds the client-editable fields of a product.
type Input struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	RegularPrice decimal.Decimal `json:"regularPrice"`
	LargePrice   decimal.Decimal `json:"largePrice"`
	Type         string          `json:"type"`
	Description  string          `json:"description"`
}

func (in Input) toProduct(id int) Product {
	return Product{
		ID:           id,
		Name:         in.Name,
		Category:     in.Category,
		RegularPrice: in.RegularPrice,
		LargePrice:   in.LargePrice,
		Type:         in.Type,
		Description:  in.Description,
	}
}

// DefaultCatalog returns the menu seeded into a fresh product collection.
func DefaultCatalog() []Product {
	var products []Product
	if err := json.Unmarshal(db.DefaultProducts, &products); err != nil {
		panic("decode embedded default products: " + err.Error())
	}
	return products
}

func productID(p Product) int { return p.ID }
