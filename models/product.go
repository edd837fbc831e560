package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Icon      string `json:"icon"`
	ColorBg   string `json:"color_bg"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

type Shop struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	CategorySlug string  `json:"category_slug"`
	Rating       float64 `json:"rating"`
	DeliveryTime string  `json:"delivery_time"`
	Distance     string  `json:"distance"`
	ImageURL     string  `json:"image_url"`
	Address      string  `json:"address"`
	IsFeatured   bool    `json:"is_featured"`
	IsActive     bool    `json:"is_active"`
}

type Product struct {
	ID            int             `json:"id"`
	ShopID        int             `json:"shop_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	ImageURL      string          `json:"image_url"`
	Description   string          `json:"description"`
	IsAvailable   bool            `json:"is_available"`
	Unit          string          `json:"unit"`
}

// Key is the string form of the product id used as a cart key.
func (p Product) Key() string {
	return strconv.Itoa(p.ID)
}

// ProductIndex maps product id to product.
type ProductIndex map[int]Product

func IndexProducts(products []Product) ProductIndex {
	idx := make(ProductIndex, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

// Lookup resolves a cart key. Keys that are not integers or not in the
// catalog report false.
func (idx ProductIndex) Lookup(key string) (Product, bool) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return Product{}, false
	}
	p, ok := idx[id]
	return p, ok
}

type ProductInput struct {
	Name        string `json:"name" binding:"required"`
	Price       string `json:"price" binding:"required"`
	Unit        string `json:"unit"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

type ShopInput struct {
	Name         string `json:"name" binding:"required"`
	CategorySlug string `json:"category_slug"`
	Address      string `json:"address"`
	ImageURL     string `json:"image_url"`
}
