package store

import (
	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

// SeedData is fixture data loaded by `minidrop seed` and by the memory
// backend at startup.
type SeedData struct {
	Categories []models.Category
	Shops      []models.Shop
	Products   []models.Product
	Riders     []models.Rider
	Coupons    []models.Coupon
	Orders     []models.Order
}

const defaultImage = "https://images.unsplash.com/photo-1542838132-92c53300491e?auto=format&fit=crop&w=200&q=80"

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func product(id, shopID int, name, price, original, unit, desc string) models.Product {
	return models.Product{
		ID:            id,
		ShopID:        shopID,
		Name:          name,
		Price:         money(price),
		OriginalPrice: money(original),
		ImageURL:      defaultImage,
		Description:   desc,
		IsAvailable:   true,
		Unit:          unit,
	}
}

// DemoData is the neighbourhood catalogue used for local runs.
func DemoData() SeedData {
	return SeedData{
		Categories: []models.Category{
			{ID: 1, Name: "Groceries", Slug: "grocery", Icon: "shopping-basket", ColorBg: "bg-green-100", IsActive: true, SortOrder: 1},
			{ID: 2, Name: "Snacks", Slug: "snacks", Icon: "cookie", ColorBg: "bg-orange-100", IsActive: true, SortOrder: 2},
			{ID: 3, Name: "Dairy", Slug: "dairy", Icon: "milk", ColorBg: "bg-blue-100", IsActive: true, SortOrder: 3},
			{ID: 4, Name: "Medicines", Slug: "medical", Icon: "pill", ColorBg: "bg-red-100", IsActive: true, SortOrder: 4},
			{ID: 5, Name: "Stationery", Slug: "stationery", Icon: "pencil", ColorBg: "bg-yellow-100", IsActive: true, SortOrder: 5},
			{ID: 6, Name: "Bakery", Slug: "bakery", Icon: "croissant", ColorBg: "bg-amber-100", IsActive: true, SortOrder: 6},
		},
		Shops: []models.Shop{
			{ID: 1, Name: "Fresh Mart Grocery", CategorySlug: "grocery", Rating: 4.8, DeliveryTime: "15-20 min", Distance: "0.8 km", Address: "12 Main St", IsFeatured: true, IsActive: true},
			{ID: 2, Name: "City Medicos", CategorySlug: "medical", Rating: 4.5, DeliveryTime: "10-15 min", Distance: "0.5 km", Address: "45 Park Ave", IsFeatured: true, IsActive: true},
			{ID: 3, Name: "Daily Dairy Needs", CategorySlug: "dairy", Rating: 4.9, DeliveryTime: "10 min", Distance: "0.2 km", Address: "88 Market Rd", IsActive: true},
			{ID: 4, Name: "Student Stationers", CategorySlug: "stationery", Rating: 4.2, DeliveryTime: "25-30 min", Distance: "1.5 km", Address: "University Sq", IsActive: true},
			{ID: 5, Name: "Oven Fresh Bakery", CategorySlug: "bakery", Rating: 4.7, DeliveryTime: "20-25 min", Distance: "1.2 km", Address: "Baker St", IsFeatured: true, IsActive: true},
		},
		Products: []models.Product{
			product(1, 1, "Full Cream Milk", "32", "35", "1 L", "Fresh full cream milk"),
			product(2, 1, "Whole Wheat Bread", "45", "50", "400g", "Freshly baked brown bread"),
			product(3, 1, "Farm Eggs", "65", "75", "6 pcs", "Pack of 6 fresh eggs"),
			product(4, 1, "Maggie Noodles", "14", "15", "70g", "Instant noodles"),
			product(5, 2, "Paracetamol 500mg", "20", "22", "Strip of 10", "Fever reducer"),
			product(6, 2, "Cotton Bandage", "30", "35", "1 Roll", "Sterile bandage"),
			product(7, 1, "Lays Classic Salted", "20", "20", "50g", "Classic potato chips"),
			product(8, 4, "Ballpoint Pen Blue", "10", "12", "1 pc", "Smooth writing pen"),
			product(9, 4, "Spiral Notebook", "55", "60", "1 pc", "100 pages ruled"),
		},
		Riders: []models.Rider{
			{ID: "r1", Name: "Rahul Kumar", Phone: "9876543210", VehicleType: "Bike", Status: models.RiderStatusOnline, Earnings: money("1250"), CompletedOrders: 45},
			{ID: "r2", Name: "Amit Singh", Phone: "9876543211", VehicleType: "Scooter", Status: models.RiderStatusOffline, Earnings: money("890"), CompletedOrders: 32},
		},
		Coupons: []models.Coupon{
			{Code: "WELCOME50", Discount: money("50"), Type: models.CouponFlat, MinOrder: money("200"), IsActive: true},
			{Code: "FRESH20", Discount: money("20"), Type: models.CouponPercent, MinOrder: money("500"), IsActive: true},
		},
	}
}
