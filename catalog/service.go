// Package catalog serves shops, products and categories to the rest of the
// system. Reads go through a cache and a circuit breaker; when the backend is
// unreachable customers see an empty catalog instead of an error.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/circuitbreaker"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

const (
	defaultImage = "https://images.unsplash.com/photo-1542838132-92c53300491e?auto=format&fit=crop&w=200&q=80"
	defaultUnit  = "1 pc"
)

var markup = decimal.NewFromFloat(1.1)

// Cache is an optional read-through snapshot cache.
type Cache interface {
	Shops(ctx context.Context) ([]models.Shop, bool)
	SetShops(ctx context.Context, shops []models.Shop)
	Products(ctx context.Context) ([]models.Product, bool)
	SetProducts(ctx context.Context, products []models.Product)
	Categories(ctx context.Context) ([]models.Category, bool)
	SetCategories(ctx context.Context, categories []models.Category)
	Invalidate(ctx context.Context)
}

type noCache struct{}

func (noCache) Shops(context.Context) ([]models.Shop, bool) { return nil, false }
func (noCache) SetShops(context.Context, []models.Shop) {}
func (noCache) Products(context.Context) ([]models.Product, bool) { return nil, false }
func (noCache) SetProducts(context.Context, []models.Product) {}
func (noCache) Categories(context.Context) ([]models.Category, bool) { return nil, false }
func (noCache) SetCategories(context.Context, []models.Category) {}
func (noCache) Invalidate(context.Context) {}

type Service struct {
	repo    store.CatalogRepository
	cache   Cache
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewService wires the catalog. cache may be nil.
func NewService(repo store.CatalogRepository, cache Cache, logger *zap.Logger) *Service {
	if cache == nil {
		cache = noCache{}
	}
	breaker := circuitbreaker.NewCircuitBreaker("catalog", 5, 30*time.Second)
	breaker.OnStateChange(func(name string, from, to circuitbreaker.State) {
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	return &Service{repo: repo, cache: cache, breaker: breaker, logger: logger}
}

func (s *Service) allShops(ctx context.Context) ([]models.Shop, error) {
	if shops, ok := s.cache.Shops(ctx); ok {
		return shops, nil
	}
	var shops []models.Shop
	err := s.breaker.Execute(ctx, func() error {
		var err error
		shops, err = s.repo.ListShops(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.SetShops(ctx, shops)
	return shops, nil
}

func (s *Service) allProducts(ctx context.Context) ([]models.Product, error) {
	if products, ok := s.cache.Products(ctx); ok {
		return products, nil
	}
	var products []models.Product
	err := s.breaker.Execute(ctx, func() error {
		var err error
		products, err = s.repo.ListProducts(ctx, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.SetProducts(ctx, products)
	return products, nil
}

func (s *Service) degraded(what string, err error) {
	s.logger.Error("Catalog unavailable, serving empty "+what, zap.Error(err))
}

type ShopFilter struct {
	CategorySlug string
	FeaturedOnly bool
}

// Shops lists active shops matching f.
func (s *Service) Shops(ctx context.Context, f ShopFilter) []models.Shop {
	ctx, span := otel.Tracer("minidrop").Start(ctx, "ListShops")
	defer span.End()

	all, err := s.allShops(ctx)
	if err != nil {
		span.RecordError(err)
		s.degraded("shops", err)
		return []models.Shop{}
	}
	shops := make([]models.Shop, 0, len(all))
	for _, shop := range all {
		if !shop.IsActive {
			continue
		}
		if f.CategorySlug != "" && !strings.EqualFold(shop.CategorySlug, f.CategorySlug) {
			continue
		}
		if f.FeaturedOnly && !shop.IsFeatured {
			continue
		}
		shops = append(shops, shop)
	}
	span.SetAttributes(attribute.Int("shops.count", len(shops)))
	return shops
}

// Shop returns an active shop.
func (s *Service) Shop(ctx context.Context, id int) (models.Shop, error) {
	for _, shop := range s.Shops(ctx, ShopFilter{}) {
		if shop.ID == id {
			return shop, nil
		}
	}
	return models.Shop{}, fmt.Errorf("shop %d: %w", id, models.ErrNotFound)
}

// Products lists available products, of one shop when shopID is non-zero.
func (s *Service) Products(ctx context.Context, shopID int) []models.Product {
	all, err := s.allProducts(ctx)
	if err != nil {
		s.degraded("products", err)
		return []models.Product{}
	}
	products := make([]models.Product, 0, len(all))
	for _, p := range all {
		if !p.IsAvailable || (shopID != 0 && p.ShopID != shopID) {
			continue
		}
		products = append(products, p)
	}
	return products
}

// Index is the product catalog carts are priced against. Only available
// products are included.
func (s *Service) Index(ctx context.Context) models.ProductIndex {
	return models.IndexProducts(s.Products(ctx, 0))
}

// Categories lists active categories by sort order.
func (s *Service) Categories(ctx context.Context) []models.Category {
	categories, ok := s.cache.Categories(ctx)
	if !ok {
		err := s.breaker.Execute(ctx, func() error {
			var err error
			categories, err = s.repo.ListCategories(ctx)
			return err
		})
		if err != nil {
			s.degraded("categories", err)
			return []models.Category{}
		}
		s.cache.SetCategories(ctx, categories)
	}
	active := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			active = append(active, c)
		}
	}
	slices.SortStableFunc(active, func(a, b models.Category) int { return a.SortOrder - b.SortOrder })
	return active
}

// ShopProducts lists every product of a shop, including out of stock ones.
// Unlike the customer reads, backend errors are returned.
func (s *Service) ShopProducts(ctx context.Context, shopID int) ([]models.Product, error) {
	return s.repo.ListProducts(ctx, shopID)
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, models.NewValidationError("price", "invalid price")
	}
	return price, nil
}

// CreateProduct adds a product to shopID. Original price is the price plus
// ten percent.
func (s *Service) CreateProduct(ctx context.Context, shopID int, in models.ProductInput) (models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Product{}, models.NewValidationError("name", "is required")
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return models.Product{}, err
	}
	p := models.Product{
		ShopID:        shopID,
		Name:          name,
		Price:         price,
		OriginalPrice: price.Mul(markup).Round(2),
		ImageURL:      in.ImageURL,
		Description:   in.Description,
		IsAvailable:   true,
		Unit:          in.Unit,
	}
	if p.ImageURL == "" {
		p.ImageURL = defaultImage
	}
	if p.Unit == "" {
		p.Unit = defaultUnit
	}

	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Product created", zap.Int("product_id", created.ID), zap.Int("shop_id", shopID))
	return created, nil
}

func (s *Service) ownedProduct(ctx context.Context, shopID, productID int) (models.Product, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return models.Product{}, err
	}
	if p.ShopID != shopID {
		return models.Product{}, fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, shopID, productID int, in models.ProductInput) (models.Product, error) {
	p, err := s.ownedProduct(ctx, shopID, productID)
	if err != nil {
		return models.Product{}, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return models.Product{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	p.Price = price
	if p.OriginalPrice.LessThan(price) {
		p.OriginalPrice = price.Mul(markup).Round(2)
	}
	if in.Unit != "" {
		p.Unit = in.Unit
	}
	if in.ImageURL != "" {
		p.ImageURL = in.ImageURL
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	s.cache.Invalidate(ctx)
	return p, nil
}

// ToggleStock flips a product between available and out of stock.
func (s *Service) ToggleStock(ctx context.Context, shopID, productID int) (models.Product, error) {
	p, err := s.ownedProduct(ctx, shopID, productID)
	if err != nil {
		return models.Product{}, err
	}
	p.IsAvailable = !p.IsAvailable
	if err := s.repo.SetProductAvailability(ctx, productID, p.IsAvailable); err != nil {
		return models.Product{}, fmt.Errorf("toggle stock: %w", err)
	}
	s.cache.Invalidate(ctx)
	return p, nil
}

func (s *Service) CreateShop(ctx context.Context, in models.ShopInput) (models.Shop, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Shop{}, models.NewValidationError("name", "is required")
	}
	shop := models.Shop{
		Name:         name,
		CategorySlug: in.CategorySlug,
		Address:      in.Address,
		ImageURL:     in.ImageURL,
		Rating:       5.0,
		DeliveryTime: "20-30 min",
		Distance:     "1.0 km",
		IsActive:     true,
	}
	if shop.ImageURL == "" {
		shop.ImageURL = defaultImage
	}
	created, err := s.repo.CreateShop(ctx, shop)
	if err != nil {
		return models.Shop{}, fmt.Errorf("create shop: %w", err)
	}
	s.cache.Invalidate(ctx)
	return created, nil
}

func (s *Service) UpdateShop(ctx context.Context, id int, in models.ShopInput, active *bool) (models.Shop, error) {
	shop, err := s.repo.GetShop(ctx, id)
	if err != nil {
		return models.Shop{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		shop.Name = name
	}
	if in.CategorySlug != "" {
		shop.CategorySlug = in.CategorySlug
	}
	if in.Address != "" {
		shop.Address = in.Address
	}
	if in.ImageURL != "" {
		shop.ImageURL = in.ImageURL
	}
	if active != nil {
		shop.IsActive = *active
	}
	if err := s.repo.UpdateShop(ctx, shop); err != nil {
		return models.Shop{}, fmt.Errorf("update shop: %w", err)
	}
	s.cache.Invalidate(ctx)
	return shop, nil
}

func (s *Service) DeleteShop(ctx context.Context, id int) error {
	if err := s.repo.DeleteShop(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete shop: %w", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}
