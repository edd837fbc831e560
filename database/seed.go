package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/store"
)

// Seed upserts fixture rows with their fixed ids and moves the serial
// sequences past them. Running it twice is harmless.
func Seed(ctx context.Context, db *sql.DB, data store.SeedData, logger *zap.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	for _, c := range data.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, slug, icon, color_bg, is_active, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug, icon = EXCLUDED.icon,
			color_bg = EXCLUDED.color_bg, is_active = EXCLUDED.is_active, sort_order = EXCLUDED.sort_order`,
			c.ID, c.Name, c.Slug, c.Icon, c.ColorBg, c.IsActive, c.SortOrder,
		); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
	}

	for _, s := range data.Shops {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shops (id, name, category_slug, rating, delivery_time, distance, image_url, address, is_featured, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, category_slug = EXCLUDED.category_slug,
			rating = EXCLUDED.rating, delivery_time = EXCLUDED.delivery_time, distance = EXCLUDED.distance,
			image_url = EXCLUDED.image_url, address = EXCLUDED.address, is_featured = EXCLUDED.is_featured,
			is_active = EXCLUDED.is_active`,
			s.ID, s.Name, s.CategorySlug, s.Rating, s.DeliveryTime, s.Distance, s.ImageURL, s.Address, s.IsFeatured, s.IsActive,
		); err != nil {
			return fmt.Errorf("seed shop %d: %w", s.ID, err)
		}
	}

	for _, p := range data.Products {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, shop_id, name, price, original_price, image_url, description, is_available, unit)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET shop_id = EXCLUDED.shop_id, name = EXCLUDED.name, price = EXCLUDED.price,
			original_price = EXCLUDED.original_price, image_url = EXCLUDED.image_url,
			description = EXCLUDED.description, is_available = EXCLUDED.is_available, unit = EXCLUDED.unit`,
			p.ID, p.ShopID, p.Name, p.Price, p.OriginalPrice, p.ImageURL, p.Description, p.IsAvailable, p.Unit,
		); err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}

	for _, r := range data.Riders {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO riders (id, name, phone, vehicle_type, status, earnings, completed_orders)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Name, r.Phone, r.VehicleType, string(r.Status), r.Earnings, r.CompletedOrders,
		); err != nil {
			return fmt.Errorf("seed rider %s: %w", r.ID, err)
		}
	}

	for _, c := range data.Coupons {
		c = c.Normalize()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO coupons (code, discount, type, min_order, is_active)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (code) DO NOTHING`,
			c.Code, c.Discount, string(c.Type), c.MinOrder, c.IsActive,
		); err != nil {
			return fmt.Errorf("seed coupon %s: %w", c.Code, err)
		}
	}

	for _, table := range []string{"categories", "shops", "products"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 1))", table,
		)); err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logger.Info("Seed data loaded",
		zap.Int("shops", len(data.Shops)),
		zap.Int("products", len(data.Products)),
		zap.Int("riders", len(data.Riders)),
		zap.Int("coupons", len(data.Coupons)),
	)
	return nil
}
