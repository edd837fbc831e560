package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

const uniqueViolation = "23505"

// Postgres implements store.Store on PostgreSQL.
type Postgres struct {
	db       *sql.DB
	defaults models.PricingConfig
}

var _ store.Store = (*Postgres)(nil)

// NewPostgres wraps db. defaults is returned until a pricing config has been
// saved.
func NewPostgres(db *sql.DB, defaults models.PricingConfig) *Postgres {
	return &Postgres{db: db, defaults: defaults}
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, models.ErrNotFound)
	}
	return fmt.Errorf("%s %v: %w", what, id, err)
}

func mustAffect(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", what, id, models.ErrNotFound)
	}
	return nil
}

// Catalog

const shopColumns = "id, name, category_slug, rating, delivery_time, distance, image_url, address, is_featured, is_active"

type scanner interface {
	Scan(dest ...any) error
}

func scanShop(row scanner) (models.Shop, error) {
	var s models.Shop
	err := row.Scan(&s.ID, &s.Name, &s.CategorySlug, &s.Rating, &s.DeliveryTime, &s.Distance,
		&s.ImageURL, &s.Address, &s.IsFeatured, &s.IsActive)
	return s, err
}

func (p *Postgres) ListShops(ctx context.Context) ([]models.Shop, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT "+shopColumns+" FROM shops ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()

	shops := []models.Shop{}
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, s)
	}
	return shops, rows.Err()
}

func (p *Postgres) GetShop(ctx context.Context, id int) (models.Shop, error) {
	s, err := scanShop(p.db.QueryRowContext(ctx, "SELECT "+shopColumns+" FROM shops WHERE id = $1", id))
	if err != nil {
		return models.Shop{}, notFound(err, "shop", id)
	}
	return s, nil
}

func (p *Postgres) CreateShop(ctx context.Context, s models.Shop) (models.Shop, error) {
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO shops (name, category_slug, rating, delivery_time, distance, image_url, address, is_featured, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		s.Name, s.CategorySlug, s.Rating, s.DeliveryTime, s.Distance, s.ImageURL, s.Address, s.IsFeatured, s.IsActive,
	).Scan(&s.ID)
	if err != nil {
		return models.Shop{}, fmt.Errorf("insert shop: %w", err)
	}
	return s, nil
}

func (p *Postgres) UpdateShop(ctx context.Context, s models.Shop) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE shops SET name = $1, category_slug = $2, rating = $3, delivery_time = $4, distance = $5,
		image_url = $6, address = $7, is_featured = $8, is_active = $9 WHERE id = $10`,
		s.Name, s.CategorySlug, s.Rating, s.DeliveryTime, s.Distance, s.ImageURL, s.Address, s.IsFeatured, s.IsActive, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update shop: %w", err)
	}
	return mustAffect(res, "shop", s.ID)
}

func (p *Postgres) DeleteShop(ctx context.Context, id int) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM shops WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete shop: %w", err)
	}
	return mustAffect(res, "shop", id)
}

const productColumns = "id, shop_id, name, price, original_price, image_url, description, is_available, unit"

func scanProduct(row scanner) (models.Product, error) {
	var pr models.Product
	err := row.Scan(&pr.ID, &pr.ShopID, &pr.Name, &pr.Price, &pr.OriginalPrice, &pr.ImageURL,
		&pr.Description, &pr.IsAvailable, &pr.Unit)
	return pr, err
}

func (p *Postgres) ListProducts(ctx context.Context, shopID int) ([]models.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if shopID != 0 {
		rows, err = p.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE shop_id = $1 ORDER BY id", shopID)
	} else {
		rows, err = p.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, pr)
	}
	return products, rows.Err()
}

func (p *Postgres) GetProduct(ctx context.Context, id int) (models.Product, error) {
	pr, err := scanProduct(p.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		return models.Product{}, notFound(err, "product", id)
	}
	return pr, nil
}

func (p *Postgres) CreateProduct(ctx context.Context, pr models.Product) (models.Product, error) {
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO products (shop_id, name, price, original_price, image_url, description, is_available, unit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		pr.ShopID, pr.Name, pr.Price, pr.OriginalPrice, pr.ImageURL, pr.Description, pr.IsAvailable, pr.Unit,
	).Scan(&pr.ID)
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return pr, nil
}

func (p *Postgres) UpdateProduct(ctx context.Context, pr models.Product) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE products SET name = $1, price = $2, original_price = $3, image_url = $4, description = $5,
		is_available = $6, unit = $7 WHERE id = $8`,
		pr.Name, pr.Price, pr.OriginalPrice, pr.ImageURL, pr.Description, pr.IsAvailable, pr.Unit, pr.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return mustAffect(res, "product", pr.ID)
}

func (p *Postgres) SetProductAvailability(ctx context.Context, id int, available bool) error {
	res, err := p.db.ExecContext(ctx, "UPDATE products SET is_available = $1 WHERE id = $2", available, id)
	if err != nil {
		return fmt.Errorf("update product availability: %w", err)
	}
	return mustAffect(res, "product", id)
}

func (p *Postgres) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, name, slug, icon, color_bg, is_active, sort_order FROM categories ORDER BY sort_order, id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.ColorBg, &c.IsActive, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Orders

const orderColumns = `id, shop_id, user_id, subtotal, delivery_fee, total_amount, status, date, time,
	delivery_address, payment_method, rider_id, created_at`

func scanOrder(row scanner) (models.Order, error) {
	var (
		o       models.Order
		riderID sql.NullString
	)
	err := row.Scan(&o.ID, &o.ShopID, &o.UserID, &o.Subtotal, &o.DeliveryFee, &o.TotalAmount, &o.Status,
		&o.Date, &o.Time, &o.DeliveryAddress, &o.PaymentMethod, &riderID, &o.CreatedAt)
	if riderID.Valid {
		o.RiderID = &riderID.String
	}
	return o, err
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateOrder writes the order row and its items in one transaction.
func (p *Postgres) CreateOrder(ctx context.Context, o models.Order) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, shop_id, user_id, subtotal, delivery_fee, total_amount, status, date, time,
		delivery_address, payment_method, rider_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.ShopID, o.UserID, o.Subtotal, o.DeliveryFee, o.TotalAmount, o.Status, o.Date, o.Time,
		o.DeliveryAddress, o.PaymentMethod, nullable(o.RiderID), o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s: %w", o.ID, models.ErrConflict)
		}
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}

	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, price, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, item.ProductID, item.Name, item.Price, item.Quantity, item.ImageURL,
		); err != nil {
			return fmt.Errorf("insert order item %s/%d: %w", o.ID, item.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order %s: %w", o.ID, err)
	}
	return nil
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (models.Order, error) {
	o, err := scanOrder(p.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		return models.Order{}, notFound(err, "order", id)
	}
	orders := []models.Order{o}
	if err := p.attachItems(ctx, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

func (p *Postgres) ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.ShopID != 0 {
		add("shop_id = $%d", f.ShopID)
	}
	if f.RiderID != "" {
		add("rider_id = $%d", f.RiderID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := p.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (p *Postgres) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT order_id, product_id, name, price, quantity, image_url FROM order_items
		WHERE order_id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.ImageURL); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return rows.Err()
}

// casFailure explains why a conditional order update matched no row.
func (p *Postgres) casFailure(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id string) error {
	var status string
	err := q.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&status)
	if err != nil {
		return notFound(err, "order", id)
	}
	return fmt.Errorf("order %s is %s: %w", id, status, models.ErrConflict)
}

func (p *Postgres) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	res, err := p.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2 AND status = $3", string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return p.casFailure(ctx, p.db, id)
	}
	return nil
}

func (p *Postgres) AssignRider(ctx context.Context, id, riderID string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE orders SET rider_id = $1, status = $2
		WHERE id = $3 AND status = $4 AND rider_id IS NULL`,
		riderID, string(models.OrderStatusOutForDelivery), id, string(models.OrderStatusReady))
	if err != nil {
		return fmt.Errorf("assign rider: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return p.casFailure(ctx, p.db, id)
	}
	return nil
}

// CompleteDelivery marks the order Delivered and credits the rider in one
// transaction.
func (p *Postgres) CompleteDelivery(ctx context.Context, id, riderID string, earning decimal.Decimal) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delivery tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2 AND status = $3 AND rider_id = $4",
		string(models.OrderStatusDelivered), id, string(models.OrderStatusOutForDelivery), riderID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return p.casFailure(ctx, tx, id)
	}

	res, err = tx.ExecContext(ctx,
		"UPDATE riders SET earnings = earnings + $1, completed_orders = completed_orders + 1 WHERE id = $2",
		earning, riderID)
	if err != nil {
		return fmt.Errorf("credit rider: %w", err)
	}
	if err := mustAffect(res, "rider", riderID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delivery %s: %w", id, err)
	}
	return nil
}

// Riders

const riderColumns = "id, name, phone, vehicle_type, status, earnings, completed_orders"

func scanRider(row scanner) (models.Rider, error) {
	var r models.Rider
	err := row.Scan(&r.ID, &r.Name, &r.Phone, &r.VehicleType, &r.Status, &r.Earnings, &r.CompletedOrders)
	return r, err
}

func (p *Postgres) GetRider(ctx context.Context, id string) (models.Rider, error) {
	r, err := scanRider(p.db.QueryRowContext(ctx, "SELECT "+riderColumns+" FROM riders WHERE id = $1", id))
	if err != nil {
		return models.Rider{}, notFound(err, "rider", id)
	}
	return r, nil
}

func (p *Postgres) ListRiders(ctx context.Context) ([]models.Rider, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT "+riderColumns+" FROM riders ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list riders: %w", err)
	}
	defer rows.Close()

	riders := []models.Rider{}
	for rows.Next() {
		r, err := scanRider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rider: %w", err)
		}
		riders = append(riders, r)
	}
	return riders, rows.Err()
}

func (p *Postgres) CreateRider(ctx context.Context, r models.Rider) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO riders (id, name, phone, vehicle_type, status, earnings, completed_orders)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Name, r.Phone, r.VehicleType, string(r.Status), r.Earnings, r.CompletedOrders)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rider %s: %w", r.ID, models.ErrConflict)
		}
		return fmt.Errorf("insert rider: %w", err)
	}
	return nil
}

func (p *Postgres) SetRiderStatus(ctx context.Context, id string, status models.RiderStatus) error {
	res, err := p.db.ExecContext(ctx, "UPDATE riders SET status = $1 WHERE id = $2", string(status), id)
	if err != nil {
		return fmt.Errorf("update rider status: %w", err)
	}
	return mustAffect(res, "rider", id)
}

// Coupons and pricing

func (p *Postgres) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT code, discount, type, min_order, is_active FROM coupons ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		var c models.Coupon
		if err := rows.Scan(&c.Code, &c.Discount, &c.Type, &c.MinOrder, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (p *Postgres) SaveCoupon(ctx context.Context, c models.Coupon) error {
	c = c.Normalize()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO coupons (code, discount, type, min_order, is_active) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET discount = EXCLUDED.discount, type = EXCLUDED.type,
		min_order = EXCLUDED.min_order, is_active = EXCLUDED.is_active`,
		c.Code, c.Discount, string(c.Type), c.MinOrder, c.IsActive)
	if err != nil {
		return fmt.Errorf("save coupon: %w", err)
	}
	return nil
}

func (p *Postgres) PricingConfig(ctx context.Context) (models.PricingConfig, error) {
	var cfg models.PricingConfig
	err := p.db.QueryRowContext(ctx,
		`SELECT delivery_base, surge_multiplier, platform_fee, gst_percent, is_surge_active, version
		FROM pricing_config WHERE id = 1`,
	).Scan(&cfg.DeliveryBase, &cfg.SurgeMultiplier, &cfg.PlatformFee, &cfg.GSTPercent, &cfg.IsSurgeActive, &cfg.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return p.defaults, nil
	}
	if err != nil {
		return models.PricingConfig{}, fmt.Errorf("read pricing config: %w", err)
	}
	return cfg, nil
}

func (p *Postgres) SavePricingConfig(ctx context.Context, cfg models.PricingConfig) (models.PricingConfig, error) {
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO pricing_config (id, delivery_base, surge_multiplier, platform_fee, gst_percent, is_surge_active, version)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET delivery_base = EXCLUDED.delivery_base,
		surge_multiplier = EXCLUDED.surge_multiplier, platform_fee = EXCLUDED.platform_fee,
		gst_percent = EXCLUDED.gst_percent, is_surge_active = EXCLUDED.is_surge_active,
		version = pricing_config.version + 1
		RETURNING version`,
		cfg.DeliveryBase, cfg.SurgeMultiplier, cfg.PlatformFee, cfg.GSTPercent, cfg.IsSurgeActive, p.defaults.Version+1,
	).Scan(&cfg.Version)
	if err != nil {
		return models.PricingConfig{}, fmt.Errorf("save pricing config: %w", err)
	}
	return cfg, nil
}
