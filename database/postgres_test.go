package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/store"
)

var orderCols = []string{
	"id", "shop_id", "user_id", "subtotal", "delivery_fee", "total_amount", "status", "date", "time",
	"delivery_address", "payment_method", "rider_id", "created_at",
}

func setupPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	defaults := models.PricingConfig{DeliveryBase: decimal.NewFromInt(15), Version: 1}
	return NewPostgres(db, defaults), mock
}

func testOrder() models.Order {
	return models.Order{
		ID:              "ORD-12345",
		ShopID:          1,
		UserID:          "u1",
		Subtotal:        decimal.NewFromInt(109),
		DeliveryFee:     decimal.NewFromInt(15),
		TotalAmount:     decimal.NewFromInt(124),
		Status:          models.OrderStatusConfirmed,
		Date:            "2026-10-17",
		Time:            "10:30",
		DeliveryAddress: "12 Main St",
		PaymentMethod:   models.PaymentMethodCOD,
		CreatedAt:       time.Now(),
		Items: []models.OrderItem{
			{ProductID: 1, Name: "Full Cream Milk", Price: decimal.NewFromInt(32), Quantity: 2},
			{ProductID: 2, Name: "Whole Wheat Bread", Price: decimal.NewFromInt(45), Quantity: 1},
		},
	}
}

func TestPostgres_CreateOrder_Commits(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs("ORD-12345", 1, "Full Cream Milk", sqlmock.AnyArg(), 2, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs("ORD-12345", 2, "Whole Wheat Bread", sqlmock.AnyArg(), 1, "").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	if err := p.CreateOrder(context.Background(), testOrder()); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestPostgres_CreateOrder_ItemFailureRollsBack(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := p.CreateOrder(context.Background(), testOrder()); err == nil {
		t.Fatal("Expected error when an item insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestPostgres_CreateOrder_DuplicateID(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	err := p.CreateOrder(context.Background(), testOrder())
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestPostgres_GetOrder_NotFound(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs("ORD-00000").
		WillReturnError(sql.ErrNoRows)

	_, err := p.GetOrder(context.Background(), "ORD-00000")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_GetOrder_LoadsItems(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs("ORD-12345").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			"ORD-12345", 1, "u1", "109.00", "15.00", "124.00", "Out for Delivery", "2026-10-17", "10:30",
			"12 Main St", "COD", "r1", time.Now(),
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "name", "price", "quantity", "image_url"}).
			AddRow("ORD-12345", 1, "Full Cream Milk", "32.00", 2, "").
			AddRow("ORD-12345", 2, "Whole Wheat Bread", "45.00", 1, ""))

	o, err := p.GetOrder(context.Background(), "ORD-12345")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if o.Status != models.OrderStatusOutForDelivery {
		t.Errorf("Expected status %q, got %q", models.OrderStatusOutForDelivery, o.Status)
	}
	if o.RiderID == nil || *o.RiderID != "r1" {
		t.Errorf("Expected rider r1, got %v", o.RiderID)
	}
	if len(o.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(o.Items))
	}
	if !o.Items[0].Price.Equal(decimal.NewFromInt(32)) {
		t.Errorf("Expected item price 32, got %s", o.Items[0].Price)
	}
	if !o.Subtotal.Equal(decimal.NewFromInt(109)) {
		t.Errorf("Expected subtotal 109, got %s", o.Subtotal)
	}
}

func TestPostgres_ListOrders_BuildsFilter(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE shop_id = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs(3, "Ready").
		WillReturnRows(sqlmock.NewRows(orderCols))

	orders, err := p.ListOrders(context.Background(), store.OrderFilter{ShopID: 3, Status: models.OrderStatusReady})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", orders)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestPostgres_UpdateStatus_LostRace(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs("Ready", "ORD-12345", "Confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = $1")).
		WithArgs("ORD-12345").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Rejected"))

	err := p.UpdateStatus(context.Background(), "ORD-12345", models.OrderStatusConfirmed, models.OrderStatusReady)
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestPostgres_UpdateStatus_MissingOrder(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).WillReturnError(sql.ErrNoRows)

	err := p.UpdateStatus(context.Background(), "ORD-99999", models.OrderStatusConfirmed, models.OrderStatusReady)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_AssignRider(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("AND rider_id IS NULL")).
		WithArgs("r1", "Out for Delivery", "ORD-12345", "Ready").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.AssignRider(context.Background(), "ORD-12345", "r1"); err != nil {
		t.Errorf("AssignRider: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestPostgres_CompleteDelivery(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1")).
		WithArgs("Delivered", "ORD-12345", "Out for Delivery", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE riders SET earnings = earnings + $1")).
		WithArgs(sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := p.CompleteDelivery(context.Background(), "ORD-12345", "r1", decimal.NewFromInt(40)); err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestPostgres_CompleteDelivery_WrongRiderRollsBack(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Out for Delivery"))
	mock.ExpectRollback()

	err := p.CompleteDelivery(context.Background(), "ORD-12345", "r2", decimal.NewFromInt(40))
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestPostgres_PricingConfig_FallsBackToDefaults(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pricing_config WHERE id = 1")).WillReturnError(sql.ErrNoRows)

	cfg, err := p.PricingConfig(context.Background())
	if err != nil {
		t.Fatalf("PricingConfig: %v", err)
	}
	if cfg.Version != 1 || !cfg.DeliveryBase.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestPostgres_SavePricingConfig_ReturnsVersion(t *testing.T) {
	p, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO pricing_config")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	cfg, err := p.SavePricingConfig(context.Background(), models.PricingConfig{DeliveryBase: decimal.NewFromInt(20)})
	if err != nil {
		t.Fatalf("SavePricingConfig: %v", err)
	}
	if cfg.Version != 4 {
		t.Errorf("Expected version 4, got %d", cfg.Version)
	}
}

func TestMigrate_SkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// first migration is new, the rest were applied earlier
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("migrations/0001_catalog.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS categories")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
		WithArgs("migrations/0001_catalog.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	for _, name := range []string{"migrations/0002_orders.sql", "migrations/0003_pricing.sql"} {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(name).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}

	if err := Migrate(context.Background(), db, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
