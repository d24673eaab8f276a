package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			image VARCHAR(512) NOT NULL DEFAULT '',
			price DECIMAL(10,2) NOT NULL DEFAULT 0,
			stock INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS product_tag_stock (
			product_id VARCHAR(64) NOT NULL,
			tag_id VARCHAR(64) NOT NULL,
			stock INT NOT NULL DEFAULT 0,
			PRIMARY KEY (product_id, tag_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}

	return db
}

func seedProduct(t *testing.T, db *sql.DB, id string, stock int, tagStock map[string]int) {
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, name, image, price, stock)
		VALUES (?, 'Test Plant', 'plant.webp', 12.50, ?)
		ON DUPLICATE KEY UPDATE stock = ?`, id, stock, stock)
	if err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	db.ExecContext(ctx, `DELETE FROM product_tag_stock WHERE product_id = ?`, id)
	for tagID, s := range tagStock {
		_, err := db.ExecContext(ctx, `
			INSERT INTO product_tag_stock (product_id, tag_id, stock)
			VALUES (?, ?, ?)`, id, tagID, s)
		if err != nil {
			t.Fatalf("seed tag stock failed: %v", err)
		}
	}
}

func TestGetProduct(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedProduct(t, db, "test-plant", 7, map[string]int{"size-l": 2})

	p, err := adapter.GetProduct(ctx, "test-plant")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected product")
	}
	if p.Stock != 7 {
		t.Errorf("expected stock 7, got %d", p.Stock)
	}
	if len(p.TagStock) != 1 || p.TagStock[0].TagID != "size-l" || p.TagStock[0].Stock != 2 {
		t.Errorf("unexpected tag stock %+v", p.TagStock)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	p, err := adapter.GetProduct(context.Background(), "no-such-product")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for missing product, got %+v", p)
	}
}

func TestDecrementStock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedProduct(t, db, "test-plant", 5, nil)

	if err := adapter.DecrementStock(ctx, "test-plant", 3, ""); err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}

	var stock int
	db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = 'test-plant'`).Scan(&stock)
	if stock != 2 {
		t.Errorf("expected stock 2, got %d", stock)
	}

	// More than remains must not go below zero.
	err := adapter.DecrementStock(ctx, "test-plant", 3, "")
	if !errors.Is(err, port.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = 'test-plant'`).Scan(&stock)
	if stock != 2 {
		t.Errorf("expected stock unchanged at 2, got %d", stock)
	}
}

func TestDecrementStock_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	err := NewMySQLAdapter(db).DecrementStock(context.Background(), "no-such-product", 1, "")
	if !errors.Is(err, port.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDecrementStock_TagPool(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	seedProduct(t, db, "test-plant", 10, map[string]int{"size-l": 2})

	if err := adapter.DecrementStock(ctx, "test-plant", 2, "size-l"); err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}

	var tagStock, stock int
	db.QueryRowContext(ctx, `
		SELECT stock FROM product_tag_stock
		WHERE product_id = 'test-plant' AND tag_id = 'size-l'`).Scan(&tagStock)
	if tagStock != 0 {
		t.Errorf("expected tag stock 0, got %d", tagStock)
	}
	db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = 'test-plant'`).Scan(&stock)
	if stock != 10 {
		t.Errorf("expected general stock untouched, got %d", stock)
	}

	err := adapter.DecrementStock(ctx, "test-plant", 1, "size-l")
	if !errors.Is(err, port.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock on depleted pool, got %v", err)
	}

	err = adapter.DecrementStock(ctx, "test-plant", 1, "size-xl")
	if !errors.Is(err, port.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound for unknown pool, got %v", err)
	}
}
