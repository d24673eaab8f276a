package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

// MySQLAdapter implements the catalog collaborator on top of the storefront's
// product tables. Decrements are conditional updates guarded by the current
// stock, so a decrement can never drive a count below zero.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, image, price, stock
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Image, &p.Price, &p.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT tag_id, stock
		FROM product_tag_stock WHERE product_id = ?`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tag stock: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts domain.TagStock
		if err := rows.Scan(&ts.TagID, &ts.Stock); err != nil {
			return nil, fmt.Errorf("scan tag stock: %w", err)
		}
		p.TagStock = append(p.TagStock, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan tag stock: %w", err)
	}

	return &p, nil
}

func (m *MySQLAdapter) DecrementStock(ctx context.Context, productID string, quantity int, tagID string) error {
	if tagID != "" {
		return m.decrementTagStock(ctx, productID, quantity, tagID)
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		quantity, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var stock int
		err := m.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("probe stock: %w", err)
		}
		return port.ErrInsufficientStock
	}

	return nil
}

func (m *MySQLAdapter) decrementTagStock(ctx context.Context, productID string, quantity int, tagID string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE product_tag_stock
		SET stock = stock - ?
		WHERE product_id = ? AND tag_id = ? AND stock >= ?`,
		quantity, productID, tagID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement tag stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var stock int
		err := m.db.QueryRowContext(ctx, `
			SELECT stock FROM product_tag_stock
			WHERE product_id = ? AND tag_id = ?`, productID, tagID,
		).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("probe tag stock: %w", err)
		}
		return port.ErrInsufficientStock
	}

	return nil
}
