package store

import (
	"context"
	"errors"

	"nextshoptx/internal/models"

	"github.com/jackc/pgx/v5"
)

// Catalog lookups back the intent validations. These tables are owned by
// the surrounding shop backend; this core only reads them, plus the
// stock reservation below.

func (s *Store) GetPrice(ctx context.Context, priceID string) (*models.Price, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, merchant_id, unit_price, stock FROM prices WHERE id=$1
	`, priceID)

	var price models.Price
	if err := row.Scan(&price.ID, &price.MerchantID, &price.UnitPrice, &price.Stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, description FROM products WHERE id=$1
	`, productID)

	var product models.Product
	if err := row.Scan(&product.ID, &product.Name, &product.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetAddress(ctx context.Context, addressID string) (*models.Address, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, user_id FROM addresses WHERE id=$1
	`, addressID)

	var address models.Address
	if err := row.Scan(&address.ID, &address.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// ReserveStock decrements atomically; the stock>=qty guard means two
// racing intents cannot both take the last unit. Returns false when the
// remaining stock is short.
func (s *Store) ReserveStock(ctx context.Context, priceID string, quantity int) (bool, error) {
	res, err := s.Pool.Exec(ctx, `
		UPDATE prices SET stock=stock-$2 WHERE id=$1 AND stock>=$2
	`, priceID, quantity)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (s *Store) RestoreStock(ctx context.Context, priceID string, quantity int) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE prices SET stock=stock+$2 WHERE id=$1
	`, priceID, quantity)
	return err
}
