package settings

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"mebelin-be/internal/logger"

	"go.uber.org/zap"
)

const KeyTaxBasisPoints = "tax_basis_points"

// Repository reads store-wide key/value settings.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	// TaxBasisPoints returns the configured tax rate in basis points
	// (1100 = 11%). Unset or malformed means no tax.
	TaxBasisPoints(ctx context.Context) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM settings WHERE key = $1
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *repository) TaxBasisPoints(ctx context.Context) (int64, error) {
	raw, err := r.Get(ctx, KeyTaxBasisPoints)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}

	bps, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || bps < 0 {
		logger.FromCtx(ctx).Warn("malformed tax setting, ignoring",
			zap.String("layer", "repository"),
			zap.String("value", raw),
		)
		return 0, nil
	}
	return bps, nil
}
