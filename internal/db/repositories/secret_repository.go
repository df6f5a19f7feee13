package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SecretRepository reads named secrets from the app_secrets table. The
// customer portal writes OEM credentials there; the pipeline only reads.
type SecretRepository struct {
	db *sqlx.DB
}

func NewSecretRepository(db *sqlx.DB) *SecretRepository {
	return &SecretRepository{db: db}
}

// GetSecret returns the stored value for name, or an error when absent.
func (r *SecretRepository) GetSecret(ctx context.Context, name string) (string, error) {
	const query = `SELECT value FROM app_secrets WHERE name = $1`

	var value string
	if err := r.db.GetContext(ctx, &value, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("secret %q not found", name)
		}
		return "", fmt.Errorf("secret lookup failed: %w", err)
	}
	return value, nil
}
