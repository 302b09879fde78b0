package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ygg-project/yggcore/internal/model"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS feature_documents (
	env        TEXT PRIMARY KEY,
	features   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresStore is a PostgreSQL implementation of the Store interface. It
// stores one JSONB blob of the full ClientFeatures document per environment
// rather than normalizing toggles into rows: the engine only ever consumes
// or produces whole documents, so there is nothing else to query by.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store and ensures its
// backing table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// GetFeatures retrieves the stored document for env, or an empty document if
// none has ever been stored.
func (p *PostgresStore) GetFeatures(ctx context.Context, env string) (model.ClientFeatures, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT features FROM feature_documents WHERE env = $1`, env,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ClientFeatures{}, nil
	}
	if err != nil {
		return model.ClientFeatures{}, err
	}

	var features model.ClientFeatures
	if err := json.Unmarshal(raw, &features); err != nil {
		return model.ClientFeatures{}, err
	}
	return features, nil
}

// PutFeatures persists features as the current document for env, upserting
// over whatever was stored before.
func (p *PostgresStore) PutFeatures(ctx context.Context, env string, features model.ClientFeatures) error {
	raw, err := json.Marshal(features)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO feature_documents (env, features, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (env) DO UPDATE SET features = EXCLUDED.features, updated_at = now()
	`, env, raw)
	return err
}

// ListEnvironments returns every environment with a stored document.
func (p *PostgresStore) ListEnvironments(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT env FROM feature_documents ORDER BY env`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var envs []string
	for rows.Next() {
		var env string
		if err := rows.Scan(&env); err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, rows.Err()
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
