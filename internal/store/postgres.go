package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployments (
		id UUID PRIMARY KEY,
		action TEXT NOT NULL,
		chain_name TEXT,
		endpoint TEXT NOT NULL,
		contract_name TEXT,
		contract_version TEXT,
		code_hash TEXT,
		address TEXT,
		extrinsic_hash TEXT,
		block_hash TEXT,
		signer_address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_deployments_chain ON deployments(chain_name);
	CREATE INDEX IF NOT EXISTS idx_deployments_contract ON deployments(contract_name);
	CREATE INDEX IF NOT EXISTS idx_deployments_created ON deployments(created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Debug("history migrations complete")
	return nil
}

// Record stores a submitted extrinsic
func (s *PostgresStore) Record(ctx context.Context, d *Deployment) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO deployments (id, action, chain_name, endpoint, contract_name, contract_version, code_hash, address, extrinsic_hash, block_hash, signer_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Action, d.ChainName, d.Endpoint, d.ContractName, d.ContractVersion,
		d.CodeHash, d.Address, d.ExtrinsicHash, d.BlockHash, d.SignerAddress, d.CreatedAt,
	)
	return err
}

// Get retrieves a deployment by ID
func (s *PostgresStore) Get(ctx context.Context, id string) (*Deployment, error) {
	query := `
		SELECT id, action, chain_name, endpoint, contract_name, contract_version, code_hash, address, extrinsic_hash, block_hash, signer_address, created_at
		FROM deployments
		WHERE id = $1
	`
	var d Deployment
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Action, &d.ChainName, &d.Endpoint, &d.ContractName, &d.ContractVersion,
		&d.CodeHash, &d.Address, &d.ExtrinsicHash, &d.BlockHash, &d.SignerAddress, &d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns deployments matching the filter, newest first
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Deployment, error) {
	query := `
		SELECT id, action, chain_name, endpoint, contract_name, contract_version, code_hash, address, extrinsic_hash, block_hash, signer_address, created_at
		FROM deployments
	`
	var clauses []string
	var args []any
	if filter.Chain != "" {
		args = append(args, filter.Chain)
		clauses = append(clauses, fmt.Sprintf("chain_name = $%d", len(args)))
	}
	if filter.Contract != "" {
		args = append(args, filter.Contract)
		clauses = append(clauses, fmt.Sprintf("contract_name = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		clauses = append(clauses, fmt.Sprintf("action = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deployment
	for rows.Next() {
		var d Deployment
		if err := rows.Scan(
			&d.ID, &d.Action, &d.ChainName, &d.Endpoint, &d.ContractName, &d.ContractVersion,
			&d.CodeHash, &d.Address, &d.ExtrinsicHash, &d.BlockHash, &d.SignerAddress, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
