package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployments (
		id TEXT PRIMARY KEY,
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
		created_at TEXT NOT NULL
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
func (s *SQLiteStore) Record(ctx context.Context, d *Deployment) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO deployments (id, action, chain_name, endpoint, contract_name, contract_version, code_hash, address, extrinsic_hash, block_hash, signer_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Action, d.ChainName, d.Endpoint, d.ContractName, d.ContractVersion,
		d.CodeHash, d.Address, d.ExtrinsicHash, d.BlockHash, d.SignerAddress,
		d.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// Get retrieves a deployment by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Deployment, error) {
	query := `
		SELECT id, action, chain_name, endpoint, contract_name, contract_version, code_hash, address, extrinsic_hash, block_hash, signer_address, created_at
		FROM deployments
		WHERE id = ?
	`
	var d Deployment
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Action, &d.ChainName, &d.Endpoint, &d.ContractName, &d.ContractVersion,
		&d.CodeHash, &d.Address, &d.ExtrinsicHash, &d.BlockHash, &d.SignerAddress, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &d, nil
}

// List returns deployments matching the filter, newest first
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Deployment, error) {
	query := `
		SELECT id, action, chain_name, endpoint, contract_name, contract_version, code_hash, address, extrinsic_hash, block_hash, signer_address, created_at
		FROM deployments
	`
	var clauses []string
	var args []any
	if filter.Chain != "" {
		clauses = append(clauses, "chain_name = ?")
		args = append(args, filter.Chain)
	}
	if filter.Contract != "" {
		clauses = append(clauses, "contract_name = ?")
		args = append(args, filter.Contract)
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, filter.Action)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deployment
	for rows.Next() {
		var d Deployment
		var createdAt string
		if err := rows.Scan(
			&d.ID, &d.Action, &d.ChainName, &d.Endpoint, &d.ContractName, &d.ContractVersion,
			&d.CodeHash, &d.Address, &d.ExtrinsicHash, &d.BlockHash, &d.SignerAddress, &createdAt,
		); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}
