// Package store records what the tool has submitted: one row per
// extrinsic, kept in a local SQLite database by default or a shared
// Postgres database for teams.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Common storage errors
var (
	ErrNotFound = errors.New("not found")
)

// Actions recorded in history.
const (
	ActionUpload      = "upload"
	ActionInstantiate = "instantiate"
	ActionCall        = "call"
	ActionRemove      = "remove"
)

// Deployment is one submitted extrinsic.
type Deployment struct {
	ID              string
	Action          string
	ChainName       string // production chain name; empty for custom nodes
	Endpoint        string
	ContractName    string
	ContractVersion string
	CodeHash        string
	Address         string // contract address, instantiations only
	ExtrinsicHash   string
	BlockHash       string
	SignerAddress   string
	CreatedAt       time.Time
}

// Filter narrows a history listing. Zero values match everything.
type Filter struct {
	Chain    string
	Contract string
	Action   string
	Limit    int
}

// Store persists deployment history.
type Store interface {
	Record(ctx context.Context, d *Deployment) error
	Get(ctx context.Context, id string) (*Deployment, error)
	List(ctx context.Context, filter Filter) ([]Deployment, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// Open picks a backend from the database URL: postgres:// URLs get the
// Postgres store, anything else is treated as a SQLite path.
func Open(databaseURL string, logger *slog.Logger) (Store, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return NewPostgresStore(databaseURL, logger)
	}
	return NewSQLiteStore(databaseURL, logger)
}
