package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "inkctl-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	dbPath := filepath.Join(tmpDir, "history.db")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := NewSQLiteStore(dbPath, logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func TestSQLiteStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("RecordAndGet", func(t *testing.T) {
		d := &Deployment{
			ID:              uuid.New().String(),
			Action:          ActionInstantiate,
			ChainName:       "astar",
			Endpoint:        "wss://rpc.astar.network:443",
			ContractName:    "flipper",
			ContractVersion: "0.1.0",
			CodeHash:        "0xabc123",
			Address:         "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
			ExtrinsicHash:   "0xdeadbeef",
			BlockHash:       "0xfeedface",
			SignerAddress:   "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty",
		}

		if err := s.Record(ctx, d); err != nil {
			t.Fatalf("Record() error = %v", err)
		}

		got, err := s.Get(ctx, d.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Action != d.Action {
			t.Errorf("Get().Action = %v, want %v", got.Action, d.Action)
		}
		if got.ChainName != d.ChainName {
			t.Errorf("Get().ChainName = %v, want %v", got.ChainName, d.ChainName)
		}
		if got.Address != d.Address {
			t.Errorf("Get().Address = %v, want %v", got.Address, d.Address)
		}
		if got.CreatedAt.IsZero() {
			t.Error("Get().CreatedAt is zero, want populated")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, uuid.New().String())
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListFilters", func(t *testing.T) {
		for _, d := range []Deployment{
			{ID: uuid.New().String(), Action: ActionUpload, ChainName: "kusama", Endpoint: "wss://kusama-rpc.polkadot.io", ContractName: "erc20"},
			{ID: uuid.New().String(), Action: ActionCall, ChainName: "kusama", Endpoint: "wss://kusama-rpc.polkadot.io", ContractName: "flipper"},
			{ID: uuid.New().String(), Action: ActionUpload, ChainName: "", Endpoint: "ws://localhost:9944", ContractName: "erc20"},
		} {
			d := d
			if err := s.Record(ctx, &d); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}

		got, err := s.List(ctx, Filter{Chain: "kusama"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("List(chain=kusama) returned %d rows, want 2", len(got))
		}

		got, err = s.List(ctx, Filter{Chain: "kusama", Action: ActionUpload})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("List(chain=kusama, action=upload) returned %d rows, want 1", len(got))
		}
		if got[0].ContractName != "erc20" {
			t.Errorf("List()[0].ContractName = %v, want erc20", got[0].ContractName)
		}

		got, err = s.List(ctx, Filter{Limit: 1})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("List(limit=1) returned %d rows, want 1", len(got))
		}
	})
}

func TestOpenPicksBackend(t *testing.T) {
	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := Open(filepath.Join(tmpDir, "history.db"), logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Open() returned %T, want *SQLiteStore", s)
	}
}
