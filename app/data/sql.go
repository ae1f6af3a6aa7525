package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// SQLStore keeps cart lines in a SQL database through bun.
type SQLStore struct {
	db *bun.DB
}

// OpenSQLite opens (and migrates) a SQLite database at dsn.
//
//	store, err := data.OpenSQLite(ctx, "file::memory:?cache=shared")
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps shared
	// in-memory databases alive for the store's lifetime.
	sqldb.SetMaxOpenConns(1)

	store := NewSQLStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open bun database.
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the cart_lines table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*CartLine)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create cart_lines: %w", err)
	}
	_, err := s.db.NewCreateIndex().
		Model((*CartLine)(nil)).
		Index("cart_lines_cart_idx").
		IfNotExists().
		Column("cart").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("index cart_lines: %w", err)
	}
	return nil
}

func (s *SQLStore) Name() string { return "sqlite" }

func (s *SQLStore) Lines(ctx context.Context, cart string) ([]CartLine, error) {
	var lines []CartLine
	err := s.db.NewSelect().
		Model(&lines).
		Where("cart = ?", cart).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *SQLStore) Add(ctx context.Context, line CartLine) (CartLine, error) {
	line.ID = 0
	if line.AddedAt.IsZero() {
		line.AddedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(&line).Returning("id").Exec(ctx); err != nil {
		return CartLine{}, err
	}
	return line, nil
}

func (s *SQLStore) Remove(ctx context.Context, cart string, id int64) error {
	res, err := s.db.NewDelete().
		Model((*CartLine)(nil)).
		Where("cart = ?", cart).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, cart string) error {
	_, err := s.db.NewDelete().
		Model((*CartLine)(nil)).
		Where("cart = ?", cart).
		Exec(ctx)
	return err
}

func (s *SQLStore) Close() error { return s.db.Close() }
