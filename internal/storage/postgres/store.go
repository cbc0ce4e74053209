package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for derived entities and progress.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the entity and state tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// LoadEntity returns the JSON document stored for kind/id.
func (s *Store) LoadEntity(ctx context.Context, kind model.Kind, id string) (json.RawMessage, bool, error) {
	if kind == "" || id == "" {
		return nil, false, storage.ErrInvalidInput
	}
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT data FROM entities WHERE kind=$1 AND id=$2`, string(kind), id)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return json.RawMessage(data), true, nil
}

// SaveEntity upserts the JSON document for kind/id.
func (s *Store) SaveEntity(ctx context.Context, kind model.Kind, id string, data json.RawMessage) error {
	if kind == "" || id == "" || len(data) == 0 {
		return storage.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entities (kind, id, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, string(kind), id, []byte(data))
	return err
}

var _ storage.BatchSaver = (*Store)(nil)

// SaveEntities upserts many documents in one round trip. Statements run in
// slice order.
func (s *Store) SaveEntities(ctx context.Context, entities []model.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, entity := range entities {
		data, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", entity.EntityKind(), entity.EntityID(), err)
		}
		batch.Queue(`
			INSERT INTO entities (kind, id, data, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (kind, id)
			DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		`, string(entity.EntityKind()), entity.EntityID(), data)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, entity := range entities {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s %s: %w", entity.EntityKind(), entity.EntityID(), err)
		}
	}
	return nil
}

// RemoveEntity deletes the document for kind/id; absent rows are ignored.
func (s *Store) RemoveEntity(ctx context.Context, kind model.Kind, id string) error {
	if kind == "" || id == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM entities WHERE kind=$1 AND id=$2`, string(kind), id)
	return err
}

// LoadState returns the last applied log position for a name.
func (s *Store) LoadState(ctx context.Context, name string) (storage.Position, bool, error) {
	if name == "" {
		return storage.Position{}, false, fmt.Errorf("state name required")
	}
	var block, logIndex int64
	row := s.pool.QueryRow(ctx, `SELECT block, log_index FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block, &logIndex); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Position{}, false, nil
		}
		return storage.Position{}, false, err
	}
	return storage.Position{BlockNumber: uint64(block), LogIndex: uint64(logIndex)}, true, nil
}

// SaveState upserts the last applied log position for a name.
func (s *Store) SaveState(ctx context.Context, name string, pos storage.Position) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, block, log_index, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET block = EXCLUDED.block, log_index = EXCLUDED.log_index, updated_at = now()
	`, name, int64(pos.BlockNumber), int64(pos.LogIndex))
	return err
}
