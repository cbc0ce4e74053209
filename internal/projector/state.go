package projector

import (
	"context"
	"time"

	"gaugeScope/internal/storage"
	"gaugeScope/internal/storage/postgres"
)

// StateStore persists the position of the last applied log.
type StateStore interface {
	Load(ctx context.Context) (storage.Position, bool, error)
	Save(ctx context.Context, pos storage.Position) error
}

// FileStateStore stores state in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint64 `json:"log_index"`
	UpdatedAt   string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (storage.Position, bool, error) {
	var rec stateRecord
	if s == nil || s.Path == "" {
		return storage.Position{}, false, nil
	}
	ok, err := storage.ReadJSONFile(s.Path, &rec)
	if err != nil || !ok {
		return storage.Position{}, false, err
	}
	return storage.Position{BlockNumber: rec.BlockNumber, LogIndex: rec.LogIndex}, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, pos storage.Position) error {
	if s == nil || s.Path == "" {
		return nil
	}
	return storage.WriteJSONFile(s.Path, stateRecord{
		BlockNumber: pos.BlockNumber,
		LogIndex:    pos.LogIndex,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// DBStateStore stores state in the indexer_state table.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (storage.Position, bool, error) {
	if s == nil || s.Store == nil {
		return storage.Position{}, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, pos storage.Position) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, pos)
}
