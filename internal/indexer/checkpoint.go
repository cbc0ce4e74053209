package indexer

import (
	"time"

	"gaugeScope/internal/storage"
)

// Checkpoint tracks the last block whose logs were fully written.
type Checkpoint struct {
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk. A disabled store never
// loads anything and ignores saves.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	var cp Checkpoint
	if !c.enabled {
		return cp, false, nil
	}
	ok, err := storage.ReadJSONFile(c.path, &cp)
	return cp, ok, err
}

func (c *CheckpointStore) Save(lastProcessed uint64) error {
	if !c.enabled {
		return nil
	}
	return storage.WriteJSONFile(c.path, Checkpoint{
		LastProcessedBlock: lastProcessed,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
}
