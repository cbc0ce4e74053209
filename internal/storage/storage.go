package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"gaugeScope/internal/model"
)

// Storage defines a sink for log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// EntityStore persists derived entities by kind and id. Each call is
// independent; there are no multi-entity transactions.
type EntityStore interface {
	LoadEntity(ctx context.Context, kind model.Kind, id string) (json.RawMessage, bool, error)
	SaveEntity(ctx context.Context, kind model.Kind, id string, data json.RawMessage) error
	// RemoveEntity deletes a record. Removing an absent record is not an error.
	RemoveEntity(ctx context.Context, kind model.Kind, id string) error
}

// BatchSaver is an EntityStore that can upsert many entities in one round
// trip, applying them in slice order.
type BatchSaver interface {
	SaveEntities(ctx context.Context, entities []model.Entity) error
}

// Load fetches and decodes one entity. The bool reports whether it exists.
func Load[T any](ctx context.Context, s EntityStore, kind model.Kind, id string) (*T, bool, error) {
	data, ok, err := s.LoadEntity(ctx, kind, id)
	if err != nil {
		return nil, false, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	if !ok {
		return nil, false, nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("decode %s %s: %w", kind, id, err)
	}
	return &out, true, nil
}

// Save encodes and upserts one entity.
func Save(ctx context.Context, s EntityStore, entity model.Entity) error {
	if entity.EntityID() == "" {
		return fmt.Errorf("save %s: %w: empty id", entity.EntityKind(), ErrInvalidInput)
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", entity.EntityKind(), entity.EntityID(), err)
	}
	if err := s.SaveEntity(ctx, entity.EntityKind(), entity.EntityID(), data); err != nil {
		return fmt.Errorf("save %s %s: %w", entity.EntityKind(), entity.EntityID(), err)
	}
	return nil
}

// Remove deletes one entity.
func Remove(ctx context.Context, s EntityStore, kind model.Kind, id string) error {
	if err := s.RemoveEntity(ctx, kind, id); err != nil {
		return fmt.Errorf("remove %s %s: %w", kind, id, err)
	}
	return nil
}

// SaveAll upserts entities in order. Stores implementing BatchSaver get one
// batch; others get one Save per entity.
func SaveAll(ctx context.Context, s EntityStore, entities ...model.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	for _, entity := range entities {
		if entity.EntityID() == "" {
			return fmt.Errorf("save %s: %w: empty id", entity.EntityKind(), ErrInvalidInput)
		}
	}
	if batch, ok := s.(BatchSaver); ok {
		if err := batch.SaveEntities(ctx, entities); err != nil {
			return fmt.Errorf("save batch of %d: %w", len(entities), err)
		}
		return nil
	}
	for _, entity := range entities {
		if err := Save(ctx, s, entity); err != nil {
			return err
		}
	}
	return nil
}
