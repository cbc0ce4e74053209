package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gaugeScope/internal/model"
)

type recordingStore struct {
	saved   []string
	batches int
	batch   bool
}

func (s *recordingStore) LoadEntity(context.Context, model.Kind, string) (json.RawMessage, bool, error) {
	return nil, false, nil
}

func (s *recordingStore) SaveEntity(_ context.Context, kind model.Kind, id string, _ json.RawMessage) error {
	s.saved = append(s.saved, string(kind)+"/"+id)
	return nil
}

func (s *recordingStore) RemoveEntity(context.Context, model.Kind, string) error { return nil }

type batchStore struct{ recordingStore }

func (s *batchStore) SaveEntities(_ context.Context, entities []model.Entity) error {
	s.batches++
	for _, entity := range entities {
		s.saved = append(s.saved, string(entity.EntityKind())+"/"+entity.EntityID())
	}
	return nil
}

func TestSaveAllUsesBatchWhenSupported(t *testing.T) {
	store := &batchStore{}
	err := SaveAll(context.Background(), store,
		&model.VeNFTEntity{ID: "7"},
		&model.Vote{ID: "v1"},
		&model.Vote{ID: "v2"},
	)
	if err != nil {
		t.Fatalf("save all: %v", err)
	}
	if store.batches != 1 {
		t.Fatalf("batches: %d", store.batches)
	}
	want := []string{"VeNFTEntity/7", "Vote/v1", "Vote/v2"}
	if len(store.saved) != len(want) {
		t.Fatalf("saved: %v", store.saved)
	}
	for i := range want {
		if store.saved[i] != want[i] {
			t.Fatalf("order: %v", store.saved)
		}
	}
}

func TestSaveAllFallsBackInOrder(t *testing.T) {
	store := &recordingStore{}
	if err := SaveAll(context.Background(), store, &model.VeNFTEntity{ID: "7"}, &model.Vote{ID: "v1"}); err != nil {
		t.Fatalf("save all: %v", err)
	}
	if len(store.saved) != 2 || store.saved[0] != "VeNFTEntity/7" {
		t.Fatalf("saved: %v", store.saved)
	}
	if err := SaveAll(context.Background(), store); err != nil {
		t.Fatalf("empty: %v", err)
	}
}

func TestSaveAllRejectsEmptyID(t *testing.T) {
	store := &batchStore{}
	err := SaveAll(context.Background(), store, &model.VeNFTEntity{ID: "7"}, &model.Vote{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if store.batches != 0 || len(store.saved) != 0 {
		t.Fatalf("partial save: %v", store.saved)
	}
}
