package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

func TestEntityStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore()

	user := &model.BribeUser{
		ID:     model.BribeUserID("0xbribe", "7"),
		Bribe:  "0xbribe",
		VeNFT:  "7",
		Amount: decimal.RequireFromString("12.5"),
	}
	if err := storage.Save(ctx, store, user); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := storage.Load[model.BribeUser](ctx, store, model.KindBribeUser, "0xbribe7")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !loaded.Amount.Equal(user.Amount) || loaded.VeNFT != "7" {
		t.Fatalf("loaded mismatch: %+v", loaded)
	}

	if _, ok, _ := storage.Load[model.BribeUser](ctx, store, model.KindBribe, "0xbribe7"); ok {
		t.Fatalf("kinds must not share ids")
	}
}

func TestEntityStoreRemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore()

	if err := storage.Remove(ctx, store, model.KindVote, "missing"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if store.Count(model.KindVote) != 0 {
		t.Fatalf("unexpected votes")
	}
}

func TestEntityStoreRejectsEmptyKeys(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore()

	if err := storage.Save(ctx, store, &model.Vote{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, _, err := store.LoadEntity(ctx, model.KindVote, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEntityStoreCopiesDocuments(t *testing.T) {
	ctx := context.Background()
	store := NewEntityStore()

	doc := []byte(`{"id":"a"}`)
	if err := store.SaveEntity(ctx, model.KindToken, "a", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc[2] = 'X'

	loaded, _, err := store.LoadEntity(ctx, model.KindToken, "a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(loaded) != `{"id":"a"}` {
		t.Fatalf("stored document aliased caller buffer: %s", loaded)
	}
}
