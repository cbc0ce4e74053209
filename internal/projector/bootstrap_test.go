package projector

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
	"gaugeScope/internal/storage/memory"
)

type staticVoter struct {
	ve, token common.Address
}

func (s staticVoter) Ve(*bind.CallOpts, common.Address) (common.Address, error) {
	return s.ve, nil
}

func (s staticVoter) Token(*bind.CallOpts, common.Address) (common.Address, error) {
	return s.token, nil
}

func TestEnsureVeCreatesRecord(t *testing.T) {
	store := memory.NewEntityStore()
	reader := staticVoter{
		ve:    common.HexToAddress("0x3000000000000000000000000000000000000003"),
		token: common.HexToAddress("0x4000000000000000000000000000000000000004"),
	}
	minter := common.HexToAddress("0x5000000000000000000000000000000000000005")

	ve, err := EnsureVe(context.Background(), store, reader, voterAddr, minter, nil)
	if err != nil {
		t.Fatalf("ensure ve: %v", err)
	}
	if ve.ID != model.AddressID(reader.ve) || ve.Underlying != model.AddressID(reader.token) || ve.UnderlyingMinter != model.AddressID(minter) {
		t.Fatalf("ve: %+v", ve)
	}

	stored, ok, err := storage.Load[model.VeEntity](context.Background(), store, model.KindVe, ve.ID)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if *stored != *ve {
		t.Fatalf("stored ve: %+v", stored)
	}
}

func TestEnsureVeKeepsExistingMinter(t *testing.T) {
	store := memory.NewEntityStore()
	reader := staticVoter{ve: common.HexToAddress("0x3000000000000000000000000000000000000003")}
	existing := &model.VeEntity{ID: model.AddressID(reader.ve), Underlying: "0xunder", UnderlyingMinter: "0xminter"}
	if err := storage.Save(context.Background(), store, existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ve, err := EnsureVe(context.Background(), store, reader, voterAddr, common.Address{}, nil)
	if err != nil {
		t.Fatalf("ensure ve: %v", err)
	}
	if *ve != *existing {
		t.Fatalf("existing ve changed: %+v", ve)
	}
}

func TestEnsureVeRequiresMinter(t *testing.T) {
	store := memory.NewEntityStore()
	reader := staticVoter{ve: common.HexToAddress("0x3000000000000000000000000000000000000003")}

	if _, err := EnsureVe(context.Background(), store, reader, voterAddr, common.Address{}, nil); err == nil {
		t.Fatalf("expected missing minter error")
	}
	if store.Count(model.KindVe) != 0 {
		t.Fatalf("ve saved without minter")
	}
}
