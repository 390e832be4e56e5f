package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/blues/raise/internal/config"
	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var tokenAddr = common.HexToAddress("0xdcf")

func newTestContract(t *testing.T) *Contract {
	t.Helper()
	c, err := NewContract("usdc", config.ContractConfig{Address: tokenAddr.Hex(), Enabled: true}, config.ChainConfig{ChainId: 31337})
	if err != nil {
		t.Fatalf("NewContract: %v", err)
	}
	return c
}

func TestParseABIAcceptsCompiledOutput(t *testing.T) {
	compiled := []byte(`{"contractName":"T","abi":` + erc20ABI + `}`)
	parsed, err := ParseABI(compiled)
	if err != nil {
		t.Fatalf("ParseABI: %v", err)
	}
	if _, ok := parsed.Methods["transferFrom"]; !ok {
		t.Fatal("transferFrom missing")
	}
	if _, err := ParseABI([]byte(`not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseTransferEvent(t *testing.T) {
	c := newTestContract(t)
	from := common.HexToAddress("0x11")
	to := common.HexToAddress("0x22")
	ev := c.GetABI().Events["Transfer"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(500))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	log := types.Log{
		Address: tokenAddr,
		Topics:  []common.Hash{ev.ID, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
		Data:    data,
	}
	fields, err := c.ParseEvent(log)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if fields["eventName"] != "Transfer" || fields["from"] != from || fields["to"] != to {
		t.Fatalf("fields = %v", fields)
	}
	if v, ok := fields["value"].(*big.Int); !ok || v.Int64() != 500 {
		t.Fatalf("value = %v", fields["value"])
	}

	if _, err := c.ParseEvent(types.Log{Topics: []common.Hash{{1}}}); err == nil {
		t.Fatal("expected unknown event error")
	}
}

func TestERC20AssetCustodyMapping(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	a, err := NewERC20Asset(newTestContract(t), nil, "0x"+common.Bytes2Hex(crypto.FromECDSA(key)), 31337)
	if err != nil {
		t.Fatalf("NewERC20Asset: %v", err)
	}
	instance := common.HexToAddress("0x5a15e")
	other := common.HexToAddress("0x5a15f")
	a.BindInstances(func(addr common.Address) bool { return addr == instance || addr == other })

	if a.Custody() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("custody = %s", a.Custody().Hex())
	}
	if a.onChain(instance) != a.Custody() || a.onChain(common.HexToAddress("0x11")) != common.HexToAddress("0x11") {
		t.Fatal("instance should map to custody")
	}

	ctx := context.Background()
	err = a.Transfer(ctx, common.HexToAddress("0x11"), instance, big.NewInt(1))
	if !apperrors.IsCode(err, apperrors.CodeTransferFailed) {
		t.Fatalf("foreign source err = %v", err)
	}
	err = a.TransferFrom(ctx, common.HexToAddress("0x11"), common.HexToAddress("0x12"), instance, big.NewInt(1))
	if !apperrors.IsCode(err, apperrors.CodeTransferFailed) {
		t.Fatalf("foreign spender err = %v", err)
	}
	if err := a.Transfer(ctx, instance, other, big.NewInt(1)); err != nil {
		t.Fatalf("custody internal move: %v", err)
	}

	if _, err := NewERC20Asset(newTestContract(t), nil, "zz", 1); err == nil {
		t.Fatal("expected invalid key error")
	}
}
