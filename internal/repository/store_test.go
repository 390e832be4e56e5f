package repository

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/factory"
	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/model"
	"github.com/blues/raise/internal/pool"
	"github.com/blues/raise/internal/raise"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

func TestRaiseRow(t *testing.T) {
	opening := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	snap := raise.Snapshot{
		Address:         common.HexToAddress("0x5a15e"),
		Asset:           common.HexToAddress("0xa5"),
		Issuer:          common.HexToAddress("0x1551"),
		Price:           big.NewInt(250),
		MinSubscription: big.NewInt(10000),
		Opening:         opening,
		Closing:         opening.Add(time.Hour),
		Stage:           raise.Finalized,
		IssuerPaid:      true,
		Pulled:          big.NewInt(0),
		Refunded:        big.NewInt(0),
		Pool:            pool.State{MinCap: 1, MaxCap: 10, Sold: 7},
	}
	row, err := raiseRow(snap)
	if err != nil {
		t.Fatalf("raiseRow: %v", err)
	}
	if row.Stage != model.RaiseStageFinalized || !row.IssuerPaid || row.Sold != 7 || row.Address != snap.Address.Hex() {
		t.Fatalf("row = %+v", row)
	}
	var back raise.Snapshot
	if err := json.Unmarshal([]byte(row.Snapshot), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Price.Cmp(snap.Price) != 0 || !back.Opening.Equal(opening) || back.Pool.Sold != 7 {
		t.Fatalf("decoded snapshot = %+v", back)
	}
}

func TestFactoryRow(t *testing.T) {
	snap := factory.Snapshot{
		Address:        common.HexToAddress("0xfa"),
		ProxyAdmin:     common.HexToAddress("0xad"),
		Implementation: common.HexToAddress("0x01"),
		Records:        []factory.Record{{ID: "p1", Issuer: common.HexToAddress("0x1551")}},
	}
	row, err := factoryRow(snap)
	if err != nil {
		t.Fatalf("factoryRow: %v", err)
	}
	if row.ProxyAdmin != snap.ProxyAdmin.Hex() || row.Implementation != snap.Implementation.Hex() {
		t.Fatalf("row = %+v", row)
	}
}

func TestEventRow(t *testing.T) {
	at := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	e := event.New(event.SourceRaise, event.IssuerPaid, common.HexToAddress("0x5a15e"), at, "amount", "42")
	row, err := eventRow(e, 2)
	if err != nil {
		t.Fatalf("eventRow: %v", err)
	}
	if _, err := uuid.Parse(row.EventId); err != nil {
		t.Fatalf("event id %q: %v", row.EventId, err)
	}
	if row.Seq != 2 || row.ContractName != event.SourceRaise || row.EventType != event.IssuerPaid || !row.OccurredAt.Equal(at) {
		t.Fatalf("row = %+v", row)
	}
	if row.Data != `{"amount":"42"}` {
		t.Fatalf("data = %s", row.Data)
	}
	other, _ := eventRow(e, 2)
	if other.EventId == row.EventId {
		t.Fatal("event ids must be unique")
	}
}

func TestLedgerRows(t *testing.T) {
	asset := common.HexToAddress("0xa5")
	owner := common.HexToAddress("0x11")
	spender := common.HexToAddress("0x5a15e")

	b := balanceRow(asset, ledger.Balance{Account: owner, Amount: big.NewInt(1234)})
	if b.Asset != asset.Hex() || b.Account != owner.Hex() || b.Amount != "1234" {
		t.Fatalf("balance row = %+v", b)
	}
	a := allowanceRow(asset, ledger.Allowance{Owner: owner, Spender: spender, Amount: big.NewInt(7)})
	if a.Owner != owner.Hex() || a.Spender != spender.Hex() || a.Amount != "7" {
		t.Fatalf("allowance row = %+v", a)
	}

	tests := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935", true},
		{"-3", false},
		{"", false},
	}
	for _, tt := range tests {
		v, err := parseStoredAmount(tt.in)
		if tt.ok != (err == nil) {
			t.Fatalf("parseStoredAmount(%q) err = %v", tt.in, err)
		}
		if tt.ok && v.String() != tt.in {
			t.Fatalf("parseStoredAmount(%q) = %s", tt.in, v)
		}
	}
}
