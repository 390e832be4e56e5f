package processor

import (
	"testing"
	"time"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

var (
	raiseAddr = common.HexToAddress("0x5a15e")
	investor  = common.HexToAddress("0x11")
	at        = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func TestManagerRegistersAllProjections(t *testing.T) {
	pm := NewProcessorManager()
	if got := len(pm.GetProcessors(event.SubscriptionDeclined)); got != 2 {
		t.Fatalf("SubscriptionDeclined processors = %d, want 2", got)
	}
	for _, typ := range []string{event.NewProposal, event.SubscriptionProposal, event.FundsReleased, event.IssuerPaid} {
		if len(pm.GetProcessors(typ)) == 0 {
			t.Fatalf("no processor for %s", typ)
		}
	}
	if len(pm.GetProcessors(event.OperatorClosed)) != 0 {
		t.Fatal("unexpected processor for OperatorClosed")
	}
}

func TestSubscriptionRecord(t *testing.T) {
	rec := &model.EventModel{EventId: "ev-1"}
	e := event.New(event.SourceRaise, event.SubscriptionProposal, raiseAddr, at,
		"id", "s1", "investor", investor.Hex(), "shares", "40", "cost", "10000")

	row, err := subscriptionRecord(rec, e)
	if err != nil {
		t.Fatalf("subscriptionRecord: %v", err)
	}
	if row.SubscriptionId != "s1" || row.Shares != 40 || row.Cost != "10000" ||
		row.Status != model.SubscriptionStatusPending || row.RaiseAddress != raiseAddr.Hex() || row.EventId != "ev-1" {
		t.Fatalf("row = %+v", row)
	}

	bad := event.New(event.SourceRaise, event.SubscriptionProposal, raiseAddr, at, "id", "s1")
	if _, err := subscriptionRecord(rec, bad); err == nil {
		t.Fatal("expected malformed event to fail")
	}
}

func TestSubscriptionTransition(t *testing.T) {
	tests := []struct {
		typ  string
		from model.SubscriptionStatus
		to   model.SubscriptionStatus
	}{
		{event.SubscriptionAccepted, model.SubscriptionStatusPending, model.SubscriptionStatusAccepted},
		{event.SubscriptionDeclined, model.SubscriptionStatusPending, model.SubscriptionStatusDeclined},
		{event.PendingReleased, model.SubscriptionStatusPending, model.SubscriptionStatusRefunded},
		{event.FundsReleased, model.SubscriptionStatusAccepted, model.SubscriptionStatusRefunded},
	}
	for _, tt := range tests {
		from, to, ok := subscriptionTransition(tt.typ)
		if !ok || len(from) != 1 || from[0] != tt.from || to != tt.to {
			t.Fatalf("%s: from=%v to=%s ok=%v", tt.typ, from, to, ok)
		}
	}
	if _, _, ok := subscriptionTransition(event.IssuerPaid); ok {
		t.Fatal("IssuerPaid should not move subscriptions")
	}
}

func TestRefundRecord(t *testing.T) {
	rec := &model.EventModel{EventId: "ev-2", Seq: 3}
	tests := []struct {
		e      event.Event
		kind   model.RefundKind
		amount string
	}{
		{event.New(event.SourceRaise, event.SubscriptionDeclined, raiseAddr, at,
			"id", "s1", "investor", investor.Hex(), "shares", "40", "cost", "10000"), model.RefundKindDeclined, "10000"},
		{event.New(event.SourceRaise, event.PendingReleased, raiseAddr, at,
			"investor", investor.Hex(), "amount", "500"), model.RefundKindPending, "500"},
		{event.New(event.SourceRaise, event.FundsReleased, raiseAddr, at,
			"investor", investor.Hex(), "amount", "700"), model.RefundKindAccepted, "700"},
	}
	for _, tt := range tests {
		row, err := refundRecord(rec, tt.e)
		if err != nil {
			t.Fatalf("%s: %v", tt.e.Type, err)
		}
		if row.Kind != tt.kind || row.Amount != tt.amount || row.Address != investor.Hex() || row.Seq != 3 {
			t.Fatalf("%s: row = %+v", tt.e.Type, row)
		}
	}

	zero := event.New(event.SourceRaise, event.FundsReleased, raiseAddr, at, "investor", investor.Hex(), "amount", "0")
	if _, err := refundRecord(rec, zero); err == nil {
		t.Fatal("expected zero refund to fail")
	}
	if _, err := refundRecord(rec, event.New(event.SourceRaise, event.IssuerPaid, raiseAddr, at)); err == nil {
		t.Fatal("expected non-refund event to fail")
	}
}

func TestSettlementRecord(t *testing.T) {
	issuer := common.HexToAddress("0x1551")
	rec := &model.EventModel{EventId: "ev-3"}
	e := event.New(event.SourceRaise, event.IssuerPaid, raiseAddr, at, "issuer", issuer.Hex(), "amount", "275000")
	row, err := settlementRecord(rec, e)
	if err != nil {
		t.Fatalf("settlementRecord: %v", err)
	}
	if row.Issuer != issuer.Hex() || row.Amount != "275000" || !row.SettlementTime.Equal(at) {
		t.Fatalf("row = %+v", row)
	}
}
