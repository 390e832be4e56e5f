package pool

import (
	"math/big"
	"testing"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.HexToAddress("0xa1")
	bob   = common.HexToAddress("0xb0")
	carol = common.HexToAddress("0xc0")
)

func TestNewRejectsBadCaps(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint64
	}{
		{"zero min", 0, 100},
		{"max equals min", 100, 100},
		{"max below min", 100, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.min, tt.max)
			if !apperrors.IsCode(err, apperrors.CodeInvalidCapConfig) {
				t.Fatalf("New(%d, %d) error = %v, want %s", tt.min, tt.max, err, apperrors.CodeInvalidCapConfig)
			}
		})
	}
}

func TestUpdateSoldTracksRoster(t *testing.T) {
	p, err := New(10, 100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	steps := []struct {
		account common.Address
		amount  uint64
	}{
		{alice, 5}, {bob, 20}, {alice, 7}, {carol, 1},
	}
	for _, s := range steps {
		if err := p.UpdateSold(s.account, s.amount); err != nil {
			t.Fatalf("UpdateSold(%s, %d): %v", s.account.Hex(), s.amount, err)
		}
	}

	if p.Sold() != 33 {
		t.Fatalf("Sold() = %d, want 33", p.Sold())
	}
	if p.Shares(alice) != 12 {
		t.Fatalf("Shares(alice) = %d, want 12", p.Shares(alice))
	}
	if p.ReceiversLength() != 3 {
		t.Fatalf("ReceiversLength() = %d, want 3", p.ReceiversLength())
	}
	var sum uint64
	for i := 0; i < p.ReceiversLength(); i++ {
		r, err := p.Receiver(i)
		if err != nil {
			t.Fatalf("Receiver(%d): %v", i, err)
		}
		sum += p.Shares(r)
	}
	if sum != p.Sold() {
		t.Fatalf("sum of shares %d != sold %d", sum, p.Sold())
	}
	if !p.MinCapReached() || p.MaxCapReached() {
		t.Fatalf("cap flags = %v/%v, want true/false", p.MinCapReached(), p.MaxCapReached())
	}
	if p.AvailableShares() != 67 {
		t.Fatalf("AvailableShares() = %d, want 67", p.AvailableShares())
	}
}

func TestUpdateSoldRejectsOverCap(t *testing.T) {
	p, _ := New(10, 100)
	if err := p.UpdateSold(alice, 100); err != nil {
		t.Fatalf("UpdateSold: %v", err)
	}
	if !p.MaxCapReached() {
		t.Fatal("expected max cap reached")
	}
	err := p.UpdateSold(bob, 1)
	if !apperrors.IsCode(err, apperrors.CodeCapViolation) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeCapViolation)
	}
	if p.ReceiversLength() != 1 || p.Shares(bob) != 0 {
		t.Fatal("failed update leaked state")
	}
	if err := p.UpdateSold(alice, 0); !apperrors.IsCode(err, apperrors.CodeCapViolation) {
		t.Fatalf("zero amount error = %v", err)
	}
}

func TestUpdateSoldOverflow(t *testing.T) {
	p, _ := New(1, ^uint64(0))
	if err := p.UpdateSold(alice, ^uint64(0)-1); err != nil {
		t.Fatalf("UpdateSold: %v", err)
	}
	if err := p.UpdateSold(bob, 2); !apperrors.IsCode(err, apperrors.CodeCapViolation) {
		t.Fatalf("overflow error = %v", err)
	}
}

func TestReceiversBatch(t *testing.T) {
	p, _ := New(1, 1000)
	for i := 0; i < 4; i++ {
		_ = p.UpdateSold(common.BigToAddress(big.NewInt(int64(i+1))), 1)
	}

	got, err := p.ReceiversBatch(1, 3)
	if err != nil {
		t.Fatalf("ReceiversBatch(1, 3): %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	tests := []struct {
		name         string
		start, count int
		code         apperrors.Code
	}{
		{"zero count", 4, 0, apperrors.CodeInvalidRange},
		{"past end", 2, 3, apperrors.CodeInvalidRange},
		{"negative start", -1, 1, apperrors.CodeInvalidRange},
		{"over limit", 0, MaxBatch + 1, apperrors.CodeBatchTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ReceiversBatch(tt.start, tt.count)
			if !apperrors.IsCode(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
		})
	}
	if _, err := p.Receiver(4); !apperrors.IsCode(err, apperrors.CodeInvalidRange) {
		t.Fatalf("Receiver(4) error = %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p, _ := New(1, 100)
	_ = p.UpdateSold(alice, 10)
	c := p.Clone()
	_ = c.UpdateSold(bob, 10)
	if p.Sold() != 10 || p.ReceiversLength() != 1 || p.Shares(bob) != 0 {
		t.Fatal("clone mutation leaked into original")
	}
}

func TestFromStateRoundTrip(t *testing.T) {
	p, _ := New(1, 100)
	_ = p.UpdateSold(alice, 10)
	_ = p.UpdateSold(bob, 15)

	restored, err := FromState(p.State())
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	if restored.Sold() != 25 || restored.ReceiversLength() != 2 {
		t.Fatalf("restored sold=%d receivers=%d", restored.Sold(), restored.ReceiversLength())
	}

	bad := p.State()
	bad.Sold = 99
	if _, err := FromState(bad); err == nil {
		t.Fatal("expected inconsistent state to be rejected")
	}
}
