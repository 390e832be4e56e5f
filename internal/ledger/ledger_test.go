package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenAddr = common.HexToAddress("0xd0")
	custody   = common.HexToAddress("0xc0")
	alice     = common.HexToAddress("0xa1")
	bob       = common.HexToAddress("0xb0")
)

func balance(t *testing.T, a Asset, account common.Address) int64 {
	t.Helper()
	b, err := a.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	return b.Int64()
}

func TestTokenTransferFrom(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(tokenAddr)
	tok.Mint(alice, big.NewInt(1000))
	tok.Approve(alice, custody, big.NewInt(300))

	if err := tok.TransferFrom(ctx, custody, alice, custody, big.NewInt(400)); !apperrors.IsCode(err, apperrors.CodeInsufficientAllowance) {
		t.Fatalf("over allowance error = %v", err)
	}
	if err := tok.TransferFrom(ctx, custody, alice, custody, big.NewInt(300)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if balance(t, tok, alice) != 700 || balance(t, tok, custody) != 300 {
		t.Fatal("unexpected balances")
	}
	left, _ := tok.Allowance(ctx, alice, custody)
	if left.Sign() != 0 {
		t.Fatalf("allowance left = %s", left)
	}
	if err := tok.Transfer(ctx, bob, alice, big.NewInt(1)); !apperrors.IsCode(err, apperrors.CodeTransferFailed) {
		t.Fatalf("overdraft error = %v", err)
	}
}

func TestJournalRollback(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(tokenAddr)
	tok.Mint(alice, big.NewInt(100))
	tok.Mint(custody, big.NewInt(50))
	tok.Approve(alice, custody, big.NewInt(100))

	j := NewJournal(tok, custody)
	if err := j.TransferFrom(ctx, custody, alice, custody, big.NewInt(40)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if err := j.Transfer(ctx, custody, bob, big.NewInt(70)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := j.Transfer(ctx, custody, bob, big.NewInt(1000)); err == nil {
		t.Fatal("expected overdraft")
	}
	if j.Len() != 2 {
		t.Fatalf("Len = %d, want 2", j.Len())
	}
	if err := j.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if balance(t, tok, alice) != 100 || balance(t, tok, custody) != 50 || balance(t, tok, bob) != 0 {
		t.Fatalf("balances after rollback = %d/%d/%d",
			balance(t, tok, alice), balance(t, tok, custody), balance(t, tok, bob))
	}
	if left, _ := tok.Allowance(ctx, alice, custody); left.Int64() != 100 {
		t.Fatalf("allowance after rollback = %s", left)
	}
}

type plainAsset struct{ *Token }

func (plainAsset) Reverse() {}

func TestJournalRollbackWithoutReverser(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(tokenAddr)
	tok.Mint(custody, big.NewInt(10))
	// plainAsset 屏蔽了 Token 的 Reverse 方法
	j := NewJournal(plainAsset{tok}, custody)
	if err := j.Transfer(ctx, custody, bob, big.NewInt(10)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := j.Rollback(ctx); err == nil {
		t.Fatal("expected rollback error for non-reversible payout")
	}
}

func TestTokenZeroAmount(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(tokenAddr)
	stranger := common.HexToAddress("0x02")

	tests := []struct {
		name string
		do   func() error
	}{
		{"transfer from empty account", func() error { return tok.Transfer(ctx, stranger, bob, new(big.Int)) }},
		{"transferFrom without allowance", func() error { return tok.TransferFrom(ctx, custody, stranger, custody, new(big.Int)) }},
		{"reverse to empty account", func() error { return tok.Reverse(ctx, stranger, bob, new(big.Int)) }},
	}
	for _, tt := range tests {
		if err := tt.do(); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
	}
	if balance(t, tok, stranger) != 0 || balance(t, tok, bob) != 0 {
		t.Fatal("zero transfer changed balances")
	}
	if err := tok.Transfer(ctx, stranger, bob, big.NewInt(1)); !apperrors.IsCode(err, apperrors.CodeTransferFailed) {
		t.Fatalf("overdraft from empty account error = %v", err)
	}
}

type recordingSink struct {
	fail       error
	balances   map[common.Address]string
	allowances map[[2]common.Address]string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{balances: map[common.Address]string{}, allowances: map[[2]common.Address]string{}}
}

func (s *recordingSink) SaveLedger(_ context.Context, _ common.Address, balances []Balance, allowances []Allowance) error {
	if s.fail != nil {
		return s.fail
	}
	for _, b := range balances {
		s.balances[b.Account] = b.Amount.String()
	}
	for _, a := range allowances {
		s.allowances[[2]common.Address{a.Owner, a.Spender}] = a.Amount.String()
	}
	return nil
}

func TestTokenSink(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(tokenAddr)
	sink := newRecordingSink()
	tok.SetSink(sink)

	if err := tok.Deposit(ctx, alice, big.NewInt(500)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := tok.SetAllowance(ctx, alice, custody, big.NewInt(200)); err != nil {
		t.Fatalf("SetAllowance: %v", err)
	}
	if err := tok.TransferFrom(ctx, custody, alice, custody, big.NewInt(150)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"alice", sink.balances[alice], "350"},
		{"custody", sink.balances[custody], "150"},
		{"allowance", sink.allowances[[2]common.Address{alice, custody}], "50"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("%s persisted = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	// 持久化失败时内存状态不变
	sink.fail = errors.New("db down")
	if err := tok.Transfer(ctx, alice, bob, big.NewInt(100)); err == nil {
		t.Fatal("expected sink error")
	}
	if balance(t, tok, alice) != 350 || balance(t, tok, bob) != 0 {
		t.Fatal("failed persist changed balances")
	}
	if err := tok.Deposit(ctx, alice, big.NewInt(-1)); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Fatalf("negative deposit error = %v", err)
	}
}

func TestTokenLoad(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(tokenAddr)
	tok.Mint(bob, big.NewInt(9))
	tok.Load(
		[]Balance{{Account: alice, Amount: big.NewInt(70)}, {Account: custody, Amount: big.NewInt(30)}},
		[]Allowance{{Owner: alice, Spender: custody, Amount: big.NewInt(5)}},
	)
	if balance(t, tok, alice) != 70 || balance(t, tok, custody) != 30 || balance(t, tok, bob) != 0 {
		t.Fatal("Load did not replace balances")
	}
	if a, _ := tok.Allowance(ctx, alice, custody); a.Int64() != 5 {
		t.Fatalf("allowance = %s", a)
	}
}
