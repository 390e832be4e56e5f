package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
)

// Balance 账户余额
type Balance struct {
	Account common.Address
	Amount  *big.Int
}

// Allowance 授权额度
type Allowance struct {
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

// Sink 账本变更的持久化目标，返回错误时变更不生效
type Sink interface {
	SaveLedger(ctx context.Context, asset common.Address, balances []Balance, allowances []Allowance) error
}

// Token 内存账本，并发安全。挂接 Sink 后每次变更先写入 Sink 再生效
type Token struct {
	mu         sync.RWMutex
	address    common.Address
	sink       Sink
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewToken 创建内存账本
func NewToken(address common.Address) *Token {
	return &Token{
		address:    address,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (t *Token) Address() common.Address { return t.address }

// SetSink 挂接持久化目标
func (t *Token) SetSink(s Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = s
}

// Load 用持久化的余额与授权替换当前状态，不写回 Sink
func (t *Token) Load(balances []Balance, allowances []Allowance) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances = make(map[common.Address]*big.Int, len(balances))
	t.allowances = make(map[common.Address]map[common.Address]*big.Int)
	for _, b := range balances {
		t.balances[b.Account] = new(big.Int).Set(b.Amount)
	}
	for _, a := range allowances {
		t.setAllowance(a.Owner, a.Spender, a.Amount)
	}
}

// Mint 内存增发，不经过 Sink
func (t *Token) Mint(account common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.balance(account)
	t.balances[account] = b.Add(b, amount)
}

// Approve 内存授权，不经过 Sink
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setAllowance(owner, spender, amount)
}

// Deposit 增发并持久化
func (t *Token) Deposit(ctx context.Context, account common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return apperrors.New(apperrors.CodeInvalidArgument, "negative mint amount")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := newChange()
	b := ch.balance(t, account)
	b.Add(b, amount)
	return t.apply(ctx, ch)
}

// SetAllowance 设置授权额度并持久化
func (t *Token) SetAllowance(ctx context.Context, owner, spender common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return apperrors.New(apperrors.CodeInvalidArgument, "negative allowance")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := newChange()
	ch.allow(owner, spender, amount)
	return t.apply(ctx, ch)
}

func (t *Token) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balance(account), nil
}

func (t *Token) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowance(owner, spender), nil
}

func (t *Token) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := newChange()
	if err := t.move(ch, from, to, amount); err != nil {
		return err
	}
	return t.apply(ctx, ch)
}

func (t *Token) TransferFrom(ctx context.Context, spender, owner, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	allowed := t.allowance(owner, spender)
	if allowed.Cmp(amount) < 0 {
		return apperrors.New(apperrors.CodeInsufficientAllowance, "transfer amount exceeds allowance")
	}
	ch := newChange()
	if err := t.move(ch, owner, to, amount); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		ch.allow(owner, spender, allowed.Sub(allowed, amount))
	}
	return t.apply(ctx, ch)
}

// Reverse 撤回 from→to 的一笔转账
func (t *Token) Reverse(ctx context.Context, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := newChange()
	if err := t.move(ch, to, from, amount); err != nil {
		return err
	}
	return t.apply(ctx, ch)
}

func (t *Token) RestoreAllowance(ctx context.Context, owner, spender common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.allowance(owner, spender)
	ch := newChange()
	ch.allow(owner, spender, a.Add(a, amount))
	return t.apply(ctx, ch)
}

func (t *Token) move(ch *change, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return apperrors.New(apperrors.CodeTransferFailed, "negative transfer amount")
	}
	if amount.Sign() == 0 {
		return nil
	}
	fb := ch.balance(t, from)
	if fb.Cmp(amount) < 0 {
		return apperrors.New(apperrors.CodeTransferFailed, "transfer amount exceeds balance")
	}
	fb.Sub(fb, amount)
	tb := ch.balance(t, to)
	tb.Add(tb, amount)
	return nil
}

// apply 持久化后写入内存，调用方持有写锁
func (t *Token) apply(ctx context.Context, ch *change) error {
	if len(ch.balances) == 0 && len(ch.allowances) == 0 {
		return nil
	}
	if t.sink != nil {
		balances := make([]Balance, 0, len(ch.order))
		for _, a := range ch.order {
			balances = append(balances, Balance{Account: a, Amount: ch.balances[a]})
		}
		if err := t.sink.SaveLedger(ctx, t.address, balances, ch.allowances); err != nil {
			return fmt.Errorf("persist ledger: %w", err)
		}
	}
	for a, b := range ch.balances {
		t.balances[a] = b
	}
	for _, a := range ch.allowances {
		t.setAllowance(a.Owner, a.Spender, a.Amount)
	}
	return nil
}

func (t *Token) setAllowance(owner, spender common.Address, amount *big.Int) {
	m, ok := t.allowances[owner]
	if !ok {
		m = make(map[common.Address]*big.Int)
		t.allowances[owner] = m
	}
	m[spender] = new(big.Int).Set(amount)
}

func (t *Token) balance(account common.Address) *big.Int {
	if b, ok := t.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *Token) allowance(owner, spender common.Address) *big.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

// change 一次操作的暂存变更
type change struct {
	balances   map[common.Address]*big.Int
	order      []common.Address
	allowances []Allowance
}

func newChange() *change {
	return &change{balances: make(map[common.Address]*big.Int)}
}

func (c *change) balance(t *Token, account common.Address) *big.Int {
	if b, ok := c.balances[account]; ok {
		return b
	}
	b := t.balance(account)
	c.balances[account] = b
	c.order = append(c.order, account)
	return b
}

func (c *change) allow(owner, spender common.Address, amount *big.Int) {
	c.allowances = append(c.allowances, Allowance{Owner: owner, Spender: spender, Amount: new(big.Int).Set(amount)})
}
