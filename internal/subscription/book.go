// Package subscription 认购簿：待审与已接受的认购记录及按投资人的索引
package subscription

import (
	"fmt"
	"math/big"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
)

// Subscription 认购记录
type Subscription struct {
	ID       string         `json:"id"`
	Investor common.Address `json:"investor"`
	Shares   uint64         `json:"shares"`
	Cost     *big.Int       `json:"cost"`
}

// Status 认购记录所在集合
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusAccepted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	default:
		return "none"
	}
}

type side struct {
	records  map[string]Subscription
	ids      map[common.Address][]string
	deposits map[common.Address]*big.Int
	total    *big.Int
}

func newSide() *side {
	return &side{
		records:  make(map[string]Subscription),
		ids:      make(map[common.Address][]string),
		deposits: make(map[common.Address]*big.Int),
		total:    new(big.Int),
	}
}

func (s *side) insert(sub Subscription) {
	s.records[sub.ID] = sub
	s.ids[sub.Investor] = append(s.ids[sub.Investor], sub.ID)
	d, ok := s.deposits[sub.Investor]
	if !ok {
		d = new(big.Int)
		s.deposits[sub.Investor] = d
	}
	d.Add(d, sub.Cost)
	s.total.Add(s.total, sub.Cost)
}

func (s *side) remove(id string) Subscription {
	sub := s.records[id]
	delete(s.records, id)

	ids := s.ids[sub.Investor]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.ids, sub.Investor)
	} else {
		s.ids[sub.Investor] = ids
	}

	d := s.deposits[sub.Investor]
	d.Sub(d, sub.Cost)
	if d.Sign() == 0 {
		delete(s.deposits, sub.Investor)
	}
	s.total.Sub(s.total, sub.Cost)
	return sub
}

// drain 清空账户在该集合中的全部记录，返回合计金额
func (s *side) drain(account common.Address) *big.Int {
	amount := new(big.Int)
	for _, id := range s.ids[account] {
		amount.Add(amount, s.records[id].Cost)
		delete(s.records, id)
	}
	delete(s.ids, account)
	delete(s.deposits, account)
	s.total.Sub(s.total, amount)
	return amount
}

func (s *side) clone() *side {
	c := newSide()
	for k, v := range s.records {
		v.Cost = new(big.Int).Set(v.Cost)
		c.records[k] = v
	}
	for k, v := range s.ids {
		c.ids[k] = append([]string(nil), v...)
	}
	for k, v := range s.deposits {
		c.deposits[k] = new(big.Int).Set(v)
	}
	c.total.Set(s.total)
	return c
}

// Book 认购簿
type Book struct {
	pending       *side
	accepted      *side
	used          map[string]struct{}
	investors     []common.Address
	known         map[common.Address]struct{}
	totalDeclined *big.Int
}

// New 创建空认购簿
func New() *Book {
	return &Book{
		pending:       newSide(),
		accepted:      newSide(),
		used:          make(map[string]struct{}),
		known:         make(map[common.Address]struct{}),
		totalDeclined: new(big.Int),
	}
}

// Propose 新增待审认购
func (b *Book) Propose(sub Subscription) error {
	if sub.ID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "empty subscription id")
	}
	if _, ok := b.used[sub.ID]; ok {
		return apperrors.New(apperrors.CodeDuplicateID, "subscription id already used")
	}
	if sub.Cost == nil || sub.Cost.Sign() < 0 {
		return apperrors.New(apperrors.CodeInvalidArgument, "invalid subscription cost")
	}
	sub.Cost = new(big.Int).Set(sub.Cost)
	b.used[sub.ID] = struct{}{}
	b.addInvestor(sub.Investor)
	b.pending.insert(sub)
	return nil
}

// addInvestor 按首次认购顺序登记账户
func (b *Book) addInvestor(account common.Address) {
	if _, ok := b.known[account]; ok {
		return
	}
	b.known[account] = struct{}{}
	b.investors = append(b.investors, account)
}

// Accept 待审 → 已接受
func (b *Book) Accept(id string) (Subscription, error) {
	if _, ok := b.pending.records[id]; !ok {
		return Subscription{}, apperrors.New(apperrors.CodeNotFound, "subscription does not exist")
	}
	sub := b.pending.remove(id)
	b.accepted.insert(sub)
	return sub, nil
}

// Decline 删除待审认购并计入已拒绝总额
func (b *Book) Decline(id string) (Subscription, error) {
	if _, ok := b.pending.records[id]; !ok {
		return Subscription{}, apperrors.New(apperrors.CodeNotFound, "subscription does not exist")
	}
	sub := b.pending.remove(id)
	b.totalDeclined.Add(b.totalDeclined, sub.Cost)
	return sub, nil
}

// ReleasePending 清空账户的待审认购，返回应退金额
func (b *Book) ReleasePending(account common.Address) *big.Int {
	return b.pending.drain(account)
}

// ReleaseAccepted 清空账户的已接受认购，返回应退金额
func (b *Book) ReleaseAccepted(account common.Address) *big.Int {
	return b.accepted.drain(account)
}

// Lookup 按 id 查询认购，已删除的记录返回零值
func (b *Book) Lookup(id string) (Subscription, Status) {
	if sub, ok := b.pending.records[id]; ok {
		return copySub(sub), StatusPending
	}
	if sub, ok := b.accepted.records[id]; ok {
		return copySub(sub), StatusAccepted
	}
	return Subscription{Cost: new(big.Int)}, StatusNone
}

func copySub(s Subscription) Subscription {
	s.Cost = new(big.Int).Set(s.Cost)
	return s
}

func (b *Book) pick(accepted bool) *side {
	if accepted {
		return b.accepted
	}
	return b.pending
}

// SubIDs 按插入顺序返回账户的认购 id
func (b *Book) SubIDs(account common.Address, accepted bool) []string {
	return append([]string{}, b.pick(accepted).ids[account]...)
}

// Deposits 账户在某一集合中的累计金额
func (b *Book) Deposits(account common.Address, accepted bool) *big.Int {
	if d, ok := b.pick(accepted).deposits[account]; ok {
		return new(big.Int).Set(d)
	}
	return new(big.Int)
}

// TypeLength 某一集合中的记录数
func (b *Book) TypeLength(accepted bool) int {
	return len(b.pick(accepted).records)
}

func (b *Book) TotalPending() *big.Int  { return new(big.Int).Set(b.pending.total) }
func (b *Book) TotalAccepted() *big.Int { return new(big.Int).Set(b.accepted.total) }
func (b *Book) TotalDeclined() *big.Int { return new(big.Int).Set(b.totalDeclined) }

// Investors 曾提交过认购的账户，按首次认购排序
func (b *Book) Investors() []common.Address {
	return append([]common.Address(nil), b.investors...)
}

// Clone 深拷贝
func (b *Book) Clone() *Book {
	used := make(map[string]struct{}, len(b.used))
	for k := range b.used {
		used[k] = struct{}{}
	}
	known := make(map[common.Address]struct{}, len(b.known))
	for k := range b.known {
		known[k] = struct{}{}
	}
	return &Book{
		pending:       b.pending.clone(),
		accepted:      b.accepted.clone(),
		used:          used,
		investors:     append([]common.Address(nil), b.investors...),
		known:         known,
		totalDeclined: new(big.Int).Set(b.totalDeclined),
	}
}

// State 认购簿的持久化形式
type State struct {
	Pending       []Subscription   `json:"pending"`
	Accepted      []Subscription   `json:"accepted"`
	UsedIDs       []string         `json:"used_ids"`
	Investors     []common.Address `json:"investors"`
	TotalDeclined *big.Int         `json:"total_declined"`
}

// State 导出持久化状态，记录按投资人索引顺序排列
func (b *Book) State() State {
	s := State{
		Investors:     b.Investors(),
		TotalDeclined: b.TotalDeclined(),
	}
	for _, inv := range b.investors {
		for _, id := range b.pending.ids[inv] {
			s.Pending = append(s.Pending, copySub(b.pending.records[id]))
		}
		for _, id := range b.accepted.ids[inv] {
			s.Accepted = append(s.Accepted, copySub(b.accepted.records[id]))
		}
	}
	for id := range b.used {
		s.UsedIDs = append(s.UsedIDs, id)
	}
	return s
}

// FromState 从持久化状态恢复
func FromState(s State) (*Book, error) {
	b := New()
	for _, inv := range s.Investors {
		b.addInvestor(inv)
	}
	for _, id := range s.UsedIDs {
		b.used[id] = struct{}{}
	}
	for _, sub := range s.Pending {
		if err := b.restore(b.pending, sub); err != nil {
			return nil, err
		}
	}
	for _, sub := range s.Accepted {
		if err := b.restore(b.accepted, sub); err != nil {
			return nil, err
		}
	}
	if s.TotalDeclined != nil {
		b.totalDeclined.Set(s.TotalDeclined)
	}
	return b, nil
}

func (b *Book) restore(target *side, sub Subscription) error {
	if _, ok := b.used[sub.ID]; !ok {
		return fmt.Errorf("subscription %s missing from used ids", sub.ID)
	}
	if _, ok := b.pending.records[sub.ID]; ok {
		return fmt.Errorf("subscription %s restored twice", sub.ID)
	}
	if _, ok := b.accepted.records[sub.ID]; ok {
		return fmt.Errorf("subscription %s restored twice", sub.ID)
	}
	if _, ok := b.known[sub.Investor]; sub.Cost == nil || !ok {
		return fmt.Errorf("subscription %s is malformed", sub.ID)
	}
	target.insert(copySub(sub))
	return nil
}
