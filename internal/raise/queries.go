package raise

import (
	"math/big"
	"time"

	"github.com/blues/raise/internal/pool"
	"github.com/blues/raise/internal/subscription"
	"github.com/ethereum/go-ethereum/common"
)

func (r *Raise) Initialized() bool            { return r.initialized }
func (r *Raise) Address() common.Address      { return r.deps.Address }
func (r *Raise) Asset() common.Address        { return r.deps.Asset.Address() }
func (r *Raise) Issuer() common.Address       { return r.issuer }
func (r *Raise) ShareToken() common.Address   { return r.shareToken }
func (r *Raise) Price() *big.Int              { return cloneInt(r.price) }
func (r *Raise) MinSubscription() *big.Int    { return cloneInt(r.minSubscription) }
func (r *Raise) Opening() time.Time           { return r.window.Opening() }
func (r *Raise) Closing() time.Time           { return r.window.Closing() }
func (r *Raise) IsOpen() bool                 { return r.initialized && r.window.IsOpen(r.deps.Clock()) }
func (r *Raise) HasClosed() bool              { return r.initialized && r.window.HasClosed(r.deps.Clock()) }
func (r *Raise) Stage() Stage                 { return r.current().stage }
func (r *Raise) IssuerPaid() bool             { return r.current().issuerPaid }
func (r *Raise) Sold() uint64                 { return r.current().pool.Sold() }
func (r *Raise) MinCap() uint64               { return r.current().pool.MinCap() }
func (r *Raise) MaxCap() uint64               { return r.current().pool.MaxCap() }
func (r *Raise) AvailableShares() uint64      { return r.current().pool.AvailableShares() }
func (r *Raise) MinCapReached() bool          { return r.current().pool.MinCapReached() }
func (r *Raise) MaxCapReached() bool          { return r.current().pool.MaxCapReached() }
func (r *Raise) ReceiversLength() int         { return r.current().pool.ReceiversLength() }

func (r *Raise) TotalPendingDeposits() *big.Int  { return r.current().book.TotalPending() }
func (r *Raise) TotalAcceptedDeposits() *big.Int { return r.current().book.TotalAccepted() }
func (r *Raise) TotalDeclinedDeposits() *big.Int { return r.current().book.TotalDeclined() }

// TotalPulled 从投资人转入的资金总额
func (r *Raise) TotalPulled() *big.Int { return cloneInt(r.current().pulled) }

// TotalRefunded 批量退回的资金总额，不含拒绝认购时的退款
func (r *Raise) TotalRefunded() *big.Int { return cloneInt(r.current().refunded) }

func (r *Raise) Shares(account common.Address) uint64 {
	return r.current().pool.Shares(account)
}

func (r *Raise) Receiver(i int) (common.Address, error) {
	return r.current().pool.Receiver(i)
}

func (r *Raise) ReceiversBatch(start, count int) ([]common.Address, error) {
	return r.current().pool.ReceiversBatch(start, count)
}

// Subscription 查询认购，已删除或不存在时返回零值
func (r *Raise) Subscription(id string) (subscription.Subscription, subscription.Status) {
	return r.current().book.Lookup(id)
}

func (r *Raise) SubIDs(account common.Address, accepted bool) []string {
	return r.current().book.SubIDs(account, accepted)
}

func (r *Raise) Deposits(account common.Address, accepted bool) *big.Int {
	return r.current().book.Deposits(account, accepted)
}

func (r *Raise) SubscriptionTypeLength(accepted bool) int {
	return r.current().book.TypeLength(accepted)
}

// Investors 曾提交认购的账户
func (r *Raise) Investors() []common.Address {
	return r.current().book.Investors()
}

// current 未初始化时返回空状态，读取不会 panic
func (r *Raise) current() *state {
	if r.st != nil {
		return r.st
	}
	return &state{pool: pool.Empty(), book: subscription.New(), pulled: new(big.Int), refunded: new(big.Int)}
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
