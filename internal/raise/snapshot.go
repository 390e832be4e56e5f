package raise

import (
	"fmt"
	"math/big"
	"time"

	"github.com/blues/raise/internal/pool"
	"github.com/blues/raise/internal/subscription"
	"github.com/blues/raise/internal/window"
	"github.com/ethereum/go-ethereum/common"
)

// Snapshot 实例的持久化形式，可 JSON 序列化
type Snapshot struct {
	Address         common.Address     `json:"address"`
	Asset           common.Address     `json:"asset"`
	Issuer          common.Address     `json:"issuer"`
	ShareToken      common.Address     `json:"share_token"`
	Price           *big.Int           `json:"price"`
	MinSubscription *big.Int           `json:"min_subscription"`
	Opening         time.Time          `json:"opening"`
	Closing         time.Time          `json:"closing"`
	Stage           Stage              `json:"stage"`
	IssuerPaid      bool               `json:"issuer_paid"`
	Pulled          *big.Int           `json:"pulled"`
	Refunded        *big.Int           `json:"refunded"`
	Pool            pool.State         `json:"pool"`
	Book            subscription.State `json:"book"`
}

// Snapshot 导出当前已提交状态
func (r *Raise) Snapshot() Snapshot {
	return r.snapshotOf(r.current())
}

func (r *Raise) snapshotOf(st *state) Snapshot {
	return Snapshot{
		Address:         r.deps.Address,
		Asset:           r.Asset(),
		Issuer:          r.issuer,
		ShareToken:      r.shareToken,
		Price:           r.Price(),
		MinSubscription: r.MinSubscription(),
		Opening:         r.window.Opening(),
		Closing:         r.window.Closing(),
		Stage:           st.stage,
		IssuerPaid:      st.issuerPaid,
		Pulled:          cloneInt(st.pulled),
		Refunded:        cloneInt(st.refunded),
		Pool:            st.pool.State(),
		Book:            st.book.State(),
	}
}

// Restore 从快照重建已初始化的实例
func Restore(s Snapshot, deps Deps) (*Raise, error) {
	if s.Address != deps.Address {
		return nil, fmt.Errorf("snapshot address %s does not match %s", s.Address.Hex(), deps.Address.Hex())
	}
	if deps.Asset == nil || s.Asset != deps.Asset.Address() {
		return nil, fmt.Errorf("snapshot asset %s does not match configured asset", s.Asset.Hex())
	}
	if s.Stage < Funding || s.Stage > Closed {
		return nil, fmt.Errorf("invalid stage %d", s.Stage)
	}
	w, err := window.FromBounds(s.Opening, s.Closing)
	if err != nil {
		return nil, err
	}
	pl, err := pool.FromState(s.Pool)
	if err != nil {
		return nil, fmt.Errorf("restore pool: %w", err)
	}
	book, err := subscription.FromState(s.Book)
	if err != nil {
		return nil, fmt.Errorf("restore book: %w", err)
	}
	if s.Price == nil || s.MinSubscription == nil {
		return nil, fmt.Errorf("snapshot is missing price fields")
	}

	r := New(deps)
	r.initialized = true
	r.issuer = s.Issuer
	r.shareToken = s.ShareToken
	r.price = cloneInt(s.Price)
	r.minSubscription = cloneInt(s.MinSubscription)
	r.window = w
	r.st = &state{
		stage:      s.Stage,
		pool:       pl,
		book:       book,
		issuerPaid: s.IssuerPaid,
		pulled:     cloneInt(s.Pulled),
		refunded:   cloneInt(s.Refunded),
	}
	return r, nil
}
