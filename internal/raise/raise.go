// Package raise 募资实例：组合份额池、时间窗口与认购簿的阶段状态机，托管投资人资金。
//
// 每个变更操作在状态副本上执行，所有校验与转账成功后才提交；
// 失败时丢弃副本并通过转账日志补偿已执行的转账。Raise 本身不加锁，
// 同一实例的变更由宿主串行化。
package raise

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/pool"
	"github.com/blues/raise/internal/roles"
	"github.com/blues/raise/internal/subscription"
	"github.com/blues/raise/internal/window"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Stage 募资阶段
type Stage int

const (
	Funding                 Stage = 0
	AwaitingSettlement      Stage = 1
	PendingOperatorApproval Stage = 2
	Finalized               Stage = 3
	Closed                  Stage = 4
)

func (s Stage) String() string {
	switch s {
	case Funding:
		return "funding"
	case AwaitingSettlement:
		return "awaiting_settlement"
	case PendingOperatorApproval:
		return "pending_operator_approval"
	case Finalized:
		return "finalized"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Params 初始化参数
type Params struct {
	Issuer          common.Address
	ShareToken      common.Address
	MinCap          uint64
	MaxCap          uint64
	Price           *big.Int
	MinSubscription *big.Int
	Opening         time.Time
	Closing         time.Time
}

// CommitFunc 在提交前持久化暂存状态，返回错误时整个操作回滚
type CommitFunc func(ctx context.Context, s Snapshot, events []event.Event) error

// Deps 外部协作方
type Deps struct {
	Address common.Address // 实例地址，即托管账户
	Asset   ledger.Asset
	Roles   roles.Registry
	Clock   func() time.Time
	Commit  CommitFunc // 可选
}

type state struct {
	stage      Stage
	pool       *pool.Pool
	book       *subscription.Book
	issuerPaid bool
	pulled     *big.Int
	refunded   *big.Int
}

func (s *state) clone() *state {
	return &state{
		stage:      s.stage,
		pool:       s.pool.Clone(),
		book:       s.book.Clone(),
		issuerPaid: s.issuerPaid,
		pulled:     new(big.Int).Set(s.pulled),
		refunded:   new(big.Int).Set(s.refunded),
	}
}

// Raise 募资实例
type Raise struct {
	deps        Deps
	initialized bool

	issuer          common.Address
	shareToken      common.Address
	price           *big.Int
	minSubscription *big.Int
	window          window.Window

	st *state
}

// New 创建未初始化的实例
func New(deps Deps) *Raise {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Raise{deps: deps}
}

// ValidateParams 校验参数，不修改任何状态
func ValidateParams(p Params, now time.Time) error {
	if _, err := pool.New(p.MinCap, p.MaxCap); err != nil {
		return err
	}
	if _, err := window.New(p.Opening, p.Closing, now); err != nil {
		return err
	}
	if p.Price == nil || p.Price.Sign() <= 0 {
		return apperrors.New(apperrors.CodeInvalidArgument, "price must exceed zero")
	}
	if _, overflow := uint256.FromBig(p.Price); overflow {
		return apperrors.New(apperrors.CodeInvalidArgument, "price overflows 256 bits")
	}
	if p.MinSubscription == nil || p.MinSubscription.Sign() < 0 {
		return apperrors.New(apperrors.CodeInvalidArgument, "invalid minimum subscription")
	}
	if p.Issuer == (common.Address{}) {
		return apperrors.New(apperrors.CodeInvalidArgument, "issuer is zero address")
	}
	return nil
}

// Initialize 一次性初始化
func (r *Raise) Initialize(p Params) error {
	if r.initialized {
		return apperrors.New(apperrors.CodeWrongStage, "already initialized")
	}
	now := r.deps.Clock()
	if err := ValidateParams(p, now); err != nil {
		return err
	}
	pl, _ := pool.New(p.MinCap, p.MaxCap)
	w, _ := window.New(p.Opening, p.Closing, now)

	r.issuer = p.Issuer
	r.shareToken = p.ShareToken
	r.price = new(big.Int).Set(p.Price)
	r.minSubscription = new(big.Int).Set(p.MinSubscription)
	r.window = w
	r.st = &state{
		stage:    Funding,
		pool:     pl,
		book:     subscription.New(),
		pulled:   new(big.Int),
		refunded: new(big.Int),
	}
	r.initialized = true
	return nil
}

// tx 单次操作的暂存上下文
type tx struct {
	ctx    context.Context
	now    time.Time
	st     *state
	asset  *ledger.Journal
	events []event.Event
}

func (r *Raise) emit(t *tx, typ string, kv ...string) {
	t.events = append(t.events, event.New(event.SourceRaise, typ, r.deps.Address, t.now, kv...))
}

// apply 在副本上执行 fn，成功则提交并返回事件
func (r *Raise) apply(ctx context.Context, fn func(t *tx) error) ([]event.Event, error) {
	if !r.initialized {
		return nil, apperrors.New(apperrors.CodeWrongStage, "not initialized")
	}
	t := &tx{
		ctx:   ctx,
		now:   r.deps.Clock(),
		st:    r.st.clone(),
		asset: ledger.NewJournal(r.deps.Asset, r.deps.Address),
	}
	err := fn(t)
	if err == nil && r.deps.Commit != nil {
		if cErr := r.deps.Commit(ctx, r.snapshotOf(t.st), t.events); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}
	if err != nil {
		if rbErr := t.asset.Rollback(ctx); rbErr != nil {
			return nil, errors.Join(err, rbErr)
		}
		return nil, err
	}
	r.st = t.st
	return t.events, nil
}

func (r *Raise) requireStage(t *tx, msg string, allowed ...Stage) error {
	for _, s := range allowed {
		if t.st.stage == s {
			return nil
		}
	}
	return apperrors.WithMetadata(apperrors.CodeWrongStage, msg,
		map[string]string{"stage": t.st.stage.String()})
}

type predicate func(context.Context, common.Address) (bool, error)

func requireRole(ctx context.Context, caller common.Address, msg string, preds ...predicate) error {
	for _, p := range preds {
		ok, err := p(ctx, caller)
		if err != nil {
			return fmt.Errorf("role lookup: %w", err)
		}
		if ok {
			return nil
		}
	}
	return apperrors.New(apperrors.CodeRoleDenied, msg)
}

func (r *Raise) requireOperator(ctx context.Context, caller common.Address) error {
	return requireRole(ctx, caller, "caller does not have the operator role", r.deps.Roles.IsOperator)
}

// requireSettler 运营方或系统账户
func (r *Raise) requireSettler(ctx context.Context, caller common.Address) error {
	return requireRole(ctx, caller, "caller does not have the operator role",
		r.deps.Roles.IsOperator, r.deps.Roles.IsSystem)
}

func (r *Raise) requireIssuer(caller common.Address) error {
	if caller != r.issuer {
		return apperrors.New(apperrors.CodeRoleDenied, "caller not issuer")
	}
	return nil
}

func (r *Raise) requireInvestor(ctx context.Context, caller common.Address) error {
	for _, p := range []predicate{r.deps.Roles.IsInvestor, r.deps.Roles.IsWhitelisted} {
		ok, err := p(ctx, caller)
		if err != nil {
			return fmt.Errorf("role lookup: %w", err)
		}
		if !ok {
			return apperrors.New(apperrors.CodeRoleDenied, "caller is not investor")
		}
	}
	return nil
}

// cost = shares × price，256 位溢出检查
func (r *Raise) cost(shares uint64) (*big.Int, error) {
	price, overflow := uint256.FromBig(r.price)
	if overflow {
		return nil, apperrors.New(apperrors.CodeCapViolation, "price overflow")
	}
	c, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(shares), price)
	if overflow {
		return nil, apperrors.New(apperrors.CodeCapViolation, "cost overflow")
	}
	return c.ToBig(), nil
}

func checkBatch(accounts []common.Address) error {
	if len(accounts) > pool.MaxBatch {
		return apperrors.New(apperrors.CodeBatchTooLarge, "greater than batch limit")
	}
	return nil
}
