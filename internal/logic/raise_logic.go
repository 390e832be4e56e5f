package logic

import (
	"context"
	"fmt"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/host"
	"github.com/blues/raise/internal/model"
	"github.com/blues/raise/internal/raise"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// RaiseLogic 募资实例业务逻辑
type RaiseLogic struct {
	db   *gorm.DB
	host *host.Host
}

// NewRaiseLogic 创建募资实例业务逻辑
func NewRaiseLogic(db *gorm.DB, h *host.Host) *RaiseLogic {
	return &RaiseLogic{db: db, host: h}
}

func (l *RaiseLogic) do(ctx context.Context, addr common.Address, fn func(r *raise.Raise) ([]event.Event, error)) (*ActionResult, error) {
	events, err := l.host.Do(ctx, addr, fn)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Events: events}, nil
}

// Subscribe 投资人提交认购
func (l *RaiseLogic) Subscribe(ctx context.Context, caller, addr common.Address, req SubscribeRequest) (*ActionResult, error) {
	if req.ID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "subscription id is required")
	}
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.Subscribe(ctx, caller, req.ID, req.Shares)
	})
}

// DecideSubscription 发行方接受或拒绝认购
func (l *RaiseLogic) DecideSubscription(ctx context.Context, caller, addr common.Address, id string, accept bool) (*ActionResult, error) {
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.IssuerSubscription(ctx, caller, id, accept)
	})
}

// IssuerClose 发行方结束募资
func (l *RaiseLogic) IssuerClose(ctx context.Context, caller, addr common.Address, approve bool) (*ActionResult, error) {
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.IssuerClose(ctx, caller, approve)
	})
}

// OperatorFinalize 运营方确认或否决
func (l *RaiseLogic) OperatorFinalize(ctx context.Context, caller, addr common.Address, approve bool) (*ActionResult, error) {
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.OperatorFinalize(ctx, caller, approve)
	})
}

// ReleasePending 批量退回待审资金
func (l *RaiseLogic) ReleasePending(ctx context.Context, caller, addr common.Address, req AccountsRequest) (*ActionResult, error) {
	accounts, err := ParseAddresses("accounts", req.Accounts)
	if err != nil {
		return nil, err
	}
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.BatchReleasePending(ctx, caller, accounts)
	})
}

// ReleaseAll 批量退回已接受资金
func (l *RaiseLogic) ReleaseAll(ctx context.Context, caller, addr common.Address, req AccountsRequest) (*ActionResult, error) {
	accounts, err := ParseAddresses("accounts", req.Accounts)
	if err != nil {
		return nil, err
	}
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.ReleaseAllFunds(ctx, caller, accounts)
	})
}

// ReleaseToIssuer 向发行方放款
func (l *RaiseLogic) ReleaseToIssuer(ctx context.Context, caller, addr common.Address) (*ActionResult, error) {
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.ReleaseToIssuer(ctx, caller)
	})
}

// Close 关闭实例
func (l *RaiseLogic) Close(ctx context.Context, caller, addr common.Address) (*ActionResult, error) {
	return l.do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.Close(ctx, caller)
	})
}

// GetRaise 实例概要
func (l *RaiseLogic) GetRaise(addr common.Address) (*RaiseView, error) {
	var v RaiseView
	err := l.host.View(addr, func(r *raise.Raise) error {
		v = raiseView(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListRaises 全部实例概要
func (l *RaiseLogic) ListRaises() []RaiseView {
	addrs := l.host.Raises()
	out := make([]RaiseView, 0, len(addrs))
	for _, a := range addrs {
		if v, err := l.GetRaise(a); err == nil {
			out = append(out, *v)
		}
	}
	return out
}

// Receivers 分页读取份额持有人
func (l *RaiseLogic) Receivers(addr common.Address, start, count int) ([]string, error) {
	var out []string
	err := l.host.View(addr, func(r *raise.Raise) error {
		batch, err := r.ReceiversBatch(start, count)
		if err != nil {
			return err
		}
		out = make([]string, len(batch))
		for i, a := range batch {
			out[i] = a.Hex()
		}
		return nil
	})
	return out, err
}

// Investor 投资人持仓
func (l *RaiseLogic) Investor(addr, account common.Address) (*InvestorView, error) {
	var v InvestorView
	err := l.host.View(addr, func(r *raise.Raise) error {
		v = InvestorView{
			Account:          account.Hex(),
			Shares:           r.Shares(account),
			PendingDeposits:  r.Deposits(account, false).String(),
			AcceptedDeposits: r.Deposits(account, true).String(),
			PendingIds:       r.SubIDs(account, false),
			AcceptedIds:      r.SubIDs(account, true),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Subscription 当前认购状态
func (l *RaiseLogic) Subscription(addr common.Address, id string) (*SubscriptionView, error) {
	var v SubscriptionView
	err := l.host.View(addr, func(r *raise.Raise) error {
		s, st := r.Subscription(id)
		if s.ID == "" {
			return apperrors.New(apperrors.CodeNotFound, "subscription not found")
		}
		v = subscriptionView(s, st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// History 认购历史，包含已拒绝与已退款的记录
func (l *RaiseLogic) History(addr common.Address, page, pageSize int) (*Page[model.SubscriptionRecordModel], error) {
	page, pageSize = normalizePage(page, pageSize)
	q := l.db.Model(&model.SubscriptionRecordModel{}).Where("raise_address = ?", addr.Hex())

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("获取认购记录总数失败: %w", err)
	}
	var rows []model.SubscriptionRecordModel
	if err := q.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取认购记录失败: %w", err)
	}
	return &Page[model.SubscriptionRecordModel]{Items: rows, Page: page, PageSize: pageSize, Total: total}, nil
}

// Refunds 退款记录
func (l *RaiseLogic) Refunds(addr common.Address, page, pageSize int) (*Page[model.RefundRecordModel], error) {
	page, pageSize = normalizePage(page, pageSize)
	q := l.db.Model(&model.RefundRecordModel{}).Where("raise_address = ?", addr.Hex())

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("获取退款记录总数失败: %w", err)
	}
	var rows []model.RefundRecordModel
	if err := q.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return &Page[model.RefundRecordModel]{Items: rows, Page: page, PageSize: pageSize, Total: total}, nil
}

// Stats 全局统计
func (l *RaiseLogic) Stats() (map[string]interface{}, error) {
	var byStage []struct {
		Stage model.RaiseStage
		Count int64
	}
	if err := l.db.Model(&model.RaiseModel{}).
		Select("stage, COUNT(*) AS count").
		Group("stage").
		Scan(&byStage).Error; err != nil {
		return nil, fmt.Errorf("获取募资统计失败: %w", err)
	}
	stages := make(map[string]int64, len(byStage))
	var total int64
	for _, s := range byStage {
		stages[raise.Stage(s.Stage).String()] = s.Count
		total += s.Count
	}

	var investors int64
	if err := l.db.Model(&model.SubscriptionRecordModel{}).Distinct("investor").Count(&investors).Error; err != nil {
		return nil, fmt.Errorf("获取投资人统计失败: %w", err)
	}
	var settled int64
	if err := l.db.Model(&model.SettlementRecordModel{}).Count(&settled).Error; err != nil {
		return nil, fmt.Errorf("获取结算统计失败: %w", err)
	}

	return map[string]interface{}{
		"total_raises":   total,
		"stages":         stages,
		"investor_count": investors,
		"settled_raises": settled,
	}, nil
}
