package logic

import (
	"time"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/factory"
	"github.com/blues/raise/internal/raise"
	"github.com/blues/raise/internal/subscription"
)

// OperatorProposalRequest 运营方审批请求
type OperatorProposalRequest struct {
	Accept          bool   `json:"accept"`
	ShareToken      string `json:"share_token"`
	MinCap          uint64 `json:"min_cap"`
	MaxCap          uint64 `json:"max_cap"`
	Price           string `json:"price"`
	MinSubscription string `json:"min_subscription"`
	Opening         string `json:"opening"`
	Closing         string `json:"closing"`
}

// Params 转换为部署参数，拒绝时不解析
func (r OperatorProposalRequest) Params() (raise.Params, error) {
	var p raise.Params
	if !r.Accept {
		return p, nil
	}
	var err error
	if p.ShareToken, err = ParseAddress("share_token", r.ShareToken); err != nil {
		return p, err
	}
	if p.Price, err = ParseAmount("price", r.Price); err != nil {
		return p, err
	}
	if p.MinSubscription, err = ParseAmount("min_subscription", r.MinSubscription); err != nil {
		return p, err
	}
	if p.Opening, err = ParseTime("opening", r.Opening); err != nil {
		return p, err
	}
	if p.Closing, err = ParseTime("closing", r.Closing); err != nil {
		return p, err
	}
	p.MinCap, p.MaxCap = r.MinCap, r.MaxCap
	return p, nil
}

// SubscribeRequest 认购请求
type SubscribeRequest struct {
	ID     string `json:"id" binding:"required"`
	Shares uint64 `json:"shares" binding:"required"`
}

// DecisionRequest 接受或拒绝
type DecisionRequest struct {
	Accept bool `json:"accept"`
}

// AccountsRequest 批量结算的账户列表
type AccountsRequest struct {
	Accounts []string `json:"accounts" binding:"required"`
}

// ActionResult 变更操作的返回
type ActionResult struct {
	Events []event.Event `json:"events"`
}

// RaiseView 募资实例概要
type RaiseView struct {
	Address               string    `json:"address"`
	Issuer                string    `json:"issuer"`
	Asset                 string    `json:"asset"`
	ShareToken            string    `json:"share_token"`
	Stage                 string    `json:"stage"`
	Price                 string    `json:"price"`
	MinSubscription       string    `json:"min_subscription"`
	Opening               time.Time `json:"opening"`
	Closing               time.Time `json:"closing"`
	IsOpen                bool      `json:"is_open"`
	HasClosed             bool      `json:"has_closed"`
	MinCap                uint64    `json:"min_cap"`
	MaxCap                uint64    `json:"max_cap"`
	Sold                  uint64    `json:"sold"`
	AvailableShares       uint64    `json:"available_shares"`
	Receivers             int       `json:"receivers"`
	IssuerPaid            bool      `json:"issuer_paid"`
	TotalPendingDeposits  string    `json:"total_pending_deposits"`
	TotalAcceptedDeposits string    `json:"total_accepted_deposits"`
	TotalDeclinedDeposits string    `json:"total_declined_deposits"`
	PendingCount          int       `json:"pending_count"`
	AcceptedCount         int       `json:"accepted_count"`
}

func raiseView(r *raise.Raise) RaiseView {
	return RaiseView{
		Address:               r.Address().Hex(),
		Issuer:                r.Issuer().Hex(),
		Asset:                 r.Asset().Hex(),
		ShareToken:            r.ShareToken().Hex(),
		Stage:                 r.Stage().String(),
		Price:                 r.Price().String(),
		MinSubscription:       r.MinSubscription().String(),
		Opening:               r.Opening(),
		Closing:               r.Closing(),
		IsOpen:                r.IsOpen(),
		HasClosed:             r.HasClosed(),
		MinCap:                r.MinCap(),
		MaxCap:                r.MaxCap(),
		Sold:                  r.Sold(),
		AvailableShares:       r.AvailableShares(),
		Receivers:             r.ReceiversLength(),
		IssuerPaid:            r.IssuerPaid(),
		TotalPendingDeposits:  r.TotalPendingDeposits().String(),
		TotalAcceptedDeposits: r.TotalAcceptedDeposits().String(),
		TotalDeclinedDeposits: r.TotalDeclinedDeposits().String(),
		PendingCount:          r.SubscriptionTypeLength(false),
		AcceptedCount:         r.SubscriptionTypeLength(true),
	}
}

// InvestorView 单个投资人在实例中的持仓
type InvestorView struct {
	Account          string   `json:"account"`
	Shares           uint64   `json:"shares"`
	PendingDeposits  string   `json:"pending_deposits"`
	AcceptedDeposits string   `json:"accepted_deposits"`
	PendingIds       []string `json:"pending_ids"`
	AcceptedIds      []string `json:"accepted_ids"`
}

// SubscriptionView 认购详情
type SubscriptionView struct {
	ID       string `json:"id"`
	Investor string `json:"investor"`
	Shares   uint64 `json:"shares"`
	Cost     string `json:"cost"`
	Status   string `json:"status"`
}

func subscriptionView(s subscription.Subscription, st subscription.Status) SubscriptionView {
	v := SubscriptionView{ID: s.ID, Investor: s.Investor.Hex(), Shares: s.Shares, Status: st.String()}
	if s.Cost != nil {
		v.Cost = s.Cost.String()
	}
	return v
}

// FactoryView 工厂配置
type FactoryView struct {
	Address        string   `json:"address"`
	Implementation string   `json:"implementation"`
	ProxyAdmin     string   `json:"proxy_admin"`
	Instances      []string `json:"instances"`
}

// ProposalView 提案
type ProposalView struct {
	ID             string `json:"id"`
	Issuer         string `json:"issuer"`
	Token          string `json:"token"`
	Implementation string `json:"implementation"`
	Instance       string `json:"instance"`
	Deployed       bool   `json:"deployed"`
}

func proposalView(rec factory.Record) ProposalView {
	return ProposalView{
		ID:             rec.ID,
		Issuer:         rec.Issuer.Hex(),
		Token:          rec.Token.Hex(),
		Implementation: rec.Implementation.Hex(),
		Instance:       rec.Instance.Hex(),
		Deployed:       rec.Deployed(),
	}
}

// Page 分页结果
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}
