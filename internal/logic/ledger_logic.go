package logic

import (
	"context"
	"fmt"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/roles"
	"github.com/ethereum/go-ethereum/common"
)

// LedgerLogic 内存资产模式下的余额与授权操作
type LedgerLogic struct {
	token *ledger.Token
	roles roles.Registry
}

func NewLedgerLogic(token *ledger.Token, registry roles.Registry) *LedgerLogic {
	return &LedgerLogic{token: token, roles: registry}
}

// MintRequest 运营方增发
type MintRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// ApproveRequest 调用方授权 spender，通常是募资实例地址
type ApproveRequest struct {
	Spender string `json:"spender" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

type BalanceView struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

type AllowanceView struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

// Mint 仅运营方
func (l *LedgerLogic) Mint(ctx context.Context, caller common.Address, req MintRequest) (*BalanceView, error) {
	ok, err := l.roles.IsOperator(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeRoleDenied, "caller does not have the operator role")
	}
	account, err := ParseAddress("account", req.Account)
	if err != nil {
		return nil, err
	}
	amount, err := ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	if err := l.token.Deposit(ctx, account, amount); err != nil {
		return nil, err
	}
	return l.Balance(ctx, account)
}

func (l *LedgerLogic) Approve(ctx context.Context, caller common.Address, req ApproveRequest) (*AllowanceView, error) {
	spender, err := ParseAddress("spender", req.Spender)
	if err != nil {
		return nil, err
	}
	amount, err := ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	if err := l.token.SetAllowance(ctx, caller, spender, amount); err != nil {
		return nil, err
	}
	return l.Allowance(ctx, caller, spender)
}

func (l *LedgerLogic) Balance(ctx context.Context, account common.Address) (*BalanceView, error) {
	b, err := l.token.BalanceOf(ctx, account)
	if err != nil {
		return nil, err
	}
	return &BalanceView{Account: account.Hex(), Balance: b.String()}, nil
}

func (l *LedgerLogic) Allowance(ctx context.Context, owner, spender common.Address) (*AllowanceView, error) {
	a, err := l.token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, err
	}
	return &AllowanceView{Owner: owner.Hex(), Spender: spender.Hex(), Allowance: a.String()}, nil
}
