package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type transfer struct {
	from, to common.Address
	amount   *big.Int
	spender  *common.Address // 仅 TransferFrom
}

// Journal 记录单次操作中已执行的转账，失败时按相反顺序补偿
type Journal struct {
	asset   Asset
	custody common.Address
	done    []transfer
}

// NewJournal custody 为募资实例的托管账户
func NewJournal(asset Asset, custody common.Address) *Journal {
	return &Journal{asset: asset, custody: custody}
}

func (j *Journal) Address() common.Address { return j.asset.Address() }

func (j *Journal) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return j.asset.BalanceOf(ctx, account)
}

func (j *Journal) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return j.asset.Allowance(ctx, owner, spender)
}

func (j *Journal) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if err := j.asset.Transfer(ctx, from, to, amount); err != nil {
		return err
	}
	j.done = append(j.done, transfer{from: from, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func (j *Journal) TransferFrom(ctx context.Context, spender, owner, to common.Address, amount *big.Int) error {
	if err := j.asset.TransferFrom(ctx, spender, owner, to, amount); err != nil {
		return err
	}
	j.done = append(j.done, transfer{from: owner, to: to, amount: new(big.Int).Set(amount), spender: &spender})
	return nil
}

// Len 已记录的转账笔数
func (j *Journal) Len() int { return len(j.done) }

// Rollback 补偿全部已执行转账。流入托管账户的由托管账户退回，
// 其余依赖宿主账本的 Reverser 能力。
func (j *Journal) Rollback(ctx context.Context) error {
	var firstErr error
	for i := len(j.done) - 1; i >= 0; i-- {
		t := j.done[i]
		var err error
		switch {
		case t.to == j.custody:
			err = j.asset.Transfer(ctx, j.custody, t.from, t.amount)
		default:
			r, ok := j.asset.(Reverser)
			if !ok {
				err = fmt.Errorf("asset cannot reverse transfer to %s", t.to.Hex())
				break
			}
			err = r.Reverse(ctx, t.from, t.to, t.amount)
		}
		if err == nil && t.spender != nil {
			if ar, ok := j.asset.(AllowanceRestorer); ok {
				err = ar.RestoreAllowance(ctx, t.from, *t.spender, t.amount)
			}
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("rollback transfer %d: %w", i, err)
		}
	}
	j.done = nil
	return firstErr
}
