// Package ledger 价值资产端口、内存账本与单次操作的转账日志
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Asset 可替代资产合约的最小接口
type Asset interface {
	Address() common.Address
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	// Transfer 从 from 转出，from 为调用方自身
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	// TransferFrom spender 使用 owner 的授权额度转账
	TransferFrom(ctx context.Context, spender, owner, to common.Address, amount *big.Int) error
}

// Reverser 宿主账本可选能力：撤回一笔已完成的转账
type Reverser interface {
	Reverse(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// AllowanceRestorer 宿主账本可选能力：撤回 TransferFrom 时恢复已消耗的授权额度
type AllowanceRestorer interface {
	RestoreAllowance(ctx context.Context, owner, spender common.Address, amount *big.Int) error
}
