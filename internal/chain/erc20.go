package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// erc20ABI 未配置 ABI 文件时使用的最小接口
const erc20ABI = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

// Backend 链上读写所需的客户端能力
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// ERC20Asset 以链上 ERC20 作为募资资产。全部募资实例共用一个托管账户，
// 实例地址在链上映射为托管账户。
type ERC20Asset struct {
	contract *Contract
	bound    *bind.BoundContract
	backend  Backend
	key      *ecdsa.PrivateKey
	custody  common.Address
	chainID  *big.Int

	txMu      sync.Mutex // 托管账户的交易按顺序发送
	mu        sync.RWMutex
	isCustody func(common.Address) bool
}

// NewERC20Asset privateKey 为托管账户私钥的十六进制
func NewERC20Asset(contract *Contract, backend Backend, privateKey string, chainID int64) (*ERC20Asset, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid custody private key: %w", err)
	}
	return &ERC20Asset{
		contract: contract,
		bound:    bind.NewBoundContract(contract.GetAddress(), contract.GetABI(), backend, backend, backend),
		backend:  backend,
		key:      key,
		custody:  crypto.PubkeyToAddress(key.PublicKey),
		chainID:  big.NewInt(chainID),
	}, nil
}

// DefaultERC20ABI 内置 ERC20 ABI
func DefaultERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(err)
	}
	return parsed
}

// BindInstances 注册实例地址判定，命中的地址视为托管账户
func (a *ERC20Asset) BindInstances(fn func(common.Address) bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.isCustody = fn
}

// Custody 托管账户地址
func (a *ERC20Asset) Custody() common.Address { return a.custody }

func (a *ERC20Asset) Address() common.Address { return a.contract.GetAddress() }

// onChain 实例地址映射为托管账户
func (a *ERC20Asset) onChain(account common.Address) common.Address {
	if account == a.custody {
		return account
	}
	a.mu.RLock()
	fn := a.isCustody
	a.mu.RUnlock()
	if fn != nil && fn(account) {
		return a.custody
	}
	return account
}

func (a *ERC20Asset) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return a.call(ctx, "balanceOf", a.onChain(account))
}

func (a *ERC20Asset) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return a.call(ctx, "allowance", a.onChain(owner), a.onChain(spender))
}

func (a *ERC20Asset) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if a.onChain(from) != a.custody {
		return apperrors.New(apperrors.CodeTransferFailed, "transfer source is not the custody account")
	}
	dest := a.onChain(to)
	if dest == a.custody {
		// 实例之间的移动不产生链上交易
		return nil
	}
	return a.transact(ctx, "transfer", dest, amount)
}

func (a *ERC20Asset) TransferFrom(ctx context.Context, spender, owner, to common.Address, amount *big.Int) error {
	if a.onChain(spender) != a.custody {
		return apperrors.New(apperrors.CodeTransferFailed, "spender is not the custody account")
	}
	return a.transact(ctx, "transferFrom", a.onChain(owner), a.onChain(to), amount)
}

func (a *ERC20Asset) call(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := a.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no value", method)
	}
	v := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return v, nil
}

func (a *ERC20Asset) transact(ctx context.Context, method string, args ...interface{}) error {
	a.txMu.Lock()
	defer a.txMu.Unlock()

	opts, err := bind.NewKeyedTransactorWithChainID(a.key, a.chainID)
	if err != nil {
		return fmt.Errorf("create transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := a.bound.Transact(opts, method, args...)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeTransferFailed, method+" rejected", err)
	}
	receipt, err := bind.WaitMined(ctx, a.backend, tx)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeTransferFailed, method+" not mined", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return apperrors.New(apperrors.CodeTransferFailed, method+" reverted")
	}
	for _, l := range receipt.Logs {
		if l.Address != a.contract.GetAddress() {
			continue
		}
		if fields, err := a.contract.ParseEvent(*l); err == nil {
			logger.Info("ERC20 %s mined in tx %s: %v", method, tx.Hash().Hex(), fields)
		}
	}
	return nil
}
