// Package pool 份额池：记录每个账户的已分配份额、总售出量与上下限
package pool

import (
	"fmt"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// MaxBatch 单次批量读取的账户上限
const MaxBatch = 256

// Pool 带上下限的份额池
type Pool struct {
	minCap    uint64
	maxCap    uint64
	sold      uint64
	shares    map[common.Address]uint64
	receivers []common.Address
}

// State 份额池的持久化形式
type State struct {
	MinCap    uint64                    `json:"min_cap"`
	MaxCap    uint64                    `json:"max_cap"`
	Sold      uint64                    `json:"sold"`
	Shares    map[common.Address]uint64 `json:"shares"`
	Receivers []common.Address          `json:"receivers"`
}

// New 创建份额池
func New(minCap, maxCap uint64) (*Pool, error) {
	if minCap == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidCapConfig, "minimum cap must exceed zero")
	}
	if maxCap <= minCap {
		return nil, apperrors.New(apperrors.CodeInvalidCapConfig, "maximum cap must exceed minimum cap")
	}
	return &Pool{
		minCap: minCap,
		maxCap: maxCap,
		shares: make(map[common.Address]uint64),
	}, nil
}

// Empty 未配置上下限的空池，只用于读取
func Empty() *Pool {
	return &Pool{shares: make(map[common.Address]uint64)}
}

// FromState 从持久化状态恢复
func FromState(s State) (*Pool, error) {
	p, err := New(s.MinCap, s.MaxCap)
	if err != nil {
		return nil, err
	}
	var sum uint64
	for _, account := range s.Receivers {
		v, ok := s.Shares[account]
		if !ok || v == 0 {
			return nil, fmt.Errorf("receiver %s has no shares", account.Hex())
		}
		if _, dup := p.shares[account]; dup {
			return nil, fmt.Errorf("receiver %s listed twice", account.Hex())
		}
		p.shares[account] = v
		sum += v
	}
	if len(p.shares) != len(s.Shares) || sum != s.Sold || s.Sold > s.MaxCap {
		return nil, fmt.Errorf("inconsistent pool state: sold=%d sum=%d", s.Sold, sum)
	}
	p.sold = s.Sold
	p.receivers = append([]common.Address(nil), s.Receivers...)
	return p, nil
}

// State 导出持久化状态
func (p *Pool) State() State {
	shares := make(map[common.Address]uint64, len(p.shares))
	for k, v := range p.shares {
		shares[k] = v
	}
	return State{
		MinCap:    p.minCap,
		MaxCap:    p.maxCap,
		Sold:      p.sold,
		Shares:    shares,
		Receivers: append([]common.Address(nil), p.receivers...),
	}
}

// Clone 深拷贝
func (p *Pool) Clone() *Pool {
	s := p.State()
	return &Pool{
		minCap:    s.MinCap,
		maxCap:    s.MaxCap,
		sold:      s.Sold,
		shares:    s.Shares,
		receivers: s.Receivers,
	}
}

// UpdateSold 给账户记入份额
func (p *Pool) UpdateSold(account common.Address, amount uint64) error {
	if amount == 0 {
		return apperrors.New(apperrors.CodeCapViolation, "zero share amount")
	}
	sold, overflow := math.SafeAdd(p.sold, amount)
	if overflow || sold > p.maxCap {
		return apperrors.New(apperrors.CodeCapViolation, "cap exceeded")
	}
	prev, seen := p.shares[account]
	p.shares[account] = prev + amount
	p.sold = sold
	if !seen {
		p.receivers = append(p.receivers, account)
	}
	return nil
}

func (p *Pool) AvailableShares() uint64 { return p.maxCap - p.sold }
func (p *Pool) MinCapReached() bool     { return p.sold >= p.minCap }
func (p *Pool) MaxCapReached() bool     { return p.sold >= p.maxCap }
func (p *Pool) Sold() uint64            { return p.sold }
func (p *Pool) MinCap() uint64          { return p.minCap }
func (p *Pool) MaxCap() uint64          { return p.maxCap }
func (p *Pool) ReceiversLength() int    { return len(p.receivers) }

// Shares 账户已分配份额
func (p *Pool) Shares(account common.Address) uint64 {
	return p.shares[account]
}

// Receiver 按下标读取获配账户
func (p *Pool) Receiver(i int) (common.Address, error) {
	if i < 0 || i >= len(p.receivers) {
		return common.Address{}, apperrors.New(apperrors.CodeInvalidRange, "receiver index out of range")
	}
	return p.receivers[i], nil
}

// ReceiversBatch 分页读取获配账户
func (p *Pool) ReceiversBatch(start, count int) ([]common.Address, error) {
	if count > MaxBatch {
		return nil, apperrors.New(apperrors.CodeBatchTooLarge, "greater than batch limit")
	}
	if start < 0 || count <= 0 || start+count > len(p.receivers) {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "wrong receivers array indices")
	}
	return append([]common.Address(nil), p.receivers[start:start+count]...), nil
}
