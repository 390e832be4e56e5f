// Package roles 角色注册表：运营方、系统、发行方、投资人、白名单
package roles

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Role 角色名
type Role string

const (
	Operator    Role = "operator"
	System      Role = "system"
	Issuer      Role = "issuer"
	Investor    Role = "investor"
	Whitelisted Role = "whitelisted"
)

// All 全部角色
var All = []Role{Operator, System, Issuer, Investor, Whitelisted}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	for _, v := range All {
		if v == r {
			return true
		}
	}
	return false
}

// Registry 核心逻辑依赖的只读角色查询
type Registry interface {
	IsOperator(ctx context.Context, account common.Address) (bool, error)
	IsSystem(ctx context.Context, account common.Address) (bool, error)
	IsIssuer(ctx context.Context, account common.Address) (bool, error)
	IsInvestor(ctx context.Context, account common.Address) (bool, error)
	IsWhitelisted(ctx context.Context, account common.Address) (bool, error)
}

// Checker 按角色名查询的底层能力
type Checker interface {
	Has(ctx context.Context, role Role, account common.Address) (bool, error)
}

// Predicates 把 Checker 适配为 Registry
type Predicates struct {
	Checker Checker
}

func (p Predicates) IsOperator(ctx context.Context, a common.Address) (bool, error) {
	return p.Checker.Has(ctx, Operator, a)
}

func (p Predicates) IsSystem(ctx context.Context, a common.Address) (bool, error) {
	return p.Checker.Has(ctx, System, a)
}

func (p Predicates) IsIssuer(ctx context.Context, a common.Address) (bool, error) {
	return p.Checker.Has(ctx, Issuer, a)
}

func (p Predicates) IsInvestor(ctx context.Context, a common.Address) (bool, error) {
	return p.Checker.Has(ctx, Investor, a)
}

func (p Predicates) IsWhitelisted(ctx context.Context, a common.Address) (bool, error) {
	return p.Checker.Has(ctx, Whitelisted, a)
}

// Static 内存角色表
type Static struct {
	Predicates
	mu     sync.RWMutex
	grants map[Role]map[common.Address]struct{}
}

// NewStatic 创建内存角色表
func NewStatic() *Static {
	s := &Static{grants: make(map[Role]map[common.Address]struct{})}
	s.Predicates = Predicates{Checker: s}
	return s
}

// Grant 授予角色
func (s *Static) Grant(role Role, accounts ...common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.grants[role]
	if !ok {
		m = make(map[common.Address]struct{})
		s.grants[role] = m
	}
	for _, a := range accounts {
		m[a] = struct{}{}
	}
}

// Revoke 撤销角色
func (s *Static) Revoke(role Role, account common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[role], account)
}

func (s *Static) Has(_ context.Context, role Role, account common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[role][account]
	return ok, nil
}
