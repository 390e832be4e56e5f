// Package deploy 实例部署端口与进程内实现
package deploy

import (
	"context"
	"sync"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Deployer 按共享实现创建独立寻址的新实例
type Deployer interface {
	DeployInstance(ctx context.Context, implementation, admin common.Address) (common.Address, error)
}

// Proxy 已部署实例的绑定信息
type Proxy struct {
	Instance       common.Address `json:"instance"`
	Implementation common.Address `json:"implementation"`
	Admin          common.Address `json:"admin"`
}

// Cloner 进程内部署器，地址按 CREATE 规则由工厂地址和 nonce 推导
type Cloner struct {
	mu      sync.Mutex
	factory common.Address
	nonce   uint64
	proxies map[common.Address]Proxy
}

// NewCloner 创建部署器
func NewCloner(factory common.Address) *Cloner {
	return &Cloner{
		factory: factory,
		proxies: make(map[common.Address]Proxy),
	}
}

// DeployInstance 分配下一个未被占用的地址
func (c *Cloner) DeployInstance(ctx context.Context, implementation, admin common.Address) (common.Address, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	if implementation == (common.Address{}) {
		return common.Address{}, apperrors.New(apperrors.CodeInvalidArgument, "implementation is zero address")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		addr := crypto.CreateAddress(c.factory, c.nonce)
		c.nonce++
		if _, taken := c.proxies[addr]; taken {
			continue
		}
		c.proxies[addr] = Proxy{Instance: addr, Implementation: implementation, Admin: admin}
		return addr, nil
	}
}

// Reserve 恢复时登记已存在的实例，之后不会再分配该地址
func (c *Cloner) Reserve(p Proxy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proxies[p.Instance] = p
}

// Proxy 查询实例绑定
func (c *Cloner) Proxy(instance common.Address) (Proxy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proxies[instance]
	return p, ok
}

// Nonce 下一个待用 nonce
func (c *Cloner) Nonce() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonce
}

// SetNonce 恢复 nonce，只允许前移
func (c *Cloner) SetNonce(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > c.nonce {
		c.nonce = n
	}
}
