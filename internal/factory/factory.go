// Package factory 募资工厂：管理发行提案，审批通过后部署并初始化募资实例
package factory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/blues/raise/internal/deploy"
	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/raise"
	"github.com/blues/raise/internal/roles"
	"github.com/ethereum/go-ethereum/common"
)

// Builder 为新实例地址构造募资实例的依赖
type Builder func(instance common.Address) raise.Deps

// CommitFunc 提交前持久化，deployed 为本次部署的实例（可能为 nil）
type CommitFunc func(ctx context.Context, s Snapshot, events []event.Event, deployed *raise.Raise) error

// Deps 外部协作方
type Deps struct {
	Address  common.Address
	Deployer deploy.Deployer
	Roles    roles.Registry
	Clock    func() time.Time
	Commit   CommitFunc
}

// Record 单个发行提案
type Record struct {
	ID             string         `json:"id"`
	Issuer         common.Address `json:"issuer"`
	Token          common.Address `json:"token"`
	Implementation common.Address `json:"implementation"`
	Instance       common.Address `json:"instance"`
}

// Deployed 是否已部署实例
func (r Record) Deployed() bool {
	return r.Implementation != (common.Address{})
}

type config struct {
	proxyAdmin     common.Address
	implementation common.Address
	records        map[string]Record
}

func (c *config) clone() *config {
	records := make(map[string]Record, len(c.records))
	for k, v := range c.records {
		records[k] = v
	}
	return &config{proxyAdmin: c.proxyAdmin, implementation: c.implementation, records: records}
}

// Factory 工厂，不加锁，由宿主串行化
type Factory struct {
	deps      Deps
	builders  map[common.Address]Builder
	cfg       *config
	instances map[common.Address]*raise.Raise
}

// New 创建工厂，implementation 必须随后通过 Register 注册
func New(deps Deps, proxyAdmin, implementation common.Address) *Factory {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Factory{
		deps:     deps,
		builders: make(map[common.Address]Builder),
		cfg: &config{
			proxyAdmin:     proxyAdmin,
			implementation: implementation,
			records:        make(map[string]Record),
		},
		instances: make(map[common.Address]*raise.Raise),
	}
}

// Register 登记一个实现版本
func (f *Factory) Register(implementation common.Address, b Builder) {
	f.builders[implementation] = b
}

// Builder 查询实现版本的构造器
func (f *Factory) Builder(implementation common.Address) (Builder, bool) {
	b, ok := f.builders[implementation]
	return b, ok
}

// Adopt 恢复时挂载已存在的实例
func (f *Factory) Adopt(r *raise.Raise) {
	f.instances[r.Address()] = r
}

type tx struct {
	ctx      context.Context
	now      time.Time
	cfg      *config
	events   []event.Event
	deployed *raise.Raise
}

func (f *Factory) emit(t *tx, typ string, kv ...string) {
	t.events = append(t.events, event.New(event.SourceFactory, typ, f.deps.Address, t.now, kv...))
}

func (f *Factory) apply(ctx context.Context, fn func(t *tx) error) ([]event.Event, error) {
	t := &tx{ctx: ctx, now: f.deps.Clock(), cfg: f.cfg.clone()}
	if err := fn(t); err != nil {
		return nil, err
	}
	if f.deps.Commit != nil {
		if err := f.deps.Commit(ctx, snapshotOf(f.deps.Address, t.cfg), t.events, t.deployed); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
	}
	f.cfg = t.cfg
	if t.deployed != nil {
		f.instances[t.deployed.Address()] = t.deployed
	}
	return t.events, nil
}

func (f *Factory) requireOperator(ctx context.Context, caller common.Address) error {
	ok, err := f.deps.Roles.IsOperator(ctx, caller)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return apperrors.New(apperrors.CodeRoleDenied, "caller does not have the operator role")
	}
	return nil
}

// NewRaiseProposal 发行方登记提案
func (f *Factory) NewRaiseProposal(ctx context.Context, caller common.Address, id string) ([]event.Event, error) {
	return f.apply(ctx, func(t *tx) error {
		ok, err := f.deps.Roles.IsIssuer(ctx, caller)
		if err != nil {
			return fmt.Errorf("role lookup: %w", err)
		}
		if !ok {
			return apperrors.New(apperrors.CodeRoleDenied, "caller is not issuer")
		}
		if id == "" {
			return apperrors.New(apperrors.CodeInvalidArgument, "empty proposal id")
		}
		if _, exists := t.cfg.records[id]; exists {
			return apperrors.New(apperrors.CodeDuplicateID, "already exists")
		}
		t.cfg.records[id] = Record{ID: id, Issuer: caller}
		f.emit(t, event.NewProposal, "id", id, "issuer", caller.Hex())
		return nil
	})
}

// OperatorProposal 运营方审批提案，通过时部署并初始化实例
func (f *Factory) OperatorProposal(ctx context.Context, caller common.Address, id string, accept bool, p raise.Params) ([]event.Event, error) {
	return f.apply(ctx, func(t *tx) error {
		if err := f.requireOperator(ctx, caller); err != nil {
			return err
		}
		rec, ok := t.cfg.records[id]
		if !ok {
			return apperrors.New(apperrors.CodeNotFound, "issuer not existing")
		}
		if rec.Deployed() {
			return apperrors.New(apperrors.CodeDuplicateID, "already exists")
		}

		if !accept {
			delete(t.cfg.records, id)
			f.emit(t, event.ProposalDeclined, "id", id, "issuer", rec.Issuer.Hex())
			return nil
		}

		p.Issuer = rec.Issuer
		if err := raise.ValidateParams(p, t.now); err != nil {
			return err
		}
		impl := t.cfg.implementation
		build, ok := f.builders[impl]
		if !ok {
			return apperrors.New(apperrors.CodeNotFound, "implementation not registered")
		}
		instance, err := f.deps.Deployer.DeployInstance(ctx, impl, t.cfg.proxyAdmin)
		if err != nil {
			return fmt.Errorf("deploy instance: %w", err)
		}
		r := raise.New(build(instance))
		if err := r.Initialize(p); err != nil {
			return err
		}

		rec.Token = p.ShareToken
		rec.Implementation = impl
		rec.Instance = instance
		t.cfg.records[id] = rec
		t.deployed = r

		f.emit(t, event.RaiseDeployed,
			"id", id,
			"instance", instance.Hex(),
			"implementation", impl.Hex(),
			"admin", t.cfg.proxyAdmin.Hex())
		f.emit(t, event.ProposalAccepted,
			"id", id,
			"issuer", rec.Issuer.Hex(),
			"instance", instance.Hex(),
			"token", rec.Token.Hex())
		return nil
	})
}

// UpdateImplementation 更换后续部署使用的实现
func (f *Factory) UpdateImplementation(ctx context.Context, caller, implementation common.Address) ([]event.Event, error) {
	return f.apply(ctx, func(t *tx) error {
		if err := f.requireOperator(ctx, caller); err != nil {
			return err
		}
		if _, ok := f.builders[implementation]; !ok {
			return apperrors.New(apperrors.CodeNotFound, "implementation not registered")
		}
		prev := t.cfg.implementation
		t.cfg.implementation = implementation
		f.emit(t, event.ImplementationUpdated, "previous", prev.Hex(), "implementation", implementation.Hex())
		return nil
	})
}

// UpdateProxyAdmin 由当前代理管理员转移权限
func (f *Factory) UpdateProxyAdmin(ctx context.Context, caller, admin common.Address) ([]event.Event, error) {
	return f.apply(ctx, func(t *tx) error {
		if caller != t.cfg.proxyAdmin || admin == (common.Address{}) {
			return apperrors.New(apperrors.CodeRoleDenied, "caller not proxy admin")
		}
		prev := t.cfg.proxyAdmin
		t.cfg.proxyAdmin = admin
		f.emit(t, event.ProxyAdminUpdated, "previous", prev.Hex(), "admin", admin.Hex())
		return nil
	})
}

// Raise 查询提案，不存在时返回零值
func (f *Factory) Raise(id string) Record {
	return f.cfg.records[id]
}

func (f *Factory) Issuer(id string) common.Address { return f.cfg.records[id].Issuer }
func (f *Factory) Token(id string) common.Address  { return f.cfg.records[id].Token }

func (f *Factory) ImplementationExists(id string) bool {
	return f.cfg.records[id].Deployed()
}

// ImplementationAndProxy 已部署提案的实现与实例地址
func (f *Factory) ImplementationAndProxy(id string) (common.Address, common.Address) {
	rec := f.cfg.records[id]
	return rec.Implementation, rec.Instance
}

func (f *Factory) Address() common.Address        { return f.deps.Address }
func (f *Factory) Implementation() common.Address { return f.cfg.implementation }
func (f *Factory) ProxyAdmin() common.Address     { return f.cfg.proxyAdmin }

// Instance 按地址查询已部署实例
func (f *Factory) Instance(addr common.Address) (*raise.Raise, bool) {
	r, ok := f.instances[addr]
	return r, ok
}

// Instances 全部已挂载实例地址，按字节序
func (f *Factory) Instances() []common.Address {
	out := make([]common.Address, 0, len(f.instances))
	for a := range f.instances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Records 全部提案，按 id 排序
func (f *Factory) Records() []Record {
	return snapshotOf(f.deps.Address, f.cfg).Records
}
