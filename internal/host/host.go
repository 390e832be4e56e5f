// Package host 持有工厂与全部募资实例，按实例串行化变更并在同一事务内持久化
package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blues/raise/internal/deploy"
	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/factory"
	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/raise"
	"github.com/blues/raise/internal/roles"
	"github.com/ethereum/go-ethereum/common"
)

// Config 宿主配置
type Config struct {
	FactoryAddress common.Address
	ProxyAdmin     common.Address
	Implementation common.Address
	Asset          ledger.Asset
	Roles          roles.Registry
	Clock          func() time.Time
}

// Host 募资宿主
type Host struct {
	cfg    Config
	store  Store
	cloner *deploy.Cloner

	factoryMu sync.RWMutex
	factory   *factory.Factory

	locks sync.Map // common.Address -> *sync.Mutex
}

// New 创建宿主并从存储恢复工厂与实例
func New(ctx context.Context, cfg Config, store Store) (*Host, error) {
	if cfg.Asset == nil || cfg.Roles == nil || store == nil {
		return nil, fmt.Errorf("host requires asset, roles and store")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	h := &Host{
		cfg:    cfg,
		store:  store,
		cloner: deploy.NewCloner(cfg.FactoryAddress),
	}
	if err := h.recover(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Host) raiseDeps(instance common.Address) raise.Deps {
	return raise.Deps{
		Address: instance,
		Asset:   h.cfg.Asset,
		Roles:   h.cfg.Roles,
		Clock:   h.cfg.Clock,
		Commit: func(ctx context.Context, s raise.Snapshot, events []event.Event) error {
			return h.store.SaveRaise(ctx, s, events)
		},
	}
}

func (h *Host) factoryDeps() factory.Deps {
	return factory.Deps{
		Address:  h.cfg.FactoryAddress,
		Deployer: h.cloner,
		Roles:    h.cfg.Roles,
		Clock:    h.cfg.Clock,
		Commit: func(ctx context.Context, s factory.Snapshot, events []event.Event, deployed *raise.Raise) error {
			var initial *raise.Snapshot
			if deployed != nil {
				snap := deployed.Snapshot()
				initial = &snap
			}
			return h.store.SaveFactory(ctx, s, initial, events)
		},
	}
}

func (h *Host) recover(ctx context.Context) error {
	snap, err := h.store.LoadFactory(ctx, h.cfg.FactoryAddress)
	if err != nil {
		return fmt.Errorf("load factory: %w", err)
	}
	var f *factory.Factory
	if snap == nil {
		f = factory.New(h.factoryDeps(), h.cfg.ProxyAdmin, h.cfg.Implementation)
	} else if f, err = factory.Restore(*snap, h.factoryDeps()); err != nil {
		return fmt.Errorf("restore factory: %w", err)
	}

	// 所有实现版本共用同一份状态机
	f.Register(h.cfg.Implementation, h.raiseDeps)
	f.Register(f.Implementation(), h.raiseDeps)
	byInstance := make(map[common.Address]factory.Record)
	for _, rec := range f.Records() {
		if rec.Deployed() {
			f.Register(rec.Implementation, h.raiseDeps)
			byInstance[rec.Instance] = rec
		}
	}

	raises, err := h.store.LoadRaises(ctx)
	if err != nil {
		return fmt.Errorf("load raises: %w", err)
	}
	for _, s := range raises {
		rec, ok := byInstance[s.Address]
		if !ok {
			logger.Warn("Skipping raise %s: no factory record", s.Address.Hex())
			continue
		}
		r, err := raise.Restore(s, h.raiseDeps(s.Address))
		if err != nil {
			return fmt.Errorf("restore raise %s: %w", s.Address.Hex(), err)
		}
		f.Adopt(r)
		h.cloner.Reserve(deploy.Proxy{Instance: rec.Instance, Implementation: rec.Implementation, Admin: f.ProxyAdmin()})
	}
	h.factory = f
	logger.Info("Host recovered factory %s with %d raise instances", h.cfg.FactoryAddress.Hex(), len(f.Instances()))
	return nil
}

func (h *Host) lockFor(addr common.Address) *sync.Mutex {
	m, _ := h.locks.LoadOrStore(addr, &sync.Mutex{})
	return m.(*sync.Mutex)
}

func (h *Host) instance(addr common.Address) (*raise.Raise, error) {
	h.factoryMu.RLock()
	defer h.factoryMu.RUnlock()
	r, ok := h.factory.Instance(addr)
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "raise instance not found")
	}
	return r, nil
}

// Do 串行执行对单个实例的变更
func (h *Host) Do(ctx context.Context, addr common.Address, fn func(r *raise.Raise) ([]event.Event, error)) ([]event.Event, error) {
	r, err := h.instance(addr)
	if err != nil {
		return nil, err
	}
	mu := h.lockFor(addr)
	mu.Lock()
	defer mu.Unlock()

	events, err := fn(r)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.CodeUnknown {
			logger.Error("Raise %s action failed: %v", addr.Hex(), err)
		}
		return nil, err
	}
	for _, e := range events {
		logger.Debug("Raise %s emitted %s", addr.Hex(), e.Type)
	}
	return events, nil
}

// View 在实例锁内读取
func (h *Host) View(addr common.Address, fn func(r *raise.Raise) error) error {
	r, err := h.instance(addr)
	if err != nil {
		return err
	}
	mu := h.lockFor(addr)
	mu.Lock()
	defer mu.Unlock()
	return fn(r)
}

// Factory 串行执行工厂变更
func (h *Host) Factory(ctx context.Context, fn func(f *factory.Factory) ([]event.Event, error)) ([]event.Event, error) {
	h.factoryMu.Lock()
	defer h.factoryMu.Unlock()
	events, err := fn(h.factory)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.CodeUnknown {
			logger.Error("Factory action failed: %v", err)
		}
		return nil, err
	}
	for _, e := range events {
		logger.Info("Factory emitted %s %v", e.Type, e.Fields)
	}
	return events, nil
}

// ViewFactory 读取工厂状态
func (h *Host) ViewFactory(fn func(f *factory.Factory)) {
	h.factoryMu.RLock()
	defer h.factoryMu.RUnlock()
	fn(h.factory)
}

// Raises 全部实例地址
func (h *Host) Raises() []common.Address {
	h.factoryMu.RLock()
	defer h.factoryMu.RUnlock()
	return h.factory.Instances()
}

// Roles 宿主使用的角色注册表
func (h *Host) Roles() roles.Registry { return h.cfg.Roles }

// Has 地址是否为已部署实例
func (h *Host) Has(addr common.Address) bool {
	h.factoryMu.RLock()
	defer h.factoryMu.RUnlock()
	_, ok := h.factory.Instance(addr)
	return ok
}

// InStage 处于指定阶段的实例
func (h *Host) InStage(stage raise.Stage) []common.Address {
	return h.inStage(h.Raises(), stage)
}

func (h *Host) inStage(addrs []common.Address, stage raise.Stage) []common.Address {
	var out []common.Address
	for _, addr := range addrs {
		err := h.View(addr, func(r *raise.Raise) error {
			if r.Stage() == stage {
				out = append(out, addr)
			}
			return nil
		})
		if err != nil {
			logger.Error("Raise %s skipped while listing stage %s: %v", addr.Hex(), stage, err)
		}
	}
	return out
}
