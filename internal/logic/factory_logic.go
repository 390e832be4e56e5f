package logic

import (
	"context"
	"fmt"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/factory"
	"github.com/blues/raise/internal/host"
	"github.com/blues/raise/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// FactoryLogic 工厂业务逻辑
type FactoryLogic struct {
	db   *gorm.DB
	host *host.Host
}

// NewFactoryLogic 创建工厂业务逻辑
func NewFactoryLogic(db *gorm.DB, h *host.Host) *FactoryLogic {
	return &FactoryLogic{db: db, host: h}
}

func (l *FactoryLogic) do(ctx context.Context, fn func(f *factory.Factory) ([]event.Event, error)) (*ActionResult, error) {
	events, err := l.host.Factory(ctx, fn)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Events: events}, nil
}

// NewProposal 发行方登记提案
func (l *FactoryLogic) NewProposal(ctx context.Context, caller common.Address, id string) (*ActionResult, error) {
	return l.do(ctx, func(f *factory.Factory) ([]event.Event, error) {
		return f.NewRaiseProposal(ctx, caller, id)
	})
}

// Decide 运营方审批提案
func (l *FactoryLogic) Decide(ctx context.Context, caller common.Address, id string, req OperatorProposalRequest) (*ActionResult, error) {
	p, err := req.Params()
	if err != nil {
		return nil, err
	}
	return l.do(ctx, func(f *factory.Factory) ([]event.Event, error) {
		return f.OperatorProposal(ctx, caller, id, req.Accept, p)
	})
}

// UpdateImplementation 更换实现
func (l *FactoryLogic) UpdateImplementation(ctx context.Context, caller common.Address, implementation string) (*ActionResult, error) {
	impl, err := ParseAddress("implementation", implementation)
	if err != nil {
		return nil, err
	}
	return l.do(ctx, func(f *factory.Factory) ([]event.Event, error) {
		return f.UpdateImplementation(ctx, caller, impl)
	})
}

// UpdateProxyAdmin 更换代理管理员
func (l *FactoryLogic) UpdateProxyAdmin(ctx context.Context, caller common.Address, admin string) (*ActionResult, error) {
	a, err := ParseAddress("admin", admin)
	if err != nil {
		return nil, err
	}
	return l.do(ctx, func(f *factory.Factory) ([]event.Event, error) {
		return f.UpdateProxyAdmin(ctx, caller, a)
	})
}

// GetFactory 工厂配置
func (l *FactoryLogic) GetFactory() FactoryView {
	var v FactoryView
	l.host.ViewFactory(func(f *factory.Factory) {
		v = FactoryView{
			Address:        f.Address().Hex(),
			Implementation: f.Implementation().Hex(),
			ProxyAdmin:     f.ProxyAdmin().Hex(),
		}
		for _, a := range f.Instances() {
			v.Instances = append(v.Instances, a.Hex())
		}
	})
	return v
}

// GetProposal 当前提案
func (l *FactoryLogic) GetProposal(id string) (*ProposalView, error) {
	var (
		v     ProposalView
		found bool
	)
	l.host.ViewFactory(func(f *factory.Factory) {
		rec := f.Raise(id)
		if rec.ID != "" {
			v, found = proposalView(rec), true
		}
	})
	if !found {
		return nil, apperrors.New(apperrors.CodeNotFound, "proposal not found")
	}
	return &v, nil
}

// ListProposals 提案投影，按创建顺序
func (l *FactoryLogic) ListProposals(page, pageSize int) (*Page[model.ProposalModel], error) {
	page, pageSize = normalizePage(page, pageSize)
	var total int64
	if err := l.db.Model(&model.ProposalModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("获取提案总数失败: %w", err)
	}
	var rows []model.ProposalModel
	if err := l.db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取提案列表失败: %w", err)
	}
	return &Page[model.ProposalModel]{Items: rows, Page: page, PageSize: pageSize, Total: total}, nil
}
