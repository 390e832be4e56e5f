package task

import (
	"context"
	"time"

	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/host"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/raise"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
)

// SettlementJob 对待结算的实例退回全部资金并关闭
type SettlementJob struct {
	host      *host.Host
	pool      *ants.Pool
	operator  common.Address
	interval  time.Duration
	batchSize int
}

// NewSettlementJob 创建结算任务
func NewSettlementJob(h *host.Host, pool *ants.Pool, operator common.Address, cfg config.TaskConfig) *SettlementJob {
	return &SettlementJob{
		host:      h,
		pool:      pool,
		operator:  operator,
		interval:  time.Duration(cfg.Interval) * time.Second,
		batchSize: cfg.BatchSize,
	}
}

// GetName 获取任务名称
func (j *SettlementJob) GetName() string {
	return "raise_settlement"
}

// GetSchedule 获取调度配置
func (j *SettlementJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *SettlementJob) Execute() {
	addrs := j.host.InStage(raise.AwaitingSettlement)
	if len(addrs) == 0 {
		return
	}
	logger.Info("Settling %d raises awaiting settlement", len(addrs))
	fanOut(j.pool, addrs, func(addr common.Address) {
		if err := j.Settle(context.Background(), addr); err != nil {
			logger.Error("Failed to settle raise %s: %v", addr.Hex(), err)
		}
	})
}

// Settle 分批退回待审与已接受资金，清空后关闭
func (j *SettlementJob) Settle(ctx context.Context, addr common.Address) error {
	investors, err := roster(j.host, addr)
	if err != nil {
		return err
	}
	for _, page := range pages(investors, j.batchSize) {
		if _, err := j.host.Do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
			return r.BatchReleasePending(ctx, j.operator, page)
		}); err != nil {
			return err
		}
		if _, err := j.host.Do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
			return r.ReleaseAllFunds(ctx, j.operator, page)
		}); err != nil {
			return err
		}
	}

	if _, err := j.host.Do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.Close(ctx, j.operator)
	}); err != nil {
		return err
	}
	logger.Info("Raise %s settled and closed", addr.Hex())
	return nil
}

// roster 曾提交认购的全部账户
func roster(h *host.Host, addr common.Address) ([]common.Address, error) {
	var out []common.Address
	err := h.View(addr, func(r *raise.Raise) error {
		out = r.Investors()
		return nil
	})
	return out, err
}
