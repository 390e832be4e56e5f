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

// PendingRefundJob 对已确认的实例退回剩余待审资金，可选自动放款
type PendingRefundJob struct {
	host        *host.Host
	pool        *ants.Pool
	operator    common.Address
	interval    time.Duration
	batchSize   int
	autoRelease bool
}

// NewPendingRefundJob 创建待审退款任务
func NewPendingRefundJob(h *host.Host, pool *ants.Pool, operator common.Address, cfg config.TaskConfig) *PendingRefundJob {
	return &PendingRefundJob{
		host:        h,
		pool:        pool,
		operator:    operator,
		interval:    time.Duration(cfg.Interval) * time.Second,
		batchSize:   cfg.BatchSize,
		autoRelease: cfg.AutoReleaseToIssuer,
	}
}

// GetName 获取任务名称
func (j *PendingRefundJob) GetName() string {
	return "raise_pending_refund"
}

// GetSchedule 获取调度配置
func (j *PendingRefundJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *PendingRefundJob) Execute() {
	addrs := j.host.InStage(raise.Finalized)
	if len(addrs) == 0 {
		return
	}
	fanOut(j.pool, addrs, func(addr common.Address) {
		if err := j.Refund(context.Background(), addr); err != nil {
			logger.Error("Failed to refund pending deposits of raise %s: %v", addr.Hex(), err)
		}
	})
}

// Refund 退回剩余待审资金，开启自动放款时向发行方付款
func (j *PendingRefundJob) Refund(ctx context.Context, addr common.Address) error {
	var (
		pending []common.Address
		paid    bool
	)
	err := j.host.View(addr, func(r *raise.Raise) error {
		paid = r.IssuerPaid()
		for _, a := range r.Investors() {
			if r.Deposits(a, false).Sign() > 0 {
				pending = append(pending, a)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	released := 0
	for _, page := range pages(pending, j.batchSize) {
		events, err := j.host.Do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
			return r.BatchReleasePending(ctx, j.operator, page)
		})
		if err != nil {
			return err
		}
		released += len(events)
	}
	if released > 0 {
		logger.Info("Raise %s released %d pending deposits", addr.Hex(), released)
	}

	if !j.autoRelease || paid {
		return nil
	}
	if _, err := j.host.Do(ctx, addr, func(r *raise.Raise) ([]event.Event, error) {
		return r.ReleaseToIssuer(ctx, j.operator)
	}); err != nil {
		return err
	}
	logger.Info("Raise %s paid out to issuer", addr.Hex())
	return nil
}
