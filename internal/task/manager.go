package task

import (
	"fmt"
	"sync"

	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/host"
	"github.com/blues/raise/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	pool      *ants.Pool // 按实例并发处理
	host      *host.Host
	config    *config.Config
	operator  common.Address
}

// NewManager 创建新的任务管理器
func NewManager(h *host.Host, cfg *config.Config) (*Manager, error) {
	if !common.IsHexAddress(cfg.Task.Operator) {
		return nil, fmt.Errorf("task.operator %q is not an address", cfg.Task.Operator)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	workers := cfg.Task.Workers
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Manager{
		scheduler: s,
		pool:      pool,
		host:      h,
		config:    cfg,
		operator:  common.HexToAddress(cfg.Task.Operator),
	}, nil
}

// Start 注册全部任务并启动调度器
func (m *Manager) Start() {
	m.RegisterJobs()
	m.scheduler.Start()
	logger.Info("Task manager started successfully, operator %s", m.operator.Hex())
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.register(NewSettlementJob(m.host, m.pool, m.operator, m.config.Task))
	m.register(NewPendingRefundJob(m.host, m.pool, m.operator, m.config.Task))
}

func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	m.pool.Release()
	logger.Info("Task manager stopped")
}

// fanOut 在协程池上处理每个实例并等待全部完成
func fanOut(pool *ants.Pool, addrs []common.Address, fn func(addr common.Address)) {
	var wg sync.WaitGroup
	for _, addr := range addrs {
		addr := addr
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(addr)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit task for raise %s: %v", addr.Hex(), err)
		}
	}
	wg.Wait()
}

// pages 按批次切分账户
func pages(accounts []common.Address, size int) [][]common.Address {
	var out [][]common.Address
	for start := 0; start < len(accounts); start += size {
		end := start + size
		if end > len(accounts) {
			end = len(accounts)
		}
		out = append(out, accounts[start:end])
	}
	return out
}
