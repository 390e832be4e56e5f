// Package processor 将已提交事件投影到查询表，在持久化事务内执行
package processor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/model"
	"gorm.io/gorm"
)

// EventProcessor 事件处理器接口
type EventProcessor interface {
	// Process tx 为当前持久化事务
	Process(tx *gorm.DB, record *model.EventModel, e event.Event) error
	GetEventTypes() []string
}

// ProcessorManager 事件处理器管理器，同一事件类型可挂多个处理器
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[string][]EventProcessor
}

// NewProcessorManager 创建处理器管理器并注册全部投影
func NewProcessorManager() *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[string][]EventProcessor),
	}

	manager.RegisterProcessor(NewProposalProcessor())
	manager.RegisterProcessor(NewSubscriptionProcessor())
	manager.RegisterProcessor(NewRefundProcessor())
	manager.RegisterProcessor(NewSettlementProcessor())

	logger.Info("ProcessorManager initialized for %d event types", len(manager.processors))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor EventProcessor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, eventType := range processor.GetEventTypes() {
		pm.processors[eventType] = append(pm.processors[eventType], processor)
	}
}

// GetProcessors 获取指定事件类型的处理器
func (pm *ProcessorManager) GetProcessors(eventType string) []EventProcessor {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return append([]EventProcessor(nil), pm.processors[eventType]...)
}

// ProcessEvent 依次执行该事件类型的处理器，任一失败即返回
func (pm *ProcessorManager) ProcessEvent(tx *gorm.DB, record *model.EventModel, e event.Event) error {
	processors := pm.GetProcessors(e.Type)
	if len(processors) == 0 {
		logger.Debug("No processor found for event type: %s", e.Type)
		return nil
	}
	for _, p := range processors {
		if err := p.Process(tx, record, e); err != nil {
			return fmt.Errorf("process %s: %w", e.Type, err)
		}
	}
	return nil
}

// GetSupportedEventTypes 获取支持的事件类型列表
func (pm *ProcessorManager) GetSupportedEventTypes() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	eventTypes := make([]string, 0, len(pm.processors))
	for eventType := range pm.processors {
		eventTypes = append(eventTypes, eventType)
	}
	sort.Strings(eventTypes)
	return eventTypes
}
