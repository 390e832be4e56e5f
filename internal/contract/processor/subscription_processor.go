package processor

import (
	"fmt"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/model"
	"gorm.io/gorm"
)

// SubscriptionProcessor 维护 subscription_record 认购历史
type SubscriptionProcessor struct{}

// NewSubscriptionProcessor 创建认购事件处理器
func NewSubscriptionProcessor() *SubscriptionProcessor {
	return &SubscriptionProcessor{}
}

func (p *SubscriptionProcessor) GetEventTypes() []string {
	return []string{
		event.SubscriptionProposal,
		event.SubscriptionAccepted,
		event.SubscriptionDeclined,
		event.PendingReleased,
		event.FundsReleased,
	}
}

func (p *SubscriptionProcessor) Process(tx *gorm.DB, record *model.EventModel, e event.Event) error {
	if e.Type == event.SubscriptionProposal {
		row, err := subscriptionRecord(record, e)
		if err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			logger.Error("Failed to create subscription record: %v", err)
			return err
		}
		return nil
	}

	from, to, ok := subscriptionTransition(e.Type)
	if !ok {
		return nil
	}
	q := tx.Model(&model.SubscriptionRecordModel{}).
		Where("raise_address = ? AND status IN ?", e.Contract.Hex(), from)
	switch e.Type {
	case event.PendingReleased, event.FundsReleased:
		q = q.Where("investor = ?", e.Address("investor").Hex())
	default:
		q = q.Where("subscription_id = ?", e.Fields["id"])
	}
	res := q.Updates(map[string]interface{}{"status": to, "event_id": record.EventId})
	if res.Error != nil {
		logger.Error("Failed to update subscription record: %v", res.Error)
		return res.Error
	}
	logger.Debug("Subscription records on %s moved to %s: %d", e.Contract.Hex(), to, res.RowsAffected)
	return nil
}

// subscriptionRecord 由 SubscriptionProposal 事件构造新记录
func subscriptionRecord(record *model.EventModel, e event.Event) (*model.SubscriptionRecordModel, error) {
	id := e.Fields["id"]
	if id == "" || e.Fields["investor"] == "" || e.Uint("shares") == 0 {
		return nil, fmt.Errorf("malformed %s event %s", e.Type, record.EventId)
	}
	return &model.SubscriptionRecordModel{
		RaiseAddress:   e.Contract.Hex(),
		SubscriptionId: id,
		Investor:       e.Address("investor").Hex(),
		Shares:         e.Uint("shares"),
		Cost:           e.Amount("cost").String(),
		Status:         model.SubscriptionStatusPending,
		EventId:        record.EventId,
	}, nil
}

// subscriptionTransition 事件对应的状态迁移
func subscriptionTransition(eventType string) ([]model.SubscriptionStatus, model.SubscriptionStatus, bool) {
	switch eventType {
	case event.SubscriptionAccepted:
		return []model.SubscriptionStatus{model.SubscriptionStatusPending}, model.SubscriptionStatusAccepted, true
	case event.SubscriptionDeclined:
		return []model.SubscriptionStatus{model.SubscriptionStatusPending}, model.SubscriptionStatusDeclined, true
	case event.PendingReleased:
		return []model.SubscriptionStatus{model.SubscriptionStatusPending}, model.SubscriptionStatusRefunded, true
	case event.FundsReleased:
		return []model.SubscriptionStatus{model.SubscriptionStatusAccepted}, model.SubscriptionStatusRefunded, true
	default:
		return nil, "", false
	}
}
