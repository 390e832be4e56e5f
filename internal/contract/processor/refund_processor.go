package processor

import (
	"fmt"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefundProcessor 为每笔退回资金写入 refund_record
type RefundProcessor struct{}

// NewRefundProcessor 创建退款事件处理器
func NewRefundProcessor() *RefundProcessor {
	return &RefundProcessor{}
}

func (p *RefundProcessor) GetEventTypes() []string {
	return []string{event.SubscriptionDeclined, event.PendingReleased, event.FundsReleased}
}

func (p *RefundProcessor) Process(tx *gorm.DB, record *model.EventModel, e event.Event) error {
	row, err := refundRecord(record, e)
	if err != nil {
		return err
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		logger.Error("Failed to create refund record: %v", err)
		return err
	}
	logger.Info("Processed refund: %s to %s on raise %s (%s)", row.Amount, row.Address, row.RaiseAddress, row.Kind)
	return nil
}

// refundRecord 由退款类事件构造记录
func refundRecord(record *model.EventModel, e event.Event) (*model.RefundRecordModel, error) {
	var kind model.RefundKind
	amountKey := "amount"
	switch e.Type {
	case event.SubscriptionDeclined:
		kind, amountKey = model.RefundKindDeclined, "cost"
	case event.PendingReleased:
		kind = model.RefundKindPending
	case event.FundsReleased:
		kind = model.RefundKindAccepted
	default:
		return nil, fmt.Errorf("event %s is not a refund", e.Type)
	}
	amount := e.Amount(amountKey)
	if amount.Sign() <= 0 || e.Fields["investor"] == "" {
		return nil, fmt.Errorf("malformed %s event %s", e.Type, record.EventId)
	}
	return &model.RefundRecordModel{
		RaiseAddress: e.Contract.Hex(),
		Address:      e.Address("investor").Hex(),
		Amount:       amount.String(),
		Kind:         kind,
		EventId:      record.EventId,
		Seq:          int(record.Seq),
	}, nil
}
