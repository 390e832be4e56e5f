package processor

import (
	"fmt"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/model"
	"gorm.io/gorm"
)

// SettlementProcessor 记录向发行方的放款
type SettlementProcessor struct{}

func NewSettlementProcessor() *SettlementProcessor {
	return &SettlementProcessor{}
}

func (p *SettlementProcessor) GetEventTypes() []string {
	return []string{event.IssuerPaid}
}

func (p *SettlementProcessor) Process(tx *gorm.DB, record *model.EventModel, e event.Event) error {
	row, err := settlementRecord(record, e)
	if err != nil {
		return err
	}
	if err := tx.Create(row).Error; err != nil {
		logger.Error("Failed to create settlement record: %v", err)
		return err
	}
	logger.Info("Issuer %s paid %s from raise %s", row.Issuer, row.Amount, row.RaiseAddress)
	return nil
}

func settlementRecord(record *model.EventModel, e event.Event) (*model.SettlementRecordModel, error) {
	if e.Fields["issuer"] == "" || e.Fields["amount"] == "" {
		return nil, fmt.Errorf("malformed %s event %s", e.Type, record.EventId)
	}
	at := e.At
	return &model.SettlementRecordModel{
		RaiseAddress:   e.Contract.Hex(),
		Issuer:         e.Address("issuer").Hex(),
		Amount:         e.Amount("amount").String(),
		Status:         model.SettlementStatusSuccess,
		EventId:        record.EventId,
		SettlementTime: &at,
	}, nil
}
