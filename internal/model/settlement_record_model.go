package model

import (
	"time"
)

// SettlementRecordModel 向发行方放款的记录
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RaiseAddress   string           `json:"raise_address" gorm:"uniqueIndex;not null"`
	Issuer         string           `json:"issuer" gorm:"not null"`
	Amount         string           `json:"amount" gorm:"not null"`
	Status         SettlementStatus `json:"status" gorm:"default:'success'"`
	EventId        string           `json:"event_id"`
	SettlementTime *time.Time       `json:"settlement_time"`
}

// SettlementStatus 结算状态
type SettlementStatus string

const (
	SettlementStatusSuccess SettlementStatus = "success" // 成功
)

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
