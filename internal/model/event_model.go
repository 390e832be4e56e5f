package model

import (
	"time"
)

// EventModel 已提交操作产生的事件
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId         string    `json:"event_id" gorm:"uniqueIndex;not null"`
	ContractAddress string    `json:"contract_address" gorm:"index;not null"`
	ContractName    string    `json:"contract_name" gorm:"not null"` // raise, factory
	EventType       string    `json:"event_type" gorm:"index;not null"`
	Seq             int64     `json:"seq"`
	Data            string    `json:"data" gorm:"type:text"`
	OccurredAt      time.Time `json:"occurred_at"`
	Processed       bool      `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
