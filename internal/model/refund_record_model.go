package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RaiseAddress string     `json:"raise_address" gorm:"index;not null"`
	Address      string     `json:"address" gorm:"index;not null"`
	Amount       string     `json:"amount" gorm:"not null"`
	Kind         RefundKind `json:"kind" gorm:"not null"`
	EventId      string     `json:"event_id" gorm:"uniqueIndex:idx_refund_event"`
	Seq          int        `json:"seq" gorm:"uniqueIndex:idx_refund_event"`
}

// RefundKind 退款来源
type RefundKind string

const (
	RefundKindDeclined RefundKind = "declined" // 认购被拒
	RefundKindPending  RefundKind = "pending"  // 待审退回
	RefundKindAccepted RefundKind = "accepted" // 已接受退回
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
