package model

import (
	"time"
)

// SubscriptionRecordModel 认购记录
type SubscriptionRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RaiseAddress   string             `json:"raise_address" gorm:"uniqueIndex:idx_raise_sub;not null"`
	SubscriptionId string             `json:"subscription_id" gorm:"uniqueIndex:idx_raise_sub;not null"`
	Investor       string             `json:"investor" gorm:"index;not null"`
	Shares         uint64             `json:"shares" gorm:"not null"`
	Cost           string             `json:"cost" gorm:"not null"` // 十进制字符串
	Status         SubscriptionStatus `json:"status" gorm:"default:'pending'"`
	EventId        string             `json:"event_id"`
}

// SubscriptionStatus 认购状态
type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"  // 待审
	SubscriptionStatusAccepted SubscriptionStatus = "accepted" // 已接受
	SubscriptionStatusDeclined SubscriptionStatus = "declined" // 已拒绝
	SubscriptionStatusRefunded SubscriptionStatus = "refunded" // 已退款
)

// TableName 自定义表名
func (SubscriptionRecordModel) TableName() string {
	return "subscription_record"
}
