package model

import (
	"time"
)

// RaiseModel 募资实例快照
type RaiseModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Address    string `json:"address" gorm:"uniqueIndex;not null"`
	ProposalId string `json:"proposal_id" gorm:"index"`
	Issuer     string `json:"issuer" gorm:"index;not null"`
	Asset      string `json:"asset"`

	// 状态
	Stage      RaiseStage `json:"stage" gorm:"index"`
	IssuerPaid bool       `json:"issuer_paid" gorm:"default:false"`
	Sold       uint64     `json:"sold"`

	// 时间信息
	Opening time.Time `json:"opening"`
	Closing time.Time `json:"closing"`

	// 完整状态，JSON
	Snapshot string `json:"-" gorm:"type:text;not null"`
}

// RaiseStage 募资阶段
type RaiseStage int

const (
	RaiseStageFunding                 RaiseStage = 0 // 认购中
	RaiseStageAwaitingSettlement      RaiseStage = 1 // 待退款结算
	RaiseStagePendingOperatorApproval RaiseStage = 2 // 待运营方审批
	RaiseStageFinalized               RaiseStage = 3 // 已确认
	RaiseStageClosed                  RaiseStage = 4 // 已关闭
)

// TableName 自定义表名
func (RaiseModel) TableName() string {
	return "raise"
}
