package model

import (
	"time"
)

// ProposalModel 工厂提案记录
type ProposalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProposalId     string         `json:"proposal_id" gorm:"uniqueIndex;not null"`
	Issuer         string         `json:"issuer" gorm:"not null"`
	Token          string         `json:"token"`
	Implementation string         `json:"implementation"`
	Instance       string         `json:"instance"`
	Status         ProposalStatus `json:"status" gorm:"default:'proposed'"`
}

// ProposalStatus 提案状态
type ProposalStatus string

const (
	ProposalStatusProposed ProposalStatus = "proposed" // 待审批
	ProposalStatusDeployed ProposalStatus = "deployed" // 已部署
)

// TableName 自定义表名
func (ProposalModel) TableName() string {
	return "proposal"
}

// FactoryConfigModel 工厂全局配置与快照
type FactoryConfigModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address        string `json:"address" gorm:"uniqueIndex;not null"`
	Implementation string `json:"implementation"`
	ProxyAdmin     string `json:"proxy_admin"`
	Snapshot       string `json:"-" gorm:"type:text;not null"`
}

// TableName 自定义表名
func (FactoryConfigModel) TableName() string {
	return "factory_config"
}
