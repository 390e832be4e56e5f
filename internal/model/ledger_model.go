package model

import (
	"time"
)

// LedgerBalanceModel 内存资产账户余额
type LedgerBalanceModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Asset   string `json:"asset" gorm:"uniqueIndex:idx_ledger_account;not null"`
	Account string `json:"account" gorm:"uniqueIndex:idx_ledger_account;not null"`
	Amount  string `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (LedgerBalanceModel) TableName() string {
	return "ledger_balance"
}

// LedgerAllowanceModel 内存资产授权额度
type LedgerAllowanceModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Asset   string `json:"asset" gorm:"uniqueIndex:idx_ledger_allowance;not null"`
	Owner   string `json:"owner" gorm:"uniqueIndex:idx_ledger_allowance;not null"`
	Spender string `json:"spender" gorm:"uniqueIndex:idx_ledger_allowance;not null"`
	Amount  string `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (LedgerAllowanceModel) TableName() string {
	return "ledger_allowance"
}
