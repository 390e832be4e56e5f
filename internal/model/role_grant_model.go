package model

import (
	"time"
)

// RoleGrantModel 角色授权
type RoleGrantModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Account string `json:"account" gorm:"uniqueIndex:idx_role_account;not null"`
	Role    string `json:"role" gorm:"uniqueIndex:idx_role_account;not null"`
}

// TableName 自定义表名
func (RoleGrantModel) TableName() string {
	return "role_grant"
}
