package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/blues/raise/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 基于数据库 role_grant 表的角色注册表
type Store struct {
	Predicates
	db *gorm.DB
}

// NewStore 创建数据库角色注册表
func NewStore(db *gorm.DB) *Store {
	s := &Store{db: db}
	s.Predicates = Predicates{Checker: s}
	return s
}

func (s *Store) Has(ctx context.Context, role Role, account common.Address) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.RoleGrantModel{}).
		Where("account = ? AND role = ?", accountKey(account), string(role)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query role %s: %w", role, err)
	}
	return count > 0, nil
}

// Grant 授予角色，已存在时忽略
func (s *Store) Grant(ctx context.Context, role Role, account common.Address) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role: %s", role)
	}
	grant := model.RoleGrantModel{Account: accountKey(account), Role: string(role)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error
}

// Revoke 撤销角色
func (s *Store) Revoke(ctx context.Context, role Role, account common.Address) error {
	return s.db.WithContext(ctx).
		Where("account = ? AND role = ?", accountKey(account), string(role)).
		Delete(&model.RoleGrantModel{}).Error
}

func accountKey(a common.Address) string {
	return strings.ToLower(a.Hex())
}
