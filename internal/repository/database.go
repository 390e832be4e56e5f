package repository

import (
	"fmt"

	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // 禁用 GORM 的默认日志输出
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true, // 禁用复数表名
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 自动迁移
	if err := db.AutoMigrate(
		&model.RaiseModel{},
		&model.ProposalModel{},
		&model.FactoryConfigModel{},
		&model.EventModel{},
		&model.SubscriptionRecordModel{},
		&model.RefundRecordModel{},
		&model.SettlementRecordModel{},
		&model.RoleGrantModel{},
		&model.LedgerBalanceModel{},
		&model.LedgerAllowanceModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
