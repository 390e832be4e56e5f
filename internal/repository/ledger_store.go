package repository

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore 内存资产的持久化，实现 ledger.Sink
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) SaveLedger(ctx context.Context, asset common.Address, balances []ledger.Balance, allowances []ledger.Allowance) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, b := range balances {
			row := balanceRow(asset, b)
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "asset"}, {Name: "account"}},
				DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("save balance %s: %w", row.Account, err)
			}
		}
		for _, a := range allowances {
			row := allowanceRow(asset, a)
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "asset"}, {Name: "owner"}, {Name: "spender"}},
				DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("save allowance %s/%s: %w", row.Owner, row.Spender, err)
			}
		}
		return nil
	})
}

// LoadLedger 读取某资产的全部余额与授权
func (s *LedgerStore) LoadLedger(ctx context.Context, asset common.Address) ([]ledger.Balance, []ledger.Allowance, error) {
	db := s.db.WithContext(ctx)
	var balanceRows []model.LedgerBalanceModel
	if err := db.Where("asset = ?", asset.Hex()).Order("id").Find(&balanceRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load balances: %w", err)
	}
	var allowanceRows []model.LedgerAllowanceModel
	if err := db.Where("asset = ?", asset.Hex()).Order("id").Find(&allowanceRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load allowances: %w", err)
	}

	balances := make([]ledger.Balance, 0, len(balanceRows))
	for _, row := range balanceRows {
		amount, err := parseStoredAmount(row.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("balance %s: %w", row.Account, err)
		}
		balances = append(balances, ledger.Balance{Account: common.HexToAddress(row.Account), Amount: amount})
	}
	allowances := make([]ledger.Allowance, 0, len(allowanceRows))
	for _, row := range allowanceRows {
		amount, err := parseStoredAmount(row.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("allowance %s/%s: %w", row.Owner, row.Spender, err)
		}
		allowances = append(allowances, ledger.Allowance{
			Owner:   common.HexToAddress(row.Owner),
			Spender: common.HexToAddress(row.Spender),
			Amount:  amount,
		})
	}
	return balances, allowances, nil
}

func balanceRow(asset common.Address, b ledger.Balance) model.LedgerBalanceModel {
	return model.LedgerBalanceModel{
		Asset:   asset.Hex(),
		Account: b.Account.Hex(),
		Amount:  b.Amount.String(),
	}
}

func allowanceRow(asset common.Address, a ledger.Allowance) model.LedgerAllowanceModel {
	return model.LedgerAllowanceModel{
		Asset:   asset.Hex(),
		Owner:   a.Owner.Hex(),
		Spender: a.Spender.Hex(),
		Amount:  a.Amount.String(),
	}
}

func parseStoredAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid stored amount %q", s)
	}
	return v, nil
}
