package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blues/raise/internal/contract/processor"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/factory"
	"github.com/blues/raise/internal/model"
	"github.com/blues/raise/internal/raise"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于 postgres 的宿主存储，快照、事件与投影在同一事务内写入
type GormStore struct {
	db         *gorm.DB
	processors *processor.ProcessorManager
}

func NewGormStore(db *gorm.DB, processors *processor.ProcessorManager) *GormStore {
	return &GormStore{db: db, processors: processors}
}

func (s *GormStore) SaveRaise(ctx context.Context, snap raise.Snapshot, events []event.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertRaise(tx, snap); err != nil {
			return err
		}
		return s.appendEvents(tx, events)
	})
}

func (s *GormStore) SaveFactory(ctx context.Context, snap factory.Snapshot, deployed *raise.Snapshot, events []event.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := factoryRow(snap)
		if err != nil {
			return err
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"implementation", "proxy_admin", "snapshot", "updated_at"}),
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("save factory: %w", err)
		}
		if deployed != nil {
			if err := upsertRaise(tx, *deployed); err != nil {
				return err
			}
		}
		return s.appendEvents(tx, events)
	})
}

func (s *GormStore) LoadFactory(ctx context.Context, address common.Address) (*factory.Snapshot, error) {
	var row model.FactoryConfigModel
	err := s.db.WithContext(ctx).Where("address = ?", address.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load factory: %w", err)
	}
	var snap factory.Snapshot
	if err := json.Unmarshal([]byte(row.Snapshot), &snap); err != nil {
		return nil, fmt.Errorf("decode factory snapshot: %w", err)
	}
	return &snap, nil
}

func (s *GormStore) LoadRaises(ctx context.Context) ([]raise.Snapshot, error) {
	var rows []model.RaiseModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load raises: %w", err)
	}
	out := make([]raise.Snapshot, 0, len(rows))
	for _, row := range rows {
		var snap raise.Snapshot
		if err := json.Unmarshal([]byte(row.Snapshot), &snap); err != nil {
			return nil, fmt.Errorf("decode raise %s: %w", row.Address, err)
		}
		out = append(out, snap)
	}
	return out, nil
}

func upsertRaise(tx *gorm.DB, snap raise.Snapshot) error {
	row, err := raiseRow(snap)
	if err != nil {
		return err
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage", "issuer_paid", "sold", "snapshot", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("save raise %s: %w", row.Address, err)
	}
	return nil
}

func (s *GormStore) appendEvents(tx *gorm.DB, events []event.Event) error {
	for i, e := range events {
		row, err := eventRow(e, i)
		if err != nil {
			return err
		}
		if s.processors != nil {
			if err := s.processors.ProcessEvent(tx, row, e); err != nil {
				return err
			}
		}
		row.Processed = true
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("save event %s: %w", e.Type, err)
		}
	}
	return nil
}

func raiseRow(snap raise.Snapshot) (*model.RaiseModel, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode raise snapshot: %w", err)
	}
	return &model.RaiseModel{
		Address:    snap.Address.Hex(),
		Issuer:     snap.Issuer.Hex(),
		Asset:      snap.Asset.Hex(),
		Stage:      model.RaiseStage(snap.Stage),
		IssuerPaid: snap.IssuerPaid,
		Sold:       snap.Pool.Sold,
		Opening:    snap.Opening,
		Closing:    snap.Closing,
		Snapshot:   string(data),
	}, nil
}

func factoryRow(snap factory.Snapshot) (*model.FactoryConfigModel, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode factory snapshot: %w", err)
	}
	return &model.FactoryConfigModel{
		Address:        snap.Address.Hex(),
		Implementation: snap.Implementation.Hex(),
		ProxyAdmin:     snap.ProxyAdmin.Hex(),
		Snapshot:       string(data),
	}, nil
}

func eventRow(e event.Event, seq int) (*model.EventModel, error) {
	data, err := json.Marshal(e.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode event fields: %w", err)
	}
	return &model.EventModel{
		EventId:         uuid.NewString(),
		ContractAddress: e.Contract.Hex(),
		ContractName:    e.Source,
		EventType:       e.Type,
		Seq:             int64(seq),
		Data:            string(data),
		OccurredAt:      e.At,
	}, nil
}
