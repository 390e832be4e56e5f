package processor

import (
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/model"
	"gorm.io/gorm"
)

// ProposalProcessor 维护 proposal 表
type ProposalProcessor struct{}

func NewProposalProcessor() *ProposalProcessor {
	return &ProposalProcessor{}
}

func (p *ProposalProcessor) GetEventTypes() []string {
	return []string{event.NewProposal, event.ProposalDeclined, event.RaiseDeployed, event.ProposalAccepted}
}

func (p *ProposalProcessor) Process(tx *gorm.DB, _ *model.EventModel, e event.Event) error {
	id := e.Fields["id"]
	byID := tx.Model(&model.ProposalModel{}).Where("proposal_id = ?", id)

	var err error
	switch e.Type {
	case event.NewProposal:
		err = tx.Create(&model.ProposalModel{
			ProposalId: id,
			Issuer:     e.Address("issuer").Hex(),
			Status:     model.ProposalStatusProposed,
		}).Error
	case event.ProposalDeclined:
		err = tx.Where("proposal_id = ?", id).Delete(&model.ProposalModel{}).Error
	case event.RaiseDeployed:
		err = byID.Updates(map[string]interface{}{
			"implementation": e.Address("implementation").Hex(),
			"instance":       e.Address("instance").Hex(),
		}).Error
	case event.ProposalAccepted:
		instance := e.Address("instance").Hex()
		err = byID.Updates(map[string]interface{}{
			"token":  e.Address("token").Hex(),
			"status": model.ProposalStatusDeployed,
		}).Error
		if err == nil {
			err = tx.Model(&model.RaiseModel{}).Where("address = ?", instance).Update("proposal_id", id).Error
		}
	}
	if err != nil {
		logger.Error("Failed to apply %s for proposal %s: %v", e.Type, id, err)
		return err
	}
	return nil
}
