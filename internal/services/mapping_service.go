package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"modeler-service/internal/models"
	"modeler-service/internal/planner"
)

// MappingService persists planner output as draft mappings.
type MappingService struct {
	db *gorm.DB
}

// NewMappingService builds the service on the given DB handle.
func NewMappingService(db *gorm.DB) *MappingService {
	return &MappingService{db: db}
}

// UpsertDrafts stores the top candidate of each planned attribute as that
// attribute's single draft-status mapping row, updating the existing draft in
// place when one exists. Attributes without candidates are left alone.
// Returns the number of newly created rows.
func (s *MappingService) UpsertDrafts(entityID uuid.UUID, plans []planner.AttributePlan) (int, error) {
	created := 0

	for _, plan := range plans {
		if len(plan.Candidates) == 0 {
			continue
		}
		attributeID, err := uuid.Parse(plan.AttributeID)
		if err != nil {
			continue
		}
		top := plan.Candidates[0]
		sourceTableID, err := uuid.Parse(top.SourceTableID)
		if err != nil {
			continue
		}

		var existing models.MappingDefinition
		err = s.db.Where(
			"attribute_id = ? AND status = ?",
			attributeID, models.MappingStatusDraft,
		).First(&existing).Error

		switch {
		case err == nil:
			existing.EntityID = entityID
			existing.SourceTableID = sourceTableID
			existing.ColumnPath = top.ColumnPath
			existing.Confidence = top.Confidence
			existing.Rationale = top.Rationale
			if err := s.db.Save(&existing).Error; err != nil {
				return created, fmt.Errorf("failed to update draft mapping: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			mapping := models.MappingDefinition{
				ID:            uuid.New(),
				EntityID:      entityID,
				AttributeID:   attributeID,
				SourceTableID: sourceTableID,
				ColumnPath:    top.ColumnPath,
				Confidence:    top.Confidence,
				Status:        models.MappingStatusDraft,
				Rationale:     top.Rationale,
			}
			if err := s.db.Create(&mapping).Error; err != nil {
				return created, fmt.Errorf("failed to create draft mapping: %w", err)
			}
			created++
		default:
			return created, fmt.Errorf("failed to look up draft mapping: %w", err)
		}
	}

	return created, nil
}
