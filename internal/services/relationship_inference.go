// Package services hosts the persistence-facing orchestration around the pure
// matching engine: applying inference evidence to stored relationship rows and
// upserting draft mappings from planner output.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"modeler-service/internal/models"
)

// ErrDomainNotFound is returned when inference is requested for an unknown
// domain. Callers map it to not-found semantics, distinct from validation
// failures.
var ErrDomainNotFound = errors.New("domain not found")

// DefaultRelationshipType is assigned when a profiling payload does not name a
// relationship type.
const DefaultRelationshipType = "inferred_foreign_key"

// ForeignKeyEvidence is the evidence payload stored on a relationship row.
type ForeignKeyEvidence struct {
	Source       string  `json:"source"`
	Column       string  `json:"column"`
	Target       string  `json:"target"`
	TargetColumn string  `json:"target_column"`
	RowCount     int     `json:"row_count"`
	MatchCount   int     `json:"match_count"`
	Coverage     float64 `json:"coverage"`
}

// NewForeignKeyEvidence builds evidence from one observed match. Coverage is
// the matched share of child rows, capped at 1 and rounded to six decimals.
func NewForeignKeyEvidence(source string, rowCount int, match models.ForeignKeyMatch) ForeignKeyEvidence {
	if rowCount < 0 {
		rowCount = 0
	}
	matchCount := match.MatchCount
	if matchCount < 0 {
		matchCount = 0
	}

	coverage := 0.0
	if rowCount > 0 {
		coverage = float64(matchCount) / float64(rowCount)
		if coverage > 1 {
			coverage = 1
		}
		coverage = math.Round(coverage*1e6) / 1e6
	}

	targetColumn := strings.TrimSpace(match.ReferencedColumn)
	if targetColumn == "" {
		targetColumn = "id"
	}

	return ForeignKeyEvidence{
		Source:       source,
		Column:       strings.TrimSpace(match.Column),
		Target:       strings.TrimSpace(match.ReferencedSource),
		TargetColumn: targetColumn,
		RowCount:     rowCount,
		MatchCount:   matchCount,
		Coverage:     coverage,
	}
}

// RelationshipInferenceService applies profiling evidence to stored
// relationship rows, respecting the review state machine: pure manual rows are
// untouched, manual rows that already carry evidence and rejected rows are
// revived to pending, approved rows keep their status.
type RelationshipInferenceService struct {
	db *gorm.DB
}

// NewRelationshipInferenceService builds the service on the given DB handle.
func NewRelationshipInferenceService(db *gorm.DB) *RelationshipInferenceService {
	return &RelationshipInferenceService{db: db}
}

// InferRelationships creates or refreshes pending relationships for the
// domain from the supplied profiling payloads. Source names are matched to
// entity names case-insensitively; unmatched sources are skipped.
func (s *RelationshipInferenceService) InferRelationships(domainID uuid.UUID, sources []models.SourceProfile) ([]models.RelationshipDefinition, error) {
	var domain models.DomainDefinition
	if err := s.db.Preload("Entities").First(&domain, "id = ?", domainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDomainNotFound, domainID)
		}
		return nil, fmt.Errorf("failed to load domain %s: %w", domainID, err)
	}

	entityLookup := make(map[string]models.EntityDefinition, len(domain.Entities))
	for _, entity := range domain.Entities {
		if entity.Name == "" {
			continue
		}
		entityLookup[strings.ToLower(entity.Name)] = entity
	}

	var inferred []models.RelationshipDefinition

	for _, source := range sources {
		sourceName := strings.TrimSpace(source.Name)
		if sourceName == "" {
			continue
		}

		fromEntity, ok := entityLookup[strings.ToLower(sourceName)]
		if !ok {
			continue
		}

		for _, match := range source.ForeignKeys {
			evidence := NewForeignKeyEvidence(sourceName, source.RowCount, match)
			toEntity, ok := entityLookup[strings.ToLower(evidence.Target)]
			if !ok {
				continue
			}

			relationshipType := strings.TrimSpace(match.RelationshipType)
			if relationshipType == "" {
				relationshipType = DefaultRelationshipType
			}

			relationship, err := s.getOrCreate(domain.ID, fromEntity.ID, toEntity.ID, relationshipType)
			if err != nil {
				return nil, err
			}

			// Pure manual relationships carry no inference metadata and are
			// never auto-modified.
			if relationship.InferenceStatus == models.InferenceStatusManual && relationship.EvidenceJSON == nil {
				continue
			}

			if description := strings.TrimSpace(match.Description); description != "" {
				relationship.Description = description
			}

			payload, err := json.Marshal(evidence)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize evidence: %w", err)
			}
			payloadText := string(payload)
			relationship.EvidenceJSON = &payloadText

			switch relationship.InferenceStatus {
			case models.InferenceStatusManual, models.InferenceStatusRejected:
				relationship.InferenceStatus = models.InferenceStatusPending
			}

			if err := s.db.Save(relationship).Error; err != nil {
				return nil, fmt.Errorf("failed to save relationship: %w", err)
			}
			inferred = append(inferred, *relationship)
		}
	}

	return inferred, nil
}

func (s *RelationshipInferenceService) getOrCreate(domainID, fromEntityID, toEntityID uuid.UUID, relationshipType string) (*models.RelationshipDefinition, error) {
	var existing models.RelationshipDefinition
	err := s.db.Where(
		"domain_id = ? AND from_entity_id = ? AND to_entity_id = ? AND relationship_type = ?",
		domainID, fromEntityID, toEntityID, relationshipType,
	).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up relationship: %w", err)
	}

	relationship := models.RelationshipDefinition{
		ID:               uuid.New(),
		DomainID:         domainID,
		FromEntityID:     fromEntityID,
		ToEntityID:       toEntityID,
		RelationshipType: relationshipType,
		InferenceStatus:  models.InferenceStatusPending,
	}
	if err := s.db.Create(&relationship).Error; err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	return &relationship, nil
}

// RefreshDomains re-runs inference for every domain from the profiling
// payloads stored on its source tables. Source tables without a stored profile
// are skipped. Returns the number of relationships touched.
func (s *RelationshipInferenceService) RefreshDomains() (int, error) {
	var domains []models.DomainDefinition
	if err := s.db.Find(&domains).Error; err != nil {
		return 0, fmt.Errorf("failed to list domains: %w", err)
	}

	touched := 0
	for _, domain := range domains {
		var tables []models.SourceTableDefinition
		if err := s.db.Where("domain_id = ? AND profile_json <> ''", domain.ID).Order("name").Find(&tables).Error; err != nil {
			return touched, fmt.Errorf("failed to list source tables for domain %s: %w", domain.ID, err)
		}

		var sources []models.SourceProfile
		for _, table := range tables {
			var profile models.SourceProfile
			if err := json.Unmarshal([]byte(table.ProfileJSON), &profile); err != nil {
				log.Printf("RefreshDomains: skipping source table %s: invalid profile payload: %v", table.ID, err)
				continue
			}
			if profile.Name == "" {
				profile.Name = table.Name
			}
			sources = append(sources, profile)
		}
		if len(sources) == 0 {
			continue
		}

		inferred, err := s.InferRelationships(domain.ID, sources)
		if err != nil {
			return touched, err
		}
		touched += len(inferred)
	}

	return touched, nil
}
