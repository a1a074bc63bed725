package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"modeler-service/internal/coverage"
	"modeler-service/internal/database"
	"modeler-service/internal/models"
)

// CoverageHandler serves model-quality analysis. It owns the analyzer so the
// ontology in use is always explicit.
type CoverageHandler struct {
	analyzer *coverage.Analyzer
}

func NewCoverageHandler(analyzer *coverage.Analyzer) *CoverageHandler {
	return &CoverageHandler{analyzer: analyzer}
}

// analyzeRequest accepts either an inline model payload or a stored domain.
type analyzeRequest struct {
	Model     json.RawMessage `json:"model,omitempty"`
	DomainID  string          `json:"domain_id,omitempty"`
	Threshold *float64        `json:"threshold,omitempty"`
}

// AnalyzeModel godoc
// @Summary Analyze a logical model for MECE quality
// @Description Analyze a logical model for attribute collisions, ontology coverage gaps and naming drift, and compute its MECE score. The model is supplied inline or referenced by domain_id.
// @Tags coverage
// @Accept  json
// @Produce  json
// @Param   analyze_request body handlers.analyzeRequest true "Model payload or domain reference, with optional collision threshold"
// @Success 200 {object} coverage.Report "Model quality report"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid model payload - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /coverage/analyze [post]
func (h *CoverageHandler) AnalyzeModel(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}

	threshold := coverage.DefaultCollisionThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	raw := []byte(req.Model)
	if len(raw) == 0 {
		if req.DomainID == "" {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Either model or domain_id must be provided.", nil)
			return
		}
		domainID, err := uuid.Parse(req.DomainID)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain_id", gin.H{"domain_id": req.DomainID})
			return
		}
		raw, err = modelPayloadFromDomain(domainID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				RespondWithError(c, http.StatusNotFound, models.ErrorCodeDomainNotFound, "Domain definition not found", gin.H{"domain_id": domainID})
			} else {
				RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to build model from domain", nil)
			}
			return
		}
	}

	report, err := h.analyzer.AnalyzeModel(raw, threshold)
	if err != nil {
		if errors.Is(err, coverage.ErrInvalidModelPayload) {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidModelPayload, "Model payload must be a JSON object.", gin.H{"reason": err.Error()})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Model analysis failed", nil)
		}
		return
	}
	RespondWithSuccess(c, http.StatusOK, report)
}

// modelPayloadFromDomain serializes a stored domain's entities and attributes
// into the coverage model shape.
func modelPayloadFromDomain(domainID uuid.UUID) ([]byte, error) {
	db := database.GetDB()

	var domain models.DomainDefinition
	if err := db.Preload("Entities", func(db *gorm.DB) *gorm.DB {
		return db.Order("entity_definitions.name asc")
	}).Preload("Entities.Attributes", func(db *gorm.DB) *gorm.DB {
		return db.Order("attribute_definitions.name asc")
	}).First(&domain, "id = ?", domainID).Error; err != nil {
		return nil, err
	}

	type attrPayload struct {
		Name string `json:"name"`
	}
	type entityPayload struct {
		Name       string        `json:"name"`
		Attributes []attrPayload `json:"attributes"`
	}

	entities := make([]entityPayload, 0, len(domain.Entities))
	for _, entity := range domain.Entities {
		attrs := make([]attrPayload, 0, len(entity.Attributes))
		for _, attr := range entity.Attributes {
			attrs = append(attrs, attrPayload{Name: attr.Name})
		}
		entities = append(entities, entityPayload{Name: entity.Name, Attributes: attrs})
	}

	return json.Marshal(gin.H{"entities": entities})
}
