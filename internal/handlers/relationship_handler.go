package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"modeler-service/internal/database"
	"modeler-service/internal/models"
	"modeler-service/internal/services"
)

// CreateRelationship godoc
// @Summary Create a new manual relationship between entities
// @Description Create a new relationship between two entities of a domain. Relationships created through this endpoint carry manual status and are never modified by inference.
// @Tags relationships
// @Accept  json
// @Produce  json
// @Param   relationship_definition body models.CreateRelationshipRequest true "Relationship Definition to create"
// @Success 201 {object} models.RelationshipDefinition "Successfully created relationship definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error, invalid entity ID - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain or entity not found - see 'code' in response)"
// @Failure 409 {object} models.APIError "Conflict (e.g., relationship already exists - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /relationships [post]
func CreateRelationship(c *gin.Context) {
	var req models.CreateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}

	domainID, err := uuid.Parse(req.DomainID)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain_id", gin.H{"domain_id": req.DomainID})
		return
	}
	fromEntityID, err := uuid.Parse(req.FromEntityID)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for from_entity_id", gin.H{"from_entity_id": req.FromEntityID})
		return
	}
	toEntityID, err := uuid.Parse(req.ToEntityID)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for to_entity_id", gin.H{"to_entity_id": req.ToEntityID})
		return
	}

	db := database.GetDB()

	var domain models.DomainDefinition
	if err := db.First(&domain, "id = ?", domainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeDomainNotFound, "Domain definition not found", gin.H{"domain_id": domainID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to check domain existence", nil)
		}
		return
	}

	// Both endpoints must exist and belong to the domain.
	for _, entityID := range []uuid.UUID{fromEntityID, toEntityID} {
		var entity models.EntityDefinition
		if err := db.First(&entity, "id = ? AND domain_id = ?", entityID, domainID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				RespondWithError(c, http.StatusNotFound, models.ErrorCodeEntityNotFound, "Entity definition not found in domain", gin.H{"entity_id": entityID, "domain_id": domainID})
			} else {
				RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to check entity existence", nil)
			}
			return
		}
	}

	relationship := models.RelationshipDefinition{
		ID:               uuid.New(),
		DomainID:         domainID,
		FromEntityID:     fromEntityID,
		ToEntityID:       toEntityID,
		RelationshipType: req.RelationshipType,
		Description:      req.Description,
		InferenceStatus:  models.InferenceStatusManual,
	}

	if err := db.Create(&relationship).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == "23505" { // PostgreSQL error code for unique_violation
				RespondWithError(c, http.StatusConflict, models.ErrorCodeConflict, "Relationship with this endpoint and type combination already exists.", gin.H{"relationship_type": req.RelationshipType})
				return
			}
		}
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to create relationship definition.", nil)
		return
	}

	RespondWithSuccess(c, http.StatusCreated, relationship)
}

// ListRelationships godoc
// @Summary List relationships of a domain
// @Description Get a list of all relationship definitions within the given domain, optionally filtered by inference status.
// @Tags relationships
// @Produce  json
// @Param   id   path   string  true  "Domain ID (UUID)"
// @Param   status query  string  false "Filter by inference status (manual, pending, approved, rejected)"
// @Success 200 {array} models.RelationshipDefinition "Successfully retrieved list of relationship definitions"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format or status - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /domains/{id}/relationships [get]
func ListRelationships(c *gin.Context) {
	domainIDStr := c.Param("id")
	domainID, err := uuid.Parse(domainIDStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain ID", gin.H{"id": domainIDStr})
		return
	}

	db := database.GetDB()

	var domain models.DomainDefinition
	if err := db.First(&domain, "id = ?", domainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeDomainNotFound, "Domain definition not found", gin.H{"domain_id": domainID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to check domain existence", nil)
		}
		return
	}

	query := db.Where("domain_id = ?", domainID)
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.InferenceStatus(statusStr)
		if _, isValid := models.ValidInferenceStatuses[status]; !isValid {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidEnumValue, "Invalid inference status filter.", gin.H{"status": statusStr})
			return
		}
		query = query.Where("inference_status = ?", status)
	}

	var relationships []models.RelationshipDefinition
	if err := query.Order("created_at asc").Find(&relationships).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to list relationship definitions", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, relationships)
}

// DeleteRelationship godoc
// @Summary Delete a relationship definition
// @Description Delete a relationship definition by its UUID.
// @Tags relationships
// @Param   id   path   string  true  "Relationship Definition ID (UUID)"
// @Success 204 "Successfully deleted relationship definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., relationship not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /relationships/{id} [delete]
func DeleteRelationship(c *gin.Context) {
	idStr := c.Param("id")
	relationshipID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for relationship ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	var relationshipCheck models.RelationshipDefinition
	if err := db.First(&relationshipCheck, "id = ?", relationshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeRelationshipNotFound, "Relationship definition not found", gin.H{"id": relationshipID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to find relationship definition for deletion", nil)
		}
		return
	}

	if err := db.Delete(&models.RelationshipDefinition{}, "id = ?", relationshipID).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to delete relationship definition", nil)
		return
	}
	RespondWithSuccess(c, http.StatusNoContent, nil)
}

// InferRelationships godoc
// @Summary Run relationship inference for a domain
// @Description Run foreign-key relationship inference over the supplied profiling payloads and reconcile the proposals with stored relationships.
// @Tags relationships
// @Accept  json
// @Produce  json
// @Param   inference_request body models.InferRelationshipsRequest true "Domain and profiled sources"
// @Success 200 {array} models.RelationshipDefinition "Relationships touched by this inference run"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /relationships/infer [post]
func InferRelationships(c *gin.Context) {
	var req models.InferRelationshipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}

	domainID, err := uuid.Parse(req.DomainID)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain_id", gin.H{"domain_id": req.DomainID})
		return
	}

	service := services.NewRelationshipInferenceService(database.GetDB())
	touched, err := service.InferRelationships(domainID, req.Sources)
	if err != nil {
		if errors.Is(err, services.ErrDomainNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeDomainNotFound, "Domain definition not found", gin.H{"domain_id": domainID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Relationship inference failed", nil)
		}
		return
	}
	RespondWithSuccess(c, http.StatusOK, touched)
}

// ApproveRelationship godoc
// @Summary Approve an inferred relationship
// @Description Mark a pending or rejected inferred relationship as approved. Manual relationships cannot be reviewed.
// @Tags relationships
// @Produce  json
// @Param   id   path   string  true  "Relationship Definition ID (UUID)"
// @Success 200 {object} models.RelationshipDefinition "Successfully approved relationship"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., relationship not found - see 'code' in response)"
// @Failure 409 {object} models.APIError "Conflict (manual relationships cannot be reviewed - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /relationships/{id}/approve [post]
func ApproveRelationship(c *gin.Context) {
	reviewRelationship(c, models.InferenceStatusApproved)
}

// RejectRelationship godoc
// @Summary Reject an inferred relationship
// @Description Mark a pending or approved inferred relationship as rejected. Manual relationships cannot be reviewed.
// @Tags relationships
// @Produce  json
// @Param   id   path   string  true  "Relationship Definition ID (UUID)"
// @Success 200 {object} models.RelationshipDefinition "Successfully rejected relationship"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., relationship not found - see 'code' in response)"
// @Failure 409 {object} models.APIError "Conflict (manual relationships cannot be reviewed - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /relationships/{id}/reject [post]
func RejectRelationship(c *gin.Context) {
	reviewRelationship(c, models.InferenceStatusRejected)
}

func reviewRelationship(c *gin.Context, target models.InferenceStatus) {
	idStr := c.Param("id")
	relationshipID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for relationship ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	var relationship models.RelationshipDefinition
	if err := db.First(&relationship, "id = ?", relationshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeRelationshipNotFound, "Relationship definition not found", gin.H{"id": relationshipID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to find relationship definition for review", nil)
		}
		return
	}

	// Review only applies to inferred rows.
	if relationship.InferenceStatus == models.InferenceStatusManual {
		RespondWithError(c, http.StatusConflict, models.ErrorCodeManualProtected, "Manual relationships cannot be reviewed.", gin.H{"id": relationshipID})
		return
	}

	relationship.InferenceStatus = target
	if err := db.Save(&relationship).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to update relationship review status", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, relationship)
}
