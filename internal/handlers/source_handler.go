package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"modeler-service/internal/database"
	"modeler-service/internal/models"
)

// CreateSourceTable godoc
// @Summary Register a source table in a domain
// @Description Register a profiled physical source table (schema, column stats and table profile) within the given domain.
// @Tags sources
// @Accept  json
// @Produce  json
// @Param   id   path   string  true  "Domain ID (UUID)"
// @Param   source_table  body   models.CreateSourceTableRequest   true  "Source table to register"
// @Success 201 {object} models.SourceTableDefinition "Successfully registered source table"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response)"
// @Failure 409 {object} models.APIError "Conflict (e.g., duplicate name - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /domains/{id}/sources [post]
func CreateSourceTable(c *gin.Context) {
	domainIDStr := c.Param("id")
	domainID, err := uuid.Parse(domainIDStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain ID", gin.H{"id": domainIDStr})
		return
	}

	var req models.CreateSourceTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
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

	source := models.SourceTableDefinition{
		ID:          uuid.New(),
		DomainID:    domainID,
		Name:        req.Name,
		Description: req.Description,
	}

	// The profiling payloads arrive as structured JSON and are stored
	// verbatim as text columns.
	if req.Schema != nil {
		raw, err := json.Marshal(req.Schema)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidJSON, "Invalid schema payload", gin.H{"reason": err.Error()})
			return
		}
		source.SchemaJSON = string(raw)
	}
	if req.Stats != nil {
		raw, err := json.Marshal(req.Stats)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidJSON, "Invalid stats payload", gin.H{"reason": err.Error()})
			return
		}
		source.StatsJSON = string(raw)
	}
	if req.Profile != nil {
		raw, err := json.Marshal(req.Profile)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidJSON, "Invalid profile payload", gin.H{"reason": err.Error()})
			return
		}
		source.ProfileJSON = string(raw)
	}

	if err := db.Create(&source).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == "23505" { // PostgreSQL error code for unique_violation
				RespondWithError(c, http.StatusConflict, models.ErrorCodeDuplicateName, "Source table with this name already exists in the domain.", gin.H{"name": source.Name, "domain_id": domainID})
				return
			}
		}
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to register source table.", nil)
		return
	}

	RespondWithSuccess(c, http.StatusCreated, source)
}

// ListSourceTables godoc
// @Summary List source tables of a domain
// @Description Get a list of all source tables registered in the given domain.
// @Tags sources
// @Produce  json
// @Param   id   path   string  true  "Domain ID (UUID)"
// @Success 200 {array} models.SourceTableDefinition "Successfully retrieved list of source tables"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /domains/{id}/sources [get]
func ListSourceTables(c *gin.Context) {
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

	var sources []models.SourceTableDefinition
	if err := db.Where("domain_id = ?", domainID).Order("name asc").Find(&sources).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to list source tables", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, sources)
}

// GetSourceTable godoc
// @Summary Get a specific source table by ID
// @Description Get a registered source table using its UUID.
// @Tags sources
// @Produce  json
// @Param   id   path   string  true  "Source Table ID (UUID)"
// @Success 200 {object} models.SourceTableDefinition "Successfully retrieved source table"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., source table not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /sources/{id} [get]
func GetSourceTable(c *gin.Context) {
	idStr := c.Param("id")
	sourceID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for source table ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	var source models.SourceTableDefinition
	if err := db.First(&source, "id = ?", sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeSourceTableNotFound, "Source table not found", gin.H{"id": sourceID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to get source table", nil)
		}
		return
	}
	RespondWithSuccess(c, http.StatusOK, source)
}

// DeleteSourceTable godoc
// @Summary Delete a source table
// @Description Delete a registered source table by its UUID.
// @Tags sources
// @Param   id   path   string  true  "Source Table ID (UUID)"
// @Success 204 "Successfully deleted source table"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., source table not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /sources/{id} [delete]
func DeleteSourceTable(c *gin.Context) {
	idStr := c.Param("id")
	sourceID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for source table ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	var sourceCheck models.SourceTableDefinition
	if err := db.First(&sourceCheck, "id = ?", sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeSourceTableNotFound, "Source table not found", gin.H{"id": sourceID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to find source table for deletion", nil)
		}
		return
	}

	if err := db.Delete(&models.SourceTableDefinition{}, "id = ?", sourceID).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to delete source table", nil)
		return
	}
	RespondWithSuccess(c, http.StatusNoContent, nil)
}
