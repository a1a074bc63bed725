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
)

// CreateDomain godoc
// @Summary Create a new domain definition
// @Description Create a new business domain to hold entities, sources and relationships.
// @Tags domains
// @Accept  json
// @Produce  json
// @Param   domain_definition  body   models.CreateDomainRequest   true  "Domain Definition to create"
// @Success 201 {object} models.DomainDefinition "Successfully created domain definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error - see 'code' in response for specifics like VALIDATION_ERROR)"
// @Failure 409 {object} models.APIError "Conflict (e.g., duplicate name - see 'code' in response for specifics like DUPLICATE_NAME)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /domains [post]
func CreateDomain(c *gin.Context) {
	var req models.CreateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}

	domain := models.DomainDefinition{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
	}

	db := database.GetDB()
	if err := db.Create(&domain).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == "23505" { // PostgreSQL error code for unique_violation
				RespondWithError(c, http.StatusConflict, models.ErrorCodeDuplicateName, "Domain definition with this name already exists.", gin.H{"name": domain.Name})
				return
			}
		}
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to create domain definition.", nil)
		return
	}

	RespondWithSuccess(c, http.StatusCreated, domain)
}

// ListDomains godoc
// @Summary List all domain definitions
// @Description Get a list of all registered domain definitions.
// @Tags domains
// @Produce  json
// @Success 200 {array} models.DomainDefinition "Successfully retrieved list of domain definitions"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /domains [get]
func ListDomains(c *gin.Context) {
	db := database.GetDB()
	var domains []models.DomainDefinition
	if err := db.Order("name asc").Find(&domains).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to list domain definitions", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, domains)
}

// GetDomain godoc
// @Summary Get a specific domain definition by ID
// @Description Get a domain definition and its entities using its UUID.
// @Tags domains
// @Produce  json
// @Param   id     path   string     true  "Domain Definition ID (UUID)"
// @Success 200 {object} models.DomainDefinition "Successfully retrieved domain definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response for specifics like INVALID_ID_FORMAT)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response for specifics like DOMAIN_NOT_FOUND)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /domains/{id} [get]
func GetDomain(c *gin.Context) {
	idStr := c.Param("id")
	domainID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	var domain models.DomainDefinition
	if err := db.Preload("Entities").Preload("Entities.Attributes").First(&domain, "id = ?", domainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeDomainNotFound, "Domain definition not found", gin.H{"id": domainID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to get domain definition", nil)
		}
		return
	}
	RespondWithSuccess(c, http.StatusOK, domain)
}

// DeleteDomain godoc
// @Summary Delete a domain definition
// @Description Delete a domain definition and its entities by UUID.
// @Tags domains
// @Param   id     path   string     true  "Domain Definition ID (UUID)"
// @Success 204 "Successfully deleted domain definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response for specifics like INVALID_ID_FORMAT)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response for specifics like DOMAIN_NOT_FOUND)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /domains/{id} [delete]
func DeleteDomain(c *gin.Context) {
	idStr := c.Param("id")
	domainID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	var domainCheck models.DomainDefinition
	if err := db.First(&domainCheck, "id = ?", domainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeDomainNotFound, "Domain definition not found", gin.H{"id": domainID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to find domain definition for deletion", nil)
		}
		return
	}

	if err := db.Delete(&models.DomainDefinition{}, "id = ?", domainID).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to delete domain definition", nil)
		return
	}
	RespondWithSuccess(c, http.StatusNoContent, nil)
}
