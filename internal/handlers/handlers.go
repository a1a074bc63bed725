package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"modeler-service/internal/database"
	"modeler-service/internal/models"
)

const (
	DefaultLimit        = 10
	MaxLimit            = 100
	DefaultSortOrder    = "asc"
	DefaultEntitySortBy = "created_at"
)

var AllowedEntitySortByFields = map[string]bool{
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

// CreateEntity godoc
// @Summary Create a new entity definition in a domain
// @Description Create a new logical entity definition within the given domain.
// @Tags entities
// @Accept  json
// @Produce  json
// @Param   id     path   string     true  "Domain ID (UUID)"
// @Param   entity_definition  body   models.CreateEntityRequest   true  "Entity Definition to create"
// @Success 201 {object} models.EntityDefinition "Successfully created entity definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error - see 'code' in response for specifics like VALIDATION_ERROR)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response for specifics like DOMAIN_NOT_FOUND)"
// @Failure 409 {object} models.APIError "Conflict (e.g., duplicate name - see 'code' in response for specifics like DUPLICATE_NAME)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /domains/{id}/entities [post]
func CreateEntity(c *gin.Context) {
	domainIDStr := c.Param("id")
	domainID, err := uuid.Parse(domainIDStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain ID", gin.H{"id": domainIDStr})
		return
	}

	var req models.CreateEntityRequest
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

	entity := models.EntityDefinition{
		ID:          uuid.New(),
		DomainID:    domainID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := db.Create(&entity).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == "23505" { // PostgreSQL error code for unique_violation
				RespondWithError(c, http.StatusConflict, models.ErrorCodeDuplicateName, "Entity definition with this name already exists in the domain.", gin.H{"name": entity.Name, "domain_id": domainID})
				return
			}
		}
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to create entity definition.", nil)
		return
	}

	RespondWithSuccess(c, http.StatusCreated, entity)
}

// ListEntities godoc
// @Summary List all entity definitions of a domain
// @Description Get a list of all entity definitions within the given domain.
// @Tags entities
// @Produce  json
// @Param   id     path   string     true  "Domain ID (UUID)"
// @Success 200 {array} models.EntityDefinition "Successfully retrieved list of entity definitions"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response for specifics like INVALID_ID_FORMAT)"
// @Failure 404 {object} models.APIError "Not Found (e.g., domain not found - see 'code' in response for specifics like DOMAIN_NOT_FOUND)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /domains/{id}/entities [get]
func ListEntities(c *gin.Context) {
	domainIDStr := c.Param("id")
	domainID, err := uuid.Parse(domainIDStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for domain ID", gin.H{"id": domainIDStr})
		return
	}

	// Get and validate pagination parameters
	limitStr := c.DefaultQuery("limit", strconv.Itoa(DefaultLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid limit parameter: not a number.", gin.H{"limit": limitStr})
		return
	}
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid offset parameter: not a number.", gin.H{"offset": offsetStr})
		return
	}
	if offset < 0 {
		offset = 0
	}

	sortBy := c.DefaultQuery("sort_by", DefaultEntitySortBy)
	if _, isValid := AllowedEntitySortByFields[sortBy]; !isValid {
		allowedFields := make([]string, 0, len(AllowedEntitySortByFields))
		for k := range AllowedEntitySortByFields {
			allowedFields = append(allowedFields, k)
		}
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid sort_by field for entities.", gin.H{"field": sortBy, "allowed": allowedFields})
		return
	}

	sortOrder := strings.ToLower(c.DefaultQuery("sort_order", DefaultSortOrder))
	if sortOrder != "asc" && sortOrder != "desc" {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid sort_order value. Must be 'asc' or 'desc'.", gin.H{"value": c.Query("sort_order")})
		return
	}

	log.Printf("ListEntities for DomainID %s: Validated params: limit=%d, offset=%d, sortBy=%s, sortOrder=%s", domainID, limit, offset, sortBy, sortOrder)

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

	var entities []models.EntityDefinition
	if err := db.Where("domain_id = ?", domainID).Order(sortBy + " " + sortOrder).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to list entity definitions", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, entities)
}

// GetEntity godoc
// @Summary Get a specific entity definition by ID
// @Description Get detailed information about a specific entity definition using its UUID.
// @Tags entities
// @Produce  json
// @Param   id     path   string     true  "Entity Definition ID (UUID)"
// @Success 200 {object} models.EntityDefinition "Successfully retrieved entity definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response for specifics like INVALID_ID_FORMAT)"
// @Failure 404 {object} models.APIError "Not Found (e.g., entity not found - see 'code' in response for specifics like ENTITY_NOT_FOUND)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /entities/{id} [get]
func GetEntity(c *gin.Context) {
	idStr := c.Param("id")
	entityID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for entity ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	var entity models.EntityDefinition
	if err := db.Preload("Attributes").First(&entity, "id = ?", entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeEntityNotFound, "Entity definition not found", gin.H{"id": entityID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to get entity definition", nil)
		}
		return
	}
	RespondWithSuccess(c, http.StatusOK, entity)
}

// UpdateEntity godoc
// @Summary Update an existing entity definition
// @Description Update an existing entity definition's name and/or description.
// @Tags entities
// @Accept  json
// @Produce  json
// @Param   id     path   string     true  "Entity Definition ID (UUID)"
// @Param   entity_definition  body   models.UpdateEntityRequest   true  "Entity Definition fields to update"
// @Success 200 {object} models.EntityDefinition "Successfully updated entity definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error, invalid ID format - see 'code' in response for specifics like VALIDATION_ERROR, INVALID_ID_FORMAT)"
// @Failure 404 {object} models.APIError "Not Found (e.g., entity not found - see 'code' in response for specifics like ENTITY_NOT_FOUND)"
// @Failure 409 {object} models.APIError "Conflict (e.g., duplicate name - see 'code' in response for specifics like DUPLICATE_NAME)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /entities/{id} [put]
func UpdateEntity(c *gin.Context) {
	idStr := c.Param("id")
	entityID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for entity ID", gin.H{"id": idStr})
		return
	}

	var req models.UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}

	db := database.GetDB()
	var entity models.EntityDefinition
	if err := db.First(&entity, "id = ?", entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeEntityNotFound, "Entity definition not found", gin.H{"id": entityID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to find entity definition for update", nil)
		}
		return
	}

	// Update fields if provided in the request
	if req.Name != nil {
		entity.Name = *req.Name
	}
	if req.Description != nil {
		entity.Description = *req.Description
	}

	if err := db.Save(&entity).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == "23505" {
				RespondWithError(c, http.StatusConflict, models.ErrorCodeDuplicateName, "Entity definition with this name already exists in the domain.", gin.H{"name": entity.Name})
				return
			}
		}
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to update entity definition.", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, entity)
}

// DeleteEntity godoc
// @Summary Delete an entity definition
// @Description Delete an entity definition by its UUID.
// @Tags entities
// @Param   id     path   string     true  "Entity Definition ID (UUID)"
// @Success 204 "Successfully deleted entity definition"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response for specifics like INVALID_ID_FORMAT)"
// @Failure 404 {object} models.APIError "Not Found (e.g., entity not found - see 'code' in response for specifics like ENTITY_NOT_FOUND)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /entities/{id} [delete]
func DeleteEntity(c *gin.Context) {
	idStr := c.Param("id")
	entityID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for entity ID", gin.H{"id": idStr})
		return
	}

	db := database.GetDB()
	// Check if entity exists before trying to delete
	var entityCheck models.EntityDefinition
	if err := db.First(&entityCheck, "id = ?", entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeEntityNotFound, "Entity definition not found", gin.H{"id": entityID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to find entity definition for deletion", nil)
		}
		return
	}

	if err := db.Delete(&models.EntityDefinition{}, "id = ?", entityID).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to delete entity definition", nil)
		return
	}
	RespondWithSuccess(c, http.StatusNoContent, nil)
}
