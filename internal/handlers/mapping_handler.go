package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"modeler-service/internal/database"
	"modeler-service/internal/models"
	"modeler-service/internal/planner"
	"modeler-service/internal/services"
)

// AutoplanMappings godoc
// @Summary Plan attribute-to-column mappings for an entity
// @Description Score every column of every source table in the entity's domain against the entity's attributes and persist the top candidate of each attribute as a draft mapping.
// @Tags mappings
// @Accept  json
// @Produce  json
// @Param   autoplan_request body models.AutoplanRequest true "Entity to plan mappings for"
// @Success 200 {object} map[string]interface{} "Attribute plans and the number of draft mappings created"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., entity not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /mappings/autoplan [post]
func AutoplanMappings(c *gin.Context) {
	var req models.AutoplanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}

	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for entity_id", gin.H{"entity_id": req.EntityID})
		return
	}

	db := database.GetDB()

	var entity models.EntityDefinition
	if err := db.First(&entity, "id = ?", entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeEntityNotFound, "Entity definition not found", gin.H{"entity_id": entityID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to load entity definition", nil)
		}
		return
	}

	var attributeRows []models.AttributeDefinition
	if err := db.Where("entity_id = ?", entityID).Order("name asc").Find(&attributeRows).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to load attribute definitions", nil)
		return
	}

	var sourceRows []models.SourceTableDefinition
	if err := db.Where("domain_id = ?", entity.DomainID).Order("name asc").Find(&sourceRows).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to load source tables", nil)
		return
	}

	attributes := make([]planner.Attribute, 0, len(attributeRows))
	for _, row := range attributeRows {
		attributes = append(attributes, planner.Attribute{
			ID:           row.ID.String(),
			Name:         row.Name,
			Datatype:     row.DataType,
			SemanticType: row.SemanticType,
			Required:     row.Required,
		})
	}

	sources := make([]planner.Source, 0, len(sourceRows))
	for _, row := range sourceRows {
		source := planner.Source{
			ID:   row.ID.String(),
			Name: row.Name,
		}
		if row.SchemaJSON != "" {
			if err := json.Unmarshal([]byte(row.SchemaJSON), &source.Schema); err != nil {
				RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to parse stored source schema", gin.H{"source_table_id": row.ID})
				return
			}
		}
		if row.StatsJSON != "" {
			if err := json.Unmarshal([]byte(row.StatsJSON), &source.Stats); err != nil {
				RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to parse stored source stats", gin.H{"source_table_id": row.ID})
				return
			}
		}
		sources = append(sources, source)
	}

	plans := planner.Autoplan(entity.Name, attributes, sources)

	created, err := services.NewMappingService(db).UpsertDrafts(entityID, plans)
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to persist draft mappings", nil)
		return
	}

	RespondWithSuccess(c, http.StatusOK, gin.H{
		"entity_id":      entityID,
		"plans":          plans,
		"drafts_created": created,
	})
}

// ListMappings godoc
// @Summary List mappings of an entity
// @Description Get all attribute-to-column mappings of an entity, optionally filtered by status.
// @Tags mappings
// @Produce  json
// @Param   id   path   string  true  "Entity ID (UUID)"
// @Param   status query  string  false "Filter by mapping status (draft, approved, rejected)"
// @Success 200 {array} models.MappingDefinition "Successfully retrieved list of mappings"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format or status - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., entity not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /entities/{id}/mappings [get]
func ListMappings(c *gin.Context) {
	entityIDStr := c.Param("id")
	entityID, err := uuid.Parse(entityIDStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for entity ID", gin.H{"id": entityIDStr})
		return
	}

	db := database.GetDB()

	var entity models.EntityDefinition
	if err := db.First(&entity, "id = ?", entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeEntityNotFound, "Entity definition not found", gin.H{"entity_id": entityID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to check entity existence", nil)
		}
		return
	}

	query := db.Where("entity_id = ?", entityID)
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.MappingStatus(statusStr)
		if _, isValid := models.ValidMappingStatuses[status]; !isValid {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidEnumValue, "Invalid mapping status filter.", gin.H{"status": statusStr})
			return
		}
		query = query.Where("status = ?", status)
	}

	var mappings []models.MappingDefinition
	if err := query.Order("created_at asc").Find(&mappings).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to list mappings", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, mappings)
}

// UpdateMappingStatus godoc
// @Summary Update the review status of a mapping
// @Description Move a mapping between draft, approved and rejected status.
// @Tags mappings
// @Accept  json
// @Produce  json
// @Param   id   path   string  true  "Mapping ID (UUID)"
// @Param   mapping_update body models.UpdateMappingRequest true "New mapping status"
// @Success 200 {object} models.MappingDefinition "Successfully updated mapping"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format or status - see 'code' in response)"
// @Failure 404 {object} models.APIError "Not Found (e.g., mapping not found - see 'code' in response)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response)"
// @Router /mappings/{id} [patch]
func UpdateMappingStatus(c *gin.Context) {
	idStr := c.Param("id")
	mappingID, err := uuid.Parse(idStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid ID format for mapping ID", gin.H{"id": idStr})
		return
	}

	var req models.UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}

	status := models.MappingStatus(req.Status)
	if _, isValid := models.ValidMappingStatuses[status]; !isValid {
		allowed := make([]models.MappingStatus, 0, len(models.ValidMappingStatuses))
		for k := range models.ValidMappingStatuses {
			allowed = append(allowed, k)
		}
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidEnumValue, "Invalid mapping status.", gin.H{"status": req.Status, "allowed": allowed})
		return
	}

	db := database.GetDB()
	var mapping models.MappingDefinition
	if err := db.First(&mapping, "id = ?", mappingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeMappingNotFound, "Mapping not found", gin.H{"id": mappingID})
		} else {
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to find mapping for update", nil)
		}
		return
	}

	mapping.Status = status
	if err := db.Save(&mapping).Error; err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to update mapping status", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, mapping)
}
