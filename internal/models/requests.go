package models

// CreateDomainRequest defines the request payload for creating a domain.
type CreateDomainRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description,omitempty" binding:"max=1000"`
}

// CreateEntityRequest defines the request payload for creating an entity.
type CreateEntityRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description,omitempty" binding:"max=1000"`
}

// UpdateEntityRequest defines the request payload for updating an entity.
type UpdateEntityRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=1000"`
}

// CreateAttributeRequest defines the request payload for creating an attribute.
type CreateAttributeRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=255"`
	DataType     string `json:"data_type" binding:"required,min=1,max=50"`
	SemanticType string `json:"semantic_type,omitempty" binding:"max=100"`
	Required     *bool  `json:"required,omitempty"` // Pointer to distinguish between false and not provided
	Description  string `json:"description,omitempty" binding:"max=1000"`
}

// UpdateAttributeRequest defines the request payload for updating an attribute.
type UpdateAttributeRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	DataType     *string `json:"data_type,omitempty" binding:"omitempty,min=1,max=50"`
	SemanticType *string `json:"semantic_type,omitempty" binding:"omitempty,max=100"`
	Required     *bool   `json:"required,omitempty"`
	Description  *string `json:"description,omitempty" binding:"omitempty,max=1000"`
}

// CreateSourceTableRequest registers a source table together with its profiled
// schema and statistics. Schema maps column names to datatype strings; Stats
// maps column names to open stat bags.
type CreateSourceTableRequest struct {
	Name        string                    `json:"name" binding:"required,min=1,max=255"`
	Description string                    `json:"description,omitempty" binding:"max=1000"`
	Schema      map[string]string         `json:"schema,omitempty"`
	Stats       map[string]map[string]any `json:"stats,omitempty"`
	Profile     *SourceProfile            `json:"profile,omitempty"`
}

// CreateRelationshipRequest defines the request payload for creating a
// relationship between two entities of a domain. Relationships created through
// the API are manual: inference never touches them until they carry evidence.
type CreateRelationshipRequest struct {
	DomainID         string `json:"domain_id" binding:"required"`
	FromEntityID     string `json:"from_entity_id" binding:"required"`
	ToEntityID       string `json:"to_entity_id" binding:"required"`
	RelationshipType string `json:"relationship_type" binding:"required,min=1,max=50"`
	Description      string `json:"description,omitempty" binding:"max=1000"`
}

// InferRelationshipsRequest triggers relationship inference for a domain from
// freshly supplied profiling payloads.
type InferRelationshipsRequest struct {
	DomainID string          `json:"domain_id" binding:"required"`
	Sources  []SourceProfile `json:"sources" binding:"required"`
}

// AutoplanRequest triggers mapping planning for one entity.
type AutoplanRequest struct {
	EntityID string `json:"entity_id" binding:"required"`
}

// UpdateMappingRequest changes the review status of a mapping.
type UpdateMappingRequest struct {
	Status string `json:"status" binding:"required"`
}
