package models

import (
	"time"

	"github.com/google/uuid"
)

// InferenceStatus tracks who currently owns a relationship proposal.
type InferenceStatus string

const (
	InferenceStatusManual   InferenceStatus = "manual"
	InferenceStatusPending  InferenceStatus = "pending"
	InferenceStatusApproved InferenceStatus = "approved"
	InferenceStatusRejected InferenceStatus = "rejected"
)

// ValidInferenceStatuses defines the allowed relationship inference statuses.
var ValidInferenceStatuses = map[InferenceStatus]bool{
	InferenceStatusManual:   true,
	InferenceStatusPending:  true,
	InferenceStatusApproved: true,
	InferenceStatusRejected: true,
}

// MappingStatus is the review state of an attribute-to-column mapping.
type MappingStatus string

const (
	MappingStatusDraft    MappingStatus = "draft"
	MappingStatusApproved MappingStatus = "approved"
	MappingStatusRejected MappingStatus = "rejected"
)

// ValidMappingStatuses defines the allowed mapping statuses.
var ValidMappingStatuses = map[MappingStatus]bool{
	MappingStatusDraft:    true,
	MappingStatusApproved: true,
	MappingStatusRejected: true,
}

// DomainDefinition groups the entities of one business domain.
// @Description DomainDefinition groups the entities of one business domain.
type DomainDefinition struct {
	ID          uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	Name        string             `json:"name" binding:"required,min=1,max=255" gorm:"type:varchar(255);not null;unique"`
	Description string             `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
	Entities    []EntityDefinition `json:"entities,omitempty" gorm:"foreignKey:DomainID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// EntityDefinition represents one logical entity of a domain model.
// @Description EntityDefinition represents one logical entity of a domain model.
type EntityDefinition struct {
	ID          uuid.UUID             `json:"id" gorm:"type:uuid;primary_key"`
	DomainID    uuid.UUID             `json:"domain_id" gorm:"type:uuid;not null;uniqueIndex:idx_domain_entity_name"`
	Name        string                `json:"name" binding:"required,min=1,max=255" gorm:"type:varchar(255);not null;uniqueIndex:idx_domain_entity_name"`
	Description string                `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time             `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time             `json:"updated_at" gorm:"autoUpdateTime"`
	Attributes  []AttributeDefinition `json:"attributes,omitempty" gorm:"foreignKey:EntityID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// AttributeDefinition represents a logical attribute of an entity. DataType is
// a free-form source type name; the matching engine buckets it internally.
// @Description AttributeDefinition represents a logical attribute of an entity.
type AttributeDefinition struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	EntityID     uuid.UUID `json:"entity_id" gorm:"type:uuid;not null;uniqueIndex:idx_entity_attr_name"`
	Name         string    `json:"name" binding:"required,min=1,max=255" gorm:"type:varchar(255);not null;uniqueIndex:idx_entity_attr_name"`
	DataType     string    `json:"data_type" binding:"required,min=1,max=50" gorm:"type:varchar(50);not null"`
	SemanticType string    `json:"semantic_type,omitempty" gorm:"type:varchar(100)"`
	Required     bool      `json:"required" gorm:"default:false"`
	Description  string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SourceTableDefinition registers one physical source table of a domain.
// SchemaJSON maps column names to datatype strings, StatsJSON maps column
// names to profiling stat bags and ProfileJSON holds the table-level profiling
// payload (row count and observed foreign-key matches).
// @Description SourceTableDefinition registers one physical source table of a domain.
type SourceTableDefinition struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	DomainID    uuid.UUID `json:"domain_id" gorm:"type:uuid;not null;uniqueIndex:idx_domain_source_name"`
	Name        string    `json:"name" binding:"required,min=1,max=255" gorm:"type:varchar(255);not null;uniqueIndex:idx_domain_source_name"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	SchemaJSON  string    `json:"schema_json,omitempty" gorm:"type:text"`
	StatsJSON   string    `json:"stats_json,omitempty" gorm:"type:text"`
	ProfileJSON string    `json:"profile_json,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RelationshipDefinition is a logical relationship between two entities of the
// same domain. The (domain, from, to, type) tuple identifies one row; a
// different relationship type creates a distinct row rather than updating an
// existing one.
// @Description RelationshipDefinition is a logical relationship between two entities.
type RelationshipDefinition struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	DomainID         uuid.UUID       `json:"domain_id" gorm:"type:uuid;not null;uniqueIndex:idx_relationship_key"`
	FromEntityID     uuid.UUID       `json:"from_entity_id" gorm:"type:uuid;not null;uniqueIndex:idx_relationship_key"`
	ToEntityID       uuid.UUID       `json:"to_entity_id" gorm:"type:uuid;not null;uniqueIndex:idx_relationship_key"`
	RelationshipType string          `json:"relationship_type" gorm:"type:varchar(50);not null;uniqueIndex:idx_relationship_key"`
	Description      string          `json:"description,omitempty" gorm:"type:text"`
	InferenceStatus  InferenceStatus `json:"inference_status" gorm:"type:varchar(20);not null;default:'manual'"`
	EvidenceJSON     *string         `json:"evidence_json,omitempty" gorm:"type:text"`
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// MappingDefinition links a logical attribute to a physical column. At most
// one draft-status row exists per attribute; autoplan updates it in place.
// @Description MappingDefinition links a logical attribute to a physical column.
type MappingDefinition struct {
	ID            uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	EntityID      uuid.UUID     `json:"entity_id" gorm:"type:uuid;not null"`
	AttributeID   uuid.UUID     `json:"attribute_id" gorm:"type:uuid;not null;index"`
	SourceTableID uuid.UUID     `json:"source_table_id" gorm:"type:uuid;not null"`
	ColumnPath    string        `json:"column_path" gorm:"type:varchar(512);not null"`
	Confidence    float64       `json:"confidence" gorm:"not null;default:0"`
	Status        MappingStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	Rationale     string        `json:"rationale,omitempty" gorm:"type:text"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// SourceProfile is the profiling payload supplied to relationship inference
// for one source table.
type SourceProfile struct {
	Name        string            `json:"name"`
	RowCount    int               `json:"row_count"`
	ForeignKeys []ForeignKeyMatch `json:"foreign_keys"`
}

// ForeignKeyMatch describes one observed foreign-key match from profiling.
type ForeignKeyMatch struct {
	Column           string `json:"column"`
	ReferencedSource string `json:"referenced_source"`
	ReferencedColumn string `json:"referenced_column"`
	MatchCount       int    `json:"match_count"`
	RelationshipType string `json:"relationship_type,omitempty"`
	Description      string `json:"description,omitempty"`
}
