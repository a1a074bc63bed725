package services

import (
	"encoding/json"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"modeler-service/internal/models"
)

var testDB *gorm.DB

// TestMain sets up an in-memory database shared by the service tests.
func TestMain(m *testing.M) {
	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	err = testDB.AutoMigrate(
		&models.DomainDefinition{},
		&models.EntityDefinition{},
		&models.AttributeDefinition{},
		&models.SourceTableDefinition{},
		&models.RelationshipDefinition{},
		&models.MappingDefinition{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate test database schema: %v", err)
	}

	exitCode := m.Run()

	sqlDB, err := testDB.DB()
	if err == nil {
		sqlDB.Close()
	}
	os.Exit(exitCode)
}

func clearTables(t *testing.T) {
	t.Helper()
	for _, table := range []string{
		"mapping_definitions",
		"relationship_definitions",
		"source_table_definitions",
		"attribute_definitions",
		"entity_definitions",
		"domain_definitions",
	} {
		require.NoError(t, testDB.Exec("DELETE FROM "+table).Error)
	}
}

func createDomain(t *testing.T, name string) models.DomainDefinition {
	t.Helper()
	domain := models.DomainDefinition{ID: uuid.New(), Name: name}
	require.NoError(t, testDB.Create(&domain).Error)
	return domain
}

func createEntity(t *testing.T, domainID uuid.UUID, name string) models.EntityDefinition {
	t.Helper()
	entity := models.EntityDefinition{ID: uuid.New(), DomainID: domainID, Name: name}
	require.NoError(t, testDB.Create(&entity).Error)
	return entity
}

func claimsProfile(matchCount int) []models.SourceProfile {
	return []models.SourceProfile{
		{
			Name:     "claims",
			RowCount: 100,
			ForeignKeys: []models.ForeignKeyMatch{
				{
					Column:           "member_id",
					ReferencedSource: "members",
					ReferencedColumn: "id",
					MatchCount:       matchCount,
					Description:      "claims.member_id references members.id",
				},
			},
		},
	}
}

func TestNewForeignKeyEvidence_Coverage(t *testing.T) {
	evidence := NewForeignKeyEvidence("claims", 100, models.ForeignKeyMatch{
		Column: "member_id", ReferencedSource: "members", MatchCount: 95,
	})
	assert.Equal(t, 0.95, evidence.Coverage)
	assert.Equal(t, "id", evidence.TargetColumn, "empty referenced column defaults to id")

	// Coverage is capped at 1 even when match counts exceed the row count.
	evidence = NewForeignKeyEvidence("claims", 100, models.ForeignKeyMatch{MatchCount: 150})
	assert.Equal(t, 1.0, evidence.Coverage)

	// Zero or negative row counts produce zero coverage, not a division error.
	evidence = NewForeignKeyEvidence("claims", 0, models.ForeignKeyMatch{MatchCount: 5})
	assert.Equal(t, 0.0, evidence.Coverage)
	evidence = NewForeignKeyEvidence("claims", -3, models.ForeignKeyMatch{MatchCount: 5})
	assert.Equal(t, 0.0, evidence.Coverage)
}

func TestInferRelationships_CreatesPendingRow(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	claims := createEntity(t, domain.ID, "claims")
	members := createEntity(t, domain.ID, "members")

	service := NewRelationshipInferenceService(testDB)
	inferred, err := service.InferRelationships(domain.ID, claimsProfile(95))
	require.NoError(t, err)
	require.Len(t, inferred, 1)

	relationship := inferred[0]
	assert.Equal(t, claims.ID, relationship.FromEntityID)
	assert.Equal(t, members.ID, relationship.ToEntityID)
	assert.Equal(t, DefaultRelationshipType, relationship.RelationshipType)
	assert.Equal(t, models.InferenceStatusPending, relationship.InferenceStatus)
	assert.Equal(t, "claims.member_id references members.id", relationship.Description)

	require.NotNil(t, relationship.EvidenceJSON)
	var evidence ForeignKeyEvidence
	require.NoError(t, json.Unmarshal([]byte(*relationship.EvidenceJSON), &evidence))
	assert.Equal(t, 0.95, evidence.Coverage)
	assert.Equal(t, "member_id", evidence.Column)
}

func TestInferRelationships_Idempotent(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	createEntity(t, domain.ID, "claims")
	createEntity(t, domain.ID, "members")

	service := NewRelationshipInferenceService(testDB)
	_, err := service.InferRelationships(domain.ID, claimsProfile(95))
	require.NoError(t, err)
	_, err = service.InferRelationships(domain.ID, claimsProfile(90))
	require.NoError(t, err)

	var count int64
	require.NoError(t, testDB.Model(&models.RelationshipDefinition{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "repeated runs must update the same row")

	var relationship models.RelationshipDefinition
	require.NoError(t, testDB.First(&relationship).Error)
	var evidence ForeignKeyEvidence
	require.NoError(t, json.Unmarshal([]byte(*relationship.EvidenceJSON), &evidence))
	assert.Equal(t, 0.9, evidence.Coverage, "evidence reflects the latest run")
}

func TestInferRelationships_ManualRowUntouched(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	claims := createEntity(t, domain.ID, "claims")
	members := createEntity(t, domain.ID, "members")

	manual := models.RelationshipDefinition{
		ID:               uuid.New(),
		DomainID:         domain.ID,
		FromEntityID:     claims.ID,
		ToEntityID:       members.ID,
		RelationshipType: DefaultRelationshipType,
		Description:      "curated by hand",
		InferenceStatus:  models.InferenceStatusManual,
	}
	require.NoError(t, testDB.Create(&manual).Error)

	service := NewRelationshipInferenceService(testDB)
	inferred, err := service.InferRelationships(domain.ID, claimsProfile(95))
	require.NoError(t, err)
	assert.Empty(t, inferred)

	var reloaded models.RelationshipDefinition
	require.NoError(t, testDB.First(&reloaded, "id = ?", manual.ID).Error)
	assert.Equal(t, models.InferenceStatusManual, reloaded.InferenceStatus)
	assert.Equal(t, "curated by hand", reloaded.Description)
	assert.Nil(t, reloaded.EvidenceJSON)
}

func TestInferRelationships_RejectedRowRevived(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	claims := createEntity(t, domain.ID, "claims")
	members := createEntity(t, domain.ID, "members")

	evidenceText := `{}`
	rejected := models.RelationshipDefinition{
		ID:               uuid.New(),
		DomainID:         domain.ID,
		FromEntityID:     claims.ID,
		ToEntityID:       members.ID,
		RelationshipType: DefaultRelationshipType,
		InferenceStatus:  models.InferenceStatusRejected,
		EvidenceJSON:     &evidenceText,
	}
	require.NoError(t, testDB.Create(&rejected).Error)

	service := NewRelationshipInferenceService(testDB)
	inferred, err := service.InferRelationships(domain.ID, claimsProfile(95))
	require.NoError(t, err)
	require.Len(t, inferred, 1)
	assert.Equal(t, models.InferenceStatusPending, inferred[0].InferenceStatus)
}

func TestInferRelationships_ApprovedKeepsStatusButRefreshesEvidence(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	claims := createEntity(t, domain.ID, "claims")
	members := createEntity(t, domain.ID, "members")

	staleEvidence := `{"coverage": 0.5}`
	approved := models.RelationshipDefinition{
		ID:               uuid.New(),
		DomainID:         domain.ID,
		FromEntityID:     claims.ID,
		ToEntityID:       members.ID,
		RelationshipType: DefaultRelationshipType,
		InferenceStatus:  models.InferenceStatusApproved,
		EvidenceJSON:     &staleEvidence,
	}
	require.NoError(t, testDB.Create(&approved).Error)

	service := NewRelationshipInferenceService(testDB)
	inferred, err := service.InferRelationships(domain.ID, claimsProfile(95))
	require.NoError(t, err)
	require.Len(t, inferred, 1)
	assert.Equal(t, models.InferenceStatusApproved, inferred[0].InferenceStatus)

	var evidence ForeignKeyEvidence
	require.NoError(t, json.Unmarshal([]byte(*inferred[0].EvidenceJSON), &evidence))
	assert.Equal(t, 0.95, evidence.Coverage)
}

func TestInferRelationships_DistinctTypesCreateDistinctRows(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	createEntity(t, domain.ID, "claims")
	createEntity(t, domain.ID, "members")

	sources := claimsProfile(95)
	sources[0].ForeignKeys[0].RelationshipType = "one_to_many"
	service := NewRelationshipInferenceService(testDB)
	_, err := service.InferRelationships(domain.ID, sources)
	require.NoError(t, err)

	sources[0].ForeignKeys[0].RelationshipType = "one_to_one"
	_, err = service.InferRelationships(domain.ID, sources)
	require.NoError(t, err)

	var count int64
	require.NoError(t, testDB.Model(&models.RelationshipDefinition{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestInferRelationships_UnknownSourceOrTargetSkipped(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	createEntity(t, domain.ID, "claims")
	// No members entity: the referenced target has nowhere to land.

	service := NewRelationshipInferenceService(testDB)
	inferred, err := service.InferRelationships(domain.ID, claimsProfile(95))
	require.NoError(t, err)
	assert.Empty(t, inferred)

	// Sources that match no entity are skipped entirely.
	inferred, err = service.InferRelationships(domain.ID, []models.SourceProfile{
		{Name: "warehouse", RowCount: 10, ForeignKeys: []models.ForeignKeyMatch{{Column: "x", ReferencedSource: "claims", MatchCount: 1}}},
	})
	require.NoError(t, err)
	assert.Empty(t, inferred)
}

func TestInferRelationships_UnknownDomain(t *testing.T) {
	clearTables(t)
	service := NewRelationshipInferenceService(testDB)
	_, err := service.InferRelationships(uuid.New(), claimsProfile(95))
	assert.ErrorIs(t, err, ErrDomainNotFound)
}

func TestRefreshDomains_FromStoredProfiles(t *testing.T) {
	clearTables(t)
	domain := createDomain(t, "payor")
	createEntity(t, domain.ID, "claims")
	createEntity(t, domain.ID, "members")

	profile, err := json.Marshal(claimsProfile(80)[0])
	require.NoError(t, err)
	table := models.SourceTableDefinition{
		ID:          uuid.New(),
		DomainID:    domain.ID,
		Name:        "claims",
		ProfileJSON: string(profile),
	}
	require.NoError(t, testDB.Create(&table).Error)

	// A second table without a profile is skipped.
	bare := models.SourceTableDefinition{ID: uuid.New(), DomainID: domain.ID, Name: "members"}
	require.NoError(t, testDB.Create(&bare).Error)

	service := NewRelationshipInferenceService(testDB)
	touched, err := service.RefreshDomains()
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	var relationship models.RelationshipDefinition
	require.NoError(t, testDB.First(&relationship).Error)
	assert.Equal(t, models.InferenceStatusPending, relationship.InferenceStatus)
}

func TestRefreshDomains_NoProfiles(t *testing.T) {
	clearTables(t)
	createDomain(t, "payor")

	service := NewRelationshipInferenceService(testDB)
	touched, err := service.RefreshDomains()
	require.NoError(t, err)
	assert.Zero(t, touched)
}
