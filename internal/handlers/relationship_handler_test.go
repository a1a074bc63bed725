package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modeler-service/internal/models"
)

func inferencePayload(domainID uuid.UUID, matchCount int) models.InferRelationshipsRequest {
	return models.InferRelationshipsRequest{
		DomainID: domainID.String(),
		Sources: []models.SourceProfile{
			{
				Name:     "claims",
				RowCount: 100,
				ForeignKeys: []models.ForeignKeyMatch{
					{
						Column:           "member_id",
						ReferencedSource: "members",
						MatchCount:       matchCount,
					},
				},
			},
			{Name: "members", RowCount: 40},
		},
	}
}

func mustCreateManualRelationship(t *testing.T, domainID, fromID, toID uuid.UUID) models.RelationshipDefinition {
	t.Helper()
	w := performRequest("POST", "/api/v1/relationships", models.CreateRelationshipRequest{
		DomainID:         domainID.String(),
		FromEntityID:     fromID.String(),
		ToEntityID:       toID.String(),
		RelationshipType: "one_to_many",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var relationship models.RelationshipDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &relationship))
	return relationship
}

func TestCreateRelationship(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	claims := mustCreateEntity(t, domain.ID, "claims")
	members := mustCreateEntity(t, domain.ID, "members")

	relationship := mustCreateManualRelationship(t, domain.ID, claims.ID, members.ID)
	assert.Equal(t, models.InferenceStatusManual, relationship.InferenceStatus)
	assert.Equal(t, "one_to_many", relationship.RelationshipType)
	assert.Nil(t, relationship.EvidenceJSON)
}

func TestCreateRelationship_EntityOutsideDomain(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	other := mustCreateDomain(t, "provider_network")
	claims := mustCreateEntity(t, domain.ID, "claims")
	stranger := mustCreateEntity(t, other.ID, "facilities")

	w := performRequest("POST", "/api/v1/relationships", models.CreateRelationshipRequest{
		DomainID:         domain.ID.String(),
		FromEntityID:     claims.ID.String(),
		ToEntityID:       stranger.ID.String(),
		RelationshipType: "one_to_many",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, models.ErrorCodeEntityNotFound, apiErr.Code)
}

func TestListRelationships_StatusFilter(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	claims := mustCreateEntity(t, domain.ID, "claims")
	members := mustCreateEntity(t, domain.ID, "members")
	mustCreateManualRelationship(t, domain.ID, claims.ID, members.ID)

	w := performRequest("POST", "/api/v1/relationships/infer", inferencePayload(domain.ID, 95))
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest("GET", "/api/v1/domains/"+domain.ID.String()+"/relationships", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var relationships []models.RelationshipDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &relationships))
	assert.Len(t, relationships, 2)

	w = performRequest("GET", "/api/v1/domains/"+domain.ID.String()+"/relationships?status=pending", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	relationships = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &relationships))
	require.Len(t, relationships, 1)
	assert.Equal(t, models.InferenceStatusPending, relationships[0].InferenceStatus)
}

func TestListRelationships_InvalidStatus(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")

	w := performRequest("GET", "/api/v1/domains/"+domain.ID.String()+"/relationships?status=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, models.ErrorCodeInvalidEnumValue, apiErr.Code)
}

func TestInferRelationships(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	mustCreateEntity(t, domain.ID, "claims")
	mustCreateEntity(t, domain.ID, "members")

	w := performRequest("POST", "/api/v1/relationships/infer", inferencePayload(domain.ID, 95))
	assert.Equal(t, http.StatusOK, w.Code)

	var touched []models.RelationshipDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &touched))
	require.Len(t, touched, 1)
	assert.Equal(t, models.InferenceStatusPending, touched[0].InferenceStatus)
	require.NotNil(t, touched[0].EvidenceJSON)

	var evidence map[string]any
	require.NoError(t, json.Unmarshal([]byte(*touched[0].EvidenceJSON), &evidence))
	assert.InDelta(t, 0.95, evidence["coverage"], 1e-9)
}

func TestInferRelationships_DomainNotFound(t *testing.T) {
	clearTables()
	w := performRequest("POST", "/api/v1/relationships/infer", inferencePayload(uuid.New(), 95))
	assert.Equal(t, http.StatusNotFound, w.Code)
	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, models.ErrorCodeDomainNotFound, apiErr.Code)
}

func TestApproveRelationship(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	mustCreateEntity(t, domain.ID, "claims")
	mustCreateEntity(t, domain.ID, "members")

	w := performRequest("POST", "/api/v1/relationships/infer", inferencePayload(domain.ID, 95))
	require.Equal(t, http.StatusOK, w.Code)
	var touched []models.RelationshipDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &touched))
	require.Len(t, touched, 1)

	w = performRequest("POST", "/api/v1/relationships/"+touched[0].ID.String()+"/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var approved models.RelationshipDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &approved))
	assert.Equal(t, models.InferenceStatusApproved, approved.InferenceStatus)
}

func TestRejectRelationship(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	mustCreateEntity(t, domain.ID, "claims")
	mustCreateEntity(t, domain.ID, "members")

	w := performRequest("POST", "/api/v1/relationships/infer", inferencePayload(domain.ID, 95))
	require.Equal(t, http.StatusOK, w.Code)
	var touched []models.RelationshipDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &touched))
	require.Len(t, touched, 1)

	w = performRequest("POST", "/api/v1/relationships/"+touched[0].ID.String()+"/reject", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var rejected models.RelationshipDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rejected))
	assert.Equal(t, models.InferenceStatusRejected, rejected.InferenceStatus)
}

func TestReviewRelationship_ManualProtected(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	claims := mustCreateEntity(t, domain.ID, "claims")
	members := mustCreateEntity(t, domain.ID, "members")
	relationship := mustCreateManualRelationship(t, domain.ID, claims.ID, members.ID)

	for _, action := range []string{"approve", "reject"} {
		w := performRequest("POST", "/api/v1/relationships/"+relationship.ID.String()+"/"+action, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, models.ErrorCodeManualProtected, apiErr.Code)
	}
}

func TestReviewRelationship_NotFound(t *testing.T) {
	clearTables()
	w := performRequest("POST", "/api/v1/relationships/"+uuid.New().String()+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, models.ErrorCodeRelationshipNotFound, apiErr.Code)
}

func TestDeleteRelationship(t *testing.T) {
	clearTables()
	domain := mustCreateDomain(t, "payor")
	claims := mustCreateEntity(t, domain.ID, "claims")
	members := mustCreateEntity(t, domain.ID, "members")
	relationship := mustCreateManualRelationship(t, domain.ID, claims.ID, members.ID)

	w := performRequest("DELETE", "/api/v1/relationships/"+relationship.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	testDB.Model(&models.RelationshipDefinition{}).Where("id = ?", relationship.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}
