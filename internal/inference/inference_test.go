package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestEvidenceForFK_CoverageFromNullPct(t *testing.T) {
	evidence := EvidenceForFK(map[string]any{"null_pct": 0.05}, nil)
	require.NotNil(t, evidence.Coverage)
	assert.InDelta(t, 0.95, *evidence.Coverage, 1e-9)
	assert.Nil(t, evidence.ChildPerParentMean)
}

func TestEvidenceForFK_PercentScaleNormalised(t *testing.T) {
	// A null_pct of 5 means five percent, not five hundred percent.
	evidence := EvidenceForFK(map[string]any{"null_pct": 5}, nil)
	require.NotNil(t, evidence.Coverage)
	assert.InDelta(t, 0.95, *evidence.Coverage, 1e-9)

	// Values beyond any plausible percentage clamp to full nullity.
	evidence = EvidenceForFK(map[string]any{"null_pct": 250}, nil)
	require.NotNil(t, evidence.Coverage)
	assert.InDelta(t, 0.0, *evidence.Coverage, 1e-9)
}

func TestEvidenceForFK_ChildPerParentMean(t *testing.T) {
	child := map[string]any{"row_count": 300}
	parent := map[string]any{"distinct_count": 100}
	evidence := EvidenceForFK(child, parent)
	require.NotNil(t, evidence.ChildPerParentMean)
	assert.InDelta(t, 3.0, *evidence.ChildPerParentMean, 1e-9)
}

func TestEvidenceForFK_ZeroParentDistinct(t *testing.T) {
	child := map[string]any{"row_count": 300}
	parent := map[string]any{"distinct_count": 0}
	evidence := EvidenceForFK(child, parent)
	assert.Nil(t, evidence.ChildPerParentMean)
}

func TestEvidenceForFK_MissingStats(t *testing.T) {
	evidence := EvidenceForFK(nil, nil)
	assert.Nil(t, evidence.Coverage)
	assert.Nil(t, evidence.ChildPerParentMean)
}

func TestEvidenceForFK_StringStatsCoerced(t *testing.T) {
	child := map[string]any{"null_pct": "0.1", "row_count": "200"}
	parent := map[string]any{"distinct_count": "100"}
	evidence := EvidenceForFK(child, parent)
	require.NotNil(t, evidence.Coverage)
	assert.InDelta(t, 0.9, *evidence.Coverage, 1e-9)
	require.NotNil(t, evidence.ChildPerParentMean)
	assert.InDelta(t, 2.0, *evidence.ChildPerParentMean, 1e-9)
}

func TestClassifyCardinality(t *testing.T) {
	assert.Equal(t, OneToMany, ClassifyCardinality(nil))
	assert.Equal(t, OneToMany, ClassifyCardinality(floatPtr(1.5)))
	assert.Equal(t, OneToOne, ClassifyCardinality(floatPtr(1.0)))
	assert.Equal(t, OneToOne, ClassifyCardinality(floatPtr(0.8)))
	assert.Equal(t, OneToOne, ClassifyCardinality(floatPtr(1.2)))
	assert.Equal(t, "", ClassifyCardinality(floatPtr(0.5)))
}

func TestGuessKeyName_Ranking(t *testing.T) {
	assert.Equal(t, "member_id", GuessKeyName([]string{"name", "member_id", "dob"}))
	assert.Equal(t, "id", GuessKeyName([]string{"name", "id"}))
	// "_id" suffix outranks a bare "id".
	assert.Equal(t, "claim_id", GuessKeyName([]string{"id", "claim_id"}))
	// Any other "id" suffix beats non-key names.
	assert.Equal(t, "recordid", GuessKeyName([]string{"amount", "recordid"}))
	// No key-like name: the shortest name wins.
	assert.Equal(t, "dob", GuessKeyName([]string{"amount", "dob", "gender"}))
}

func TestGuessKeyName_Ties(t *testing.T) {
	// Equal rank and equal length keep list order.
	assert.Equal(t, "a_id", GuessKeyName([]string{"a_id", "b_id"}))
	// Equal rank, shorter name wins.
	assert.Equal(t, "a_id", GuessKeyName([]string{"abcd_id", "a_id"}))
}

func TestGuessKeyName_Empty(t *testing.T) {
	assert.Equal(t, "", GuessKeyName(nil))
	assert.Equal(t, "", GuessKeyName([]string{"", ""}))
}

func TestNormaliseIdentifier(t *testing.T) {
	assert.Equal(t, "claim_lines", NormaliseIdentifier("ClaimLines"))
	assert.Equal(t, "claim_lines", NormaliseIdentifier("claim-lines"))
	assert.Equal(t, "claim_lines", NormaliseIdentifier("claim lines"))
	assert.Equal(t, "claims", NormaliseIdentifier("  claims  "))
	assert.Equal(t, "", NormaliseIdentifier(""))
}

func TestEnrichProposals_DefaultsToOneToMany(t *testing.T) {
	proposals := []Proposal{{From: "claims", To: "members"}}
	enriched := EnrichProposals(proposals, nil, nil)
	require.Len(t, enriched, 1)
	// No attributes means no evidence; the default type survives through the
	// nil-mean classification.
	assert.Equal(t, OneToMany, enriched[0].Type)
	assert.Nil(t, enriched[0].Evidence.Coverage)
}

func TestEnrichProposals_CardinalityOverridesProposedType(t *testing.T) {
	proposals := []Proposal{{From: "members", To: "profiles", Type: "inferred_foreign_key"}}
	entityAttributes := map[string][]string{
		"members":  {"member_id", "name"},
		"profiles": {"profile_id", "bio"},
	}
	tables := map[string]SourceStats{
		"members": {
			RowCount: floatPtr(100),
			Columns: map[string]map[string]any{
				"member_id": {"null_pct": 0.0},
			},
		},
		"profiles": {
			Columns: map[string]map[string]any{
				"profile_id": {"distinct_count": 100},
			},
		},
	}

	enriched := EnrichProposals(proposals, entityAttributes, tables)
	require.Len(t, enriched, 1)
	assert.Equal(t, OneToOne, enriched[0].Type)
	require.NotNil(t, enriched[0].Evidence.ChildPerParentMean)
	assert.InDelta(t, 1.0, *enriched[0].Evidence.ChildPerParentMean, 1e-9)
	require.NotNil(t, enriched[0].Evidence.Coverage)
	assert.InDelta(t, 1.0, *enriched[0].Evidence.Coverage, 1e-9)
}

func TestEnrichProposals_InconclusiveMeanKeepsProposedType(t *testing.T) {
	proposals := []Proposal{{From: "claims", To: "members", Type: "inferred_foreign_key"}}
	entityAttributes := map[string][]string{
		"claims":  {"claim_id"},
		"members": {"member_id"},
	}
	tables := map[string]SourceStats{
		"claims": {
			RowCount: floatPtr(50),
			Columns:  map[string]map[string]any{"claim_id": {}},
		},
		"members": {
			Columns: map[string]map[string]any{"member_id": {"distinct_count": 100}},
		},
	}

	enriched := EnrichProposals(proposals, entityAttributes, tables)
	require.Len(t, enriched, 1)
	// Mean of 0.5 falls below every cardinality band, so the proposed type
	// stands.
	assert.Equal(t, "inferred_foreign_key", enriched[0].Type)
}

func TestEnrichProposals_RowCountInjectedFromTable(t *testing.T) {
	proposals := []Proposal{{From: "ClaimLines", To: "claims"}}
	entityAttributes := map[string][]string{
		"claimlines": {"line_id"},
		"claims":     {"claim_id"},
	}
	tables := map[string]SourceStats{
		"claim_lines": {
			RowCount: floatPtr(500),
			Columns:  map[string]map[string]any{"line_id": {}},
		},
		"claims": {
			Columns: map[string]map[string]any{"claim_id": {"distinct_count": 100}},
		},
	}

	enriched := EnrichProposals(proposals, entityAttributes, tables)
	require.Len(t, enriched, 1)
	require.NotNil(t, enriched[0].Evidence.ChildPerParentMean)
	assert.InDelta(t, 5.0, *enriched[0].Evidence.ChildPerParentMean, 1e-9)
	assert.Equal(t, OneToMany, enriched[0].Type)
}
