package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberSources() []Source {
	return []Source{
		{
			ID:   "src-members",
			Name: "members",
			Schema: map[string]string{
				"member_id":  "varchar",
				"dob":        "date",
				"gender_cd":  "varchar",
				"first_name": "varchar",
			},
			Stats: map[string]map[string]any{
				"member_id": {"null_pct": 0.0, "distinct_count": 100, "total": 100},
				"dob":       {"null_pct": 0.02},
			},
		},
		{
			ID:   "src-claims",
			Name: "claims",
			Schema: map[string]string{
				"claim_id":  "varchar",
				"member_id": "varchar",
				"amount":    "decimal",
			},
		},
	}
}

func TestAutoplan_TopCandidateMatchesColumn(t *testing.T) {
	attrs := []Attribute{
		{ID: "a1", Name: "member_id", Datatype: "string", SemanticType: "identifier"},
	}

	plans := Autoplan("beneficiary", attrs, memberSources())
	require.Len(t, plans, 1)
	require.NotEmpty(t, plans[0].Candidates)

	// Both tables expose member_id; profiling evidence puts the members
	// table first.
	top := plans[0].Candidates[0]
	assert.Equal(t, "member_id", top.ColumnName)
	assert.Equal(t, "members.member_id", top.ColumnPath)
	assert.Equal(t, "src-members", top.SourceTableID)
	assert.Greater(t, top.Confidence, 0.0)
	assert.LessOrEqual(t, top.Confidence, 1.0)
}

func TestAutoplan_AtMostThreeCandidates(t *testing.T) {
	attrs := []Attribute{
		{ID: "a1", Name: "member_id", Datatype: "string"},
	}

	plans := Autoplan("beneficiary", attrs, memberSources())
	require.Len(t, plans, 1)
	assert.LessOrEqual(t, len(plans[0].Candidates), 3)
}

func TestAutoplan_CandidatesSortedByConfidence(t *testing.T) {
	attrs := []Attribute{
		{ID: "a1", Name: "member_id", Datatype: "string", SemanticType: "identifier"},
	}

	plans := Autoplan("beneficiary", attrs, memberSources())
	require.Len(t, plans, 1)
	candidates := plans[0].Candidates
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}
}

func TestAutoplan_ZeroConfidenceDropped(t *testing.T) {
	attrs := []Attribute{
		{ID: "a1", Name: "zzz", Datatype: "blob"},
	}
	sources := []Source{
		{ID: "s1", Name: "t", Schema: map[string]string{"qqq": "geometry"}},
	}

	plans := Autoplan("thing", attrs, sources)
	require.Len(t, plans, 1)
	assert.Empty(t, plans[0].Candidates)
}

func TestAutoplan_Deterministic(t *testing.T) {
	attrs := []Attribute{
		{ID: "a1", Name: "beneficiary_id", Datatype: "string", SemanticType: "identifier"},
		{ID: "a2", Name: "date_of_birth", Datatype: "date", SemanticType: "dob"},
	}

	first := Autoplan("beneficiary", attrs, memberSources())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Autoplan("beneficiary", attrs, memberSources()))
	}
}

func TestAutoplan_OuterOrderFollowsAttributes(t *testing.T) {
	attrs := []Attribute{
		{ID: "a2", Name: "date_of_birth", Datatype: "date"},
		{ID: "a1", Name: "beneficiary_id", Datatype: "string"},
	}

	plans := Autoplan("beneficiary", attrs, memberSources())
	require.Len(t, plans, 2)
	assert.Equal(t, "a2", plans[0].AttributeID)
	assert.Equal(t, "a1", plans[1].AttributeID)
}

func TestAutoplan_ExplicitScanOrderBreaksTies(t *testing.T) {
	attrs := []Attribute{{ID: "a1", Name: "code", Datatype: "string"}}
	source := Source{
		ID:   "s1",
		Name: "ref",
		// Both columns score identically against "code"; the declared scan
		// order decides which comes first.
		Schema:  map[string]string{"code_b": "varchar", "code_a": "varchar"},
		Columns: []string{"code_b", "code_a"},
	}

	plans := Autoplan("reference", attrs, []Source{source})
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Candidates, 2)
	assert.Equal(t, "code_b", plans[0].Candidates[0].ColumnName)
	assert.Equal(t, "code_a", plans[0].Candidates[1].ColumnName)
}

func TestAutoplan_NoSources(t *testing.T) {
	attrs := []Attribute{{ID: "a1", Name: "member_id", Datatype: "string"}}
	plans := Autoplan("beneficiary", attrs, nil)
	require.Len(t, plans, 1)
	assert.Empty(t, plans[0].Candidates)
}

func TestAutoplan_NoAttributes(t *testing.T) {
	assert.Empty(t, Autoplan("beneficiary", nil, memberSources()))
}

func TestBuildRationale_FallbackMessage(t *testing.T) {
	rationale := buildRationale("misc_col", ComponentScores{Name: 0.1, Dtype: 0.0, Semantic: 0.0, Evidence: 0.0})
	assert.Contains(t, rationale, "misc_col")
	assert.Contains(t, rationale, "limited supporting evidence")
}

func TestBuildRationale_Bands(t *testing.T) {
	rationale := buildRationale("member_id", ComponentScores{Name: 0.9, Dtype: 1.0, Semantic: 0.5, Evidence: 0.3})
	assert.Contains(t, rationale, "strong name match")
	assert.Contains(t, rationale, "compatible data type")
	assert.Contains(t, rationale, "possible semantic hint")
	assert.Contains(t, rationale, "some statistical support")
}
