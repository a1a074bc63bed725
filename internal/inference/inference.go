// Package inference computes statistical evidence for proposed foreign-key
// relationships and classifies their cardinality. All functions are pure:
// matching the evidence onto stored relationship rows is the job of the
// services layer.
package inference

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Relationship type labels emitted by the cardinality classifier.
const (
	OneToMany = "one_to_many"
	OneToOne  = "one_to_one"
)

// Evidence carries the coverage and cardinality signals for a proposed foreign
// key. A nil field means the statistics were absent or unparseable, never that
// the value was zero.
type Evidence struct {
	Coverage           *float64 `json:"coverage"`
	ChildPerParentMean *float64 `json:"child_per_parent_mean"`
}

// Proposal is an externally proposed relationship edge between two entities.
type Proposal struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
	Rule string `json:"rule,omitempty"`
}

// EnrichedProposal is a proposal with deterministic evidence attached. Type
// may differ from the proposed one: a non-empty cardinality classification
// always overrides the declared intent.
type EnrichedProposal struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Type     string   `json:"type"`
	Rule     string   `json:"rule,omitempty"`
	Evidence Evidence `json:"evidence"`
}

// SourceStats is the per-table profiling payload the engine consumes. Columns
// is keyed by lowercased column name.
type SourceStats struct {
	RowCount *float64
	Columns  map[string]map[string]any
}

func coerceFloat(value any) *float64 {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func statValue(stats map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		if raw, present := stats[key]; present && raw != nil {
			if parsed := coerceFloat(raw); parsed != nil {
				return parsed
			}
		}
	}
	return nil
}

// EvidenceForFK computes coverage and cardinality evidence for a foreign key
// from the child column's and parent column's profiling stats. Coverage is one
// minus the child null ratio, with percentages on a 0-100 scale normalised
// down, clamped to [0, 1]. The child-per-parent mean is the child row count
// divided by the parent distinct count when that quotient is finite and
// positive-denominated.
func EvidenceForFK(childStats, parentStats map[string]any) Evidence {
	var evidence Evidence

	if len(childStats) > 0 {
		if nullPct := statValue(childStats, "null_pct", "null_percent", "null_ratio"); nullPct != nil {
			pct := *nullPct
			if pct > 1 {
				if pct <= 100 {
					pct = pct / 100
				} else {
					pct = 1.0
				}
			}
			if pct < 0 {
				pct = 0
			}
			coverage := 1.0 - pct
			evidence.Coverage = &coverage
		}
	}

	childRows := statValue(childStats, "row_count", "count", "non_null_count")
	parentDistinct := statValue(parentStats, "distinct_count", "distinct", "unique_count")

	if childRows != nil && parentDistinct != nil && *parentDistinct > 0 {
		mean := *childRows / *parentDistinct
		if math.IsInf(mean, 0) || math.IsNaN(mean) {
			evidence.ChildPerParentMean = nil
		} else {
			evidence.ChildPerParentMean = &mean
		}
	}

	return evidence
}

// ClassifyCardinality maps the observed child-per-parent mean onto a
// relationship type. A nil mean defaults to one_to_many. The empty string
// signals insufficient evidence to override the externally proposed type.
func ClassifyCardinality(childMean *float64) string {
	if childMean == nil {
		return OneToMany
	}
	if *childMean > 1.2 {
		return OneToMany
	}
	if *childMean >= 0.8 && *childMean <= 1.2 {
		return OneToOne
	}
	return ""
}

// GuessKeyName picks the attribute most likely to be the entity's key. Names
// ending in "_id" rank best, then an exact "id", then any other "id" suffix.
// Ties go to the shorter name, then to list order. Returns "" when no
// attributes exist.
func GuessKeyName(attributeNames []string) string {
	names := make([]string, 0, len(attributeNames))
	for _, name := range attributeNames {
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}

	rank := func(name string) int {
		lower := strings.ToLower(name)
		switch {
		case strings.HasSuffix(lower, "_id"):
			return 0
		case lower == "id":
			return 1
		case strings.HasSuffix(lower, "id"):
			return 2
		default:
			return 3
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return len(names[i]) < len(names[j])
	})
	return names[0]
}

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonAlnum      = regexp.MustCompile(`(?i)[^a-z0-9]+`)
)

// NormaliseIdentifier folds a table or entity name into a snake_case lookup
// key so that CamelCase and punctuation variants match.
func NormaliseIdentifier(value string) string {
	if value == "" {
		return ""
	}
	snake := camelBoundary.ReplaceAllString(value, "${1}_${2}")
	canonical := nonAlnum.ReplaceAllString(snake, "_")
	return strings.ToLower(strings.Trim(canonical, "_"))
}

// EnrichProposals attaches evidence to each proposal and lets the cardinality
// classification overwrite the proposed type when it is conclusive. Entity
// attribute lists are keyed by lowercased entity name; table stats by
// normalised identifier.
func EnrichProposals(
	proposals []Proposal,
	entityAttributes map[string][]string,
	tables map[string]SourceStats,
) []EnrichedProposal {
	results := make([]EnrichedProposal, 0, len(proposals))

	for _, proposal := range proposals {
		fromName := strings.TrimSpace(proposal.From)
		toName := strings.TrimSpace(proposal.To)
		proposedType := strings.TrimSpace(proposal.Type)
		if proposedType == "" {
			proposedType = OneToMany
		}

		childAttrs := entityAttributes[strings.ToLower(fromName)]
		parentAttrs := entityAttributes[strings.ToLower(toName)]
		childKey := GuessKeyName(childAttrs)
		parentKey := GuessKeyName(parentAttrs)

		var evidence Evidence
		if childKey != "" && parentKey != "" {
			childTable, haveChild := tables[NormaliseIdentifier(fromName)]
			parentTable, haveParent := tables[NormaliseIdentifier(toName)]

			var childStats, parentStats map[string]any
			if haveChild {
				childStats = cloneStats(childTable.Columns[strings.ToLower(childKey)])
				if childTable.RowCount != nil {
					if childStats == nil {
						childStats = map[string]any{}
					}
					if _, present := childStats["row_count"]; !present {
						childStats["row_count"] = *childTable.RowCount
					}
				}
			}
			if haveParent {
				parentStats = parentTable.Columns[strings.ToLower(parentKey)]
			}
			evidence = EvidenceForFK(childStats, parentStats)
		}

		adjustedType := proposedType
		if classification := ClassifyCardinality(evidence.ChildPerParentMean); classification != "" {
			adjustedType = classification
		}

		results = append(results, EnrichedProposal{
			From:     fromName,
			To:       toName,
			Type:     adjustedType,
			Rule:     proposal.Rule,
			Evidence: evidence,
		})
	}

	return results
}

func cloneStats(stats map[string]any) map[string]any {
	if stats == nil {
		return nil
	}
	clone := make(map[string]any, len(stats))
	for key, value := range stats {
		clone[key] = value
	}
	return clone
}
