// Package planner proposes attribute-to-column mappings. For every logical
// attribute it scans every column of every supplied source table, scores each
// pairing through the similarity primitives and returns the strongest
// candidates with a human-readable rationale. Autoplan is a pure read
// operation: persisting the winning candidate is the caller's concern.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"modeler-service/internal/similarity"
)

// Attribute is the logical attribute record supplied per planning request.
type Attribute struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Datatype     string `json:"datatype"`
	SemanticType string `json:"semantic_type"`
	Required     bool   `json:"required"`
}

// Source describes one physical source table. Columns carries the scan order;
// when empty the schema keys are scanned in sorted order so that results stay
// deterministic.
type Source struct {
	ID      string                    `json:"id"`
	Name    string                    `json:"name"`
	Schema  map[string]string         `json:"schema"`
	Stats   map[string]map[string]any `json:"stats"`
	Columns []string                  `json:"columns,omitempty"`
}

// ComponentScores breaks a candidate's confidence down by signal.
type ComponentScores struct {
	Name     float64 `json:"name"`
	Dtype    float64 `json:"dtype"`
	Semantic float64 `json:"semantic"`
	Evidence float64 `json:"evidence"`
}

// Candidate is one proposed column mapping for an attribute.
type Candidate struct {
	SourceTableID string          `json:"source_table_id"`
	ColumnName    string          `json:"column_name"`
	ColumnPath    string          `json:"column_path"`
	Confidence    float64         `json:"confidence"`
	Rationale     string          `json:"rationale"`
	Scores        ComponentScores `json:"scores"`
}

// AttributePlan groups the surviving candidates of one attribute.
type AttributePlan struct {
	AttributeID string      `json:"attribute_id"`
	Attribute   string      `json:"attribute"`
	Candidates  []Candidate `json:"candidates"`
}

// maxCandidates bounds how many candidates are kept per attribute.
const maxCandidates = 3

func buildRationale(columnName string, scores ComponentScores) string {
	var reasons []string

	if scores.Name >= 0.85 {
		reasons = append(reasons, "strong name match")
	} else if scores.Name >= 0.6 {
		reasons = append(reasons, "partial name similarity")
	}

	if scores.Dtype >= 0.85 {
		reasons = append(reasons, "compatible data type")
	} else if scores.Dtype >= 0.25 {
		reasons = append(reasons, "loosely compatible type")
	}

	if scores.Semantic >= 0.75 {
		reasons = append(reasons, "semantic keyword alignment")
	} else if scores.Semantic >= 0.5 {
		reasons = append(reasons, "possible semantic hint")
	}

	if scores.Evidence >= 0.5 {
		reasons = append(reasons, "good profiling coverage")
	} else if scores.Evidence >= 0.25 {
		reasons = append(reasons, "some statistical support")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("column %s has limited supporting evidence", columnName))
	}

	return strings.Join(reasons, ", ")
}

func scanOrder(source Source) []string {
	if len(source.Columns) > 0 {
		return source.Columns
	}
	columns := make([]string, 0, len(source.Schema))
	for name := range source.Schema {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

// Autoplan scans every column of every source for each attribute and returns
// at most three candidates per attribute, sorted by descending confidence with
// ties broken by scan order (source list order, then column order).
// Zero-confidence candidates are dropped entirely. The outer result follows
// the input attribute order. Malformed attribute or source records degrade to
// empty contributions; the function never fails.
func Autoplan(entityName string, attributes []Attribute, sources []Source) []AttributePlan {
	results := make([]AttributePlan, 0, len(attributes))

	for _, attribute := range attributes {
		var candidates []Candidate

		for _, source := range sources {
			for _, columnName := range scanOrder(source) {
				columnDtype := source.Schema[columnName]
				var columnStats map[string]any
				if source.Stats != nil {
					columnStats = source.Stats[columnName]
				}

				semanticSource := attribute.SemanticType
				if semanticSource == "" {
					semanticSource = attribute.Name
				}

				scores := ComponentScores{
					Name:     similarity.NameSimilarity(attribute.Name, columnName),
					Dtype:    similarity.DtypeCompatScore(attribute.Datatype, columnDtype),
					Semantic: similarity.SemanticHintScore(semanticSource, columnName),
					Evidence: similarity.ColumnEvidenceScore(columnName, columnStats),
				}

				combined := similarity.CandidateConfidence(
					attribute.Name, attribute.Datatype, attribute.SemanticType,
					columnName, columnDtype, columnStats,
				)
				if combined <= 0.0 {
					continue
				}

				columnPath := columnName
				if source.Name != "" {
					columnPath = source.Name + "." + columnName
				}

				candidates = append(candidates, Candidate{
					SourceTableID: source.ID,
					ColumnName:    columnName,
					ColumnPath:    columnPath,
					Confidence:    combined,
					Rationale:     buildRationale(columnName, scores),
					Scores:        scores,
				})
			}
		}

		// Stable sort keeps scan order for equal confidences.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Confidence > candidates[j].Confidence
		})
		if len(candidates) > maxCandidates {
			candidates = candidates[:maxCandidates]
		}

		results = append(results, AttributePlan{
			AttributeID: attribute.ID,
			Attribute:   attribute.Name,
			Candidates:  candidates,
		})
	}

	return results
}
