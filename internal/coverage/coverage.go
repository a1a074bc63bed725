// Package coverage evaluates a drafted logical model against the reference
// ontology: attribute name collisions across entities, ontology concepts
// missing from the model, canonical rename suggestions and a single bounded
// MECE score summarising the findings.
package coverage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"modeler-service/internal/ontology"
	"modeler-service/internal/similarity"
)

// ErrInvalidModelPayload is returned when the analysed payload does not parse
// as a JSON object. Callers surface it as a validation failure.
var ErrInvalidModelPayload = errors.New("model payload must be a JSON object")

// DefaultCollisionThreshold is the name similarity above which two attributes
// from different entities count as a collision.
const DefaultCollisionThreshold = 0.9

// GapReasonOntology marks a coverage gap caused by an unmodeled ontology
// concept.
const GapReasonOntology = "ontology_gap"

// Model is the drafted logical model under analysis.
type Model struct {
	Entities []ModelEntity `json:"entities"`
}

// ModelEntity is one entity of the drafted model.
type ModelEntity struct {
	Name       string           `json:"name"`
	Attributes []ModelAttribute `json:"attributes"`
}

// ModelAttribute is one attribute of a drafted entity.
type ModelAttribute struct {
	Name string `json:"name"`
}

// CollisionEntities names the two entities whose attributes collide.
type CollisionEntities struct {
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`
}

// CollisionFinding records one near-duplicate attribute pair across two
// distinct entities. Findings are grouped by the exact unordered pair of
// (entity, attribute) tuples, not by transitive similarity clusters: three
// entities sharing a near-duplicate name yield multiple pairwise findings.
type CollisionFinding struct {
	Entities  CollisionEntities  `json:"entities"`
	Attribute string             `json:"attribute"`
	Scores    map[string]float64 `json:"scores"`
}

// CoverageGap lists ontology attributes absent from the model for one
// canonical entity.
type CoverageGap struct {
	CanonicalEntity   string   `json:"canonical_entity"`
	MissingAttributes []string `json:"missing_attributes"`
	Reason            string   `json:"reason"`
}

// RenameSuggestion proposes replacing a modeled attribute name with the
// ontology's preferred term.
type RenameSuggestion struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// Report aggregates one full MECE analysis.
type Report struct {
	Collisions        []CollisionFinding `json:"collisions"`
	UncoveredTerms    []CoverageGap      `json:"uncovered_terms"`
	NamingSuggestions []RenameSuggestion `json:"naming_suggestions"`
	MECEScore         float64            `json:"mece_score"`
}

// Analyzer compares drafted models against a reference ontology. The ontology
// is supplied at construction and never mutated.
type Analyzer struct {
	ontology *ontology.Ontology
}

// NewAnalyzer builds an analyzer bound to the given ontology.
func NewAnalyzer(ont *ontology.Ontology) *Analyzer {
	return &Analyzer{ontology: ont}
}

func normaliseAttrName(value string) string {
	folded := strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(folded, " ", "_")
}

type attrRef struct {
	entity    string
	attribute string
}

func pairKey(a, b attrRef) string {
	left := a.entity + "." + a.attribute
	right := b.entity + "." + b.attribute
	if left > right {
		left, right = right, left
	}
	return left + "|" + right
}

// FindCollisions returns one finding per unordered (entity, attribute) pair
// drawn from different entities whose names score at or above the threshold.
// The shorter attribute name is recorded as the representative.
func (a *Analyzer) FindCollisions(model Model, threshold float64) []CollisionFinding {
	if threshold <= 0 {
		threshold = DefaultCollisionThreshold
	}

	var refs []attrRef
	for _, entity := range model.Entities {
		for _, attribute := range entity.Attributes {
			if attribute.Name == "" {
				continue
			}
			refs = append(refs, attrRef{entity: entity.Name, attribute: attribute.Name})
		}
	}

	var findings []CollisionFinding
	seen := map[string]int{}

	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			if refs[i].entity == refs[j].entity {
				continue
			}
			score := similarity.NameSimilarity(refs[i].attribute, refs[j].attribute)
			if score < threshold {
				continue
			}

			key := pairKey(refs[i], refs[j])
			if index, exists := seen[key]; exists {
				findings[index].Scores[key] = score
				continue
			}

			representative := refs[i].attribute
			other := refs[j].attribute
			if len(other) < len(representative) || (len(other) == len(representative) && other < representative) {
				representative = other
			}

			seen[key] = len(findings)
			findings = append(findings, CollisionFinding{
				Entities:  CollisionEntities{NameA: refs[i].entity, NameB: refs[j].entity},
				Attribute: representative,
				Scores:    map[string]float64{key: score},
			})
		}
	}

	return findings
}

// UncoveredTerms reports ontology concepts absent from the model. Entities
// missing entirely contribute all their preferred attributes; entities that
// are modeled contribute only the preferred attributes (including synonyms)
// that no modeled attribute matches.
func (a *Analyzer) UncoveredTerms(model Model) []CoverageGap {
	modeledAttrs := map[string]map[string]bool{}
	for _, entity := range model.Entities {
		canonical := a.ontology.CanonicalEntityName(entity.Name)
		if modeledAttrs[canonical] == nil {
			modeledAttrs[canonical] = map[string]bool{}
		}
		for _, attribute := range entity.Attributes {
			modeledAttrs[canonical][normaliseAttrName(attribute.Name)] = true
		}
	}

	var gaps []CoverageGap
	for _, canonical := range a.ontology.EntityNames() {
		attrs, present := modeledAttrs[canonical]
		preferred := a.ontology.PreferredAttributeNames(canonical)

		if !present {
			gaps = append(gaps, CoverageGap{
				CanonicalEntity:   canonical,
				MissingAttributes: preferred,
				Reason:            GapReasonOntology,
			})
			continue
		}

		var missing []string
		for _, name := range preferred {
			if a.attrIsModeled(canonical, name, attrs) {
				continue
			}
			missing = append(missing, name)
		}
		if len(missing) > 0 {
			gaps = append(gaps, CoverageGap{
				CanonicalEntity:   canonical,
				MissingAttributes: missing,
				Reason:            GapReasonOntology,
			})
		}
	}

	return gaps
}

func (a *Analyzer) attrIsModeled(entityCanon, preferred string, modeled map[string]bool) bool {
	if modeled[normaliseAttrName(preferred)] {
		return true
	}
	entity, ok := a.ontology.Entities[entityCanon]
	if !ok {
		return false
	}
	for _, synonym := range entity.PreferredAttributes[preferred] {
		if modeled[normaliseAttrName(synonym)] {
			return true
		}
	}
	return false
}

// NamingSuggestions proposes renaming modeled attributes that match a known
// synonym of a preferred ontology attribute but are not already using the
// preferred term.
func (a *Analyzer) NamingSuggestions(model Model) []RenameSuggestion {
	var suggestions []RenameSuggestion
	for _, entity := range model.Entities {
		canonical := a.ontology.CanonicalEntityName(entity.Name)
		for _, attribute := range entity.Attributes {
			preferred := a.ontology.SuggestPreferredAttr(canonical, attribute.Name)
			if preferred == "" {
				continue
			}
			if normaliseAttrName(attribute.Name) == normaliseAttrName(preferred) {
				continue
			}
			suggestions = append(suggestions, RenameSuggestion{
				Entity: entity.Name,
				From:   attribute.Name,
				To:     preferred,
			})
		}
	}
	return suggestions
}

// MECEScore folds collision and gap counts into one bounded score. Both
// penalty terms saturate at ten findings; the result is rounded to four
// decimals. This is a deliberately simple linear penalty, not a calibrated
// metric.
func MECEScore(collisionCount, uncoveredCount int) float64 {
	penalty := 0.5*(float64(collisionCount)/10.0) + 0.5*(float64(uncoveredCount)/10.0)
	if penalty > 1 {
		penalty = 1
	}
	score := 1.0 - penalty
	if score < 0 {
		score = 0
	}
	return math.Round(score*10000) / 10000
}

// AnalyzeModel parses the raw model document and runs the full analysis with
// the given collision threshold (zero selects the default). A payload that is
// not a JSON object fails with ErrInvalidModelPayload; malformed fields inside
// an otherwise valid object degrade to empty values.
func (a *Analyzer) AnalyzeModel(raw []byte, threshold float64) (Report, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidModelPayload, err)
	}

	model := parseModel(probe)

	collisions := a.FindCollisions(model, threshold)
	uncovered := a.UncoveredTerms(model)

	return Report{
		Collisions:        collisions,
		UncoveredTerms:    uncovered,
		NamingSuggestions: a.NamingSuggestions(model),
		MECEScore:         MECEScore(len(collisions), len(uncovered)),
	}, nil
}

// parseModel coerces the loosely typed payload into a Model, skipping entries
// of the wrong shape rather than failing.
func parseModel(probe map[string]json.RawMessage) Model {
	var model Model

	rawEntities, present := probe["entities"]
	if !present {
		return model
	}

	var entities []json.RawMessage
	if err := json.Unmarshal(rawEntities, &entities); err != nil {
		return model
	}

	for _, rawEntity := range entities {
		var entity struct {
			Name       string            `json:"name"`
			Attributes []json.RawMessage `json:"attributes"`
		}
		if err := json.Unmarshal(rawEntity, &entity); err != nil {
			continue
		}

		modelEntity := ModelEntity{Name: entity.Name}
		for _, rawAttribute := range entity.Attributes {
			var attribute ModelAttribute
			if err := json.Unmarshal(rawAttribute, &attribute); err != nil {
				continue
			}
			if attribute.Name == "" {
				continue
			}
			modelEntity.Attributes = append(modelEntity.Attributes, attribute)
		}
		model.Entities = append(model.Entities, modelEntity)
	}

	return model
}
