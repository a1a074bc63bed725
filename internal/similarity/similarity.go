// Package similarity provides the pure scoring primitives used by the mapping
// planner, the relationship inference engine and the coverage analyzer. All
// functions are deterministic, return values clamped to [0, 1] and degrade to a
// zero contribution on empty or malformed input instead of returning an error.
package similarity

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// semanticHints maps semantic keys to the keyword aliases that may appear in an
// attribute's semantic type text.
var semanticHints = map[string][]string{
	"id":     {"id", "identifier", "key"},
	"dob":    {"dob", "birth", "birthdate", "birth_date", "date_of_birth"},
	"gender": {"gender", "sex"},
	"npi":    {"npi"},
	"icd":    {"icd"},
	"cpt":    {"cpt"},
	"ndc":    {"ndc"},
}

// canonicalDtypes maps each canonical bucket to the physical type names that
// collapse into it.
var canonicalDtypes = map[string][]string{
	"string":  {"string", "varchar", "char", "text", "nvarchar", "character varying"},
	"int":     {"int", "integer", "bigint", "smallint", "number"},
	"decimal": {"decimal", "numeric", "float", "double", "real"},
	"date":    {"date", "datetime", "timestamp", "timestamptz"},
}

// weakCompat lists the bucket pairs that score 0.25 instead of 0. Keys are the
// two bucket names joined in sorted order.
var weakCompat = map[string]bool{
	"decimal|string": true,
	"int|string":     true,
	"decimal|int":    true,
}

var nameMetric = metrics.NewLevenshtein()

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// tokenSort lowercases a name, splits it on any non-alphanumeric rune and
// rejoins the tokens in sorted order so that word order does not matter.
func tokenSort(value string) string {
	tokens := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// NameSimilarity returns a token-sort based similarity between two attribute or
// column names, normalised to [0, 1]. It is symmetric and returns 0.0 when
// either name is empty.
func NameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	sortedA := tokenSort(a)
	sortedB := tokenSort(b)
	if sortedA == "" || sortedB == "" {
		return 0.0
	}
	return clamp01(strutil.Similarity(sortedA, sortedB, nameMetric))
}

func normaliseDtype(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func dtypeBucket(value string) string {
	for canonical, aliases := range canonicalDtypes {
		for _, alias := range aliases {
			if value == alias {
				return canonical
			}
		}
	}
	// Unknown types keep their literal name and compare by equality.
	return value
}

func weakCompatKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// DtypeCompatScore scores the compatibility of a logical attribute datatype
// against a physical column datatype. Same canonical bucket scores 1.0, a
// weakly compatible bucket pair scores 0.25, anything else 0.0. Empty input on
// either side scores 0.0.
func DtypeCompatScore(attrDtype, colDtype string) float64 {
	attrNorm := normaliseDtype(attrDtype)
	colNorm := normaliseDtype(colDtype)
	if attrNorm == "" || colNorm == "" {
		return 0.0
	}

	attrKey := dtypeBucket(attrNorm)
	colKey := dtypeBucket(colNorm)

	if attrKey == colKey {
		return 1.0
	}
	if weakCompat[weakCompatKey(attrKey, colKey)] {
		return 0.25
	}
	return 0.0
}

// SemanticHintScore scores how well a column name aligns with the semantic type
// text of an attribute. For every semantic key whose aliases appear in the
// semantic type, the column scores 1.0 when it contains the key or one of its
// aliases, 0.75 when it merely starts with the key, and 0.5 otherwise. The
// maximum across matching keys is returned; 0.0 when nothing matches.
func SemanticHintScore(semanticType, columnName string) float64 {
	if semanticType == "" || columnName == "" {
		return 0.0
	}

	semantic := strings.ToLower(semanticType)
	col := strings.ToLower(columnName)
	score := 0.0

	for key, aliases := range semanticHints {
		matched := false
		for _, alias := range aliases {
			if strings.Contains(semantic, alias) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		keyScore := 0.5
		if strings.Contains(col, key) || containsAnyAlias(col, aliases) {
			keyScore = 1.0
		} else if strings.HasPrefix(col, key) {
			keyScore = 0.75
		}
		if keyScore > score {
			score = keyScore
		}
	}

	return score
}

func containsAnyAlias(value string, aliases []string) bool {
	for _, alias := range aliases {
		if strings.Contains(value, alias) {
			return true
		}
	}
	return false
}

// coerceFloat converts the loosely typed values found in profiling stat bags
// into a float, returning false for anything unusable. Absence of a key means
// "unknown", never "zero".
func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func statFloat(stats map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if raw, present := stats[key]; present && raw != nil {
			if parsed, ok := coerceFloat(raw); ok {
				return parsed, true
			}
		}
	}
	return 0, false
}

// ColumnEvidenceScore derives a statistical evidence score for a column from
// its profiling stats. A low null ratio contributes up to 0.6 and a uniqueness
// profile matching the column's apparent role (identifier versus categorical)
// contributes up to 0.4. Missing or unparseable stats contribute 0.0.
func ColumnEvidenceScore(columnName string, stats map[string]any) float64 {
	if len(stats) == 0 {
		return 0.0
	}

	colLower := strings.ToLower(columnName)
	score := 0.0

	nullRatio, ok := statFloat(stats, "null_pct", "null_ratio", "pct_null")
	if !ok {
		total, haveTotal := statFloat(stats, "total")
		nulls, haveNulls := statFloat(stats, "nulls", "null_count")
		if haveTotal && haveNulls && total != 0 {
			nullRatio = nulls / total
			ok = true
		}
	}
	if ok {
		switch {
		case nullRatio <= 0.05:
			score += 0.6
		case nullRatio <= 0.2:
			score += 0.4
		case nullRatio <= 0.35:
			score += 0.2
		}
	}

	distinct, haveDistinct := statFloat(stats, "distinct_count", "distinct", "approx_distinct")
	total, haveTotal := statFloat(stats, "total", "count", "row_count")
	if haveDistinct && haveTotal && total != 0 {
		uniqueness := distinct / total
		if strings.Contains(colLower, "id") {
			if uniqueness >= 0.9 {
				score += 0.4
			} else if uniqueness >= 0.5 {
				score += 0.2
			}
		} else {
			if uniqueness <= 0.1 {
				score += 0.2
			} else if uniqueness <= 0.5 {
				score += 0.1
			}
		}
	}

	return clamp01(score)
}

// CandidateConfidence blends the four component scores into a single bounded
// confidence value. The weighting is a fixed design decision, not a learned
// parameter: 0.5 name + 0.2 dtype + 0.2 semantic + 0.1 evidence, clamped to 1.
// When the attribute has no semantic type its name doubles as the semantic
// source.
func CandidateConfidence(attrName, attrDtype, semanticType, columnName, colDtype string, stats map[string]any) float64 {
	semanticSource := semanticType
	if semanticSource == "" {
		semanticSource = attrName
	}

	nameScore := NameSimilarity(attrName, columnName)
	dtypeScore := DtypeCompatScore(attrDtype, colDtype)
	semanticScore := SemanticHintScore(semanticSource, columnName)
	evidenceScore := ColumnEvidenceScore(columnName, stats)

	combined := 0.5*nameScore + 0.2*dtypeScore + 0.2*semanticScore + 0.1*evidenceScore
	return clamp01(combined)
}
