// Package ontology holds the reference ontology used for MECE coverage
// analysis: canonical entity names, their synonyms and preferred attribute
// names. The ontology is loaded once at startup and read-only afterwards;
// callers receive it by reference instead of through a package-level global.
package ontology

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed seed.json
var embeddedSeed []byte

// Entity is a canonical ontology entity with its synonym table.
type Entity struct {
	Synonyms            []string            `json:"synonyms"`
	PreferredAttributes map[string][]string `json:"preferred_attributes"`
}

// Ontology is an immutable lookup table of canonical entities and semantic
// alias keyword groups.
type Ontology struct {
	Entities        map[string]Entity   `json:"entities"`
	SemanticAliases map[string][]string `json:"semantic_aliases"`
}

func normalise(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Default returns the ontology built from the embedded seed. The seed is part
// of the binary, so this cannot fail at runtime.
func Default() *Ontology {
	ont, err := parse(embeddedSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded ontology seed is invalid: %v", err))
	}
	return ont
}

// LoadFile reads an ontology seed document from disk, allowing deployments to
// override the embedded healthcare payor ontology.
func LoadFile(path string) (*Ontology, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ontology seed %s: %w", path, err)
	}
	ont, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ontology seed %s: %w", path, err)
	}
	return ont, nil
}

func parse(raw []byte) (*Ontology, error) {
	var ont Ontology
	if err := json.Unmarshal(raw, &ont); err != nil {
		return nil, err
	}
	if ont.Entities == nil {
		ont.Entities = map[string]Entity{}
	}
	if ont.SemanticAliases == nil {
		ont.SemanticAliases = map[string][]string{}
	}
	return &ont, nil
}

// CanonicalEntityName maps an entity name or one of its synonyms to the
// canonical ontology key. Unknown names are returned normalised (lowercased,
// trimmed) so that callers can still compare them consistently.
func (o *Ontology) CanonicalEntityName(name string) string {
	candidate := normalise(name)
	for canonical, entity := range o.Entities {
		if candidate == canonical {
			return canonical
		}
		for _, synonym := range entity.Synonyms {
			if candidate == normalise(synonym) {
				return canonical
			}
		}
	}
	return candidate
}

// SuggestPreferredAttr returns the canonical attribute name for the given
// entity when attrName matches the preferred name or one of its synonyms, and
// the empty string otherwise.
func (o *Ontology) SuggestPreferredAttr(entityCanon, attrName string) string {
	if attrName == "" {
		return ""
	}

	entity, ok := o.Entities[entityCanon]
	if !ok {
		return ""
	}

	candidate := normalise(attrName)
	for preferred, synonyms := range entity.PreferredAttributes {
		if candidate == normalise(preferred) {
			return preferred
		}
		for _, synonym := range synonyms {
			if candidate == normalise(synonym) {
				return preferred
			}
		}
	}
	return ""
}

// EntityNames returns the canonical entity names in sorted order so that
// iteration over the ontology is deterministic.
func (o *Ontology) EntityNames() []string {
	names := make([]string, 0, len(o.Entities))
	for name := range o.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PreferredAttributeNames returns the preferred attribute names of an entity
// in sorted order, or nil when the entity is unknown.
func (o *Ontology) PreferredAttributeNames(entityCanon string) []string {
	entity, ok := o.Entities[entityCanon]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(entity.PreferredAttributes))
	for name := range entity.PreferredAttributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
