package graphs

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ErrEmptyEntityID is returned when an entity is missing its identifier.
var ErrEmptyEntityID = fmt.Errorf("entity has an empty ID")

// Values is a set of string values for an entity or relationship property.
// Membership is what matters; insertion order is preserved for stable output.
//
// Language models emit property values loosely: a bare string, a number, a
// bool, or an array of any of those. UnmarshalJSON accepts all of them and
// normalizes to strings.
type Values []string

// UnmarshalJSON implements tolerant decoding of scalar or array values.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case nil:
		*v = nil
		return nil
	case []interface{}:
		out := make(Values, 0, len(val))
		for i, item := range val {
			s, err := scalarToString(item)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			out = out.Add(s)
		}
		*v = out
		return nil
	default:
		s, err := scalarToString(val)
		if err != nil {
			return err
		}
		*v = Values{s}
		return nil
	}
}

func scalarToString(val interface{}) (string, error) {
	switch s := val.(type) {
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return "", fmt.Errorf("unsupported property value of type %T", val)
	}
}

// Contains reports whether s is a member of the set.
func (v Values) Contains(s string) bool {
	for _, item := range v {
		if item == s {
			return true
		}
	}
	return false
}

// Add returns the union of the set and the given items, preserving the
// order in which members were first seen.
func (v Values) Add(items ...string) Values {
	out := v
	for _, item := range items {
		if !out.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}

// Relationship describes one edge target: the ID of the target entity plus
// optional properties of the edge itself.
type Relationship struct {
	Target     string            `bson:"target"               json:"target"`
	Properties map[string]Values `bson:"properties,omitempty" json:"properties,omitempty"`
}

// Equal reports deep equality of two relationship descriptors. It is the
// dedup key for relationship sets.
func (r Relationship) Equal(other Relationship) bool {
	if r.Target != other.Target {
		return false
	}
	if len(r.Properties) != len(other.Properties) {
		return false
	}
	for key, vals := range r.Properties {
		otherVals, ok := other.Properties[key]
		if !ok || len(vals) != len(otherVals) {
			return false
		}
		for _, val := range vals {
			if !otherVals.Contains(val) {
				return false
			}
		}
	}
	return true
}

// Entity is a single knowledge-graph node. It is stored as one document,
// keyed by ID. Relationships are grouped by relationship type, each holding a
// set of target descriptors.
type Entity struct {
	ID            string                    `bson:"ID"                      json:"ID"`
	Type          string                    `bson:"type"                    json:"type"`
	Properties    map[string]Values         `bson:"properties,omitempty"    json:"properties,omitempty"`
	Relationships map[string][]Relationship `bson:"relationships,omitempty" json:"relationships,omitempty"`
	// Sources lists IDs of the documents this entity was extracted from.
	// Populated only when WithIncludeSource is set.
	Sources Values `bson:"sources,omitempty" json:"sources,omitempty"`
}

// NewEntity creates an entity with the given identifier and type.
func NewEntity(id, entityType string) Entity {
	return Entity{ID: id, Type: entityType}
}

// Validate checks the entity satisfies the store invariants.
func (e Entity) Validate() error {
	if e.ID == "" {
		return ErrEmptyEntityID
	}
	for relType, rels := range e.Relationships {
		for _, rel := range rels {
			if rel.Target == "" {
				return fmt.Errorf("relationship %q: target must not be empty", relType)
			}
		}
	}
	return nil
}

// SetProperty unions the given values into the named property.
func (e *Entity) SetProperty(key string, values ...string) {
	if e.Properties == nil {
		e.Properties = make(map[string]Values)
	}
	e.Properties[key] = e.Properties[key].Add(values...)
}

// AddRelationship adds an edge of the given type to the target entity,
// ignoring exact duplicates.
func (e *Entity) AddRelationship(relType, target string, properties map[string]Values) {
	if e.Relationships == nil {
		e.Relationships = make(map[string][]Relationship)
	}
	rel := Relationship{Target: target, Properties: properties}
	for _, existing := range e.Relationships[relType] {
		if existing.Equal(rel) {
			return
		}
	}
	e.Relationships[relType] = append(e.Relationships[relType], rel)
}

// MergeEntities combines dst and src into a new entity, leaving both inputs
// untouched.
//
// The merge is additive and idempotent: dst's ID and Type take precedence
// and are never overwritten, property values are unioned per key, and
// relationship lists are unioned per type with exact-duplicate elimination.
// Merging an entity with itself yields the same entity.
func MergeEntities(dst, src Entity) Entity {
	out := NewEntity(dst.ID, dst.Type)
	if out.ID == "" {
		out.ID = src.ID
	}
	if out.Type == "" {
		out.Type = src.Type
	}

	for _, e := range []Entity{dst, src} {
		for key, vals := range e.Properties {
			out.SetProperty(key, vals...)
		}
		for relType, rels := range e.Relationships {
			for _, rel := range rels {
				out.AddRelationship(relType, rel.Target, cloneProperties(rel.Properties))
			}
		}
		out.Sources = out.Sources.Add(e.Sources...)
	}

	return out
}

func cloneProperties(properties map[string]Values) map[string]Values {
	if properties == nil {
		return nil
	}
	out := make(map[string]Values, len(properties))
	for key, vals := range properties {
		out[key] = append(Values(nil), vals...)
	}
	return out
}

// DedupeEntities collapses a batch of entities by ID using MergeEntities,
// preserving first-seen order. Extraction regularly yields the same entity
// more than once per document; collapsing before the upsert keeps one write
// per identifier.
func DedupeEntities(entities []Entity) []Entity {
	merged := make(map[string]int, len(entities))
	out := make([]Entity, 0, len(entities))

	for _, entity := range entities {
		if idx, ok := merged[entity.ID]; ok {
			out[idx] = MergeEntities(out[idx], entity)
			continue
		}
		merged[entity.ID] = len(out)
		out = append(out, entity)
	}

	return out
}
