package graphs

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValuesUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Values
		wantErr  bool
	}{
		{name: "bare string", input: `"CEO"`, expected: Values{"CEO"}},
		{name: "string array", input: `["a", "b"]`, expected: Values{"a", "b"}},
		{name: "number", input: `42`, expected: Values{"42"}},
		{name: "float", input: `3.5`, expected: Values{"3.5"}},
		{name: "bool", input: `true`, expected: Values{"true"}},
		{name: "mixed array", input: `["a", 1, false]`, expected: Values{"a", "1", "false"}},
		{name: "duplicates collapse", input: `["a", "a", "b"]`, expected: Values{"a", "b"}},
		{name: "null", input: `null`, expected: nil},
		{name: "empty array", input: `[]`, expected: Values{}},
		{name: "object rejected", input: `{"k": "v"}`, wantErr: true},
		{name: "nested array rejected", input: `[["a"]]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Values
			err := json.Unmarshal([]byte(tt.input), &got)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("got %#v, expected %#v", got, tt.expected)
			}
		})
	}
}

func TestValuesAdd(t *testing.T) {
	v := Values{"a"}
	v = v.Add("b", "a", "c", "b")

	expected := Values{"a", "b", "c"}
	if !reflect.DeepEqual(v, expected) {
		t.Errorf("got %v, expected %v", v, expected)
	}
}

func TestRelationshipEqual(t *testing.T) {
	base := Relationship{
		Target:     "MongoDB",
		Properties: map[string]Values{"since": {"2019-05-01"}},
	}

	tests := []struct {
		name     string
		other    Relationship
		expected bool
	}{
		{
			name:     "identical",
			other:    Relationship{Target: "MongoDB", Properties: map[string]Values{"since": {"2019-05-01"}}},
			expected: true,
		},
		{
			name:     "different target",
			other:    Relationship{Target: "ACME", Properties: map[string]Values{"since": {"2019-05-01"}}},
			expected: false,
		},
		{
			name:     "different property value",
			other:    Relationship{Target: "MongoDB", Properties: map[string]Values{"since": {"2020-01-01"}}},
			expected: false,
		},
		{
			name:     "missing properties",
			other:    Relationship{Target: "MongoDB"},
			expected: false,
		},
		{
			name: "value order ignored",
			other: Relationship{
				Target:     "MongoDB",
				Properties: map[string]Values{"since": {"2019-05-01"}},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.expected {
				t.Errorf("Equal() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestMergeEntitiesSetOnce(t *testing.T) {
	dst := NewEntity("Alice Palace", "Person")
	src := NewEntity("Alice Palace", "Organization") // conflicting type

	merged := MergeEntities(dst, src)

	if merged.ID != "Alice Palace" {
		t.Errorf("ID changed to %q", merged.ID)
	}
	if merged.Type != "Person" {
		t.Errorf("type overwritten: got %q, expected Person", merged.Type)
	}
}

func TestMergeEntitiesUnion(t *testing.T) {
	dst := NewEntity("Alice Palace", "Person")
	dst.SetProperty("position", "CEO")
	dst.AddRelationship("friend", "Jarnail Singh", map[string]Values{"since": {"2019-05-01"}})

	src := NewEntity("Alice Palace", "Person")
	src.SetProperty("position", "CEO")          // duplicate fact
	src.SetProperty("startDate", "2018-01-01")  // new fact
	src.AddRelationship("friend", "Jarnail Singh", map[string]Values{"since": {"2019-05-01"}}) // duplicate edge
	src.AddRelationship("friend", "Jasbinder Kaur", nil)
	src.AddRelationship("employer", "MongoDB", nil)

	merged := MergeEntities(dst, src)

	if got := merged.Properties["position"]; !reflect.DeepEqual(got, Values{"CEO"}) {
		t.Errorf("position duplicated: %v", got)
	}
	if got := merged.Properties["startDate"]; !reflect.DeepEqual(got, Values{"2018-01-01"}) {
		t.Errorf("startDate not merged: %v", got)
	}
	if got := len(merged.Relationships["friend"]); got != 2 {
		t.Errorf("expected 2 friend edges, got %d", got)
	}
	if got := len(merged.Relationships["employer"]); got != 1 {
		t.Errorf("expected 1 employer edge, got %d", got)
	}
}

func TestMergeEntitiesIdempotent(t *testing.T) {
	entity := NewEntity("MongoDB", "Organization")
	entity.SetProperty("headquarters", "New York")
	entity.AddRelationship("employee", "Alice Palace", map[string]Values{"position": {"CEO"}})

	merged := MergeEntities(entity, entity)

	if !reflect.DeepEqual(merged.Properties, entity.Properties) {
		t.Errorf("properties changed: %#v", merged.Properties)
	}
	if !reflect.DeepEqual(merged.Relationships, entity.Relationships) {
		t.Errorf("relationships changed: %#v", merged.Relationships)
	}

	// Merging the result again must also be a fixed point.
	again := MergeEntities(merged, entity)
	if !reflect.DeepEqual(again, merged) {
		t.Errorf("second merge changed the entity: %#v", again)
	}
}

func TestMergeEntitiesDoesNotMutateInputs(t *testing.T) {
	dst := NewEntity("ACME Corporation", "Organization")
	dst.SetProperty("industry", "renewable energy")

	src := NewEntity("ACME Corporation", "Organization")
	src.SetProperty("industry", "logistics")
	src.AddRelationship("partner", "GreenTech Ltd.", map[string]Values{"since": {"2021"}})

	merged := MergeEntities(dst, src)

	if got := dst.Properties["industry"]; !reflect.DeepEqual(got, Values{"renewable energy"}) {
		t.Errorf("dst mutated: industry = %v", got)
	}
	if got := src.Properties["industry"]; !reflect.DeepEqual(got, Values{"logistics"}) {
		t.Errorf("src mutated: industry = %v", got)
	}

	// The result must not share edge property maps with the inputs.
	merged.Relationships["partner"][0].Properties["since"][0] = "changed"
	if got := src.Relationships["partner"][0].Properties["since"]; !reflect.DeepEqual(got, Values{"2021"}) {
		t.Errorf("result aliases src edge properties: %v", got)
	}
}

func TestDedupeEntities(t *testing.T) {
	a1 := NewEntity("ACME Corporation", "Organization")
	a1.SetProperty("industry", "renewable energy")

	b := NewEntity("GreenTech Ltd.", "Organization")

	a2 := NewEntity("ACME Corporation", "Organization")
	a2.SetProperty("industry", "logistics")
	a2.AddRelationship("partner", "GreenTech Ltd.", nil)

	deduped := DedupeEntities([]Entity{a1, b, a2})

	if len(deduped) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(deduped))
	}
	if deduped[0].ID != "ACME Corporation" || deduped[1].ID != "GreenTech Ltd." {
		t.Errorf("first-seen order not preserved: %q, %q", deduped[0].ID, deduped[1].ID)
	}

	acme := deduped[0]
	if got := acme.Properties["industry"]; !reflect.DeepEqual(got, Values{"renewable energy", "logistics"}) {
		t.Errorf("industry values not unioned: %v", got)
	}
	if len(acme.Relationships["partner"]) != 1 {
		t.Errorf("partner edge lost: %#v", acme.Relationships)
	}
}

func TestDedupeEntitiesEmpty(t *testing.T) {
	deduped := DedupeEntities(nil)
	if len(deduped) != 0 {
		t.Errorf("expected empty result, got %v", deduped)
	}
}

func TestEntityValidate(t *testing.T) {
	valid := NewEntity("Jane Smith", "Person")
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	missing := Entity{Type: "Person"}
	if err := missing.Validate(); err != ErrEmptyEntityID {
		t.Errorf("expected ErrEmptyEntityID, got %v", err)
	}

	badEdge := NewEntity("Jane Smith", "Person")
	badEdge.AddRelationship("manager", "", nil)
	if err := badEdge.Validate(); err == nil {
		t.Error("expected error for empty relationship target")
	}
}

func TestEntityJSONRoundTrip(t *testing.T) {
	// Shape emitted by the extraction model.
	raw := `{
		"ID": "Alice Palace",
		"type": "Person",
		"properties": {
			"position": "CEO",
			"startDate": ["2018-01-01"]
		},
		"relationships": {
			"employer": [{"target": "MongoDB"}],
			"friend": [
				{"target": "Jarnail Singh", "properties": {"since": "2019-05-01"}}
			]
		}
	}`

	var entity Entity
	if err := json.Unmarshal([]byte(raw), &entity); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if entity.ID != "Alice Palace" || entity.Type != "Person" {
		t.Errorf("identity fields wrong: %q %q", entity.ID, entity.Type)
	}
	if got := entity.Properties["position"]; !reflect.DeepEqual(got, Values{"CEO"}) {
		t.Errorf("scalar property not normalized: %v", got)
	}
	if got := entity.Relationships["friend"][0].Properties["since"]; !reflect.DeepEqual(got, Values{"2019-05-01"}) {
		t.Errorf("edge property not normalized: %v", got)
	}
}
