package llmextract

import (
	"context"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel returns canned content and records the messages it was given.
type fakeModel struct {
	content  string
	err      error
	calls    int
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.content}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func systemText(messages []llms.MessageContent) string {
	var sb strings.Builder
	for _, msg := range messages {
		if msg.Role != llms.ChatMessageTypeSystem {
			continue
		}
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New(nil); err != ErrModelNotSet {
		t.Errorf("expected ErrModelNotSet, got %v", err)
	}
}

func TestExtractEntities(t *testing.T) {
	model := &fakeModel{content: "```json\n" + `{
		"entities": [
			{
				"ID": "ACME Corporation",
				"type": "Organization",
				"properties": {"industry": "renewable energy"},
				"relationships": {
					"partner": [{"target": "GreenTech Ltd.", "properties": {"since": 2021}}]
				}
			},
			{
				"ID": "ACME Corporation",
				"type": "Organization",
				"properties": {"industry": "logistics"}
			},
			{"ID": "GreenTech Ltd.", "type": "Organization"}
		]
	}` + "\n```"}

	extractor, err := New(model)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	entities, err := extractor.ExtractEntities(context.Background(), "ACME partners with GreenTech.")
	if err != nil {
		t.Fatalf("ExtractEntities failed: %v", err)
	}

	if len(entities) != 2 {
		t.Fatalf("expected 2 entities after in-batch merge, got %d", len(entities))
	}

	acme := entities[0]
	if acme.ID != "ACME Corporation" {
		t.Errorf("unexpected first entity: %q", acme.ID)
	}
	if got := acme.Properties["industry"]; len(got) != 2 {
		t.Errorf("industry values not merged: %v", got)
	}
	if got := acme.Relationships["partner"][0].Properties["since"]; len(got) != 1 || got[0] != "2021" {
		t.Errorf("numeric edge property not normalized: %v", got)
	}
}

func TestExtractEntitiesEmptyInput(t *testing.T) {
	model := &fakeModel{content: "{}"}
	extractor, err := New(model)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	entities, err := extractor.ExtractEntities(context.Background(), "  \n ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("expected no entities, got %v", entities)
	}
	if model.calls != 0 {
		t.Errorf("model should not be called for empty input, got %d calls", model.calls)
	}
}

func TestExtractEntitiesInvalidOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "the entities are ACME and GreenTech"},
		{name: "missing ID", content: `{"entities": [{"type": "Person"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor, err := New(&fakeModel{content: tt.content})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if _, err := extractor.ExtractEntities(context.Background(), "some text"); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestExtractEntityNames(t *testing.T) {
	model := &fakeModel{content: "```json\n[\"ACME Corporation\", \"GreenTech Ltd.\"]\n```"}
	extractor, err := New(model)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	names, err := extractor.ExtractEntityNames(context.Background(), "What is the connection between ACME Corporation and GreenTech Ltd.?")
	if err != nil {
		t.Fatalf("ExtractEntityNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "ACME Corporation" {
		t.Errorf("unexpected names: %v", names)
	}

	// Empty input short-circuits without a model call.
	calls := model.calls
	names, err = extractor.ExtractEntityNames(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no names, got %v", names)
	}
	if model.calls != calls {
		t.Error("model should not be called for empty input")
	}
}

func TestAdditionalExamplesInPrompt(t *testing.T) {
	model := &fakeModel{content: `{"entities": []}`}
	extractor, err := New(model, WithEntityExamples("Input: x\nOutput: y"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := extractor.ExtractEntities(context.Background(), "some text"); err != nil {
		t.Fatalf("ExtractEntities failed: %v", err)
	}

	prompt := systemText(model.messages)
	if !strings.Contains(prompt, "## Additional Examples") {
		t.Error("additional examples missing from system prompt")
	}
	if !strings.Contains(prompt, "Input: x") {
		t.Error("example text missing from system prompt")
	}
}

func TestAllowedTypeConstraintsInPrompt(t *testing.T) {
	model := &fakeModel{content: `{"entities": []}`}
	extractor, err := New(model,
		WithAllowedEntityTypes([]string{"Person", "Organization"}),
		WithAllowedRelationshipTypes([]string{"employee", "partner"}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := extractor.ExtractEntities(context.Background(), "some text"); err != nil {
		t.Fatalf("ExtractEntities failed: %v", err)
	}

	prompt := systemText(model.messages)
	for _, expected := range []string{"## Constraints", "Person, Organization", "employee, partner"} {
		if !strings.Contains(prompt, expected) {
			t.Errorf("constraint %q missing from system prompt", expected)
		}
	}
}

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", expected: `{"a": 1}`},
		{name: "bare fence", input: "```\n[]\n```", expected: "[]"},
		{name: "no fence", input: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "surrounding whitespace", input: "  \n```json\n[]\n```\n ", expected: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripJSONFences(tt.input); got != tt.expected {
				t.Errorf("got %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestRAGSystemPrompt(t *testing.T) {
	prompt, err := RAGSystemPrompt(`[{"ID": "ACME Corporation"}]`)
	if err != nil {
		t.Fatalf("RAGSystemPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "ACME Corporation") {
		t.Error("related entities missing from prompt")
	}
	if !strings.Contains(prompt, "Entity Schema") {
		t.Error("entity schema section missing from prompt")
	}
}
