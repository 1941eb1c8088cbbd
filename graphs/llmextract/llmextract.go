package llmextract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/graphrag-go/mongograph/graphs"
)

var (
	ErrModelNotSet   = fmt.Errorf("extraction model not set")
	ErrEmptyResponse = fmt.Errorf("model returned an empty response")
)

// Extractor converts raw text into knowledge-graph entities by prompting a
// language model. It implements graphs.EntityExtractor.
type Extractor struct {
	model llms.Model
	opts  *options

	// Rendered once at construction
	entitySystemPrompt string
	namesSystemPrompt  string
}

var _ graphs.EntityExtractor = (*Extractor)(nil)

// New creates an extractor driving the given model.
func New(model llms.Model, opts ...Option) (*Extractor, error) {
	if model == nil {
		return nil, ErrModelNotSet
	}

	options := &options{}
	for _, opt := range opts {
		opt(options)
	}
	applyDefaults(options)

	constraints := constraintSection(options.allowedEntityTypes, options.allowedRelationshipTypes)

	entityPrompt, err := extractionPrompt.Format(map[string]any{
		"output_schema": outputFormat,
		"constraints":   constraints,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render extraction prompt: %w", err)
	}

	namesSystem, err := namesPrompt.Format(map[string]any{
		"constraints": constraints,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render name extraction prompt: %w", err)
	}

	return &Extractor{
		model:              model,
		opts:               options,
		entitySystemPrompt: entityPrompt,
		namesSystemPrompt:  namesSystem,
	}, nil
}

// ExtractEntities prompts the model to convert the document into entity and
// relationship records. Entities with duplicate IDs are merged before being
// returned.
func (e *Extractor) ExtractEntities(ctx context.Context, document string) ([]graphs.Entity, error) {
	if strings.TrimSpace(document) == "" {
		return []graphs.Entity{}, nil
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, e.entitySystemPrompt),
	}
	if e.opts.entityExamples != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem,
			"## Additional Examples\n"+e.opts.entityExamples))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, "INPUT: "+document))

	content, err := e.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	var extracted struct {
		Entities []graphs.Entity `json:"entities"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &extracted); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}

	for _, entity := range extracted.Entities {
		if err := entity.Validate(); err != nil {
			return nil, fmt.Errorf("model produced an invalid entity: %w", err)
		}
	}

	return graphs.DedupeEntities(extracted.Entities), nil
}

// ExtractEntityNames prompts the model for entity identifiers only. The
// result is used to pick traversal starting points, so no relationships or
// properties are requested.
func (e *Extractor) ExtractEntityNames(ctx context.Context, document string) ([]string, error) {
	if strings.TrimSpace(document) == "" {
		return []string{}, nil
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, e.namesSystemPrompt),
	}
	if e.opts.nameExamples != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem,
			"## Additional Examples\n"+e.opts.nameExamples))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, document))

	content, err := e.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &names); err != nil {
		return nil, fmt.Errorf("failed to decode name extraction output: %w", err)
	}

	return names, nil
}

func (e *Extractor) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	response, err := e.model.GenerateContent(ctx, messages, e.opts.callOptions...)
	if err != nil {
		return "", fmt.Errorf("model invocation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// stripJSONFences removes a Markdown code fence wrapping the model output.
// Models regularly wrap JSON in ```json ... ``` even when asked not to.
func stripJSONFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// constraintSection renders the allowed-type constraints injected into the
// prompts. Returns an empty string when no constraints are configured.
func constraintSection(entityTypes, relationshipTypes []string) string {
	if len(entityTypes) == 0 && len(relationshipTypes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n## Constraints\n")
	if len(entityTypes) > 0 {
		sb.WriteString("Every entity 'type' field MUST be one of the following values: ")
		sb.WriteString(strings.Join(entityTypes, ", "))
		sb.WriteString(". Discard entities that fit none of them.\n")
	}
	if len(relationshipTypes) > 0 {
		sb.WriteString("Every relationship type key MUST be one of the following values: ")
		sb.WriteString(strings.Join(relationshipTypes, ", "))
		sb.WriteString(". Discard relationships that fit none of them.\n")
	}
	return sb.String()
}
