package llmextract

import "github.com/tmc/langchaingo/llms"

// Option defines functional options for the extractor.
type Option func(*options)

// options contains configuration options for the extractor.
type options struct {
	// Additional worked examples appended to the entity extraction prompt
	entityExamples string

	// Additional worked examples appended to the name extraction prompt
	nameExamples string

	// Allowed values for the entity "type" field (empty means any)
	allowedEntityTypes []string

	// Allowed relationship type keys (empty means any)
	allowedRelationshipTypes []string

	// Call options forwarded to the model on every invocation
	callOptions []llms.CallOption
}

func applyDefaults(opts *options) {
	if opts.callOptions == nil {
		opts.callOptions = []llms.CallOption{llms.WithTemperature(0)}
	}
}

// WithEntityExamples appends worked examples to the entity extraction prompt.
// Useful for steering the model toward a domain-specific graph shape.
func WithEntityExamples(examples string) Option {
	return func(opts *options) {
		opts.entityExamples = examples
	}
}

// WithNameExamples appends worked examples to the name extraction prompt.
func WithNameExamples(examples string) Option {
	return func(opts *options) {
		opts.nameExamples = examples
	}
}

// WithAllowedEntityTypes constrains the entity "type" field to the given
// values.
func WithAllowedEntityTypes(types []string) Option {
	return func(opts *options) {
		opts.allowedEntityTypes = types
	}
}

// WithAllowedRelationshipTypes constrains relationship type keys to the given
// values.
func WithAllowedRelationshipTypes(types []string) Option {
	return func(opts *options) {
		opts.allowedRelationshipTypes = types
	}
}

// WithCallOptions replaces the call options forwarded to the model.
// Defaults to temperature 0.
func WithCallOptions(callOptions ...llms.CallOption) Option {
	return func(opts *options) {
		opts.callOptions = callOptions
	}
}
