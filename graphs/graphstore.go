package graphs

import (
	"context"

	"github.com/tmc/langchaingo/schema"
)

// EntityStore defines the interface for knowledge-graph entity stores.
//
// An entity store holds one document per entity, keyed by a globally unique
// identifier, and supports bounded-depth traversal along relationship edges.
type EntityStore interface {
	// AddDocuments extracts entities from each document and upserts them
	// into the store. Re-adding a document is idempotent: existing
	// identifiers and types are never overwritten, and properties and
	// relationships are merged with set semantics.
	AddDocuments(ctx context.Context, docs []schema.Document, options ...Option) ([]WriteSummary, error)

	// ExtractEntities returns the entities found in the document without
	// writing them to the store.
	ExtractEntities(ctx context.Context, document string) ([]Entity, error)

	// ExtractEntityNames returns only the entity identifiers found in the
	// document.
	ExtractEntityNames(ctx context.Context, document string) ([]string, error)

	// FindEntityByName returns entities whose ID matches name exactly.
	FindEntityByName(ctx context.Context, name string) ([]Entity, error)

	// RelatedEntities traverses relationship edges from the seed IDs and
	// returns the connected entities up to the configured depth,
	// deduplicated by ID.
	RelatedEntities(ctx context.Context, seeds []string, options ...Option) ([]Entity, error)

	// SimilaritySearch extracts entity names from the input and returns
	// the entities connected to them in the graph.
	SimilaritySearch(ctx context.Context, input string, options ...Option) ([]Entity, error)

	// ChatResponse answers a query using entities retrieved from the
	// graph as context.
	ChatResponse(ctx context.Context, query string, options ...Option) (string, error)

	// Close releases any resources owned by the store.
	Close(ctx context.Context) error
}

// EntityExtractor converts raw text into graph records. Implementations
// typically call out to a language model; see the llmextract package.
type EntityExtractor interface {
	// ExtractEntities returns the entities and relationships found in the
	// document.
	ExtractEntities(ctx context.Context, document string) ([]Entity, error)

	// ExtractEntityNames returns only the entity identifiers found in the
	// document. Used to pick traversal starting points from a query.
	ExtractEntityNames(ctx context.Context, document string) ([]string, error)
}

// WriteSummary reports the outcome of upserting one source document's
// entities into the store.
type WriteSummary struct {
	// MatchedCount is the number of existing entities matched by ID.
	MatchedCount int64
	// ModifiedCount is the number of existing entities that gained new
	// properties or relationships.
	ModifiedCount int64
	// UpsertedCount is the number of entities inserted for the first time.
	UpsertedCount int64
}

// Option defines functional options for entity store operations.
type Option func(*Options)

// Options contains per-call configuration for entity store operations.
type Options struct {
	// MaxDepth caps traversal recursion. Depth 0 returns the seeds and
	// their direct targets. Negative means "use the store default".
	MaxDepth int
	// IncludeSeeds indicates whether traversal results include the
	// matched seed entities themselves.
	IncludeSeeds bool
	// IncludeSource indicates whether entities are tagged with the ID of
	// the source document they were extracted from.
	IncludeSource bool
	// BatchSize specifies the batch size for bulk operations.
	BatchSize int
}

// NewOptions creates a new Options instance with default values.
func NewOptions() *Options {
	return &Options{
		MaxDepth:     -1, // Store default
		IncludeSeeds: true,
		BatchSize:    100,
	}
}

// WithMaxDepth caps the traversal recursion depth for a call.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

// WithIncludeSeeds sets whether traversal results include the seed entities.
func WithIncludeSeeds(include bool) Option {
	return func(opts *Options) {
		opts.IncludeSeeds = include
	}
}

// WithIncludeSource sets whether entities record their source document IDs.
func WithIncludeSource(include bool) Option {
	return func(opts *Options) {
		opts.IncludeSource = include
	}
}

// WithBatchSize sets the batch size for bulk operations.
func WithBatchSize(size int) Option {
	return func(opts *Options) {
		opts.BatchSize = size
	}
}
