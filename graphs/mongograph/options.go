package mongograph

import (
	"io"
	"log/slog"
	"os"

	"github.com/tmc/langchaingo/llms"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/graphrag-go/mongograph/graphs"
)

// Option defines functional options for the MongoDB entity store.
type Option func(*options)

// options contains configuration options for the MongoDB entity store.
type options struct {
	// Existing client to reuse. When nil, a client is created from uri and
	// owned (and closed) by the store.
	client *mongo.Client

	// Connection string, used only when no client is given
	uri string

	// Database and collection holding the entity graph
	databaseName   string
	collectionName string

	// Entity extraction collaborator
	extractor graphs.EntityExtractor

	// Model used to build a default extractor when none is given
	extractionModel llms.Model

	// Model answering ChatResponse queries. Defaults to extractionModel.
	chatModel llms.Model

	// Default traversal recursion depth. Negative means unset; 0 is a
	// valid depth (seeds plus direct targets).
	maxDepth int

	// Whether traversal results include the matched seed entities
	includeSeeds bool

	// Whether to install the $jsonSchema validator on the collection
	validate bool

	// Allowed values for the entity "type" field (empty means any)
	allowedEntityTypes []string

	// Allowed relationship type keys (empty means any)
	allowedRelationshipTypes []string

	// Additional worked examples for the default extractor prompts
	entityExamples string
	nameExamples   string

	logger *slog.Logger
}

// newOptions resolves the given options against the defaults.
func newOptions(optFns ...Option) *options {
	opts := &options{
		maxDepth:     -1,
		includeSeeds: true,
	}
	for _, opt := range optFns {
		opt(opts)
	}
	applyDefaults(opts)
	return opts
}

// applyDefaults sets default values for any unset options.
func applyDefaults(opts *options) {
	if opts.uri == "" {
		opts.uri = os.Getenv("MONGODB_URI")
	}
	if opts.uri == "" {
		opts.uri = "mongodb://localhost:27017"
	}
	if opts.databaseName == "" {
		opts.databaseName = "graphrag"
	}
	if opts.collectionName == "" {
		opts.collectionName = "entities"
	}
	if opts.maxDepth < 0 {
		opts.maxDepth = 2
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// WithClient reuses an existing MongoDB client. The store will not close it.
func WithClient(client *mongo.Client) Option {
	return func(opts *options) {
		opts.client = client
	}
}

// WithConnectionString sets the MongoDB connection string. If not set, the
// MONGODB_URI environment variable is used, then "mongodb://localhost:27017".
func WithConnectionString(uri string) Option {
	return func(opts *options) {
		opts.uri = uri
	}
}

// WithDatabaseName sets the database holding the entity graph.
// Defaults to "graphrag".
func WithDatabaseName(name string) Option {
	return func(opts *options) {
		opts.databaseName = name
	}
}

// WithCollectionName sets the collection holding the entity graph.
// Defaults to "entities".
func WithCollectionName(name string) Option {
	return func(opts *options) {
		opts.collectionName = name
	}
}

// WithExtractor sets the entity extraction collaborator directly. Takes
// precedence over WithEntityExtractionModel.
func WithExtractor(extractor graphs.EntityExtractor) Option {
	return func(opts *options) {
		opts.extractor = extractor
	}
}

// WithEntityExtractionModel builds a default llmextract extractor around the
// given model.
func WithEntityExtractionModel(model llms.Model) Option {
	return func(opts *options) {
		opts.extractionModel = model
	}
}

// WithChatModel sets the model answering ChatResponse queries.
// Defaults to the entity extraction model.
func WithChatModel(model llms.Model) Option {
	return func(opts *options) {
		opts.chatModel = model
	}
}

// WithMaxDepth sets the default traversal recursion depth. Depth 0 returns
// the seeds and their direct targets. Defaults to 2.
func WithMaxDepth(depth int) Option {
	return func(opts *options) {
		opts.maxDepth = depth
	}
}

// WithIncludeSeeds sets whether traversal results include the matched seed
// entities themselves. Defaults to true.
func WithIncludeSeeds(include bool) Option {
	return func(opts *options) {
		opts.includeSeeds = include
	}
}

// WithValidation installs a $jsonSchema validator on the collection so the
// server rejects malformed entities on insert and update.
func WithValidation(validate bool) Option {
	return func(opts *options) {
		opts.validate = validate
	}
}

// WithAllowedEntityTypes constrains the entity "type" field, both in the
// extraction prompt and in the collection validator.
func WithAllowedEntityTypes(types []string) Option {
	return func(opts *options) {
		opts.allowedEntityTypes = types
	}
}

// WithAllowedRelationshipTypes constrains relationship type keys, both in
// the extraction prompt and in the collection validator.
func WithAllowedRelationshipTypes(types []string) Option {
	return func(opts *options) {
		opts.allowedRelationshipTypes = types
	}
}

// WithEntityExamples appends worked examples to the default extractor's
// entity extraction prompt.
func WithEntityExamples(examples string) Option {
	return func(opts *options) {
		opts.entityExamples = examples
	}
}

// WithNameExamples appends worked examples to the default extractor's name
// extraction prompt.
func WithNameExamples(examples string) Option {
	return func(opts *options) {
		opts.nameExamples = examples
	}
}

// WithLogger sets the logger for store operations. Logging is off by default.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}
