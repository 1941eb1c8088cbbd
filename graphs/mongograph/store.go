package mongograph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/graphrag-go/mongograph/graphs"
	"github.com/graphrag-go/mongograph/graphs/llmextract"
)

var (
	ErrExtractorNotSet = fmt.Errorf("entity extractor not set - provide WithExtractor or WithEntityExtractionModel")
	ErrChatModelNotSet = fmt.Errorf("chat model not set - provide WithChatModel or WithEntityExtractionModel")
	ErrConnectFailed   = fmt.Errorf("failed to connect to MongoDB")
)

// Store is a MongoDB-backed knowledge-graph entity store.
//
// Each entity is one document in the collection, keyed by its ID field.
// Upserts merge new facts into existing entities without overwriting what is
// already stored, and traversal runs server-side with $graphLookup.
type Store struct {
	client     *mongo.Client
	ownsClient bool
	coll       *mongo.Collection

	extractor graphs.EntityExtractor
	chatModel llms.Model

	opts   *options
	logger *slog.Logger
}

var _ graphs.EntityStore = (*Store)(nil)

// New creates a MongoDB entity store.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	options := newOptions(opts...)

	extractor := options.extractor
	if extractor == nil {
		if options.extractionModel == nil {
			return nil, ErrExtractorNotSet
		}
		var err error
		extractor, err = llmextract.New(options.extractionModel, extractorOptions(options)...)
		if err != nil {
			return nil, fmt.Errorf("failed to build default extractor: %w", err)
		}
	}

	chatModel := options.chatModel
	if chatModel == nil {
		chatModel = options.extractionModel
	}

	client := options.client
	ownsClient := false
	if client == nil {
		var err error
		client, err = mongo.Connect(mongooptions.Client().ApplyURI(options.uri))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
		}
		ownsClient = true

		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
		}
	}

	store := &Store{
		client:     client,
		ownsClient: ownsClient,
		coll:       client.Database(options.databaseName).Collection(options.collectionName),
		extractor:  extractor,
		chatModel:  chatModel,
		opts:       options,
		logger:     options.logger,
	}

	if options.validate {
		if err := store.EnsureValidator(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
	}

	return store, nil
}

// extractorOptions translates store-level extraction settings into options
// for the default extractor.
func extractorOptions(opts *options) []llmextract.Option {
	var out []llmextract.Option
	if opts.entityExamples != "" {
		out = append(out, llmextract.WithEntityExamples(opts.entityExamples))
	}
	if opts.nameExamples != "" {
		out = append(out, llmextract.WithNameExamples(opts.nameExamples))
	}
	if len(opts.allowedEntityTypes) > 0 {
		out = append(out, llmextract.WithAllowedEntityTypes(opts.allowedEntityTypes))
	}
	if len(opts.allowedRelationshipTypes) > 0 {
		out = append(out, llmextract.WithAllowedRelationshipTypes(opts.allowedRelationshipTypes))
	}
	return out
}

// Close disconnects the client if the store owns it.
func (s *Store) Close(ctx context.Context) error {
	if !s.ownsClient || s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	return err
}

// callOptions builds per-call options starting from the store defaults.
func (s *Store) callOptions(options ...graphs.Option) *graphs.Options {
	opts := &graphs.Options{
		MaxDepth:     s.opts.maxDepth,
		IncludeSeeds: s.opts.includeSeeds,
		BatchSize:    100,
	}
	for _, opt := range options {
		opt(opts)
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = s.opts.maxDepth
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return opts
}

// AddDocuments extracts entities from each document and upserts them into
// the collection, one bulk write per source document.
//
// The upsert never clobbers stored facts: ID and type are written only on
// insert, and every property value and relationship descriptor is added with
// set semantics, so re-ingesting a document is a no-op.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...graphs.Option) ([]graphs.WriteSummary, error) {
	opts := s.callOptions(options...)

	summaries := make([]graphs.WriteSummary, 0, len(docs))
	for _, doc := range docs {
		entities, err := s.extractor.ExtractEntities(ctx, doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("entity extraction failed: %w", err)
		}
		entities = graphs.DedupeEntities(entities)

		sourceID := ""
		if opts.IncludeSource {
			sourceID = sourceDocumentID(doc)
		}

		models := make([]mongo.WriteModel, 0, len(entities))
		for _, entity := range entities {
			if err := entity.Validate(); err != nil {
				return nil, fmt.Errorf("entity %q: %w", entity.ID, err)
			}
			filter, update := buildUpsert(entity, sourceID)
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(filter).
				SetUpdate(update).
				SetUpsert(true))
		}

		summary, err := s.bulkWrite(ctx, models, opts.BatchSize)
		if err != nil {
			return nil, err
		}

		s.logger.DebugContext(ctx, "upserted entities",
			"entities", len(entities),
			"matched", summary.MatchedCount,
			"modified", summary.ModifiedCount,
			"upserted", summary.UpsertedCount,
		)
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// bulkWrite executes the write models in batches of at most batchSize and
// accumulates the results.
func (s *Store) bulkWrite(ctx context.Context, models []mongo.WriteModel, batchSize int) (graphs.WriteSummary, error) {
	var summary graphs.WriteSummary
	for start := 0; start < len(models); start += batchSize {
		end := start + batchSize
		if end > len(models) {
			end = len(models)
		}
		result, err := s.coll.BulkWrite(ctx, models[start:end])
		if err != nil {
			return graphs.WriteSummary{}, fmt.Errorf("bulk write failed: %w", err)
		}
		summary.MatchedCount += result.MatchedCount
		summary.ModifiedCount += result.ModifiedCount
		summary.UpsertedCount += result.UpsertedCount
	}
	return summary, nil
}

// buildUpsert constructs the filter and update documents merging one entity
// into the collection. $setOnInsert pins identity fields on first insert;
// $addToSet with $each unions properties, relationship descriptors, and the
// flattened targets array that traversal recurses on. Keys are emitted in
// sorted order for stable output.
func buildUpsert(entity graphs.Entity, sourceID string) (bson.D, bson.D) {
	filter := bson.D{{Key: "ID", Value: entity.ID}}

	setOnInsert := bson.D{
		{Key: "ID", Value: entity.ID},
		{Key: "type", Value: entity.Type},
	}

	addToSet := bson.D{}
	for _, key := range sortedKeys(entity.Properties) {
		addToSet = append(addToSet, bson.E{
			Key:   "properties." + key,
			Value: bson.D{{Key: "$each", Value: entity.Properties[key]}},
		})
	}
	for _, key := range sortedKeys(entity.Relationships) {
		addToSet = append(addToSet, bson.E{
			Key:   "relationships." + key,
			Value: bson.D{{Key: "$each", Value: entity.Relationships[key]}},
		})
	}
	if targets := relationshipTargets(entity); len(targets) > 0 {
		addToSet = append(addToSet, bson.E{
			Key:   "targets",
			Value: bson.D{{Key: "$each", Value: targets}},
		})
	}
	if sourceID != "" {
		addToSet = append(addToSet, bson.E{Key: "sources", Value: sourceID})
	}

	update := bson.D{{Key: "$setOnInsert", Value: setOnInsert}}
	if len(addToSet) > 0 {
		update = append(update, bson.E{Key: "$addToSet", Value: addToSet})
	}

	return filter, update
}

// relationshipTargets flattens the entity's relationship targets into a
// sorted, deduplicated list. Stored alongside the typed relationships so
// $graphLookup can follow edges without knowing the relationship type keys.
func relationshipTargets(entity graphs.Entity) []string {
	var targets graphs.Values
	for _, rels := range entity.Relationships {
		for _, rel := range rels {
			targets = targets.Add(rel.Target)
		}
	}
	sort.Strings(targets)
	return targets
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// sourceDocumentID returns the document's metadata "id" when present,
// otherwise a UUID derived from the content, so re-ingesting the same
// document tags entities with the same source and stays a no-op.
func sourceDocumentID(doc schema.Document) string {
	if id, ok := doc.Metadata["id"].(string); ok && id != "" {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(doc.PageContent)).String()
}

// ExtractEntities runs the store's extractor on the document.
func (s *Store) ExtractEntities(ctx context.Context, document string) ([]graphs.Entity, error) {
	return s.extractor.ExtractEntities(ctx, document)
}

// ExtractEntityNames runs the store's extractor on the document, returning
// entity identifiers only.
func (s *Store) ExtractEntityNames(ctx context.Context, document string) ([]string, error) {
	return s.extractor.ExtractEntityNames(ctx, document)
}

// FindEntityByName returns entities whose ID matches name exactly.
func (s *Store) FindEntityByName(ctx context.Context, name string) ([]graphs.Entity, error) {
	cursor, err := s.coll.Find(ctx, bson.D{{Key: "ID", Value: name}})
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}

	var entities []graphs.Entity
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}
	return entities, nil
}

// RelatedEntities traverses relationship edges from the seed IDs and returns
// the connected entities, deduplicated by ID.
//
// Traversal runs server-side with $graphLookup, which is cycle-safe and
// bounded by the configured depth. An empty seed list returns an empty
// result without querying.
func (s *Store) RelatedEntities(ctx context.Context, seeds []string, options ...graphs.Option) ([]graphs.Entity, error) {
	if len(seeds) == 0 {
		return []graphs.Entity{}, nil
	}
	opts := s.callOptions(options...)

	pipeline := traversalPipeline(s.coll.Name(), seeds, opts.MaxDepth, opts.IncludeSeeds)
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("graph traversal failed: %w", err)
	}

	var entities []graphs.Entity
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("failed to decode traversal results: %w", err)
	}
	entities = dedupeByID(entities)

	s.logger.DebugContext(ctx, "traversed graph",
		"seeds", len(seeds),
		"maxDepth", opts.MaxDepth,
		"entities", len(entities),
	)
	return entities, nil
}

// SimilaritySearch extracts entity names from the input and returns the
// entities connected to them in the graph.
func (s *Store) SimilaritySearch(ctx context.Context, input string, options ...graphs.Option) ([]graphs.Entity, error) {
	seeds, err := s.extractor.ExtractEntityNames(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("entity name extraction failed: %w", err)
	}
	return s.RelatedEntities(ctx, seeds, options...)
}

// ChatResponse answers a query using entities retrieved from the graph as
// context. The chat model defaults to the entity extraction model.
func (s *Store) ChatResponse(ctx context.Context, query string, options ...graphs.Option) (string, error) {
	if s.chatModel == nil {
		return "", ErrChatModelNotSet
	}

	related, err := s.SimilaritySearch(ctx, query, options...)
	if err != nil {
		return "", err
	}

	relatedJSON, err := json.MarshalIndent(related, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode related entities: %w", err)
	}

	system, err := llmextract.RAGSystemPrompt(string(relatedJSON))
	if err != nil {
		return "", err
	}

	response, err := s.chatModel.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	})
	if err != nil {
		return "", fmt.Errorf("chat model invocation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat model returned an empty response")
	}
	return response.Choices[0].Content, nil
}

// EnsureValidator installs the $jsonSchema validator on the collection,
// creating the collection if needed.
func (s *Store) EnsureValidator(ctx context.Context) error {
	validator := bson.D{{Key: "$jsonSchema", Value: entitySchema(s.opts.allowedEntityTypes, s.opts.allowedRelationshipTypes)}}

	db := s.coll.Database()
	createOpts := mongooptions.CreateCollection().SetValidator(validator)
	if err := db.CreateCollection(ctx, s.coll.Name(), createOpts); err == nil {
		return nil
	}

	// Collection already exists; update its validator in place.
	cmd := bson.D{
		{Key: "collMod", Value: s.coll.Name()},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to install entity validator: %w", err)
	}
	return nil
}
