// Package llmextract implements entity extraction backed by a language model.
//
// The extractor turns unstructured text into knowledge-graph records in two
// forms: full entities with typed relationships (used when ingesting
// documents) and bare entity names (used to pick traversal starting points
// from a query). Any llms.Model can drive it.
//
// Example usage:
//
//	model, err := openai.New(openai.WithModel("gpt-4o-mini"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	extractor, err := llmextract.New(model,
//		llmextract.WithAllowedEntityTypes([]string{"Person", "Organization"}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	entities, err := extractor.ExtractEntities(ctx, "Alice Palace is the CEO of MongoDB.")
//
// Model output is expected as JSON, optionally wrapped in a Markdown code
// fence. Scalar property values are normalized to string sets, and entities
// repeated within one document are merged before being returned.
package llmextract
