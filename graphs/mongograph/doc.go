// Package mongograph provides a MongoDB-backed knowledge-graph store for
// GraphRAG.
//
// Where Vector RAG compares embeddings, Graph RAG converts both the ingested
// documents and the incoming query into graphs of entities (nodes) and
// relationships (edges). Each entity is stored as a single MongoDB document;
// relationships live in an embedded field keyed by relationship type. At
// query time the store extracts entity names from the query, then walks the
// graph from those starting points with $graphLookup, and the connected
// entities become the context handed to the chat model.
//
// Features:
//   - Additive, idempotent ingestion: re-extracting a fact never duplicates
//     it, and an entity's ID and type are never overwritten once stored
//   - Bounded-depth, cycle-safe traversal with dedup by entity ID
//   - Pluggable entity extraction (any llms.Model via the llmextract package,
//     or a custom graphs.EntityExtractor)
//   - Optional server-side $jsonSchema validation, with entity and
//     relationship type constraints
//
// Example usage:
//
//	model, err := openai.New(openai.WithModel("gpt-4o-mini"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store, err := mongograph.New(ctx,
//		mongograph.WithConnectionString("mongodb://localhost:27017"),
//		mongograph.WithDatabaseName("graphrag"),
//		mongograph.WithCollectionName("entities"),
//		mongograph.WithEntityExtractionModel(model),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close(ctx)
//
//	// Ingest documents into the knowledge graph.
//	_, err = store.AddDocuments(ctx, []schema.Document{
//		{PageContent: "ACME Corporation partnered with GreenTech Ltd. in 2021."},
//	})
//
//	// Answer multi-hop questions from the graph.
//	answer, err := store.ChatResponse(ctx,
//		"What is the connection between ACME Corporation and GreenTech Ltd.?")
//
// Multi-hop questions are where GraphRAG earns its keep:
//   - What is the connection between ACME Corporation and GreenTech Ltd.?
//   - Who is leading the SolarGrid Initiative, and what is their role?
//   - Which company is headquartered in San Francisco and involved in the
//     SolarGrid Initiative?
package mongograph
