package mongograph

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/graphrag-go/mongograph/graphs"
)

// traversalPipeline builds the aggregation pipeline for bounded-depth graph
// traversal from the seed entity IDs.
//
// Recursion follows the flattened targets array maintained on every document
// at write time: $graphLookup starts from the seeds' targets and, at each
// step, takes the matched documents' own targets and matches them against
// entity IDs. maxDepth 0 stops at the seeds' direct targets. The trailing
// stages flatten the connection arrays, deduplicate by ID, and drop the
// storage-only fields.
//
// When includeSeeds is set, the matched seed documents are unioned into the
// result, so the output is the full transitive closure including its
// starting points.
func traversalPipeline(from string, seeds []string, maxDepth int, includeSeeds bool) mongo.Pipeline {
	seedIDs := make(bson.A, 0, len(seeds))
	for _, seed := range seeds {
		seedIDs = append(seedIDs, seed)
	}

	pipeline := mongo.Pipeline{
		// Begin by finding starting points.
		{{Key: "$match", Value: bson.D{
			{Key: "ID", Value: bson.D{{Key: "$in", Value: seedIDs}}},
		}}},
		{{Key: "$graphLookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "startWith", Value: "$targets"},
			{Key: "connectFromField", Value: "targets"},
			{Key: "connectToField", Value: "ID"},
			{Key: "as", Value: "connections"},
			{Key: "maxDepth", Value: maxDepth},
		}}},
	}

	if includeSeeds {
		// Union each seed with its connections before flattening.
		pipeline = append(pipeline,
			bson.D{{Key: "$project", Value: bson.D{
				{Key: "docs", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
					bson.A{"$$ROOT"},
					"$connections",
				}}}},
			}}},
			bson.D{{Key: "$unwind", Value: "$docs"}},
			bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$docs"}}}},
			// Seed copies still carry their connections array.
			bson.D{{Key: "$unset", Value: "connections"}},
		)
	} else {
		pipeline = append(pipeline,
			bson.D{{Key: "$unwind", Value: "$connections"}},
			bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$connections"}}}},
		)
	}

	pipeline = append(pipeline,
		// Remove duplicates reached along multiple paths.
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$ID"},
			{Key: "document", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$document"}}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "targets", Value: 0},
		}}},
	)

	return pipeline
}

// dedupeByID drops entities whose ID was already seen, preserving order.
// The pipeline already groups by ID; this is a guard for results assembled
// from more than one query.
func dedupeByID(entities []graphs.Entity) []graphs.Entity {
	seen := make(map[string]struct{}, len(entities))
	out := entities[:0]
	for _, entity := range entities {
		if _, ok := seen[entity.ID]; ok {
			continue
		}
		seen[entity.ID] = struct{}{}
		out = append(out, entity)
	}
	return out
}
