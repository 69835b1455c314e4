// Package tablegraph synchronizes tabular data with a property graph.
//
// A Graph wraps a graphs.Store and maps table rows to nodes and
// relationships. Rows are written in chunks, each chunk in its own
// transaction:
//
//	g := tablegraph.New(store, tablegraph.WithLogger(logger))
//
//	people, err := g.CreateNodes(ctx, peopleTable, tablegraph.ByModel(person),
//		tablegraph.WithChunkSize(500))
//
//	rels, err := g.CreateRelationships(ctx, authorsTable, "AUTHOR",
//		tablegraph.Endpoint{Selector: tablegraph.ByModel(person), KeyColumn: "author"},
//		tablegraph.Endpoint{Selector: tablegraph.ByLabel("Publication"), KeyColumn: "title", IDKey: "title"},
//	)
//
// Nodes are selected either by a bare label, producing generic nodes with one
// property per present cell, or by a model.Class, producing model instances
// whose properties are validated by their descriptors.
//
// Reading goes the other way: GetNodesForTable, GetModelsForTable and
// GetRelationshipsForTable match table rows to existing graph entities, and
// GetTableForModels, GetTableForLabel and GetTableForRelationship dump graph
// entities into tables.
//
// Calls are synchronous. A failed chunk stops the call and earlier chunks
// remain committed; nothing is retried.
package tablegraph
