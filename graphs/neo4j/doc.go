// Package neo4j provides a graphs.Store backed by a Neo4j server.
//
// Writes are batched: a transaction queues nodes and relationships and sends
// them on commit as UNWIND statements, one per label set or relationship type,
// inside a single managed write transaction. Nodes and relationships are
// identified by their elementId.
//
// Basic usage:
//
//	store, err := neo4j.New(ctx,
//		neo4j.WithConnectionURL("bolt://localhost:7687"),
//		neo4j.WithCredentials("neo4j", "password"),
//		neo4j.WithBatchSize(500),
//	)
//	if err != nil {
//		return err
//	}
//	defer store.Close(ctx)
//
//	g := tablegraph.New(store)
//
// Connection settings not given as options are read from NEO4J_URI,
// NEO4J_USERNAME, NEO4J_PASSWORD and NEO4J_DATABASE.
package neo4j
