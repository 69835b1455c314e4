// Package kuzu provides a graphs.Store backed by an embedded KuzuDB database.
//
// KuzuDB is schema-first: every label is a node table and every relationship
// type a relationship table. The store creates tables on first use and adds
// a column the first time a property appears, with the column type taken
// from the value (INT64, DOUBLE, STRING, BOOL or a list of those). Nodes
// carry exactly one label. Element ids have the form "<table>:<uuid>" and
// live in the _eid primary key column.
//
// Example usage:
//
//	store, err := kuzu.New(ctx, kuzu.WithInMemory(true))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close(ctx)
//
//	g := tablegraph.New(store)
//	_, err = g.CreateNodes(ctx, people, tablegraph.ByLabel("Person"))
//
// Table changes run before the data transaction of a commit and stay in
// place when that transaction fails. Empty lists cannot be typed and are
// stored as unset properties.
package kuzu
