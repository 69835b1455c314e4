package tablegraph_test

import (
	"context"
	"fmt"

	"github.com/0xdezzy/tabgraph/graphs/memory"
	"github.com/0xdezzy/tabgraph/model"
	"github.com/0xdezzy/tabgraph/property"
	"github.com/0xdezzy/tabgraph/table"
	"github.com/0xdezzy/tabgraph/tablegraph"
)

func Example() {
	ctx := context.Background()
	g := tablegraph.New(memory.New())

	person := model.MustNew("Person", "id",
		property.Integer("id").Cast().NotNull(),
		property.String("name"),
	)

	people := table.MustNew([]string{"id", "name"},
		[]any{"1", "Ada"},
		[]any{"2", "Grace"},
	)
	if _, err := g.CreateNodes(ctx, people, tablegraph.ByModel(person), tablegraph.WithChunkSize(1)); err != nil {
		fmt.Println(err)
		return
	}

	friends := table.MustNew([]string{"a", "b", "since"}, []any{int64(1), int64(2), int64(1843)})
	if _, err := g.CreateRelationships(ctx, friends, "KNOWS",
		tablegraph.Endpoint{Selector: tablegraph.ByModel(person), KeyColumn: "a"},
		tablegraph.Endpoint{Selector: tablegraph.ByModel(person), KeyColumn: "b"},
		tablegraph.WithProperties("since"),
	); err != nil {
		fmt.Println(err)
		return
	}

	out, err := g.GetTableForRelationship(ctx, "KNOWS", "name", "name", nil, false)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out.Columns())
	fmt.Println(out.Values())
	// Output:
	// [name_from name_to]
	// [[Ada Grace]]
}
