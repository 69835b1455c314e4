package tablegraph

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/graphs/memory"
	"github.com/0xdezzy/tabgraph/model"
	"github.com/0xdezzy/tabgraph/property"
	"github.com/0xdezzy/tabgraph/table"
)

var errCommit = errors.New("commit refused")

// recordingStore counts transactions and can refuse a given commit.
type recordingStore struct {
	*memory.Store
	commits   [][]graphs.Entity
	failAt    int // 1-based commit to refuse, 0 for none
	attempted int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memory.New()}
}

func (s *recordingStore) Begin(ctx context.Context) (graphs.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &recordingTx{Tx: tx, store: s}, nil
}

type recordingTx struct {
	graphs.Tx
	store    *recordingStore
	entities []graphs.Entity
}

func (t *recordingTx) Create(e graphs.Entity) error {
	t.entities = append(t.entities, e)
	return t.Tx.Create(e)
}

func (t *recordingTx) Commit(ctx context.Context) error {
	t.store.attempted++
	if t.store.attempted == t.store.failAt {
		_ = t.Tx.Rollback(ctx)
		return errCommit
	}
	if err := t.Tx.Commit(ctx); err != nil {
		return err
	}
	t.store.commits = append(t.store.commits, t.entities)
	return nil
}

func newGraph(t *testing.T, s graphs.Store) *Graph {
	return New(s, WithLogger(zaptest.NewLogger(t)))
}

func personClass() *model.Schema {
	return model.MustNew("Person", "uuid",
		property.Integer("uuid").Cast().NotNull(),
		property.String("name").Cast(),
	)
}

func publicationClass() *model.Schema {
	return model.MustNew("Publication", "uuid",
		property.Integer("uuid").Cast().NotNull(),
		property.String("title").NotNull(),
	)
}

func TestCreateNodesByLabelChunked(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)

	tbl := table.MustNew([]string{"id", "name"},
		[]any{int64(1), "a"},
		[]any{int64(2), "b"},
	)
	created, err := g.CreateNodes(ctx, tbl, ByLabel("Person"), WithChunkSize(1))
	require.NoError(t, err)
	require.Len(t, created, 2)

	require.Len(t, s.commits, 2)
	assert.Len(t, s.commits[0], 1)
	assert.Len(t, s.commits[1], 1)

	n0 := created[0].GraphNode()
	assert.Equal(t, map[string]any{"id": int64(1), "name": "a"}, n0.Properties)
	assert.Equal(t, map[string]any{"id": int64(2), "name": "b"}, created[1].GraphNode().Properties)
	assert.True(t, n0.Bound())

	nodes, err := g.GetNodes(ctx, "Person")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestCreateNodesSkipsMissingCells(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, memory.New())

	tbl := table.MustNew([]string{"id", "name", "score"},
		[]any{int64(1), nil, math.NaN()},
	)
	created, err := g.CreateNodes(ctx, tbl, ByLabel("Thing"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1)}, created[0].GraphNode().Properties)
}

func TestCreateNodesChunkPartitioning(t *testing.T) {
	ctx := context.Background()

	tbl := table.MustNew([]string{"uuid"})
	for i := range 10 {
		require.NoError(t, tbl.Append(int64(i)))
	}

	tests := []struct {
		chunk int
		sizes []int
	}{
		{chunk: 0, sizes: []int{10}},
		{chunk: 3, sizes: []int{3, 3, 2, 2}},
		{chunk: 4, sizes: []int{4, 3, 3}},
		{chunk: 10, sizes: []int{10}},
		{chunk: 25, sizes: []int{10}},
	}
	for _, tt := range tests {
		s := newRecordingStore()
		g := newGraph(t, s)

		created, err := g.CreateNodes(ctx, tbl, ByModel(personClass()), WithChunkSize(tt.chunk))
		require.NoError(t, err)

		var sizes []int
		for _, c := range s.commits {
			sizes = append(sizes, len(c))
		}
		assert.Equal(t, tt.sizes, sizes, "chunk size %d", tt.chunk)

		// Concatenated chunk results keep row order.
		require.Len(t, created, 10)
		for i, e := range created {
			v, err := model.Value[int64](e, "uuid")
			require.NoError(t, err)
			assert.Equal(t, int64(i), v)
		}
	}
}

func TestCreateNodesDefaultChunkSize(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := New(s, WithDefaultChunkSize(2))

	tbl := table.MustNew([]string{"id"}, []any{int64(1)}, []any{int64(2)}, []any{int64(3)})
	_, err := g.CreateNodes(ctx, tbl, ByLabel("N"))
	require.NoError(t, err)
	assert.Len(t, s.commits, 2)

	_, err = g.CreateNodes(ctx, tbl, ByLabel("N"), WithChunkSize(0))
	require.NoError(t, err)
	assert.Len(t, s.commits, 3)
}

func TestCreateNodesEmptyTable(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)

	created, err := g.CreateNodes(ctx, table.MustNew([]string{"id"}), ByLabel("N"), WithChunkSize(5))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, s.commits)
}

func TestCreateNodesWithModel(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, memory.New())
	person := personClass()

	tbl := table.MustNew([]string{"uuid", "name", "ignored"},
		[]any{"1", 10, "x"},
	)
	created, err := g.CreateNodes(ctx, tbl, ByModel(person))
	require.NoError(t, err)
	require.Len(t, created, 1)

	inst, ok := created[0].(*model.Instance)
	require.True(t, ok)
	props, err := inst.Properties()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"uuid": int64(1), "name": "10"}, props)
	assert.NotContains(t, inst.GraphNode().Properties, "ignored")
}

func TestCreateNodesRowConstructor(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, memory.New())
	person := personClass()

	custom := model.WithConstructor(person, func(row table.Row) (model.Entity, error) {
		p := person.NewInstance()
		v, _ := row.Get("person_id")
		if err := p.Set("uuid", v); err != nil {
			return nil, err
		}
		return p, nil
	})

	tbl := table.MustNew([]string{"person_id"}, []any{int64(5)})
	created, err := g.CreateNodes(ctx, tbl, ByModel(custom))
	require.NoError(t, err)
	assert.Equal(t, int64(5), created[0].(*model.Instance).PrimaryValue())
}

type bareClass struct{}

func (bareClass) Label() string      { return "Bare" }
func (bareClass) PrimaryKey() string { return "id" }
func (bareClass) Wrap(n *graphs.Node) (model.Entity, error) {
	return n, nil
}

func TestCreateNodesUnsupportedModel(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)

	_, err := g.CreateNodes(ctx, table.MustNew([]string{"id"}, []any{int64(1)}), ByModel(bareClass{}))
	assert.ErrorIs(t, err, ErrNotSupportedModelClass)
	assert.Zero(t, s.attempted)

	_, err = g.CreateNodes(ctx, table.MustNew([]string{"id"}), ByLabel(""))
	assert.ErrorIs(t, err, ErrInvalidArgumentsConfiguration)
}

func TestCreateNodesValidationFailureStopsCall(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)

	tbl := table.MustNew([]string{"uuid"},
		[]any{int64(1)},
		[]any{int64(2)},
		[]any{"not a number"},
		[]any{int64(4)},
	)
	_, err := g.CreateNodes(ctx, tbl, ByModel(personClass()), WithChunkSize(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, property.ErrInvalidType)
	assert.Contains(t, err.Error(), "chunk 1 of 2")
	assert.Contains(t, err.Error(), "row 2")

	// The first chunk stays committed.
	assert.Len(t, s.commits, 1)
	assert.Equal(t, 2, s.NodeCount())
}

func TestCreateNodesCommitFailure(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	s.failAt = 2
	g := newGraph(t, s)

	tbl := table.MustNew([]string{"id"}, []any{int64(1)}, []any{int64(2)}, []any{int64(3)})
	_, err := g.CreateNodes(ctx, tbl, ByLabel("N"), WithChunkSize(1))
	assert.ErrorIs(t, err, errCommit)
	assert.Equal(t, 2, s.attempted)
	assert.Equal(t, 1, s.NodeCount())
}

func TestCreateGraphObjects(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)

	p := personClass().NewInstance()
	require.NoError(t, p.Set("uuid", int64(1)))
	label := graphs.NewNode("Tag", map[string]any{"name": "go"})
	rel := graphs.NewRelationship(p.GraphNode(), "TAGGED", label, nil)

	require.NoError(t, g.CreateGraphObjects(ctx, []any{p, rel}))
	assert.Len(t, s.commits, 1)
	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, s.RelationshipCount())
	assert.True(t, p.GraphNode().Bound())

	require.NoError(t, g.CreateGraphObject(ctx, graphs.NewNode("Tag", nil)))
	assert.Len(t, s.commits, 2)

	err := g.CreateGraphObjects(ctx, []any{"not an entity"})
	assert.ErrorIs(t, err, ErrNotSupportedModelClass)
	err = g.CreateGraphObject(ctx, (*graphs.Node)(nil))
	assert.ErrorIs(t, err, ErrNotSupportedModelClass)
	assert.Len(t, s.commits, 2)
}

// seedAuthors creates persons 1..3 and publications 10, 11.
func seedAuthors(t *testing.T, g *Graph) {
	t.Helper()
	ctx := context.Background()

	people := table.MustNew([]string{"uuid", "name"},
		[]any{int64(1), "p1"}, []any{int64(2), "p2"}, []any{int64(3), "p3"})
	_, err := g.CreateNodes(ctx, people, ByModel(personClass()))
	require.NoError(t, err)

	pubs := table.MustNew([]string{"uuid", "title"},
		[]any{int64(10), "Graphs"}, []any{int64(11), "Tables"})
	_, err = g.CreateNodes(ctx, pubs, ByModel(publicationClass()))
	require.NoError(t, err)
}

func TestCreateRelationships(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)
	seedAuthors(t, g)
	s.commits = nil

	authors := table.MustNew([]string{"person", "publication", "position"},
		[]any{int64(1), "Graphs", int64(1)},
		[]any{int64(2), "Graphs", nil},
		[]any{int64(1), "Tables", int64(1)},
	)
	rels, err := g.CreateRelationships(ctx, authors, "AUTHOR",
		Endpoint{Selector: ByModel(personClass()), KeyColumn: "person"},
		Endpoint{Selector: ByLabel("Publication"), KeyColumn: "publication", IDKey: "title"},
		WithChunkSize(2), WithProperties("position"),
	)
	require.NoError(t, err)
	require.Len(t, rels, 3)
	assert.Len(t, s.commits, 2)
	assert.Equal(t, 3, s.RelationshipCount())

	assert.Equal(t, int64(1), rels[0].Start.Properties["uuid"])
	assert.Equal(t, "Graphs", rels[0].End.Properties["title"])
	assert.Equal(t, map[string]any{"position": int64(1)}, rels[0].Properties)
	assert.Empty(t, rels[1].Properties)
	assert.NotEmpty(t, rels[2].ID)
}

func TestCreateRelationshipsIDKeyOverridesPrimaryKey(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, memory.New())
	seedAuthors(t, g)

	tbl := table.MustNew([]string{"name", "pub"}, []any{"p3", int64(11)})
	rels, err := g.CreateRelationships(ctx, tbl, "AUTHOR",
		Endpoint{Selector: ByModel(personClass()), KeyColumn: "name", IDKey: "name"},
		Endpoint{Selector: ByModel(publicationClass()), KeyColumn: "pub"},
	)
	require.NoError(t, err)
	assert.Equal(t, "p3", rels[0].Start.Properties["name"])
	assert.Equal(t, int64(11), rels[0].End.Properties["uuid"])
}

func TestCreateRelationshipsLargeIntegerKeys(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, memory.New())

	const big = int64(1) << 53
	people := table.MustNew([]string{"uuid", "name"}, []any{int64(1), "p1"})
	_, err := g.CreateNodes(ctx, people, ByModel(personClass()))
	require.NoError(t, err)
	pubs := table.MustNew([]string{"uuid", "title"},
		[]any{big, "Even"}, []any{big + 1, "Odd"})
	_, err = g.CreateNodes(ctx, pubs, ByModel(publicationClass()))
	require.NoError(t, err)

	tbl := table.MustNew([]string{"person", "pub"},
		[]any{int64(1), big + 1}, []any{int64(1), big})
	rels, err := g.CreateRelationships(ctx, tbl, "AUTHOR",
		Endpoint{Selector: ByModel(personClass()), KeyColumn: "person"},
		Endpoint{Selector: ByModel(publicationClass()), KeyColumn: "pub"},
	)
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, big+1, rels[0].End.Properties["uuid"])
	assert.Equal(t, "Odd", rels[0].End.Properties["title"])
	assert.Equal(t, big, rels[1].End.Properties["uuid"])
	assert.Equal(t, "Even", rels[1].End.Properties["title"])

	nodes, err := g.GetNodesForTable(ctx, table.MustNew([]string{"pub"}, []any{big + 1}, []any{big}),
		"Publication", "pub", "uuid")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Odd", nodes[0].Properties["title"])
	assert.Equal(t, "Even", nodes[1].Properties["title"])
}

func TestCreateRelationshipsMissingNode(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)
	seedAuthors(t, g)
	s.commits = nil

	tbl := table.MustNew([]string{"person", "pub"},
		[]any{int64(1), int64(10)},
		[]any{int64(42), int64(10)},
	)
	_, err := g.CreateRelationships(ctx, tbl, "AUTHOR",
		Endpoint{Selector: ByModel(personClass()), KeyColumn: "person"},
		Endpoint{Selector: ByModel(publicationClass()), KeyColumn: "pub"},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeWithIDDoesNotExist)
	assert.True(t, IsNodeNotFound(err))

	var nf *NodeNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Person", nf.Label)
	assert.Equal(t, "uuid", nf.Key)
	assert.Equal(t, int64(42), nf.Value)

	// Nothing of the failing chunk was written.
	assert.Empty(t, s.commits)
	assert.Zero(t, s.RelationshipCount())
}

func TestCreateRelationshipsMissingNodeLaterChunk(t *testing.T) {
	ctx := context.Background()
	s := newRecordingStore()
	g := newGraph(t, s)
	seedAuthors(t, g)
	s.commits = nil

	tbl := table.MustNew([]string{"person", "pub"},
		[]any{int64(1), int64(10)},
		[]any{int64(2), int64(99)},
	)
	_, err := g.CreateRelationships(ctx, tbl, "AUTHOR",
		Endpoint{Selector: ByModel(personClass()), KeyColumn: "person"},
		Endpoint{Selector: ByModel(publicationClass()), KeyColumn: "pub"},
		WithChunkSize(1),
	)
	assert.ErrorIs(t, err, ErrNodeWithIDDoesNotExist)
	assert.Len(t, s.commits, 1)
	assert.Equal(t, 1, s.RelationshipCount())
}

func TestCreateRelationshipsInvalidArguments(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, memory.New())
	tbl := table.MustNew([]string{"a", "b"}, []any{int64(1), int64(2)})

	tests := []struct {
		name     string
		relType  string
		from, to Endpoint
		opts     []CallOption
	}{
		{
			name:    "label without id key",
			relType: "R",
			from:    Endpoint{Selector: ByLabel("A"), KeyColumn: "a"},
			to:      Endpoint{Selector: ByLabel("B"), KeyColumn: "b", IDKey: "id"},
		},
		{
			name:    "unknown key column",
			relType: "R",
			from:    Endpoint{Selector: ByLabel("A"), KeyColumn: "zzz", IDKey: "id"},
			to:      Endpoint{Selector: ByLabel("B"), KeyColumn: "b", IDKey: "id"},
		},
		{
			name: "empty type",
			from: Endpoint{Selector: ByLabel("A"), KeyColumn: "a", IDKey: "id"},
			to:   Endpoint{Selector: ByLabel("B"), KeyColumn: "b", IDKey: "id"},
		},
		{
			name:    "unknown property column",
			relType: "R",
			from:    Endpoint{Selector: ByLabel("A"), KeyColumn: "a", IDKey: "id"},
			to:      Endpoint{Selector: ByLabel("B"), KeyColumn: "b", IDKey: "id"},
			opts:    []CallOption{WithProperties("since")},
		},
		{
			name:    "empty selector",
			relType: "R",
			from:    Endpoint{KeyColumn: "a", IDKey: "id"},
			to:      Endpoint{Selector: ByLabel("B"), KeyColumn: "b", IDKey: "id"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.CreateRelationships(ctx, tbl, tt.relType, tt.from, tt.to, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidArgumentsConfiguration)
		})
	}
}
