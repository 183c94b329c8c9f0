package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/openapi"
)

func ref(name string) *openapi.Schema {
	return &openapi.Schema{Ref: openapi.ComponentSchemaRef(name)}
}

func object(props ...any) *openapi.Schema {
	m := omap.New[*openapi.Schema]()
	for i := 0; i+1 < len(props); i += 2 {
		m.Set(props[i].(string), props[i+1].(*openapi.Schema))
	}
	return &openapi.Schema{Type: openapi.SchemaType{openapi.TypeObject}, Properties: m}
}

func resolver(schemas map[string]*openapi.Schema) Resolve {
	return func(r string) *openapi.Schema {
		return schemas[openapi.SchemaName(r)]
	}
}

func refs(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = openapi.ComponentSchemaRef(n)
	}
	return out
}

func TestBuild_DirectAndDeep(t *testing.T) {
	schemas := map[string]*openapi.Schema{
		"Pet":   object("owner", ref("Owner"), "tags", &openapi.Schema{Type: openapi.SchemaType{"array"}, Items: ref("Tag")}),
		"Owner": object("address", ref("Address")),
		"Address": {
			Type:                 openapi.SchemaType{"object"},
			AdditionalProperties: &openapi.AdditionalProperties{Schema: ref("Tag")},
		},
		"Tag": {Type: openapi.SchemaType{"string"}},
	}
	deps := Build(refs("Pet", "Owner", "Address", "Tag"), resolver(schemas))

	assert.Equal(t, refs("Owner", "Tag"), deps.Direct.Successors(openapi.ComponentSchemaRef("Pet")))
	assert.Equal(t, refs("Address"), deps.Direct.Successors(openapi.ComponentSchemaRef("Owner")))
	assert.Equal(t, refs("Tag"), deps.Direct.Successors(openapi.ComponentSchemaRef("Address")))
	assert.False(t, deps.Direct.HasNode(openapi.ComponentSchemaRef("Tag")))

	assert.Equal(t, refs("Owner", "Tag", "Address"), deps.Deep.Successors(openapi.ComponentSchemaRef("Pet")))
	assert.False(t, deps.Deep.HasNode(openapi.ComponentSchemaRef("Tag")))

	for _, r := range refs("Pet", "Owner", "Address", "Tag") {
		assert.False(t, deps.IsCircular(r), r)
	}
	assert.Empty(t, deps.Cycles())
}

func TestBuild_Cycles(t *testing.T) {
	schemas := map[string]*openapi.Schema{
		"User":   object("parent", ref("User")),
		"Author": object("posts", &openapi.Schema{Type: openapi.SchemaType{"array"}, Items: ref("Post")}),
		"Post":   {AllOf: []*openapi.Schema{ref("Author"), object("title", &openapi.Schema{Type: openapi.SchemaType{"string"}})}},
		"Leaf":   object("user", ref("User")),
	}
	deps := Build(refs("User", "Author", "Post", "Leaf"), resolver(schemas))

	assert.True(t, deps.IsCircular(openapi.ComponentSchemaRef("User")))
	assert.True(t, deps.IsCircular(openapi.ComponentSchemaRef("Author")))
	assert.True(t, deps.IsCircular(openapi.ComponentSchemaRef("Post")))
	assert.False(t, deps.IsCircular(openapi.ComponentSchemaRef("Leaf")))

	assert.Equal(t, [][]string{refs("User"), refs("Author", "Post")}, deps.Cycles())
}

func TestBuild_CycleBelowRoot(t *testing.T) {
	schemas := map[string]*openapi.Schema{
		"Root": object("a", ref("A")),
		"A":    object("b", ref("B")),
		"B":    object("a", ref("A")),
	}
	deps := Build(refs("Root"), resolver(schemas))

	assert.False(t, deps.Deep.HasNode(openapi.ComponentSchemaRef("A")))
	assert.True(t, deps.IsCircular(openapi.ComponentSchemaRef("A")))
	assert.True(t, deps.IsCircular(openapi.ComponentSchemaRef("B")))
	assert.False(t, deps.IsCircular(openapi.ComponentSchemaRef("Root")))
	assert.Equal(t, [][]string{refs("A", "B")}, deps.Cycles())
}

func TestBuild_UnresolvedRefIsLeaf(t *testing.T) {
	schemas := map[string]*openapi.Schema{
		"Pet": object("ghost", ref("Ghost")),
	}
	deps := Build(refs("Pet"), resolver(schemas))

	assert.Equal(t, refs("Ghost"), deps.Direct.Successors(openapi.ComponentSchemaRef("Pet")))
	assert.False(t, deps.Direct.HasNode(openapi.ComponentSchemaRef("Ghost")))
	assert.False(t, deps.IsCircular(openapi.ComponentSchemaRef("Pet")))
}

func TestBuild_DeepCycleTerminates(t *testing.T) {
	schemas := make(map[string]*openapi.Schema)
	var names []string
	for i := 0; i < 10; i++ {
		name := string(rune('A' + i))
		next := string(rune('A' + (i+1)%10))
		schemas[name] = object("next", ref(next))
		names = append(names, name)
	}
	deps := Build(refs(names...), resolver(schemas))

	for _, r := range refs(names...) {
		assert.True(t, deps.IsCircular(r), r)
		assert.Len(t, deps.Deep.Successors(r), 10)
	}
	require.Len(t, deps.Cycles(), 1)
	assert.Equal(t, refs(names...), deps.Cycles()[0])
}

func build(edges ...[2]string) *Graph {
	g := New()
	for _, e := range edges {
		if e[1] == "" {
			g.AddNode(e[0])
			continue
		}
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
		want []string
	}{
		{
			name: "chain",
			g:    build([2]string{"a", "b"}, [2]string{"b", "c"}),
			want: []string{"c", "b", "a"},
		},
		{
			name: "insertion order breaks ties",
			g:    build([2]string{"z", ""}, [2]string{"y", ""}, [2]string{"x", "w"}),
			want: []string{"z", "y", "w", "x"},
		},
		{
			name: "shared dependency emitted once",
			g:    build([2]string{"a", "c"}, [2]string{"b", "c"}, [2]string{"c", "d"}),
			want: []string{"d", "c", "a", "b"},
		},
		{
			name: "self cycle",
			g:    build([2]string{"a", "a"}, [2]string{"b", "a"}),
			want: []string{"a", "b"},
		},
		{
			name: "mutual cycle",
			g:    build([2]string{"a", "b"}, [2]string{"b", "a"}, [2]string{"c", "b"}),
			want: []string{"b", "a", "c"},
		},
		{
			name: "empty",
			g:    New(),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sort(tt.g))
		})
	}
}

func TestSort_DependenciesFirst(t *testing.T) {
	g := build(
		[2]string{"api", "model"},
		[2]string{"api", "util"},
		[2]string{"model", "util"},
		[2]string{"model", "types"},
		[2]string{"types", "util"},
		[2]string{"cli", "api"},
	)
	sorted := Sort(g)

	position := make(map[string]int)
	for i, n := range sorted {
		position[n] = i
	}
	require.Len(t, position, 5)
	assert.Len(t, sorted, 5)
	for _, from := range g.Nodes() {
		for _, to := range g.Successors(from) {
			assert.Less(t, position[to], position[from], "%s -> %s", from, to)
		}
	}
}
