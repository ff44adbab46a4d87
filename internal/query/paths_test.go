package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/graph"
	tf "grantnet/netintel/internal/testfixture"
)

func TestFundingPaths_FoundationToFoundation(t *testing.T) {
	e := referenceEngine(t)

	paths := e.FundingPaths(tf.Horizon, tf.Summit, 3)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{tf.Horizon, tf.TeachForAmerica, tf.Summit}, paths[0])
}

func TestFundingPaths_DepthFirstOrder(t *testing.T) {
	e := referenceEngine(t)

	paths := e.FundingPaths(tf.Horizon, tf.KIPP, 3)
	require.Len(t, paths, 2)
	assert.Equal(t, []string{tf.Horizon, tf.TeachForAmerica, tf.Cedar, tf.KIPP}, paths[0])
	assert.Equal(t, []string{tf.Horizon, tf.KIPP}, paths[1])
}

func TestFundingPaths_DefaultHops(t *testing.T) {
	e := referenceEngine(t)
	assert.Equal(t, e.FundingPaths(tf.Horizon, tf.KIPP, 3), e.FundingPaths(tf.Horizon, tf.KIPP, 0))
}

func TestFundingPaths_Empty(t *testing.T) {
	e := referenceEngine(t)

	tests := []struct {
		name           string
		source, target string
	}{
		{"same node", tf.Horizon, tf.Horizon},
		{"unknown source", "00-0000000", tf.Summit},
		{"unknown target", tf.Horizon, "00-0000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := e.FundingPaths(tt.source, tt.target, 3)
			assert.NotNil(t, paths)
			assert.Empty(t, paths)
		})
	}
}

func TestFundingPaths_Disconnected(t *testing.T) {
	b := tf.Build()
	b.Update(t.Context(), tf.IslandPayload())
	e := New(b.Network())

	assert.Empty(t, e.FundingPaths(tf.Horizon, "94-0000000", 3))
}

func TestFundingPaths_Capped(t *testing.T) {
	// one source and target joined through many intermediaries
	g := graph.NewNetwork()
	g.AddNode(&graph.NetworkNode{ID: "a", Type: graph.Foundation})
	g.AddNode(&graph.NetworkNode{ID: "b", Type: graph.Foundation})
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("g%02d", i)
		g.AddNode(&graph.NetworkNode{ID: id, Type: graph.Grantee})
		g.AddGrant("a", id, 1, 2020)
		g.AddGrant("b", id, 1, 2020)
	}

	e := New(g)
	paths := e.FundingPaths("a", "b", 3)
	assert.Len(t, paths, config.Default().Query.MaxFundingPaths)
	assert.Equal(t, []string{"a", "g00", "b"}, paths[0])

	assert.Len(t, e.SimplePaths("a", "b", 2, 0), 25)
	assert.Len(t, e.SimplePaths("a", "b", 2, 20), 20)
}

func TestSimplePaths_RespectsHopLimit(t *testing.T) {
	g := graph.NewNetwork()
	chain := []string{"f1", "g1", "f2", "g2", "f3"}
	for i, id := range chain {
		typ := graph.Foundation
		if i%2 == 1 {
			typ = graph.Grantee
		}
		g.AddNode(&graph.NetworkNode{ID: id, Type: typ})
	}
	g.AddGrant("f1", "g1", 1, 2020)
	g.AddGrant("f2", "g1", 1, 2020)
	g.AddGrant("f2", "g2", 1, 2020)
	g.AddGrant("f3", "g2", 1, 2020)

	e := New(g)
	assert.Empty(t, e.SimplePaths("f1", "f3", 3, 0))
	assert.Equal(t, [][]string{chain}, e.SimplePaths("f1", "f3", 4, 0))
	for _, p := range e.SimplePaths("f1", "g2", 3, 0) {
		assert.LessOrEqual(t, len(p)-1, 3)
	}
}

func chainNetwork(ids ...string) *graph.Network {
	g := graph.NewNetwork()
	for i, id := range ids {
		typ := graph.Foundation
		if i%2 == 1 {
			typ = graph.Grantee
		}
		g.AddNode(&graph.NetworkNode{ID: id, Type: typ})
	}
	for i := 1; i < len(ids); i++ {
		f, gr := ids[i-1], ids[i]
		if i%2 == 0 {
			f, gr = gr, f
		}
		g.AddGrant(f, gr, 1, 2020)
	}
	return g
}

func TestFundingPaths_ClampsHopsToLimit(t *testing.T) {
	g := chainNetwork("f1", "g1", "f2", "g2", "f3", "g3", "f4")

	e := New(g)
	require.Equal(t, 4, config.Default().Query.MaxHopsLimit)
	assert.Empty(t, e.FundingPaths("f1", "f4", 100), "six hops exceed the default limit")
	assert.Equal(t, [][]string{{"f1", "g1", "f2", "g2", "f3"}}, e.FundingPaths("f1", "f3", 100))

	qc := config.Default().Query
	qc.MaxHopsLimit = 6
	wide := New(g, WithQueryConfig(qc))
	assert.Len(t, wide.FundingPaths("f1", "f4", 100), 1)
}

func TestSimplePaths_UnreachableTargetInDenseNetwork(t *testing.T) {
	// every foundation funds every grantee, plus a grantee nobody funds
	g := graph.NewNetwork()
	for i := 0; i < 7; i++ {
		g.AddNode(&graph.NetworkNode{ID: fmt.Sprintf("f%d", i), Type: graph.Foundation})
		g.AddNode(&graph.NetworkNode{ID: fmt.Sprintf("g%d", i), Type: graph.Grantee})
	}
	g.AddNode(&graph.NetworkNode{ID: "island", Type: graph.Grantee})
	for i := 0; i < 7; i++ {
		for j := 0; j < 7; j++ {
			g.AddGrant(fmt.Sprintf("f%d", i), fmt.Sprintf("g%d", j), 1, 2020)
		}
	}

	e := New(g)
	assert.Empty(t, e.SimplePaths("f0", "island", 13, 0))
	assert.Empty(t, e.FundingPaths("f0", "island", 12))
	assert.Len(t, e.SimplePaths("f0", "f1", 2, 0), 7)
}
