package pathfinder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/query"
	tf "grantnet/netintel/internal/testfixture"
)

func referencePathfinder(t *testing.T) *Pathfinder {
	t.Helper()
	return New(query.New(tf.Build().Network()))
}

func TestFindBoardPathways_GranteeIntermediary(t *testing.T) {
	p := referencePathfinder(t)

	pathways := p.FindBoardPathways(tf.Horizon, tf.Summit)
	require.Len(t, pathways, 1)

	pw := pathways[0]
	assert.Equal(t, []string{tf.Horizon, tf.TeachForAmerica, tf.Summit}, pw.Path)
	assert.Equal(t, []string{"Horizon Education Foundation", "Teach For America", "Summit Philanthropies"}, pw.PathNames)
	assert.Equal(t, 2, pw.PathLength)
	assert.InDelta(t, 0.7*1_200_000+0.3*900_000, pw.PathStrength, 1e-6)
	assert.Equal(t,
		"Horizon Education Foundation funds Teach For America ($1,500,000) → Summit Philanthropies funds Teach For America ($900,000)",
		pw.PathDescription)
	assert.Contains(t, pw.CultivationStrategy, "Leverage Teach For America as a reference")
}

func TestFindBoardPathways_FoundationIntermediary(t *testing.T) {
	p := referencePathfinder(t)

	pathways := p.FindBoardPathways(tf.TeachForAmerica, tf.CityYear)
	require.Len(t, pathways, 2)
	assert.Equal(t, tf.Horizon, pathways[0].Path[1])
	assert.Equal(t, tf.Bridgeway, pathways[1].Path[1])
	assert.Greater(t, pathways[0].PathStrength, pathways[1].PathStrength)
	assert.Contains(t, pathways[0].CultivationStrategy, "Build a relationship with Horizon Education Foundation")
}

func TestFindBoardPathways_DirectBeatsLonger(t *testing.T) {
	p := referencePathfinder(t)

	pathways := p.FindBoardPathways(tf.Horizon, tf.KIPP)
	require.Len(t, pathways, 2)

	direct := pathways[0]
	assert.Equal(t, []string{tf.Horizon, tf.KIPP}, direct.Path)
	assert.Equal(t, 1, direct.PathLength)
	assert.InDelta(t, 1_000_000.0, direct.PathStrength, 1e-6)
	assert.Contains(t, direct.CultivationStrategy, "Direct approach")

	staged := pathways[1]
	assert.Equal(t, 3, staged.PathLength)
	assert.InDelta(t, 0.7*(1_900_000.0/3)+0.3*150_000, staged.PathStrength, 1e-6)
	assert.Contains(t, staged.CultivationStrategy, "3 hops")
}

func TestFindBoardPathways_NoPathWithinHops(t *testing.T) {
	b := tf.Build()
	b.Update(t.Context(), tf.IslandPayload())
	p := New(query.New(b.Network()))

	pathways := p.FindBoardPathways(tf.Horizon, "94-0000000")
	assert.NotNil(t, pathways)
	assert.Empty(t, pathways)
}

func TestFindBoardPathways_SelfAndUnknown(t *testing.T) {
	p := referencePathfinder(t)
	assert.Empty(t, p.FindBoardPathways(tf.Horizon, tf.Horizon))
	assert.Empty(t, p.FindBoardPathways(tf.Horizon, "00-0000000"))
}

func fanNetwork(n int, weight func(i int) float64) *graph.Network {
	g := graph.NewNetwork()
	g.AddNode(&graph.NetworkNode{ID: "a", Type: graph.Foundation, Name: "A"})
	g.AddNode(&graph.NetworkNode{ID: "b", Type: graph.Foundation, Name: "B"})
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("g%02d", i)
		g.AddNode(&graph.NetworkNode{ID: id, Type: graph.Grantee, Name: id})
		g.AddGrant("a", id, weight(i), 2020)
		g.AddGrant("b", id, weight(i), 2020)
	}
	return g
}

func TestFindBoardPathways_TopFiveByStrength(t *testing.T) {
	g := fanNetwork(8, func(i int) float64 { return float64(100 * (i + 1)) })
	pathways := New(query.New(g)).FindBoardPathways("a", "b")

	require.Len(t, pathways, config.Default().Pathfinding.TopPaths)
	assert.Equal(t, "g07", pathways[0].Path[1])
	for i := 1; i < len(pathways); i++ {
		assert.Greater(t, pathways[i-1].PathStrength, pathways[i].PathStrength)
	}
}

func TestFindBoardPathways_TiesBreakLexicographically(t *testing.T) {
	g := fanNetwork(30, func(int) float64 { return 1 })
	pathways := New(query.New(g)).FindBoardPathways("a", "b")

	require.Len(t, pathways, 5)
	for i, pw := range pathways {
		assert.Equal(t, fmt.Sprintf("g%02d", i), pw.Path[1])
	}
}

func TestStrength_ZeroWeightParticipates(t *testing.T) {
	g := graph.NewNetwork()
	g.AddNode(&graph.NetworkNode{ID: "f1", Type: graph.Foundation, Name: "F1"})
	g.AddNode(&graph.NetworkNode{ID: "f2", Type: graph.Foundation, Name: "F2"})
	g.AddNode(&graph.NetworkNode{ID: "g", Type: graph.Grantee, Name: "G"})
	g.AddGrant("f1", "g", 100, 2020)
	g.AddGrant("f2", "g", 0, 2021)

	pathways := New(query.New(g)).FindBoardPathways("f1", "f2")
	require.Len(t, pathways, 1)
	assert.InDelta(t, 0.7*50, pathways[0].PathStrength, 1e-9)
	assert.Equal(t, "F1 funds G ($100) → F2 funds G ($0)", pathways[0].PathDescription)
}

func TestWithConfig_CustomWeights(t *testing.T) {
	g := fanNetwork(1, func(int) float64 { return 10 })
	cfg := config.Default().Pathfinding
	cfg.AverageWeight, cfg.MinimumWeight = 1, 0

	pathways := New(query.New(g), WithConfig(cfg)).FindBoardPathways("a", "b")
	require.Len(t, pathways, 1)
	assert.InDelta(t, 10.0, pathways[0].PathStrength, 1e-9)
}
