package influence

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/graph"
	tf "grantnet/netintel/internal/testfixture"
)

func referenceAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	return New(tf.Build().Network())
}

func pathNetwork() *graph.Network {
	g := graph.NewNetwork()
	g.AddNode(&graph.NetworkNode{ID: "f1", Type: graph.Foundation, Name: "F1"})
	g.AddNode(&graph.NetworkNode{ID: "f2", Type: graph.Foundation, Name: "F2"})
	g.AddNode(&graph.NetworkNode{ID: "g1", Type: graph.Grantee, Name: "G1"})
	g.AddGrant("f1", "g1", 100, 2020)
	g.AddGrant("f2", "g1", 300, 2021)
	return g
}

func TestScoreTopInfluencers_Reference(t *testing.T) {
	a := referenceAnalyzer(t)

	top := a.ScoreTopInfluencers(5, "")
	require.Len(t, top, 5)
	for i, ni := range top {
		assert.Contains(t, []Tier{TierHigh, TierMedium, TierLow}, ni.InfluenceTier)
		assert.NotEmpty(t, ni.Interpretation)
		if i > 0 {
			assert.GreaterOrEqual(t, top[i-1].PageRank, ni.PageRank)
		}
	}
	assert.Equal(t, tf.TeachForAmerica, top[0].NodeID)
}

func TestScoreTopInfluencers_TypeFilter(t *testing.T) {
	a := referenceAnalyzer(t)

	foundations := a.ScoreTopInfluencers(10, graph.Foundation)
	require.Len(t, foundations, 5)
	for _, ni := range foundations {
		assert.Equal(t, graph.Foundation, ni.NodeType)
	}

	all := a.ScoreTopInfluencers(0, "")
	assert.Len(t, all, 15)
}

func TestScoreNodeInfluence(t *testing.T) {
	a := referenceAnalyzer(t)

	ni, ok := a.ScoreNodeInfluence(tf.TeachForAmerica)
	require.True(t, ok)
	assert.Equal(t, "Teach For America", ni.NodeName)
	assert.Equal(t, graph.Grantee, ni.NodeType)
	assert.InDelta(t, 5.0/14.0, ni.DegreeCentrality, 1e-12)
	assert.InDelta(t, ni.DegreeCentrality*0.5, ni.BetweennessCentrality, 1e-12)
	assert.Greater(t, ni.ClosenessCentrality, 0.0)

	require.Len(t, ni.KeyConnections, 5)
	assert.Equal(t, tf.Horizon, ni.KeyConnections[0].ID)
	assert.Equal(t, 1_500_000.0, ni.KeyConnections[0].Weight)
	for i := 1; i < len(ni.KeyConnections); i++ {
		assert.GreaterOrEqual(t, ni.KeyConnections[i-1].Weight, ni.KeyConnections[i].Weight)
	}

	_, ok = a.ScoreNodeInfluence("00-0000000")
	assert.False(t, ok)
}

func TestTiers(t *testing.T) {
	a := New(graph.NewNetwork())
	tests := []struct {
		degree, pageRank float64
		want             Tier
	}{
		{0.71, 0, TierHigh},
		{0, 0.051, TierHigh},
		{0.41, 0, TierMedium},
		{0, 0.021, TierMedium},
		{0.7, 0.05, TierMedium},
		{0.4, 0.02, TierLow},
		{0, 0, TierLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.tier(tt.degree, tt.pageRank), "degree=%v pagerank=%v", tt.degree, tt.pageRank)
	}
}

func TestPageRank_SumsToOne(t *testing.T) {
	res := referenceAnalyzer(t).PageRank()
	require.True(t, res.Converged)
	assert.False(t, res.Fallback)

	var sum float64
	for _, s := range res.Scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestPageRank_WeightedTowardsHeavierEdge(t *testing.T) {
	res := New(pathNetwork()).PageRank()
	require.False(t, res.Fallback)
	assert.Greater(t, res.Scores["g1"], res.Scores["f2"])
	assert.Greater(t, res.Scores["f2"], res.Scores["f1"])
}

func TestPageRank_FallsBackToDegree(t *testing.T) {
	cfg := config.Default().Influence
	cfg.MaxIterations = 1

	a := New(tf.Build().Network(), WithConfig(cfg))
	res := a.PageRank()
	assert.True(t, res.Fallback)
	assert.False(t, res.Converged)
	assert.Equal(t, a.DegreeCentrality(), res.Scores)

	top := a.ScoreTopInfluencers(5, "")
	require.Len(t, top, 5)
	assert.Equal(t, tf.TeachForAmerica, top[0].NodeID)
}

func TestSingleNode(t *testing.T) {
	g := graph.NewNetwork()
	g.AddNode(&graph.NetworkNode{ID: "solo", Type: graph.Foundation, Name: "Solo"})
	a := New(g)

	ni, ok := a.ScoreNodeInfluence("solo")
	require.True(t, ok)
	assert.Equal(t, 1.0, ni.DegreeCentrality)
	assert.InDelta(t, 1.0, ni.PageRank, 1e-12)
	assert.Zero(t, ni.ClosenessCentrality)
	assert.Empty(t, ni.KeyConnections)
}

func TestEmptyNetwork(t *testing.T) {
	a := New(graph.NewNetwork())
	assert.Empty(t, a.ScoreTopInfluencers(5, ""))
	d := a.InfluenceDistribution()
	assert.Zero(t, d.TotalNodes)
	assert.Zero(t, d.TierCounts[TierHigh])
}

func TestClosenessCentrality_PerComponent(t *testing.T) {
	g := pathNetwork()
	g.AddNode(&graph.NetworkNode{ID: "f9", Type: graph.Foundation})
	g.AddNode(&graph.NetworkNode{ID: "g9", Type: graph.Grantee})
	g.AddGrant("f9", "g9", 10, 2020)
	g.AddNode(&graph.NetworkNode{ID: "lonely", Type: graph.Grantee})

	c := New(g).ClosenessCentrality()
	assert.InDelta(t, 1.0, c["g1"], 1e-12)
	assert.InDelta(t, 2.0/3.0, c["f1"], 1e-12)
	assert.InDelta(t, 1.0, c["f9"], 1e-12)
	assert.Zero(t, c["lonely"])
}

func TestInfluenceDistribution(t *testing.T) {
	d := referenceAnalyzer(t).InfluenceDistribution()

	assert.Equal(t, 15, d.TotalNodes)
	total := 0
	var pct float64
	for _, tier := range []Tier{TierHigh, TierMedium, TierLow} {
		total += d.TierCounts[tier]
		pct += d.TierPercentages[tier]
	}
	assert.Equal(t, 15, total)
	assert.InDelta(t, 100.0, pct, 1e-9)
	assert.InDelta(t, 1.0/15.0, d.AveragePageRank, 1e-6)
	assert.InDelta(t, (36.0/15.0)/14.0, d.AverageDegree, 1e-12)
}

func TestFindBrokers_Reference(t *testing.T) {
	report := referenceAnalyzer(t).FindBrokers()

	ids := make(map[string]bool)
	for _, b := range report.Brokers {
		ids[b.ID] = true
	}
	// single-funder grantees hang off their funder, so each such funder is a broker
	assert.True(t, ids[tf.Cedar])
	assert.True(t, ids[tf.Lakeshore])
	assert.False(t, ids[tf.TeachForAmerica])
	assert.Equal(t, len(report.Brokers), report.BrokerCount)
	assert.Equal(t, len(report.Bridges), report.BridgeCount)
}

func TestAnalyzer_ConcurrentFirstUse(t *testing.T) {
	a := referenceAnalyzer(t)

	var wg sync.WaitGroup
	results := make([][]NodeInfluence, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.ScoreTopInfluencers(3, "")
		}(i)
	}
	wg.Wait()
	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}

func TestPageRank_LogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := New(tf.Build().Network(), WithLogger(logger))
	require.True(t, a.PageRank().Converged)
	assert.Contains(t, buf.String(), "PageRank completed")
	assert.Contains(t, buf.String(), "converged=true")
}
