// Package influence scores how central each organization is in the funding network.
//
// An Analyzer computes degree, PageRank and closeness centrality lazily, once per
// instance, and combines them into influence tiers. Betweenness is approximated from
// degree rather than computed exactly.
package influence

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/graph"
)

// Tier buckets organizations by influence
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Connection is a neighbor ranked by relationship weight
type Connection struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Type   graph.NodeType `json:"type"`
	Weight float64        `json:"weight"`
}

// NodeInfluence is the influence profile of one organization
type NodeInfluence struct {
	NodeID                string         `json:"node_id"`
	NodeName              string         `json:"node_name"`
	NodeType              graph.NodeType `json:"node_type"`
	DegreeCentrality      float64        `json:"degree_centrality"`
	PageRank              float64        `json:"pagerank"`
	ClosenessCentrality   float64        `json:"closeness_centrality"`
	BetweennessCentrality float64        `json:"betweenness_centrality"`
	InfluenceTier         Tier           `json:"influence_tier"`
	Interpretation        string         `json:"interpretation"`
	KeyConnections        []Connection   `json:"key_connections"`
}

// Distribution summarizes influence across the whole network
type Distribution struct {
	TotalNodes       int              `json:"total_nodes"`
	TierCounts       map[Tier]int     `json:"tier_counts"`
	TierPercentages  map[Tier]float64 `json:"tier_percentages"`
	AverageDegree    float64          `json:"average_degree_centrality"`
	AveragePageRank  float64          `json:"average_pagerank"`
	AverageCloseness float64          `json:"average_closeness"`
}

// Analyzer computes and caches centralities for one network
type Analyzer struct {
	g      *graph.Network
	cfg    config.InfluenceConfig
	logger *slog.Logger

	degreeOnce    sync.Once
	degree        map[string]float64
	pageRankOnce  sync.Once
	pageRank      PageRankResult
	closenessOnce sync.Once
	closeness     map[string]float64
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithConfig sets PageRank parameters and tier thresholds
func WithConfig(cfg config.InfluenceConfig) Option {
	return func(a *Analyzer) { a.cfg = cfg }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New returns an analyzer over g. Nothing is computed until first use.
func New(g *graph.Network, opts ...Option) *Analyzer {
	a := &Analyzer{
		g:      g,
		cfg:    config.Default().Influence,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DegreeCentrality returns degree/(n-1) for every node
func (a *Analyzer) DegreeCentrality() map[string]float64 {
	a.degreeOnce.Do(func() {
		a.degree = degreeCentrality(a.g)
	})
	return a.degree
}

// PageRank returns weighted PageRank, or degree centrality when it fails to converge
func (a *Analyzer) PageRank() PageRankResult {
	a.pageRankOnce.Do(func() {
		a.pageRank = weightedPageRank(context.Background(), a.g, a.logger,
			a.cfg.DampingFactor, a.cfg.MaxIterations, a.cfg.Tolerance)
		if a.pageRank.Fallback {
			a.logger.Warn("PageRank did not converge, using degree centrality",
				slog.Int("iterations", a.pageRank.Iterations),
				slog.Int("node_count", a.g.NodeCount()))
		}
	})
	return a.pageRank
}

// ClosenessCentrality returns per-component closeness for every node
func (a *Analyzer) ClosenessCentrality() map[string]float64 {
	a.closenessOnce.Do(func() {
		a.closeness = closenessCentrality(context.Background(), a.g)
	})
	return a.closeness
}

// ApproximateBetweenness returns the degree-based proxy for betweenness of id
func (a *Analyzer) ApproximateBetweenness(id string) float64 {
	return a.DegreeCentrality()[id] * a.cfg.BetweennessScaling
}

// ScoreNodeInfluence returns the influence profile of id, or false if id is unknown
func (a *Analyzer) ScoreNodeInfluence(id string) (NodeInfluence, bool) {
	node, ok := a.g.Node(id)
	if !ok {
		return NodeInfluence{}, false
	}
	deg := a.DegreeCentrality()[id]
	pr := a.PageRank().Scores[id]
	tier := a.tier(deg, pr)
	return NodeInfluence{
		NodeID:                id,
		NodeName:              a.g.NameOf(id),
		NodeType:              node.Type,
		DegreeCentrality:      deg,
		PageRank:              pr,
		ClosenessCentrality:   a.ClosenessCentrality()[id],
		BetweennessCentrality: a.ApproximateBetweenness(id),
		InfluenceTier:         tier,
		Interpretation:        a.interpret(node, tier),
		KeyConnections:        a.keyConnections(id),
	}, true
}

// ScoreTopInfluencers returns the limit highest-PageRank organizations, optionally
// restricted to one node type. An empty nodeType means all types.
func (a *Analyzer) ScoreTopInfluencers(limit int, nodeType graph.NodeType) []NodeInfluence {
	scores := a.PageRank().Scores
	var ids []string
	for _, id := range a.g.NodeIDs() {
		if nodeType != "" {
			if n, _ := a.g.Node(id); n.Type != nodeType {
				continue
			}
		}
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return scores[ids[i]] > scores[ids[j]]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]NodeInfluence, 0, len(ids))
	for _, id := range ids {
		ni, _ := a.ScoreNodeInfluence(id)
		out = append(out, ni)
	}
	return out
}

// InfluenceDistribution counts organizations per tier and averages the centralities
func (a *Analyzer) InfluenceDistribution() Distribution {
	d := Distribution{
		TotalNodes:      a.g.NodeCount(),
		TierCounts:      map[Tier]int{TierHigh: 0, TierMedium: 0, TierLow: 0},
		TierPercentages: map[Tier]float64{TierHigh: 0, TierMedium: 0, TierLow: 0},
	}
	if d.TotalNodes == 0 {
		return d
	}

	degree := a.DegreeCentrality()
	pr := a.PageRank().Scores
	closeness := a.ClosenessCentrality()
	for _, id := range a.g.NodeIDs() {
		d.TierCounts[a.tier(degree[id], pr[id])]++
		d.AverageDegree += degree[id]
		d.AveragePageRank += pr[id]
		d.AverageCloseness += closeness[id]
	}
	n := float64(d.TotalNodes)
	for t, c := range d.TierCounts {
		d.TierPercentages[t] = float64(c) / n * 100
	}
	d.AverageDegree /= n
	d.AveragePageRank /= n
	d.AverageCloseness /= n
	return d
}

// FindBrokers returns organizations and relationships whose removal would split the
// funding network
func (a *Analyzer) FindBrokers() *graph.BrokerReport {
	return graph.ComputeBrokers(a.g)
}

func (a *Analyzer) tier(degree, pageRank float64) Tier {
	switch {
	case degree > a.cfg.HighDegree || pageRank > a.cfg.HighPageRank:
		return TierHigh
	case degree > a.cfg.MediumDegree || pageRank > a.cfg.MediumPageRank:
		return TierMedium
	default:
		return TierLow
	}
}

func (a *Analyzer) interpret(n *graph.NetworkNode, tier Tier) string {
	deg := a.g.Degree(n.ID)
	role := "funders"
	if n.Type == graph.Foundation {
		role = "grantees"
	}
	switch tier {
	case TierHigh:
		return fmt.Sprintf("%s is a central hub of the funding network with %d %s; relationships here reach much of the network.", n.Name, deg, role)
	case TierMedium:
		return fmt.Sprintf("%s is moderately connected with %d %s and can open doors within its part of the network.", n.Name, deg, role)
	default:
		return fmt.Sprintf("%s sits at the edge of the funding network with %d %s.", n.Name, deg, role)
	}
}

func (a *Analyzer) keyConnections(id string) []Connection {
	out := []Connection{}
	for nb, e := range a.g.Incident(id) {
		n, _ := a.g.Node(nb)
		out = append(out, Connection{ID: nb, Name: a.g.NameOf(nb), Type: n.Type, Weight: e.Weight})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	if a.cfg.KeyConnections > 0 && len(out) > a.cfg.KeyConnections {
		out = out[:a.cfg.KeyConnections]
	}
	return out
}
