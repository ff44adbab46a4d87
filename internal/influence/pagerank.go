package influence

import (
	"context"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/metrics"
)

var tracer = otel.Tracer("grantnet.influence")

// PageRankResult holds the scores of one PageRank run
type PageRankResult struct {
	Scores     map[string]float64
	Iterations int
	Converged  bool
	// Fallback is set when Scores hold degree centrality because the iteration
	// did not converge or produced non-finite values.
	Fallback bool
}

// weightedPageRank runs power iteration over the undirected network, splitting each
// node's score among its neighbors in proportion to edge weight. Nodes with no
// positive-weight edges are dangling and their mass is spread uniformly.
func weightedPageRank(ctx context.Context, g *graph.Network, logger *slog.Logger, damping float64, maxIter int, tol float64) PageRankResult {
	_, span := tracer.Start(ctx, "influence.PageRank",
		trace.WithAttributes(
			attribute.Int("node_count", g.NodeCount()),
			attribute.Int("edge_count", g.EdgeCount()),
			attribute.Float64("damping_factor", damping),
			attribute.Int("max_iterations", maxIter),
		),
	)
	defer span.End()

	ids := g.NodeIDs()
	n := len(ids)
	if n == 0 {
		span.AddEvent("empty_graph")
		return PageRankResult{Scores: map[string]float64{}, Converged: true}
	}

	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}

	// strength[i] is the total edge weight at node i
	type link struct {
		to     int
		weight float64
	}
	links := make([][]link, n)
	strength := make([]float64, n)
	for i, id := range ids {
		for _, nb := range g.Neighbors(id) {
			e, _ := g.Edge(id, nb)
			if e.Weight <= 0 {
				continue
			}
			links[i] = append(links[i], link{to: index[nb], weight: e.Weight})
			strength[i] += e.Weight
		}
	}

	N := float64(n)
	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1 / N
	}

	var (
		iterations int
		converged  bool
		diff       float64
	)
	for iter := 0; iter < maxIter; iter++ {
		dangling := 0.0
		for i := range scores {
			if strength[i] == 0 {
				dangling += scores[i]
			}
		}
		base := (1-damping)/N + damping*dangling/N
		for i := range next {
			next[i] = base
		}
		for i, out := range links {
			if strength[i] == 0 {
				continue
			}
			share := damping * scores[i] / strength[i]
			for _, l := range out {
				next[l.to] += share * l.weight
			}
		}

		diff = 0
		for i := range next {
			diff += math.Abs(next[i] - scores[i])
		}
		scores, next = next, scores
		iterations = iter + 1
		if diff < N*tol {
			converged = true
			break
		}
	}

	finite := true
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			finite = false
			break
		}
	}

	logger.Debug("PageRank completed",
		slog.Int("iterations", iterations),
		slog.Bool("converged", converged),
		slog.Float64("l1_diff", diff),
		slog.Int("node_count", n),
	)
	span.SetAttributes(
		attribute.Int("iterations", iterations),
		attribute.Bool("converged", converged),
	)

	if !converged || !finite {
		span.AddEvent("degree_fallback")
		metrics.RecordFallback("pagerank")
		return PageRankResult{
			Scores:     degreeCentrality(g),
			Iterations: iterations,
			Fallback:   true,
		}
	}

	out := make(map[string]float64, n)
	for i, id := range ids {
		out[id] = scores[i]
	}
	return PageRankResult{Scores: out, Iterations: iterations, Converged: true}
}
