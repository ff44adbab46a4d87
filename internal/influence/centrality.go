package influence

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"grantnet/netintel/internal/graph"
)

// degreeCentrality is degree/(n-1); a single-node network scores 1.0
func degreeCentrality(g *graph.Network) map[string]float64 {
	ids := g.NodeIDs()
	out := make(map[string]float64, len(ids))
	if len(ids) == 1 {
		out[ids[0]] = 1.0
		return out
	}
	denom := float64(len(ids) - 1)
	for _, id := range ids {
		out[id] = float64(g.Degree(id)) / denom
	}
	return out
}

// closenessCentrality scores each node within its own connected component as
// (r-1)/sum of hop distances, where r is the component size. Isolated nodes score 0.
func closenessCentrality(ctx context.Context, g *graph.Network) map[string]float64 {
	components := g.Components()
	_, span := tracer.Start(ctx, "influence.Closeness",
		trace.WithAttributes(
			attribute.Int("node_count", g.NodeCount()),
			attribute.Int("component_count", len(components)),
		),
	)
	defer span.End()

	out := make(map[string]float64, g.NodeCount())
	for _, comp := range components {
		r := len(comp)
		if r == 1 {
			out[comp[0]] = 0
			continue
		}
		for _, id := range comp {
			total := 0
			for _, d := range g.HopDistances(id, 0) {
				total += d
			}
			if total > 0 {
				out[id] = float64(r-1) / float64(total)
			}
		}
	}
	return out
}
