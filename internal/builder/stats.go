package builder

import "grantnet/netintel/internal/graph"

// Connectivity summarizes the component structure of the network
type Connectivity struct {
	IsConnected          bool `json:"is_connected"`
	NumComponents        int  `json:"num_components"`
	LargestComponentSize int  `json:"largest_component_size"`
}

// NetworkStatistics is the summary of a built network
type NetworkStatistics struct {
	NodeCount               int                  `json:"node_count"`
	EdgeCount               int                  `json:"edge_count"`
	FoundationCount         int                  `json:"foundation_count"`
	GranteeCount            int                  `json:"grantee_count"`
	Density                 float64              `json:"density"`
	AverageDegree           float64              `json:"average_degree"`
	AvgGrantsPerFoundation  float64              `json:"avg_grants_per_foundation"`
	AvgFundersPerGrantee    float64              `json:"avg_funders_per_grantee"`
	MostConnectedFoundation string               `json:"most_connected_foundation,omitempty"`
	MostConnectedGrantee    string               `json:"most_connected_grantee,omitempty"`
	TotalGrantAmount        float64              `json:"total_grant_amount"`
	TotalGrantCount         int                  `json:"total_grant_count"`
	AverageGrantAmount      float64              `json:"average_grant_amount"`
	Connectivity            Connectivity         `json:"connectivity"`
	DegreeHistogram         []graph.DegreeBucket `json:"degree_histogram"`
	Hubs                    []graph.HubNode      `json:"hubs,omitempty"`
}

// NetworkStatistics summarizes the builder's current network
func (b *Builder) NetworkStatistics() NetworkStatistics {
	return ComputeStatistics(b.network, b.analysis.HubThreshold, b.analysis.TopN)
}

// ComputeStatistics summarizes g. Hubs are organizations with degree above hubThreshold,
// at most topN of them.
func ComputeStatistics(g *graph.Network, hubThreshold, topN int) NetworkStatistics {
	n := g.NodeCount()
	m := g.EdgeCount()
	stats := NetworkStatistics{NodeCount: n, EdgeCount: m}

	if n > 1 {
		stats.Density = 2 * float64(m) / (float64(n) * float64(n-1))
	}
	if n > 0 {
		stats.AverageDegree = 2 * float64(m) / float64(n)
	}

	foundations := g.NodesOfType(graph.Foundation)
	grantees := g.NodesOfType(graph.Grantee)
	stats.FoundationCount = len(foundations)
	stats.GranteeCount = len(grantees)

	stats.AvgGrantsPerFoundation, stats.MostConnectedFoundation = degreeSummary(g, foundations)
	stats.AvgFundersPerGrantee, stats.MostConnectedGrantee = degreeSummary(g, grantees)

	for _, e := range g.Edges() {
		stats.TotalGrantAmount += e.TotalAmount
		stats.TotalGrantCount += e.GrantCount
	}
	if stats.TotalGrantCount > 0 {
		stats.AverageGrantAmount = stats.TotalGrantAmount / float64(stats.TotalGrantCount)
	}

	topo := graph.ComputeTopology(g, hubThreshold, topN)
	stats.Connectivity = Connectivity{
		IsConnected:          topo.IsConnected,
		NumComponents:        topo.NumComponents,
		LargestComponentSize: topo.LargestComponent,
	}
	stats.DegreeHistogram = topo.DegreeHistogram
	stats.Hubs = topo.Hubs
	return stats
}

// degreeSummary returns the mean degree and the highest-degree id (first by id on ties)
func degreeSummary(g *graph.Network, nodes []*graph.NetworkNode) (float64, string) {
	if len(nodes) == 0 {
		return 0, ""
	}
	total := 0
	best, bestDegree := "", -1
	for _, node := range nodes {
		d := g.Degree(node.ID)
		total += d
		if d > bestDegree {
			best, bestDegree = node.ID, d
		}
	}
	return float64(total) / float64(len(nodes)), best
}
