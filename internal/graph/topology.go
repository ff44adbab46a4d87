package graph

import "sort"

// HubNode is an organization with high connectivity
type HubNode struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Type   NodeType `json:"type"`
	Degree int      `json:"degree"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains connectivity analysis results
type TopologyReport struct {
	IsConnected       bool           `json:"is_connected"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component_size"`
	SmallestComponent int            `json:"smallest_component_size"`
	IsolatedCount     int            `json:"isolated_count"`
	IsolatedIDs       []string       `json:"isolated_ids,omitempty"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	Hubs              []HubNode      `json:"hubs,omitempty"`
}

// ComputeTopology analyzes components, isolated organizations, degree distribution and hubs
func ComputeTopology(g *Network, hubThreshold, topN int) *TopologyReport {
	if g.NodeCount() == 0 {
		return &TopologyReport{DegreeHistogram: defaultHistogram()}
	}

	components := g.Components()
	largest, smallest := 0, g.NodeCount()
	for _, c := range components {
		if len(c) > largest {
			largest = len(c)
		}
		if len(c) < smallest {
			smallest = len(c)
		}
	}

	nodeIDs := g.NodeIDs()

	var isolated []string
	for _, id := range nodeIDs {
		if g.Degree(id) == 0 {
			isolated = append(isolated, id)
		}
	}
	isolatedCount := len(isolated)
	if len(isolated) > topN {
		isolated = isolated[:topN]
	}

	// Degree histogram (log-scale buckets)
	histogram := defaultHistogram()
	for _, id := range nodeIDs {
		histogram[degreeBucket(g.Degree(id))].Count++
	}

	var hubs []HubNode
	for _, id := range nodeIDs {
		degree := g.Degree(id)
		if degree > hubThreshold {
			n := g.nodes[id]
			hubs = append(hubs, HubNode{ID: id, Name: n.Name, Type: n.Type, Degree: degree})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].Degree > hubs[j].Degree })
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}

	return &TopologyReport{
		IsConnected:       len(components) == 1,
		NumComponents:     len(components),
		LargestComponent:  largest,
		SmallestComponent: smallest,
		IsolatedCount:     isolatedCount,
		IsolatedIDs:       isolated,
		DegreeHistogram:   histogram,
		Hubs:              hubs,
	}
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
