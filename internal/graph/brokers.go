package graph

import "sort"

// BrokerNode is an organization whose removal splits its part of the network
type BrokerNode struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Type                NodeType `json:"type"`
	Degree              int      `json:"degree"`
	ComponentsIfRemoved int      `json:"components_if_removed"`
}

// BridgeRelationship is a funding edge that is the only link between two parts of the network
type BridgeRelationship struct {
	FoundationID   string  `json:"foundation_id"`
	FoundationName string  `json:"foundation_name"`
	GranteeID      string  `json:"grantee_id"`
	GranteeName    string  `json:"grantee_name"`
	TotalAmount    float64 `json:"total_amount"`
}

// BrokerReport contains articulation-point and bridge analysis results
type BrokerReport struct {
	Brokers     []BrokerNode         `json:"brokers"`
	Bridges     []BridgeRelationship `json:"bridges"`
	BrokerCount int                  `json:"broker_count"`
	BridgeCount int                  `json:"bridge_count"`
}

// ComputeBrokers finds articulation organizations and bridge relationships
func ComputeBrokers(g *Network) *BrokerReport {
	if g.NodeCount() == 0 {
		return &BrokerReport{}
	}

	nodeIDs := g.NodeIDs()
	idToIdx := make(map[string]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idToIdx[id] = i
	}
	n := len(nodeIDs)

	adjIdx := make([][]int, n)
	for i, id := range nodeIDs {
		for _, nb := range g.Neighbors(id) {
			adjIdx[i] = append(adjIdx[i], idToIdx[nb])
		}
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	splits := make([]int, n) // child subtrees cut off by removing the node
	isRoot := make([]bool, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1

	// Iterative Tarjan for each connected component
	type frame struct {
		node, parent, ni int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node

			if top.ni < len(adjIdx[node]) {
				child := adjIdx[node][top.ni]
				top.ni++

				if child == top.parent {
					continue
				}

				if visited[child] {
					// Back edge
					if disc[child] < low[node] {
						low[node] = disc[child]
					}
				} else {
					visited[child] = true
					disc[child] = counter
					low[child] = counter
					counter++
					stack = append(stack, frame{child, node, 0})
				}
				continue
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}

			pn := stack[len(stack)-1].node
			if low[node] < low[pn] {
				low[pn] = low[node]
			}
			if low[node] > disc[pn] {
				bridgePairs = append(bridgePairs, [2]int{pn, node})
			}
			if low[node] >= disc[pn] {
				splits[pn]++
			}
		}

		isRoot[start] = true
	}

	var brokers []BrokerNode
	for i, id := range nodeIDs {
		parts := splits[i] + 1
		if isRoot[i] {
			// Root is a broker only with 2+ tree children
			parts = splits[i]
		}
		if parts < 2 {
			continue
		}
		node := g.nodes[id]
		brokers = append(brokers, BrokerNode{
			ID:                  id,
			Name:                node.Name,
			Type:                node.Type,
			Degree:              len(adjIdx[i]),
			ComponentsIfRemoved: parts,
		})
	}
	sort.SliceStable(brokers, func(i, j int) bool {
		return brokers[i].ComponentsIfRemoved > brokers[j].ComponentsIfRemoved
	})

	var bridges []BridgeRelationship
	for _, pair := range bridgePairs {
		e, ok := g.Edge(nodeIDs[pair[0]], nodeIDs[pair[1]])
		if !ok {
			continue
		}
		bridges = append(bridges, BridgeRelationship{
			FoundationID:   e.FoundationID,
			FoundationName: g.NameOf(e.FoundationID),
			GranteeID:      e.GranteeID,
			GranteeName:    g.NameOf(e.GranteeID),
			TotalAmount:    e.TotalAmount,
		})
	}
	sort.Slice(bridges, func(i, j int) bool {
		if bridges[i].TotalAmount != bridges[j].TotalAmount {
			return bridges[i].TotalAmount > bridges[j].TotalAmount
		}
		if bridges[i].FoundationID != bridges[j].FoundationID {
			return bridges[i].FoundationID < bridges[j].FoundationID
		}
		return bridges[i].GranteeID < bridges[j].GranteeID
	})

	return &BrokerReport{
		Brokers:     brokers,
		Bridges:     bridges,
		BrokerCount: len(brokers),
		BridgeCount: len(bridges),
	}
}
