package graph

import "sort"

// NodeType distinguishes the two sides of the funding network
type NodeType string

const (
	Foundation NodeType = "foundation"
	Grantee    NodeType = "grantee"
)

// Attributes holds the optional enrichment and business fields of an organization.
// Zero values mean "unknown".
type Attributes struct {
	State            string         `json:"state,omitempty"`
	City             string         `json:"city,omitempty"`
	NTEECode         string         `json:"ntee_code,omitempty"`
	Assets           float64        `json:"assets,omitempty"`
	Revenue          float64        `json:"revenue,omitempty"`
	FunderCount      int            `json:"funder_count,omitempty"`
	TotalFunding     float64        `json:"total_funding,omitempty"`
	AverageGrantSize float64        `json:"average_grant_size,omitempty"`
	FundingStability float64        `json:"funding_stability,omitempty"`
	FirstGrantYear   int            `json:"first_grant_year,omitempty"`
	LastGrantYear    int            `json:"last_grant_year,omitempty"`
	CommonPurposes   []string       `json:"common_purposes,omitempty"`
	Extra            map[string]any `json:"-"` // unknown upstream keys
}

// NetworkNode is an organization in the funding network, keyed by EIN
type NetworkNode struct {
	ID    string     `json:"id"`
	Type  NodeType   `json:"type"`
	Name  string     `json:"name"`
	Attrs Attributes `json:"attributes"`
}

// FundingEdge aggregates every grant between one foundation and one grantee
type FundingEdge struct {
	FoundationID string
	GranteeID    string
	Weight       float64 // equals TotalAmount
	TotalAmount  float64
	GrantCount   int
	years        map[int]struct{}
}

// Years returns the distinct grant years, ascending
func (e *FundingEdge) Years() []int {
	out := make([]int, 0, len(e.years))
	for y := range e.years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// LastYear returns the most recent grant year, or 0 when unknown
func (e *FundingEdge) LastYear() int {
	last := 0
	for y := range e.years {
		if y > last {
			last = y
		}
	}
	return last
}

// Other returns the endpoint of e that is not id
func (e *FundingEdge) Other(id string) string {
	if e.FoundationID == id {
		return e.GranteeID
	}
	return e.FoundationID
}

func (e *FundingEdge) merge(amount float64, year int) {
	e.Weight += amount
	e.TotalAmount += amount
	e.GrantCount++
	if year != 0 {
		e.years[year] = struct{}{}
	}
}

type pairKey struct{ a, b string }

func keyFor(u, v string) pairKey {
	if u > v {
		u, v = v, u
	}
	return pairKey{u, v}
}

// Network is an undirected weighted graph of organizations joined by funding edges.
// It is built once by a single writer and is safe for concurrent reads afterwards.
type Network struct {
	nodes map[string]*NetworkNode
	edges map[pairKey]*FundingEdge
	adj   map[string]map[string]*FundingEdge
}

// NewNetwork returns an empty network
func NewNetwork() *Network {
	return &Network{
		nodes: make(map[string]*NetworkNode),
		edges: make(map[pairKey]*FundingEdge),
		adj:   make(map[string]map[string]*FundingEdge),
	}
}

// AddNode inserts n unless a node with the same ID exists. Returns true if inserted.
func (g *Network) AddNode(n *NetworkNode) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = n
	g.adj[n.ID] = make(map[string]*FundingEdge)
	return true
}

// Enrich fills zero-valued attributes of an existing node from attrs
func (g *Network) Enrich(id, name string, attrs Attributes) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	if (n.Name == "" || n.Name == n.ID) && name != "" {
		n.Name = name
	}
	a := &n.Attrs
	if a.State == "" {
		a.State = attrs.State
	}
	if a.City == "" {
		a.City = attrs.City
	}
	if a.NTEECode == "" {
		a.NTEECode = attrs.NTEECode
	}
	if a.Assets == 0 {
		a.Assets = attrs.Assets
	}
	if a.Revenue == 0 {
		a.Revenue = attrs.Revenue
	}
	for k, v := range attrs.Extra {
		if a.Extra == nil {
			a.Extra = make(map[string]any)
		}
		if _, exists := a.Extra[k]; !exists {
			a.Extra[k] = v
		}
	}
	return true
}

// AddGrant merges one grant record into the foundation-grantee edge, creating it on
// first sight. Both nodes must already exist and be distinct.
func (g *Network) AddGrant(foundationID, granteeID string, amount float64, year int) (*FundingEdge, bool) {
	if foundationID == granteeID {
		return nil, false
	}
	if _, ok := g.nodes[foundationID]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[granteeID]; !ok {
		return nil, false
	}
	key := keyFor(foundationID, granteeID)
	e, ok := g.edges[key]
	if !ok {
		e = &FundingEdge{
			FoundationID: foundationID,
			GranteeID:    granteeID,
			years:        make(map[int]struct{}),
		}
		g.edges[key] = e
		g.adj[foundationID][granteeID] = e
		g.adj[granteeID][foundationID] = e
	}
	e.merge(amount, year)
	return e, true
}

// Node returns the node with the given id
func (g *Network) Node(id string) (*NetworkNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is in the network
func (g *Network) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Edge returns the edge joining u and v in either order
func (g *Network) Edge(u, v string) (*FundingEdge, bool) {
	e, ok := g.edges[keyFor(u, v)]
	return e, ok
}

// NodeCount returns the number of nodes
func (g *Network) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct foundation-grantee pairs
func (g *Network) EdgeCount() int { return len(g.edges) }

// Degree returns the number of neighbors of id
func (g *Network) Degree(id string) int { return len(g.adj[id]) }

// NodeIDs returns a sorted list of all node IDs (for deterministic output)
func (g *Network) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodesOfType returns the nodes of type t sorted by id
func (g *Network) NodesOfType(t NodeType) []*NetworkNode {
	var out []*NetworkNode
	for _, id := range g.NodeIDs() {
		if n := g.nodes[id]; n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Neighbors returns the ids adjacent to id in ascending order
func (g *Network) Neighbors(id string) []string {
	adj := g.adj[id]
	out := make([]string, 0, len(adj))
	for n := range adj {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// HopDistances returns the breadth-first hop count from source to every node it
// reaches. A positive maxHops stops the search at that depth.
func (g *Network) HopDistances(source string, maxHops int) map[string]int {
	if !g.HasNode(source) {
		return map[string]int{}
	}
	dist := map[string]int{source: 0}
	queue := []string{source}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxHops > 0 && dist[cur] >= maxHops {
			continue
		}
		for nb := range g.adj[cur] {
			if _, seen := dist[nb]; seen {
				continue
			}
			dist[nb] = dist[cur] + 1
			queue = append(queue, nb)
		}
	}
	return dist
}

// NeighborsOfType returns neighbors of id whose node type is t, ascending
func (g *Network) NeighborsOfType(id string, t NodeType) []string {
	var out []string
	for _, n := range g.Neighbors(id) {
		if g.nodes[n].Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Incident returns the edges touching id keyed by the neighbor id
func (g *Network) Incident(id string) map[string]*FundingEdge {
	return g.adj[id]
}

// Edges returns all edges sorted by (foundation, grantee)
func (g *Network) Edges() []*FundingEdge {
	out := make([]*FundingEdge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FoundationID != out[j].FoundationID {
			return out[i].FoundationID < out[j].FoundationID
		}
		return out[i].GranteeID < out[j].GranteeID
	})
	return out
}

// NameOf returns the display name of id, falling back to the id itself
func (g *Network) NameOf(id string) string {
	if n, ok := g.nodes[id]; ok && n.Name != "" {
		return n.Name
	}
	return id
}
