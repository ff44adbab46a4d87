// Package query answers relationship questions over a built funding network.
//
// Every query is a pure read: unknown ids produce empty results rather than errors, and
// results are ordered deterministically with ties broken by id.
package query

import (
	"log/slog"
	"sort"

	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/metrics"
)

// CoFunder is one foundation funding a given grantee
type CoFunder struct {
	FoundationID   string  `json:"foundation_id"`
	FoundationName string  `json:"foundation_name"`
	TotalFunding   float64 `json:"total_funding"`
	GrantCount     int     `json:"grant_count"`
	Years          []int   `json:"years"`
	AverageGrant   float64 `json:"average_grant"`
}

// SharedGrantee is a grantee funded by both foundations of a pair
type SharedGrantee struct {
	GranteeID        string  `json:"grantee_id"`
	GranteeName      string  `json:"grantee_name"`
	Foundation1Total float64 `json:"foundation_1_total"`
	Foundation1Years []int   `json:"foundation_1_years"`
	Foundation2Total float64 `json:"foundation_2_total"`
	Foundation2Years []int   `json:"foundation_2_years"`
	CombinedFunding  float64 `json:"combined_funding"`
}

// PortfolioGrantee is one relationship in a foundation's portfolio
type PortfolioGrantee struct {
	GranteeID    string  `json:"grantee_id"`
	GranteeName  string  `json:"grantee_name"`
	TotalFunding float64 `json:"total_funding"`
	GrantCount   int     `json:"grant_count"`
	Years        []int   `json:"years"`
	NTEECode     string  `json:"ntee_code,omitempty"`
	State        string  `json:"state,omitempty"`
}

// Portfolio summarizes every grantee of one foundation
type Portfolio struct {
	FoundationID     string             `json:"foundation_id"`
	FoundationName   string             `json:"foundation_name"`
	Grantees         []PortfolioGrantee `json:"grantees"`
	TotalFunding     float64            `json:"total_funding"`
	TotalGrants      int                `json:"total_grants"`
	AverageGrantSize float64            `json:"average_grant_size"`
	GranteeCount     int                `json:"grantee_count"`
}

// SimilarFunder is a foundation ranked by portfolio overlap
type SimilarFunder = graph.SimilarNode

// LapsedRelationship is a relationship with no recent grants
type LapsedRelationship = graph.LapsedRelationship

// Engine runs queries against one network
type Engine struct {
	g        *graph.Network
	cfg      config.QueryConfig
	analysis config.AnalysisConfig
	logger   *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithQueryConfig sets the path bounds
func WithQueryConfig(cfg config.QueryConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithAnalysisConfig sets the similarity and lapse defaults
func WithAnalysisConfig(cfg config.AnalysisConfig) Option {
	return func(e *Engine) { e.analysis = cfg }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine over g
func New(g *graph.Network, opts ...Option) *Engine {
	def := config.Default()
	e := &Engine{
		g:        g,
		cfg:      def.Query,
		analysis: def.Analysis,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Network returns the network the engine reads
func (e *Engine) Network() *graph.Network { return e.g }

// FindCoFunders returns every foundation funding granteeID, largest total first
func (e *Engine) FindCoFunders(granteeID string) []CoFunder {
	metrics.RecordQuery("cofunders")
	out := []CoFunder{}
	for _, fid := range e.g.NeighborsOfType(granteeID, graph.Foundation) {
		edge, _ := e.g.Edge(fid, granteeID)
		out = append(out, CoFunder{
			FoundationID:   fid,
			FoundationName: e.g.NameOf(fid),
			TotalFunding:   edge.TotalAmount,
			GrantCount:     edge.GrantCount,
			Years:          edge.Years(),
			AverageGrant:   average(edge.TotalAmount, edge.GrantCount),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalFunding > out[j].TotalFunding
	})
	e.logger.Debug("co-funders found", slog.String("grantee", granteeID), slog.Int("count", len(out)))
	return out
}

// FindSharedGrantees returns grantees funded by both foundations, largest combined first
func (e *Engine) FindSharedGrantees(foundationA, foundationB string) []SharedGrantee {
	metrics.RecordQuery("shared_grantees")
	out := []SharedGrantee{}
	if !e.g.HasNode(foundationA) || !e.g.HasNode(foundationB) {
		return out
	}
	incidentB := e.g.Incident(foundationB)
	for _, gid := range e.g.NeighborsOfType(foundationA, graph.Grantee) {
		eb, ok := incidentB[gid]
		if !ok {
			continue
		}
		ea, _ := e.g.Edge(foundationA, gid)
		out = append(out, SharedGrantee{
			GranteeID:        gid,
			GranteeName:      e.g.NameOf(gid),
			Foundation1Total: ea.TotalAmount,
			Foundation1Years: ea.Years(),
			Foundation2Total: eb.TotalAmount,
			Foundation2Years: eb.Years(),
			CombinedFunding:  ea.TotalAmount + eb.TotalAmount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedFunding > out[j].CombinedFunding
	})
	return out
}

// GranteePortfolio summarizes the grantees of foundationID. An unknown id yields an
// empty portfolio.
func (e *Engine) GranteePortfolio(foundationID string) Portfolio {
	metrics.RecordQuery("portfolio")
	p := Portfolio{
		FoundationID: foundationID,
		Grantees:     []PortfolioGrantee{},
	}
	if !e.g.HasNode(foundationID) {
		return p
	}
	p.FoundationName = e.g.NameOf(foundationID)
	for _, gid := range e.g.NeighborsOfType(foundationID, graph.Grantee) {
		edge, _ := e.g.Edge(foundationID, gid)
		node, _ := e.g.Node(gid)
		p.Grantees = append(p.Grantees, PortfolioGrantee{
			GranteeID:    gid,
			GranteeName:  e.g.NameOf(gid),
			TotalFunding: edge.TotalAmount,
			GrantCount:   edge.GrantCount,
			Years:        edge.Years(),
			NTEECode:     node.Attrs.NTEECode,
			State:        node.Attrs.State,
		})
		p.TotalFunding += edge.TotalAmount
		p.TotalGrants += edge.GrantCount
	}
	sort.SliceStable(p.Grantees, func(i, j int) bool {
		return p.Grantees[i].TotalFunding > p.Grantees[j].TotalFunding
	})
	p.GranteeCount = len(p.Grantees)
	p.AverageGrantSize = average(p.TotalFunding, p.TotalGrants)
	return p
}

// SimilarFunders ranks other foundations by cosine similarity of their grantee funding.
// topN <= 0 uses the configured default.
func (e *Engine) SimilarFunders(foundationID string, topN int) []SimilarFunder {
	metrics.RecordQuery("similar_funders")
	if topN <= 0 {
		topN = e.analysis.TopN
	}
	out := graph.FindSimilar(e.g, foundationID, topN, e.analysis.MinSimilarity)
	if out == nil {
		return []SimilarFunder{}
	}
	return out
}

// LapsedRelationships returns relationships idle for at least lapseYears before
// referenceYear. Zero arguments use the configured lapse and the network's latest year.
func (e *Engine) LapsedRelationships(referenceYear, lapseYears int) []LapsedRelationship {
	metrics.RecordQuery("lapsed")
	if lapseYears <= 0 {
		lapseYears = e.analysis.LapseYears
	}
	out := graph.ComputeLapsed(e.g, referenceYear, lapseYears)
	if out == nil {
		return []LapsedRelationship{}
	}
	return out
}

func average(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
