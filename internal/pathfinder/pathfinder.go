// Package pathfinder finds introduction pathways between organizations in the funding
// network and scores how strong each pathway is.
package pathfinder

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/metrics"
	"grantnet/netintel/internal/query"
)

// BoardPathway is one scored route from a source organization to a target
type BoardPathway struct {
	Path                []string `json:"path"`
	PathNames           []string `json:"path_names"`
	PathLength          int      `json:"path_length"`
	PathStrength        float64  `json:"path_strength"`
	PathDescription     string   `json:"path_description"`
	CultivationStrategy string   `json:"cultivation_strategy"`
}

// Pathfinder scores pathways found by the query engine
type Pathfinder struct {
	engine *query.Engine
	g      *graph.Network
	cfg    config.PathfindingConfig
	logger *slog.Logger
}

// Option configures a Pathfinder
type Option func(*Pathfinder)

// WithConfig sets hop limits, candidate caps and strength weights
func WithConfig(cfg config.PathfindingConfig) Option {
	return func(p *Pathfinder) { p.cfg = cfg }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pathfinder) { p.logger = l }
}

// New returns a pathfinder over the engine's network
func New(engine *query.Engine, opts ...Option) *Pathfinder {
	p := &Pathfinder{
		engine: engine,
		g:      engine.Network(),
		cfg:    config.Default().Pathfinding,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindBoardPathways returns the strongest pathways from source to target, strongest
// first. Ties prefer fewer hops, then the lexicographically smaller path. The result is
// empty when no path exists within the hop limit or when source equals target.
func (p *Pathfinder) FindBoardPathways(source, target string) []BoardPathway {
	metrics.RecordQuery("board_pathways")
	pathways := []BoardPathway{}
	if source == target {
		return pathways
	}

	candidates := p.engine.SimplePaths(source, target, p.cfg.MaxHops, p.cfg.MaxCandidates)
	for _, path := range candidates {
		pathways = append(pathways, p.score(path))
	}

	sort.SliceStable(pathways, func(i, j int) bool {
		a, b := pathways[i], pathways[j]
		if a.PathStrength != b.PathStrength {
			return a.PathStrength > b.PathStrength
		}
		if a.PathLength != b.PathLength {
			return a.PathLength < b.PathLength
		}
		return lessPath(a.Path, b.Path)
	})
	if p.cfg.TopPaths > 0 && len(pathways) > p.cfg.TopPaths {
		pathways = pathways[:p.cfg.TopPaths]
	}

	p.logger.Debug("board pathways scored",
		slog.String("source", source),
		slog.String("target", target),
		slog.Int("candidates", len(candidates)),
		slog.Int("returned", len(pathways)))
	return pathways
}

func (p *Pathfinder) score(path []string) BoardPathway {
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = p.g.NameOf(id)
	}
	return BoardPathway{
		Path:                path,
		PathNames:           names,
		PathLength:          len(path) - 1,
		PathStrength:        p.strength(path),
		PathDescription:     p.describe(path),
		CultivationStrategy: p.strategy(path),
	}
}

// strength blends the average hop weight with the weakest hop
func (p *Pathfinder) strength(path []string) float64 {
	hops := len(path) - 1
	if hops < 1 {
		return 0
	}
	var sum float64
	weakest := math.Inf(1)
	for i := 0; i < hops; i++ {
		var w float64
		if e, ok := p.g.Edge(path[i], path[i+1]); ok {
			w = e.Weight
		}
		sum += w
		weakest = math.Min(weakest, w)
	}
	return p.cfg.AverageWeight*(sum/float64(hops)) + p.cfg.MinimumWeight*weakest
}

func (p *Pathfinder) describe(path []string) string {
	steps := make([]string, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		u, v := path[i], path[i+1]
		e, ok := p.g.Edge(u, v)
		if !ok || e.GrantCount == 0 {
			steps = append(steps, fmt.Sprintf("%s connects to %s", p.g.NameOf(u), p.g.NameOf(v)))
			continue
		}
		steps = append(steps, fmt.Sprintf("%s funds %s (%s)",
			p.g.NameOf(e.FoundationID), p.g.NameOf(e.GranteeID), formatDollars(e.TotalAmount)))
	}
	return strings.Join(steps, " → ")
}

func (p *Pathfinder) strategy(path []string) string {
	target := p.g.NameOf(path[len(path)-1])
	switch hops := len(path) - 1; hops {
	case 1:
		return fmt.Sprintf("Direct approach: %s is already connected. Reach out citing the existing funding relationship.", target)
	case 2:
		mid := path[1]
		midName := p.g.NameOf(mid)
		if n, ok := p.g.Node(mid); ok && n.Type == graph.Grantee {
			return fmt.Sprintf("Leverage %s as a reference: both organizations share this grantee, so ask its leadership to speak to the relationship with %s.", midName, target)
		}
		return fmt.Sprintf("Build a relationship with %s first, then request an introduction to %s.", midName, target)
	default:
		return fmt.Sprintf("Staged engagement across %d hops: cultivate each intermediary in turn, starting with %s, before approaching %s.", hops, p.g.NameOf(path[1]), target)
	}
}

func formatDollars(amount float64) string {
	return "$" + humanize.Comma(int64(math.Round(amount)))
}

func lessPath(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
