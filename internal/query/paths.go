package query

import (
	"log/slog"

	"grantnet/netintel/internal/metrics"
)

// FundingPaths returns simple paths from source to target with at most maxHops edges,
// in depth-first order with neighbors visited by ascending id. maxHops <= 0 uses the
// configured default and values above the configured limit are clamped to it. The
// result is capped at the configured path limit.
func (e *Engine) FundingPaths(source, target string, maxHops int) [][]string {
	metrics.RecordQuery("funding_paths")
	if maxHops <= 0 {
		maxHops = e.cfg.DefaultMaxHops
	}
	if limit := e.cfg.MaxHopsLimit; limit > 0 && maxHops > limit {
		e.logger.Debug("clamping funding path hops",
			slog.Int("requested", maxHops),
			slog.Int("limit", limit),
		)
		maxHops = limit
	}
	return e.SimplePaths(source, target, maxHops, e.cfg.MaxFundingPaths)
}

// SimplePaths enumerates simple paths from source to target with at most maxHops edges,
// stopping after limit paths (limit <= 0 means no cap). Empty when either id is absent,
// source equals target, or target lies beyond maxHops.
func (e *Engine) SimplePaths(source, target string, maxHops, limit int) [][]string {
	paths := [][]string{}
	if source == target || maxHops <= 0 || !e.g.HasNode(source) || !e.g.HasNode(target) {
		return paths
	}

	// Hop distances to target bound every branch; unreachable nodes have no entry.
	toTarget := e.g.HopDistances(target, maxHops)
	if _, ok := toTarget[source]; !ok {
		return paths
	}

	onPath := map[string]bool{source: true}
	path := []string{source}

	var walk func(current string) bool
	walk = func(current string) bool {
		for _, next := range e.g.Neighbors(current) {
			if onPath[next] {
				continue
			}
			if next == target {
				found := make([]string, len(path)+1)
				copy(found, path)
				found[len(path)] = target
				paths = append(paths, found)
				if limit > 0 && len(paths) >= limit {
					return false
				}
				continue
			}
			d, ok := toTarget[next]
			if !ok || len(path)+d > maxHops {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			more := walk(next)
			path = path[:len(path)-1]
			delete(onPath, next)
			if !more {
				return false
			}
		}
		return true
	}
	walk(source)
	return paths
}
