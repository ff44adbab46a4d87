package graph

import (
	"math"
	"sort"
)

// SimilarNode is a foundation with its portfolio similarity to a target foundation
type SimilarNode struct {
	ID          string  `json:"foundation_id"`
	Name        string  `json:"foundation_name"`
	Similarity  float64 `json:"similarity"`
	SharedCount int     `json:"shared_grantees"`
}

// CosineSimilarity computes cosine similarity between two sparse vectors.
// Returns 0.0 when either vector has zero norm.
func CosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}

	na := math.Sqrt(normA)
	nb := math.Sqrt(normB)
	if na == 0 || nb == 0 {
		return 0.0
	}
	return dot / (na * nb)
}

// PortfolioVector maps each grantee of a foundation to the total it received
func (g *Network) PortfolioVector(foundationID string) map[string]float64 {
	v := make(map[string]float64)
	for nb, e := range g.adj[foundationID] {
		if g.nodes[nb].Type == Grantee {
			v[nb] = e.TotalAmount
		}
	}
	return v
}

// FindSimilar ranks the other foundations by portfolio cosine similarity to foundationID.
// Only foundations with similarity >= minSimilarity are returned; ties sort by id.
func FindSimilar(g *Network, foundationID string, topN int, minSimilarity float64) []SimilarNode {
	if !g.HasNode(foundationID) {
		return nil
	}
	target := g.PortfolioVector(foundationID)

	var results []SimilarNode
	for _, n := range g.NodesOfType(Foundation) {
		if n.ID == foundationID {
			continue
		}
		candidate := g.PortfolioVector(n.ID)
		sim := CosineSimilarity(target, candidate)
		if sim <= 0 || sim < minSimilarity {
			continue
		}
		shared := 0
		for k := range candidate {
			if _, ok := target[k]; ok {
				shared++
			}
		}
		results = append(results, SimilarNode{
			ID:          n.ID,
			Name:        n.Name,
			Similarity:  sim,
			SharedCount: shared,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}
