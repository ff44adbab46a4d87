package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"grantnet/netintel/internal/graph"
)

// ExportEdge is one funding relationship in the JSON export
type ExportEdge struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Weight      float64 `json:"weight"`
	Years       []int   `json:"years"`
	TotalAmount float64 `json:"total_amount"`
	GrantCount  int     `json:"grant_count"`
}

// ExportMetadata describes the exported network
type ExportMetadata struct {
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
	GeneratedAt time.Time `json:"generated_at"`
	BuildID     string    `json:"build_id,omitempty"`
}

// ExportDocument is the JSON form of the network. Node records are flat maps of id,
// type, name and every known attribute.
type ExportDocument struct {
	Nodes    []map[string]any `json:"nodes"`
	Edges    []ExportEdge     `json:"edges"`
	Metadata ExportMetadata   `json:"metadata"`
}

// ExportJSON returns the current network as an export document.
// Nodes are ordered by id and edges by (source, target).
func (b *Builder) ExportJSON() ExportDocument {
	return exportDocument(b.network, b.now(), b.buildID)
}

// MarshalJSONExport returns the indented JSON encoding of ExportJSON
func (b *Builder) MarshalJSONExport() ([]byte, error) {
	data, err := json.MarshalIndent(b.ExportJSON(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding network export: %w", err)
	}
	return data, nil
}

// WriteJSON writes the JSON export to path
func (b *Builder) WriteJSON(path string) error {
	data, err := b.MarshalJSONExport()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing JSON export: %w", err)
	}
	return nil
}

func exportDocument(g *graph.Network, generatedAt time.Time, buildID string) ExportDocument {
	doc := ExportDocument{
		Nodes: make([]map[string]any, 0, g.NodeCount()),
		Edges: make([]ExportEdge, 0, g.EdgeCount()),
		Metadata: ExportMetadata{
			NodeCount:   g.NodeCount(),
			EdgeCount:   g.EdgeCount(),
			GeneratedAt: generatedAt.UTC(),
			BuildID:     buildID,
		},
	}
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		doc.Nodes = append(doc.Nodes, n.Record())
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, ExportEdge{
			Source:      e.FoundationID,
			Target:      e.GranteeID,
			Weight:      e.Weight,
			Years:       e.Years(),
			TotalAmount: e.TotalAmount,
			GrantCount:  e.GrantCount,
		})
	}
	return doc
}
