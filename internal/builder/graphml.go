package builder

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"grantnet/netintel/internal/graph"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphMLDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

var edgeKeys = []struct{ name, typ string }{
	{"weight", "double"},
	{"total_amount", "double"},
	{"grant_count", "int"},
	{"years", "string"},
}

// ExportGraphML serializes the current network as a GraphML document
func (b *Builder) ExportGraphML() (string, error) {
	return encodeGraphML(b.network)
}

// WriteGraphML writes the GraphML export to path. Failures affect only the export.
func (b *Builder) WriteGraphML(path string) error {
	doc, err := b.ExportGraphML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing GraphML export: %w", err)
	}
	return nil
}

func encodeGraphML(g *graph.Network) (string, error) {
	ids := g.NodeIDs()
	records := make([]map[string]any, len(ids))
	attrTypes := make(map[string]string)
	for i, id := range ids {
		n, _ := g.Node(id)
		rec := n.Record()
		delete(rec, graph.KeyID)
		records[i] = rec
		for k, v := range rec {
			t := graphMLType(v)
			if prev, ok := attrTypes[k]; ok && prev != t {
				t = "string"
			}
			attrTypes[k] = t
		}
	}

	// type and name first, the rest alphabetical
	names := make([]string, 0, len(attrTypes))
	for k := range attrTypes {
		if k != graph.KeyType && k != graph.KeyName {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	names = append([]string{graph.KeyType, graph.KeyName}, names...)

	doc := graphMLDoc{
		XMLNS: graphMLNamespace,
		Graph: graphMLGraph{ID: "G", EdgeDefault: "undirected"},
	}
	nodeKeyIDs := make(map[string]string, len(names))
	for _, name := range names {
		keyID := "d" + strconv.Itoa(len(doc.Keys))
		nodeKeyIDs[name] = keyID
		t, ok := attrTypes[name]
		if !ok {
			t = "string"
		}
		doc.Keys = append(doc.Keys, graphMLKey{ID: keyID, For: "node", AttrName: name, AttrType: t})
	}
	edgeKeyIDs := make(map[string]string, len(edgeKeys))
	for _, ek := range edgeKeys {
		keyID := "d" + strconv.Itoa(len(doc.Keys))
		edgeKeyIDs[ek.name] = keyID
		doc.Keys = append(doc.Keys, graphMLKey{ID: keyID, For: "edge", AttrName: ek.name, AttrType: ek.typ})
	}

	for i, id := range ids {
		node := graphMLNode{ID: id}
		for _, name := range names {
			v, ok := records[i][name]
			if !ok {
				continue
			}
			node.Data = append(node.Data, graphMLData{Key: nodeKeyIDs[name], Value: graphMLValue(v)})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, node)
	}

	for _, e := range g.Edges() {
		years := make([]string, 0)
		for _, y := range e.Years() {
			years = append(years, strconv.Itoa(y))
		}
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			Source: e.FoundationID,
			Target: e.GranteeID,
			Data: []graphMLData{
				{Key: edgeKeyIDs["weight"], Value: formatFloat(e.Weight)},
				{Key: edgeKeyIDs["total_amount"], Value: formatFloat(e.TotalAmount)},
				{Key: edgeKeyIDs["grant_count"], Value: strconv.Itoa(e.GrantCount)},
				{Key: edgeKeyIDs["years"], Value: strings.Join(years, ",")},
			},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding GraphML: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}

func graphMLType(v any) string {
	switch v.(type) {
	case float64, float32:
		return "double"
	case int, int64, int32:
		return "int"
	case bool:
		return "boolean"
	default:
		return "string"
	}
}

func graphMLValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ";")
	default:
		return fmt.Sprint(t)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
