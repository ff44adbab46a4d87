package builder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FundingSource is one grant from a foundation to a bundled grantee
type FundingSource struct {
	FoundationID string  `json:"foundation_id"`
	Amount       float64 `json:"amount"`
	Year         int     `json:"year"`
	Purpose      string  `json:"purpose,omitempty"`
}

// BundledGrantee is a grantee with its pre-aggregated funding profile
type BundledGrantee struct {
	GranteeID        string          `json:"grantee_id"`
	GranteeName      string          `json:"grantee_name"`
	FunderCount      int             `json:"funder_count"`
	TotalFunding     float64         `json:"total_funding"`
	AverageGrantSize float64         `json:"average_grant_size"`
	FundingStability float64         `json:"funding_stability"`
	FirstGrantYear   int             `json:"first_grant_year"`
	LastGrantYear    int             `json:"last_grant_year"`
	FundingSources   []FundingSource `json:"funding_sources"`
	CommonPurposes   []string        `json:"common_purposes,omitempty"`
	Extra            map[string]any  `json:"-"` // unknown upstream keys
}

var knownGranteeKeys = []string{
	"grantee_id", "grantee_name", "funder_count", "total_funding",
	"average_grant_size", "funding_stability", "first_grant_year",
	"last_grant_year", "funding_sources", "common_purposes",
}

// UnmarshalJSON decodes the known fields and keeps any other keys in Extra
func (g *BundledGrantee) UnmarshalJSON(data []byte) error {
	type plain BundledGrantee
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownGranteeKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*g = BundledGrantee(p)
	return nil
}

// BundlingPayload is the output of the upstream bundling step
type BundlingPayload struct {
	FoundationIDs   []string         `json:"foundation_ids"`
	BundledGrantees []BundledGrantee `json:"bundled_grantees"`
}

// DecodePayload reads a bundling payload from JSON
func DecodePayload(r io.Reader) (*BundlingPayload, error) {
	var p BundlingPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding bundling payload: %w", err)
	}
	return &p, nil
}

// LoadPayload reads a bundling payload from a JSON file
func LoadPayload(path string) (*BundlingPayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bundling payload: %w", err)
	}
	defer f.Close()
	return DecodePayload(f)
}
