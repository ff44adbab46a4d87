package graph

import "sort"

// LapsedRelationship is a funding relationship with no recent grant activity
type LapsedRelationship struct {
	FoundationID   string  `json:"foundation_id"`
	FoundationName string  `json:"foundation_name"`
	GranteeID      string  `json:"grantee_id"`
	GranteeName    string  `json:"grantee_name"`
	LastGrantYear  int     `json:"last_grant_year"`
	YearsSince     int     `json:"years_since"`
	TotalAmount    float64 `json:"total_amount"`
	GrantCount     int     `json:"grant_count"`
}

// ComputeLapsed returns relationships whose last grant is at least lapseYears before
// referenceYear. Relationships with no recorded year are skipped. A zero referenceYear
// means the latest grant year seen anywhere in the network.
func ComputeLapsed(g *Network, referenceYear, lapseYears int) []LapsedRelationship {
	edges := g.Edges()
	if referenceYear == 0 {
		for _, e := range edges {
			if y := e.LastYear(); y > referenceYear {
				referenceYear = y
			}
		}
	}

	var lapsed []LapsedRelationship
	for _, e := range edges {
		last := e.LastYear()
		if last == 0 {
			continue
		}
		gap := referenceYear - last
		if gap < lapseYears {
			continue
		}
		lapsed = append(lapsed, LapsedRelationship{
			FoundationID:   e.FoundationID,
			FoundationName: g.NameOf(e.FoundationID),
			GranteeID:      e.GranteeID,
			GranteeName:    g.NameOf(e.GranteeID),
			LastGrantYear:  last,
			YearsSince:     gap,
			TotalAmount:    e.TotalAmount,
			GrantCount:     e.GrantCount,
		})
	}
	sort.SliceStable(lapsed, func(i, j int) bool {
		if lapsed[i].YearsSince != lapsed[j].YearsSince {
			return lapsed[i].YearsSince > lapsed[j].YearsSince
		}
		return lapsed[i].TotalAmount > lapsed[j].TotalAmount
	})
	return lapsed
}
