package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"grantnet/netintel/internal/builder"
)

const maxCommonPurposes = 3

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertGrant records one grant. Returns false when an identical record (same
// foundation, grantee, year, amount and purpose) is already stored.
func (d *DB) InsertGrant(ctx context.Context, g Grant) (bool, error) {
	return insertGrant(ctx, d.conn, g)
}

func insertGrant(ctx context.Context, ex execer, g Grant) (bool, error) {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO grants (foundation_ein, grantee_ein, amount, tax_year, purpose)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(foundation_ein, grantee_ein, tax_year, amount, purpose) DO NOTHING
	`, g.FoundationID, g.GranteeID, g.Amount, g.Year, g.Purpose)
	if err != nil {
		return false, fmt.Errorf("inserting grant %s -> %s: %w", g.FoundationID, g.GranteeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GrantingFoundations returns the distinct foundation EINs that have grants, ascending
func (d *DB) GrantingFoundations(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT DISTINCT foundation_ein FROM grants ORDER BY foundation_ein`)
	if err != nil {
		return nil, fmt.Errorf("listing granting foundations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type granteeRow struct {
	name   string
	grants []Grant
}

// LoadBundlingPayload aggregates the grants made by foundationIDs into the bundling
// payload the builder consumes. An empty foundationIDs selects every foundation with
// grants. Grantees appear in EIN order; their funding sources in grant order.
func (d *DB) LoadBundlingPayload(ctx context.Context, foundationIDs []string) (*builder.BundlingPayload, error) {
	if len(foundationIDs) == 0 {
		ids, err := d.GrantingFoundations(ctx)
		if err != nil {
			return nil, err
		}
		foundationIDs = ids
	}
	foundationIDs = dedupSorted(foundationIDs)
	payload := &builder.BundlingPayload{
		FoundationIDs:   foundationIDs,
		BundledGrantees: []builder.BundledGrantee{},
	}
	if len(foundationIDs) == 0 {
		return payload, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(foundationIDs)), ",")
	args := make([]any, len(foundationIDs))
	for i, id := range foundationIDs {
		args[i] = id
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT g.id, g.foundation_ein, g.grantee_ein, g.amount, g.tax_year, g.purpose,
		       COALESCE(o.name, '')
		FROM grants g
		LEFT JOIN organizations o ON o.ein = g.grantee_ein
		WHERE g.foundation_ein IN (`+placeholders+`)
		ORDER BY g.grantee_ein, g.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("loading grants: %w", err)
	}
	defer rows.Close()

	var order []string
	byGrantee := make(map[string]*granteeRow)
	for rows.Next() {
		var g Grant
		var name string
		if err := rows.Scan(&g.ID, &g.FoundationID, &g.GranteeID, &g.Amount, &g.Year, &g.Purpose, &name); err != nil {
			return nil, fmt.Errorf("scanning grant: %w", err)
		}
		r, ok := byGrantee[g.GranteeID]
		if !ok {
			r = &granteeRow{name: name}
			byGrantee[g.GranteeID] = r
			order = append(order, g.GranteeID)
		}
		r.grants = append(r.grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading grants: %w", err)
	}

	for _, id := range order {
		payload.BundledGrantees = append(payload.BundledGrantees, bundle(id, byGrantee[id]))
	}
	return payload, nil
}

func bundle(id string, r *granteeRow) builder.BundledGrantee {
	g := builder.BundledGrantee{
		GranteeID:      id,
		GranteeName:    r.name,
		FundingSources: make([]builder.FundingSource, 0, len(r.grants)),
	}
	if g.GranteeName == "" {
		g.GranteeName = id
	}

	funders := make(map[string]struct{})
	years := make(map[int]struct{})
	var purposes []string
	for _, gr := range r.grants {
		g.FundingSources = append(g.FundingSources, builder.FundingSource{
			FoundationID: gr.FoundationID,
			Amount:       gr.Amount,
			Year:         gr.Year,
			Purpose:      gr.Purpose,
		})
		funders[gr.FoundationID] = struct{}{}
		g.TotalFunding += gr.Amount
		if gr.Year > 0 {
			years[gr.Year] = struct{}{}
			if g.FirstGrantYear == 0 || gr.Year < g.FirstGrantYear {
				g.FirstGrantYear = gr.Year
			}
			if gr.Year > g.LastGrantYear {
				g.LastGrantYear = gr.Year
			}
		}
		purposes = append(purposes, gr.Purpose)
	}

	g.FunderCount = len(funders)
	if n := len(r.grants); n > 0 {
		g.AverageGrantSize = g.TotalFunding / float64(n)
	}
	if len(years) > 0 {
		span := g.LastGrantYear - g.FirstGrantYear + 1
		g.FundingStability = float64(len(years)) / float64(span)
	}
	g.CommonPurposes = commonPurposes(purposes, maxCommonPurposes)
	return g
}

// commonPurposes returns up to limit purposes by frequency, ignoring case and blanks.
// The first spelling seen is kept; ties sort alphabetically.
func commonPurposes(purposes []string, limit int) []string {
	counts := make(map[string]int)
	spelling := make(map[string]string)
	for _, p := range purposes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, ok := spelling[key]; !ok {
			spelling[key] = p
		}
		counts[key]++
	}
	if len(counts) == 0 {
		return nil
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = spelling[k]
	}
	return out
}

func dedupSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
