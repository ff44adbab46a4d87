package db

import (
	"context"
	"fmt"

	"grantnet/netintel/internal/builder"
)

// ImportResult counts what an import wrote
type ImportResult struct {
	Grants        int `json:"grants"`
	Duplicates    int `json:"duplicates"`
	Organizations int `json:"organizations"`
}

// ImportPayload stores every funding source in payload as a grant inside a single
// transaction. Organizations are registered only when their EIN is unknown, so names
// already in the registry are kept. Grant records identical to a stored one are
// counted as duplicates and skipped, which makes re-importing a payload a no-op.
func (d *DB) ImportPayload(ctx context.Context, payload *builder.BundlingPayload) (ImportResult, error) {
	var res ImportResult
	if payload == nil {
		return res, nil
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	register := func(ein, name, orgType string) error {
		if name == "" {
			name = ein
		}
		r, err := tx.ExecContext(ctx, `
			INSERT INTO organizations (ein, name, org_type) VALUES (?, ?, ?)
			ON CONFLICT(ein) DO NOTHING
		`, ein, name, orgType)
		if err != nil {
			return fmt.Errorf("registering %s: %w", ein, err)
		}
		if n, _ := r.RowsAffected(); n == 1 {
			res.Organizations++
		}
		return nil
	}

	for _, id := range payload.FoundationIDs {
		if err := register(id, "", "foundation"); err != nil {
			return ImportResult{}, err
		}
	}
	for _, bg := range payload.BundledGrantees {
		if err := register(bg.GranteeID, bg.GranteeName, "grantee"); err != nil {
			return ImportResult{}, err
		}
		for _, src := range bg.FundingSources {
			if err := register(src.FoundationID, "", "foundation"); err != nil {
				return ImportResult{}, err
			}
			inserted, err := insertGrant(ctx, tx, Grant{
				FoundationID: src.FoundationID,
				GranteeID:    bg.GranteeID,
				Amount:       src.Amount,
				Year:         src.Year,
				Purpose:      src.Purpose,
			})
			if err != nil {
				return ImportResult{}, err
			}
			if inserted {
				res.Grants++
			} else {
				res.Duplicates++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("committing import: %w", err)
	}
	return res, nil
}
