package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"grantnet/netintel/internal/builder"
)

// scanOrganization scans a row into an Organization. The row must have all 8 columns in standard order.
func scanOrganization(scanner interface{ Scan(dest ...any) error }) (Organization, error) {
	var o Organization
	err := scanner.Scan(
		&o.EIN, &o.Name, &o.OrgType, &o.State, &o.City,
		&o.NTEECode, &o.Assets, &o.Revenue,
	)
	return o, err
}

// GetOrganization returns the organization with the given EIN, or ErrNotFound
func (d *DB) GetOrganization(ctx context.Context, ein string) (*Organization, error) {
	row := d.conn.QueryRowContext(ctx, `
		SELECT ein, name, org_type, state, city, ntee_code, assets, revenue
		FROM organizations WHERE ein = ?
	`, ein)

	o, err := scanOrganization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("organization %s: %w", ein, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading organization %s: %w", ein, err)
	}
	return &o, nil
}

// LookupOrganization returns registry data for ein, or nil when the registry has no
// record. It lets the database serve as the builder's enricher.
func (d *DB) LookupOrganization(ctx context.Context, ein string) (*builder.OrganizationProfile, error) {
	o, err := d.GetOrganization(ctx, ein)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &builder.OrganizationProfile{
		EIN:      o.EIN,
		Name:     o.Name,
		State:    o.State,
		City:     o.City,
		NTEECode: o.NTEECode,
		Assets:   o.Assets,
		Revenue:  o.Revenue,
	}, nil
}

// UpsertOrganization inserts o or replaces the existing row with the same EIN
func (d *DB) UpsertOrganization(ctx context.Context, o Organization) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO organizations (ein, name, org_type, state, city, ntee_code, assets, revenue)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ein) DO UPDATE SET
			name = excluded.name,
			org_type = excluded.org_type,
			state = excluded.state,
			city = excluded.city,
			ntee_code = excluded.ntee_code,
			assets = excluded.assets,
			revenue = excluded.revenue
	`, o.EIN, o.Name, o.OrgType, o.State, o.City, o.NTEECode, o.Assets, o.Revenue)
	if err != nil {
		return fmt.Errorf("upserting organization %s: %w", o.EIN, err)
	}
	return nil
}
