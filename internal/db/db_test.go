package db

import (
	"context"
	"errors"
	"math"
	"testing"

	"grantnet/netintel/internal/builder"
	"grantnet/netintel/internal/graph"
	tf "grantnet/netintel/internal/testfixture"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return d
}

// seedReference loads the reference network's organizations and grants.
func seedReference(t *testing.T, d *DB) {
	t.Helper()
	ctx := context.Background()
	for ein, name := range tf.FoundationNames {
		if err := d.UpsertOrganization(ctx, Organization{EIN: ein, Name: name, OrgType: "foundation", State: "NY"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, g := range tf.ReferencePayload().BundledGrantees {
		if err := d.UpsertOrganization(ctx, Organization{EIN: g.GranteeID, Name: g.GranteeName, OrgType: "grantee"}); err != nil {
			t.Fatal(err)
		}
		for _, s := range g.FundingSources {
			if _, err := d.InsertGrant(ctx, Grant{FoundationID: s.FoundationID, GranteeID: g.GranteeID, Amount: s.Amount, Year: s.Year, Purpose: s.Purpose}); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func findGrantee(p *builder.BundlingPayload, id string) *builder.BundledGrantee {
	for i := range p.BundledGrantees {
		if p.BundledGrantees[i].GranteeID == id {
			return &p.BundledGrantees[i]
		}
	}
	return nil
}

func TestMigrate_Idempotent(t *testing.T) {
	d := setupTestDB(t)
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestGetOrganization_NotFound(t *testing.T) {
	d := setupTestDB(t)
	_, err := d.GetOrganization(context.Background(), "00-0000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertOrganization_Replaces(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	if err := d.UpsertOrganization(ctx, Organization{EIN: "13-1", Name: "Old Name", State: "CA"}); err != nil {
		t.Fatal(err)
	}
	if err := d.UpsertOrganization(ctx, Organization{EIN: "13-1", Name: "New Name", State: "NY", Assets: 1e6}); err != nil {
		t.Fatal(err)
	}

	o, err := d.GetOrganization(ctx, "13-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Name != "New Name" || o.State != "NY" || o.Assets != 1e6 {
		t.Errorf("got %+v", o)
	}
}

func TestLookupOrganization(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	if err := d.UpsertOrganization(ctx, Organization{EIN: "92-1", Name: "Reading Partners", NTEECode: "B90", City: "Oakland"}); err != nil {
		t.Fatal(err)
	}

	p, err := d.LookupOrganization(ctx, "92-1")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Name != "Reading Partners" || p.NTEECode != "B90" || p.City != "Oakland" {
		t.Errorf("got %+v", p)
	}

	missing, err := d.LookupOrganization(ctx, "92-2")
	if err != nil {
		t.Fatalf("missing lookup should not error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil profile, got %+v", missing)
	}
}

func TestLoadBundlingPayload_AllFoundations(t *testing.T) {
	d := setupTestDB(t)
	seedReference(t, d)

	p, err := d.LoadBundlingPayload(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.FoundationIDs) != 5 {
		t.Errorf("expected 5 foundation ids, got %v", p.FoundationIDs)
	}
	if len(p.BundledGrantees) != 10 {
		t.Fatalf("expected 10 grantees, got %d", len(p.BundledGrantees))
	}
	for i := 1; i < len(p.BundledGrantees); i++ {
		if p.BundledGrantees[i-1].GranteeID >= p.BundledGrantees[i].GranteeID {
			t.Errorf("grantees not in EIN order at %d", i)
		}
	}

	tfa := findGrantee(p, tf.TeachForAmerica)
	if tfa == nil {
		t.Fatal("Teach For America missing")
	}
	if tfa.GranteeName != "Teach For America" || tfa.FunderCount != 5 || tfa.TotalFunding != 3_500_000 {
		t.Errorf("unexpected TFA bundle: %+v", tfa)
	}

	kipp := findGrantee(p, tf.KIPP)
	if kipp.FunderCount != 2 || len(kipp.FundingSources) != 3 {
		t.Errorf("KIPP: funders=%d sources=%d", kipp.FunderCount, len(kipp.FundingSources))
	}
	if kipp.FirstGrantYear != 2019 || kipp.LastGrantYear != 2021 || kipp.FundingStability != 1 {
		t.Errorf("KIPP years: %d-%d stability %v", kipp.FirstGrantYear, kipp.LastGrantYear, kipp.FundingStability)
	}
	if math.Abs(kipp.AverageGrantSize-1_150_000.0/3) > 1e-6 {
		t.Errorf("KIPP average: %v", kipp.AverageGrantSize)
	}

	fa := findGrantee(p, tf.FeedingAmerica)
	if math.Abs(fa.FundingStability-0.4) > 1e-12 {
		t.Errorf("Feeding America stability: got %v, want 0.4", fa.FundingStability)
	}
}

func TestLoadBundlingPayload_FoundationSubset(t *testing.T) {
	d := setupTestDB(t)
	seedReference(t, d)

	p, err := d.LoadBundlingPayload(context.Background(), []string{tf.Cedar, tf.Cedar})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.FoundationIDs) != 1 {
		t.Errorf("expected deduplicated ids, got %v", p.FoundationIDs)
	}
	if len(p.BundledGrantees) != 4 {
		t.Fatalf("expected 4 Cedar grantees, got %d", len(p.BundledGrantees))
	}
	kipp := findGrantee(p, tf.KIPP)
	if kipp == nil || len(kipp.FundingSources) != 1 || kipp.FundingSources[0].FoundationID != tf.Cedar {
		t.Errorf("KIPP should only carry Cedar's grant: %+v", kipp)
	}
}

func TestLoadBundlingPayload_Empty(t *testing.T) {
	d := setupTestDB(t)

	p, err := d.LoadBundlingPayload(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.BundledGrantees) != 0 {
		t.Errorf("expected no grantees, got %d", len(p.BundledGrantees))
	}
}

func TestLoadBundlingPayload_UnknownGranteeName(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	if _, err := d.InsertGrant(ctx, Grant{FoundationID: "13-1", GranteeID: "92-1", Amount: 10, Year: 2020}); err != nil {
		t.Fatal(err)
	}

	p, err := d.LoadBundlingPayload(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.BundledGrantees[0].GranteeName; got != "92-1" {
		t.Errorf("expected EIN as name, got %q", got)
	}
}

func TestBuildFromDatabase(t *testing.T) {
	d := setupTestDB(t)
	seedReference(t, d)
	ctx := context.Background()

	p, err := d.LoadBundlingPayload(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	g := builder.New(builder.WithEnricher(d)).Build(ctx, p)

	if g.NodeCount() != 15 || g.EdgeCount() != 18 {
		t.Fatalf("got %d nodes / %d edges, want 15 / 18", g.NodeCount(), g.EdgeCount())
	}
	n, ok := g.Node(tf.Horizon)
	if !ok || n.Type != graph.Foundation {
		t.Fatal("Horizon missing or mistyped")
	}
	if n.Name != "Horizon Education Foundation" || n.Attrs.State != "NY" {
		t.Errorf("Horizon not enriched from registry: %+v", n)
	}
}

func TestCommonPurposes(t *testing.T) {
	tests := []struct {
		name     string
		purposes []string
		want     []string
	}{
		{"empty", nil, nil},
		{"blanks ignored", []string{"", "  "}, nil},
		{"frequency then alpha", []string{"STEM", "literacy", "stem", "Arts", "literacy", "stem"}, []string{"STEM", "literacy", "Arts"}},
		{"limit", []string{"a", "b", "c", "d"}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := commonPurposes(tt.purposes, 3)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestInsertGrant_DuplicateRecordSkipped(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	g := Grant{FoundationID: "13-1", GranteeID: "92-1", Amount: 10, Year: 2020, Purpose: "general"}

	inserted, err := d.InsertGrant(ctx, g)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = d.InsertGrant(ctx, g)
	if err != nil || inserted {
		t.Fatalf("identical record: inserted=%v err=%v", inserted, err)
	}

	g.Year = 2021
	if inserted, _ := d.InsertGrant(ctx, g); !inserted {
		t.Error("a grant in another year is a distinct record")
	}
}

func TestImportPayload(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	res, err := d.ImportPayload(ctx, tf.ReferencePayload())
	if err != nil {
		t.Fatal(err)
	}
	if res.Grants != 19 || res.Duplicates != 0 || res.Organizations != 15 {
		t.Errorf("first import: %+v", res)
	}

	// Existing registry names survive later imports
	if err := d.UpsertOrganization(ctx, Organization{EIN: tf.Horizon, Name: "Horizon Education Foundation", OrgType: "foundation"}); err != nil {
		t.Fatal(err)
	}

	res, err = d.ImportPayload(ctx, tf.ReferencePayload())
	if err != nil {
		t.Fatal(err)
	}
	if res.Grants != 0 || res.Duplicates != 19 || res.Organizations != 0 {
		t.Errorf("re-import should change nothing: %+v", res)
	}

	o, err := d.GetOrganization(ctx, tf.Horizon)
	if err != nil {
		t.Fatal(err)
	}
	if o.Name != "Horizon Education Foundation" {
		t.Errorf("registry name overwritten: %q", o.Name)
	}

	p, err := d.LoadBundlingPayload(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tfa := findGrantee(p, tf.TeachForAmerica); tfa.TotalFunding != 3_500_000 || len(tfa.FundingSources) != 5 {
		t.Errorf("re-import doubled totals: %+v", tfa)
	}

	if _, err := d.ImportPayload(ctx, tf.IslandPayload()); err != nil {
		t.Fatal(err)
	}
	p, err = d.LoadBundlingPayload(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.BundledGrantees) != 11 || len(p.FoundationIDs) != 6 {
		t.Errorf("got %d grantees / %d foundations, want 11 / 6",
			len(p.BundledGrantees), len(p.FoundationIDs))
	}
}

func TestImportPayload_CancelledWritesNothing(t *testing.T) {
	d := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.ImportPayload(ctx, tf.ReferencePayload()); err == nil {
		t.Fatal("expected an error from a cancelled import")
	}
	p, err := d.LoadBundlingPayload(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.BundledGrantees) != 0 {
		t.Errorf("cancelled import left %d grantees behind", len(p.BundledGrantees))
	}
}
