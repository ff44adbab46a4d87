// Package testfixture provides the reference funding network used across package tests.
package testfixture

import (
	"context"
	"errors"
	"sync"

	"grantnet/netintel/internal/builder"
)

// Foundation EINs of the reference network
const (
	Horizon   = "13-1000001"
	Bridgeway = "13-1000002"
	Cedar     = "13-1000003"
	Lakeshore = "13-1000004"
	Summit    = "13-1000005"
)

// Grantee EINs of the reference network
const (
	TeachForAmerica = "92-2222222"
	CityYear        = "92-3333333"
	KIPP            = "92-4444444"
	BoysGirlsClubs  = "92-5555555"
	Habitat         = "92-6666666"
	FeedingAmerica  = "92-7777777"
	KhanAcademy     = "92-8888888"
	CodeOrg         = "92-9999999"
	GirlsWhoCode    = "93-1111111"
	ArtsCouncil     = "93-2222222"
)

// FoundationNames maps foundation EINs to registry names
var FoundationNames = map[string]string{
	Horizon:   "Horizon Education Foundation",
	Bridgeway: "Bridgeway Family Foundation",
	Cedar:     "Cedar Point Trust",
	Lakeshore: "Lakeshore Community Fund",
	Summit:    "Summit Philanthropies",
}

func grantee(id, name string, stability float64, sources ...builder.FundingSource) builder.BundledGrantee {
	g := builder.BundledGrantee{
		GranteeID:        id,
		GranteeName:      name,
		FundingStability: stability,
		FundingSources:   sources,
	}
	funders := make(map[string]bool)
	for _, s := range sources {
		funders[s.FoundationID] = true
		g.TotalFunding += s.Amount
		if g.FirstGrantYear == 0 || s.Year < g.FirstGrantYear {
			g.FirstGrantYear = s.Year
		}
		if s.Year > g.LastGrantYear {
			g.LastGrantYear = s.Year
		}
	}
	g.FunderCount = len(funders)
	if len(sources) > 0 {
		g.AverageGrantSize = g.TotalFunding / float64(len(sources))
	}
	return g
}

func src(foundation string, amount float64, year int) builder.FundingSource {
	return builder.FundingSource{FoundationID: foundation, Amount: amount, Year: year}
}

// ReferencePayload returns the 5-foundation / 10-grantee bundling payload.
// Teach For America has five funders; Horizon's $1,500,000 is its largest.
// KIPP receives two separate grants from Horizon.
func ReferencePayload() *builder.BundlingPayload {
	return &builder.BundlingPayload{
		FoundationIDs: []string{Horizon, Bridgeway, Cedar, Lakeshore, Summit},
		BundledGrantees: []builder.BundledGrantee{
			grantee(TeachForAmerica, "Teach For America", 0.8,
				src(Horizon, 1_500_000, 2021),
				src(Bridgeway, 750_000, 2020),
				src(Cedar, 250_000, 2022),
				src(Lakeshore, 100_000, 2021),
				src(Summit, 900_000, 2022),
			),
			grantee(CityYear, "City Year", 0.6,
				src(Horizon, 500_000, 2020),
				src(Bridgeway, 300_000, 2021),
			),
			grantee(KIPP, "KIPP Foundation", 0.7,
				src(Horizon, 800_000, 2019),
				src(Horizon, 200_000, 2020),
				src(Cedar, 150_000, 2021),
			),
			grantee(BoysGirlsClubs, "Boys & Girls Clubs", 0.5,
				src(Bridgeway, 120_000, 2021),
				src(Lakeshore, 80_000, 2022),
			),
			grantee(Habitat, "Habitat for Humanity", 0.3,
				src(Lakeshore, 60_000, 2020),
			),
			grantee(FeedingAmerica, "Feeding America", 0.4,
				src(Summit, 400_000, 2022),
				src(Cedar, 50_000, 2018),
			),
			grantee(KhanAcademy, "Khan Academy", 0.5,
				src(Summit, 700_000, 2021),
			),
			grantee(CodeOrg, "Code.org", 0.5,
				src(Horizon, 300_000, 2022),
			),
			grantee(GirlsWhoCode, "Girls Who Code", 0.2,
				src(Bridgeway, 90_000, 2019),
			),
			grantee(ArtsCouncil, "Local Arts Council", 0.1,
				src(Cedar, 40_000, 2017),
			),
		},
	}
}

// IslandPayload returns a foundation and grantee unconnected to the reference network
func IslandPayload() *builder.BundlingPayload {
	return &builder.BundlingPayload{
		FoundationIDs: []string{"13-9999999"},
		BundledGrantees: []builder.BundledGrantee{
			grantee("94-0000000", "Remote Island Library", 1.0, src("13-9999999", 25_000, 2023)),
		},
	}
}

// ErrRegistryDown is returned by a StaticRegistry configured to fail
var ErrRegistryDown = errors.New("registry unavailable")

// StaticRegistry is an in-memory builder.Enricher
type StaticRegistry struct {
	Profiles map[string]*builder.OrganizationProfile
	Fail     map[string]bool

	mu    sync.Mutex
	calls int
}

// ReferenceRegistry returns registry profiles for the reference foundations
// and a state/NTEE profile for Teach For America
func ReferenceRegistry() *StaticRegistry {
	profiles := make(map[string]*builder.OrganizationProfile)
	for ein, name := range FoundationNames {
		profiles[ein] = &builder.OrganizationProfile{EIN: ein, Name: name, State: "NY", Assets: 50_000_000}
	}
	profiles[TeachForAmerica] = &builder.OrganizationProfile{
		EIN: TeachForAmerica, Name: "Teach For America Inc", State: "NY", NTEECode: "B90",
	}
	return &StaticRegistry{Profiles: profiles}
}

// LookupOrganization implements builder.Enricher
func (r *StaticRegistry) LookupOrganization(ctx context.Context, ein string) (*builder.OrganizationProfile, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Fail[ein] {
		return nil, ErrRegistryDown
	}
	return r.Profiles[ein], nil
}

// Calls returns how many lookups were made
func (r *StaticRegistry) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Build builds the reference network with registry enrichment
func Build() *builder.Builder {
	b := builder.New(builder.WithEnricher(ReferenceRegistry()))
	b.Build(context.Background(), ReferencePayload())
	return b
}
