// Package builder constructs the funding network from bundling output and exports it.
//
// A Builder owns one network per analysis session: Build creates it, Update merges
// further batches into it, and the statistics and export methods read it. A Builder is
// not safe for concurrent use; the network it returns is safe for concurrent reads once
// building is done.
package builder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/metrics"
)

var tracer = otel.Tracer("grantnet.builder")

// OrganizationProfile is registry data about one organization
type OrganizationProfile struct {
	EIN      string
	Name     string
	State    string
	City     string
	NTEECode string
	Assets   float64
	Revenue  float64
}

// Enricher looks up organization profiles. A nil profile with a nil error means the
// registry has no record for the EIN.
type Enricher interface {
	LookupOrganization(ctx context.Context, ein string) (*OrganizationProfile, error)
}

// Builder constructs and owns a funding network
type Builder struct {
	enricher   Enricher
	enrichment config.EnrichmentConfig
	analysis   config.AnalysisConfig
	logger     *slog.Logger
	now        func() time.Time

	network *graph.Network
	buildID string
}

// Option configures a Builder
type Option func(*Builder)

// WithEnricher sets the registry used to enrich organizations
func WithEnricher(e Enricher) Option {
	return func(b *Builder) { b.enricher = e }
}

// WithEnrichmentConfig sets lookup timeout and concurrency
func WithEnrichmentConfig(c config.EnrichmentConfig) Option {
	return func(b *Builder) { b.enrichment = c }
}

// WithAnalysisConfig sets the hub threshold and list sizes used by statistics
func WithAnalysisConfig(c config.AnalysisConfig) Option {
	return func(b *Builder) { b.analysis = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithClock sets the time source used for export metadata
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New returns a Builder with an empty network
func New(opts ...Option) *Builder {
	defaults := config.Default()
	b := &Builder{
		enrichment: defaults.Enrichment,
		analysis:   defaults.Analysis,
		logger:     slog.Default(),
		now:        time.Now,
		network:    graph.NewNetwork(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.enrichment.MaxConcurrency < 1 {
		b.enrichment.MaxConcurrency = 1
	}
	return b
}

// Network returns the network owned by the builder
func (b *Builder) Network() *graph.Network { return b.network }

// BuildID identifies the current network; it changes on every Build
func (b *Builder) BuildID() string { return b.buildID }

// Build replaces the builder's network with one constructed from payload.
// Enrichment failures degrade to bare nodes; Build never fails.
func (b *Builder) Build(ctx context.Context, payload *BundlingPayload) *graph.Network {
	b.network = graph.NewNetwork()
	b.buildID = uuid.NewString()
	b.ingest(ctx, payload, "Builder.Build")
	return b.network
}

// Update merges another payload into the current network using the same upsert rules
func (b *Builder) Update(ctx context.Context, payload *BundlingPayload) *graph.Network {
	if b.buildID == "" {
		b.buildID = uuid.NewString()
	}
	b.ingest(ctx, payload, "Builder.Update")
	return b.network
}

func (b *Builder) ingest(ctx context.Context, payload *BundlingPayload, op string) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	if payload == nil {
		span.AddEvent("nil_payload")
		return
	}

	profiles := b.lookupProfiles(ctx, b.enrichmentTargets(payload))
	g := b.network

	// Bare nodes from an earlier batch take attributes only, never a new identity
	for id, p := range profiles {
		if g.HasNode(id) {
			var attrs graph.Attributes
			applyProfile(&attrs, p)
			g.Enrich(id, p.Name, attrs)
		}
	}

	for _, id := range payload.FoundationIDs {
		if id == "" {
			continue
		}
		g.AddNode(foundationNode(id, profiles[id]))
	}

	var grants, implicit, selfFunded int
	for _, bg := range payload.BundledGrantees {
		if bg.GranteeID == "" {
			continue
		}
		g.AddNode(granteeNode(bg, profiles[bg.GranteeID]))

		for _, src := range bg.FundingSources {
			if src.FoundationID == "" {
				continue
			}
			if src.FoundationID == bg.GranteeID {
				b.logger.Warn("skipping grant from an organization to itself",
					slog.String("id", bg.GranteeID),
					slog.Float64("amount", src.Amount))
				selfFunded++
				continue
			}
			if !g.HasNode(src.FoundationID) {
				b.logger.Debug("funding source names an unlisted foundation",
					slog.String("foundation_id", src.FoundationID),
					slog.String("grantee_id", bg.GranteeID))
				g.AddNode(foundationNode(src.FoundationID, profiles[src.FoundationID]))
				implicit++
			}
			if _, ok := g.AddGrant(src.FoundationID, bg.GranteeID, src.Amount, src.Year); ok {
				grants++
			}
		}
	}

	foundations := len(g.NodesOfType(graph.Foundation))
	grantees := len(g.NodesOfType(graph.Grantee))
	elapsed := time.Since(start)
	metrics.RecordBuild(elapsed, foundations, grantees, g.EdgeCount())

	span.SetAttributes(
		attribute.Int("node_count", g.NodeCount()),
		attribute.Int("edge_count", g.EdgeCount()),
		attribute.Int("grant_records", grants),
		attribute.Int("self_funded_skipped", selfFunded),
	)
	b.logger.Info("funding network built",
		slog.String("build_id", b.buildID),
		slog.Int("foundations", foundations),
		slog.Int("grantees", grantees),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("grant_records", grants),
		slog.Int("implicit_foundations", implicit),
		slog.Int("self_funded_skipped", selfFunded),
		slog.Duration("elapsed", elapsed),
	)
}

// enrichmentTargets lists the EINs to look up, deduplicated, skipping nodes that were
// already enriched by an earlier batch
func (b *Builder) enrichmentTargets(payload *BundlingPayload) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		if n, ok := b.network.Node(id); ok && n.Name != n.ID {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, id := range payload.FoundationIDs {
		add(id)
	}
	for _, bg := range payload.BundledGrantees {
		for _, src := range bg.FundingSources {
			add(src.FoundationID)
		}
		if b.enrichment.EnrichGrantees {
			add(bg.GranteeID)
		}
	}
	return ids
}

// lookupProfiles queries the enricher with bounded concurrency. Every failure is
// logged and counted, then dropped.
func (b *Builder) lookupProfiles(ctx context.Context, ids []string) map[string]*OrganizationProfile {
	profiles := make(map[string]*OrganizationProfile)
	if b.enricher == nil || !b.enrichment.Enabled || len(ids) == 0 {
		return profiles
	}

	ctx, span := tracer.Start(ctx, "Builder.lookupProfiles",
		trace.WithAttributes(attribute.Int("lookups", len(ids))))
	defer span.End()

	var mu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(b.enrichment.MaxConcurrency)

	for _, id := range ids {
		eg.Go(func() error {
			lookupCtx := ctx
			if b.enrichment.Timeout > 0 {
				var cancel context.CancelFunc
				lookupCtx, cancel = context.WithTimeout(ctx, b.enrichment.Timeout)
				defer cancel()
			}
			profile, err := b.enricher.LookupOrganization(lookupCtx, id)
			switch {
			case err != nil:
				metrics.RecordEnrichment("error")
				b.logger.Warn("organization lookup failed",
					slog.String("ein", id), slog.String("error", err.Error()))
				return nil
			case profile == nil:
				metrics.RecordEnrichment("missing")
				return nil
			}
			metrics.RecordEnrichment("ok")
			mu.Lock()
			profiles[id] = profile
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	span.SetAttributes(attribute.Int("found", len(profiles)))
	return profiles
}

func foundationNode(id string, p *OrganizationProfile) *graph.NetworkNode {
	n := &graph.NetworkNode{ID: id, Type: graph.Foundation, Name: id}
	if p != nil {
		if p.Name != "" {
			n.Name = p.Name
		}
		applyProfile(&n.Attrs, p)
	}
	return n
}

func granteeNode(bg BundledGrantee, p *OrganizationProfile) *graph.NetworkNode {
	n := &graph.NetworkNode{
		ID:   bg.GranteeID,
		Type: graph.Grantee,
		Name: bg.GranteeName,
		Attrs: graph.Attributes{
			FunderCount:      bg.FunderCount,
			TotalFunding:     bg.TotalFunding,
			AverageGrantSize: bg.AverageGrantSize,
			FundingStability: bg.FundingStability,
			FirstGrantYear:   bg.FirstGrantYear,
			LastGrantYear:    bg.LastGrantYear,
			CommonPurposes:   bg.CommonPurposes,
			Extra:            bg.Extra,
		},
	}
	if p != nil {
		if n.Name == "" {
			n.Name = p.Name
		}
		applyProfile(&n.Attrs, p)
	}
	if n.Name == "" {
		n.Name = bg.GranteeID
	}
	return n
}

func applyProfile(a *graph.Attributes, p *OrganizationProfile) {
	a.State = p.State
	a.City = p.City
	a.NTEECode = p.NTEECode
	a.Assets = p.Assets
	a.Revenue = p.Revenue
}
