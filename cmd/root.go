package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/builder"
	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/db"
	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/query"
)

var (
	dbPath      string
	payloadPath string
	configPath  string
	logLevel    string
	logFormat   string
	foundations []string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "grantnet",
	Short:        "Funding network intelligence: co-funders, pathways and influence",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		logger = newLogger(cfg.Logging)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to grantnet.db registry and grants store")
	rootCmd.PersistentFlags().StringVar(&payloadPath, "payload", "", "Build from a bundling payload JSON file instead of the grants store")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringSliceVar(&foundations, "foundation", nil, "Restrict the network to these foundation EINs (grants store only)")
}

func newLogger(c config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// DiscoverDB finds the database path using priority: flag/env/config > walk-up > XDG fallback
func DiscoverDB() (string, error) {
	// 1. Flag, GRANTNET_DB or config file
	if cfg.Database.Path != "" {
		if _, err := os.Stat(cfg.Database.Path); err == nil {
			return cfg.Database.Path, nil
		}
		return "", fmt.Errorf("database not found at %s", cfg.Database.Path)
	}

	// 2. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, "grantnet.db")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 3. XDG fallback
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".local", "share", "grantnet", "grantnet.db")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("no grantnet.db found (set GRANTNET_DB, use --db, or run from a directory containing grantnet.db)")
}

// OpenDatabase discovers, opens and migrates the database
func OpenDatabase(ctx context.Context) (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	d, err := db.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// LoadNetwork builds the funding network from --payload or from the grants store.
// The database, when available, also serves as the enrichment registry.
func LoadNetwork(ctx context.Context) (*builder.Builder, error) {
	var (
		payload *builder.BundlingPayload
		store   *db.DB
		err     error
	)

	if payloadPath != "" {
		payload, err = builder.LoadPayload(payloadPath)
		if err != nil {
			return nil, err
		}
		// Registry is optional when building from a file
		if store, err = OpenDatabase(ctx); err != nil {
			logger.Debug("no registry for enrichment", "error", err)
			store = nil
		}
	} else {
		store, err = OpenDatabase(ctx)
		if err != nil {
			return nil, err
		}
		payload, err = store.LoadBundlingPayload(ctx, foundations)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("loading grants: %w", err)
		}
	}
	if store != nil {
		defer store.Close()
	}

	opts := []builder.Option{
		builder.WithEnrichmentConfig(cfg.Enrichment),
		builder.WithAnalysisConfig(cfg.Analysis),
		builder.WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, builder.WithEnricher(store))
	}
	b := builder.New(opts...)
	b.Build(ctx, payload)
	return b, nil
}

// ResolveOrg finds an organization by EIN, exact name or unique name substring.
// Matching is case-insensitive. An empty want accepts either node type.
func ResolveOrg(g *graph.Network, reference string, want graph.NodeType) (*graph.NetworkNode, error) {
	accept := func(n *graph.NetworkNode) bool { return want == "" || n.Type == want }

	// 1. Exact ID match
	if n, ok := g.Node(reference); ok && accept(n) {
		return n, nil
	}

	// 2. Exact name, then substring
	ref := strings.ToLower(strings.TrimSpace(reference))
	var exact, partial []*graph.NetworkNode
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		if !accept(n) {
			continue
		}
		name := strings.ToLower(n.Name)
		switch {
		case name == ref:
			exact = append(exact, n)
		case strings.Contains(name, ref):
			partial = append(partial, n)
		}
	}
	for _, matches := range [][]*graph.NetworkNode{exact, partial} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return nil, ambiguous(reference, matches)
		}
	}

	kind := "organization"
	if want != "" {
		kind = string(want)
	}
	return nil, fmt.Errorf("%s not found: %s", kind, reference)
}

func ambiguous(reference string, matches []*graph.NetworkNode) error {
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	limit := 10
	if len(matches) < limit {
		limit = len(matches)
	}
	lines := make([]string, limit)
	for i := 0; i < limit; i++ {
		lines[i] = fmt.Sprintf("  %s %s", matches[i].ID, matches[i].Name)
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\nUse an EIN instead.",
		reference, len(matches), strings.Join(lines, "\n"))
}

func queryEngine(g *graph.Network) *query.Engine {
	return query.New(g,
		query.WithQueryConfig(cfg.Query),
		query.WithAnalysisConfig(cfg.Analysis),
		query.WithLogger(logger))
}
