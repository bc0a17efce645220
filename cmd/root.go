package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/blizzapi/blizzard"
	"github.com/s0up4200/blizzapi/cache"
	"github.com/s0up4200/blizzapi/config"
	"github.com/s0up4200/blizzapi/oauth"
	"github.com/s0up4200/blizzapi/query"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	logger   = zerolog.New(os.Stderr).With().Timestamp().Logger()
	client   *blizzard.Client
	store    cache.Store
	registry *prometheus.Registry
	metrics  *blizzard.Metrics
	compiler = query.NewCompiler(query.WithCache(64))

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blizzapi",
	Short: "A client for the Battle.net game data and profile APIs",
	Long: `blizzapi fetches World of Warcraft game data and profile resources from
the regional Battle.net APIs. It manages the OAuth client-credentials token,
resolves namespaces per region and caches successful responses in memory,
Redis, a bbolt file or a shared cache-server daemon.`,
	SilenceUsage: true,
}

// SetVersion records build information injected at link time
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, built)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

// initializeApp loads the configuration and builds the API client. It runs
// before every command that talks to Battle.net.
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	// Setup logger
	logger = setupLogger(cfg.Logging, isatty.IsTerminal(os.Stderr.Fd()))

	store, err = cache.Open(cfg.CacheOptions())
	if err != nil {
		return fmt.Errorf("failed to open %s cache: %w", cfg.Cache.Backend, err)
	}

	registry = prometheus.NewRegistry()
	metrics = blizzard.NewMetrics(registry)

	client, err = blizzard.NewClient(cfg.ClientSettings(), logger,
		blizzard.WithCache(store),
		blizzard.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	logger.Debug().
		Str("region", cfg.Client.Region).
		Bool("cache", cfg.Cache.Enabled).
		Str("backend", cfg.Cache.Backend).
		Msg("Client initialized")

	return nil
}

// shutdownApp releases the cache backend opened by initializeApp
func shutdownApp(cmd *cobra.Command, args []string) error {
	logMetrics()
	if store == nil {
		return nil
	}
	if err := cache.Close(store); err != nil {
		logger.Warn().Err(err).Msg("Failed to close cache")
	}
	return nil
}

// newTokenManager builds a standalone token manager from the loaded config
func newTokenManager() (*oauth.Manager, error) {
	tokenURL := oauth.TokenURL(cfg.Client.Region, cfg.Client.AuthHost)
	return oauth.NewManager(cfg.Client.ID, cfg.Client.Secret, tokenURL, logger,
		oauth.WithRefreshHook(metrics.ObserveRefresh),
	)
}

// setupLogger configures the zerolog logger. Colors are only used when
// enabled and stderr is a terminal.
func setupLogger(cfg config.LoggingConfig, terminal bool) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !terminal,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// logMetrics writes the non-zero executor counters at debug level
func logMetrics() {
	if registry == nil {
		return
	}
	families, err := registry.Gather()
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			ev := logger.Debug().Str("metric", mf.GetName()).Float64("value", value)
			for _, l := range m.GetLabel() {
				ev = ev.Str(l.GetName(), l.GetValue())
			}
			ev.Msg("Metric")
		}
	}
}
