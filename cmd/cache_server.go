package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/s0up4200/blizzapi/blizzard"
	"github.com/s0up4200/blizzapi/cache"
	"github.com/s0up4200/blizzapi/config"
)

var (
	serverListen string
	serverDB     string
	serverBucket string
	serverTTL    time.Duration
	serverPurge  time.Duration
)

// cacheServerCmd represents the cache-server command
var cacheServerCmd = &cobra.Command{
	Use:   "cache-server",
	Short: "Run a shared response cache daemon",
	Long: `Serve a response cache over a unix or TCP socket so several blizzapi
processes can share cached responses. Clients use it with
cache.backend: daemon and cache.address set to the listen address.

Entries are kept in memory, or in a bbolt file when --db is set.`,
	RunE: runCacheServer,
}

func init() {
	rootCmd.AddCommand(cacheServerCmd)

	cacheServerCmd.Flags().StringVar(&serverListen, "listen", "unix:///tmp/blizzapi-cache.sock", "listen address (unix:///path or host:port)")
	cacheServerCmd.Flags().StringVar(&serverDB, "db", "", "bbolt file for persistent entries (default in memory)")
	cacheServerCmd.Flags().StringVar(&serverBucket, "bucket", "blizzapi", "bbolt bucket name")
	cacheServerCmd.Flags().DurationVar(&serverTTL, "default-ttl", blizzard.DefaultTTL, "TTL for entries stored without one")
	cacheServerCmd.Flags().DurationVar(&serverPurge, "purge-interval", 10*time.Minute, "how often expired bbolt entries are removed")
}

func runCacheServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger = setupLogger(config.LoggingConfig{
		Level:  logLevel,
		Format: "console",
		Color:  true,
	}, isatty.IsTerminal(os.Stderr.Fd()))

	var backing cache.Store
	if serverDB != "" {
		db, err := cache.OpenBolt(serverDB, cache.BoltOptions{Bucket: serverBucket, DefaultTTL: serverTTL})
		if err != nil {
			return fmt.Errorf("failed to open cache db: %w", err)
		}
		defer db.Close()
		go purgeLoop(ctx, db, serverPurge)
		backing = db
	} else {
		backing = cache.NewMemory(cache.WithDefaultTTL(serverTTL))
	}

	network, addr, err := cache.ParseAddress(serverListen)
	if err != nil {
		return err
	}
	if network == "unix" {
		// A stale socket from a previous run blocks Listen
		_ = os.Remove(addr)
	}

	l, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", serverListen, err)
	}

	logger.Info().
		Str("network", network).
		Str("address", addr).
		Bool("persistent", serverDB != "").
		Msg("Cache server listening")

	err = cache.NewServer(backing, logger).Serve(ctx, l)
	logger.Info().Msg("Cache server stopped")
	return err
}

func purgeLoop(ctx context.Context, db *cache.Bolt, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.Purge()
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to purge expired entries")
				continue
			}
			if n > 0 {
				logger.Debug().Int("removed", n).Msg("Purged expired entries")
			}
		}
	}
}
