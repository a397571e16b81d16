package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/launchcache/internal/cacheclock"
	"github.com/pendergraft/launchcache/internal/config"
	"github.com/pendergraft/launchcache/internal/storage"
)

// cacheDomains are the arguments accepted by "cache clear"
var cacheDomains = []string{"launches", "rockets", "company", "all"}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and reset the offline cache",
	}

	cmd.AddCommand(newCacheStatusCmd())
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCacheEvictCmd())

	return cmd
}

func newCacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show row counts and cache timestamps",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(cfg *config.Config, store storage.Store, kv storage.KVStore) error {
				return cacheStatus(cmd.Context(), cmd.OutOrStdout(), store, kv, cfg.Cache, time.Now())
			})
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <launches|rockets|company|all>",
		Short: "Delete cached rows and their timestamps",
		Long: `Delete the cached rows of a domain together with its cache timestamps.
The next request for that domain goes to the upstream API.

EXAMPLES:
  launchcache-server cache clear launches
  launchcache-server cache clear all
`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: cacheDomains,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(cfg *config.Config, store storage.Store, kv storage.KVStore) error {
				return clearCache(cmd.Context(), cmd.OutOrStdout(), store, kv, args[0])
			})
		},
	}
}

func newCacheEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict <key>",
		Short: "Expire one cache key without deleting rows",
		Long: `Delete one cache timestamp so the next read of that key refreshes from
the upstream API. Cached rows stay available as the offline fallback.

Keys are listed by "cache status", e.g. company, rockets, launch_years,
launches.date_asc.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(cfg *config.Config, store storage.Store, kv storage.KVStore) error {
				return evictKey(cmd.Context(), cmd.OutOrStdout(), kv, args[0])
			})
		},
	}
}

func withStores(ctx context.Context, fn func(cfg *config.Config, store storage.Store, kv storage.KVStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := quietLogger()
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	kv, err := storage.NewKV(cfg.KV, store, logger)
	if err != nil {
		return fmt.Errorf("initializing kv store: %w", err)
	}
	if cfg.KV.Type == "redis" {
		defer kv.Close()
	}

	return fn(cfg, store, kv)
}

// ttlFor returns the TTL that governs key
func ttlFor(key string, ttls config.CacheConfig) time.Duration {
	switch {
	case key == cacheclock.KeyCompany:
		return ttls.CompanyTTL
	case key == cacheclock.KeyRockets:
		return ttls.RocketTTL
	case key == cacheclock.KeyLaunchYears:
		return ttls.YearsTTL
	case cacheclock.IsLaunchKey(key):
		return ttls.LaunchTTL
	}
	return 0
}

func cacheStatus(ctx context.Context, w io.Writer, store storage.Store, kv storage.TimestampStore, ttls config.CacheConfig, now time.Time) error {
	launches, err := store.CountLaunches(ctx)
	if err != nil {
		return fmt.Errorf("counting launches: %w", err)
	}
	rockets, err := store.CountRockets(ctx)
	if err != nil {
		return fmt.Errorf("counting rockets: %w", err)
	}
	company := "cached"
	if _, err := store.GetCompany(ctx); errors.Is(err, storage.ErrNotFound) {
		company = "not cached"
	} else if err != nil {
		return fmt.Errorf("reading company: %w", err)
	}

	stamps, err := kv.ListCacheTimestamps(ctx)
	if err != nil {
		return fmt.Errorf("listing cache timestamps: %w", err)
	}
	keys := make([]string, 0, len(stamps))
	for k := range stamps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "Launches: %d\n", launches)
	fmt.Fprintf(w, "Rockets:  %d\n", rockets)
	fmt.Fprintf(w, "Company:  %s\n", company)
	fmt.Fprintln(w)

	if len(keys) == 0 {
		fmt.Fprintln(w, "No cache timestamps recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tWRITTEN\tAGE\tSTATE")
	for _, k := range keys {
		at := stamps[k]
		age := now.Sub(at)
		state := "expired"
		if ttl := ttlFor(k, ttls); ttl > 0 && age < ttl {
			state = "fresh"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k, at.UTC().Format(time.RFC3339), age.Truncate(time.Second), state)
	}
	return tw.Flush()
}

func clearCache(ctx context.Context, w io.Writer, store storage.Store, kv storage.TimestampStore, domain string) error {
	var clear []func(context.Context) error
	var match func(key string) bool

	switch domain {
	case "launches":
		clear = []func(context.Context) error{
			store.ClearLaunches,
			func(ctx context.Context) error { return store.SaveLaunchYears(ctx, nil) },
		}
		match = func(k string) bool { return cacheclock.IsLaunchKey(k) || k == cacheclock.KeyLaunchYears }
	case "rockets":
		clear = []func(context.Context) error{store.ClearRockets}
		match = func(k string) bool { return k == cacheclock.KeyRockets }
	case "company":
		clear = []func(context.Context) error{store.ClearCompany}
		match = func(k string) bool { return k == cacheclock.KeyCompany }
	case "all":
		clear = []func(context.Context) error{
			store.ClearLaunches,
			func(ctx context.Context) error { return store.SaveLaunchYears(ctx, nil) },
			store.ClearRockets,
			store.ClearCompany,
		}
		match = func(string) bool { return true }
	default:
		return fmt.Errorf("unknown cache domain %q (want one of %v)", domain, cacheDomains)
	}

	for _, fn := range clear {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("clearing %s: %w", domain, err)
		}
	}

	stamps, err := kv.ListCacheTimestamps(ctx)
	if err != nil {
		return fmt.Errorf("listing cache timestamps: %w", err)
	}
	evicted := 0
	for k := range stamps {
		if !match(k) {
			continue
		}
		if err := kv.DeleteCacheTimestamp(ctx, k); err != nil {
			return fmt.Errorf("deleting timestamp %s: %w", k, err)
		}
		evicted++
	}

	fmt.Fprintf(w, "Cleared %s (%d timestamps removed)\n", domain, evicted)
	return nil
}

func evictKey(ctx context.Context, w io.Writer, kv storage.TimestampStore, key string) error {
	if _, err := kv.GetCacheTimestamp(ctx, key); errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no cache timestamp for %q", key)
	} else if err != nil {
		return fmt.Errorf("reading timestamp %s: %w", key, err)
	}

	if err := kv.DeleteCacheTimestamp(ctx, key); err != nil {
		return fmt.Errorf("deleting timestamp %s: %w", key, err)
	}
	fmt.Fprintf(w, "Evicted %s\n", key)
	return nil
}
