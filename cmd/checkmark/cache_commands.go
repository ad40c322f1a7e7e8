package main

import (
	"fmt"
	"time"

	"github.com/mmcdole/checkmark/internal/adapter"
	"github.com/spf13/cobra"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-download the library and replace the cached snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.cache.Invalidate()
			ids, err := a.cache.CatalogIDs(cmd.Context())
			if err != nil {
				return fmt.Errorf("library refresh failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Library refreshed: %d tracks\n", ids.Len())
			return nil
		},
	}
}

func newClearCacheCommand(ctx *commandContext) *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop the cached library snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.buildApp()
			if err != nil {
				return err
			}
			a.cache.Invalidate()
			a.close()

			if allFlag {
				dir := a.settings.Current().Cache.Dir
				if err := adapter.ClearCache(dir); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", dir)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Library cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "Remove the cache directory for every catalog endpoint")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and cached snapshot state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			cfg := a.settings.Current()
			durations := cfg.Durations()

			fmt.Fprintf(out, "Config:      %s\n", orNone(a.settings.ConfigFile()))
			fmt.Fprintf(out, "Catalog:     %s (%s)\n", cfg.Catalog.URL, cfg.Catalog.Storefront)
			fmt.Fprintf(out, "Tokens:      %s\n", yesNo(cfg.IsConfigured(), "configured", "missing"))
			fmt.Fprintf(out, "Library TTL: %s\n", durations.Library)
			fmt.Fprintf(out, "Track TTL:   %s\n", durations.SingleSong)

			snapshot, ok := a.store.Load()
			if !ok {
				fmt.Fprintln(out, "Snapshot:    none")
				return nil
			}
			age := time.Since(snapshot.SavedAt()).Round(time.Second)
			fresh := snapshot.FreshAt(time.Now(), durations.Library)
			fmt.Fprintf(out, "Snapshot:    %d tracks, saved %s ago (%s)\n",
				len(snapshot.CatalogIDs), age, yesNo(fresh, "fresh", "stale"))
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "none (defaults)"
	}
	return s
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
