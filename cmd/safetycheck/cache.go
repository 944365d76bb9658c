// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/safetycheck/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the verdict cache",
	Long: `Cache manages stored analysis verdicts. Entries are keyed by substance
name and analysis mode and expire after the configured TTL.`,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(engineConfig().Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.Prune(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired entries.\n", removed)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts per mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(engineConfig().Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Entries:  %d\n", stats.Total)
		modes := make([]string, 0, len(stats.ByMode))
		for mode := range stats.ByMode {
			modes = append(modes, mode)
		}
		sort.Strings(modes)
		for _, mode := range modes {
			fmt.Printf("  %-14s %d\n", mode+":", stats.ByMode[mode])
		}
		fmt.Printf("Expired:  %d\n", stats.Expired)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
