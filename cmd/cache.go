package main

import (
	"context"

	"github.com/tunebridge/tunebridge/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CacheStats reports how many resolutions are cached and how often they hit.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := repositories.NewResolutionRepository(db).Stats()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]int{
			"entries": stats.Entries,
			"hits":    stats.TotalHits,
		}, true)
	}

	r.writePlainln("Resolution cache")
	r.writePlain("  Entries: %d\n", stats.Entries)
	r.writePlain("  Hits:    %d\n", stats.TotalHits)
	return nil
}

// CacheClear deletes every cached resolution.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := repositories.NewResolutionRepository(db).Clear()
	if err != nil {
		return err
	}

	r.writePlain("✓ Cleared %d cached resolutions\n", removed)
	return nil
}

// cacheCommand manages the track resolution cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the resolution cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache entry and hit counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached resolutions",
				Action: r.CacheClear,
			},
		},
	}
}
