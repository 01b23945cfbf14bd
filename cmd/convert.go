package main

import (
	"context"
	"fmt"
	"path"

	"github.com/charmbracelet/log"
	"github.com/tunebridge/tunebridge/internal/converter"
	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/repositories"
	"github.com/tunebridge/tunebridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Convert runs the full pipeline for one playlist URL: fetch the playlist
// from YouTube Music, resolve every track against Spotify, create the
// destination playlist and attach whatever matched.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.StringArg("url")
	if playlistURL == "" {
		return fmt.Errorf("%w: playlist URL", shared.ErrMissingArgument)
	}

	if r.spotify == nil {
		return fmt.Errorf("%w: spotify is not configured, run 'tunebridge auth login'", shared.ErrServiceUnavailable)
	}

	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	useJSON := cmd.Bool("json")

	opts := r.converterOptions()
	opts.Name = cmd.String("name")
	opts.Description = cmd.String("description")
	if workers := cmd.Int("workers"); workers > 0 {
		opts.Workers = workers
	}

	var (
		history *repositories.ConversionRepository
		store   converter.ResolutionStore
	)

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warnf("database unavailable, continuing without cache or history: %v", err)
	} else {
		defer db.Close()
		history = repositories.NewConversionRepository(db)
		if r.config.Converter.Cache && !cmd.Bool("no-cache") {
			store = r.newResolutionStore(db)
		}
	}

	conv := r.newConverter(store)
	record := r.startConversionRecord(history, playlistURL)

	progress := make(chan converter.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if playlist, ok := update.Data.(*models.SourcePlaylist); ok && record != nil {
				record.SetSourceName(playlist.Name)
			}
			if useJSON {
				r.logger.Debug("progress", "phase", update.Phase.String(), "message", update.Message)
				continue
			}
			r.printProgress(update)
		}
	}()

	result, runErr := conv.Convert(ctx, playlistURL, opts, progress)
	close(progress)
	<-done

	r.finishConversionRecord(history, record, result, runErr)

	if runErr != nil {
		if result != nil && result.PlaylistURL != "" {
			// An attach batch failed after creation; earlier batches are in.
			r.writePlainln("⚠ The playlist was created but not fully filled: %s", result.PlaylistURL)
		}
		return runErr
	}

	if useJSON {
		return r.writeJSON(result, true)
	}

	r.writePlainln("%s", converter.Summarize(result))
	return nil
}

// startConversionRecord inserts a running history row before the pipeline
// starts. Recording is best effort and never blocks the conversion.
func (r *Runner) startConversionRecord(history *repositories.ConversionRepository, playlistURL string) *models.Conversion {
	if history == nil {
		return nil
	}

	sourceID, err := converter.ParseSourceURL(playlistURL)
	if err != nil {
		sourceID = playlistURL
	}

	record := models.NewConversion(0, sourceID)
	if err := history.Create(record); err != nil {
		r.logger.Warnf("failed to record conversion start: %v", err)
		return nil
	}

	return record
}

// finishConversionRecord settles the history row with the run's outcome,
// including partial counts when an attach batch failed midway.
func (r *Runner) finishConversionRecord(history *repositories.ConversionRepository, record *models.Conversion, result *models.ConversionResult, runErr error) {
	if history == nil || record == nil {
		return
	}

	if runErr != nil {
		record.Fail(runErr)
		if result != nil {
			record.SetDestURL(result.PlaylistURL)
			record.SetTracksTotal(result.TotalTracks)
			record.SetTracksConverted(result.ResolvedTracks)
			record.SetTracksUnresolved(len(result.Unresolved))
		}
	} else {
		record.Complete(result)
	}

	if record.DestURL() != "" {
		record.SetDestPlaylistID(path.Base(record.DestURL()))
	}

	if err := history.Update(record); err != nil {
		r.logger.Warnf("failed to record conversion outcome: %v", err)
	}
}

// printProgress renders one pipeline update for terminal output.
func (r *Runner) printProgress(update converter.ProgressUpdate) {
	switch update.Phase {
	case converter.FetchSource:
		r.writePlain("📥 %s\n", update.Message)
	case converter.ResolveTracks:
		if update.Step == 0 {
			r.writePlain("\n🔍 %s\n", update.Message)
			return
		}
		r.writePlain("   %s\n", update.Message)
	case converter.CreatePlaylist:
		r.writePlain("\n📝 %s\n", update.Message)
	case converter.AttachTracks:
		r.writePlain("   %s\n", update.Message)
	case converter.Complete:
		r.writePlain("\n✓ %s\n", update.Message)
	}
}

func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a YouTube Music playlist to a Spotify playlist",
		ArgsUsage: "<playlist-url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Name for the created playlist",
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Description for the created playlist",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of concurrent track searches",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the conversion report as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the resolution cache for this run",
			},
		},
		Action: r.Convert,
	}
}
