package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/repositories"
	"github.com/tunebridge/tunebridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// conversionView is the JSON shape for one history row.
type conversionView struct {
	ID               string     `json:"id"`
	SourcePlaylistID string     `json:"source_playlist_id"`
	SourceName       string     `json:"source_name,omitempty"`
	DestPlaylistID   string     `json:"dest_playlist_id,omitempty"`
	DestURL          string     `json:"dest_url,omitempty"`
	Status           string     `json:"status"`
	TracksTotal      int        `json:"tracks_total"`
	TracksConverted  int        `json:"tracks_converted"`
	TracksUnresolved int        `json:"tracks_unresolved"`
	Error            string     `json:"error,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func newConversionView(c *models.Conversion) conversionView {
	return conversionView{
		ID:               c.ID(),
		SourcePlaylistID: c.SourcePlaylistID(),
		SourceName:       c.SourceName(),
		DestPlaylistID:   c.DestPlaylistID(),
		DestURL:          c.DestURL(),
		Status:           c.Status(),
		TracksTotal:      c.TracksTotal(),
		TracksConverted:  c.TracksConverted(),
		TracksUnresolved: c.TracksUnresolved(),
		Error:            c.ErrorMessage(),
		StartedAt:        c.StartedAt(),
		CompletedAt:      c.CompletedAt(),
	}
}

// History lists past conversion runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	status := cmd.String("status")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	criteria := map[string]any{}
	if status != "" {
		switch status {
		case models.ConversionRunning, models.ConversionCompleted, models.ConversionFailed:
			criteria["status"] = status
		default:
			return fmt.Errorf("%w: status must be running, completed, or failed", shared.ErrInvalidFlag)
		}
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewConversionRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}

	if useJSON {
		views := make([]conversionView, 0, len(runs))
		for _, run := range runs {
			views = append(views, newConversionView(run))
		}
		return r.writeJSON(views, true)
	}

	r.writePlainHeader("Conversion History")

	if len(runs) == 0 {
		r.writePlain("No conversions recorded yet.\n")
		return nil
	}

	for i, run := range runs {
		name := run.SourceName()
		if name == "" {
			name = run.SourcePlaylistID()
		}

		r.writePlain("%d. %s [%s]\n", i+1, name, run.Status())
		if started := run.StartedAt(); started != nil {
			r.writePlain("   Started: %s\n", started.Format("2006-01-02 15:04"))
		}

		switch run.Status() {
		case models.ConversionCompleted:
			r.writePlain("   Converted: %d/%d (+%d not found)\n", run.TracksConverted(), run.TracksTotal(), run.TracksUnresolved())
			if run.DestURL() != "" {
				r.writePlain("   Playlist: %s\n", run.DestURL())
			}
		case models.ConversionFailed:
			if run.ErrorMessage() != "" {
				r.writePlain("   Error: %s\n", run.ErrorMessage())
			}
			if run.DestURL() != "" {
				r.writePlain("   Partial playlist: %s\n", run.DestURL())
			}
		}
		r.writePlain("\n")
	}

	return nil
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past conversion runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status: running, completed, failed",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of runs to show",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: r.History,
	}
}
