package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tunebridge/tunebridge/internal/converter"
	"github.com/tunebridge/tunebridge/internal/formatter"
	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/repositories"
	"github.com/tunebridge/tunebridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the authenticated user's Spotify playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	if r.spotify == nil {
		return fmt.Errorf("%w: spotify is not configured, run 'tunebridge auth login'", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing spotify playlists with limit %v", limit)

	playlists, err := r.spotify.GetPlaylists(ctx)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd.String("config")); reauthed {
			if authErr != nil {
				return authErr
			}
			if playlists, err = r.spotify.GetPlaylists(ctx); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if save {
		if err := r.snapshotListing("spotify", playlists); err != nil {
			r.logger.Warnf("failed to snapshot playlists: %v", err)
		} else {
			r.logger.Info("playlists snapshotted", "count", len(playlists))
		}
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("   Visibility: %s\n", shared.VisibilityString(p.Public))
		r.writePlain("\n")
	}

	return nil
}

// snapshotListing stores a playlist listing in the snapshots table.
func (r *Runner) snapshotListing(service string, playlists []models.Playlist) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	return repositories.NewSnapshotRepository(db).SaveListing(service, playlists)
}

// PlaylistsSource fetches one YouTube Music playlist with its full track
// listing, by share URL or bare playlist ID.
func (r *Runner) PlaylistsSource(ctx context.Context, cmd *cli.Command) error {
	locator := cmd.StringArg("playlist")
	if locator == "" {
		return fmt.Errorf("%w: playlist URL or ID", shared.ErrMissingArgument)
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	export := cmd.String("export")
	output := cmd.String("output")

	playlistID, err := converter.ParseSourceURL(locator)
	if err != nil {
		// Not a URL; anything without URL punctuation is taken as a raw ID.
		if strings.ContainsAny(locator, ":/?") {
			return err
		}
		playlistID = locator
	}

	r.logger.Infof("fetching source playlist %v", playlistID)

	playlist, err := r.ytmusic.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if export != "" {
		return r.exportPlaylist(playlist, export, output)
	}

	if useJSON {
		return r.writeJSON(playlist, pretty)
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		r.writePlain("Description: %s\n", playlist.Description)
	}
	r.writePlain("Tracks: %d\n\n", len(playlist.Tracks))

	for i, track := range playlist.Tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.ArtistLine(), track.Title)
		if track.Album != "" && track.Album != models.UnknownAlbum {
			r.writePlain("   Album: %s\n", track.Album)
		}
		if track.Duration > 0 {
			r.writePlain("   Duration: %s\n", shared.FormatDuration(track.Duration))
		}
		if track.ISRC != "" {
			r.writePlain("   ISRC: %s\n", track.ISRC)
		}
	}

	return nil
}

// exportPlaylist writes the playlist to disk in the requested format.
func (r *Runner) exportPlaylist(playlist *models.SourcePlaylist, format, output string) error {
	switch strings.ToLower(format) {
	case "csv":
		result, err := formatter.WriteCSVExport(playlist, output)
		if err != nil {
			return fmt.Errorf("csv export failed: %w", err)
		}
		r.writePlain("✓ Tracks exported to %s\n", result.TracksFile)
		r.writePlain("✓ Metadata exported to %s\n", result.MetadataFile)
		return nil

	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(playlist, output, playlist.ArtworkURL)
		if err != nil {
			return fmt.Errorf("markdown export failed: %w", err)
		}
		r.writePlain("✓ Playlist exported to %s/\n", result.Directory)
		if result.CoverImage != "" {
			r.writePlain("✓ Cover image saved to %s\n", result.CoverImage)
		}
		return nil

	case "text", "txt":
		file, err := formatter.WriteTextExport(playlist, output)
		if err != nil {
			return fmt.Errorf("text export failed: %w", err)
		}
		r.writePlain("✓ Tracks exported to %s\n", file)
		return nil

	case "json":
		data, err := formatter.ExportToJSON(playlist)
		if err != nil {
			return fmt.Errorf("json export failed: %w", err)
		}
		if output == "" {
			output = fmt.Sprintf("%s.json", playlist.ID)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		r.writePlain("✓ Playlist exported to %s\n", output)
		return nil

	default:
		return fmt.Errorf("%w: unknown export format %q (csv, markdown, text, json)", shared.ErrInvalidFlag, format)
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of playlists to show",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Snapshot the listing into the local database",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
			},
		},
		Action: r.Playlists,
		Commands: []*cli.Command{
			{
				Name:      "source",
				Usage:     "Show a YouTube Music playlist with its tracks",
				ArgsUsage: "<playlist-url-or-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
					&cli.StringFlag{
						Name:    "export",
						Aliases: []string{"e"},
						Usage:   "Export format: csv, markdown, text, json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path for exports",
					},
				},
				Action: r.PlaylistsSource,
			},
		},
	}
}
