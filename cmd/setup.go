package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tunebridge/tunebridge/internal/services"
	"github.com/tunebridge/tunebridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the config template and initializes the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	force := cmd.Bool("force")

	if _, err := os.Stat(configPath); err == nil && !force {
		r.writePlain("Config already exists at %s (use --force to overwrite)\n", configPath)
	} else {
		if force {
			if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove existing config: %w", err)
			}
		}
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config written to %s\n", configPath)
		r.writePlain("  Fill in spotify client_id and client_secret before running 'tunebridge auth login'.\n")
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warnf("failed to load config, using defaults %v", err)
		config = shared.DefaultConfig()
	}
	r.config = config
	r.configPath = configPath

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	return nil
}

// SetupCheck verifies credentials, proxy reachability, and schema state.
func (r *Runner) SetupCheck(ctx context.Context, cmd *cli.Command) error {
	ok := true

	if r.config.Credentials.Spotify.ClientID != "" && r.config.Credentials.Spotify.ClientSecret != "" {
		r.writePlain("✓ Spotify credentials configured\n")
	} else {
		ok = false
		r.writePlain("✗ Spotify credentials missing (set credentials.spotify in config.toml)\n")
	}

	if r.config.Credentials.Spotify.Token() != nil {
		r.writePlain("✓ Spotify tokens stored\n")
		if spotify, isService := r.spotify.(*services.SpotifyService); isService {
			if _, err := spotify.UserProfile(ctx); err != nil {
				r.writePlain("⚠ Spotify API check failed: %v\n", err)
			} else {
				r.writePlain("✓ Spotify API reachable\n")
			}
		}
	} else {
		r.writePlain("✗ Spotify tokens missing (run 'tunebridge auth login')\n")
	}

	if ytmusic, isService := r.ytmusic.(*services.YTMusicService); isService {
		if err := ytmusic.Ping(ctx); err != nil {
			ok = false
			r.writePlain("✗ YouTube Music proxy unreachable: %v\n", err)
		} else {
			r.writePlain("✓ YouTube Music proxy reachable\n")
			r.reportProxyAuth(ctx)
		}
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		ok = false
		r.writePlain("✗ Database unavailable: %v\n", err)
	} else {
		defer db.Close()
		status, err := shared.CheckMigrations(db)
		switch {
		case err != nil:
			ok = false
			r.writePlain("✗ Migration check failed: %v\n", err)
		case status.Applied < status.Available:
			ok = false
			r.writePlain("✗ Migrations behind: %d/%d applied (run 'tunebridge setup')\n", status.Applied, status.Available)
		default:
			r.writePlain("✓ Database migrated (version %d)\n", status.Current)
		}
	}

	if !ok {
		return fmt.Errorf("%w: setup incomplete", shared.ErrInvalidConfig)
	}

	r.writePlainln("✓ All checks passed")
	return nil
}

// reportProxyAuth asks the proxy's health endpoint whether browser
// credentials are loaded.
func (r *Runner) reportProxyAuth(ctx context.Context) {
	resp, err := r.api.Get(ctx, "/health")
	if err != nil || !resp.IsJSON {
		return
	}

	healthData, isMap := resp.JSONData.(map[string]any)
	if !isMap {
		return
	}

	if authenticated, _ := healthData["authenticated"].(bool); authenticated {
		r.writePlain("✓ Proxy browser auth configured\n")
	} else {
		r.writePlain("✗ Proxy browser auth missing (run 'tunebridge setup browser')\n")
	}
}

// SetupBrowser configures YouTube Music authentication from browser headers.
//
// Accepts a cURL command copied from the browser's network tab and generates
// browser.json through the proxy.
func (r *Runner) SetupBrowser(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for YouTube Music headers")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	headersRaw := curlHeaders.ToHeadersRaw()

	r.logger.Debug("generated headers_raw", "length", len(headersRaw))
	r.logger.Info("calling YouTube Music proxy setup endpoint")

	setupResp, err := r.api.SetupBrowser(ctx, headersRaw)
	if err != nil {
		return fmt.Errorf("setup request failed: %w", err)
	}

	if !setupResp.Success {
		return fmt.Errorf("setup failed: %s", setupResp.Message)
	}

	r.logger.Info("setup successful", "message", setupResp.Message)

	if outputPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		outputPath = filepath.Join(homeDir, ".tunebridge", "browser.json")
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	authJSON, err := json.MarshalIndent(setupResp.AuthContent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal auth content: %w", err)
	}

	if err := os.WriteFile(outputPath, authJSON, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	r.logger.Info("browser.json saved", "path", outputPath)

	r.writePlain("✓ YouTube Music authentication configured successfully\n")
	r.writePlain("Auth file saved to: %s\n", outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Update config.toml with: credentials.ytmusic.auth_file = \"%s\"\n", outputPath)
	r.writePlain("2. Run 'tunebridge setup check' to verify authentication\n")

	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write the config template and initialize the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: r.Setup,
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Verify credentials, proxy, and database state",
				Action: r.SetupCheck,
			},
			{
				Name:    "browser",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Configure YouTube Music auth from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from the browser",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File containing the cURL command",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write browser.json",
					},
				},
				Action: r.SetupBrowser,
			},
		},
	}
}
