// Command tunebridge converts YouTube Music playlists into Spotify playlists.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/tunebridge/tunebridge/internal/services"
	"github.com/tunebridge/tunebridge/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadDotenv(); err != nil {
		logger.Warnf("%v", err)
	}

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			logger.Warnf("failed to load %s, using defaults: %v", configPath, err)
		}
	}

	var spotify services.DestinationCatalog
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if token := config.Credentials.Spotify.Token(); token != nil {
				if err := svc.OAuthenticate(context.Background(), token); err != nil {
					logger.Debugf("stored token not usable: %v", err)
				}
			}
			spotify = svc
		} else {
			logger.Warnf("spotify client unavailable: %v", err)
		}
	}

	ytmusic := services.NewYTMusicService(config.Credentials.YTMusic.ProxyURL)
	api := services.NewAPIService(config.Credentials.YTMusic.ProxyURL, nil)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotify,
		YTMusic:    ytmusic,
		API:        api,
		Logger:     logger,
	})

	if svc, ok := spotify.(*services.SpotifyService); ok {
		svc.SetTokenRefreshCallback(runner.onTokenRefresh)
	}

	app := &cli.Command{
		Name:     "tunebridge",
		Usage:    "Convert YouTube Music playlists to Spotify",
		Version:  version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
