package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/repositories"
	"github.com/tunebridge/tunebridge/internal/server"
	"github.com/tunebridge/tunebridge/internal/services"
	"github.com/tunebridge/tunebridge/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens which are persisted to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, configPath)
	}

	spotifyService, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(config, spotifyService, "authorization")
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.config = config
	r.configPath = configPath

	if err := spotifyService.OAuthenticate(ctx, token); err != nil {
		r.logger.Warnf("failed to activate new tokens %v", err)
	} else {
		spotifyService.SetTokenRefreshCallback(r.onTokenRefresh)
		r.spotify = spotifyService
		r.recordAccount(ctx, spotifyService)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: tunebridge convert <playlist-url>\n")

	return nil
}

// AuthStatus reports whether tokens are stored and still usable.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		r.writePlainln("✗ Not authenticated")
		r.writePlain("Run 'tunebridge auth login' to authorize with Spotify.\n")
		return nil
	}

	r.writePlainln("✓ Tokens stored")

	switch {
	case token.Expiry.IsZero():
		r.writePlain("  Expiry: unknown\n")
	case token.Valid():
		r.writePlain("  Expires: %s\n", token.Expiry.Format(time.RFC1123))
	default:
		r.writePlain("  Expired: %s (will refresh on next use)\n", token.Expiry.Format(time.RFC1123))
	}

	spotifyService, ok := r.spotify.(*services.SpotifyService)
	if !ok {
		return nil
	}

	user, err := spotifyService.UserProfile(ctx)
	if err != nil {
		r.writePlain("⚠ Live check failed: %v\n", err)
		return nil
	}

	r.writePlain("  Account: %s (%s product)\n", user.DisplayName, user.Product)
	return nil
}

// recordAccount upserts the authenticated Spotify profile into the accounts
// table. Best effort; a missing database never fails the login.
func (r *Runner) recordAccount(ctx context.Context, spotify *services.SpotifyService) {
	user, err := spotify.UserProfile(ctx)
	if err != nil {
		r.logger.Debugf("skipping account record, profile fetch failed: %v", err)
		return
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Debugf("skipping account record, database unavailable: %v", err)
		return
	}
	defer db.Close()

	account := models.NewAccount(0, "spotify", user.ID, user.DisplayName)
	account.SetEmail(user.Email)
	account.SetCountry(user.Country)
	account.SetProduct(user.Product)
	account.SetLastAuthAt(time.Now())

	if err := repositories.NewAccountRepository(db).Upsert(account); err != nil {
		r.logger.Warnf("failed to record account: %v", err)
	}
}

// Reauthorize runs the OAuth2 flow again and saves the replacement tokens.
func (r *Runner) Reauthorize(ctx context.Context, configPath string, config *shared.Config, catalog services.OAuthCatalog) (*shared.Config, error) {
	token, err := r.doOAuth(config, catalog, "reauthorization")
	if err != nil {
		return nil, err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return nil, fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Reauthorization successful")
	r.writePlain("✓ New tokens saved to %s\n", configPath)

	return config, nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server.
func (r *Runner) doOAuth(config *shared.Config, catalog services.OAuthCatalog, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := catalog.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(catalog.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:    config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// handleAuthError checks whether err means the access token expired and, if
// so, runs reauthorization. Callers pass the config path of the flag they
// registered, or empty to fall back to the runner's own.
func (r *Runner) handleAuthError(ctx context.Context, err error, configPath string) (bool, error) {
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) {
		return false, err
	}

	r.writePlainln("⚠ Access token expired. Starting reauthorization...\n")

	if configPath == "" {
		configPath = r.configPath
	}
	if configPath == "" {
		configPath = "config.toml"
	}

	config := r.config
	if config == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			var loadErr error
			if config, loadErr = shared.LoadConfig(configPath); loadErr != nil {
				return true, fmt.Errorf("failed to load config: %w", loadErr)
			}
		} else {
			return true, fmt.Errorf("config file not found: %w", statErr)
		}
	}

	catalog, ok := r.spotify.(services.OAuthCatalog)
	if !ok {
		return true, fmt.Errorf("spotify service does not support reauthorization")
	}

	updated, reauthErr := r.Reauthorize(ctx, configPath, config, catalog)
	if reauthErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", reauthErr)
	}

	if authErr := catalog.OAuthenticate(ctx, updated.Credentials.Spotify.Token()); authErr != nil {
		return true, fmt.Errorf("failed to authenticate with new tokens: %w", authErr)
	}

	r.config = updated
	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...\n")

	return true, nil
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify via OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to config file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show stored token state",
				Action: r.AuthStatus,
			},
		},
	}
}
