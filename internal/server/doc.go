// Package server provides the local HTTP surface for OAuth callbacks and
// redirect-URI debugging.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added wraps innermost), following the standard Go pattern.
// [RequestLogger] is the one middleware the CLI installs.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs `tunebridge auth spotify`, a temporary HTTP server starts
// on the configured host and port (localhost:3000 by default), handles the
// callback, and shuts down after receiving the OAuth token.
//
// `tunebridge serve` runs the same router standalone with [HealthHandler] and
// [CallbackProbe] registered, so a redirect URI can be verified against the
// Spotify dashboard before running the real flow.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
