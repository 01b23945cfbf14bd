// Package converter orchestrates playlist conversion from YouTube Music to Spotify with real-time progress reporting.
//
// # Core Operation
//
// [Converter.Convert] runs the full pipeline:
//
//  1. Validate the share URL and extract the playlist ID
//     - Accepts https URLs on YouTube hosts carrying a list parameter
//  2. Fetch the source playlist from YouTube Music
//  3. Resolve each track against Spotify search
//     - Query built from title plus an artist: field filter
//     - Sequential by default, worker pool when Options.Workers > 1
//  4. Create the destination playlist (private)
//  5. Attach resolved tracks in batches of at most 100
//
// Individual track failures never abort a run; unmatched tracks accumulate in
// the result's unresolved list and appear in the final report.
//
// # Progress Reporting
//
// All phases emit [ProgressUpdate] values through an optional channel.
// Updates use select with default to prevent blocking.
//
// # Resolution Caching
//
// The optional [ResolutionStore] interface enables cross-run caching of
// track resolutions keyed by normalized title and artist.
//
// Resolutions are cached silently (errors ignored) to avoid disrupting conversions.
//
// # Implementation
//
// [Converter] depends on:
//   - [SourceClient] : YouTube Music playlist retrieval (services.YTMusicService)
//   - [DestinationClient] : Spotify search and playlist writes (services.SpotifyService)
//   - [ResolutionStore] : Optional persistence layer (repositories.ResolutionRepository)
package converter
