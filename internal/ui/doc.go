// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist conversion:
//  1. [PlaylistListView] : Browse and select YouTube Music playlists
//  2. [TrackListView] : Preview tracks before converting
//  3. [ConfirmView] : Confirm the conversion
//  4. [ConvertView] : Monitor real-time progress updates
//  5. [ResultView] : Display success metrics and unmatched tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the converter, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
