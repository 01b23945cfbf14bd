// Package models defines domain entities and persistence interfaces for the tunebridge playlist converter.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs passed between the catalog clients and the converter
//   - [Track] : Song metadata as read from the source catalog
//   - [SourcePlaylist] : A source playlist with its complete track listing
//   - [Playlist] : Basic playlist metadata from either catalog
//   - [ConversionResult] : The outcome of one conversion run
//
// 2. Persistent Entities: Database-backed rows with full lifecycle management
//   - [Account] : Authorized destination-catalog profiles
//   - [CachedResolution] : Resolved search results keyed by normalized title and artist
//   - [PlaylistSnapshot] : Saved playlist listings for offline inspection
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
