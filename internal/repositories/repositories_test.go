package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/tunebridge/tunebridge/internal/converter"
	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "resolutions")
	if err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}

	second, err := NextSequence(db, "resolutions")
	if err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}

	if second != first+1 {
		t.Errorf("sequence did not increment: %d then %d", first, second)
	}

	other, err := NextSequence(db, "snapshots")
	if err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}
	if other != 1 {
		t.Errorf("snapshots sequence = %d, want independent counter starting at 1", other)
	}
}

func TestResolutionRepository(t *testing.T) {
	newResolution := func(title, artist, spotifyID string) *models.CachedResolution {
		track := models.NewTrack(title, []string{artist}, "", 0)
		key := shared.NormalizeTrackKey(title, artist)
		return models.NewCachedResolution(0, key, spotifyID, track)
	}

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		res := newResolution("Bohemian Rhapsody", "Queen", "sp1")

		if err := repo.Create(res); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}

		if res.ID() == "" {
			t.Error("resolution ID should be set after creation")
		}
	})

	t.Run("Duplicate Key Rejected", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)

		if err := repo.Create(newResolution("Bohemian Rhapsody", "Queen", "sp1")); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}

		err := repo.Create(newResolution("Bohemian Rhapsody", "Queen", "sp2"))
		if err == nil {
			t.Fatal("expected UNIQUE violation for duplicate key")
		}
		if !strings.Contains(err.Error(), "UNIQUE constraint") {
			t.Errorf("error = %v, want UNIQUE constraint violation", err)
		}
	})

	t.Run("GetByKey", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		res := newResolution("Bohemian Rhapsody", "Queen", "sp1")

		if err := repo.Create(res); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}

		retrieved, err := repo.GetByKey(shared.NormalizeTrackKey("Bohemian Rhapsody", "Queen"))
		if err != nil {
			t.Fatalf("failed to get resolution: %v", err)
		}

		if retrieved.SpotifyID() != "sp1" {
			t.Errorf("expected spotify ID sp1, got %s", retrieved.SpotifyID())
		}
		if retrieved.Title() != "Bohemian Rhapsody" {
			t.Errorf("expected title round-trip, got %s", retrieved.Title())
		}
		if retrieved.Artist() != "Queen" {
			t.Errorf("expected artist round-trip, got %s", retrieved.Artist())
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		if _, err := repo.GetByKey("no|such|key"); err == nil {
			t.Error("expected error for missing key")
		}
	})

	t.Run("RecordHit And Stats", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)

		if err := repo.Create(newResolution("Song A", "Artist A", "sp1")); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}
		if err := repo.Create(newResolution("Song B", "Artist B", "sp2")); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}

		keyA := shared.NormalizeTrackKey("Song A", "Artist A")
		for i := 0; i < 3; i++ {
			if err := repo.RecordHit(keyA); err != nil {
				t.Fatalf("failed to record hit: %v", err)
			}
		}

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		if stats.Entries != 2 {
			t.Errorf("stats entries = %d, want 2", stats.Entries)
		}
		if stats.TotalHits != 3 {
			t.Errorf("stats hits = %d, want 3", stats.TotalHits)
		}

		retrieved, err := repo.GetByKey(keyA)
		if err != nil {
			t.Fatalf("failed to get resolution: %v", err)
		}
		if retrieved.Hits() != 3 {
			t.Errorf("hits = %d, want 3", retrieved.Hits())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		res := newResolution("Song A", "Artist A", "sp1")

		if err := repo.Create(res); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}

		retrieved, err := repo.GetByKey(res.Key())
		if err != nil {
			t.Fatalf("failed to get resolution: %v", err)
		}

		if err := repo.Update(retrieved); err != nil {
			t.Fatalf("failed to update resolution: %v", err)
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		res := newResolution("Ghost", "Nobody", "sp0")
		res.SetID("nonexistent")

		if err := repo.Update(res); err == nil {
			t.Error("expected error updating missing resolution")
		}
	})

	t.Run("Delete Frees The Key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		res := newResolution("Song A", "Artist A", "sp1")

		if err := repo.Create(res); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}
		if err := repo.Delete(res.ID()); err != nil {
			t.Fatalf("failed to delete resolution: %v", err)
		}

		if _, err := repo.GetByKey(res.Key()); err == nil {
			t.Error("expected error when getting deleted resolution")
		}

		// The key is reusable after deletion.
		if err := repo.Create(newResolution("Song A", "Artist A", "sp9")); err != nil {
			t.Errorf("key should be reusable after delete: %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		for i := 1; i <= 3; i++ {
			artist := "Artist A"
			if i == 3 {
				artist = "Artist B"
			}
			if err := repo.Create(newResolution(fmt.Sprintf("Song %d", i), artist, fmt.Sprintf("sp%d", i))); err != nil {
				t.Fatalf("failed to create resolution: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list resolutions: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("listed %d resolutions, want 3", len(all))
		}

		filtered, err := repo.List(map[string]any{"artist": "Artist B"})
		if err != nil {
			t.Fatalf("failed to list resolutions: %v", err)
		}
		if len(filtered) != 1 || filtered[0].SpotifyID() != "sp3" {
			t.Errorf("artist filter returned %d rows", len(filtered))
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewResolutionRepository(db)
		for i := 1; i <= 4; i++ {
			if err := repo.Create(newResolution(fmt.Sprintf("Song %d", i), "Artist", fmt.Sprintf("sp%d", i))); err != nil {
				t.Fatalf("failed to create resolution: %v", err)
			}
		}

		removed, err := repo.Clear()
		if err != nil {
			t.Fatalf("failed to clear cache: %v", err)
		}
		if removed != 4 {
			t.Errorf("cleared %d rows, want 4", removed)
		}

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		if stats.Entries != 0 || stats.TotalHits != 0 {
			t.Errorf("stats after clear = %+v, want empty", stats)
		}
	})
}

func TestResolutionCacheAdapter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewResolutionRepository(db)
	adapter := NewResolutionCacheAdapter(repo)

	var _ converter.ResolutionStore = adapter

	ctx := context.Background()
	track := models.NewTrack("Bohemian Rhapsody", []string{"Queen"}, "A Night at the Opera", 355)
	key := shared.NormalizeTrackKey(track.Title, track.PrimaryArtist())

	t.Run("Miss Before Store", func(t *testing.T) {
		if _, ok := adapter.Lookup(ctx, key); ok {
			t.Error("expected miss on empty cache")
		}
	})

	t.Run("Store Then Lookup", func(t *testing.T) {
		adapter.Store(ctx, key, track, "sp_bohemian")

		id, ok := adapter.Lookup(ctx, key)
		if !ok {
			t.Fatal("expected hit after store")
		}
		if id != "sp_bohemian" {
			t.Errorf("Lookup() = %q, want sp_bohemian", id)
		}
	})

	t.Run("Hits Are Counted", func(t *testing.T) {
		adapter.Lookup(ctx, key)

		retrieved, err := repo.GetByKey(key)
		if err != nil {
			t.Fatalf("failed to get resolution: %v", err)
		}
		if retrieved.Hits() < 2 {
			t.Errorf("hits = %d, want lookups counted", retrieved.Hits())
		}
	})

	t.Run("Duplicate Store Is Silent", func(t *testing.T) {
		adapter.Store(ctx, key, track, "sp_other")

		id, _ := adapter.Lookup(ctx, key)
		if id != "sp_bohemian" {
			t.Errorf("first stored resolution should win, got %q", id)
		}
	})
}

func TestSnapshotRepository(t *testing.T) {
	playlist := models.Playlist{
		ID:          "PL123",
		Name:        "Road Trip",
		Description: "summer songs",
		TrackCount:  42,
		Public:      true,
	}

	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSnapshotRepository(db)
		snapshot := models.NewPlaylistSnapshot(0, "youtube", playlist)

		if err := repo.Create(snapshot); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}
		if snapshot.ID() == "" {
			t.Error("snapshot ID should be set after creation")
		}

		retrieved, err := repo.Get(snapshot.ID())
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if retrieved.Name() != "Road Trip" || retrieved.TrackCount() != 42 {
			t.Errorf("retrieved snapshot = %s/%d", retrieved.Name(), retrieved.TrackCount())
		}
		if !retrieved.Public() {
			t.Error("public flag should round-trip")
		}
	})

	t.Run("GetByServiceID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSnapshotRepository(db)
		if err := repo.Create(models.NewPlaylistSnapshot(0, "youtube", playlist)); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}

		retrieved, err := repo.GetByServiceID("youtube", "PL123")
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if retrieved.ServiceID() != "PL123" {
			t.Errorf("expected service ID PL123, got %s", retrieved.ServiceID())
		}

		if _, err := repo.GetByServiceID("spotify", "PL123"); err == nil {
			t.Error("expected error for wrong service")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSnapshotRepository(db)
		snapshot := models.NewPlaylistSnapshot(0, "youtube", playlist)

		if err := repo.Create(snapshot); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}
		if err := repo.Delete(snapshot.ID()); err != nil {
			t.Fatalf("failed to delete snapshot: %v", err)
		}
		if _, err := repo.Get(snapshot.ID()); err == nil {
			t.Error("expected error when getting deleted snapshot")
		}
	})

	t.Run("SaveListing Upserts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSnapshotRepository(db)
		listing := []models.Playlist{
			{ID: "PL1", Name: "First", TrackCount: 10},
			{ID: "PL2", Name: "Second", TrackCount: 20},
		}

		if err := repo.SaveListing("youtube", listing); err != nil {
			t.Fatalf("failed to save listing: %v", err)
		}

		// Second listing refreshes PL1 and adds PL3 without duplicating rows.
		listing[0].TrackCount = 11
		listing = append(listing, models.Playlist{ID: "PL3", Name: "Third"})
		if err := repo.SaveListing("youtube", listing); err != nil {
			t.Fatalf("failed to refresh listing: %v", err)
		}

		snapshots, err := repo.List(map[string]any{"service": "youtube"})
		if err != nil {
			t.Fatalf("failed to list snapshots: %v", err)
		}
		if len(snapshots) != 3 {
			t.Errorf("listed %d snapshots, want 3", len(snapshots))
		}

		refreshed, err := repo.GetByServiceID("youtube", "PL1")
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if refreshed.TrackCount() != 11 {
			t.Errorf("track count = %d, want refreshed value 11", refreshed.TrackCount())
		}
	})
}

func TestAccountRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		account := models.NewAccount(0, "spotify", "user123", "Test Listener")
		account.SetEmail("listener@example.com")
		account.SetCountry("US")
		account.SetProduct("premium")

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		retrieved, err := repo.Get(account.ID())
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if retrieved.DisplayName() != "Test Listener" {
			t.Errorf("expected display name round-trip, got %s", retrieved.DisplayName())
		}
		if retrieved.Email() != "listener@example.com" || retrieved.Product() != "premium" {
			t.Errorf("profile fields lost: %s / %s", retrieved.Email(), retrieved.Product())
		}
	})

	t.Run("GetByService", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		if err := repo.Create(models.NewAccount(0, "spotify", "user123", "Listener")); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		retrieved, err := repo.GetByService("spotify")
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if retrieved.AccountID() != "user123" {
			t.Errorf("expected account user123, got %s", retrieved.AccountID())
		}

		if _, err := repo.GetByService("youtube"); err == nil {
			t.Error("expected error for service with no accounts")
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)

		first := models.NewAccount(0, "spotify", "user123", "Old Name")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert new account: %v", err)
		}

		second := models.NewAccount(0, "spotify", "user123", "New Name")
		second.SetEmail("fresh@example.com")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to upsert existing account: %v", err)
		}

		accounts, err := repo.List(map[string]any{"service": "spotify"})
		if err != nil {
			t.Fatalf("failed to list accounts: %v", err)
		}
		if len(accounts) != 1 {
			t.Fatalf("listed %d accounts, want 1 after upsert", len(accounts))
		}
		if accounts[0].DisplayName() != "New Name" || accounts[0].Email() != "fresh@example.com" {
			t.Errorf("upsert did not refresh profile: %s / %s", accounts[0].DisplayName(), accounts[0].Email())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		account := models.NewAccount(0, "spotify", "user123", "Listener")

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
		if err := repo.Delete(account.ID()); err != nil {
			t.Fatalf("failed to delete account: %v", err)
		}
		if _, err := repo.Get(account.ID()); err == nil {
			t.Error("expected error when getting deleted account")
		}
	})
}

func TestConversionRepository(t *testing.T) {
	t.Run("Create Running Row", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		conversion := models.NewConversion(0, "PL123")
		conversion.SetSourceName("Road Trip")

		if err := repo.Create(conversion); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		retrieved, err := repo.Get(conversion.ID())
		if err != nil {
			t.Fatalf("failed to get conversion: %v", err)
		}
		if retrieved.Status() != models.ConversionRunning {
			t.Errorf("status = %s, want running", retrieved.Status())
		}
		if retrieved.DestPlaylistID() != "" {
			t.Errorf("dest playlist should be empty while running, got %s", retrieved.DestPlaylistID())
		}
		if retrieved.StartedAt() == nil {
			t.Error("started_at should round-trip")
		}
		if retrieved.CompletedAt() != nil {
			t.Error("completed_at should be nil while running")
		}
	})

	t.Run("Complete Updates Counts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		conversion := models.NewConversion(0, "PL123")

		if err := repo.Create(conversion); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		conversion.SetDestPlaylistID("spl1")
		conversion.Complete(&models.ConversionResult{
			PlaylistURL:    "https://open.spotify.com/playlist/spl1",
			TotalTracks:    10,
			ResolvedTracks: 8,
			Unresolved:     []models.Track{{Title: "a"}, {Title: "b"}},
		})

		if err := repo.Update(conversion); err != nil {
			t.Fatalf("failed to update conversion: %v", err)
		}

		retrieved, err := repo.Get(conversion.ID())
		if err != nil {
			t.Fatalf("failed to get conversion: %v", err)
		}
		if retrieved.Status() != models.ConversionCompleted {
			t.Errorf("status = %s, want completed", retrieved.Status())
		}
		if retrieved.TracksConverted() != 8 || retrieved.TracksUnresolved() != 2 {
			t.Errorf("counts = %d/%d, want 8/2", retrieved.TracksConverted(), retrieved.TracksUnresolved())
		}
		if retrieved.DestURL() != "https://open.spotify.com/playlist/spl1" {
			t.Errorf("dest URL = %s", retrieved.DestURL())
		}
		if retrieved.CompletedAt() == nil {
			t.Error("completed_at should be set")
		}
	})

	t.Run("Fail Records Message", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		conversion := models.NewConversion(0, "PL123")

		if err := repo.Create(conversion); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		conversion.Fail(fmt.Errorf("proxy unreachable"))
		if err := repo.Update(conversion); err != nil {
			t.Fatalf("failed to update conversion: %v", err)
		}

		retrieved, err := repo.Get(conversion.ID())
		if err != nil {
			t.Fatalf("failed to get conversion: %v", err)
		}
		if retrieved.Status() != models.ConversionFailed {
			t.Errorf("status = %s, want failed", retrieved.Status())
		}
		if retrieved.ErrorMessage() != "proxy unreachable" {
			t.Errorf("error message = %q", retrieved.ErrorMessage())
		}
	})

	t.Run("List Newest First", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		for i := 1; i <= 3; i++ {
			conversion := models.NewConversion(0, fmt.Sprintf("PL%d", i))
			if i == 2 {
				conversion.Fail(fmt.Errorf("boom"))
			}
			if err := repo.Create(conversion); err != nil {
				t.Fatalf("failed to create conversion: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list conversions: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("listed %d conversions, want 3", len(all))
		}
		if all[0].SourcePlaylistID() != "PL3" {
			t.Errorf("first listed = %s, want newest PL3", all[0].SourcePlaylistID())
		}

		failed, err := repo.List(map[string]any{"status": models.ConversionFailed})
		if err != nil {
			t.Fatalf("failed to list conversions: %v", err)
		}
		if len(failed) != 1 || failed[0].SourcePlaylistID() != "PL2" {
			t.Errorf("status filter returned %d rows", len(failed))
		}
	})
}
