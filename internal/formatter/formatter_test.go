package formatter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tunebridge/tunebridge/internal/models"
	th "github.com/tunebridge/tunebridge/internal/testing"
)

func samplePlaylist() *models.SourcePlaylist {
	return &models.SourcePlaylist{
		ID:          "PLtest123",
		Name:        "Test Playlist",
		Description: "A test playlist",
		Tracks: []models.Track{
			{
				ID:       "track1",
				Title:    "Song One",
				Artists:  []string{"Artist One"},
				Album:    "Album One",
				Duration: 180,
				ISRC:     "USRC12345678",
			},
			{
				ID:       "track2",
				Title:    "Song Two",
				Artists:  []string{"Artist Two", "Guest Three"},
				Album:    models.UnknownAlbum,
				Duration: 240,
				ISRC:     "USRC87654321",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Artist,Album,Duration,ISRC") {
			t.Errorf("CSV missing headers, got: %s", output)
		}

		if !strings.Contains(output, "track1") {
			t.Errorf("CSV missing track1 ID")
		}
		if !strings.Contains(output, "Song One") {
			t.Errorf("CSV missing track1 title")
		}
		if !strings.Contains(output, "USRC12345678") {
			t.Errorf("CSV missing track1 ISRC")
		}

		// Joined artist credits contain commas, so the field must be quoted.
		if !strings.Contains(output, `"Artist Two, Guest Three"`) {
			t.Errorf("CSV missing quoted multi-artist line, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		playlist := samplePlaylist()

		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(playlist, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Test Playlist") {
				t.Errorf("Markdown missing title")
			}

			if !strings.Contains(output, "**Description**: A test playlist") {
				t.Errorf("Markdown missing description")
			}
			if !strings.Contains(output, "**Tracks**: 2") {
				t.Errorf("Markdown missing track count")
			}

			if !strings.Contains(output, "## Tracks") {
				t.Errorf("Markdown missing tracks section")
			}
			if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00]") {
				t.Errorf("Markdown missing track1, got: %s", output)
			}
			if !strings.Contains(output, "2. Artist Two, Guest Three - Song Two [4:00]") {
				t.Errorf("Markdown missing track2 (unknown album omitted)")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(playlist, "test_cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "![Cover](test_cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Description: A test playlist") {
			t.Errorf("Text missing description")
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing track count")
		}

		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("Text missing track1")
		}
		if !strings.Contains(output, "2. Artist Two, Guest Three - Song Two") {
			t.Errorf("Text missing track2")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(samplePlaylist())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"ID":"PLtest123"`) && !strings.Contains(output, `"ID": "PLtest123"`) {
			t.Errorf("JSON missing ID field")
		}
		if !strings.Contains(output, `"Name":"Test Playlist"`) && !strings.Contains(output, `"Name": "Test Playlist"`) {
			t.Errorf("JSON missing Name field")
		}
		if strings.Contains(output, "Song One") {
			t.Errorf("metadata JSON should not include tracks")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"PLtest123"`) {
			t.Errorf("JSON missing playlist ID")
		}
		if !strings.Contains(output, `"Test Playlist"`) {
			t.Errorf("JSON missing playlist name")
		}

		if !strings.Contains(output, `"track1"`) {
			t.Errorf("JSON missing track1 ID")
		}
		if !strings.Contains(output, `"Song One"`) {
			t.Errorf("JSON missing track1 title")
		}
		if !strings.Contains(output, `"USRC12345678"`) {
			t.Errorf("JSON missing track1 ISRC")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		_, err := DownloadImage("")
		if err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("ServesBytes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegbytes"))
		}))
		defer srv.Close()

		data, err := DownloadImage(srv.URL)
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpegbytes" {
			t.Errorf("downloaded %q, want jpegbytes", string(data))
		}
	})

	t.Run("NonOKStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		if _, err := DownloadImage(srv.URL); err == nil {
			t.Error("DownloadImage should fail on 404")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(samplePlaylist(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != "PLtest123_tracks.csv" {
				t.Errorf("Expected tracks file 'PLtest123_tracks.csv', got '%s'", result.TracksFile)
			}
			if result.MetadataFile != "PLtest123_metadata.json" {
				t.Errorf("Expected metadata file 'PLtest123_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)

			csvContent := th.MustReadFile(t, result.TracksFile)
			if !strings.Contains(csvContent, "ID,Title,Artist,Album,Duration,ISRC") {
				t.Errorf("CSV missing headers")
			}
			if !strings.Contains(csvContent, "track1") || !strings.Contains(csvContent, "Song One") {
				t.Errorf("CSV missing track data")
			}

			metadataContent := th.MustReadFile(t, result.MetadataFile)
			if !strings.Contains(metadataContent, "PLtest123") || !strings.Contains(metadataContent, "Test Playlist") {
				t.Errorf("Metadata JSON missing expected fields")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(samplePlaylist(), "custom_export")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != "custom_export_tracks.csv" {
				t.Errorf("Expected 'custom_export_tracks.csv', got '%s'", result.TracksFile)
			}
			if result.MetadataFile != "custom_export_metadata.json" {
				t.Errorf("Expected 'custom_export_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(samplePlaylist(), "", "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Directory != "PLtest123" {
				t.Errorf("Expected directory 'PLtest123', got '%s'", result.Directory)
			}

			th.AssertDirExists(t, result.Directory)
			th.AssertFileExists(t, result.Directory+"/README.md")

			mdContent := th.MustReadFile(t, result.Directory+"/README.md")
			if !strings.Contains(mdContent, "# Test Playlist") {
				t.Errorf("README missing playlist title")
			}
			if strings.Contains(mdContent, "![Cover]") {
				t.Errorf("README should not reference a cover that was not downloaded")
			}
		})

		t.Run("WithCoverImage", func(t *testing.T) {
			imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("jpegbytes"))
			}))
			defer imageServer.Close()

			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(samplePlaylist(), "with_cover", imageServer.URL)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.CoverImage != "with_cover/cover.jpg" {
				t.Errorf("Expected cover image path 'with_cover/cover.jpg', got '%s'", result.CoverImage)
			}
			th.AssertFileExists(t, "with_cover/cover.jpg")

			mdContent := th.MustReadFile(t, "with_cover/README.md")
			if !strings.Contains(mdContent, "![Cover](cover.jpg)") {
				t.Errorf("README missing cover reference")
			}
		})

		t.Run("ImageFailureStillWritesMarkdown", func(t *testing.T) {
			imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			}))
			defer imageServer.Close()

			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(samplePlaylist(), "broken_cover", imageServer.URL)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.CoverImage != "" {
				t.Errorf("Expected no cover image, got '%s'", result.CoverImage)
			}
			th.AssertFileExists(t, "broken_cover/README.md")
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteTextExport(samplePlaylist(), "")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if path != "PLtest123_tracks.txt" {
				t.Errorf("Expected 'PLtest123_tracks.txt', got '%s'", path)
			}

			th.AssertFileExists(t, path)

			content := th.MustReadFile(t, path)
			if !strings.Contains(content, "Playlist: Test Playlist") {
				t.Errorf("Text export missing playlist name")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteTextExport(samplePlaylist(), "my_tracks.txt")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if path != "my_tracks.txt" {
				t.Errorf("Expected 'my_tracks.txt', got '%s'", path)
			}

			th.AssertFileExists(t, path)
		})
	})
}
