package converter

import (
	"fmt"
	"strings"

	"github.com/tunebridge/tunebridge/internal/models"
)

// Summarize renders a conversion result as a human-readable report: the
// playlist URL, the counts, the success rate, and an itemized list of the
// tracks that could not be found. Output is deterministic for a given result.
func Summarize(result *models.ConversionResult) string {
	var b strings.Builder

	b.WriteString("Conversion complete\n")
	fmt.Fprintf(&b, "  Playlist:     %s\n", result.PlaylistURL)
	fmt.Fprintf(&b, "  Total tracks: %d\n", result.TotalTracks)
	fmt.Fprintf(&b, "  Converted:    %d\n", result.ResolvedTracks)
	fmt.Fprintf(&b, "  Not found:    %d\n", len(result.Unresolved))
	fmt.Fprintf(&b, "  Success rate: %.1f%%\n", result.SuccessRate())

	if len(result.Unresolved) > 0 {
		b.WriteString("\nTracks not found:\n")
		for _, track := range result.Unresolved {
			if line := track.ArtistLine(); line != "" {
				fmt.Fprintf(&b, "  - %s (%s)\n", track.Title, line)
			} else {
				fmt.Fprintf(&b, "  - %s\n", track.Title)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
