// Package music coordinates the background soundtrack: the playlist, the
// play/mute state and the audio output that renders it.
package music

import (
	"fmt"
	"path/filepath"
	"strings"

	"genna-quiz-service/internal/domain"
)

// BundledTracks are always in the playlist, in this order.
var BundledTracks = []domain.Track{
	{ID: "melkam-genna-mezmur", Title: "Melkam Genna Mezmur (Primary)", URL: "H9rfP01eeEQ", Kind: domain.TrackYouTube},
	{ID: "genna-orthodox-mezmur", Title: "Genna Orthodox Mezmur", URL: "L17R7p_3Yc0", Kind: domain.TrackYouTube},
	{ID: "begena-mezmur", Title: "Begena Mezmur (Traditional)", URL: "https://upload.wikimedia.org/wikipedia/commons/c/c4/Etenesh_Wassie_-_Zomawa.ogg", Kind: domain.TrackDirect},
	{ID: "washint-melody", Title: "Ethiopian Washint Melody", URL: "https://upload.wikimedia.org/wikipedia/commons/5/52/Washint_sample.ogg", Kind: domain.TrackDirect},
}

func isBundled(id string) bool {
	for _, t := range BundledTracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// TitleFromFileName strips the directory and the last extension.
func TitleFromFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "Untitled track"
	}
	return base
}

// EmbedURL is the hidden YouTube player URL for a video track.
func EmbedURL(videoID string, playing, muted bool) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=%d&mute=%d&controls=0&loop=1&playlist=%s&enablejsapi=1",
		videoID, boolInt(playing), boolInt(muted), videoID)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// KindLabel is the caption shown under the current track.
func KindLabel(kind domain.TrackKind) string {
	switch kind {
	case domain.TrackYouTube:
		return "YouTube Stream"
	case domain.TrackLocal:
		return "Local File"
	default:
		return "Genna Archive"
	}
}
