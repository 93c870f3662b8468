package gallery

import (
	"net/http"
	"strconv"
	"strings"

	"gallery-server/core"
	"gallery-server/museum"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// defaultSampleCount matches the number of museum artworks a gallery page
// shows per load.
const defaultSampleCount = 12

// HandleList merges a random museum sample with the stored user submissions.
// Query parameters: count (museum sample size), source (api|user) and q
// (case-insensitive search over title, artist and medium).
func HandleList(client *museum.Client, store core.ArtworkStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := defaultSampleCount
		if v := r.URL.Query().Get("count"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				count = n
			}
		}
		source := r.URL.Query().Get("source")
		query := r.URL.Query().Get("q")

		var artworks []*core.Artwork
		if source != core.SourceUser {
			// A failed or partial museum fetch degrades to fewer records.
			artworks = client.Sample(r.Context(), count)
		}
		if source != core.SourceAPI {
			submitted, err := store.ListAll(r.Context())
			if err != nil {
				logrus.WithError(err).Error("Failed to list submitted artworks")
			} else {
				artworks = append(artworks, submitted...)
			}
		}

		if query != "" {
			artworks = filter(artworks, query)
		}
		if artworks == nil {
			artworks = []*core.Artwork{}
		}
		render.JSON(w, r, artworks)
	}
}

func filter(artworks []*core.Artwork, query string) []*core.Artwork {
	query = strings.ToLower(query)
	matched := make([]*core.Artwork, 0, len(artworks))
	for _, artwork := range artworks {
		if strings.Contains(strings.ToLower(artwork.Title), query) ||
			strings.Contains(strings.ToLower(artwork.Artist), query) ||
			strings.Contains(strings.ToLower(artwork.Medium), query) {
			matched = append(matched, artwork)
		}
	}
	return matched
}
