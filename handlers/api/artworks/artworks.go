package artworks

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"gallery-server/core"
	"gallery-server/handlers/auth"
	"gallery-server/middleware"

	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// maxUploadSize bounds the multipart form held in memory during a submission.
const maxUploadSize = 10 << 20

// HandleCreate accepts an authenticated artwork submission: form fields plus
// one image file, which is embedded as a data URL before storage.
func HandleCreate(store core.ArtworkStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid multipart form"})
			return
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "An image of the artwork is required"})
			return
		}
		defer file.Close()

		imageURL, err := EncodeDataURL(file)
		if err != nil {
			logrus.WithError(err).Error("Failed to read uploaded image")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read image file"})
			return
		}

		artwork := &core.Artwork{
			ID:          ulid.Make().String(),
			Title:       r.FormValue("title"),
			Artist:      r.FormValue("artist"),
			Year:        r.FormValue("year"),
			Medium:      r.FormValue("medium"),
			Description: r.FormValue("description"),
			ImageURL:    imageURL,
			Source:      core.SourceUser,
			UserID:      claims.Subject,
			CreatedAt:   time.Now(),
		}

		if err := store.Append(r.Context(), artwork); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": claims.Subject,
			}).Error("Failed to store artwork")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to store artwork"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, artwork)
	}
}

// HandleList returns all stored user submissions.
func HandleList(store core.ArtworkStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artworks, err := store.ListAll(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list artworks")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list artworks"})
			return
		}

		if artworks == nil {
			artworks = []*core.Artwork{}
		}
		render.JSON(w, r, artworks)
	}
}

// EncodeDataURL reads image bytes and returns them as a base64 data: URL
// suitable for direct use as an image source. The MIME type is sniffed from
// the content.
func EncodeDataURL(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	mimeType := http.DetectContentType(data)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}
