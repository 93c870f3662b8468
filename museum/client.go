package museum

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"

	"gallery-server/core"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the Metropolitan Museum of Art collection API.
	// Documentation: https://metmuseum.github.io/
	DefaultBaseURL = "https://collectionapi.metmuseum.org/public/collection/v1"

	// DefaultDepartmentID selects the Medieval Art department.
	DefaultDepartmentID = 11

	// maxCandidates caps the candidate id list so a single gallery load
	// never fans out into more than this many object fetches.
	maxCandidates = 100
)

// Client fetches and normalizes artwork records from the museum collection
// API. Network and parse failures degrade to empty results; they are logged
// but never returned to the caller.
type Client struct {
	baseURL      string
	departmentID int
	httpClient   *http.Client
}

// NewClient creates a museum API client. Empty or zero arguments fall back
// to the Met collection API and the default department.
func NewClient(baseURL string, departmentID int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if departmentID <= 0 {
		departmentID = DefaultDepartmentID
	}
	return &Client{
		baseURL:      baseURL,
		departmentID: departmentID,
		httpClient:   http.DefaultClient,
	}
}

type (
	objectsResponse struct {
		ObjectIDs []int `json:"objectIDs"`
	}

	objectRecord struct {
		ObjectID          int    `json:"objectID"`
		Title             string `json:"title"`
		ArtistDisplayName string `json:"artistDisplayName"`
		Culture           string `json:"culture"`
		ObjectDate        string `json:"objectDate"`
		Medium            string `json:"medium"`
		ObjectDescription string `json:"objectDescription"`
		ObjectName        string `json:"objectName"`
		PrimaryImage      string `json:"primaryImage"`
	}
)

// ListObjectIDs fetches the department's object id list, truncated to the
// candidate cap. Returns an empty slice on any failure.
func (c *Client) ListObjectIDs(ctx context.Context) []int {
	url := fmt.Sprintf("%s/objects?departmentIds=%d", c.baseURL, c.departmentID)

	var body objectsResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		logrus.WithError(err).Error("Failed to fetch artwork id list")
		return nil
	}

	ids := body.ObjectIDs
	if len(ids) > maxCandidates {
		ids = ids[:maxCandidates]
	}
	return ids
}

// FetchObject fetches a single object and normalizes it into an Artwork.
// Records without an image, a title, or both artist and culture are
// rejected. Returns nil for rejected records and on any failure.
func (c *Client) FetchObject(ctx context.Context, id int) *core.Artwork {
	url := fmt.Sprintf("%s/objects/%d", c.baseURL, id)
	log := logrus.WithField("object_id", id)

	var rec objectRecord
	if err := c.getJSON(ctx, url, &rec); err != nil {
		log.WithError(err).Error("Failed to fetch artwork details")
		return nil
	}

	if rec.PrimaryImage == "" || rec.Title == "" || (rec.ArtistDisplayName == "" && rec.Culture == "") {
		log.Debug("Object rejected by acceptance filter")
		return nil
	}

	artist := rec.ArtistDisplayName
	if artist == "" {
		artist = rec.Culture
	}
	year := rec.ObjectDate
	if year == "" {
		year = "Unknown"
	}
	medium := rec.Medium
	if medium == "" {
		medium = "Unknown medium"
	}
	description := rec.ObjectDescription
	if description == "" {
		description = rec.ObjectName
	}
	if description == "" {
		description = "No description available"
	}

	return &core.Artwork{
		ID:          strconv.Itoa(rec.ObjectID),
		Title:       rec.Title,
		Artist:      artist,
		Year:        year,
		Medium:      medium,
		Description: description,
		ImageURL:    rec.PrimaryImage,
		Source:      core.SourceAPI,
	}
}

// Sample returns up to count randomly selected artworks from the department.
// Ids are drawn with a partial Fisher-Yates shuffle, fetched concurrently,
// and failed or filtered-out fetches are dropped without affecting the rest,
// so the result may be shorter than count.
func (c *Client) Sample(ctx context.Context, count int) []*core.Artwork {
	ids := c.ListObjectIDs(ctx)
	if len(ids) == 0 || count <= 0 {
		return nil
	}

	picked := make([]int, len(ids))
	copy(picked, ids)
	if count > len(picked) {
		count = len(picked)
	}
	// Only the first count positions need to be shuffled.
	for i := 0; i < count; i++ {
		j := i + rand.Intn(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}

	results := make([]*core.Artwork, count)
	var wg sync.WaitGroup
	for i, id := range picked[:count] {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			results[i] = c.FetchObject(ctx, id)
		}(i, id)
	}
	wg.Wait()

	artworks := make([]*core.Artwork, 0, count)
	for _, artwork := range results {
		if artwork != nil {
			artworks = append(artworks, artwork)
		}
	}
	return artworks
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
