// Package geocode resolves free-text locations to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

const DefaultBingURL = "https://dev.virtualearth.net/REST/v1/Locations"

// Bing queries the Bing Maps Locations API.
type Bing struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewBing(baseURL, key string, client *http.Client) *Bing {
	if baseURL == "" {
		baseURL = DefaultBingURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Bing{baseURL: baseURL, key: key, client: client}
}

type bingResponse struct {
	ResourceSets []struct {
		Resources []struct {
			Name  string `json:"name"`
			Point struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"point"`
		} `json:"resources"`
	} `json:"resourceSets"`
}

func (b *Bing) Resolve(ctx context.Context, text string) (whereonearth.Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return whereonearth.Place{}, whereonearth.ErrLocationNotFound
	}

	q := url.Values{}
	q.Set("query", text)
	q.Set("includeNeighborhood", "1")
	q.Set("include", "ciso2")
	q.Set("maxResults", "25")
	q.Set("key", b.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return whereonearth.Place{}, fmt.Errorf("building request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return whereonearth.Place{}, fmt.Errorf("calling bing maps: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return whereonearth.Place{}, whereonearth.ErrLocationNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return whereonearth.Place{}, fmt.Errorf("bing maps returned %s", resp.Status)
	}

	var body bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return whereonearth.Place{}, fmt.Errorf("decoding bing maps response: %w", err)
	}
	for _, set := range body.ResourceSets {
		for _, r := range set.Resources {
			if len(r.Point.Coordinates) < 2 {
				continue
			}
			return whereonearth.Place{
				Name:      r.Name,
				Latitude:  r.Point.Coordinates[0],
				Longitude: r.Point.Coordinates[1],
			}, nil
		}
	}
	return whereonearth.Place{}, whereonearth.ErrLocationNotFound
}
