// Package imagery supplies candidate clue images for the selection phase.
package imagery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

const DefaultBingURL = "https://www.bing.com"

// BingArchive proposes the Bing homepage image of the day for each locale in
// the palette.
type BingArchive struct {
	baseURL string
	client  *http.Client
}

func NewBingArchive(baseURL string, client *http.Client) *BingArchive {
	if baseURL == "" {
		baseURL = DefaultBingURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &BingArchive{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type archiveResponse struct {
	Images []struct {
		URL       string `json:"url"`
		Copyright string `json:"copyright"`
	} `json:"images"`
}

func (b *BingArchive) Candidate(ctx context.Context, index int) (whereonearth.Image, error) {
	locale := whereonearth.LocaleFor(index)

	q := url.Values{}
	q.Set("format", "js")
	q.Set("idx", "0")
	q.Set("n", "1")
	q.Set("mkt", locale)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/HPImageArchive.aspx?"+q.Encode(), nil)
	if err != nil {
		return whereonearth.Image{}, fmt.Errorf("building request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return whereonearth.Image{}, fmt.Errorf("fetching image archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return whereonearth.Image{}, fmt.Errorf("image archive returned %s", resp.Status)
	}

	var body archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return whereonearth.Image{}, fmt.Errorf("decoding image archive: %w", err)
	}
	if len(body.Images) == 0 {
		return whereonearth.Image{}, fmt.Errorf("image archive for %s is empty", locale)
	}

	img := body.Images[0]
	return whereonearth.Image{
		URL:    b.baseURL + img.URL,
		Text:   clueText(img.Copyright),
		Region: RegionLabel(locale),
	}, nil
}

// clueText drops the trailing photo credit, e.g.
// "Machu Picchu, Peru (© Getty Images)" -> "Machu Picchu, Peru".
func clueText(copyright string) string {
	if i := strings.LastIndex(copyright, " ("); i > 0 && strings.HasSuffix(copyright, ")") {
		return strings.TrimSpace(copyright[:i])
	}
	return strings.TrimSpace(copyright)
}

var namer = display.Tags(language.English)

// RegionLabel renders a locale code as an English display name, falling back
// to the code itself.
func RegionLabel(locale string) string {
	if name := namer.Name(language.Make(locale)); name != "" {
		return name
	}
	return locale
}
