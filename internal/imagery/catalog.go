package imagery

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

// CatalogEntry is one curated location in the YAML catalog.
type CatalogEntry struct {
	URL       string   `yaml:"url"`
	Text      string   `yaml:"text"`
	Region    string   `yaml:"region"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
}

// Catalog serves images from a curated list, cycling by palette index.
type Catalog struct {
	entries []CatalogEntry
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Images []CatalogEntry `yaml:"images"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(doc.Images) == 0 {
		return nil, errors.New("catalog has no images")
	}
	for i, e := range doc.Images {
		if e.URL == "" || e.Text == "" {
			return nil, fmt.Errorf("catalog image %d: url and text are required", i)
		}
		if (e.Latitude == nil) != (e.Longitude == nil) {
			return nil, fmt.Errorf("catalog image %d: latitude and longitude go together", i)
		}
	}
	return &Catalog{entries: doc.Images}, nil
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

func (c *Catalog) Candidate(_ context.Context, index int) (whereonearth.Image, error) {
	if index < 0 {
		index = -index
	}
	e := c.entries[index%len(c.entries)]
	img := whereonearth.Image{URL: e.URL, Text: e.Text, Region: e.Region}
	if e.Latitude != nil {
		img.HasCoordinates = true
		img.Latitude = *e.Latitude
		img.Longitude = *e.Longitude
	}
	return img, nil
}
