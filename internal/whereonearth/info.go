package whereonearth

import (
	"strings"
	"time"
)

// ImageSource selects which provider proposes candidate images.
type ImageSource string

const (
	SourcePrimary   ImageSource = "Bing"
	SourceSecondary ImageSource = "Google"
)

// LookupImageSource maps a provider name, or "primary"/"secondary", to a
// source, ignoring case. ok is false for anything else.
func LookupImageSource(s string) (source ImageSource, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bing", "primary":
		return SourcePrimary, true
	case "google", "secondary":
		return SourceSecondary, true
	default:
		return "", false
	}
}

// ParseImageSource maps a persisted name to a source. Anything
// unrecognised falls back to the primary provider.
func ParseImageSource(s string) ImageSource {
	if source, ok := LookupImageSource(s); ok {
		return source
	}
	return SourcePrimary
}

// Locales is the fixed palette the primary provider rotates through.
var Locales = [...]string{"en-UK", "de-DE", "en-AU", "en-CA", "en-NZ", "en-US", "ja-JP", "zh-CN"}

// NextImageIndex advances through Locales, wrapping after the last one.
func NextImageIndex(current int) int {
	next := current + 1
	if next >= len(Locales) || next < 0 {
		return 0
	}
	return next
}

// LocaleFor returns the palette entry for index, defaulting to the first.
func LocaleFor(index int) string {
	if index < 0 || index >= len(Locales) {
		return Locales[0]
	}
	return Locales[index]
}

// Info is the selection-phase bookkeeping shared across days.
type Info struct {
	CurrentImageIndex int
	CurrentSource     ImageSource
	Version           int64
}

// Image is a candidate or chosen clue image. When HasCoordinates is false
// the location has to be geocoded from Text.
type Image struct {
	URL            string
	Text           string
	Region         string
	HasCoordinates bool
	Latitude       float64
	Longitude      float64
}

// DayKeyLayout is the persisted yyyyMMdd row key format.
const DayKeyLayout = "20060102"

// DayKey formats t in its own location (the server's local clock).
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}
