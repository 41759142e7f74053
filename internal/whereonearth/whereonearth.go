// Package whereonearth defines the core domain types and game rules for the
// daily "where on earth" challenge. It has zero external dependencies.
package whereonearth

import "time"

type Status string

const (
	StatusNotSet    Status = "NotSet"
	StatusChoosing  Status = "Choosing"
	StatusGuessing  Status = "Guessing"
	StatusCompleted Status = "Completed"
)

// ParseStatus maps a persisted status name back to a Status. Unknown or
// empty names are treated as NotSet.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusChoosing, StatusGuessing, StatusCompleted:
		return Status(s)
	default:
		return StatusNotSet
	}
}

// Challenge is one calendar day's game.
type Challenge struct {
	DayKey            string
	Text              string
	PhotoURL          string
	Region            string
	ExtractedLocation string
	Latitude          float64
	Longitude         float64
	PublishedAt       time.Time
	Status            Status
	Entries           []Entry
	Result            *Result

	// Version is the store's concurrency token. Zero means never saved.
	Version int64
}

// NewChallenge returns an empty NotSet challenge for the given day.
func NewChallenge(dayKey string, now time.Time) *Challenge {
	return &Challenge{
		DayKey:      dayKey,
		PublishedAt: now,
		Status:      StatusNotSet,
		Entries:     []Entry{},
	}
}

// Entry is one participant's scored guess. Entries are never mutated after
// they are appended.
type Entry struct {
	ID           string
	UserID       string
	UserName     string
	GuessText    string
	ResolvedName string
	Latitude     float64
	Longitude    float64
	DistanceKm   float64
	SubmittedAt  time.Time
}

type Result struct {
	WinnerName  string
	WinnerGuess string
	DistanceKm  float64
}

// Place is a geocoded location.
type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Member is one entry of a participant roster.
type Member struct {
	ID          string
	DisplayName string
}

// Team records where the bot is installed so proactive triggers know which
// conversation to address.
type Team struct {
	ID            string
	Name          string
	ChannelID     string
	TenantID      string
	ServiceURL    string
	BotID         string
	InstallerName string
}
