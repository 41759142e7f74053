package game

import (
	"fmt"
	"strings"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

type AnnouncementKind string

const (
	KindTrigger        AnnouncementKind = "trigger"
	KindImageProposed  AnnouncementKind = "image_proposed"
	KindStarted        AnnouncementKind = "challenge_started"
	KindGuessAccepted  AnnouncementKind = "guess_accepted"
	KindGuessRejected  AnnouncementKind = "guess_rejected"
	KindGeocodeFailed  AnnouncementKind = "geocode_failed"
	KindReminder       AnnouncementKind = "reminder"
	KindResult         AnnouncementKind = "result"
	KindAlreadyDecided AnnouncementKind = "already_decided"
)

// Announcement is everything a chat adapter needs to render a message or
// card. Text is a ready-made plain rendering.
type Announcement struct {
	Kind         AnnouncementKind     `json:"kind"`
	DayKey       string               `json:"dayKey"`
	Conversation string               `json:"conversation,omitempty"`
	Text         string               `json:"text"`
	PhotoURL     string               `json:"photoUrl,omitempty"`
	Region       string               `json:"region,omitempty"`
	UserName     string               `json:"userName,omitempty"`
	Guess        string               `json:"guess,omitempty"`
	Entered      int                  `json:"entered,omitempty"`
	Total        int                  `json:"total,omitempty"`
	Pending      []string             `json:"pending,omitempty"`
	Result       *whereonearth.Result `json:"result,omitempty"`
	ActualPlace  string               `json:"actualPlace,omitempty"`
	ClueText     string               `json:"clueText,omitempty"`
}

func resultText(c *whereonearth.Challenge) string {
	r := c.Result
	if r == nil {
		return "No winner has been decided."
	}
	return fmt.Sprintf("The winner is %s with %s, %.2f km from %s.",
		r.WinnerName, r.WinnerGuess, r.DistanceKm, c.ExtractedLocation)
}

func progressText(p whereonearth.Progress) string {
	if len(p.Pending) == 0 {
		return fmt.Sprintf("%d of %d have entered.", p.Entered, p.Total)
	}
	return fmt.Sprintf("%d of %d have entered. Still waiting on %s.",
		p.Entered, p.Total, strings.Join(p.Pending, ", "))
}
