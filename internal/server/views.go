package server

import (
	"time"

	"github.com/playperu/whereonearth/internal/game"
	"github.com/playperu/whereonearth/internal/whereonearth"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChallengeResponse is the public view of a day's challenge. The clue text,
// the true location and entry distances stay hidden until it is completed.
type ChallengeResponse struct {
	DayKey         string          `json:"dayKey"`
	Status         string          `json:"status"`
	PhotoURL       string          `json:"photoUrl,omitempty"`
	Region         string          `json:"region,omitempty"`
	PublishedAt    time.Time       `json:"publishedAt"`
	Entries        []EntryResponse `json:"entries"`
	Text           string          `json:"text,omitempty"`
	ActualLocation string          `json:"actualLocation,omitempty"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	Result         *ResultResponse `json:"result,omitempty"`
}

type EntryResponse struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	Guess        string    `json:"guess"`
	ResolvedName string    `json:"resolvedName"`
	DistanceKm   *float64  `json:"distanceKm,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

type ResultResponse struct {
	WinnerName  string  `json:"winnerName"`
	WinnerGuess string  `json:"winnerGuess"`
	DistanceKm  float64 `json:"distanceKm"`
}

type ProgressResponse struct {
	DayKey  string   `json:"dayKey"`
	Status  string   `json:"status"`
	Entered int      `json:"entered"`
	Total   int      `json:"total"`
	Pending []string `json:"pending"`
}

type ImageResponse struct {
	PhotoURL string `json:"photoUrl"`
	Region   string `json:"region"`
}

type GuessRequest struct {
	Conversation string `json:"conversation"`
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	Text         string `json:"text"`
}

type GuessResponse struct {
	Outcome   string            `json:"outcome"`
	Entry     *EntryResponse    `json:"entry,omitempty"`
	Progress  *ProgressResponse `json:"progress,omitempty"`
	Challenge ChallengeResponse `json:"challenge"`
}

type SourceRequest struct {
	Source string `json:"source"`
}

type TeamRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ChannelID     string `json:"channelId"`
	TenantID      string `json:"tenantId"`
	ServiceURL    string `json:"serviceUrl"`
	BotID         string `json:"botId"`
	InstallerName string `json:"installerName"`
}

type MemberRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type MembersRequest struct {
	Members []MemberRequest `json:"members"`
}

type MembersResponse struct {
	Conversation string `json:"conversation"`
	Count        int    `json:"count"`
}

type TriggerResponse struct {
	Triggered bool `json:"triggered"`
}

func challengeResponse(c *whereonearth.Challenge) ChallengeResponse {
	completed := c.Status == whereonearth.StatusCompleted
	resp := ChallengeResponse{
		DayKey:      c.DayKey,
		Status:      string(c.Status),
		PhotoURL:    c.PhotoURL,
		Region:      c.Region,
		PublishedAt: c.PublishedAt,
		Entries:     make([]EntryResponse, 0, len(c.Entries)),
	}
	for _, e := range c.Entries {
		resp.Entries = append(resp.Entries, entryResponse(e, completed))
	}
	if completed {
		lat, lon := c.Latitude, c.Longitude
		resp.Text = c.Text
		resp.ActualLocation = c.ExtractedLocation
		resp.Latitude, resp.Longitude = &lat, &lon
		if c.Result != nil {
			resp.Result = &ResultResponse{
				WinnerName:  c.Result.WinnerName,
				WinnerGuess: c.Result.WinnerGuess,
				DistanceKm:  c.Result.DistanceKm,
			}
		}
	}
	return resp
}

func entryResponse(e whereonearth.Entry, withDistance bool) EntryResponse {
	resp := EntryResponse{
		ID:           e.ID,
		UserName:     e.UserName,
		Guess:        e.GuessText,
		ResolvedName: e.ResolvedName,
		SubmittedAt:  e.SubmittedAt,
	}
	if withDistance {
		d := e.DistanceKm
		resp.DistanceKm = &d
	}
	return resp
}

func progressResponse(c *whereonearth.Challenge, p whereonearth.Progress) ProgressResponse {
	pending := p.Pending
	if pending == nil {
		pending = []string{}
	}
	return ProgressResponse{
		DayKey:  c.DayKey,
		Status:  string(c.Status),
		Entered: p.Entered,
		Total:   p.Total,
		Pending: pending,
	}
}

func guessResponse(out game.Outcome) GuessResponse {
	resp := GuessResponse{
		Outcome:   string(out.Kind),
		Challenge: challengeResponse(out.Challenge),
	}
	if out.Entry != nil {
		e := entryResponse(*out.Entry, out.Kind == game.OutcomeCompleted)
		resp.Entry = &e
	}
	if out.Kind != game.OutcomeClosed && out.Entry != nil {
		p := progressResponse(out.Challenge, out.Progress)
		resp.Progress = &p
	}
	return resp
}
