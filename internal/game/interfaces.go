package game

import (
	"context"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

// Geocoder resolves free text to a place. A miss is reported as
// whereonearth.ErrLocationNotFound.
type Geocoder interface {
	Resolve(ctx context.Context, text string) (whereonearth.Place, error)
}

// ChallengeStore persists the daily challenge and its singletons.
// SaveChallenge and SaveInfo are conditional on the entity's Version and
// return whereonearth.ErrConflict when another writer got there first; on
// success they bump Version.
type ChallengeStore interface {
	LoadChallenge(ctx context.Context, dayKey string) (*whereonearth.Challenge, error)
	SaveChallenge(ctx context.Context, c *whereonearth.Challenge) error
	LoadInfo(ctx context.Context) (*whereonearth.Info, error)
	SaveInfo(ctx context.Context, info *whereonearth.Info) error
	LoadTeam(ctx context.Context) (whereonearth.Team, error)
	SaveTeam(ctx context.Context, team whereonearth.Team) error
	SaveChosenImage(ctx context.Context, dayKey string, img whereonearth.Image) error
	// LoadChosenImage returns whereonearth.ErrNotFound when no image was
	// committed for the day.
	LoadChosenImage(ctx context.Context, dayKey string) (whereonearth.Image, error)
}

// RosterProvider returns the members who may take part in a conversation.
type RosterProvider interface {
	Members(ctx context.Context, conversationID string) ([]whereonearth.Member, error)
}

// Announcer delivers prompts and cards to the chat surface.
type Announcer interface {
	Announce(ctx context.Context, a Announcement) error
}

// ImageProvider proposes a candidate clue image for a palette index.
type ImageProvider interface {
	Candidate(ctx context.Context, index int) (whereonearth.Image, error)
}
