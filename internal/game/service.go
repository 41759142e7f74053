// Package game sequences the daily challenge: image selection, guess
// intake, completion and winner announcement. Storage, geocoding, rosters
// and chat delivery are injected.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

var (
	ErrEmptyGuess = errors.New("guess text is required")
	ErrNoProvider = errors.New("no image provider for source")

	// errNoChange tells update to return the loaded challenge unsaved.
	errNoChange = errors.New("no change")
)

const checkResultsCommand = "check results"

type Options struct {
	GeocodeTimeout  time.Duration
	MaxWriteRetries int
	Now             func() time.Time
}

type Service struct {
	store     ChallengeStore
	geocoder  Geocoder
	roster    RosterProvider
	announcer Announcer
	images    map[whereonearth.ImageSource]ImageProvider
	logger    *slog.Logger

	now            func() time.Time
	geocodeTimeout time.Duration
	maxRetries     int
}

func NewService(
	logger *slog.Logger,
	store ChallengeStore,
	geocoder Geocoder,
	roster RosterProvider,
	announcer Announcer,
	images map[whereonearth.ImageSource]ImageProvider,
	opts Options,
) *Service {
	s := &Service{
		store:          store,
		geocoder:       geocoder,
		roster:         roster,
		announcer:      announcer,
		images:         images,
		logger:         logger,
		now:            opts.Now,
		geocodeTimeout: opts.GeocodeTimeout,
		maxRetries:     opts.MaxWriteRetries,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.geocodeTimeout <= 0 {
		s.geocodeTimeout = 5 * time.Second
	}
	if s.maxRetries <= 0 {
		s.maxRetries = 5
	}
	return s
}

func (s *Service) dayKey() string {
	return whereonearth.DayKey(s.now())
}

// Today loads the challenge for the current day, NotSet if none exists yet.
func (s *Service) Today(ctx context.Context) (*whereonearth.Challenge, error) {
	c, err := s.store.LoadChallenge(ctx, s.dayKey())
	if err != nil {
		return nil, fmt.Errorf("loading challenge: %w", err)
	}
	return c, nil
}

// update is one read-modify-write cycle against the day's challenge. It
// reloads and reapplies fn when the conditional save loses a race.
func (s *Service) update(ctx context.Context, dayKey string, fn func(c *whereonearth.Challenge) error) (*whereonearth.Challenge, error) {
	for attempt := 0; ; attempt++ {
		c, err := s.store.LoadChallenge(ctx, dayKey)
		if err != nil {
			return nil, fmt.Errorf("loading challenge: %w", err)
		}
		if err := fn(c); err != nil {
			if errors.Is(err, errNoChange) {
				return c, nil
			}
			return c, err
		}

		err = s.store.SaveChallenge(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, whereonearth.ErrConflict) || attempt >= s.maxRetries {
			return nil, fmt.Errorf("saving challenge: %w", err)
		}
		s.logger.Debug("challenge write conflict, retrying", "day_key", dayKey, "attempt", attempt+1)
	}
}

func (s *Service) updateInfo(ctx context.Context, fn func(info *whereonearth.Info)) (*whereonearth.Info, error) {
	for attempt := 0; ; attempt++ {
		info, err := s.store.LoadInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading info: %w", err)
		}
		fn(info)

		err = s.store.SaveInfo(ctx, info)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, whereonearth.ErrConflict) || attempt >= s.maxRetries {
			return nil, fmt.Errorf("saving info: %w", err)
		}
	}
}

func (s *Service) announce(ctx context.Context, a Announcement) error {
	if err := s.announcer.Announce(ctx, a); err != nil {
		return fmt.Errorf("announcing %s: %w", a.Kind, err)
	}
	return nil
}

// geocode applies the configured timeout. Every failure other than the
// caller's own cancellation is reported as ErrLocationNotFound.
func (s *Service) geocode(ctx context.Context, text string) (whereonearth.Place, error) {
	gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
	defer cancel()

	place, err := s.geocoder.Resolve(gctx, text)
	if err == nil {
		return place, nil
	}
	if ctx.Err() != nil {
		return whereonearth.Place{}, ctx.Err()
	}
	if errors.Is(err, whereonearth.ErrLocationNotFound) {
		return whereonearth.Place{}, err
	}
	return whereonearth.Place{}, fmt.Errorf("%w: %w", whereonearth.ErrLocationNotFound, err)
}

// resolveGuess geocodes the full text and, failing that, the text after the
// first word ("near Lima" -> "Lima").
func (s *Service) resolveGuess(ctx context.Context, text string) (whereonearth.Place, error) {
	place, err := s.geocode(ctx, text)
	if err == nil || !errors.Is(err, whereonearth.ErrLocationNotFound) {
		return place, err
	}
	_, rest, ok := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	if !ok || rest == "" {
		return place, err
	}
	s.logger.Debug("retrying geocode without first word", "text", text, "retry", rest)
	return s.geocode(ctx, rest)
}

// conversation returns the conversation to address: the given one, or the
// bound team's when none is given.
func (s *Service) conversation(ctx context.Context, conversation string) string {
	if conversation != "" {
		return conversation
	}
	team, err := s.store.LoadTeam(ctx)
	if err != nil {
		s.logger.Warn("team unavailable", "error", err)
		return ""
	}
	return team.ID
}

// members fetches the roster. An unreachable membership service degrades to
// an empty roster so completion falls back to counting entries.
func (s *Service) members(ctx context.Context, conversation string) []whereonearth.Member {
	if s.roster == nil {
		return nil
	}
	conversation = s.conversation(ctx, conversation)
	roster, err := s.roster.Members(ctx, conversation)
	if err != nil {
		s.logger.Warn("roster unavailable", "conversation", conversation, "error", err)
		return nil
	}
	return roster
}
