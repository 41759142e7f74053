package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

// Guess is one incoming chat message from a participant.
type Guess struct {
	Conversation string
	UserID       string
	UserName     string
	Text         string
}

type OutcomeKind string

const (
	OutcomeAccepted  OutcomeKind = "accepted"
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeClosed    OutcomeKind = "closed"
)

// Outcome describes what a turn did to the challenge.
type Outcome struct {
	Kind      OutcomeKind
	Entry     *whereonearth.Entry
	Progress  whereonearth.Progress
	Challenge *whereonearth.Challenge
}

var errClosed = errors.New("challenge already completed")

// SubmitGuess runs one participant turn: geocode, validate, score, append,
// check completion and, when complete, crown the winner.
//
// Validator rejections are returned as ErrDuplicateSubmitter or
// ErrDuplicateAnswer. A guess that cannot be geocoded returns
// ErrLocationNotFound and leaves the challenge untouched. Guesses after the
// winner is decided get an OutcomeClosed carrying the existing result.
func (s *Service) SubmitGuess(ctx context.Context, g Guess) (Outcome, error) {
	text := strings.TrimSpace(g.Text)
	if text == "" {
		return Outcome{}, ErrEmptyGuess
	}
	g.Conversation = s.conversation(ctx, g.Conversation)
	if strings.Contains(strings.ToLower(text), checkResultsCommand) {
		c, err := s.CheckResults(ctx, g.Conversation)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeCompleted, Challenge: c}, nil
	}

	dayKey := s.dayKey()
	c, err := s.store.LoadChallenge(ctx, dayKey)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading challenge: %w", err)
	}
	switch c.Status {
	case whereonearth.StatusGuessing:
	case whereonearth.StatusCompleted:
		return s.closed(ctx, c, g)
	default:
		return Outcome{}, whereonearth.ErrNotGuessing
	}

	// Cheap check before spending a geocoding call.
	if err := whereonearth.CheckSubmitter(c, g.UserID, g.UserName); err != nil {
		return Outcome{}, s.rejected(ctx, c, g, text, err)
	}

	place, err := s.resolveGuess(ctx, text)
	if err != nil {
		if errors.Is(err, whereonearth.ErrLocationNotFound) {
			s.logger.Info("guess not geocoded", "day_key", dayKey, "user_name", g.UserName, "text", text)
			if aerr := s.announce(ctx, Announcement{
				Kind:         KindGeocodeFailed,
				DayKey:       dayKey,
				Conversation: g.Conversation,
				UserName:     g.UserName,
				Guess:        text,
				Text:         fmt.Sprintf("Sorry, couldn't identify the location '%s'. Please try again.", text),
			}); aerr != nil {
				return Outcome{}, aerr
			}
		}
		return Outcome{}, err
	}

	roster := s.members(ctx, g.Conversation)

	var entry whereonearth.Entry
	c, err = s.update(ctx, dayKey, func(c *whereonearth.Challenge) error {
		switch c.Status {
		case whereonearth.StatusGuessing:
		case whereonearth.StatusCompleted:
			return errClosed
		default:
			return whereonearth.ErrNotGuessing
		}
		if err := whereonearth.ValidateEntry(c, g.UserID, g.UserName, place); err != nil {
			return err
		}

		entry = whereonearth.Entry{
			ID:           uuid.NewString(),
			UserID:       g.UserID,
			UserName:     g.UserName,
			GuessText:    text,
			ResolvedName: place.Name,
			Latitude:     place.Latitude,
			Longitude:    place.Longitude,
			DistanceKm:   whereonearth.DistanceKm(place.Latitude, place.Longitude, c.Latitude, c.Longitude),
			SubmittedAt:  s.now(),
		}
		c.Entries = append(c.Entries, entry)

		if whereonearth.IsComplete(c, roster) {
			return c.Complete()
		}
		return nil
	})
	switch {
	case errors.Is(err, errClosed):
		return s.closed(ctx, c, g)
	case errors.Is(err, whereonearth.ErrDuplicateSubmitter), errors.Is(err, whereonearth.ErrDuplicateAnswer):
		return Outcome{}, s.rejected(ctx, c, g, text, err)
	case err != nil:
		return Outcome{}, err
	}

	progress := whereonearth.ProgressOf(c, roster)
	s.logger.Info("guess accepted",
		"day_key", dayKey,
		"user_name", g.UserName,
		"resolved", entry.ResolvedName,
		"distance_km", entry.DistanceKm,
		"entered", progress.Entered,
		"total", progress.Total,
	)

	if err := s.announce(ctx, Announcement{
		Kind:         KindGuessAccepted,
		DayKey:       dayKey,
		Conversation: g.Conversation,
		UserName:     g.UserName,
		Guess:        entry.ResolvedName,
		PhotoURL:     c.PhotoURL,
		Entered:      progress.Entered,
		Total:        progress.Total,
		Pending:      progress.Pending,
		Text:         fmt.Sprintf("Saving your guess as %s. %s", entry.ResolvedName, progressText(progress)),
	}); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Kind: OutcomeAccepted, Entry: &entry, Progress: progress, Challenge: c}
	if c.Status == whereonearth.StatusCompleted {
		out.Kind = OutcomeCompleted
		if err := s.announceResult(ctx, c, g.Conversation); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *Service) rejected(ctx context.Context, c *whereonearth.Challenge, g Guess, text string, reason error) error {
	msg := fmt.Sprintf("Sorry %s, we already have a result from you. Time for the next person.", g.UserName)
	if errors.Is(reason, whereonearth.ErrDuplicateAnswer) {
		msg = fmt.Sprintf("Sorry, someone has beaten you to suggesting '%s'. Please try again.", text)
	}
	s.logger.Info("guess rejected", "day_key", c.DayKey, "user_name", g.UserName, "reason", reason)

	if err := s.announce(ctx, Announcement{
		Kind:         KindGuessRejected,
		DayKey:       c.DayKey,
		Conversation: g.Conversation,
		UserName:     g.UserName,
		Guess:        text,
		Text:         msg,
	}); err != nil {
		return err
	}
	return reason
}

func (s *Service) closed(ctx context.Context, c *whereonearth.Challenge, g Guess) (Outcome, error) {
	err := s.announce(ctx, Announcement{
		Kind:         KindAlreadyDecided,
		DayKey:       c.DayKey,
		Conversation: g.Conversation,
		UserName:     g.UserName,
		Result:       c.Result,
		ActualPlace:  c.ExtractedLocation,
		ClueText:     c.Text,
		PhotoURL:     c.PhotoURL,
		Text:         "Today's challenge is already decided. " + resultText(c),
	})
	return Outcome{Kind: OutcomeClosed, Challenge: c}, err
}

// announceResult posts the result card with the image chosen for the day,
// falling back to the challenge's own copy when none was recorded.
func (s *Service) announceResult(ctx context.Context, c *whereonearth.Challenge, conversation string) error {
	img, err := s.store.LoadChosenImage(ctx, c.DayKey)
	if err != nil {
		if !errors.Is(err, whereonearth.ErrNotFound) {
			s.logger.Warn("chosen image unavailable", "day_key", c.DayKey, "error", err)
		}
		img = whereonearth.Image{URL: c.PhotoURL, Text: c.Text, Region: c.Region}
	}

	s.logger.Info("challenge completed",
		"day_key", c.DayKey,
		"winner", c.Result.WinnerName,
		"distance_km", c.Result.DistanceKm,
	)
	return s.announce(ctx, Announcement{
		Kind:         KindResult,
		DayKey:       c.DayKey,
		Conversation: s.conversation(ctx, conversation),
		Result:       c.Result,
		ActualPlace:  c.ExtractedLocation,
		ClueText:     img.Text,
		PhotoURL:     img.URL,
		Region:       img.Region,
		Text:         resultText(c),
	})
}

// CheckResults closes entries now and announces the winner. A challenge
// that is already completed has its existing result re-announced. With no
// entries nothing is crowned and ErrNoEntries is returned for an operator to
// deal with. The card goes to conversation, or to the bound team when it is
// empty.
func (s *Service) CheckResults(ctx context.Context, conversation string) (*whereonearth.Challenge, error) {
	c, err := s.update(ctx, s.dayKey(), func(c *whereonearth.Challenge) error {
		switch c.Status {
		case whereonearth.StatusCompleted:
			return errNoChange
		case whereonearth.StatusGuessing:
			return c.Complete()
		default:
			return whereonearth.ErrNotGuessing
		}
	})
	if errors.Is(err, whereonearth.ErrNoEntries) {
		s.logger.Error("no entries at completion", "day_key", c.DayKey)
		return c, err
	}
	if err != nil {
		return c, err
	}
	return c, s.announceResult(ctx, c, conversation)
}

// Progress reports how many roster members have entered today.
func (s *Service) Progress(ctx context.Context, conversation string) (*whereonearth.Challenge, whereonearth.Progress, error) {
	c, err := s.Today(ctx)
	if err != nil {
		return nil, whereonearth.Progress{}, err
	}
	return c, whereonearth.ProgressOf(c, s.members(ctx, conversation)), nil
}
