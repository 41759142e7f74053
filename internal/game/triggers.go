package game

import (
	"context"
	"fmt"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

// SaveTeam records where the bot is installed.
func (s *Service) SaveTeam(ctx context.Context, team whereonearth.Team) error {
	if err := s.store.SaveTeam(ctx, team); err != nil {
		return fmt.Errorf("saving team: %w", err)
	}
	s.logger.Info("team registered", "team_id", team.ID, "team_name", team.Name)
	return nil
}

// TriggerChallenge nudges the team to pick today's image. It does nothing
// once an image is chosen and reports whether it announced.
func (s *Service) TriggerChallenge(ctx context.Context) (bool, error) {
	c, err := s.Today(ctx)
	if err != nil {
		return false, err
	}
	if c.PhotoURL != "" {
		return false, nil
	}
	team, err := s.store.LoadTeam(ctx)
	if err != nil {
		return false, fmt.Errorf("loading team: %w", err)
	}
	return true, s.announce(ctx, Announcement{
		Kind:         KindTrigger,
		DayKey:       c.DayKey,
		Conversation: team.ID,
		Text:         "It's time for the daily challenge " + team.Name,
	})
}

// TriggerReminder re-posts the clue while guessing is still open.
func (s *Service) TriggerReminder(ctx context.Context) (bool, error) {
	team, err := s.store.LoadTeam(ctx)
	if err != nil {
		return false, fmt.Errorf("loading team: %w", err)
	}
	c, progress, err := s.Progress(ctx, team.ID)
	if err != nil {
		return false, err
	}
	if c.Status != whereonearth.StatusGuessing {
		return false, nil
	}
	return true, s.announce(ctx, Announcement{
		Kind:         KindReminder,
		DayKey:       c.DayKey,
		Conversation: team.ID,
		PhotoURL:     c.PhotoURL,
		Region:       c.Region,
		Entered:      progress.Entered,
		Total:        progress.Total,
		Pending:      progress.Pending,
		Text:         "It's reminder time, " + team.Name + ". " + progressText(progress),
	})
}

// TriggerResults forces today's results if guessing is still open.
func (s *Service) TriggerResults(ctx context.Context) (bool, error) {
	c, err := s.Today(ctx)
	if err != nil {
		return false, err
	}
	if c.Status != whereonearth.StatusGuessing {
		return false, nil
	}
	if _, err := s.CheckResults(ctx, ""); err != nil {
		return false, err
	}
	return true, nil
}
