package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

func (s *Service) candidate(ctx context.Context, info *whereonearth.Info) (whereonearth.Image, error) {
	p, ok := s.images[info.CurrentSource]
	if !ok || p == nil {
		return whereonearth.Image{}, fmt.Errorf("%w %q", ErrNoProvider, info.CurrentSource)
	}
	img, err := p.Candidate(ctx, info.CurrentImageIndex)
	if err != nil {
		return whereonearth.Image{}, fmt.Errorf("fetching %s image %d: %w", info.CurrentSource, info.CurrentImageIndex, err)
	}
	return img, nil
}

// ProposeImage moves today's challenge into Choosing and announces the
// current candidate image.
func (s *Service) ProposeImage(ctx context.Context) (whereonearth.Image, error) {
	dayKey := s.dayKey()
	_, err := s.update(ctx, dayKey, func(c *whereonearth.Challenge) error {
		switch c.Status {
		case whereonearth.StatusNotSet:
			c.Status = whereonearth.StatusChoosing
			return nil
		case whereonearth.StatusChoosing:
			return errNoChange
		default:
			return whereonearth.ErrAlreadyChosen
		}
	})
	if err != nil {
		return whereonearth.Image{}, err
	}

	info, err := s.store.LoadInfo(ctx)
	if err != nil {
		return whereonearth.Image{}, fmt.Errorf("loading info: %w", err)
	}
	img, err := s.candidate(ctx, info)
	if err != nil {
		return whereonearth.Image{}, err
	}

	err = s.announce(ctx, Announcement{
		Kind:         KindImageProposed,
		DayKey:       dayKey,
		Conversation: s.conversation(ctx, ""),
		Text:         "Choose this image for today, try another image or switch source.",
		PhotoURL:     img.URL,
		Region:       img.Region,
	})
	return img, err
}

// NextImage rotates to the next palette entry and proposes it.
func (s *Service) NextImage(ctx context.Context) (whereonearth.Image, error) {
	if err := s.ensureChoosable(ctx); err != nil {
		return whereonearth.Image{}, err
	}
	info, err := s.updateInfo(ctx, func(info *whereonearth.Info) {
		info.CurrentImageIndex = whereonearth.NextImageIndex(info.CurrentImageIndex)
	})
	if err != nil {
		return whereonearth.Image{}, err
	}
	s.logger.Info("image index advanced", "index", info.CurrentImageIndex, "source", info.CurrentSource)
	return s.ProposeImage(ctx)
}

// SwitchSource changes the provider used for candidates and proposes one.
func (s *Service) SwitchSource(ctx context.Context, source whereonearth.ImageSource) (whereonearth.Image, error) {
	if _, ok := s.images[source]; !ok {
		return whereonearth.Image{}, fmt.Errorf("%w %q", ErrNoProvider, source)
	}
	if err := s.ensureChoosable(ctx); err != nil {
		return whereonearth.Image{}, err
	}
	if _, err := s.updateInfo(ctx, func(info *whereonearth.Info) {
		info.CurrentSource = source
	}); err != nil {
		return whereonearth.Image{}, err
	}
	return s.ProposeImage(ctx)
}

func (s *Service) ensureChoosable(ctx context.Context) error {
	c, err := s.Today(ctx)
	if err != nil {
		return err
	}
	if c.Status == whereonearth.StatusGuessing || c.Status == whereonearth.StatusCompleted {
		return whereonearth.ErrAlreadyChosen
	}
	return nil
}

// ChooseImage commits the current candidate as today's clue: the true
// location is fixed, entries are reset and guessing opens.
func (s *Service) ChooseImage(ctx context.Context) (*whereonearth.Challenge, error) {
	if err := s.ensureChoosable(ctx); err != nil {
		return nil, err
	}

	info, err := s.store.LoadInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading info: %w", err)
	}
	img, err := s.candidate(ctx, info)
	if err != nil {
		return nil, err
	}

	place := whereonearth.Place{Name: img.Text, Latitude: img.Latitude, Longitude: img.Longitude}
	if !img.HasCoordinates {
		place, err = s.geocode(ctx, img.Text)
		if err != nil {
			return nil, fmt.Errorf("locating clue %q: %w", img.Text, err)
		}
	}

	dayKey := s.dayKey()
	c, err := s.update(ctx, dayKey, func(c *whereonearth.Challenge) error {
		if c.Status == whereonearth.StatusGuessing || c.Status == whereonearth.StatusCompleted {
			return whereonearth.ErrAlreadyChosen
		}
		c.Text = img.Text
		c.PhotoURL = img.URL
		c.Region = img.Region
		c.ExtractedLocation = place.Name
		c.Latitude = place.Latitude
		c.Longitude = place.Longitude
		c.PublishedAt = s.now()
		c.Entries = []whereonearth.Entry{}
		c.Result = nil
		c.Status = whereonearth.StatusGuessing
		return nil
	})
	if err != nil {
		if errors.Is(err, whereonearth.ErrAlreadyChosen) {
			return c, err
		}
		return nil, err
	}

	if err := s.store.SaveChosenImage(ctx, dayKey, img); err != nil {
		return nil, fmt.Errorf("saving chosen image: %w", err)
	}

	s.logger.Info("challenge image chosen",
		"day_key", dayKey,
		"source", info.CurrentSource,
		"location", place.Name,
	)

	err = s.announce(ctx, Announcement{
		Kind:         KindStarted,
		DayKey:       dayKey,
		Conversation: s.conversation(ctx, ""),
		Text:         "Thanks for choosing the image. Now it is time for everyone to start guessing!",
		PhotoURL:     c.PhotoURL,
		Region:       c.Region,
	})
	return c, err
}
