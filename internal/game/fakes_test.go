package game

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

var testNow = time.Date(2024, 5, 17, 10, 30, 0, 0, time.Local)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is a versioned in-memory ChallengeStore.
type memStore struct {
	mu         sync.Mutex
	challenges map[string]whereonearth.Challenge
	info       whereonearth.Info
	team       whereonearth.Team
	images     map[string]whereonearth.Image

	// conflicts makes the next n SaveChallenge calls lose a race.
	conflicts int
	saves     int
}

func newMemStore() *memStore {
	return &memStore{
		challenges: make(map[string]whereonearth.Challenge),
		info:       whereonearth.Info{CurrentSource: whereonearth.SourcePrimary},
		images:     make(map[string]whereonearth.Image),
	}
}

func (m *memStore) LoadChallenge(_ context.Context, dayKey string) (*whereonearth.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[dayKey]
	if !ok {
		return whereonearth.NewChallenge(dayKey, testNow), nil
	}
	c.Entries = slices.Clone(c.Entries)
	if c.Result != nil {
		r := *c.Result
		c.Result = &r
	}
	return &c, nil
}

func (m *memStore) SaveChallenge(_ context.Context, c *whereonearth.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		// Simulate another writer bumping the row.
		cur := m.challenges[c.DayKey]
		cur.Version++
		m.challenges[c.DayKey] = cur
		return whereonearth.ErrConflict
	}
	if m.challenges[c.DayKey].Version != c.Version {
		return whereonearth.ErrConflict
	}
	m.saves++
	c.Version++
	stored := *c
	stored.Entries = slices.Clone(c.Entries)
	m.challenges[c.DayKey] = stored
	return nil
}

func (m *memStore) put(c *whereonearth.Challenge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[c.DayKey] = *c
}

func (m *memStore) LoadInfo(context.Context) (*whereonearth.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := m.info
	return &info, nil
}

func (m *memStore) SaveInfo(_ context.Context, info *whereonearth.Info) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.info.Version != info.Version {
		return whereonearth.ErrConflict
	}
	info.Version++
	m.info = *info
	return nil
}

func (m *memStore) LoadTeam(context.Context) (whereonearth.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.team, nil
}

func (m *memStore) SaveTeam(_ context.Context, team whereonearth.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.team = team
	return nil
}

func (m *memStore) SaveChosenImage(_ context.Context, dayKey string, img whereonearth.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[dayKey] = img
	return nil
}

func (m *memStore) LoadChosenImage(_ context.Context, dayKey string) (whereonearth.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[dayKey]
	if !ok {
		return whereonearth.Image{}, whereonearth.ErrNotFound
	}
	return img, nil
}

type mapGeocoder struct {
	mu     sync.Mutex
	places map[string]whereonearth.Place
	calls  []string
	delay  time.Duration
}

func (g *mapGeocoder) Resolve(ctx context.Context, text string) (whereonearth.Place, error) {
	g.mu.Lock()
	g.calls = append(g.calls, text)
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return whereonearth.Place{}, ctx.Err()
		}
	}
	p, ok := g.places[strings.ToLower(text)]
	if !ok {
		return whereonearth.Place{}, whereonearth.ErrLocationNotFound
	}
	return p, nil
}

type staticRoster struct {
	members []whereonearth.Member
	err     error
}

func (r staticRoster) Members(context.Context, string) ([]whereonearth.Member, error) {
	return r.members, r.err
}

type recordingAnnouncer struct {
	mu   sync.Mutex
	sent []Announcement
}

func (a *recordingAnnouncer) Announce(_ context.Context, ann Announcement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, ann)
	return nil
}

func (a *recordingAnnouncer) kinds() []AnnouncementKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AnnouncementKind, 0, len(a.sent))
	for _, s := range a.sent {
		out = append(out, s.Kind)
	}
	return out
}

func (a *recordingAnnouncer) last() Announcement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sent[len(a.sent)-1]
}

type paletteImages struct{ withCoords bool }

func (p paletteImages) Candidate(_ context.Context, index int) (whereonearth.Image, error) {
	img := whereonearth.Image{
		URL:    "https://img.example/" + whereonearth.LocaleFor(index) + ".jpg",
		Text:   "Machu Picchu",
		Region: whereonearth.LocaleFor(index),
	}
	if p.withCoords {
		img.Text = "Null Island"
		img.HasCoordinates = true
	}
	return img, nil
}
