package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

type fixture struct {
	svc       *Service
	store     *memStore
	geo       *mapGeocoder
	announcer *recordingAnnouncer
}

func newFixture(t *testing.T, roster RosterProvider) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		geo: &mapGeocoder{places: map[string]whereonearth.Place{
			"rome":         {Name: "Rome, Italy", Latitude: 1, Longitude: 1},
			"accra":        {Name: "Accra, Ghana", Latitude: 0.1, Longitude: 0.1},
			"lagos":        {Name: "Lagos, Nigeria", Latitude: 0.5, Longitude: 0.5},
			"accra ghana":  {Name: "Accra, Ghana", Latitude: 0.1, Longitude: 0.1},
			"machu picchu": {Name: "Machu Picchu, Peru", Latitude: -13.1631, Longitude: -72.545},
		}},
		announcer: &recordingAnnouncer{},
	}
	f.svc = NewService(discardLogger(), f.store, f.geo, roster, f.announcer,
		map[whereonearth.ImageSource]ImageProvider{
			whereonearth.SourcePrimary:   paletteImages{},
			whereonearth.SourceSecondary: paletteImages{withCoords: true},
		},
		Options{Now: func() time.Time { return testNow }, GeocodeTimeout: time.Second},
	)
	return f
}

func (f *fixture) openAt(lat, lon float64, entries ...whereonearth.Entry) {
	c := whereonearth.NewChallenge(whereonearth.DayKey(testNow), testNow)
	c.Status = whereonearth.StatusGuessing
	c.PhotoURL = "https://img.example/clue.jpg"
	c.ExtractedLocation = "Null Island"
	c.Latitude, c.Longitude = lat, lon
	c.Entries = append(c.Entries, entries...)
	f.store.put(c)
}

func (f *fixture) today(t *testing.T) *whereonearth.Challenge {
	t.Helper()
	c, err := f.svc.Today(context.Background())
	require.NoError(t, err)
	return c
}

var aliceAndBob = staticRoster{members: []whereonearth.Member{
	{ID: "a", DisplayName: "Alice"},
	{ID: "b", DisplayName: "Bob"},
}}

func TestSubmitGuess_FullGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0)

	out, err := f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.InDelta(t, 157, out.Entry.DistanceKm, 1)
	assert.Equal(t, 1, out.Progress.Entered)
	assert.Equal(t, 2, out.Progress.Total)
	assert.Equal(t, []string{"Bob"}, out.Progress.Pending)

	out, err = f.svc.SubmitGuess(ctx, Guess{UserID: "b", UserName: "Bob", Text: "Accra"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.InDelta(t, 15.7, out.Entry.DistanceKm, 0.2)

	c := f.today(t)
	assert.Equal(t, whereonearth.StatusCompleted, c.Status)
	require.NotNil(t, c.Result)
	assert.Equal(t, "Bob", c.Result.WinnerName)
	assert.Equal(t, "Accra, Ghana", c.Result.WinnerGuess)
	assert.Len(t, c.Entries, 2)

	assert.Equal(t, []AnnouncementKind{KindGuessAccepted, KindGuessAccepted, KindResult}, f.announcer.kinds())
	assert.Equal(t, "Null Island", f.announcer.last().ActualPlace)
}

func TestSubmitGuess_DuplicateSubmitter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0)

	_, err := f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	require.NoError(t, err)

	for _, text := range []string{"Rome", "Lagos", "somewhere unknown"} {
		_, err = f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: text})
		assert.ErrorIs(t, err, whereonearth.ErrDuplicateSubmitter)
	}
	assert.Len(t, f.today(t).Entries, 1)
	assert.Equal(t, KindGuessRejected, f.announcer.last().Kind)
	// The duplicate check runs before geocoding.
	assert.Equal(t, []string{"Rome"}, f.geo.calls)
}

func TestSubmitGuess_DuplicateAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, staticRoster{members: []whereonearth.Member{{DisplayName: "Alice"}, {DisplayName: "Bob"}, {DisplayName: "Cara"}}})
	f.openAt(0, 0)

	_, err := f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "Accra"})
	require.NoError(t, err)

	_, err = f.svc.SubmitGuess(ctx, Guess{UserID: "b", UserName: "Bob", Text: "Accra Ghana"})
	assert.ErrorIs(t, err, whereonearth.ErrDuplicateAnswer)
	assert.Len(t, f.today(t).Entries, 1)

	// Bob may try again with something else.
	out, err := f.svc.SubmitGuess(ctx, Guess{UserID: "b", UserName: "Bob", Text: "Lagos"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
}

func TestSubmitGuess_RosterUnavailableFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, staticRoster{err: errors.New("membership service down")})
	f.openAt(0, 0)

	out, err := f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Equal(t, "Alice", f.today(t).Result.WinnerName)
}

func TestSubmitGuess_GeocodeFailureLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0)
	before := f.today(t)

	_, err := f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "Atlantis"})
	assert.ErrorIs(t, err, whereonearth.ErrLocationNotFound)

	after := f.today(t)
	assert.Equal(t, before.Version, after.Version)
	assert.Empty(t, after.Entries)
	assert.Equal(t, KindGeocodeFailed, f.announcer.last().Kind)

	// The same user can go again straight away.
	_, err = f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	assert.NoError(t, err)
}

func TestSubmitGuess_RetriesWithoutFirstWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0)

	out, err := f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "probably Lagos"})
	require.NoError(t, err)
	assert.Equal(t, "Lagos, Nigeria", out.Entry.ResolvedName)
	assert.Equal(t, "probably Lagos", out.Entry.GuessText)
	assert.Equal(t, []string{"probably Lagos", "Lagos"}, f.geo.calls)
}

func TestSubmitGuess_GeocodeTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, aliceAndBob)
	f.svc.geocodeTimeout = 10 * time.Millisecond
	f.geo.delay = time.Second
	f.openAt(0, 0)

	_, err := f.svc.SubmitGuess(ctx, Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	assert.ErrorIs(t, err, whereonearth.ErrLocationNotFound)
	assert.Empty(t, f.today(t).Entries)
}

func TestSubmitGuess_AfterCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0,
		whereonearth.Entry{UserID: "a", UserName: "Alice", ResolvedName: "Rome, Italy", DistanceKm: 157},
	)
	_, err := f.svc.CheckResults(ctx, "")
	require.NoError(t, err)

	out, err := f.svc.SubmitGuess(ctx, Guess{UserID: "b", UserName: "Bob", Text: "Accra"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeClosed, out.Kind)
	assert.Equal(t, "Alice", out.Challenge.Result.WinnerName)
	assert.Len(t, f.today(t).Entries, 1)
	assert.Equal(t, KindAlreadyDecided, f.announcer.last().Kind)
}

func TestSubmitGuess_NotOpen(t *testing.T) {
	f := newFixture(t, aliceAndBob)

	_, err := f.svc.SubmitGuess(context.Background(), Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	assert.ErrorIs(t, err, whereonearth.ErrNotGuessing)

	_, err = f.svc.SubmitGuess(context.Background(), Guess{UserID: "a", UserName: "Alice", Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyGuess)
}

func TestSubmitGuess_RetriesOnConflict(t *testing.T) {
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0)
	f.store.conflicts = 2

	out, err := f.svc.SubmitGuess(context.Background(), Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Len(t, f.today(t).Entries, 1)
	assert.Equal(t, 1, f.store.saves)
}

func TestSubmitGuess_GivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(t, aliceAndBob)
	f.svc.maxRetries = 2
	f.openAt(0, 0)
	f.store.conflicts = 10

	_, err := f.svc.SubmitGuess(context.Background(), Guess{UserID: "a", UserName: "Alice", Text: "Rome"})
	assert.ErrorIs(t, err, whereonearth.ErrConflict)
	assert.Empty(t, f.today(t).Entries)
}

func TestSubmitGuess_ConcurrentSubmissionsAllLand(t *testing.T) {
	const players = 20
	members := make([]whereonearth.Member, 0, players+1)
	places := make(map[string]whereonearth.Place, players)
	for i := range players {
		name := fmt.Sprintf("player-%d", i)
		members = append(members, whereonearth.Member{ID: name, DisplayName: name})
		places[fmt.Sprintf("place %d", i)] = whereonearth.Place{Name: fmt.Sprintf("Place %d", i), Latitude: float64(i), Longitude: 0}
	}
	// One extra member who never answers keeps the game open.
	members = append(members, whereonearth.Member{ID: "late", DisplayName: "late"})

	f := newFixture(t, staticRoster{members: members})
	f.svc.maxRetries = 1000
	f.geo.places = places
	f.openAt(0, 0)

	var wg sync.WaitGroup
	errs := make(chan error, players)
	for i := range players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("player-%d", i)
			_, err := f.svc.SubmitGuess(context.Background(), Guess{UserID: name, UserName: name, Text: fmt.Sprintf("place %d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	c := f.today(t)
	assert.Len(t, c.Entries, players)
	assert.Equal(t, whereonearth.StatusGuessing, c.Status)
}

func TestCheckResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0,
		whereonearth.Entry{UserName: "Alice", ResolvedName: "Rome", DistanceKm: 157},
		whereonearth.Entry{UserName: "Cara", ResolvedName: "Lagos", DistanceKm: 78},
	)

	c, err := f.svc.CheckResults(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, whereonearth.StatusCompleted, c.Status)
	assert.Equal(t, "Cara", c.Result.WinnerName)

	// Re-running re-announces without changing anything.
	version := c.Version
	c, err = f.svc.CheckResults(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, version, c.Version)
	assert.Equal(t, []AnnouncementKind{KindResult, KindResult}, f.announcer.kinds())
}

func TestCheckResults_Command(t *testing.T) {
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0, whereonearth.Entry{UserName: "Alice", ResolvedName: "Rome", DistanceKm: 157})

	out, err := f.svc.SubmitGuess(context.Background(), Guess{UserID: "b", UserName: "Bob", Text: "@bot Check Results"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Equal(t, "Alice", out.Challenge.Result.WinnerName)
}

func TestCheckResults_NoEntries(t *testing.T) {
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0)

	_, err := f.svc.CheckResults(context.Background(), "")
	assert.ErrorIs(t, err, whereonearth.ErrNoEntries)

	c := f.today(t)
	assert.Equal(t, whereonearth.StatusGuessing, c.Status)
	assert.Nil(t, c.Result)
	assert.Empty(t, f.announcer.kinds())
}

func TestProgress(t *testing.T) {
	f := newFixture(t, aliceAndBob)
	f.openAt(0, 0, whereonearth.Entry{UserName: "Bob", ResolvedName: "Rome", DistanceKm: 157})

	_, p, err := f.svc.Progress(context.Background(), "conv")
	require.NoError(t, err)
	assert.Equal(t, whereonearth.Progress{Entered: 1, Total: 2, Pending: []string{"Alice"}}, p)
}
