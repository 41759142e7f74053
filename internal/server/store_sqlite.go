package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

// Partition and row keys of the entities table.
const (
	partitionChallenge = "WhereOnEarthBot.Models.DailyChallenge"
	partitionInfo      = "WhereOnEarthBot.Models.DailyChallengeInfo"
	partitionTeam      = "WhereOnEarthBot.Models.DailyChallengeTeam"
	partitionImage     = "WhereOnEarthBot.Models.DailyChallengeImage"

	rowInfo = "DailyChallengeInfo"
	rowTeam = "DailyChallengeTeam"
)

// Document types stored as JSONB in the entities table.

type challengeDoc struct {
	Text              string  `json:"text"`
	PhotoURL          string  `json:"photoUrl"`
	ImageRegion       string  `json:"imageRegion"`
	ExtractedLocation string  `json:"extractedLocation"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	PublishedTime     string  `json:"publishedTime"`
	WinnerName        string  `json:"winnerName,omitempty"`
	WinnerGuess       string  `json:"winnerGuess,omitempty"`
	DistanceToEntry   float64 `json:"distanceToEntry,omitempty"`

	// SerializedEntries is the entry list encoded as a JSON string.
	SerializedEntries         string `json:"SerializedEntries"`
	SerializableCurrentStatus string `json:"serializableCurrentStatus"`
}

type entryDoc struct {
	ID            string  `json:"id"`
	FromID        string  `json:"fromId"`
	UserName      string  `json:"userName"`
	ImageResponse string  `json:"imageResponse"`
	ResolvedName  string  `json:"resolvedName"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	DistanceFrom  float64 `json:"distanceFrom"`
	SubmittedAt   string  `json:"submittedAt"`
}

type infoDoc struct {
	CurrentImageIndex int    `json:"currentImageIndex"`
	CurrentSource     string `json:"currentSource"`
}

type teamDoc struct {
	ID            string `json:"id"`
	Name          string `json:"teamName"`
	ChannelID     string `json:"channelId"`
	TenantID      string `json:"tenantId"`
	ServiceURL    string `json:"serviceUrl"`
	BotID         string `json:"botId"`
	InstallerName string `json:"installerName"`
}

type imageDoc struct {
	URL       string   `json:"url"`
	Text      string   `json:"imageText"`
	Region    string   `json:"imageRegion"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Store implements game.ChallengeStore and game.RosterProvider on the
// entities and members tables.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// get loads one entity and returns its version.
func (s *Store) get(ctx context.Context, partition, row string, dest any) (int64, error) {
	var (
		version int64
		data    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, json(data) FROM entities WHERE partition_key = ? AND row_key = ?`,
		partition, row,
	).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, whereonearth.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return 0, fmt.Errorf("decoding %s/%s: %w", partition, row, err)
	}
	return version, nil
}

// put writes an entity only if its stored version still equals version.
// Version zero means the row must not exist yet.
func (s *Store) put(ctx context.Context, partition, row string, version int64, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	var result sql.Result
	if version == 0 {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO entities (partition_key, row_key, version, data) VALUES (?, ?, 1, jsonb(?))
			 ON CONFLICT(partition_key, row_key) DO NOTHING`,
			partition, row, string(data),
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE entities
			 SET data = jsonb(?), version = version + 1, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
			 WHERE partition_key = ? AND row_key = ? AND version = ?`,
			string(data), partition, row, version,
		)
	}
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return whereonearth.ErrConflict
	}
	return nil
}

// replace writes an entity regardless of what is stored.
func (s *Store) replace(ctx context.Context, partition, row string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (partition_key, row_key, version, data) VALUES (?, ?, 1, jsonb(?))
		 ON CONFLICT(partition_key, row_key) DO UPDATE SET
			data = excluded.data,
			version = entities.version + 1,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		partition, row, string(data),
	)
	return err
}

// LoadChallenge returns the stored challenge for dayKey, or a fresh NotSet
// one when the day has no row yet.
func (s *Store) LoadChallenge(ctx context.Context, dayKey string) (*whereonearth.Challenge, error) {
	var doc challengeDoc
	version, err := s.get(ctx, partitionChallenge, dayKey, &doc)
	if errors.Is(err, whereonearth.ErrNotFound) {
		return whereonearth.NewChallenge(dayKey, s.now()), nil
	}
	if err != nil {
		return nil, err
	}
	c, err := challengeFromDoc(dayKey, doc)
	if err != nil {
		return nil, err
	}
	c.Version = version
	return c, nil
}

func (s *Store) SaveChallenge(ctx context.Context, c *whereonearth.Challenge) error {
	doc, err := challengeToDoc(c)
	if err != nil {
		return err
	}
	if err := s.put(ctx, partitionChallenge, c.DayKey, c.Version, doc); err != nil {
		return err
	}
	c.Version++
	return nil
}

func challengeToDoc(c *whereonearth.Challenge) (challengeDoc, error) {
	entries := make([]entryDoc, len(c.Entries))
	for i, e := range c.Entries {
		entries[i] = entryDoc{
			ID:            e.ID,
			FromID:        e.UserID,
			UserName:      e.UserName,
			ImageResponse: e.GuessText,
			ResolvedName:  e.ResolvedName,
			Latitude:      e.Latitude,
			Longitude:     e.Longitude,
			DistanceFrom:  e.DistanceKm,
			SubmittedAt:   formatTime(e.SubmittedAt),
		}
	}
	serialized, err := json.Marshal(entries)
	if err != nil {
		return challengeDoc{}, fmt.Errorf("encoding entries: %w", err)
	}

	doc := challengeDoc{
		Text:                      c.Text,
		PhotoURL:                  c.PhotoURL,
		ImageRegion:               c.Region,
		ExtractedLocation:         c.ExtractedLocation,
		Latitude:                  c.Latitude,
		Longitude:                 c.Longitude,
		PublishedTime:             formatTime(c.PublishedAt),
		SerializedEntries:         string(serialized),
		SerializableCurrentStatus: string(c.Status),
	}
	if c.Result != nil {
		doc.WinnerName = c.Result.WinnerName
		doc.WinnerGuess = c.Result.WinnerGuess
		doc.DistanceToEntry = c.Result.DistanceKm
	}
	return doc, nil
}

func challengeFromDoc(dayKey string, doc challengeDoc) (*whereonearth.Challenge, error) {
	var entries []entryDoc
	if doc.SerializedEntries != "" {
		if err := json.Unmarshal([]byte(doc.SerializedEntries), &entries); err != nil {
			return nil, fmt.Errorf("decoding entries for %s: %w", dayKey, err)
		}
	}

	c := &whereonearth.Challenge{
		DayKey:            dayKey,
		Text:              doc.Text,
		PhotoURL:          doc.PhotoURL,
		Region:            doc.ImageRegion,
		ExtractedLocation: doc.ExtractedLocation,
		Latitude:          doc.Latitude,
		Longitude:         doc.Longitude,
		PublishedAt:       parseTime(doc.PublishedTime),
		Status:            whereonearth.ParseStatus(doc.SerializableCurrentStatus),
		Entries:           make([]whereonearth.Entry, 0, len(entries)),
	}
	for _, e := range entries {
		c.Entries = append(c.Entries, whereonearth.Entry{
			ID:           e.ID,
			UserID:       e.FromID,
			UserName:     e.UserName,
			GuessText:    e.ImageResponse,
			ResolvedName: e.ResolvedName,
			Latitude:     e.Latitude,
			Longitude:    e.Longitude,
			DistanceKm:   e.DistanceFrom,
			SubmittedAt:  parseTime(e.SubmittedAt),
		})
	}
	if c.Status == whereonearth.StatusCompleted {
		c.Result = &whereonearth.Result{
			WinnerName:  doc.WinnerName,
			WinnerGuess: doc.WinnerGuess,
			DistanceKm:  doc.DistanceToEntry,
		}
	}
	return c, nil
}

// LoadInfo returns the selection bookkeeping, starting at the first
// palette entry of the primary source when nothing is stored.
func (s *Store) LoadInfo(ctx context.Context) (*whereonearth.Info, error) {
	var doc infoDoc
	version, err := s.get(ctx, partitionInfo, rowInfo, &doc)
	if errors.Is(err, whereonearth.ErrNotFound) {
		return &whereonearth.Info{CurrentSource: whereonearth.SourcePrimary}, nil
	}
	if err != nil {
		return nil, err
	}
	return &whereonearth.Info{
		CurrentImageIndex: doc.CurrentImageIndex,
		CurrentSource:     whereonearth.ParseImageSource(doc.CurrentSource),
		Version:           version,
	}, nil
}

func (s *Store) SaveInfo(ctx context.Context, info *whereonearth.Info) error {
	doc := infoDoc{
		CurrentImageIndex: info.CurrentImageIndex,
		CurrentSource:     string(info.CurrentSource),
	}
	if err := s.put(ctx, partitionInfo, rowInfo, info.Version, doc); err != nil {
		return err
	}
	info.Version++
	return nil
}

// LoadTeam returns the installed team, or a zero Team when none is bound.
func (s *Store) LoadTeam(ctx context.Context) (whereonearth.Team, error) {
	var doc teamDoc
	_, err := s.get(ctx, partitionTeam, rowTeam, &doc)
	if errors.Is(err, whereonearth.ErrNotFound) {
		return whereonearth.Team{}, nil
	}
	if err != nil {
		return whereonearth.Team{}, err
	}
	return whereonearth.Team(doc), nil
}

func (s *Store) SaveTeam(ctx context.Context, team whereonearth.Team) error {
	return s.replace(ctx, partitionTeam, rowTeam, teamDoc(team))
}

func (s *Store) SaveChosenImage(ctx context.Context, dayKey string, img whereonearth.Image) error {
	doc := imageDoc{URL: img.URL, Text: img.Text, Region: img.Region}
	if img.HasCoordinates {
		doc.Latitude, doc.Longitude = &img.Latitude, &img.Longitude
	}
	return s.replace(ctx, partitionImage, dayKey, doc)
}

// LoadChosenImage returns the image committed for dayKey.
func (s *Store) LoadChosenImage(ctx context.Context, dayKey string) (whereonearth.Image, error) {
	var doc imageDoc
	if _, err := s.get(ctx, partitionImage, dayKey, &doc); err != nil {
		return whereonearth.Image{}, err
	}
	img := whereonearth.Image{URL: doc.URL, Text: doc.Text, Region: doc.Region}
	if doc.Latitude != nil && doc.Longitude != nil {
		img.HasCoordinates = true
		img.Latitude, img.Longitude = *doc.Latitude, *doc.Longitude
	}
	return img, nil
}

// Members returns the latest roster snapshot for a conversation in the
// order it was pushed.
func (s *Store) Members(ctx context.Context, conversationID string) ([]whereonearth.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_id, display_name FROM members WHERE conversation_id = ? ORDER BY position`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []whereonearth.Member{}
	for rows.Next() {
		var m whereonearth.Member
		if err := rows.Scan(&m.ID, &m.DisplayName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ReplaceMembers swaps the conversation's roster for members.
func (s *Store) ReplaceMembers(ctx context.Context, conversationID string, members []whereonearth.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE conversation_id = ?`, conversationID); err != nil {
		return err
	}
	for i, m := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO members (conversation_id, member_id, display_name, position) VALUES (?, ?, ?, ?)`,
			conversationID, m.ID, m.DisplayName, i,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
