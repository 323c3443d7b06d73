package history

import (
	"context"
	"database/sql"
	"time"
)

type Entry struct {
	ID         int64     `json:"id"`
	SongID     string    `json:"song_id"`
	Title      string    `json:"title"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	PlayedAt   time.Time `json:"played_at"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record appends one play. Satisfies the player's Recorder.
func (s *Store) Record(songID, title, playlistID string, playedAt time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO play_history(song_id, title, playlist_id, played_at) VALUES (?,?,?,?)`,
		songID, title, playlistID, playedAt.UTC(),
	)
	return err
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, song_id, title, playlist_id, played_at FROM play_history ORDER BY played_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SongID, &e.Title, &e.PlaylistID, &e.PlayedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
