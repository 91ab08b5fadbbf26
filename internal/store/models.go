package store

import (
	"database/sql"
	"time"
)

// Upload represents one ingested chat export snapshot. Every parse run
// produces a new upload; reports are computed against the rows of the most
// recent one.
type Upload struct {
	UploadID    string         `json:"upload_id" db:"upload_id"`
	Source      string         `json:"source" db:"source"`
	Filename    sql.NullString `json:"filename,omitempty" db:"filename"`
	ResultCount int            `json:"result_count" db:"result_count"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// GameResult is one parsed game announcement: a sender finished a numbered
// daily game in a measured time, optionally reporting a CEO percentage.
// The ordered slice of these rows is the single source of truth handed from
// the parsing side to the ranking side; nothing downstream mutates it.
type GameResult struct {
	ID              int           `json:"id,omitempty" db:"id"`
	UploadID        string        `json:"upload_id,omitempty" db:"upload_id"`
	Date            time.Time     `json:"date" db:"date"`
	Sender          string        `json:"sender" db:"sender"`
	Game            string        `json:"game" db:"game"`
	GameNumber      int           `json:"game_number" db:"game_number"`
	PlayTimeSeconds int           `json:"play_time_seconds" db:"play_time_seconds"`
	CEOPercent      sql.NullInt32 `json:"ceo_percent,omitempty" db:"ceo_percent"`
	CreatedAt       time.Time     `json:"created_at,omitempty" db:"created_at"`
}

// ResultKey is the comparable identity of a GameResult, used to collapse
// duplicate submissions to a single row.
type ResultKey struct {
	Date            string
	Sender          string
	Game            string
	GameNumber      int
	PlayTimeSeconds int
	CEOPercent      int32
	HasCEO          bool
}

// Key returns the deduplication identity of the result.
func (r *GameResult) Key() ResultKey {
	k := ResultKey{
		Date:            r.Date.Format("2006-01-02"),
		Sender:          r.Sender,
		Game:            r.Game,
		GameNumber:      r.GameNumber,
		PlayTimeSeconds: r.PlayTimeSeconds,
	}
	if r.CEOPercent.Valid {
		k.CEOPercent = r.CEOPercent.Int32
		k.HasCEO = true
	}
	return k
}
