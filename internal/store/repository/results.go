package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/victoria/internal/store"
	"github.com/google/uuid"
)

// ResultRepository handles persistence of upload snapshots and their
// parsed game results.
type ResultRepository struct {
	db *store.Database
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *store.Database) *ResultRepository {
	return &ResultRepository{db: db}
}

// InsertSnapshot stores a freshly parsed table as a new upload and returns
// the persisted upload record. The insert is transactional: either the
// whole snapshot lands or none of it does.
func (r *ResultRepository) InsertSnapshot(ctx context.Context, source, filename string, results []store.GameResult) (*store.Upload, error) {
	uploadID := uuid.NewString()

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	upload := &store.Upload{
		UploadID:    uploadID,
		Source:      source,
		ResultCount: len(results),
	}
	if filename != "" {
		upload.Filename = sql.NullString{String: filename, Valid: true}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO uploads (upload_id, source, filename, result_count)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, upload.UploadID, upload.Source, upload.Filename, upload.ResultCount).Scan(&upload.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting upload: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO game_results (upload_id, date, sender, game, game_number, play_time_seconds, ceo_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range results {
		_, err := stmt.ExecContext(ctx, uploadID, result.Date, result.Sender,
			result.Game, result.GameNumber, result.PlayTimeSeconds, result.CEOPercent)
		if err != nil {
			return nil, fmt.Errorf("inserting result for %s/%s: %w", result.Sender, result.Game, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing snapshot: %w", err)
	}

	return upload, nil
}

// GetLatestUpload returns the most recent upload, or store.ErrNoSnapshot
// when nothing has been ingested yet.
func (r *ResultRepository) GetLatestUpload(ctx context.Context) (*store.Upload, error) {
	query := `
		SELECT upload_id, source, filename, result_count, created_at
		FROM uploads
		ORDER BY created_at DESC
		LIMIT 1
	`

	upload := &store.Upload{}
	err := r.db.DB().QueryRowContext(ctx, query).Scan(
		&upload.UploadID, &upload.Source, &upload.Filename, &upload.ResultCount, &upload.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest upload: %w", err)
	}

	return upload, nil
}

// GetSnapshot returns the result table of one upload, sorted ascending by
// date.
func (r *ResultRepository) GetSnapshot(ctx context.Context, uploadID string) ([]store.GameResult, error) {
	query := `
		SELECT id, upload_id, date, sender, game, game_number, play_time_seconds, ceo_percent, created_at
		FROM game_results
		WHERE upload_id = $1
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetLatestSnapshot returns the result table of the most recent upload.
func (r *ResultRepository) GetLatestSnapshot(ctx context.Context) (*store.Upload, []store.GameResult, error) {
	upload, err := r.GetLatestUpload(ctx)
	if err != nil {
		return nil, nil, err
	}

	results, err := r.GetSnapshot(ctx, upload.UploadID)
	if err != nil {
		return nil, nil, err
	}

	return upload, results, nil
}

// GetDistinctDays returns the days covered by one upload, newest first,
// for the report day selector.
func (r *ResultRepository) GetDistinctDays(ctx context.Context, uploadID string) ([]string, error) {
	query := `
		SELECT DISTINCT date
		FROM game_results
		WHERE upload_id = $1
		ORDER BY date DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("querying distinct days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}
		days = append(days, day.Format("2006-01-02"))
	}
	return days, rows.Err()
}

func scanResults(rows *sql.Rows) ([]store.GameResult, error) {
	var results []store.GameResult
	for rows.Next() {
		var result store.GameResult
		err := rows.Scan(
			&result.ID, &result.UploadID, &result.Date, &result.Sender,
			&result.Game, &result.GameNumber, &result.PlayTimeSeconds,
			&result.CEOPercent, &result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
