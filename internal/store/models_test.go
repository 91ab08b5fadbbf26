package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultKeyIdentity(t *testing.T) {
	date := time.Date(2025, time.October, 14, 0, 0, 0, 0, time.UTC)
	base := GameResult{
		Date:            date,
		Sender:          "Alice",
		Game:            "Tango",
		GameNumber:      120,
		PlayTimeSeconds: 45,
	}

	same := base
	// Row-level bookkeeping never affects identity.
	same.ID = 99
	same.UploadID = "other-upload"
	same.CreatedAt = date.Add(time.Hour)
	assert.Equal(t, base.Key(), same.Key())

	slower := base
	slower.PlayTimeSeconds = 46
	assert.NotEqual(t, base.Key(), slower.Key())

	withCEO := base
	withCEO.CEOPercent = sql.NullInt32{Int32: 97, Valid: true}
	assert.NotEqual(t, base.Key(), withCEO.Key())

	// A null percentage and an explicit zero are different identities.
	zeroCEO := base
	zeroCEO.CEOPercent = sql.NullInt32{Int32: 0, Valid: true}
	assert.NotEqual(t, base.Key(), zeroCEO.Key())
}
