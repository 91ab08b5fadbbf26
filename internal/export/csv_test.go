package export

import (
	"bytes"
	"database/sql"
	"testing"
	"time"

	"github.com/fortuna/victoria/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() []store.GameResult {
	return []store.GameResult{
		{
			Date:            time.Date(2025, time.October, 14, 0, 0, 0, 0, time.UTC),
			Sender:          "Alice",
			Game:            "Tango",
			GameNumber:      120,
			PlayTimeSeconds: 45,
		},
		{
			Date:            time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC),
			Sender:          "Dana",
			Game:            "Queens",
			GameNumber:      88,
			PlayTimeSeconds: 125,
			CEOPercent:      sql.NullInt32{Int32: 97, Valid: true},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	want := "date,sender,game,game_number,play_time,ceo_percent\n" +
		"2025-10-14,Alice,Tango,120,0:45,\n" +
		"2025-10-15,Dana,Queens,88,2:05,97\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "date,sender,game,game_number,play_time,ceo_percent\n", buf.String())
}
