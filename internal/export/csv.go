// Package export renders a result table and its rankings to CSV and XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fortuna/victoria/internal/clock"
	"github.com/fortuna/victoria/internal/store"
)

// csvHeader is the fixed column set of the CSV surface.
var csvHeader = []string{"date", "sender", "game", "game_number", "play_time", "ceo_percent"}

// WriteCSV writes the result table with a header row, rows in table order
// (callers hand in date-ascending tables), UTF-8. Play times are encoded
// as m:ss tokens; a missing CEO percentage is an empty cell.
func WriteCSV(w io.Writer, table []store.GameResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range table {
		ceo := ""
		if r.CEOPercent.Valid {
			ceo = strconv.Itoa(int(r.CEOPercent.Int32))
		}
		record := []string{
			r.Date.Format("2006-01-02"),
			r.Sender,
			r.Game,
			strconv.Itoa(r.GameNumber),
			clock.MMSS(r.PlayTimeSeconds),
			ceo,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
