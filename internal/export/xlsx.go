package export

import (
	"fmt"
	"io"

	"github.com/fortuna/victoria/internal/clock"
	"github.com/fortuna/victoria/internal/rank"
	"github.com/fortuna/victoria/internal/store"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX renders the raw table plus every ranking view as a workbook,
// one sheet per view.
func WriteXLSX(w io.Writer, table []store.GameResult, report *rank.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	// excelize starts with a default sheet; reuse it as the results sheet.
	if err := writeResultsSheet(f, table); err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", "Results"); err != nil {
		return err
	}

	if report != nil {
		if err := writeReportSheets(f, report); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing XLSX workbook: %w", err)
	}
	return nil
}

func writeResultsSheet(f *excelize.File, table []store.GameResult) error {
	rows := [][]interface{}{
		{"Date", "Player", "Game", "Number", "Time", "CEO %"},
	}
	for _, r := range table {
		row := []interface{}{
			r.Date.Format("2006-01-02"),
			r.Sender,
			r.Game,
			r.GameNumber,
			clock.MMSS(r.PlayTimeSeconds),
		}
		if r.CEOPercent.Valid {
			row = append(row, int(r.CEOPercent.Int32))
		} else {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return writeSheet(f, "Sheet1", rows)
}

func writeReportSheets(f *excelize.File, report *rank.Report) error {
	pointsRows := [][]interface{}{{"Player", "Total Score"}}
	for _, row := range report.TotalPoints {
		pointsRows = append(pointsRows, []interface{}{row.Player, row.Points})
	}
	if err := addSheet(f, "Total Scores", pointsRows); err != nil {
		return err
	}

	for _, view := range report.PerGame {
		rows := [][]interface{}{{"Player", "Average Time", "Minimum Time", "Average CEO %", "Days Won", "Score"}}
		for _, r := range view.Rows {
			ceo := interface{}("")
			if r.AvgCEOPercent != nil {
				ceo = *r.AvgCEOPercent
			}
			rows = append(rows, []interface{}{r.Player, r.AvgTime, r.MinTime, ceo, r.BestOfDayCount, r.Points})
		}
		if err := addSheet(f, view.Game, rows); err != nil {
			return err
		}
	}

	if len(report.TotalTime) > 0 {
		rows := [][]interface{}{{"Player", "Total Time", "Games Played", "Normalized Seconds"}}
		for _, r := range report.TotalTime {
			rows = append(rows, []interface{}{r.Player, r.TotalTime, r.GamesPlayed, r.NormalizedTimeSeconds})
		}
		if err := addSheet(f, "Total Time", rows); err != nil {
			return err
		}
	}

	avgRows := [][]interface{}{{"Player", "Games Played", "Average Time"}}
	for _, r := range report.AverageTime {
		avgRows = append(avgRows, []interface{}{r.Player, r.GamesPlayed, r.AvgTime})
	}
	if err := addSheet(f, "Average Time", avgRows); err != nil {
		return err
	}

	varRows := [][]interface{}{{"Player", "Results", "Mean Abs Deviation (sec)"}}
	for _, r := range report.Variance {
		varRows = append(varRows, []interface{}{r.Player, r.ResultsCount, r.MeanAbsDev})
	}
	if err := addSheet(f, "Consistency", varRows); err != nil {
		return err
	}

	bestRows := [][]interface{}{{"Player", "Days Won"}}
	for _, r := range report.BestOfDay {
		bestRows = append(bestRows, []interface{}{r.Player, r.Wins})
	}
	return addSheet(f, "Best of Day", bestRows)
}

func addSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %q: %w", name, err)
	}
	return writeSheet(f, name, rows)
}

func writeSheet(f *excelize.File, name string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing row %d of sheet %q: %w", i+1, name, err)
		}
	}
	return nil
}
