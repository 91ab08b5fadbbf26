package rank

import (
	"database/sql"
	"testing"
	"time"

	"github.com/fortuna/victoria/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGames = []string{"Tango", "Queens"}

func TestReportNoResults(t *testing.T) {
	b := NewBuilder()

	_, err := b.Report(nil, testGames, DayAll, nil)
	assert.ErrorIs(t, err, ErrNoResults)

	// Rows for unconfigured games never rank.
	table := []store.GameResult{result("Alice", 14, "Wordle", 45)}
	_, err = b.Report(table, testGames, DayAll, nil)
	assert.ErrorIs(t, err, ErrNoResults)

	// A day filter matching nothing behaves the same.
	table = []store.GameResult{result("Alice", 14, "Tango", 45)}
	_, err = b.Report(table, testGames, "2025-10-20", nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestReportTotalPoints(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 60),
		result("Carol", 14, "Tango", 90),
		result("Alice", 14, "Queens", 30),
		result("Bob", 14, "Queens", 25),
	}

	report, err := NewBuilder().Report(table, testGames, DayAll, nil)
	require.NoError(t, err)

	// Tango: Alice 5, Bob 3, Carol 1. Queens: Bob 5, Alice 3.
	require.Len(t, report.TotalPoints, 3)
	assert.Equal(t, PointsRow{Player: "Alice", Points: 8}, report.TotalPoints[0])
	assert.Equal(t, PointsRow{Player: "Bob", Points: 8}, report.TotalPoints[1])
	assert.Equal(t, PointsRow{Player: "Carol", Points: 1}, report.TotalPoints[2])
	assert.NotEmpty(t, report.ScoringNote)
}

func TestReportPerGameView(t *testing.T) {
	ceo := sql.NullInt32{Int32: 95, Valid: true}
	withCEO := result("Alice", 14, "Tango", 45)
	withCEO.CEOPercent = ceo

	table := []store.GameResult{
		withCEO,
		result("Bob", 14, "Tango", 60),
		result("Alice", 15, "Tango", 50),
		result("Bob", 15, "Tango", 40),
	}

	report, err := NewBuilder().Report(table, testGames, DayAll, nil)
	require.NoError(t, err)
	require.Len(t, report.PerGame, 1)

	view := report.PerGame[0]
	assert.Equal(t, "Tango", view.Game)
	require.Len(t, view.Rows, 2)

	// One day won each; Alice's lower average time breaks the tie.
	alice := view.Rows[0]
	assert.Equal(t, "Alice", alice.Player)
	assert.Equal(t, 2, alice.GamesPlayed)
	assert.Equal(t, 1, alice.BestOfDayCount)
	assert.Equal(t, 47.5, alice.AvgTimeSeconds)
	assert.Equal(t, 45, alice.MinTimeSeconds)
	assert.Equal(t, "0:45", alice.MinTime)
	require.NotNil(t, alice.AvgCEOPercent)
	assert.Equal(t, 95.0, *alice.AvgCEOPercent)

	bob := view.Rows[1]
	assert.Equal(t, "Bob", bob.Player)
	assert.Equal(t, 1, bob.BestOfDayCount)
	assert.Nil(t, bob.AvgCEOPercent)
}

func TestReportSingleDayFilter(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 60),
		result("Alice", 15, "Tango", 50),
	}

	report, err := NewBuilder().Report(table, testGames, "2025-10-14", nil)
	require.NoError(t, err)

	assert.Equal(t, "2025-10-14", report.DayFilter)
	require.Len(t, report.PerGame, 1)
	require.Len(t, report.PerGame[0].Rows, 2)
	for _, row := range report.PerGame[0].Rows {
		assert.Equal(t, 1, row.GamesPlayed)
	}

	// Single-day reports skip the normalized total-time view.
	assert.Empty(t, report.TotalTime)
}

func TestReportStartDateFilter(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 10, "Tango", 45),
		result("Alice", 14, "Tango", 50),
		result("Bob", 14, "Tango", 60),
	}

	start := time.Date(2025, time.October, 12, 0, 0, 0, 0, time.UTC)
	report, err := NewBuilder().Report(table, testGames, DayAll, &start)
	require.NoError(t, err)

	require.Len(t, report.PerGame, 1)
	for _, row := range report.PerGame[0].Rows {
		assert.Equal(t, 1, row.GamesPlayed)
	}
}

func TestReportNormalizedTotalTime(t *testing.T) {
	// Alice posts four results, Bob only one: Bob's total is padded with
	// three copies of his own average.
	table := []store.GameResult{
		result("Alice", 14, "Tango", 40),
		result("Alice", 14, "Queens", 50),
		result("Alice", 15, "Tango", 60),
		result("Alice", 15, "Queens", 50),
		result("Bob", 14, "Tango", 30),
	}

	report, err := NewBuilder().Report(table, testGames, DayAll, nil)
	require.NoError(t, err)
	require.Len(t, report.TotalTime, 2)

	// Bob: 30 actual + 30*3 filled = 120, still ahead of Alice's 200.
	bob := report.TotalTime[0]
	assert.Equal(t, "Bob", bob.Player)
	assert.Equal(t, 30, bob.TotalTimeSeconds)
	assert.Equal(t, 120.0, bob.NormalizedTimeSeconds)

	alice := report.TotalTime[1]
	assert.Equal(t, "Alice", alice.Player)
	assert.Equal(t, 200, alice.TotalTimeSeconds)
	assert.Equal(t, 200.0, alice.NormalizedTimeSeconds)
}

func TestReportCustomFillPolicy(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "Tango", 40),
		result("Alice", 14, "Queens", 50),
		result("Bob", 14, "Tango", 30),
	}

	b := &Builder{Fill: func(totalSeconds, gamesPlayed, maxGames int, avgSeconds float64) float64 {
		return float64(totalSeconds)
	}}
	report, err := b.Report(table, testGames, DayAll, nil)
	require.NoError(t, err)

	// Identity policy keeps raw totals, so the sparse player stays lowest.
	assert.Equal(t, "Bob", report.TotalTime[0].Player)
	assert.Equal(t, 30.0, report.TotalTime[0].NormalizedTimeSeconds)
}

func TestReportAverageTime(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "Tango", 40),
		result("Alice", 15, "Tango", 60),
		result("Bob", 14, "Tango", 45),
	}

	report, err := NewBuilder().Report(table, testGames, DayAll, nil)
	require.NoError(t, err)
	require.Len(t, report.AverageTime, 2)

	assert.Equal(t, "Bob", report.AverageTime[0].Player)
	assert.Equal(t, 45.0, report.AverageTime[0].AvgTimeSeconds)
	assert.Equal(t, "Alice", report.AverageTime[1].Player)
	assert.Equal(t, 50.0, report.AverageTime[1].AvgTimeSeconds)
	assert.Equal(t, "0:50", report.AverageTime[1].AvgTime)
}

func TestReportVariance(t *testing.T) {
	// Alice's two same-day times are 40 and 60: day mean 50, deviation 10
	// each. Bob posts once, so he deviates from his own mean by zero.
	table := []store.GameResult{
		result("Alice", 14, "Tango", 40),
		result("Alice", 14, "Queens", 60),
		result("Bob", 14, "Tango", 55),
	}

	report, err := NewBuilder().Report(table, testGames, DayAll, nil)
	require.NoError(t, err)
	require.Len(t, report.Variance, 2)

	assert.Equal(t, "Bob", report.Variance[0].Player)
	assert.Equal(t, 0.0, report.Variance[0].MeanAbsDev)
	assert.Equal(t, "Alice", report.Variance[1].Player)
	assert.Equal(t, 10.0, report.Variance[1].MeanAbsDev)
	assert.Equal(t, 2, report.Variance[1].ResultsCount)
}

func TestReportBestOfDayCountsTies(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 45),
		result("Carol", 14, "Tango", 60),
	}

	report, err := NewBuilder().Report(table, testGames, DayAll, nil)
	require.NoError(t, err)

	wins := map[string]int{}
	for _, row := range report.BestOfDay {
		wins[row.Player] = row.Wins
	}
	// A tied fastest time is a day win for every player who posted it.
	assert.Equal(t, 1, wins["Alice"])
	assert.Equal(t, 1, wins["Bob"])
	assert.Equal(t, 0, wins["Carol"])
}

func TestReportAggregates(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 60),
		result("Alice", 14, "Queens", 30),
	}

	report, err := NewBuilder().Report(table, testGames, DayAll, nil)
	require.NoError(t, err)
	require.Len(t, report.Aggregates, 2)

	alice := report.Aggregates[0]
	assert.Equal(t, "Alice", alice.Player)
	assert.Equal(t, 2, alice.GamesPlayed)
	assert.Equal(t, 10.0, alice.TotalPoints)
	assert.Equal(t, 75, alice.TotalTimeSeconds)
	assert.Equal(t, 2, alice.BestOfDayCount)
}

func TestFilterTableCaseInsensitiveGames(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "tango", 45),
		result("Alice", 14, "TANGO", 50),
	}

	filtered := filterTable(table, testGames, DayAll, nil)
	assert.Len(t, filtered, 2)
}

func TestOwnAverageFill(t *testing.T) {
	assert.Equal(t, 120.0, OwnAverageFill(30, 1, 4, 30))
	// Full participation is returned untouched.
	assert.Equal(t, 200.0, OwnAverageFill(200, 4, 4, 50))
	assert.Equal(t, 200.0, OwnAverageFill(200, 5, 4, 40))
}
