package rank

import (
	"testing"
	"time"

	"github.com/fortuna/victoria/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, time.October, d, 0, 0, 0, 0, time.UTC)
}

func result(sender string, d int, game string, seconds int) store.GameResult {
	return store.GameResult{
		Date:            day(d),
		Sender:          sender,
		Game:            game,
		GameNumber:      100 + d,
		PlayTimeSeconds: seconds,
	}
}

func points(entries []ScoredEntry) map[string]float64 {
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.Player] = e.Points
	}
	return out
}

func potTotal(entries []ScoredEntry) float64 {
	total := 0.0
	for _, e := range entries {
		total += e.Points
	}
	return total
}

func TestScoreDayDistinctTimes(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 62),
		result("Carol", 14, "Tango", 90),
		result("Dave", 14, "Tango", 120),
	})

	require.Len(t, entries, 4)
	pts := points(entries)
	assert.Equal(t, 5.0, pts["Alice"])
	assert.Equal(t, 3.0, pts["Bob"])
	assert.Equal(t, 1.0, pts["Carol"])
	assert.Equal(t, 0.0, pts["Dave"])
	assert.Equal(t, 9.0, potTotal(entries))

	// Sorted by rank ascending.
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Alice", entries[0].Player)
	assert.Equal(t, 4, entries[3].Rank)
}

func TestScoreDayTwoWayTieForFirst(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 45),
		result("Carol", 14, "Tango", 60),
	})

	pts := points(entries)
	assert.Equal(t, 4.0, pts["Alice"])
	assert.Equal(t, 4.0, pts["Bob"])
	assert.Equal(t, 1.0, pts["Carol"])
	assert.Equal(t, 9.0, potTotal(entries))

	// Min-style ranking: the time after the tie resumes at rank 3.
	for _, e := range entries {
		if e.Player == "Carol" {
			assert.Equal(t, 3, e.Rank)
		} else {
			assert.Equal(t, 1, e.Rank)
		}
	}
}

func TestScoreDayThreeWayTieForFirst(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 45),
		result("Carol", 14, "Tango", 45),
	})

	pts := points(entries)
	assert.Equal(t, 3.0, pts["Alice"])
	assert.Equal(t, 3.0, pts["Bob"])
	assert.Equal(t, 3.0, pts["Carol"])
	assert.Equal(t, 9.0, potTotal(entries))
}

func TestScoreDayTieForSecond(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 50),
		result("Carol", 14, "Tango", 50),
		result("Dave", 14, "Tango", 70),
	})

	pts := points(entries)
	assert.Equal(t, 5.0, pts["Alice"])
	assert.Equal(t, 2.0, pts["Bob"])
	assert.Equal(t, 2.0, pts["Carol"])
	assert.Equal(t, 0.0, pts["Dave"])
	assert.Equal(t, 9.0, potTotal(entries))
}

func TestScoreDayTieForThird(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 50),
		result("Carol", 14, "Tango", 55),
		result("Dave", 14, "Tango", 55),
	})

	pts := points(entries)
	assert.Equal(t, 5.0, pts["Alice"])
	assert.Equal(t, 3.0, pts["Bob"])
	assert.Equal(t, 0.5, pts["Carol"])
	assert.Equal(t, 0.5, pts["Dave"])
	assert.Equal(t, 9.0, potTotal(entries))
}

func TestScoreDayCompoundTies(t *testing.T) {
	// Two tied for first and two tied for third: 4+4+0.5+0.5 = 9.
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 45),
		result("Carol", 14, "Tango", 60),
		result("Dave", 14, "Tango", 60),
	})

	pts := points(entries)
	assert.Equal(t, 4.0, pts["Alice"])
	assert.Equal(t, 4.0, pts["Bob"])
	assert.Equal(t, 0.5, pts["Carol"])
	assert.Equal(t, 0.5, pts["Dave"])
	assert.Equal(t, 9.0, potTotal(entries))
}

func TestScoreDayTwoParticipants(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 60),
	})

	pts := points(entries)
	assert.Equal(t, 5.0, pts["Alice"])
	assert.Equal(t, 3.0, pts["Bob"])
	assert.Equal(t, 8.0, potTotal(entries))
}

func TestScoreDayTwoParticipantsTied(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 45),
	})

	// Both tied for first split first and second place: 4 each, total 8.
	pts := points(entries)
	assert.Equal(t, 4.0, pts["Alice"])
	assert.Equal(t, 4.0, pts["Bob"])
	assert.Equal(t, 8.0, potTotal(entries))
}

func TestScoreDayLoneParticipant(t *testing.T) {
	entries := ScoreDay([]store.GameResult{
		result("Alice", 14, "Tango", 45),
	})

	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 5.0, entries[0].Points)
}

func TestScoreDayEmptyGroup(t *testing.T) {
	assert.Nil(t, ScoreDay(nil))
}

func TestScoreGroupsSplitsByDay(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "Tango", 45),
		result("Bob", 14, "Tango", 60),
		result("Alice", 15, "Tango", 50),
		result("Bob", 15, "Tango", 40),
		result("Alice", 15, "Queens", 30),
	}

	scored := scoreGroups(table, "Tango")
	require.Len(t, scored, 4)

	total := map[string]float64{}
	for _, e := range scored {
		total[e.Player] += e.Points
	}
	// Alice wins day 14, Bob wins day 15.
	assert.Equal(t, 8.0, total["Alice"])
	assert.Equal(t, 8.0, total["Bob"])
}

func TestScoreGroupsCaseInsensitiveGameMatch(t *testing.T) {
	table := []store.GameResult{
		result("Alice", 14, "tango", 45),
	}
	scored := scoreGroups(table, "Tango")
	require.Len(t, scored, 1)
	assert.Equal(t, 5.0, scored[0].Points)
}
