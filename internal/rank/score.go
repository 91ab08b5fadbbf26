// Package rank converts a parsed result table into scored leaderboards.
// Everything here is a pure function of the table and the active filter;
// no state survives between report requests.
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/fortuna/victoria/internal/store"
)

// Base points by finishing rank within one day's group for one game.
// Ranks beyond third score nothing.
var basePoints = map[int]float64{1: 5, 2: 3, 3: 1}

// fullDayPot is the point total a day's group must conserve once three or
// more distinct participants compete: 5+3+1.
const fullDayPot = 9

// ScoredEntry is one player's scored result within a (date, game) group.
type ScoredEntry struct {
	Player          string    `json:"player"`
	Date            time.Time `json:"date"`
	Game            string    `json:"game"`
	PlayTimeSeconds int       `json:"play_time_seconds"`
	Rank            int       `json:"rank"`
	Points          float64   `json:"points"`
}

// ScoreDay ranks one day's results for a single game and assigns points.
//
// Ranking is "min" style: tied times share the lowest rank and the next
// distinct time resumes numbering as if the tied entries occupied
// consecutive ranks. When a tie among the top three breaks the 9-point
// total, the pot is redistributed: two players tied for first each take 4
// (first plus second place split), three or more split the whole pot
// evenly, ties at second split 4, ties at third split 1. Untied point
// values are left alone. The group total stays at 9 for three or more
// participants, 8 for exactly two, 5 for one.
func ScoreDay(group []store.GameResult) []ScoredEntry {
	if len(group) == 0 {
		return nil
	}

	entries := make([]ScoredEntry, len(group))
	for i, r := range group {
		rk := 1
		for _, other := range group {
			if other.PlayTimeSeconds < r.PlayTimeSeconds {
				rk++
			}
		}
		entries[i] = ScoredEntry{
			Player:          r.Sender,
			Date:            r.Date,
			Game:            r.Game,
			PlayTimeSeconds: r.PlayTimeSeconds,
			Rank:            rk,
			Points:          basePoints[rk],
		}
	}

	total := 0.0
	for _, e := range entries {
		total += e.Points
	}
	if total != fullDayPot {
		redistribute(entries)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})
	return entries
}

// redistribute rewrites tied base point values so the day's pot is
// conserved. Applied only when the base total deviates from 9, which
// signals a tie among the top three (or fewer than three participants, in
// which case no multiplicity exceeds one and nothing changes).
func redistribute(entries []ScoredEntry) {
	counts := make(map[float64]int)
	for _, e := range entries {
		counts[e.Points]++
	}

	for i, e := range entries {
		m := counts[e.Points]
		if m <= 1 {
			continue
		}
		switch e.Points {
		case 5:
			if m == 2 {
				entries[i].Points = 4
			} else {
				entries[i].Points = fullDayPot / float64(m)
			}
		case 3:
			entries[i].Points = 4 / float64(m)
		case 1:
			entries[i].Points = 1 / float64(m)
		}
	}
}

// scoreGroups splits the table into (date, game) groups for one game name
// (case-insensitive) and scores each group independently.
func scoreGroups(table []store.GameResult, game string) []ScoredEntry {
	byDay := make(map[string][]store.GameResult)
	var days []string
	for _, r := range table {
		if !strings.EqualFold(r.Game, game) {
			continue
		}
		day := r.Date.Format("2006-01-02")
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], r)
	}

	sort.Strings(days)
	var scored []ScoredEntry
	for _, day := range days {
		scored = append(scored, ScoreDay(byDay[day])...)
	}
	return scored
}
