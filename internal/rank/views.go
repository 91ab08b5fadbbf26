package rank

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fortuna/victoria/internal/clock"
	"github.com/fortuna/victoria/internal/store"
)

// DayAll selects every day in the table.
const DayAll = "All"

// ErrNoResults reports that the filter matched no rows. Callers treat it
// as "nothing to rank", not a failure.
var ErrNoResults = errors.New("no results match the active filter")

// FillPolicy pads a sparse player's total time to approximate full
// participation. It receives the player's actual total, how many results
// they posted, the maximum posted by anyone, and the player's average time
// per game. The default substitutes the player's own average for each
// missing game; alternative strategies (cohort average, worst observed
// time) can be swapped in without touching the aggregation.
type FillPolicy func(totalSeconds, gamesPlayed, maxGames int, avgSeconds float64) float64

// OwnAverageFill is the default normalization policy.
func OwnAverageFill(totalSeconds, gamesPlayed, maxGames int, avgSeconds float64) float64 {
	missing := maxGames - gamesPlayed
	if missing <= 0 {
		return float64(totalSeconds)
	}
	return float64(totalSeconds) + avgSeconds*float64(missing)
}

// GameRow is one player's line in a per-game ranking.
type GameRow struct {
	Player         string   `json:"player"`
	GamesPlayed    int      `json:"games_played"`
	AvgTimeSeconds float64  `json:"avg_time_seconds"`
	AvgTime        string   `json:"avg_time"`
	MinTimeSeconds int      `json:"min_time_seconds"`
	MinTime        string   `json:"min_time"`
	AvgCEOPercent  *float64 `json:"avg_ceo_percent,omitempty"`
	BestOfDayCount int      `json:"best_of_day_count"`
	Points         float64  `json:"points"`
}

// GameView ranks every player who posted results for one game.
type GameView struct {
	Game string    `json:"game"`
	Rows []GameRow `json:"rows"`
}

// PointsRow is one player's line in the total-points leaderboard.
type PointsRow struct {
	Player string  `json:"player"`
	Points float64 `json:"points"`
}

// TimeRow is one player's line in the normalized total-time leaderboard.
type TimeRow struct {
	Player                string  `json:"player"`
	GamesPlayed           int     `json:"games_played"`
	TotalTimeSeconds      int     `json:"total_time_seconds"`
	TotalTime             string  `json:"total_time"`
	NormalizedTimeSeconds float64 `json:"normalized_time_seconds"`
}

// AvgTimeRow is one player's line in the average-time leaderboard.
type AvgTimeRow struct {
	Player         string  `json:"player"`
	GamesPlayed    int     `json:"games_played"`
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
	AvgTime        string  `json:"avg_time"`
}

// VarianceRow is one player's line in the consistency leaderboard. Lower
// mean absolute deviation from their own same-day mean means steadier play.
type VarianceRow struct {
	Player       string  `json:"player"`
	MeanAbsDev   float64 `json:"mean_abs_dev_seconds"`
	ResultsCount int     `json:"results_count"`
}

// BestRow is one player's line in the overall best-of-day leaderboard.
type BestRow struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
}

// PlayerAggregate is the per-player summary across the filtered table.
type PlayerAggregate struct {
	Player           string   `json:"player"`
	GamesPlayed      int      `json:"games_played"`
	TotalPoints      float64  `json:"total_points"`
	TotalTimeSeconds int      `json:"total_time_seconds"`
	AvgTimeSeconds   float64  `json:"avg_time_seconds"`
	BestOfDayCount   int      `json:"best_of_day_count"`
	AvgCEOPercent    *float64 `json:"avg_ceo_percent,omitempty"`
}

// Report bundles every ranking view for one filter.
type Report struct {
	DayFilter   string            `json:"day_filter"`
	Games       []string          `json:"games"`
	PerGame     []GameView        `json:"per_game"`
	TotalPoints []PointsRow       `json:"total_points"`
	TotalTime   []TimeRow         `json:"total_time,omitempty"`
	AverageTime []AvgTimeRow      `json:"average_time"`
	Variance    []VarianceRow     `json:"variance"`
	BestOfDay   []BestRow         `json:"best_of_day"`
	Aggregates  []PlayerAggregate `json:"aggregates"`
	ScoringNote string            `json:"scoring_note"`
}

const scoringNote = "5 points to the day's fastest player, 3 to the second, 1 to the third, per game per day; ties split the pot"

// Builder computes reports. The zero value is not usable; NewBuilder wires
// the default fill policy.
type Builder struct {
	Fill FillPolicy
}

// NewBuilder returns a report builder with own-average normalization.
func NewBuilder() *Builder {
	return &Builder{Fill: OwnAverageFill}
}

// Report computes every ranking view from the table for the configured
// games and the active filter. dayFilter is DayAll or a YYYY-MM-DD day;
// startDate, when non-nil and dayFilter is DayAll, drops earlier rows.
// Returns ErrNoResults when the filter leaves nothing to rank.
func (b *Builder) Report(table []store.GameResult, games []string, dayFilter string, startDate *time.Time) (*Report, error) {
	filtered := filterTable(table, games, dayFilter, startDate)
	if len(filtered) == 0 {
		return nil, ErrNoResults
	}

	allDays := dayFilter == DayAll

	scoredByGame := make(map[string][]ScoredEntry, len(games))
	for _, game := range games {
		scoredByGame[game] = scoreGroups(filtered, game)
	}

	report := &Report{
		DayFilter:   dayFilter,
		Games:       games,
		ScoringNote: scoringNote,
	}

	wins := make(map[string]int)
	points := make(map[string]float64)

	for _, game := range games {
		view := buildGameView(game, filtered, scoredByGame[game], allDays)
		if view == nil {
			continue
		}
		report.PerGame = append(report.PerGame, *view)
		for _, row := range view.Rows {
			wins[row.Player] += row.BestOfDayCount
			points[row.Player] += row.Points
		}
	}

	report.TotalPoints = buildPointsView(points)
	report.AverageTime = buildAverageTimeView(filtered)
	report.Variance = buildVarianceView(filtered)
	report.BestOfDay = buildBestOfDayView(wins)
	if allDays {
		report.TotalTime = b.buildTotalTimeView(filtered)
	}
	report.Aggregates = buildAggregates(filtered, points, wins)

	return report, nil
}

// filterTable applies the day/start filter and restricts the table to the
// configured game list (case-insensitive exact compare on the label).
func filterTable(table []store.GameResult, games []string, dayFilter string, startDate *time.Time) []store.GameResult {
	var out []store.GameResult
	for _, r := range table {
		if !gameConfigured(games, r.Game) {
			continue
		}
		if dayFilter != DayAll {
			if r.Date.Format("2006-01-02") != dayFilter {
				continue
			}
		} else if startDate != nil && r.Date.Before(*startDate) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func gameConfigured(games []string, label string) bool {
	for _, g := range games {
		if strings.EqualFold(g, label) {
			return true
		}
	}
	return false
}

func buildGameView(game string, filtered []store.GameResult, scored []ScoredEntry, allDays bool) *GameView {
	type acc struct {
		games    int
		totalSec int
		minSec   int
		ceoSum   float64
		ceoCount int
		wins     int
		points   float64
	}

	players := make(map[string]*acc)
	var order []string

	for _, r := range filtered {
		if !strings.EqualFold(r.Game, game) {
			continue
		}
		a := players[r.Sender]
		if a == nil {
			a = &acc{minSec: math.MaxInt}
			players[r.Sender] = a
			order = append(order, r.Sender)
		}
		a.games++
		a.totalSec += r.PlayTimeSeconds
		if r.PlayTimeSeconds < a.minSec {
			a.minSec = r.PlayTimeSeconds
		}
		if r.CEOPercent.Valid {
			a.ceoSum += float64(r.CEOPercent.Int32)
			a.ceoCount++
		}
	}
	if len(players) == 0 {
		return nil
	}

	for _, e := range scored {
		a := players[e.Player]
		a.points += e.Points
		if e.Rank == 1 {
			a.wins++
		}
	}

	rows := make([]GameRow, 0, len(players))
	for _, player := range order {
		a := players[player]
		row := GameRow{
			Player:         player,
			GamesPlayed:    a.games,
			AvgTimeSeconds: float64(a.totalSec) / float64(a.games),
			MinTimeSeconds: a.minSec,
			MinTime:        clock.MMSS(a.minSec),
			BestOfDayCount: a.wins,
			Points:         a.points,
		}
		row.AvgTime = clock.MMSS(int(math.Round(row.AvgTimeSeconds)))
		if a.ceoCount > 0 {
			avg := a.ceoSum / float64(a.ceoCount)
			row.AvgCEOPercent = &avg
		}
		rows = append(rows, row)
	}

	if allDays {
		// Overall view ranks by days won; times break ties.
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].BestOfDayCount != rows[j].BestOfDayCount {
				return rows[i].BestOfDayCount > rows[j].BestOfDayCount
			}
			return rows[i].AvgTimeSeconds < rows[j].AvgTimeSeconds
		})
	} else {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].AvgTimeSeconds < rows[j].AvgTimeSeconds
		})
	}

	return &GameView{Game: game, Rows: rows}
}

func buildPointsView(points map[string]float64) []PointsRow {
	rows := make([]PointsRow, 0, len(points))
	for player, pts := range points {
		rows = append(rows, PointsRow{Player: player, Points: pts})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

func (b *Builder) buildTotalTimeView(filtered []store.GameResult) []TimeRow {
	type acc struct {
		games    int
		totalSec int
	}
	players := make(map[string]*acc)
	for _, r := range filtered {
		a := players[r.Sender]
		if a == nil {
			a = &acc{}
			players[r.Sender] = a
		}
		a.games++
		a.totalSec += r.PlayTimeSeconds
	}

	maxGames := 0
	for _, a := range players {
		if a.games > maxGames {
			maxGames = a.games
		}
	}

	fill := b.Fill
	if fill == nil {
		fill = OwnAverageFill
	}

	rows := make([]TimeRow, 0, len(players))
	for player, a := range players {
		avg := float64(a.totalSec) / float64(a.games)
		rows = append(rows, TimeRow{
			Player:                player,
			GamesPlayed:           a.games,
			TotalTimeSeconds:      a.totalSec,
			TotalTime:             clock.HMMSS(a.totalSec),
			NormalizedTimeSeconds: fill(a.totalSec, a.games, maxGames, avg),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].NormalizedTimeSeconds != rows[j].NormalizedTimeSeconds {
			return rows[i].NormalizedTimeSeconds < rows[j].NormalizedTimeSeconds
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

func buildAverageTimeView(filtered []store.GameResult) []AvgTimeRow {
	type acc struct {
		games    int
		totalSec int
	}
	players := make(map[string]*acc)
	for _, r := range filtered {
		a := players[r.Sender]
		if a == nil {
			a = &acc{}
			players[r.Sender] = a
		}
		a.games++
		a.totalSec += r.PlayTimeSeconds
	}

	rows := make([]AvgTimeRow, 0, len(players))
	for player, a := range players {
		avg := float64(a.totalSec) / float64(a.games)
		rows = append(rows, AvgTimeRow{
			Player:         player,
			GamesPlayed:    a.games,
			AvgTimeSeconds: avg,
			AvgTime:        clock.MMSS(int(math.Round(avg))),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgTimeSeconds != rows[j].AvgTimeSeconds {
			return rows[i].AvgTimeSeconds < rows[j].AvgTimeSeconds
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

// buildVarianceView measures consistency: for each result, the absolute
// deviation from that player's mean time on the same day, averaged over
// all the player's results.
func buildVarianceView(filtered []store.GameResult) []VarianceRow {
	type dayKey struct {
		player string
		day    string
	}
	type dayAcc struct {
		totalSec int
		count    int
	}

	days := make(map[dayKey]*dayAcc)
	for _, r := range filtered {
		k := dayKey{player: r.Sender, day: r.Date.Format("2006-01-02")}
		a := days[k]
		if a == nil {
			a = &dayAcc{}
			days[k] = a
		}
		a.totalSec += r.PlayTimeSeconds
		a.count++
	}

	type playerAcc struct {
		devSum float64
		count  int
	}
	players := make(map[string]*playerAcc)
	for _, r := range filtered {
		k := dayKey{player: r.Sender, day: r.Date.Format("2006-01-02")}
		mean := float64(days[k].totalSec) / float64(days[k].count)
		a := players[r.Sender]
		if a == nil {
			a = &playerAcc{}
			players[r.Sender] = a
		}
		a.devSum += math.Abs(float64(r.PlayTimeSeconds) - mean)
		a.count++
	}

	rows := make([]VarianceRow, 0, len(players))
	for player, a := range players {
		rows = append(rows, VarianceRow{
			Player:       player,
			MeanAbsDev:   a.devSum / float64(a.count),
			ResultsCount: a.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanAbsDev != rows[j].MeanAbsDev {
			return rows[i].MeanAbsDev < rows[j].MeanAbsDev
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

func buildBestOfDayView(wins map[string]int) []BestRow {
	rows := make([]BestRow, 0, len(wins))
	for player, w := range wins {
		rows = append(rows, BestRow{Player: player, Wins: w})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

func buildAggregates(filtered []store.GameResult, points map[string]float64, wins map[string]int) []PlayerAggregate {
	type acc struct {
		games    int
		totalSec int
		ceoSum   float64
		ceoCount int
	}
	players := make(map[string]*acc)
	var order []string
	for _, r := range filtered {
		a := players[r.Sender]
		if a == nil {
			a = &acc{}
			players[r.Sender] = a
			order = append(order, r.Sender)
		}
		a.games++
		a.totalSec += r.PlayTimeSeconds
		if r.CEOPercent.Valid {
			a.ceoSum += float64(r.CEOPercent.Int32)
			a.ceoCount++
		}
	}

	rows := make([]PlayerAggregate, 0, len(players))
	for _, player := range order {
		a := players[player]
		agg := PlayerAggregate{
			Player:           player,
			GamesPlayed:      a.games,
			TotalPoints:      points[player],
			TotalTimeSeconds: a.totalSec,
			AvgTimeSeconds:   float64(a.totalSec) / float64(a.games),
			BestOfDayCount:   wins[player],
		}
		if a.ceoCount > 0 {
			avg := a.ceoSum / float64(a.ceoCount)
			agg.AvgCEOPercent = &avg
		}
		rows = append(rows, agg)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}
