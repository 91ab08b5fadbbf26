package whatsapp

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/victoria/internal/clock"
	"github.com/fortuna/victoria/internal/store"
)

// ResolveDate parses the header's date token. A 4-digit year token is tried
// as DD/MM/YYYY, anything else as DD/MM/YY (two-digit years mean the 2000s).
func ResolveDate(token string) (time.Time, error) {
	layout := "02/01/06"
	if len(token) == len("02/01/2006") {
		layout = "02/01/2006"
	}

	t, err := time.Parse(layout, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date token %q", token)
	}
	return t, nil
}

// ExtractResult applies the game pattern to a reconstructed message and
// returns the result it announces, if any. A message without a recognizable
// announcement is normal chat, not an error: the second return is false.
// The date token is resolved by the caller so its failure can be logged as
// a dropped message rather than silently folded into "no match".
func (p *Patterns) ExtractResult(msg *ChatMessage, date time.Time) (*store.GameResult, bool) {
	m := p.Game.FindStringSubmatch(msg.Body)
	if m == nil {
		return nil, false
	}

	number, err := strconv.Atoi(m[2])
	if err != nil || number <= 0 {
		return nil, false
	}

	seconds, err := clock.Parse(m[3])
	if err != nil {
		return nil, false
	}

	result := &store.GameResult{
		Date:            date,
		Sender:          msg.Sender,
		Game:            strings.TrimSpace(m[1]),
		GameNumber:      number,
		PlayTimeSeconds: seconds,
	}

	if pct, ok := p.extractCEOPercent(msg.Body); ok {
		result.CEOPercent = sql.NullInt32{Int32: int32(pct), Valid: true}
	}

	return result, true
}

// extractCEOPercent finds a percentage figure confirmed by a CEO keyword.
// The keyword normally follows the number ("98% of CEOs"); when the export
// scrambled the sub-line order, any keyword elsewhere in the body is
// accepted as a fallback.
func (p *Patterns) extractCEOPercent(body string) (int, bool) {
	locs := p.CEOPercent.FindAllStringSubmatchIndex(body, -1)
	if locs == nil {
		return 0, false
	}

	hasKeyword := p.CEOKeyword.MatchString(body)

	fallback := -1
	for _, loc := range locs {
		pct, err := strconv.Atoi(body[loc[2]:loc[3]])
		if err != nil || pct > 100 {
			continue
		}
		if p.CEOKeyword.MatchString(body[loc[1]:]) {
			return pct, true
		}
		if fallback < 0 && hasKeyword {
			fallback = pct
		}
	}

	if fallback >= 0 {
		return fallback, true
	}
	return 0, false
}
