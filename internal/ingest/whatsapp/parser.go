// Package whatsapp parses WhatsApp chat exports of a daily mini-game group
// into structured game results. The pipeline is line normalization, message
// segmentation, record extraction; malformed messages are dropped with a
// log line and never abort the batch.
package whatsapp

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/fortuna/victoria/internal/store"
)

// Parser turns a chat export stream into a deduplicated, date-ordered
// result table. Each Parse call is independent; the parser holds only
// immutable compiled patterns, so the same input always yields the same
// table.
type Parser struct {
	patterns *Patterns
}

// NewParser returns a parser with the default WhatsApp patterns.
func NewParser() *Parser {
	return &Parser{patterns: DefaultPatterns()}
}

// NewParserWithPatterns returns a parser with injected pattern variants.
func NewParserWithPatterns(patterns *Patterns) *Parser {
	return &Parser{patterns: patterns}
}

// Parse consumes the whole stream and returns the result table, sorted
// ascending by date with exact duplicates collapsed. It fails only on
// stream I/O; individual malformed messages are logged and skipped.
func (p *Parser) Parse(r io.Reader) ([]store.GameResult, error) {
	seg := NewSegmenter(p.patterns)

	var results []store.GameResult
	seen := make(map[store.ResultKey]bool)
	dropped := 0

	collect := func(msg *ChatMessage) {
		if msg == nil {
			return
		}
		date, err := ResolveDate(msg.DateToken)
		if err != nil {
			log.Printf("[parser] Warning: dropping message from %q: %v", msg.Sender, err)
			dropped++
			return
		}
		result, ok := p.patterns.ExtractResult(msg, date)
		if !ok {
			// Ordinary conversation, not a result announcement.
			return
		}
		key := result.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		results = append(results, *result)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		collect(seg.Feed(NormalizeLine(scanner.Text())))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chat export: %w", err)
	}
	collect(seg.Flush())

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Date.Before(results[j].Date)
	})

	if dropped > 0 {
		log.Printf("[parser] Dropped %d messages with unparseable dates", dropped)
	}

	return results, nil
}
