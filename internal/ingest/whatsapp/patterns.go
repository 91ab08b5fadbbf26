package whatsapp

import "regexp"

// Patterns holds the compiled expressions the parser matches against.
// They are built once per parser and never mutated, so alternate variants
// (extra CEO keywords for other locales, a different header shape) can be
// injected in tests or future export formats without touching globals.
type Patterns struct {
	// Header matches the first line of a logical message:
	// [DD/MM/YYYY HH:MM:SS] Sender: text
	// [DD/MM/YY, HH:MM:SS] Sender: text
	// Captures: date token, time token, sender, trailing text.
	Header *regexp.Regexp

	// Game matches a result announcement anywhere in a message body:
	// optional leading '#', the game name, '#' plus the game number, then
	// a clock token after arbitrary pipes/parens/whitespace.
	// Captures: game name, game number, clock token.
	Game *regexp.Regexp

	// CEOPercent matches a self-reported percentage. Captures the number;
	// a CEO keyword must follow somewhere in the text for it to count.
	CEOPercent *regexp.Regexp

	// CEOKeyword validates that a percentage really is a CEO figure.
	CEOKeyword *regexp.Regexp
}

// DefaultPatterns returns the patterns for the WhatsApp export format the
// group chat produces, including the comma-before-time locale variant and
// the localized CEO keywords seen in the wild (CEO, CEOs, PDG).
func DefaultPatterns() *Patterns {
	return &Patterns{
		Header:     regexp.MustCompile(`^\[(\d{2}/\d{2}/\d{2,4}),? (\d{1,2}:\d{2}:\d{2})\]\s(.*?):\s(.*)$`),
		Game:       regexp.MustCompile(`(?i)#?([A-Za-z][A-Za-z ]*?)\s*#(\d+)[\s|()]*(\d{1,2}:\d{2}(?::\d{2})?)`),
		CEOPercent: regexp.MustCompile(`(\d{1,3})%`),
		CEOKeyword: regexp.MustCompile(`(?i)\b(?:CEOs?|PDG)\b`),
	}
}
