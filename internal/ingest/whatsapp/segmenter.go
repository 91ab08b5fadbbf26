package whatsapp

import "strings"

// ChatMessage is one reconstructed logical message: the header line plus
// every continuation line until the next header, space-joined into Body.
// Immutable once emitted by the segmenter.
type ChatMessage struct {
	DateToken string
	TimeToken string
	Sender    string
	Body      string
}

// Segmenter rebuilds logical messages from a stream of physical lines.
// It is a two-state machine: either no message is open, or one message is
// open and accumulating continuation lines. A line that matches the header
// pattern closes the open message (emitting it) and opens a new one; any
// other line is appended to the open message, or discarded when nothing is
// open (it cannot belong to any result).
type Segmenter struct {
	patterns *Patterns

	open      bool
	dateToken string
	timeToken string
	sender    string
	bodyParts []string
}

// NewSegmenter returns a segmenter in the no-open-message state.
func NewSegmenter(patterns *Patterns) *Segmenter {
	return &Segmenter{patterns: patterns}
}

// Feed consumes one normalized line. When the line starts a new message and
// a previous one was open, the previous message is returned.
func (s *Segmenter) Feed(line string) *ChatMessage {
	m := s.patterns.Header.FindStringSubmatch(line)
	if m == nil {
		if s.open {
			s.bodyParts = append(s.bodyParts, line)
		}
		return nil
	}

	emitted := s.emit()
	s.open = true
	s.dateToken = m[1]
	s.timeToken = m[2]
	s.sender = m[3]
	s.bodyParts = []string{m[4]}
	return emitted
}

// Flush emits whatever message remains open at end of input.
func (s *Segmenter) Flush() *ChatMessage {
	return s.emit()
}

func (s *Segmenter) emit() *ChatMessage {
	if !s.open {
		return nil
	}
	msg := &ChatMessage{
		DateToken: s.dateToken,
		TimeToken: s.timeToken,
		Sender:    s.sender,
		Body:      strings.Join(s.bodyParts, " "),
	}
	s.open = false
	s.bodyParts = nil
	return msg
}
