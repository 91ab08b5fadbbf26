// Package htmlexport flattens a Telegram-style HTML chat export into the
// header/continuation line stream the WhatsApp parser consumes, so both
// export formats feed the same segmentation and extraction pipeline.
package htmlexport

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// exportTimeLayouts are the timestamp formats seen in the wild in the
// title attribute of a message's date element.
var exportTimeLayouts = []string{
	"02.01.2006 15:04:05 UTC-07:00",
	"02.01.2006 15:04:05",
}

// Flatten converts an HTML export into synthetic chat lines:
// "[DD/MM/YYYY HH:MM:SS] Sender: text" headers followed by the message's
// remaining text lines as continuations. Messages without a resolvable
// timestamp or sender are skipped; they cannot anchor a result anyway.
func Flatten(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML export: %w", err)
	}

	var lines []string
	lastSender := ""

	doc.Find("div.message").Each(func(i int, s *goquery.Selection) {
		if s.HasClass("service") {
			return
		}

		// Joined messages omit from_name; the sender carries over.
		if name := strings.TrimSpace(s.Find("div.from_name").First().Text()); name != "" {
			lastSender = name
		}
		if lastSender == "" {
			return
		}

		title, _ := s.Find("div.date").First().Attr("title")
		ts, err := parseExportTime(title)
		if err != nil {
			return
		}

		textLines := extractTextLines(s.Find("div.text").First())
		if len(textLines) == 0 {
			return
		}

		header := fmt.Sprintf("[%s %s] %s: %s",
			ts.Format("02/01/2006"), ts.Format("15:04:05"), lastSender, textLines[0])
		lines = append(lines, header)
		lines = append(lines, textLines[1:]...)
	})

	return lines, nil
}

// Reader returns the flattened export as a line stream.
func Reader(r io.Reader) (io.Reader, error) {
	lines, err := Flatten(r)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(strings.Join(lines, "\n")), nil
}

func parseExportTime(title string) (time.Time, error) {
	title = strings.TrimSpace(title)
	for _, layout := range exportTimeLayouts {
		if ts, err := time.Parse(layout, title); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized export timestamp %q", title)
}

// extractTextLines returns the element's text with <br> boundaries kept as
// separate lines. goquery's Text() collapses them, which would glue a
// score table and its CEO footer into one unsplittable run.
func extractTextLines(s *goquery.Selection) []string {
	if s.Length() == 0 {
		return nil
	}

	var b strings.Builder
	s.Contents().Each(func(i int, node *goquery.Selection) {
		if goquery.NodeName(node) == "br" {
			b.WriteString("\n")
			return
		}
		b.WriteString(node.Text())
	})

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
