package service

import (
	"strings"
	"testing"

	"github.com/fortuna/victoria/internal/ingest/whatsapp"
	"github.com/fortuna/victoria/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropExcluded(t *testing.T) {
	s := &ReportService{excluded: []string{"Results Bot"}}

	table := []store.GameResult{
		{Sender: "Alice", Game: "Tango"},
		{Sender: "Results Bot", Game: "Tango"},
		{Sender: "Bob", Game: "Tango"},
	}

	kept := s.dropExcluded(table)
	require.Len(t, kept, 2)
	assert.Equal(t, "Alice", kept[0].Sender)
	assert.Equal(t, "Bob", kept[1].Sender)
}

func TestDropExcludedNoConfig(t *testing.T) {
	s := &ReportService{}
	table := []store.GameResult{{Sender: "Alice"}}
	assert.Equal(t, table, s.dropExcluded(table))
}

func TestParseOnlyTextSource(t *testing.T) {
	svc := &IngestService{parser: whatsapp.NewParser()}

	export := "[14/10/2025, 09:00:00] Alice: Tango #120 | 0:45\n"
	table, err := svc.ParseOnly(strings.NewReader(export), SourceWhatsAppTxt)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Tango", table[0].Game)
}

func TestParseOnlyHTMLSource(t *testing.T) {
	svc := &IngestService{parser: whatsapp.NewParser()}

	html := `<div class="message">
  <div class="from_name">Alice</div>
  <div class="date" title="14.10.2025 09:00:00"></div>
  <div class="text">Tango #120 | 0:45</div>
</div>`
	table, err := svc.ParseOnly(strings.NewReader(html), SourceTelegramHTML)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Alice", table[0].Sender)
}

func TestParseOnlyUnknownSource(t *testing.T) {
	svc := &IngestService{parser: whatsapp.NewParser()}

	_, err := svc.ParseOnly(strings.NewReader(""), "carrier_pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier_pigeon")
}
