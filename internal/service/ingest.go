package service

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/fortuna/victoria/internal/cache"
	"github.com/fortuna/victoria/internal/ingest/htmlexport"
	"github.com/fortuna/victoria/internal/ingest/whatsapp"
	"github.com/fortuna/victoria/internal/publisher"
	"github.com/fortuna/victoria/internal/store"
	"github.com/fortuna/victoria/internal/store/repository"
)

// Export source labels accepted by the ingest service.
const (
	SourceWhatsAppTxt  = "whatsapp_txt"
	SourceTelegramHTML = "telegram_html"
)

// IngestService parses chat exports and persists them as snapshots.
// Cache and publisher are optional; a nil value skips that side effect,
// which keeps the one-shot CLI free of Redis.
type IngestService struct {
	repo      *repository.ResultRepository
	cache     *cache.RedisCache
	publisher *publisher.RedisPublisher
	parser    *whatsapp.Parser
}

// NewIngestService creates a new ingest service.
func NewIngestService(db *store.Database, rc *cache.RedisCache, pub *publisher.RedisPublisher) *IngestService {
	return &IngestService{
		repo:      repository.NewResultRepository(db),
		cache:     rc,
		publisher: pub,
		parser:    whatsapp.NewParser(),
	}
}

// ParseOnly parses an export stream without touching storage. Used by the
// CLI's file-to-file mode.
func (s *IngestService) ParseOnly(r io.Reader, source string) ([]store.GameResult, error) {
	return parseExport(s.parser, r, source)
}

// IngestChatExport parses an export stream, stores the table as a new
// snapshot, and announces it. Parse failures of individual messages never
// surface here; only stream I/O and storage errors do.
func (s *IngestService) IngestChatExport(ctx context.Context, r io.Reader, source, filename string) (*store.Upload, []store.GameResult, error) {
	results, err := parseExport(s.parser, r, source)
	if err != nil {
		return nil, nil, err
	}

	var superseded *store.Upload
	if s.cache != nil {
		if prev, err := s.repo.GetLatestUpload(ctx); err == nil {
			superseded = prev
		}
	}

	upload, err := s.repo.InsertSnapshot(ctx, source, filename, results)
	if err != nil {
		return nil, nil, fmt.Errorf("storing snapshot: %w", err)
	}

	log.Printf("[ingest] Stored snapshot %s with %d results from %s", upload.UploadID, len(results), source)

	// Reports cache by upload ID, so the superseded upload's entries can
	// never be read again; drop them instead of waiting out the TTL.
	if superseded != nil {
		if err := s.cache.InvalidateUpload(ctx, superseded.UploadID); err != nil {
			log.Printf("[ingest] Warning: failed to invalidate cached reports for %s: %v", superseded.UploadID, err)
		}
	}

	if s.publisher != nil {
		event := publisher.UploadEvent{
			UploadID:    upload.UploadID,
			Source:      source,
			ResultCount: len(results),
		}
		if err := s.publisher.PublishUpload(ctx, event); err != nil {
			log.Printf("[ingest] Warning: failed to publish upload event: %v", err)
		}
	}

	return upload, results, nil
}

func parseExport(parser *whatsapp.Parser, r io.Reader, source string) ([]store.GameResult, error) {
	switch source {
	case SourceTelegramHTML:
		flattened, err := htmlexport.Reader(r)
		if err != nil {
			return nil, err
		}
		return parser.Parse(flattened)
	case SourceWhatsAppTxt, "":
		return parser.Parse(r)
	default:
		return nil, fmt.Errorf("unsupported export source %q", source)
	}
}
