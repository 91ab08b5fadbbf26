package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/fortuna/victoria/internal/cache"
	"github.com/fortuna/victoria/internal/rank"
	"github.com/fortuna/victoria/internal/store"
	"github.com/fortuna/victoria/internal/store/repository"
)

// ReportService computes ranking reports from the latest stored snapshot.
type ReportService struct {
	repo     *repository.ResultRepository
	cache    *cache.RedisCache
	builder  *rank.Builder
	games    []string
	excluded []string
}

// NewReportService creates a new report service. The cache is optional.
func NewReportService(db *store.Database, rc *cache.RedisCache, games, excludedSenders []string) *ReportService {
	return &ReportService{
		repo:     repository.NewResultRepository(db),
		cache:    rc,
		builder:  rank.NewBuilder(),
		games:    games,
		excluded: excludedSenders,
	}
}

// Games returns the configured game list in display order.
func (s *ReportService) Games() []string {
	return s.games
}

// LatestTable returns the latest snapshot with excluded senders removed.
func (s *ReportService) LatestTable(ctx context.Context) (*store.Upload, []store.GameResult, error) {
	upload, table, err := s.repo.GetLatestSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return upload, s.dropExcluded(table), nil
}

// Days returns the distinct days of the latest snapshot, newest first.
func (s *ReportService) Days(ctx context.Context) ([]string, error) {
	upload, err := s.repo.GetLatestUpload(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDistinctDays(ctx, upload.UploadID)
}

// Report computes (or serves from cache) the full set of ranking views for
// the latest snapshot under the given filter.
func (s *ReportService) Report(ctx context.Context, dayFilter string, startDate *time.Time) (*rank.Report, error) {
	upload, table, err := s.LatestTable(ctx)
	if err != nil {
		return nil, err
	}

	startToken := ""
	if startDate != nil {
		startToken = startDate.Format("2006-01-02")
	}
	key := cache.ReportKey(upload.UploadID, dayFilter, startToken)

	if s.cache != nil {
		if payload, ok, err := s.cache.GetReport(ctx, key); err != nil {
			log.Printf("[reports] Warning: cache read failed: %v", err)
		} else if ok {
			var cached rank.Report
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
			log.Printf("[reports] Warning: discarding undecodable cached report for %s", key)
		}
	}

	report, err := s.builder.Report(table, s.games, dayFilter, startDate)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			if err := s.cache.SetReport(ctx, key, payload); err != nil {
				log.Printf("[reports] Warning: cache write failed: %v", err)
			}
		}
	}

	return report, nil
}

// dropExcluded removes configured non-player senders (announcement bots,
// duplicated accounts) before any ranking runs.
func (s *ReportService) dropExcluded(table []store.GameResult) []store.GameResult {
	if len(s.excluded) == 0 {
		return table
	}
	excluded := make(map[string]bool, len(s.excluded))
	for _, sender := range s.excluded {
		excluded[sender] = true
	}

	kept := make([]store.GameResult, 0, len(table))
	for _, r := range table {
		if excluded[r.Sender] {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
