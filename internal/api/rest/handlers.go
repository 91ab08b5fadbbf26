package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fortuna/victoria/internal/export"
	"github.com/fortuna/victoria/internal/rank"
	"github.com/fortuna/victoria/internal/service"
	"github.com/fortuna/victoria/internal/store"
	"github.com/gorilla/mux"
)

// maxUploadBytes bounds a chat export upload. Even years of group history
// stay well under this.
const maxUploadBytes = 32 << 20

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	reports  *service.ReportService
	ingest   *service.IngestService
	notifier Notifier
}

// NewHandler creates a new handler.
func NewHandler(reports *service.ReportService, ingest *service.IngestService, notifier Notifier) *Handler {
	return &Handler{
		reports:  reports,
		ingest:   ingest,
		notifier: notifier,
	}
}

// HealthCheck handles health check requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "victoria",
		"version": "1.0.0",
	})
}

// UploadChatExport accepts a multipart chat export, parses it, stores the
// snapshot, and notifies connected dashboards.
func (h *Handler) UploadChatExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing multipart field 'file'", err)
		return
	}
	defer file.Close()

	source := r.FormValue("source")
	if source == "" {
		source = service.SourceWhatsAppTxt
		if strings.HasSuffix(strings.ToLower(header.Filename), ".html") {
			source = service.SourceTelegramHTML
		}
	}

	upload, results, err := h.ingest.IngestChatExport(r.Context(), file, source, header.Filename)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "Failed to ingest chat export", err)
		return
	}

	if h.notifier != nil {
		if payload, err := json.Marshal(map[string]interface{}{
			"type":         "results_updated",
			"upload_id":    upload.UploadID,
			"result_count": len(results),
		}); err == nil {
			h.notifier.Broadcast(payload)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"upload":       upload,
		"result_count": len(results),
	})
}

// GetLatestUpload returns the most recent upload metadata.
func (h *Handler) GetLatestUpload(w http.ResponseWriter, r *http.Request) {
	upload, _, err := h.reports.LatestTable(r.Context())
	if err != nil {
		respondSnapshotError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, upload)
}

// GetResults returns the latest snapshot's result table.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	upload, table, err := h.reports.LatestTable(r.Context())
	if err != nil {
		respondSnapshotError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"upload":  upload,
		"results": table,
		"count":   len(table),
	})
}

// GetDays returns the distinct days of the latest snapshot, newest first.
func (h *Handler) GetDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.reports.Days(r.Context())
	if err != nil {
		respondSnapshotError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

// GetRankings returns every ranking view for the requested filter.
// Query parameters: day (All or YYYY-MM-DD, default All), start
// (YYYY-MM-DD, all-days mode only).
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	dayFilter, startDate, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	report, err := h.reports.Report(r.Context(), dayFilter, startDate)
	if err != nil {
		respondReportError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetGameRanking returns the ranking view of a single configured game.
func (h *Handler) GetGameRanking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	game := vars["game"]

	dayFilter, startDate, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	report, err := h.reports.Report(r.Context(), dayFilter, startDate)
	if err != nil {
		respondReportError(w, err)
		return
	}

	for _, view := range report.PerGame {
		if strings.EqualFold(view.Game, game) {
			respondJSON(w, http.StatusOK, view)
			return
		}
	}

	respondError(w, http.StatusNotFound, fmt.Sprintf("No results for game %q", game), nil)
}

// ExportCSV streams the latest snapshot as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	_, table, err := h.reports.LatestTable(r.Context())
	if err != nil {
		respondSnapshotError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="game_results.csv"`)
	if err := export.WriteCSV(w, table); err != nil {
		// Headers are gone; all we can do is log via the middleware path.
		return
	}
}

// ExportXLSX streams the latest snapshot and its rankings as a workbook.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	_, table, err := h.reports.LatestTable(r.Context())
	if err != nil {
		respondSnapshotError(w, err)
		return
	}

	report, err := h.reports.Report(r.Context(), rank.DayAll, nil)
	if err != nil && !errors.Is(err, rank.ErrNoResults) {
		respondError(w, http.StatusInternalServerError, "Failed to compute rankings", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, table, report); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	w.Write(buf.Bytes())
}

func parseFilter(r *http.Request) (string, *time.Time, error) {
	dayFilter := r.URL.Query().Get("day")
	if dayFilter == "" {
		dayFilter = rank.DayAll
	}
	if dayFilter != rank.DayAll {
		if _, err := time.Parse("2006-01-02", dayFilter); err != nil {
			return "", nil, fmt.Errorf("invalid day %q (use YYYY-MM-DD or All)", dayFilter)
		}
	}

	var startDate *time.Time
	if startStr := r.URL.Query().Get("start"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return "", nil, fmt.Errorf("invalid start date %q (use YYYY-MM-DD)", startStr)
		}
		startDate = &start
	}

	return dayFilter, startDate, nil
}

func respondSnapshotError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNoSnapshot) {
		respondError(w, http.StatusNotFound, "No chat export has been uploaded yet", err)
		return
	}
	respondError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
}

func respondReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		respondError(w, http.StatusNotFound, "No chat export has been uploaded yet", err)
	case errors.Is(err, rank.ErrNoResults):
		respondError(w, http.StatusNotFound, "No results match the requested filter", err)
	default:
		respondError(w, http.StatusInternalServerError, "Failed to compute rankings", err)
	}
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response.
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
