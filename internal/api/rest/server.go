package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fortuna/victoria/internal/service"
	"github.com/gorilla/mux"
)

// Notifier pushes a payload to connected dashboard clients. The WebSocket
// server implements it; a nil Notifier disables push.
type Notifier interface {
	Broadcast(payload []byte)
}

// Server represents the REST API server.
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server.
func NewServer(port string, reports *service.ReportService, ingest *service.IngestService, notifier Notifier) *Server {
	handler := NewHandler(reports, ingest, notifier)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Uploads
	api.HandleFunc("/uploads", handler.UploadChatExport).Methods("POST")
	api.HandleFunc("/uploads/latest", handler.GetLatestUpload).Methods("GET")

	// Results
	api.HandleFunc("/results", handler.GetResults).Methods("GET")
	api.HandleFunc("/days", handler.GetDays).Methods("GET")

	// Rankings
	api.HandleFunc("/rankings", handler.GetRankings).Methods("GET")
	api.HandleFunc("/rankings/games/{game}", handler.GetGameRanking).Methods("GET")

	// Exports
	api.HandleFunc("/export/csv", handler.ExportCSV).Methods("GET")
	api.HandleFunc("/export/xlsx", handler.ExportXLSX).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
