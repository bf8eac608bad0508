package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/store"
)

// Server holds the API server state
type Server struct {
	catalog Catalog
	config  ServerConfig
	metrics *Metrics
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(cat Catalog, config ServerConfig, metrics *Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		catalog: cat,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// statusFor maps a catalog or codec error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrMalformedHeader),
		errors.Is(err, errs.ErrMalformedMessage),
		errors.Is(err, errs.ErrUnsupportedVersion),
		errors.Is(err, errs.ErrInvalidEnumValue),
		errors.Is(err, errs.ErrInvalidFieldValue),
		errors.Is(err, errs.ErrMissingField),
		errors.Is(err, errs.ErrInvalidLogValue),
		errors.Is(err, errs.ErrUnknownLogType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListNetworks lists every ingested network
func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	done := s.metrics.ObserveCatalog("networks")
	entries, err := s.catalog.Networks()
	done(err)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list networks: %v", err), statusFor(err))
		return
	}
	s.metrics.SetNetworks(len(entries))
	sendSuccess(w, entries)
}

// handleGetNetwork returns one catalog entry
func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	done := s.metrics.ObserveCatalog("network")
	entry, err := s.catalog.Network(key)
	done(err)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get network: %v", err), statusFor(err))
		return
	}
	sendSuccess(w, entry)
}

// handleDeleteNetwork removes a network and its points
func (s *Server) handleDeleteNetwork(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	done := s.metrics.ObserveCatalog("delete")
	err := s.catalog.Delete(key)
	done(err)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to delete network: %v", err), statusFor(err))
		return
	}
	sendSuccess(w, map[string]string{"message": "Network deleted successfully"})
}

// handleIngestNetwork reads a control network file from the request body and
// adds it to the catalog. The optional source query parameter names it.
func (s *Server) handleIngestNetwork(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	// The store reads by offset, so the body is spooled to a temp file.
	tmp, err := os.CreateTemp("", "cnet-upload-*.net")
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to buffer upload: %v", err), http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())

	body := http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	_, err = io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Network file too large", http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, fmt.Sprintf("Failed to read upload: %v", err), http.StatusBadRequest)
		return
	}

	done := s.metrics.ObserveCatalog("ingest")
	frame, err := store.ReadNetwork(tmp.Name(), s.logger)
	if err != nil {
		done(err)
		sendError(w, fmt.Sprintf("Failed to read network: %v", err), statusFor(err))
		return
	}
	entry, err := s.catalog.Ingest(frame, source)
	done(err)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to ingest network: %v", err), statusFor(err))
		return
	}
	s.metrics.RecordIngest(entry.Points, entry.Measures, len(entry.Diagnostics))
	sendSuccess(w, entry)
}

// handleListPoints lists point ids of a network. Supports ?prefix= and
// ?offset=&limit= paging.
func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	query := r.URL.Query()

	offset, err := intParam(query.Get("offset"), 0)
	if err != nil {
		sendError(w, "Invalid offset parameter", http.StatusBadRequest)
		return
	}
	limit, err := intParam(query.Get("limit"), 0)
	if err != nil {
		sendError(w, "Invalid limit parameter", http.StatusBadRequest)
		return
	}

	done := s.metrics.ObserveCatalog("points")
	ids, err := s.catalog.PointIDs(key)
	done(err)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list points: %v", err), statusFor(err))
		return
	}

	if prefix := query.Get("prefix"); prefix != "" {
		filtered := ids[:0]
		for _, id := range ids {
			if strings.HasPrefix(id, prefix) {
				filtered = append(filtered, id)
			}
		}
		ids = filtered
	}
	total := len(ids)
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	sendSuccess(w, PointListResponse{Key: key, Total: total, IDs: ids})
}

// handleGetPoint returns one decoded control point
func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	pointID := chi.URLParam(r, "pointID")

	done := s.metrics.ObserveCatalog("point")
	p, err := s.catalog.Point(key, pointID)
	done(err)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get point: %v", err), statusFor(err))
		return
	}
	sendSuccess(w, PointResponse{ID: p.ID(), Fields: p.Fields, Measures: p.Measures})
}

// intParam parses a non-negative integer query value, def when empty
func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

// startMetricsUpdater periodically refreshes catalog gauges until ctx is done
func (s *Server) startMetricsUpdater(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := s.catalog.Networks()
			if err != nil {
				s.logger.Warn("metrics update failed", zap.Error(err))
				continue
			}
			s.metrics.SetNetworks(len(entries))
		}
	}
}
