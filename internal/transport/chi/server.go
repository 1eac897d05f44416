// Package chi is the HTTP surface of tripmate: chat, show-more, like,
// health, metrics and dataset listing over a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	healthuc "github.com/kailas-cloud/tripmate/internal/usecase/health"
	"github.com/kailas-cloud/tripmate/internal/usecase/recommend"
)

const (
	maxBodyBytes = 64 << 10

	msgMissingQuery = "Please provide city, category, and query."
	msgMissingLike  = "Please provide city, category, and item name."
)

// Recommender answers queries and credits likes.
type Recommender interface {
	HandleRequest(ctx context.Context, req recommend.Request) (recommend.Response, error)
	Like(ctx context.Context, req recommend.LikeRequest) (recommend.LikeResponse, error)
}

// DatasetLister lists the configured domain/city sheets.
type DatasetLister interface {
	Entries() []recommend.Entry
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// Limits are the default page sizes of /chat and /show_more.
type Limits struct {
	Chat     int
	ShowMore int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the tripmate HTTP API.
type Server struct {
	recommender   Recommender
	datasets      DatasetLister
	health        HealthReporter
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommender Recommender,
	datasets DatasetLister,
	health HealthReporter,
	limits Limits,
	logger *zap.Logger,
) *Server {
	if limits.Chat <= 0 {
		limits.Chat = 3
	}
	if limits.ShowMore <= 0 {
		limits.ShowMore = 2
	}
	s := &Server{
		recommender: recommender,
		datasets:    datasets,
		health:      health,
		limits:      limits,
		logger:      logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnsupportedDomain, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnknownCity, http.StatusNotFound),
		sentinelHandler(domain.ErrEmbeddingTimeout, http.StatusGatewayTimeout),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway),
		sentinelHandler(domain.ErrDatasetUnavailable, http.StatusInternalServerError),
	}
	return s
}

type chatRequest struct {
	City     string   `json:"city" validate:"required,max=100"`
	Category string   `json:"category" validate:"required,max=50"`
	Query    string   `json:"query" validate:"required,max=500"`
	Liked    []string `json:"liked" validate:"max=50,dive,max=200"`
}

type showMoreRequest struct {
	City     string `json:"city" validate:"required,max=100"`
	Category string `json:"category" validate:"required,max=50"`
	Query    string `json:"query" validate:"required,max=500"`
	Offset   *int   `json:"offset" validate:"omitempty,min=0"`
	Limit    *int   `json:"limit" validate:"omitempty,min=0,max=50"`
}

type likeRequest struct {
	City     string `json:"city" validate:"required,max=100"`
	Category string `json:"category" validate:"required,max=50"`
	Name     string `json:"name" validate:"required,max=200"`
}

type recommendResponse = recommend.Payload

type likeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Matched int    `json:"matched"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type datasetItem struct {
	Category string `json:"category"`
	City     string `json:"city"`
	File     string `json:"file"`
	Sheet    string `json:"sheet"`
}

type datasetsResponse struct {
	Datasets []datasetItem `json:"datasets"`
}

// Chat handles POST /chat: the first page of suggestions for a query.
// Liked names are credited before retrieval.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg, ok := validateRequest(&req, msgMissingQuery); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	resp, err := s.recommender.HandleRequest(r.Context(), recommend.Request{
		City:     req.City,
		Category: req.Category,
		Query:    req.Query,
		Liked:    req.Liked,
		Offset:   0,
		Limit:    s.limits.Chat,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Payload())
}

// ShowMore handles POST /show_more: a further page for the same query.
func (s *Server) ShowMore(w http.ResponseWriter, r *http.Request) {
	var req showMoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg, ok := validateRequest(&req, msgMissingQuery); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	offset := 0
	if req.Offset != nil {
		offset = *req.Offset
	}
	limit := s.limits.ShowMore
	if req.Limit != nil {
		limit = *req.Limit
	}

	resp, err := s.recommender.HandleRequest(r.Context(), recommend.Request{
		City:     req.City,
		Category: req.Category,
		Query:    req.Query,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Payload())
}

// Like handles POST /like.
func (s *Server) Like(w http.ResponseWriter, r *http.Request) {
	var req likeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg, ok := validateRequest(&req, msgMissingLike); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	resp, err := s.recommender.Like(r.Context(), recommend.LikeRequest{
		City:     req.City,
		Category: req.Category,
		Name:     req.Name,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !resp.Persisted && resp.Matched > 0 {
		s.requestLogger(r).Warn("Like applied but not persisted", zap.String("name", req.Name))
	}
	writeJSON(w, http.StatusOK, likeResponse{Success: true, Message: resp.Message, Matched: resp.Matched})
}

// Datasets handles GET /datasets.
func (s *Server) Datasets(w http.ResponseWriter, _ *http.Request) {
	entries := s.datasets.Entries()
	items := make([]datasetItem, len(entries))
	for i, e := range entries {
		items[i] = datasetItem{
			Category: string(e.Domain),
			City:     e.City,
			File:     e.Ref.File,
			Sheet:    e.Ref.Sheet,
		}
	}
	writeJSON(w, http.StatusOK, datasetsResponse{Datasets: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// safeDomainMessage returns a caller-facing message without exposing internals.
// Input errors carry their own message; other failures report the sentinel only.
func safeDomainMessage(err error) string {
	var inErr *domain.InputError
	if errors.As(err, &inErr) {
		return inErr.Message
	}
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrUnsupportedDomain,
		domain.ErrUnknownCity,
		domain.ErrDatasetUnavailable,
		domain.ErrEmbeddingTimeout,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return "Server error: " + s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := s.requestLogger(r)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if id := chiMiddleware.GetReqID(r.Context()); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}
