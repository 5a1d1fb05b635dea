package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eskan/internal/config"
	"eskan/internal/database"
	"eskan/internal/domain"
	"eskan/internal/metrics"
	"eskan/internal/models"

	"github.com/rs/zerolog"
)

// RequestExporter writes a date-range report file and returns its path.
type RequestExporter interface {
	ExportRequests(ctx context.Context, from, to time.Time) (string, error)
}

// HTTPServer exposes the booking request lifecycle over HTTP. Every endpoint
// acts on the identity resolved from the caller's API key.
type HTTPServer struct {
	cfg      config.APIConfig
	booking  config.BookingConfig
	svc      domain.BookingService
	exporter RequestExporter
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, booking config.BookingConfig, svc domain.BookingService, exporter RequestExporter, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, booking: booking, svc: svc, exporter: exporter, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/requests", srv.handleRequests)
	mux.HandleFunc("/api/v1/requests/", srv.handleRequestByID)
	mux.HandleFunc("/api/v1/my/requests", srv.handleMyRequests)
	mux.HandleFunc("/api/v1/exports/requests", srv.handleExportRequests)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	root := http.NewServeMux()
	root.HandleFunc("/health", srv.handleHealth)
	root.Handle("/api/", handler)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRequest(w, r)
	case http.MethodGet:
		s.handleListRequests(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type createRequestBody struct {
	EmployeeNationalCode string `json:"employee_national_code"`
	HotelID              int64  `json:"hotel_id"`
	CheckIn              string `json:"check_in"`
	CheckOut             string `json:"check_out"`
	Notes                string `json:"notes"`
	Guests               []struct {
		FullName     string `json:"full_name"`
		NationalCode string `json:"national_code"`
	} `json:"guests"`
}

func (s *HTTPServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_request")

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity is missing")
		return
	}

	var body createRequestBody
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	checkIn, err := time.Parse("2006-01-02", strings.TrimSpace(body.CheckIn))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_in; expected YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse("2006-01-02", strings.TrimSpace(body.CheckOut))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_out; expected YYYY-MM-DD")
		return
	}

	input := domain.CreateRequestInput{
		EmployeeNationalCode: strings.TrimSpace(body.EmployeeNationalCode),
		HotelID:              body.HotelID,
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		Notes:                body.Notes,
	}
	for _, g := range body.Guests {
		input.Guests = append(input.Guests, domain.GuestInput{
			FullName:     strings.TrimSpace(g.FullName),
			NationalCode: strings.TrimSpace(g.NationalCode),
		})
	}

	request, message, err := s.svc.CreateRequest(r.Context(), identity, input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncDecision("created")
	writeJSON(w, http.StatusCreated, map[string]any{
		"request": request,
		"message": message,
	})
}

func (s *HTTPServer) handleListRequests(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_requests")

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity is missing")
		return
	}

	requests, total, err := s.svc.ListRequests(r.Context(), identity, listOptionsFromQuery(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"total":    total,
	})
}

func (s *HTTPServer) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("my_requests")

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity is missing")
		return
	}

	requests, total, err := s.svc.ListMyRequests(r.Context(), identity, listOptionsFromQuery(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"total":    total,
	})
}

// handleRequestByID routes /api/v1/requests/{id} and its action sub-paths.
func (s *HTTPServer) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/requests/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	idStr, action, _ := strings.Cut(rest, "/")

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity is missing")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.handleGetRequest(w, r, identity, id)
	case action == "approve" && r.Method == http.MethodPost:
		s.handleApprove(w, r, identity, id)
	case action == "reject" && r.Method == http.MethodPost:
		s.handleReject(w, r, identity, id)
	case action == "cancel" && r.Method == http.MethodPost:
		s.handleCancel(w, r, identity, id)
	case action == "files" && r.Method == http.MethodPost:
		s.handleAttachFile(w, r, identity, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request, identity models.Identity, id int64) {
	metrics.IncHTTP("get_request")

	details, err := s.svc.GetRequestDetails(r.Context(), identity, id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *HTTPServer) handleApprove(w http.ResponseWriter, r *http.Request, identity models.Identity, id int64) {
	metrics.IncHTTP("approve_request")

	request, err := s.svc.ApproveRequest(r.Context(), identity, id)
	if s.shouldRetry(err) {
		request, err = s.svc.ApproveRequest(r.Context(), identity, id)
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncDecision("approved")
	writeJSON(w, http.StatusOK, map[string]any{"request": request})
}

type rejectBody struct {
	Reason string `json:"reason"`
}

func (s *HTTPServer) handleReject(w http.ResponseWriter, r *http.Request, identity models.Identity, id int64) {
	metrics.IncHTTP("reject_request")

	var body rejectBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	request, message, err := s.svc.RejectRequest(r.Context(), identity, id, body.Reason)
	if s.shouldRetry(err) {
		request, message, err = s.svc.RejectRequest(r.Context(), identity, id, body.Reason)
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncDecision("rejected")
	writeJSON(w, http.StatusOK, map[string]any{
		"request": request,
		"message": message,
	})
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request, identity models.Identity, id int64) {
	metrics.IncHTTP("cancel_request")

	request, message, err := s.svc.CancelRequest(r.Context(), identity, id)
	if s.shouldRetry(err) {
		request, message, err = s.svc.CancelRequest(r.Context(), identity, id)
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncDecision("cancelled")
	writeJSON(w, http.StatusOK, map[string]any{
		"request": request,
		"message": message,
	})
}

type attachFileBody struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

func (s *HTTPServer) handleAttachFile(w http.ResponseWriter, r *http.Request, identity models.Identity, id int64) {
	metrics.IncHTTP("attach_file")

	var body attachFileBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	file, err := s.svc.AttachFile(r.Context(), identity, id, body.FileName, body.Path)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"file": file})
}

// handleExportRequests produces the XLSX report for a period. Reserved for the
// welfare head office.
func (s *HTTPServer) handleExportRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("export_requests")

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity is missing")
		return
	}
	if identity.Role != models.RoleSuperAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", strings.TrimSpace(q.Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(q.Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to; expected YYYY-MM-DD")
		return
	}

	path, err := s.exporter.ExportRequests(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"file": path})
}

// shouldRetry reports whether a write should be repeated after losing a
// version race. Only one retry is ever attempted.
func (s *HTTPServer) shouldRetry(err error) bool {
	return s.booking.RetryOnConflict && errors.Is(err, database.ErrConcurrentModification)
}

// writeServiceError maps domain errors onto HTTP status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "request not found")
	case errors.Is(err, database.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, database.ErrNoRoomAvailable):
		metrics.IncAllocationFailure()
		writeError(w, http.StatusConflict, "no room available for the requested stay")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "request was modified concurrently, retry")
	case errors.Is(err, models.ErrSameStatus),
		errors.Is(err, models.ErrTransitionDenied),
		errors.Is(err, models.ErrInvalidStatus):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrValidation),
		errors.Is(err, models.ErrInvalidDates),
		errors.Is(err, models.ErrNoGuests):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func listOptionsFromQuery(r *http.Request) domain.ListOptions {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return domain.ListOptions{
		Status:     strings.TrimSpace(q.Get("status")),
		SearchTerm: strings.TrimSpace(q.Get("search")),
		Page:       page,
		PageSize:   pageSize,
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
