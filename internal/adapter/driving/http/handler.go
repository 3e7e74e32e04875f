// Package httphandler is the HTTP driving adapter serving the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/creditwatch/creditwatch/internal/application"
	"github.com/creditwatch/creditwatch/internal/domain/model"
	"github.com/creditwatch/creditwatch/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	subjects  driven.SubjectStore
	snapshots driven.SnapshotStore
	pulls     driven.PullStore
	pullSvc   *application.PullService
	analysis  *application.AnalysisService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	subjects driven.SubjectStore,
	snapshots driven.SnapshotStore,
	pulls driven.PullStore,
	pullSvc *application.PullService,
	analysis *application.AnalysisService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		subjects:  subjects,
		snapshots: snapshots,
		pulls:     pulls,
		pullSvc:   pullSvc,
		analysis:  analysis,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/subjects", h.AddSubject)
	mux.HandleFunc("GET /api/v1/subjects/{id}", h.GetSubject)
	mux.HandleFunc("POST /api/v1/subjects/{id}/pulls", h.PullAll)
	mux.HandleFunc("POST /api/v1/subjects/{id}/pulls/{bureau}", h.PullOne)
	mux.HandleFunc("GET /api/v1/subjects/{id}/pulls", h.PullHistory)
	mux.HandleFunc("GET /api/v1/subjects/{id}/snapshots", h.LatestSnapshots)
	mux.HandleFunc("GET /api/v1/subjects/{id}/changes", h.ChangeHistory)
	mux.HandleFunc("GET /api/v1/subjects/{id}/analysis", h.Analysis)
	mux.HandleFunc("GET /api/v1/bureaus", h.Bureaus)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// AddSubject registers a new subject profile.
func (h *Handler) AddSubject(w http.ResponseWriter, r *http.Request) {
	var req AddSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.DOB == "" || req.NationalIDLast4 == "" {
		writeError(w, http.StatusBadRequest, "first_name, last_name, dob and national_id_last4 are required")
		return
	}
	if len(req.NationalIDLast4) != 4 {
		writeError(w, http.StatusBadRequest, "national_id_last4 must be exactly 4 digits")
		return
	}

	subject := model.Subject{
		ID: uuid.NewString(),
		Identity: model.SubjectIdentity{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			DOB:             req.DOB,
			NationalIDLast4: req.NationalIDLast4,
			Address: model.Address{
				Street: req.Street,
				City:   req.City,
				State:  req.State,
				Zip:    req.Zip,
			},
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := h.subjects.Add(r.Context(), subject); err != nil {
		h.logger.Error("failed to add subject", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toSubjectResponse(subject))
}

// GetSubject returns a single subject profile.
func (h *Handler) GetSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err, "get subject")
		return
	}
	writeJSON(w, http.StatusOK, toSubjectResponse(subject))
}

// PullAll triggers concurrent pulls across all three bureaus.
func (h *Handler) PullAll(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")

	outcomes, err := h.pullSvc.PullAll(r.Context(), subjectID, requestedBy(r))
	if err != nil {
		h.writeDomainError(w, err, "pull all bureaus")
		return
	}

	// Per-bureau failures are reported inside the outcome map, not as a
	// request-level error. 207 signals a mixed result.
	status := http.StatusOK
	for _, outcome := range outcomes {
		if outcome.Status == model.PullFailed {
			status = http.StatusMultiStatus
			break
		}
	}
	writeJSON(w, status, outcomes)
}

// PullOne triggers a pull from a single bureau.
func (h *Handler) PullOne(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")

	bureau, err := model.ParseBureau(r.PathValue("bureau"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.pullSvc.PullOne(r.Context(), subjectID, bureau, requestedBy(r))
	if err != nil {
		var notFound *model.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		// The pull record carries the failure; return the outcome so the
		// caller sees pull_id and error together.
		writeJSON(w, http.StatusBadGateway, outcome)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// PullHistory returns all pull attempts for a subject, newest first.
func (h *Handler) PullHistory(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")

	if _, err := h.subjects.Get(r.Context(), subjectID); err != nil {
		h.writeDomainError(w, err, "get subject")
		return
	}

	records, err := h.pulls.GetBySubject(r.Context(), subjectID)
	if err != nil {
		h.logger.Error("failed to list pulls", "subject_id", subjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PullRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toPullRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// LatestSnapshots returns the latest snapshot per bureau, or a single
// bureau's latest when ?bureau= is given.
func (h *Handler) LatestSnapshots(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")

	if _, err := h.subjects.Get(r.Context(), subjectID); err != nil {
		h.writeDomainError(w, err, "get subject")
		return
	}

	if name := r.URL.Query().Get("bureau"); name != "" {
		bureau, err := model.ParseBureau(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		snap, err := h.snapshots.Latest(r.Context(), subjectID, bureau)
		if err != nil {
			h.logger.Error("failed to get snapshot", "subject_id", subjectID, "bureau", bureau, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if snap == nil {
			writeError(w, http.StatusNotFound, "no snapshots for bureau "+name)
			return
		}
		writeJSON(w, http.StatusOK, toSnapshotResponse(*snap))
		return
	}

	all, err := h.snapshots.LatestAll(r.Context(), subjectID)
	if err != nil {
		h.logger.Error("failed to list snapshots", "subject_id", subjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make(map[string]SnapshotResponse, len(all))
	for bureau, snap := range all {
		resp[string(bureau)] = toSnapshotResponse(snap)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ChangeHistory returns detected changes for a subject, filterable by
// bureau, category, and severity.
func (h *Handler) ChangeHistory(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")

	if _, err := h.subjects.Get(r.Context(), subjectID); err != nil {
		h.writeDomainError(w, err, "get subject")
		return
	}

	filter, err := parseChangeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changes, err := h.snapshots.ChangeHistory(r.Context(), subjectID, filter)
	if err != nil {
		h.logger.Error("failed to list changes", "subject_id", subjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ChangeResponse, 0, len(changes))
	for _, c := range changes {
		resp = append(resp, toChangeResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Analysis returns the cross-bureau reconciliation for a subject.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")

	if _, err := h.subjects.Get(r.Context(), subjectID); err != nil {
		h.writeDomainError(w, err, "get subject")
		return
	}

	result, err := h.analysis.Analyze(r.Context(), subjectID)
	if err != nil {
		h.logger.Error("failed to analyze", "subject_id", subjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Bureaus reports each bureau's live/sandbox availability.
func (h *Handler) Bureaus(w http.ResponseWriter, _ *http.Request) {
	availability := h.pullSvc.Availability()

	resp := make([]BureauResponse, 0, len(availability))
	for _, a := range availability {
		resp = append(resp, BureauResponse{
			Bureau:  string(a.Bureau),
			Live:    a.Live,
			Sandbox: a.Sandbox,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeDomainError maps typed domain errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, op string) {
	var notFound *model.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, notFound.Error())
		return
	}

	var authErr *model.AuthenticationError
	if errors.As(err, &authErr) {
		writeError(w, http.StatusBadGateway, authErr.Error())
		return
	}

	var upstreamErr *model.UpstreamError
	if errors.As(err, &upstreamErr) {
		writeError(w, http.StatusBadGateway, upstreamErr.Error())
		return
	}

	h.logger.Error("failed to "+op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// parseChangeFilter builds a ChangeFilter from query parameters, rejecting
// unknown enum values.
func parseChangeFilter(r *http.Request) (model.ChangeFilter, error) {
	var filter model.ChangeFilter
	q := r.URL.Query()

	if name := q.Get("bureau"); name != "" {
		bureau, err := model.ParseBureau(name)
		if err != nil {
			return model.ChangeFilter{}, err
		}
		filter.Bureau = bureau
	}
	if category := q.Get("category"); category != "" {
		filter.Category = model.ChangeCategory(category)
	}
	if severity := q.Get("severity"); severity != "" {
		filter.Severity = model.Severity(severity)
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return model.ChangeFilter{}, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}

	return filter, nil
}

// requestedBy identifies the caller for the pull audit trail. Falls back to
// "api" when no identity header is present.
func requestedBy(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Requested-By")); v != "" {
		return v
	}
	return "api"
}
