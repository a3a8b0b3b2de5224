package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cadencelab/cadence/internal/metrics"
	"github.com/cadencelab/cadence/internal/middleware"
	"github.com/cadencelab/cadence/internal/services"
)

type Router struct {
	store       Store
	schedules   *services.ScheduleService
	activity    *services.ActivityService
	eligibility *services.EligibilityService
	progress    *services.ProgressService
	exports     *services.ExportService
	auth        *services.AuthService
	now         func() time.Time
}

func NewRouter(store Store) *Router {
	engine := newActivityStoreAdapter(store)
	return &Router{
		store:       store,
		schedules:   services.NewScheduleService(newScheduleStoreAdapter(store)),
		activity:    services.NewActivityService(engine),
		eligibility: services.NewEligibilityService(engine),
		progress:    services.NewProgressService(engine),
		exports:     services.NewExportService(engine),
		auth:        services.NewAuthService(newAuthStoreAdapter(store), middleware.SignToken),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)     // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)           // POST
	mux.HandleFunc("/api/schedules", rt.handleSchedules)        // POST, GET
	mux.HandleFunc("/api/schedules/", rt.handleScheduleScoped)  // GET/PATCH {id}, POST {id}/activate|deactivate
	mux.HandleFunc("/api/activity/sessions", rt.handleSessions) // POST
	mux.HandleFunc("/api/activity/surveys", rt.handleSurveys)   // POST
	mux.HandleFunc("/api/eligibility", rt.handleEligibility)    // GET
	mux.HandleFunc("/api/progress", rt.handleProgress)          // GET
	mux.HandleFunc("/api/export", rt.handleExport)              // GET
}

// POST /api/auth/register {email, password}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "email": res.Email})
}

// POST /api/auth/login {email, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "email": res.Email})
}

// POST /api/schedules creates a schedule (researcher only).
// GET  /api/schedules?participant_id= lists schedules (researcher only).
func (rt *Router) handleSchedules(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.requireActor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var in services.CreateScheduleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sc, err := rt.schedules.CreateSchedule(&in, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	case http.MethodGet:
		list, err := rt.schedules.ListSchedules(r.URL.Query().Get("participant_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schedules": list})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET   /api/schedules/{id}
// PATCH /api/schedules/{id}            partial update
// POST  /api/schedules/{id}/activate   make it the single active schedule
// POST  /api/schedules/{id}/deactivate
func (rt *Router) handleScheduleScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.requireActor(w, r)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/schedules/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			sc, err := rt.schedules.GetSchedule(id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if sc == nil {
				http.Error(w, "schedule not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, sc)
		case http.MethodPatch, http.MethodPut:
			var raw map[string]any
			if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			sc, err := rt.schedules.UpdateSchedule(id, raw, actor)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, sc)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		var err error
		switch parts[1] {
		case "activate":
			err = rt.schedules.Activate(id, actor)
		case "deactivate":
			err = rt.schedules.Deactivate(id, actor)
		default:
			http.NotFound(w, r)
			return
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	http.NotFound(w, r)
}

// POST /api/activity/sessions {participant_id, catalog_ref, completed, date?}
// Written by the playback collaborator when a listening session ends.
func (rt *Router) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ParticipantID string `json:"participant_id"`
		CatalogRef    string `json:"catalog_ref"`
		Completed     bool   `json:"completed"`
		Date          string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	onDate, ok := rt.parseDateParam(w, req.Date)
	if !ok {
		return
	}
	rec, err := rt.activity.RecordSession(req.ParticipantID, req.CatalogRef, req.Completed, onDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.ActivityRecorded(string(services.KindMusicSession))
	writeJSON(w, http.StatusOK, rec)
}

// POST /api/activity/surveys {participant_id, catalog_ref, date?}
func (rt *Router) handleSurveys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ParticipantID string `json:"participant_id"`
		CatalogRef    string `json:"catalog_ref"`
		Date          string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	onDate, ok := rt.parseDateParam(w, req.Date)
	if !ok {
		return
	}
	rec, err := rt.activity.RecordSurveyResponse(req.ParticipantID, req.CatalogRef, onDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.ActivityRecorded(string(services.KindSurveyResponse))
	writeJSON(w, http.StatusOK, rec)
}

// GET /api/eligibility?participant_id=&date=YYYY-MM-DD
// The reference date is an explicit parameter so dashboards and tests can ask
// about any day, not just the server's wall clock.
func (rt *Router) handleEligibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	refDate, ok := rt.parseDateParam(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	res, err := rt.eligibility.EvaluateEligibility(r.URL.Query().Get("participant_id"), refDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.EligibilityEvaluated(string(res.Reason))
	writeJSON(w, http.StatusOK, res)
}

// GET /api/progress?participant_id=&as_of=YYYY-MM-DD
func (rt *Router) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	asOf, ok := rt.parseDateParam(w, r.URL.Query().Get("as_of"))
	if !ok {
		return
	}
	report, err := rt.progress.ProgressReport(r.URL.Query().Get("participant_id"), asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /api/export?participant_id=&format=progress|activity&as_of= (researcher only)
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.requireActor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pid := r.URL.Query().Get("participant_id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "progress"
	}
	var (
		b        []byte
		err      error
		filename string
	)
	switch format {
	case "progress":
		asOf, ok := rt.parseDateParam(w, r.URL.Query().Get("as_of"))
		if !ok {
			return
		}
		b, err = rt.exports.ProgressCSV(pid, asOf, actor)
		filename = "progress.csv"
	case "activity":
		b, err = rt.exports.ActivityCSV(pid, actor)
		filename = "activity.csv"
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(b)
}

// parseDateParam parses an optional YYYY-MM-DD value, defaulting to today.
func (rt *Router) parseDateParam(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return rt.now(), true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return d, true
}

func (rt *Router) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return email, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		http.Error(w, se.Message, statusForCode(se.Code))
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func statusForCode(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
