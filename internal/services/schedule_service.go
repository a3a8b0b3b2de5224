package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

type ScheduleStore interface {
	InsertSchedule(sc *ResearchSchedule) (*ResearchSchedule, error)
	GetSchedule(id string) (*ResearchSchedule, error)
	GetActiveSchedule(participantID string) (*ResearchSchedule, error)
	UpdateSchedule(sc *ResearchSchedule) error
	// ActivateSchedule sets the schedule active and clears any previously
	// active schedule for the same participant in one transaction.
	ActivateSchedule(id string) (bool, error)
	DeactivateSchedule(id string) (bool, error)
	ListSchedules(participantID string) ([]*ResearchSchedule, error)
	ListAllSchedules() ([]*ResearchSchedule, error)
	AddAudit(entry AuditEntry)
}

// ScheduleService owns the schedule lifecycle: creation, patch-style updates
// and activation. Every write revalidates invariants and recomputes derived
// fields; the store enforces the single-active-schedule invariant.
type ScheduleService struct {
	store ScheduleStore
	now   func() time.Time
}

func NewScheduleService(store ScheduleStore) *ScheduleService {
	return &ScheduleService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateScheduleInput carries the caller-settable schedule fields. EndDate and
// TotalExpectedSessions are always derived, never taken from the caller.
type CreateScheduleInput struct {
	ParticipantID           string        `json:"participant_id"`
	StartDate               string        `json:"start_date"` // "2006-01-02"
	TotalWeeks              int           `json:"total_weeks"`
	ActiveWeekdays          []int         `json:"active_weekdays"`
	SessionDurationMinutes  int           `json:"session_duration_minutes"`
	MusicFrequency          int           `json:"music_frequency"`
	MusicFrequencyUnit      FrequencyUnit `json:"music_frequency_unit"`
	MusicOccurrenceSize     int           `json:"music_occurrence_size"`
	SurveyFrequency         int           `json:"survey_frequency"`
	SurveyFrequencyUnit     FrequencyUnit `json:"survey_frequency_unit"`
	SurveyOccurrenceSize    int           `json:"survey_occurrence_size"`
	SelectedMusicCatalogIDs []string      `json:"selected_music_catalog_ids"`
	ActiveSurveyCatalogIDs  []string      `json:"active_survey_catalog_ids"`
	Activate                bool          `json:"activate"`
}

func (s *ScheduleService) CreateSchedule(in *CreateScheduleInput, actor string) (*ResearchSchedule, error) {
	if in == nil {
		return nil, NewInvalidError("schedule required")
	}
	if strings.TrimSpace(in.ParticipantID) == "" {
		return nil, NewInvalidError("participant_id required")
	}
	start, err := parseDate(in.StartDate)
	if err != nil {
		return nil, NewInvalidError("start_date must be YYYY-MM-DD")
	}
	sc := &ResearchSchedule{
		ID:                      shortID(8),
		ParticipantID:           in.ParticipantID,
		StartDate:               start,
		TotalWeeks:              in.TotalWeeks,
		ActiveWeekdays:          normalizeWeekdays(in.ActiveWeekdays),
		SessionDurationMinutes:  in.SessionDurationMinutes,
		MusicFrequency:          in.MusicFrequency,
		MusicFrequencyUnit:      in.MusicFrequencyUnit,
		MusicOccurrenceSize:     defaultOne(in.MusicOccurrenceSize),
		SurveyFrequency:         in.SurveyFrequency,
		SurveyFrequencyUnit:     in.SurveyFrequencyUnit,
		SurveyOccurrenceSize:    defaultOne(in.SurveyOccurrenceSize),
		SelectedMusicCatalogIDs: in.SelectedMusicCatalogIDs,
		ActiveSurveyCatalogIDs:  in.ActiveSurveyCatalogIDs,
	}
	deriveScheduleFields(sc)
	if err := validateSchedule(sc); err != nil {
		return nil, err
	}
	now := s.now()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	created, err := s.store.InsertSchedule(sc)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = sc
	}
	if in.Activate {
		if _, err := s.store.ActivateSchedule(created.ID); err != nil {
			return nil, err
		}
		created.IsActive = true
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor, Action: "create_schedule", Target: created.ID, Note: created.ParticipantID})
	return created, nil
}

// UpdateSchedule builds a new validated schedule from the stored one and a
// partial patch, recomputing all derived fields in one place. The whole patch
// is rejected if the result fails invariants; nothing is mutated piecemeal.
// Activation state is not patchable here; use Activate/Deactivate.
func (s *ScheduleService) UpdateSchedule(id string, raw map[string]any, actor string) (*ResearchSchedule, error) {
	old, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, NewNotFoundError("schedule not found")
	}
	if v, ok := raw["is_active"]; ok {
		if vb, ok2 := v.(bool); ok2 && vb != old.IsActive {
			return nil, NewInvalidError("is_active cannot be patched; use activate/deactivate")
		}
	}
	updated := *old
	updated.ActiveWeekdays = append([]int(nil), old.ActiveWeekdays...)
	updated.SelectedMusicCatalogIDs = append([]string(nil), old.SelectedMusicCatalogIDs...)
	updated.ActiveSurveyCatalogIDs = append([]string(nil), old.ActiveSurveyCatalogIDs...)

	if v, ok := raw["start_date"].(string); ok {
		start, perr := parseDate(v)
		if perr != nil {
			return nil, NewInvalidError("start_date must be YYYY-MM-DD")
		}
		updated.StartDate = start
	}
	if v, ok := raw["total_weeks"].(float64); ok {
		updated.TotalWeeks = int(v)
	}
	if v, ok := raw["active_weekdays"]; ok {
		days, perr := parseIntSlice(v)
		if perr != nil {
			return nil, NewInvalidError("active_weekdays must be integers 0-6")
		}
		updated.ActiveWeekdays = normalizeWeekdays(days)
	}
	if v, ok := raw["session_duration_minutes"].(float64); ok {
		updated.SessionDurationMinutes = int(v)
	}
	if v, ok := raw["music_frequency"].(float64); ok {
		updated.MusicFrequency = int(v)
	}
	if v, ok := raw["music_frequency_unit"].(string); ok {
		updated.MusicFrequencyUnit = FrequencyUnit(v)
	}
	if v, ok := raw["music_occurrence_size"].(float64); ok {
		updated.MusicOccurrenceSize = int(v)
	}
	if v, ok := raw["survey_frequency"].(float64); ok {
		updated.SurveyFrequency = int(v)
	}
	if v, ok := raw["survey_frequency_unit"].(string); ok {
		updated.SurveyFrequencyUnit = FrequencyUnit(v)
	}
	if v, ok := raw["survey_occurrence_size"].(float64); ok {
		updated.SurveyOccurrenceSize = int(v)
	}
	if v, ok := raw["selected_music_catalog_ids"]; ok {
		updated.SelectedMusicCatalogIDs = parseStringSlice(v)
	}
	if v, ok := raw["active_survey_catalog_ids"]; ok {
		updated.ActiveSurveyCatalogIDs = parseStringSlice(v)
	}

	deriveScheduleFields(&updated)
	if err := validateSchedule(&updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateSchedule(&updated); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: updated.UpdatedAt, Actor: actor, Action: "update_schedule", Target: id})
	return &updated, nil
}

// Activate makes the schedule the participant's single active one. The store
// deactivates the prior active schedule in the same transaction.
func (s *ScheduleService) Activate(id, actor string) error {
	sc, err := s.store.GetSchedule(id)
	if err != nil {
		return err
	}
	if sc == nil {
		return NewNotFoundError("schedule not found")
	}
	ok, err := s.store.ActivateSchedule(id)
	if err != nil {
		return err
	}
	if !ok {
		return NewConflictError("activation failed")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "activate_schedule", Target: id, Note: sc.ParticipantID})
	return nil
}

func (s *ScheduleService) Deactivate(id, actor string) error {
	ok, err := s.store.DeactivateSchedule(id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("schedule not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "deactivate_schedule", Target: id})
	return nil
}

func (s *ScheduleService) GetSchedule(id string) (*ResearchSchedule, error) {
	return s.store.GetSchedule(id)
}

func (s *ScheduleService) GetActiveSchedule(participantID string) (*ResearchSchedule, error) {
	if participantID == "" {
		return nil, NewInvalidError("participant_id required")
	}
	return s.store.GetActiveSchedule(participantID)
}

func (s *ScheduleService) ListSchedules(participantID string) ([]*ResearchSchedule, error) {
	if participantID == "" {
		return s.store.ListAllSchedules()
	}
	return s.store.ListSchedules(participantID)
}

// deriveScheduleFields recomputes EndDate and TotalExpectedSessions. EndDate
// is inclusive: the window spans exactly TotalWeeks*7 calendar days.
func deriveScheduleFields(sc *ResearchSchedule) {
	sc.StartDate = DateOnly(sc.StartDate)
	sc.EndDate = sc.StartDate.AddDate(0, 0, sc.TotalWeeks*7-1)
	sc.TotalExpectedSessions = sc.TotalWeeks * len(sc.ActiveWeekdays)
}

func validateSchedule(sc *ResearchSchedule) error {
	if sc.TotalWeeks < 1 {
		return NewInvalidError("total_weeks must be >= 1")
	}
	if len(sc.ActiveWeekdays) == 0 {
		return NewInvalidError("active_weekdays must not be empty")
	}
	for _, d := range sc.ActiveWeekdays {
		if d < 0 || d > 6 {
			return NewInvalidError(fmt.Sprintf("active weekday %d out of range 0-6", d))
		}
	}
	if sc.SessionDurationMinutes <= 0 {
		return NewInvalidError("session_duration_minutes must be positive")
	}
	if sc.MusicFrequency < 1 || sc.MusicOccurrenceSize < 1 {
		return NewInvalidError("music frequency and occurrence size must be >= 1")
	}
	if sc.SurveyFrequency < 1 || sc.SurveyOccurrenceSize < 1 {
		return NewInvalidError("survey frequency and occurrence size must be >= 1")
	}
	switch sc.MusicFrequencyUnit {
	case UnitDaily, UnitWeekly, UnitMonthly:
	default:
		return NewInvalidError("music_frequency_unit must be daily, weekly or monthly")
	}
	switch sc.SurveyFrequencyUnit {
	case UnitDaily, UnitWeekly:
	default:
		// monthly surveys are not supported; see the frequency resolver.
		return NewInvalidError("survey_frequency_unit must be daily or weekly")
	}
	if len(sc.SelectedMusicCatalogIDs) == 0 {
		return NewInvalidError("selected_music_catalog_ids must not be empty")
	}
	return nil
}

// normalizeWeekdays deduplicates and sorts without rejecting; range checks
// belong to validateSchedule.
func normalizeWeekdays(days []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(days))
	for d := 0; d <= 6; d++ {
		for _, v := range days {
			if v == d && !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	// keep out-of-range values so validation can name them
	for _, v := range days {
		if v < 0 || v > 6 {
			out = append(out, v)
		}
	}
	return out
}

func defaultOne(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func parseIntSlice(raw any) ([]int, error) {
	switch t := raw.(type) {
	case []int:
		return t, nil
	case []any:
		out := make([]int, 0, len(t))
		for _, v := range t {
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("not a number: %v", v)
			}
			out = append(out, int(f))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a list: %v", raw)
	}
}

func parseStringSlice(raw any) []string {
	switch t := raw.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return nil
	}
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
