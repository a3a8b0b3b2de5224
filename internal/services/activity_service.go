package services

import (
	"strings"
	"time"
)

type ActivityStore interface {
	InsertActivity(rec *ActivityRecord) (*ActivityRecord, error)
	ListActivity(participantID string, from, to time.Time) ([]*ActivityRecord, error)
	GetActiveSchedule(participantID string) (*ResearchSchedule, error)
	AddAudit(entry AuditEntry)
}

// ActivityService is the ledger write path. Records are immutable once
// written; the engine only ever reads them back.
type ActivityService struct {
	store ActivityStore
	now   func() time.Time
}

func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordSession appends a music-session record. A started-but-unfinished
// session is recorded with completed=false and never counts toward a quota.
// The catalog reference must belong to the active schedule's selection.
func (s *ActivityService) RecordSession(participantID, catalogRef string, completed bool, onDate time.Time) (*ActivityRecord, error) {
	sc, err := s.requireActiveSchedule(participantID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(catalogRef) == "" {
		return nil, NewInvalidError("catalog_ref required")
	}
	if !containsString(sc.SelectedMusicCatalogIDs, catalogRef) {
		return nil, NewInvalidError("catalog_ref not in schedule's music selection")
	}
	rec := &ActivityRecord{
		ID:            shortID(12),
		ParticipantID: participantID,
		Kind:          KindMusicSession,
		OccurredOn:    DateOnly(onDate),
		Completed:     completed,
		CatalogRef:    catalogRef,
		CreatedAt:     s.now(),
	}
	created, err := s.store.InsertActivity(rec)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = rec
	}
	s.store.AddAudit(AuditEntry{Time: rec.CreatedAt, Actor: participantID, Action: "record_session", Target: rec.ID, Note: catalogRef})
	return created, nil
}

// RecordSurveyResponse appends a survey-completion record. There is no
// "started" state for surveys; existence of the record implies completion.
func (s *ActivityService) RecordSurveyResponse(participantID, catalogRef string, onDate time.Time) (*ActivityRecord, error) {
	if _, err := s.requireActiveSchedule(participantID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(catalogRef) == "" {
		return nil, NewInvalidError("catalog_ref required")
	}
	rec := &ActivityRecord{
		ID:            shortID(12),
		ParticipantID: participantID,
		Kind:          KindSurveyResponse,
		OccurredOn:    DateOnly(onDate),
		Completed:     true,
		CatalogRef:    catalogRef,
		CreatedAt:     s.now(),
	}
	created, err := s.store.InsertActivity(rec)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = rec
	}
	s.store.AddAudit(AuditEntry{Time: rec.CreatedAt, Actor: participantID, Action: "record_survey", Target: rec.ID, Note: catalogRef})
	return created, nil
}

func (s *ActivityService) ListActivity(participantID string, from, to time.Time) ([]*ActivityRecord, error) {
	if participantID == "" {
		return nil, NewInvalidError("participant_id required")
	}
	return s.store.ListActivity(participantID, DateOnly(from), DateOnly(to))
}

func (s *ActivityService) requireActiveSchedule(participantID string) (*ResearchSchedule, error) {
	if strings.TrimSpace(participantID) == "" {
		return nil, NewInvalidError("participant_id required")
	}
	sc, err := s.store.GetActiveSchedule(participantID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, NewNotFoundError("no active schedule for participant")
	}
	return sc, nil
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
