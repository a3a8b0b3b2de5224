package services

import "time"

type ExportStore interface {
	GetActiveSchedule(participantID string) (*ResearchSchedule, error)
	ListActivity(participantID string, from, to time.Time) ([]*ActivityRecord, error)
	AddAudit(entry AuditEntry)
}

// ExportService produces CSV downloads for researchers: the weekly progress
// report or the raw activity ledger of one participant.
type ExportService struct {
	store ExportStore
	now   func() time.Time
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ExportService) ProgressCSV(participantID string, asOf time.Time, actor string) ([]byte, error) {
	sc, records, err := s.fetch(participantID)
	if err != nil {
		return nil, err
	}
	report := Aggregate(sc, records, asOf)
	b, err := ExportProgressCSV(report)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "export_progress", Target: participantID})
	return b, nil
}

func (s *ExportService) ActivityCSV(participantID, actor string) ([]byte, error) {
	_, records, err := s.fetch(participantID)
	if err != nil {
		return nil, err
	}
	b, err := ExportActivityCSV(records)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "export_activity", Target: participantID})
	return b, nil
}

func (s *ExportService) fetch(participantID string) (*ResearchSchedule, []*ActivityRecord, error) {
	if participantID == "" {
		return nil, nil, NewInvalidError("participant_id required")
	}
	sc, err := s.store.GetActiveSchedule(participantID)
	if err != nil {
		return nil, nil, err
	}
	if sc == nil {
		return nil, nil, NewNotFoundError("no active schedule for participant")
	}
	records, err := s.store.ListActivity(participantID, sc.StartDate, sc.EndDate)
	if err != nil {
		return nil, nil, err
	}
	return sc, records, nil
}
