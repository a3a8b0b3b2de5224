package api

import "github.com/cadencelab/cadence/internal/services"

type scheduleStoreAdapter struct {
	store Store
}

func newScheduleStoreAdapter(store Store) services.ScheduleStore {
	return &scheduleStoreAdapter{store: store}
}

func (a *scheduleStoreAdapter) InsertSchedule(sc *services.ResearchSchedule) (*services.ResearchSchedule, error) {
	a.store.AddSchedule(fromServiceSchedule(sc))
	return sc, nil
}

func (a *scheduleStoreAdapter) GetSchedule(id string) (*services.ResearchSchedule, error) {
	return toServiceSchedule(a.store.GetSchedule(id)), nil
}

func (a *scheduleStoreAdapter) GetActiveSchedule(participantID string) (*services.ResearchSchedule, error) {
	return toServiceSchedule(a.store.GetActiveSchedule(participantID)), nil
}

func (a *scheduleStoreAdapter) UpdateSchedule(sc *services.ResearchSchedule) error {
	if !a.store.UpdateSchedule(fromServiceSchedule(sc)) {
		return services.NewNotFoundError("schedule not found")
	}
	return nil
}

func (a *scheduleStoreAdapter) ActivateSchedule(id string) (bool, error) {
	return a.store.ActivateSchedule(id), nil
}

func (a *scheduleStoreAdapter) DeactivateSchedule(id string) (bool, error) {
	return a.store.DeactivateSchedule(id), nil
}

func (a *scheduleStoreAdapter) ListSchedules(participantID string) ([]*services.ResearchSchedule, error) {
	return toServiceSchedules(a.store.ListSchedulesByParticipant(participantID)), nil
}

func (a *scheduleStoreAdapter) ListAllSchedules() ([]*services.ResearchSchedule, error) {
	return toServiceSchedules(a.store.ListAllSchedules()), nil
}

func (a *scheduleStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(AuditEntry{Time: entry.Time, Actor: entry.Actor, Action: entry.Action, Target: entry.Target, Note: entry.Note})
}

var _ services.ScheduleStore = (*scheduleStoreAdapter)(nil)

func toServiceSchedule(sc *Schedule) *services.ResearchSchedule {
	if sc == nil {
		return nil
	}
	return &services.ResearchSchedule{
		ID:                      sc.ID,
		ParticipantID:           sc.ParticipantID,
		StartDate:               sc.StartDate,
		EndDate:                 sc.EndDate,
		TotalWeeks:              sc.TotalWeeks,
		ActiveWeekdays:          append([]int(nil), sc.ActiveWeekdays...),
		SessionDurationMinutes:  sc.SessionDurationMinutes,
		MusicFrequency:          sc.MusicFrequency,
		MusicFrequencyUnit:      services.FrequencyUnit(sc.MusicFrequencyUnit),
		MusicOccurrenceSize:     sc.MusicOccurrenceSize,
		SurveyFrequency:         sc.SurveyFrequency,
		SurveyFrequencyUnit:     services.FrequencyUnit(sc.SurveyFrequencyUnit),
		SurveyOccurrenceSize:    sc.SurveyOccurrenceSize,
		SelectedMusicCatalogIDs: append([]string(nil), sc.SelectedMusicCatalogIDs...),
		ActiveSurveyCatalogIDs:  append([]string(nil), sc.ActiveSurveyCatalogIDs...),
		IsActive:                sc.IsActive,
		TotalExpectedSessions:   sc.TotalExpectedSessions,
		CreatedAt:               sc.CreatedAt,
		UpdatedAt:               sc.UpdatedAt,
	}
}

func toServiceSchedules(list []*Schedule) []*services.ResearchSchedule {
	out := make([]*services.ResearchSchedule, 0, len(list))
	for _, sc := range list {
		out = append(out, toServiceSchedule(sc))
	}
	return out
}

func fromServiceSchedule(sc *services.ResearchSchedule) *Schedule {
	return &Schedule{
		ID:                      sc.ID,
		ParticipantID:           sc.ParticipantID,
		StartDate:               sc.StartDate,
		EndDate:                 sc.EndDate,
		TotalWeeks:              sc.TotalWeeks,
		ActiveWeekdays:          append([]int(nil), sc.ActiveWeekdays...),
		SessionDurationMinutes:  sc.SessionDurationMinutes,
		MusicFrequency:          sc.MusicFrequency,
		MusicFrequencyUnit:      string(sc.MusicFrequencyUnit),
		MusicOccurrenceSize:     sc.MusicOccurrenceSize,
		SurveyFrequency:         sc.SurveyFrequency,
		SurveyFrequencyUnit:     string(sc.SurveyFrequencyUnit),
		SurveyOccurrenceSize:    sc.SurveyOccurrenceSize,
		SelectedMusicCatalogIDs: append([]string(nil), sc.SelectedMusicCatalogIDs...),
		ActiveSurveyCatalogIDs:  append([]string(nil), sc.ActiveSurveyCatalogIDs...),
		IsActive:                sc.IsActive,
		TotalExpectedSessions:   sc.TotalExpectedSessions,
		CreatedAt:               sc.CreatedAt,
		UpdatedAt:               sc.UpdatedAt,
	}
}
