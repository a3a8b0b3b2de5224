package api

import (
	"time"

	"github.com/cadencelab/cadence/internal/services"
)

// activityStoreAdapter backs the ledger write path and the read-only engine
// services (eligibility, progress, export) with the shared Store.
type activityStoreAdapter struct {
	store Store
}

func newActivityStoreAdapter(store Store) *activityStoreAdapter {
	return &activityStoreAdapter{store: store}
}

func (a *activityStoreAdapter) InsertActivity(rec *services.ActivityRecord) (*services.ActivityRecord, error) {
	a.store.AddActivity(&ActivityRecord{
		ID:            rec.ID,
		ParticipantID: rec.ParticipantID,
		Kind:          string(rec.Kind),
		OccurredOn:    rec.OccurredOn,
		Completed:     rec.Completed,
		CatalogRef:    rec.CatalogRef,
		CreatedAt:     rec.CreatedAt,
	})
	return rec, nil
}

func (a *activityStoreAdapter) ListActivity(participantID string, from, to time.Time) ([]*services.ActivityRecord, error) {
	records := a.store.ListActivity(participantID, from, to)
	out := make([]*services.ActivityRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, &services.ActivityRecord{
			ID:            rec.ID,
			ParticipantID: rec.ParticipantID,
			Kind:          services.ActivityKind(rec.Kind),
			OccurredOn:    rec.OccurredOn,
			Completed:     rec.Completed,
			CatalogRef:    rec.CatalogRef,
			CreatedAt:     rec.CreatedAt,
		})
	}
	return out, nil
}

func (a *activityStoreAdapter) GetActiveSchedule(participantID string) (*services.ResearchSchedule, error) {
	return toServiceSchedule(a.store.GetActiveSchedule(participantID)), nil
}

func (a *activityStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(AuditEntry{Time: entry.Time, Actor: entry.Actor, Action: entry.Action, Target: entry.Target, Note: entry.Note})
}

var (
	_ services.ActivityStore    = (*activityStoreAdapter)(nil)
	_ services.EligibilityStore = (*activityStoreAdapter)(nil)
	_ services.ProgressStore    = (*activityStoreAdapter)(nil)
	_ services.ExportStore      = (*activityStoreAdapter)(nil)
)
