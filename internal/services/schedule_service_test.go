package services

import (
	"testing"
	"time"
)

type stubScheduleStore struct {
	schedules map[string]*ResearchSchedule
	audit     []AuditEntry
}

func newStubScheduleStore() *stubScheduleStore {
	return &stubScheduleStore{schedules: map[string]*ResearchSchedule{}}
}

func (s *stubScheduleStore) InsertSchedule(sc *ResearchSchedule) (*ResearchSchedule, error) {
	copy := *sc
	s.schedules[sc.ID] = &copy
	return &copy, nil
}

func (s *stubScheduleStore) GetSchedule(id string) (*ResearchSchedule, error) {
	if sc, ok := s.schedules[id]; ok {
		copy := *sc
		return &copy, nil
	}
	return nil, nil
}

func (s *stubScheduleStore) GetActiveSchedule(pid string) (*ResearchSchedule, error) {
	for _, sc := range s.schedules {
		if sc.ParticipantID == pid && sc.IsActive {
			copy := *sc
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *stubScheduleStore) UpdateSchedule(sc *ResearchSchedule) error {
	copy := *sc
	s.schedules[sc.ID] = &copy
	return nil
}

func (s *stubScheduleStore) ActivateSchedule(id string) (bool, error) {
	target, ok := s.schedules[id]
	if !ok {
		return false, nil
	}
	for _, sc := range s.schedules {
		if sc.ParticipantID == target.ParticipantID {
			sc.IsActive = false
		}
	}
	target.IsActive = true
	return true, nil
}

func (s *stubScheduleStore) DeactivateSchedule(id string) (bool, error) {
	if sc, ok := s.schedules[id]; ok {
		sc.IsActive = false
		return true, nil
	}
	return false, nil
}

func (s *stubScheduleStore) ListSchedules(pid string) ([]*ResearchSchedule, error) {
	out := []*ResearchSchedule{}
	for _, sc := range s.schedules {
		if sc.ParticipantID == pid {
			copy := *sc
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *stubScheduleStore) ListAllSchedules() ([]*ResearchSchedule, error) {
	out := []*ResearchSchedule{}
	for _, sc := range s.schedules {
		copy := *sc
		out = append(out, &copy)
	}
	return out, nil
}

func (s *stubScheduleStore) AddAudit(e AuditEntry) { s.audit = append(s.audit, e) }

func validCreateInput() *CreateScheduleInput {
	return &CreateScheduleInput{
		ParticipantID:           "P1",
		StartDate:               "2024-03-04",
		TotalWeeks:              4,
		ActiveWeekdays:          []int{1, 2, 3, 4, 5},
		SessionDurationMinutes:  20,
		MusicFrequency:          1,
		MusicFrequencyUnit:      UnitDaily,
		MusicOccurrenceSize:     1,
		SurveyFrequency:         3,
		SurveyFrequencyUnit:     UnitWeekly,
		SurveyOccurrenceSize:    1,
		SelectedMusicCatalogIDs: []string{"cat1"},
		Activate:                true,
	}
}

func TestCreateScheduleDerivesFields(t *testing.T) {
	store := newStubScheduleStore()
	svc := NewScheduleService(store)
	svc.now = func() time.Time { return time.Unix(0, 0).UTC() }

	sc, err := svc.CreateSchedule(validCreateInput(), "admin")
	if err != nil {
		t.Fatalf("CreateSchedule error: %v", err)
	}
	wantEnd := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if !sc.EndDate.Equal(wantEnd) {
		t.Fatalf("EndDate = %v, want %v (4 weeks inclusive)", sc.EndDate, wantEnd)
	}
	if sc.TotalExpectedSessions != 20 {
		t.Fatalf("TotalExpectedSessions = %d, want 20", sc.TotalExpectedSessions)
	}
	if !sc.IsActive {
		t.Fatalf("expected the created schedule to be activated")
	}
	if len(store.audit) == 0 {
		t.Fatalf("expected an audit entry")
	}
}

func TestCreateScheduleActivationReplacesPrior(t *testing.T) {
	store := newStubScheduleStore()
	svc := NewScheduleService(store)

	first, err := svc.CreateSchedule(validCreateInput(), "admin")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.CreateSchedule(validCreateInput(), "admin")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	active, err := store.GetActiveSchedule("P1")
	if err != nil {
		t.Fatalf("GetActiveSchedule: %v", err)
	}
	if active == nil || active.ID != second.ID {
		t.Fatalf("expected second schedule active, got %+v", active)
	}
	stale, _ := store.GetSchedule(first.ID)
	if stale.IsActive {
		t.Fatalf("prior schedule must be deactivated")
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	store := newStubScheduleStore()
	svc := NewScheduleService(store)

	cases := []struct {
		name   string
		mutate func(*CreateScheduleInput)
	}{
		{"missing participant", func(in *CreateScheduleInput) { in.ParticipantID = "" }},
		{"bad date", func(in *CreateScheduleInput) { in.StartDate = "03/04/2024" }},
		{"zero weeks", func(in *CreateScheduleInput) { in.TotalWeeks = 0 }},
		{"empty weekdays", func(in *CreateScheduleInput) { in.ActiveWeekdays = nil }},
		{"weekday out of range", func(in *CreateScheduleInput) { in.ActiveWeekdays = []int{1, 9} }},
		{"zero duration", func(in *CreateScheduleInput) { in.SessionDurationMinutes = 0 }},
		{"zero music frequency", func(in *CreateScheduleInput) { in.MusicFrequency = 0 }},
		{"monthly surveys", func(in *CreateScheduleInput) { in.SurveyFrequencyUnit = UnitMonthly }},
		{"unknown music unit", func(in *CreateScheduleInput) { in.MusicFrequencyUnit = "hourly" }},
		{"empty music catalogs", func(in *CreateScheduleInput) { in.SelectedMusicCatalogIDs = nil }},
	}
	for _, c := range cases {
		in := validCreateInput()
		c.mutate(in)
		if _, err := svc.CreateSchedule(in, "admin"); err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
			t.Fatalf("%s: expected invalid code, got %v", c.name, err)
		}
	}
	if len(store.schedules) != 0 {
		t.Fatalf("invalid schedules must not be stored")
	}
}

func TestUpdateScheduleRecomputesDerived(t *testing.T) {
	store := newStubScheduleStore()
	svc := NewScheduleService(store)
	sc, err := svc.CreateSchedule(validCreateInput(), "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateSchedule(sc.ID, map[string]any{
		"total_weeks":     float64(6),
		"active_weekdays": []any{float64(1), float64(3), float64(5)},
	}, "admin")
	if err != nil {
		t.Fatalf("UpdateSchedule error: %v", err)
	}
	wantEnd := sc.StartDate.AddDate(0, 0, 6*7-1)
	if !updated.EndDate.Equal(wantEnd) {
		t.Fatalf("EndDate not recomputed: %v want %v", updated.EndDate, wantEnd)
	}
	if updated.TotalExpectedSessions != 18 {
		t.Fatalf("TotalExpectedSessions = %d, want 18", updated.TotalExpectedSessions)
	}
}

func TestUpdateScheduleRejectsInvalidPatchWholesale(t *testing.T) {
	store := newStubScheduleStore()
	svc := NewScheduleService(store)
	sc, err := svc.CreateSchedule(validCreateInput(), "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.UpdateSchedule(sc.ID, map[string]any{
		"total_weeks":     float64(8),
		"active_weekdays": []any{},
	}, "admin")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	stored, _ := store.GetSchedule(sc.ID)
	if stored.TotalWeeks != 4 {
		t.Fatalf("a rejected patch must leave the schedule untouched, got weeks=%d", stored.TotalWeeks)
	}
}

func TestUpdateScheduleCannotPatchActivation(t *testing.T) {
	store := newStubScheduleStore()
	svc := NewScheduleService(store)
	sc, err := svc.CreateSchedule(validCreateInput(), "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateSchedule(sc.ID, map[string]any{"is_active": false}, "admin"); err == nil {
		t.Fatalf("expected is_active patch to be rejected")
	}
}

func TestUpdateScheduleNotFound(t *testing.T) {
	svc := NewScheduleService(newStubScheduleStore())
	_, err := svc.UpdateSchedule("missing", map[string]any{"total_weeks": float64(2)}, "admin")
	if err == nil {
		t.Fatalf("expected not found")
	}
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not_found code, got %v", err)
	}
}

func TestActivateDeactivate(t *testing.T) {
	store := newStubScheduleStore()
	svc := NewScheduleService(store)
	in := validCreateInput()
	in.Activate = false
	sc, err := svc.CreateSchedule(in, "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sc.IsActive {
		t.Fatalf("schedule should start inactive")
	}
	if err := svc.Activate(sc.ID, "admin"); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	active, _ := store.GetActiveSchedule("P1")
	if active == nil || active.ID != sc.ID {
		t.Fatalf("schedule not activated")
	}
	if err := svc.Deactivate(sc.ID, "admin"); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}
	if active, _ = store.GetActiveSchedule("P1"); active != nil {
		t.Fatalf("schedule still active after deactivation")
	}
	if err := svc.Activate("missing", "admin"); err == nil {
		t.Fatalf("expected not found for unknown id")
	}
}
