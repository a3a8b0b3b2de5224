package services

import (
	"testing"
	"time"
)

// fullWeekSchedule runs 4 weeks from Sunday 2023-12-31 with every weekday
// active and daily 1x1 music, so each week expects exactly 7 sessions.
func fullWeekSchedule() *ResearchSchedule {
	sc := &ResearchSchedule{
		ID:                      "sch2",
		ParticipantID:           "P1",
		StartDate:               time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		TotalWeeks:              4,
		ActiveWeekdays:          []int{0, 1, 2, 3, 4, 5, 6},
		SessionDurationMinutes:  20,
		MusicFrequency:          1,
		MusicFrequencyUnit:      UnitDaily,
		MusicOccurrenceSize:     1,
		SurveyFrequency:         1,
		SurveyFrequencyUnit:     UnitWeekly,
		SurveyOccurrenceSize:    1,
		SelectedMusicCatalogIDs: []string{"cat1"},
		IsActive:                true,
	}
	deriveScheduleFields(sc)
	return sc
}

func TestAggregateEmptyHistory(t *testing.T) {
	sc := fullWeekSchedule()
	asOf := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	report := Aggregate(sc, nil, asOf)
	if len(report.Weeks) != 4 {
		t.Fatalf("expected 4 week buckets, got %d", len(report.Weeks))
	}
	for i, wk := range report.Weeks {
		if wk.SessionsExpected != 7 {
			t.Fatalf("week %d expected 7 sessions, got %d", i, wk.SessionsExpected)
		}
		if wk.SessionsCompleted != 0 || wk.CompletionRate != 0 {
			t.Fatalf("week %d should be empty: %+v", i, wk)
		}
	}
	if report.Overall.CompletionPercentage != 0 {
		t.Fatalf("expected 0%% overall, got %d", report.Overall.CompletionPercentage)
	}
}

func TestAggregateWeeksSortedAndFlagged(t *testing.T) {
	sc := fullWeekSchedule()
	asOf := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) // Wednesday of week 2
	report := Aggregate(sc, nil, asOf)
	for i := 1; i < len(report.Weeks); i++ {
		if !report.Weeks[i].WeekStart.After(report.Weeks[i-1].WeekStart) {
			t.Fatalf("weeks not ascending at index %d", i)
		}
	}
	wantCurrent := []bool{false, true, false, false}
	wantPastOrCurrent := []bool{true, true, false, false}
	for i, wk := range report.Weeks {
		if wk.IsCurrentWeek != wantCurrent[i] {
			t.Fatalf("week %d IsCurrentWeek = %v", i, wk.IsCurrentWeek)
		}
		if wk.IsPastOrCurrent != wantPastOrCurrent[i] {
			t.Fatalf("week %d IsPastOrCurrent = %v", i, wk.IsPastOrCurrent)
		}
	}
}

func TestAggregateEdgeWeeksShrink(t *testing.T) {
	// Two weeks starting mid-week (Wednesday 2024-03-06): the first and last
	// Sunday-aligned buckets only hold the in-range slice of active days.
	sc := fullWeekSchedule()
	sc.StartDate = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	sc.TotalWeeks = 2
	deriveScheduleFields(sc)

	report := Aggregate(sc, nil, sc.StartDate)
	if len(report.Weeks) != 3 {
		t.Fatalf("expected 3 buckets for a mid-week window, got %d", len(report.Weeks))
	}
	want := []int{4, 7, 3} // Wed-Sat, full week, Sun-Tue
	for i, wk := range report.Weeks {
		if wk.SessionsExpected != want[i] {
			t.Fatalf("bucket %d expected %d sessions, got %d", i, want[i], wk.SessionsExpected)
		}
	}
	if report.Overall.SessionsExpected != 14 {
		t.Fatalf("expected 14 sessions over the window, got %d", report.Overall.SessionsExpected)
	}
}

func TestAggregateCountsAndRates(t *testing.T) {
	sc := fullWeekSchedule()
	week1 := sc.StartDate
	history := []*ActivityRecord{
		{ParticipantID: "P1", Kind: KindMusicSession, OccurredOn: week1, Completed: true},
		{ParticipantID: "P1", Kind: KindMusicSession, OccurredOn: week1.AddDate(0, 0, 1), Completed: true},
		{ParticipantID: "P1", Kind: KindMusicSession, OccurredOn: week1.AddDate(0, 0, 2), Completed: false}, // unfinished
		{ParticipantID: "P1", Kind: KindSurveyResponse, OccurredOn: week1.AddDate(0, 0, 3), Completed: true},
		{ParticipantID: "P1", Kind: KindMusicSession, OccurredOn: week1.AddDate(0, 0, -2), Completed: true}, // before window
	}
	report := Aggregate(sc, history, week1.AddDate(0, 0, 3))
	wk := report.Weeks[0]
	if wk.SessionsCompleted != 2 {
		t.Fatalf("unfinished and out-of-window records must not count: got %d", wk.SessionsCompleted)
	}
	if wk.SurveysCompleted != 1 {
		t.Fatalf("expected 1 survey, got %d", wk.SurveysCompleted)
	}
	if wk.CompletionRate != 29 { // round(2/7*100)
		t.Fatalf("expected 29%% week rate, got %d", wk.CompletionRate)
	}
	if report.Overall.SessionsCompleted != 2 || report.Overall.SurveysCompleted != 1 {
		t.Fatalf("unexpected overall: %+v", report.Overall)
	}
}

func TestAggregateOverallClampedAt100(t *testing.T) {
	sc := fullWeekSchedule()
	sc.TotalWeeks = 1
	sc.ActiveWeekdays = []int{1, 2, 3, 4, 5}
	deriveScheduleFields(sc) // TotalExpectedSessions = 5

	var history []*ActivityRecord
	for i := 0; i < 7; i++ {
		history = append(history, &ActivityRecord{
			ParticipantID: "P1",
			Kind:          KindMusicSession,
			OccurredOn:    sc.StartDate.AddDate(0, 0, i%5+1),
			Completed:     true,
		})
	}
	report := Aggregate(sc, history, sc.EndDate)
	if report.Overall.SessionsCompleted != 7 {
		t.Fatalf("expected 7 raw completions, got %d", report.Overall.SessionsCompleted)
	}
	if report.Overall.CompletionPercentage != 100 {
		t.Fatalf("display percentage must clamp at 100, got %d", report.Overall.CompletionPercentage)
	}
	// per-week rate stays unclamped for auditability
	if report.Weeks[0].CompletionRate != 140 {
		t.Fatalf("expected raw 140%% week rate, got %d", report.Weeks[0].CompletionRate)
	}
}

type stubProgressStore struct {
	schedule *ResearchSchedule
	records  []*ActivityRecord
	from, to time.Time
}

func (s *stubProgressStore) GetActiveSchedule(pid string) (*ResearchSchedule, error) {
	if s.schedule != nil && s.schedule.ParticipantID == pid {
		copy := *s.schedule
		return &copy, nil
	}
	return nil, nil
}

func (s *stubProgressStore) ListActivity(pid string, from, to time.Time) ([]*ActivityRecord, error) {
	s.from, s.to = from, to
	return s.records, nil
}

func TestProgressReportNoSchedule(t *testing.T) {
	svc := NewProgressService(&stubProgressStore{})
	if _, err := svc.ProgressReport("P1", time.Now()); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestProgressReportFetchesFullRange(t *testing.T) {
	store := &stubProgressStore{schedule: fullWeekSchedule()}
	svc := NewProgressService(store)
	report, err := svc.ProgressReport("P1", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProgressReport error: %v", err)
	}
	if !store.from.Equal(store.schedule.StartDate) || !store.to.Equal(store.schedule.EndDate) {
		t.Fatalf("expected full-range fetch, got %v..%v", store.from, store.to)
	}
	if report.ScheduleID != "sch2" || len(report.Weeks) != 4 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
