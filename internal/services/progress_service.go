package services

import (
	"math"
	"time"
)

// Aggregate buckets a schedule's activity history into Sunday-aligned calendar
// weeks and computes per-week and overall completion statistics.
//
// One bucket is produced for every week from the start date's week through the
// end date's week, even when it contains no activity. A week at the schedule's
// edges may hold fewer than the full set of active days in range, and its
// expected count shrinks accordingly. Records outside the schedule window are
// ignored. Output is sorted ascending by week start.
func Aggregate(sc *ResearchSchedule, history []*ActivityRecord, asOf time.Time) *ProgressReport {
	start := DateOnly(sc.StartDate)
	end := DateOnly(sc.EndDate)
	asOfDay := DateOnly(asOf)
	activeDays := sc.ActiveWeekdayCount()
	perDay := RequiredToday(sc.MusicFrequency, sc.MusicFrequencyUnit, sc.MusicOccurrenceSize, activeDays)

	sessionsByWeek := map[string]int{}
	surveysByWeek := map[string]int{}
	for _, rec := range history {
		if !WithinDates(rec.OccurredOn, start, end) {
			continue
		}
		wk := WeekStart(rec.OccurredOn).Format("2006-01-02")
		switch rec.Kind {
		case KindMusicSession:
			if rec.Completed {
				sessionsByWeek[wk]++
			}
		case KindSurveyResponse:
			surveysByWeek[wk]++
		}
	}

	firstWeek := WeekStart(start)
	lastWeek := WeekStart(end)
	weeks := make([]WeekBucket, 0, int(lastWeek.Sub(firstWeek).Hours()/(24*7))+1)
	totalExpected, totalCompleted, totalSurveys := 0, 0, 0
	for wk := firstWeek; !wk.After(lastWeek); wk = wk.AddDate(0, 0, 7) {
		expected := 0
		for i := 0; i < 7; i++ {
			day := wk.AddDate(0, 0, i)
			if !WithinDates(day, start, end) {
				continue
			}
			if sc.IsActiveWeekday(int(day.Weekday())) {
				expected += perDay
			}
		}
		key := wk.Format("2006-01-02")
		completed := sessionsByWeek[key]
		surveys := surveysByWeek[key]
		weeks = append(weeks, WeekBucket{
			WeekStart:         wk,
			SessionsExpected:  expected,
			SessionsCompleted: completed,
			SurveysCompleted:  surveys,
			CompletionRate:    percentOf(completed, expected),
			IsCurrentWeek:     WithinDates(asOfDay, wk, wk.AddDate(0, 0, 6)),
			IsPastOrCurrent:   !wk.After(asOfDay),
		})
		totalExpected += expected
		totalCompleted += completed
		totalSurveys += surveys
	}

	pct := 0
	if sc.TotalExpectedSessions > 0 {
		pct = int(math.Round(float64(totalCompleted) / float64(sc.TotalExpectedSessions) * 100))
	}
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	return &ProgressReport{
		ParticipantID: sc.ParticipantID,
		ScheduleID:    sc.ID,
		Weeks:         weeks,
		Overall: ProgressOverall{
			SessionsExpected:     totalExpected,
			SessionsCompleted:    totalCompleted,
			SurveysCompleted:     totalSurveys,
			CompletionPercentage: pct,
		},
	}
}

// percentOf rounds completed/expected to a whole percent; zero expected is
// defined as zero, not a division error.
func percentOf(completed, expected int) int {
	if expected <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(expected) * 100))
}

type ProgressStore interface {
	GetActiveSchedule(participantID string) (*ResearchSchedule, error)
	ListActivity(participantID string, from, to time.Time) ([]*ActivityRecord, error)
}

// ProgressService fetches the active schedule and its full-range activity,
// then delegates to Aggregate.
type ProgressService struct {
	store ProgressStore
}

func NewProgressService(store ProgressStore) *ProgressService {
	return &ProgressService{store: store}
}

func (s *ProgressService) ProgressReport(participantID string, asOf time.Time) (*ProgressReport, error) {
	if participantID == "" {
		return nil, NewInvalidError("participant_id required")
	}
	sc, err := s.store.GetActiveSchedule(participantID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, NewNotFoundError("no active schedule for participant")
	}
	records, err := s.store.ListActivity(participantID, sc.StartDate, sc.EndDate)
	if err != nil {
		return nil, err
	}
	return Aggregate(sc, records, asOf), nil
}
