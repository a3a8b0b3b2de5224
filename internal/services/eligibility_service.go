package services

import "time"

// Evaluate decides, for one participant and one calendar day, whether each
// activity type may be started and how many occurrences are still owed.
//
// Conditions short-circuit in order: inactive schedule, rest day, outside the
// schedule window. Each failure sets the reason and blocks both activity
// types. All comparisons are date-only. The function has no side effects and
// is safely re-evaluated any number of times per day; over-completion yields
// CanStart*=false, never an error.
func Evaluate(sc *ResearchSchedule, today time.Time, todaysActivity []*ActivityRecord) EligibilityResult {
	day := DateOnly(today)
	if !sc.IsActive {
		return EligibilityResult{Reason: ReasonScheduleInactive}
	}
	if !sc.IsActiveWeekday(int(day.Weekday())) {
		return EligibilityResult{Reason: ReasonRestDay}
	}
	if !WithinDates(day, sc.StartDate, sc.EndDate) {
		return EligibilityResult{Reason: ReasonOutsideWindow}
	}

	activeDays := sc.ActiveWeekdayCount()
	requiredMusic := RequiredToday(sc.MusicFrequency, sc.MusicFrequencyUnit, sc.MusicOccurrenceSize, activeDays)
	requiredSurveys := RequiredToday(sc.SurveyFrequency, sc.SurveyFrequencyUnit, sc.SurveyOccurrenceSize, activeDays)

	musicDone, surveysDone := 0, 0
	for _, rec := range todaysActivity {
		if !SameDay(rec.OccurredOn, day) {
			continue
		}
		switch rec.Kind {
		case KindMusicSession:
			// started-but-unfinished sessions do not count toward the quota
			if rec.Completed {
				musicDone++
			}
		case KindSurveyResponse:
			// survey records only exist on completion
			surveysDone++
		}
	}

	return EligibilityResult{
		IsActiveDay:           true,
		RequiredMusic:         requiredMusic,
		CompletedMusicToday:   musicDone,
		CanStartMusic:         musicDone < requiredMusic,
		RequiredSurveys:       requiredSurveys,
		CompletedSurveysToday: surveysDone,
		CanStartSurvey:        surveysDone < requiredSurveys,
		Reason:                ReasonActiveDay,
	}
}

type EligibilityStore interface {
	GetActiveSchedule(participantID string) (*ResearchSchedule, error)
	ListActivity(participantID string, from, to time.Time) ([]*ActivityRecord, error)
}

// EligibilityService resolves the active schedule and the day's activity, then
// delegates to Evaluate. Reads of today's activity are snapshot reads; a
// caller racing a completion write simply re-checks afterwards.
type EligibilityService struct {
	store EligibilityStore
}

func NewEligibilityService(store EligibilityStore) *EligibilityService {
	return &EligibilityService{store: store}
}

// EvaluateEligibility returns the permission decision for referenceDate.
// A participant without an active schedule is a NotFound error, distinct from
// a rest_day result on a configured schedule.
func (s *EligibilityService) EvaluateEligibility(participantID string, referenceDate time.Time) (*EligibilityResult, error) {
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
	day := DateOnly(referenceDate)
	records, err := s.store.ListActivity(participantID, day, day)
	if err != nil {
		return nil, err
	}
	res := Evaluate(sc, day, records)
	return &res, nil
}
