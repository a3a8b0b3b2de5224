package services

import "time"

// FrequencyUnit is the cadence a music or survey frequency is expressed in.
type FrequencyUnit string

const (
	UnitDaily   FrequencyUnit = "daily"
	UnitWeekly  FrequencyUnit = "weekly"
	UnitMonthly FrequencyUnit = "monthly"
)

// activeDaysPerMonth approximates how many of a week's active days fall in a
// calendar month (52 weeks / 12 months).
const activeDaysPerMonth = 4.33

// ResearchSchedule prescribes the listening/survey cadence for one enrollment
// period. At most one schedule per participant is active at a time; EndDate and
// TotalExpectedSessions are derived and recomputed on every write.
type ResearchSchedule struct {
	ID                      string        `json:"id"`
	ParticipantID           string        `json:"participant_id"`
	StartDate               time.Time     `json:"start_date"`
	EndDate                 time.Time     `json:"end_date"`
	TotalWeeks              int           `json:"total_weeks"`
	ActiveWeekdays          []int         `json:"active_weekdays"` // 0=Sunday .. 6=Saturday
	SessionDurationMinutes  int           `json:"session_duration_minutes"`
	MusicFrequency          int           `json:"music_frequency"`
	MusicFrequencyUnit      FrequencyUnit `json:"music_frequency_unit"`
	MusicOccurrenceSize     int           `json:"music_occurrence_size"`
	SurveyFrequency         int           `json:"survey_frequency"`
	SurveyFrequencyUnit     FrequencyUnit `json:"survey_frequency_unit"`
	SurveyOccurrenceSize    int           `json:"survey_occurrence_size"`
	SelectedMusicCatalogIDs []string      `json:"selected_music_catalog_ids"`
	ActiveSurveyCatalogIDs  []string      `json:"active_survey_catalog_ids,omitempty"`
	IsActive                bool          `json:"is_active"`
	TotalExpectedSessions   int           `json:"total_expected_sessions"`
	CreatedAt               time.Time     `json:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at"`
}

// ActiveWeekdayCount returns the size of the active weekday set.
func (sc *ResearchSchedule) ActiveWeekdayCount() int { return len(sc.ActiveWeekdays) }

// IsActiveWeekday reports whether the given weekday (0=Sunday) is in the
// schedule's active set.
func (sc *ResearchSchedule) IsActiveWeekday(weekday int) bool {
	for _, d := range sc.ActiveWeekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// ActivityKind distinguishes the two ledger record types.
type ActivityKind string

const (
	KindMusicSession   ActivityKind = "music_session"
	KindSurveyResponse ActivityKind = "survey_response"
)

// ActivityRecord is one immutable ledger event. Music sessions may be recorded
// with Completed=false when a participant starts but does not finish; survey
// records only exist on completion.
type ActivityRecord struct {
	ID            string       `json:"id"`
	ParticipantID string       `json:"participant_id"`
	Kind          ActivityKind `json:"kind"`
	OccurredOn    time.Time    `json:"occurred_on"` // date-only
	Completed     bool         `json:"completed"`
	CatalogRef    string       `json:"catalog_ref"`
	CreatedAt     time.Time    `json:"created_at"`
}

// EligibilityReason explains an eligibility decision. Blocked outcomes are
// valid results, not errors.
type EligibilityReason string

const (
	ReasonScheduleInactive EligibilityReason = "schedule_inactive"
	ReasonRestDay          EligibilityReason = "rest_day"
	ReasonOutsideWindow    EligibilityReason = "outside_schedule_window"
	ReasonActiveDay        EligibilityReason = "active_day"
)

// EligibilityResult is the computed permission state for one participant on
// one reference date. It is never persisted.
type EligibilityResult struct {
	IsActiveDay           bool              `json:"is_active_day"`
	RequiredMusic         int               `json:"required_music"`
	CompletedMusicToday   int               `json:"completed_music_today"`
	CanStartMusic         bool              `json:"can_start_music"`
	RequiredSurveys       int               `json:"required_surveys"`
	CompletedSurveysToday int               `json:"completed_surveys_today"`
	CanStartSurvey        bool              `json:"can_start_survey"`
	Reason                EligibilityReason `json:"reason"`
}

// WeekBucket is one Sunday-aligned week of a progress report.
type WeekBucket struct {
	WeekStart         time.Time `json:"week_start"`
	SessionsExpected  int       `json:"sessions_expected"`
	SessionsCompleted int       `json:"sessions_completed"`
	SurveysCompleted  int       `json:"surveys_completed"`
	CompletionRate    int       `json:"completion_rate"` // percent, rounded
	IsCurrentWeek     bool      `json:"is_current_week"`
	IsPastOrCurrent   bool      `json:"is_past_or_current"`
}

// ProgressOverall summarizes a whole schedule window.
type ProgressOverall struct {
	SessionsExpected     int `json:"sessions_expected"`
	SessionsCompleted    int `json:"sessions_completed"`
	SurveysCompleted     int `json:"surveys_completed"`
	CompletionPercentage int `json:"completion_percentage"` // clamped to [0,100]
}

// ProgressReport covers the full schedule range, weeks ascending. Callers
// wanting only a recent window slice the tail themselves.
type ProgressReport struct {
	ParticipantID string          `json:"participant_id"`
	ScheduleID    string          `json:"schedule_id"`
	Weeks         []WeekBucket    `json:"weeks"`
	Overall       ProgressOverall `json:"overall"`
}

// User is a researcher account for the HTTP surface.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}
