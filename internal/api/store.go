package api

import (
	"sort"
	"sync"
	"time"
)

// Schedule is the persistence-facing shape of a research schedule. The api
// package owns its own types so the services layer stays decoupled from
// storage; adapters translate between the two.
type Schedule struct {
	ID                      string    `json:"id"`
	ParticipantID           string    `json:"participant_id"`
	StartDate               time.Time `json:"start_date"`
	EndDate                 time.Time `json:"end_date"`
	TotalWeeks              int       `json:"total_weeks"`
	ActiveWeekdays          []int     `json:"active_weekdays"`
	SessionDurationMinutes  int       `json:"session_duration_minutes"`
	MusicFrequency          int       `json:"music_frequency"`
	MusicFrequencyUnit      string    `json:"music_frequency_unit"`
	MusicOccurrenceSize     int       `json:"music_occurrence_size"`
	SurveyFrequency         int       `json:"survey_frequency"`
	SurveyFrequencyUnit     string    `json:"survey_frequency_unit"`
	SurveyOccurrenceSize    int       `json:"survey_occurrence_size"`
	SelectedMusicCatalogIDs []string  `json:"selected_music_catalog_ids"`
	ActiveSurveyCatalogIDs  []string  `json:"active_survey_catalog_ids,omitempty"`
	IsActive                bool      `json:"is_active"`
	TotalExpectedSessions   int       `json:"total_expected_sessions"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type ActivityRecord struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	Kind          string    `json:"kind"`
	OccurredOn    time.Time `json:"occurred_on"`
	Completed     bool      `json:"completed"`
	CatalogRef    string    `json:"catalog_ref"`
	CreatedAt     time.Time `json:"created_at"`
}

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

type memoryStore struct {
	mu           sync.RWMutex
	schedules    map[string]*Schedule
	activity     []*ActivityRecord
	usersByEmail map[string]*User
	audit        []AuditEntry
}

// NewMemoryStore returns an in-memory Store for tests and dev mode.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		schedules:    map[string]*Schedule{},
		activity:     []*ActivityRecord{},
		usersByEmail: map[string]*User{},
		audit:        []AuditEntry{},
	}
}

func (s *memoryStore) AddSchedule(sc *Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *sc
	s.schedules[sc.ID] = &copy
}

func (s *memoryStore) UpdateSchedule(sc *Schedule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[sc.ID]; !ok {
		return false
	}
	copy := *sc
	s.schedules[sc.ID] = &copy
	return true
}

func (s *memoryStore) GetSchedule(id string) *Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sc, ok := s.schedules[id]; ok {
		copy := *sc
		return &copy
	}
	return nil
}

func (s *memoryStore) GetActiveSchedule(participantID string) *Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.schedules {
		if sc.ParticipantID == participantID && sc.IsActive {
			copy := *sc
			return &copy
		}
	}
	return nil
}

// ActivateSchedule flips the target active and clears the previous active
// schedule for the same participant under one lock, so the single-active
// invariant holds even with concurrent activations.
func (s *memoryStore) ActivateSchedule(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.schedules[id]
	if !ok {
		return false
	}
	for _, sc := range s.schedules {
		if sc.ParticipantID == target.ParticipantID && sc.IsActive {
			sc.IsActive = false
		}
	}
	target.IsActive = true
	return true
}

func (s *memoryStore) DeactivateSchedule(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return false
	}
	sc.IsActive = false
	return true
}

func (s *memoryStore) ListSchedulesByParticipant(participantID string) []*Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Schedule{}
	for _, sc := range s.schedules {
		if sc.ParticipantID == participantID {
			copy := *sc
			out = append(out, &copy)
		}
	}
	sortSchedules(out)
	return out
}

func (s *memoryStore) ListAllSchedules() []*Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		copy := *sc
		out = append(out, &copy)
	}
	sortSchedules(out)
	return out
}

func sortSchedules(list []*Schedule) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].ParticipantID != list[j].ParticipantID {
			return list[i].ParticipantID < list[j].ParticipantID
		}
		return list[i].StartDate.Before(list[j].StartDate)
	})
}

func (s *memoryStore) AddActivity(rec *ActivityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *rec
	s.activity = append(s.activity, &copy)
}

func (s *memoryStore) ListActivity(participantID string, from, to time.Time) []*ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*ActivityRecord{}
	for _, rec := range s.activity {
		if rec.ParticipantID != participantID {
			continue
		}
		if rec.OccurredOn.Before(from) || rec.OccurredOn.After(to) {
			continue
		}
		copy := *rec
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredOn.Before(out[j].OccurredOn) })
	return out
}

func (s *memoryStore) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *u
	s.usersByEmail[u.Email] = &copy
}

func (s *memoryStore) FindUserByEmail(email string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByEmail[email]; ok {
		copy := *u
		return &copy
	}
	return nil
}

func (s *memoryStore) AddAudit(e AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
}

func (s *memoryStore) ListAudit() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AuditEntry(nil), s.audit...)
}
