package api

import "time"

// Store is the persistence boundary shared by the in-memory and SQLite
// implementations. Implementations enforce the single-active-schedule
// invariant inside ActivateSchedule rather than trusting callers.
type Store interface {
	AddSchedule(sc *Schedule)
	UpdateSchedule(sc *Schedule) bool
	GetSchedule(id string) *Schedule
	GetActiveSchedule(participantID string) *Schedule
	ActivateSchedule(id string) bool
	DeactivateSchedule(id string) bool
	ListSchedulesByParticipant(participantID string) []*Schedule
	ListAllSchedules() []*Schedule

	AddActivity(rec *ActivityRecord)
	ListActivity(participantID string, from, to time.Time) []*ActivityRecord

	AddUser(u *User)
	FindUserByEmail(email string) *User

	AddAudit(e AuditEntry)
	ListAudit() []AuditEntry
}

var _ Store = (*memoryStore)(nil)
