package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cadencelab/cadence/internal/api"
)

const dateLayout = "2006-01-02"

// SQLiteStore persists schedules, the activity ledger, users and the audit
// log in SQLite. It satisfies api.Store so the router does not care whether
// it talks to this or the in-memory store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// NewStore opens pragmas and returns the store behind the api.Store interface.
func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

const scheduleColumns = `id, participant_id, start_date, end_date, total_weeks,
	active_weekdays, session_duration_minutes,
	music_frequency, music_frequency_unit, music_occurrence_size,
	survey_frequency, survey_frequency_unit, survey_occurrence_size,
	selected_music_catalog_ids, active_survey_catalog_ids,
	is_active, total_expected_sessions, created_at, updated_at`

func (s *SQLiteStore) AddSchedule(sc *api.Schedule) {
	_, err := s.db.Exec(`INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sc.ID, sc.ParticipantID,
		sc.StartDate.Format(dateLayout), sc.EndDate.Format(dateLayout), sc.TotalWeeks,
		encodeJSON(sc.ActiveWeekdays), sc.SessionDurationMinutes,
		sc.MusicFrequency, sc.MusicFrequencyUnit, sc.MusicOccurrenceSize,
		sc.SurveyFrequency, sc.SurveyFrequencyUnit, sc.SurveyOccurrenceSize,
		encodeJSON(sc.SelectedMusicCatalogIDs), encodeJSON(sc.ActiveSurveyCatalogIDs),
		boolToInt(sc.IsActive), sc.TotalExpectedSessions,
		sc.CreatedAt.UTC().Format(time.RFC3339), sc.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		log.Printf("sqlite: insert schedule %s: %v", sc.ID, err)
	}
}

func (s *SQLiteStore) UpdateSchedule(sc *api.Schedule) bool {
	res, err := s.db.Exec(`UPDATE schedules SET
		participant_id=?, start_date=?, end_date=?, total_weeks=?,
		active_weekdays=?, session_duration_minutes=?,
		music_frequency=?, music_frequency_unit=?, music_occurrence_size=?,
		survey_frequency=?, survey_frequency_unit=?, survey_occurrence_size=?,
		selected_music_catalog_ids=?, active_survey_catalog_ids=?,
		is_active=?, total_expected_sessions=?, updated_at=?
		WHERE id=?`,
		sc.ParticipantID,
		sc.StartDate.Format(dateLayout), sc.EndDate.Format(dateLayout), sc.TotalWeeks,
		encodeJSON(sc.ActiveWeekdays), sc.SessionDurationMinutes,
		sc.MusicFrequency, sc.MusicFrequencyUnit, sc.MusicOccurrenceSize,
		sc.SurveyFrequency, sc.SurveyFrequencyUnit, sc.SurveyOccurrenceSize,
		encodeJSON(sc.SelectedMusicCatalogIDs), encodeJSON(sc.ActiveSurveyCatalogIDs),
		boolToInt(sc.IsActive), sc.TotalExpectedSessions,
		sc.UpdatedAt.UTC().Format(time.RFC3339),
		sc.ID)
	if err != nil {
		log.Printf("sqlite: update schedule %s: %v", sc.ID, err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) GetSchedule(id string) *api.Schedule {
	row := s.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedules WHERE id=?`, id)
	sc, err := scanSchedule(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("sqlite: get schedule %s: %v", id, err)
		}
		return nil
	}
	return sc
}

func (s *SQLiteStore) GetActiveSchedule(participantID string) *api.Schedule {
	row := s.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedules
		WHERE participant_id=? AND is_active=1`, participantID)
	sc, err := scanSchedule(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("sqlite: get active schedule for %s: %v", participantID, err)
		}
		return nil
	}
	return sc
}

// ActivateSchedule clears any previous active schedule for the same
// participant and flips the target inside one transaction, so at most one
// schedule per participant is active even under concurrent requests.
func (s *SQLiteStore) ActivateSchedule(id string) bool {
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("sqlite: begin activate: %v", err)
		return false
	}
	defer func() { _ = tx.Rollback() }()

	var participantID string
	if err := tx.QueryRow(`SELECT participant_id FROM schedules WHERE id=?`, id).Scan(&participantID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("sqlite: activate lookup %s: %v", id, err)
		}
		return false
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`UPDATE schedules SET is_active=0, updated_at=?
		WHERE participant_id=? AND is_active=1`, now, participantID); err != nil {
		log.Printf("sqlite: clear active for %s: %v", participantID, err)
		return false
	}
	if _, err := tx.Exec(`UPDATE schedules SET is_active=1, updated_at=? WHERE id=?`, now, id); err != nil {
		log.Printf("sqlite: activate %s: %v", id, err)
		return false
	}
	if err := tx.Commit(); err != nil {
		log.Printf("sqlite: commit activate %s: %v", id, err)
		return false
	}
	return true
}

func (s *SQLiteStore) DeactivateSchedule(id string) bool {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE schedules SET is_active=0, updated_at=? WHERE id=?`, now, id)
	if err != nil {
		log.Printf("sqlite: deactivate %s: %v", id, err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListSchedulesByParticipant(participantID string) []*api.Schedule {
	rows, err := s.db.Query(`SELECT `+scheduleColumns+` FROM schedules
		WHERE participant_id=? ORDER BY participant_id, start_date`, participantID)
	if err != nil {
		log.Printf("sqlite: list schedules for %s: %v", participantID, err)
		return []*api.Schedule{}
	}
	return collectSchedules(rows)
}

func (s *SQLiteStore) ListAllSchedules() []*api.Schedule {
	rows, err := s.db.Query(`SELECT ` + scheduleColumns + ` FROM schedules
		ORDER BY participant_id, start_date`)
	if err != nil {
		log.Printf("sqlite: list schedules: %v", err)
		return []*api.Schedule{}
	}
	return collectSchedules(rows)
}

func (s *SQLiteStore) AddActivity(rec *api.ActivityRecord) {
	_, err := s.db.Exec(`INSERT INTO activity_records
		(id, participant_id, kind, occurred_on, completed, catalog_ref, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		rec.ID, rec.ParticipantID, rec.Kind,
		rec.OccurredOn.Format(dateLayout), boolToInt(rec.Completed), rec.CatalogRef,
		rec.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		log.Printf("sqlite: insert activity %s: %v", rec.ID, err)
	}
}

func (s *SQLiteStore) ListActivity(participantID string, from, to time.Time) []*api.ActivityRecord {
	rows, err := s.db.Query(`SELECT id, participant_id, kind, occurred_on, completed, catalog_ref, created_at
		FROM activity_records
		WHERE participant_id=? AND occurred_on>=? AND occurred_on<=?
		ORDER BY occurred_on`,
		participantID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		log.Printf("sqlite: list activity for %s: %v", participantID, err)
		return []*api.ActivityRecord{}
	}
	defer rows.Close()
	out := []*api.ActivityRecord{}
	for rows.Next() {
		var (
			rec       api.ActivityRecord
			occurred  string
			completed int
			created   string
		)
		if err := rows.Scan(&rec.ID, &rec.ParticipantID, &rec.Kind, &occurred, &completed, &rec.CatalogRef, &created); err != nil {
			log.Printf("sqlite: scan activity: %v", err)
			continue
		}
		rec.OccurredOn = parseStored(occurred, dateLayout)
		rec.Completed = completed != 0
		rec.CreatedAt = parseStored(created, time.RFC3339)
		out = append(out, &rec)
	}
	return out
}

func (s *SQLiteStore) AddUser(u *api.User) {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Email, u.PassHash, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		log.Printf("sqlite: insert user %s: %v", u.ID, err)
	}
}

func (s *SQLiteStore) FindUserByEmail(email string) *api.User {
	var (
		u       api.User
		created string
	)
	err := s.db.QueryRow(`SELECT id, email, pass_hash, created_at FROM users WHERE email=?`, email).
		Scan(&u.ID, &u.Email, &u.PassHash, &created)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("sqlite: find user: %v", err)
		}
		return nil
	}
	u.CreatedAt = parseStored(created, time.RFC3339)
	return &u
}

func (s *SQLiteStore) AddAudit(e api.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?,?,?,?,?)`,
		e.Time.UTC().Format(time.RFC3339), e.Actor, e.Action, e.Target, e.Note)
	if err != nil {
		log.Printf("sqlite: insert audit: %v", err)
	}
}

func (s *SQLiteStore) ListAudit() []api.AuditEntry {
	rows, err := s.db.Query(`SELECT at, actor, action, target, note FROM audit_log ORDER BY at`)
	if err != nil {
		log.Printf("sqlite: list audit: %v", err)
		return nil
	}
	defer rows.Close()
	var out []api.AuditEntry
	for rows.Next() {
		var (
			e  api.AuditEntry
			at string
		)
		if err := rows.Scan(&at, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			log.Printf("sqlite: scan audit: %v", err)
			continue
		}
		e.Time = parseStored(at, time.RFC3339)
		out = append(out, e)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*api.Schedule, error) {
	var (
		sc                  api.Schedule
		startDate, endDate  string
		weekdays            string
		musicIDs, surveyIDs string
		active              int
		created, updated    string
	)
	err := row.Scan(&sc.ID, &sc.ParticipantID, &startDate, &endDate, &sc.TotalWeeks,
		&weekdays, &sc.SessionDurationMinutes,
		&sc.MusicFrequency, &sc.MusicFrequencyUnit, &sc.MusicOccurrenceSize,
		&sc.SurveyFrequency, &sc.SurveyFrequencyUnit, &sc.SurveyOccurrenceSize,
		&musicIDs, &surveyIDs,
		&active, &sc.TotalExpectedSessions, &created, &updated)
	if err != nil {
		return nil, err
	}
	sc.StartDate = parseStored(startDate, dateLayout)
	sc.EndDate = parseStored(endDate, dateLayout)
	decodeJSON(weekdays, &sc.ActiveWeekdays)
	decodeJSON(musicIDs, &sc.SelectedMusicCatalogIDs)
	decodeJSON(surveyIDs, &sc.ActiveSurveyCatalogIDs)
	sc.IsActive = active != 0
	sc.CreatedAt = parseStored(created, time.RFC3339)
	sc.UpdatedAt = parseStored(updated, time.RFC3339)
	return &sc, nil
}

func collectSchedules(rows *sql.Rows) []*api.Schedule {
	defer rows.Close()
	out := []*api.Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			log.Printf("sqlite: scan schedule: %v", err)
			continue
		}
		out = append(out, sc)
	}
	return out
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func decodeJSON[T any](raw string, out *T) {
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("sqlite: decode column: %v", err)
	}
}

func parseStored(raw, layout string) time.Time {
	t, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
