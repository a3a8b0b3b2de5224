package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// ExportProgressCSV renders a progress report as one CSV row per week bucket.
func ExportProgressCSV(report *ProgressReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"week_start", "sessions_expected", "sessions_completed", "surveys_completed", "completion_rate", "is_current_week"})
	for _, wk := range report.Weeks {
		rec := []string{
			wk.WeekStart.Format("2006-01-02"),
			itoa(wk.SessionsExpected),
			itoa(wk.SessionsCompleted),
			itoa(wk.SurveysCompleted),
			itoa(wk.CompletionRate),
			strconv.FormatBool(wk.IsCurrentWeek),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportActivityCSV renders ledger records in long format, one row per record.
func ExportActivityCSV(records []*ActivityRecord) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"record_id", "participant_id", "kind", "occurred_on", "completed", "catalog_ref"})
	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.ParticipantID,
			string(rec.Kind),
			rec.OccurredOn.Format("2006-01-02"),
			strconv.FormatBool(rec.Completed),
			rec.CatalogRef,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func itoa(n int) string { return strconv.Itoa(n) }
