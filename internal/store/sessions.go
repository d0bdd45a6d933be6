package store

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertSession records a completed study interval. Sessions are never
// edited in place, only inserted and deleted.
func (s *Store) InsertSession(sn *Session) error {
	res, err := s.db.Exec(
		`INSERT INTO sessions (subject_id, duration, date) VALUES (?, ?, ?)`,
		sn.SubjectID, sn.Duration, sn.Date.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	sn.ID, _ = res.LastInsertId()
	s.notify(TableSessions)
	return nil
}

// DeleteSession is a no-op when the id does not exist.
func (s *Store) DeleteSession(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	s.notify(TableSessions)
	return nil
}

// GetSession returns nil (not an error) when the session does not exist.
func (s *Store) GetSession(id int64) (*Session, error) {
	sn := &Session{}
	var date string
	err := s.db.QueryRow(
		`SELECT id, subject_id, duration, date FROM sessions WHERE id = ?`, id,
	).Scan(&sn.ID, &sn.SubjectID, &sn.Duration, &date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	sn.Date, _ = time.Parse(time.RFC3339, date)
	return sn, nil
}

// ListRecentSessions returns the newest sessions joined with subject names.
func (s *Store) ListRecentSessions(limit int) ([]SessionView, error) {
	query := `
		SELECT sn.id, sn.subject_id, sn.duration, sn.date, COALESCE(s.name, '')
		FROM sessions sn
		LEFT JOIN subjects s ON s.id = sn.subject_id
		ORDER BY sn.date DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	return s.querySessionViews(query)
}

// ListSessionsForSubject returns all of one subject's sessions, newest first.
func (s *Store) ListSessionsForSubject(subjectID int64) ([]SessionView, error) {
	return s.querySessionViews(`
		SELECT sn.id, sn.subject_id, sn.duration, sn.date, COALESCE(s.name, '')
		FROM sessions sn
		LEFT JOIN subjects s ON s.id = sn.subject_id
		WHERE sn.subject_id = ?
		ORDER BY sn.date DESC`, subjectID)
}

func (s *Store) querySessionViews(query string, args ...any) ([]SessionView, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var views []SessionView
	for rows.Next() {
		var v SessionView
		var date string
		if err := rows.Scan(&v.ID, &v.SubjectID, &v.Duration, &date, &v.SubjectName); err != nil {
			return nil, err
		}
		v.Date, _ = time.Parse(time.RFC3339, date)
		views = append(views, v)
	}
	return views, rows.Err()
}

// StudySummary aggregates one subject's recorded study time.
type StudySummary struct {
	SubjectID    int64
	SubjectName  string
	SubjectColor string
	TotalSeconds int64
}

// SubjectStudySummary returns per-subject studied totals for every
// subject, including ones with no sessions yet.
func (s *Store) SubjectStudySummary() ([]StudySummary, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.name, s.colors, COALESCE(SUM(sn.duration), 0)
		FROM subjects s
		LEFT JOIN sessions sn ON sn.subject_id = s.id
		GROUP BY s.id
		ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("study summary: %w", err)
	}
	defer rows.Close()

	var summaries []StudySummary
	for rows.Next() {
		var sum StudySummary
		var colors string
		if err := rows.Scan(&sum.SubjectID, &sum.SubjectName, &colors, &sum.TotalSeconds); err != nil {
			return nil, err
		}
		if cs := splitColors(colors); len(cs) > 0 {
			sum.SubjectColor = cs[0]
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *Store) TotalSessionSeconds() (int64, error) {
	var total int64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(duration), 0) FROM sessions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total session duration: %w", err)
	}
	return total, nil
}

func (s *Store) TotalSessionSecondsForSubject(subjectID int64) (int64, error) {
	var total int64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(duration), 0) FROM sessions WHERE subject_id = ?`, subjectID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("subject session duration: %w", err)
	}
	return total, nil
}
