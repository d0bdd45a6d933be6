package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertSubject inserts the subject when its ID is zero (assigning the new
// ID on the struct) and otherwise replaces the stored row wholesale.
func (s *Store) UpsertSubject(sub *Subject) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if sub.ID == 0 {
		res, err := s.db.Exec(
			`INSERT INTO subjects (name, goal_minutes, colors, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			sub.Name, sub.GoalMinutes, joinColors(sub.Colors), now, now,
		)
		if err != nil {
			return fmt.Errorf("insert subject: %w", err)
		}
		sub.ID, _ = res.LastInsertId()
	} else {
		_, err := s.db.Exec(
			`UPDATE subjects SET name = ?, goal_minutes = ?, colors = ?, updated_at = ? WHERE id = ?`,
			sub.Name, sub.GoalMinutes, joinColors(sub.Colors), now, sub.ID,
		)
		if err != nil {
			return fmt.Errorf("update subject %d: %w", sub.ID, err)
		}
	}

	s.notify(TableSubjects)
	return nil
}

// GetSubject returns nil (not an error) when the subject does not exist.
func (s *Store) GetSubject(id int64) (*Subject, error) {
	sub := &Subject{}
	var colors, createdAt, updatedAt string
	err := s.db.QueryRow(
		`SELECT id, name, goal_minutes, colors, created_at, updated_at FROM subjects WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Name, &sub.GoalMinutes, &colors, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subject %d: %w", id, err)
	}
	sub.Colors = splitColors(colors)
	sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return sub, nil
}

func (s *Store) ListSubjects() ([]Subject, error) {
	rows, err := s.db.Query(
		`SELECT id, name, goal_minutes, colors, created_at, updated_at FROM subjects ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var sub Subject
		var colors, createdAt, updatedAt string
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.GoalMinutes, &colors, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		sub.Colors = splitColors(colors)
		sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

func (s *Store) CountSubjects() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM subjects`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return n, nil
}

func (s *Store) TotalGoalMinutes() (float64, error) {
	var total float64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(goal_minutes), 0) FROM subjects`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total goal minutes: %w", err)
	}
	return total, nil
}

// DeleteSubject removes the subject and, through ON DELETE CASCADE, every
// task and session referencing it, in one statement. No-op for unknown ids.
func (s *Store) DeleteSubject(id int64) error {
	_, err := s.db.Exec(`DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subject %d: %w", id, err)
	}
	s.notify(TableSubjects, TableTasks, TableSessions)
	return nil
}
