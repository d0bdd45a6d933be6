package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertTask inserts when ID is zero, otherwise replaces the row by id.
func (s *Store) UpsertTask(t *Task) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var due any
	if t.DueDate != nil {
		due = t.DueDate.UTC().Format(time.RFC3339)
	}

	if t.ID == 0 {
		res, err := s.db.Exec(
			`INSERT INTO tasks (subject_id, title, description, due_date, priority, is_complete, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.SubjectID, t.Title, t.Description, due, int(t.Priority), boolToInt(t.IsComplete), now, now,
		)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		t.ID, _ = res.LastInsertId()
	} else {
		_, err := s.db.Exec(
			`UPDATE tasks SET subject_id = ?, title = ?, description = ?, due_date = ?, priority = ?, is_complete = ?, updated_at = ?
			 WHERE id = ?`,
			t.SubjectID, t.Title, t.Description, due, int(t.Priority), boolToInt(t.IsComplete), now, t.ID,
		)
		if err != nil {
			return fmt.Errorf("update task %d: %w", t.ID, err)
		}
	}

	s.notify(TableTasks)
	return nil
}

// GetTask returns nil (not an error) when the task does not exist.
func (s *Store) GetTask(id int64) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, subject_id, title, description, due_date, priority, is_complete, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// DeleteTask is a no-op when the id does not exist.
func (s *Store) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	s.notify(TableTasks)
	return nil
}

// ListUpcomingTaskViews returns incomplete tasks joined with their subject's
// display fields, most urgent first. A nil subjectID means all subjects.
func (s *Store) ListUpcomingTaskViews(subjectID *int64) ([]TaskView, error) {
	return s.listTaskViews(subjectID, false)
}

// ListCompletedTaskViews returns completed tasks joined with subject fields.
func (s *Store) ListCompletedTaskViews(subjectID *int64) ([]TaskView, error) {
	return s.listTaskViews(subjectID, true)
}

func (s *Store) listTaskViews(subjectID *int64, complete bool) ([]TaskView, error) {
	query := `
		SELECT t.id, t.subject_id, t.title, t.description, t.due_date, t.priority, t.is_complete,
		       t.created_at, t.updated_at, COALESCE(s.name, ''), COALESCE(s.colors, '')
		FROM tasks t
		LEFT JOIN subjects s ON s.id = t.subject_id
		WHERE t.is_complete = ?`
	args := []any{boolToInt(complete)}

	if subjectID != nil {
		query += ` AND t.subject_id = ?`
		args = append(args, *subjectID)
	}
	query += ` ORDER BY t.due_date IS NULL, t.due_date, t.priority DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var views []TaskView
	for rows.Next() {
		var v TaskView
		var subID sql.NullInt64
		var due sql.NullString
		var done, priority int
		var createdAt, updatedAt, colors string
		if err := rows.Scan(&v.ID, &subID, &v.Title, &v.Description, &due, &priority, &done,
			&createdAt, &updatedAt, &v.SubjectName, &colors); err != nil {
			return nil, err
		}
		if subID.Valid {
			v.SubjectID = &subID.Int64
		}
		if due.Valid {
			d, _ := time.Parse(time.RFC3339, due.String)
			v.DueDate = &d
		}
		v.Priority = Priority(priority)
		v.IsComplete = done == 1
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		if cs := splitColors(colors); len(cs) > 0 {
			v.SubjectColor = cs[0]
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	t := &Task{}
	var subID sql.NullInt64
	var due sql.NullString
	var complete, priority int
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &subID, &t.Title, &t.Description, &due, &priority, &complete, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if subID.Valid {
		t.SubjectID = &subID.Int64
	}
	if due.Valid {
		d, _ := time.Parse(time.RFC3339, due.String)
		t.DueDate = &d
	}
	t.Priority = Priority(priority)
	t.IsComplete = complete == 1
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
