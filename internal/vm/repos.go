package vm

import "github.com/okutan/studia/internal/store"

// Repository interfaces are injected at construction so the persistence
// layer can be substituted in tests. *store.Store satisfies all of them.

type SubjectRepository interface {
	UpsertSubject(s *store.Subject) error
	GetSubject(id int64) (*store.Subject, error)
	ListSubjects() ([]store.Subject, error)
	CountSubjects() (int, error)
	TotalGoalMinutes() (float64, error)
	DeleteSubject(id int64) error
}

type TaskRepository interface {
	UpsertTask(t *store.Task) error
	GetTask(id int64) (*store.Task, error)
	DeleteTask(id int64) error
	ListUpcomingTaskViews(subjectID *int64) ([]store.TaskView, error)
	ListCompletedTaskViews(subjectID *int64) ([]store.TaskView, error)
}

type SessionRepository interface {
	InsertSession(sn *store.Session) error
	DeleteSession(id int64) error
	ListRecentSessions(limit int) ([]store.SessionView, error)
	ListSessionsForSubject(subjectID int64) ([]store.SessionView, error)
	SubjectStudySummary() ([]store.StudySummary, error)
	TotalSessionSeconds() (int64, error)
	TotalSessionSecondsForSubject(subjectID int64) (int64, error)
}

type SettingsRepository interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Repos bundles the repositories a screen needs.
type Repos struct {
	Subjects SubjectRepository
	Tasks    TaskRepository
	Sessions SessionRepository
	Settings SettingsRepository
}
