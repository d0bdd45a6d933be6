package vm

import (
	"time"

	"github.com/okutan/studia/internal/store"
)

// Each screen's view-model accepts a closed set of user-intent events.
// The sets are sealed behind unexported marker methods; draft-edit
// variants shared by the dashboard and subject screens implement both
// interfaces.

// DashboardEvent is the command set of the dashboard screen.
type DashboardEvent interface{ dashboardEvent() }

// SubjectEvent is the command set of the per-subject screen.
type SubjectEvent interface{ subjectEvent() }

// TaskEvent is the command set of the task editor screen.
type TaskEvent interface{ taskEvent() }

// --- Draft edits (synchronous, in-memory only) ---

type SubjectNameChanged struct{ Name string }

type GoalMinutesChanged struct{ Minutes string }

type SubjectColorsChanged struct{ Colors []string }

// SessionPickedForDelete selects the session a later DeleteSession acts on.
type SessionPickedForDelete struct{ Session store.Session }

type TitleChanged struct{ Title string }

type DescriptionChanged struct{ Description string }

type DueDateChanged struct{ Date *time.Time }

type PriorityChanged struct{ Priority store.Priority }

type RelatedSubjectSelected struct{ Subject store.Subject }

// CompletionToggled flips the task editor's completion draft flag.
type CompletionToggled struct{}

// --- Persist commands (asynchronous) ---

type SaveSubject struct{}

type UpdateSubject struct{}

type DeleteSubject struct{}

type DeleteSession struct{}

// TaskCompletionToggled persists the flipped completion flag of a listed
// task (read-modify-write, not a draft edit).
type TaskCompletionToggled struct{ Task store.Task }

type SaveTask struct{}

type DeleteTask struct{}

// UpdateProgress forces a recombination of the subject screen snapshot.
type UpdateProgress struct{}

func (SubjectNameChanged) dashboardEvent()     {}
func (SubjectNameChanged) subjectEvent()       {}
func (GoalMinutesChanged) dashboardEvent()     {}
func (GoalMinutesChanged) subjectEvent()       {}
func (SubjectColorsChanged) dashboardEvent()   {}
func (SubjectColorsChanged) subjectEvent()     {}
func (SessionPickedForDelete) dashboardEvent() {}
func (SessionPickedForDelete) subjectEvent()   {}
func (SaveSubject) dashboardEvent()            {}
func (DeleteSession) dashboardEvent()          {}
func (DeleteSession) subjectEvent()            {}
func (TaskCompletionToggled) dashboardEvent()  {}
func (TaskCompletionToggled) subjectEvent()    {}
func (UpdateSubject) subjectEvent()            {}
func (DeleteSubject) subjectEvent()            {}
func (UpdateProgress) subjectEvent()           {}
func (TitleChanged) taskEvent()                {}
func (DescriptionChanged) taskEvent()          {}
func (DueDateChanged) taskEvent()              {}
func (PriorityChanged) taskEvent()             {}
func (RelatedSubjectSelected) taskEvent()      {}
func (CompletionToggled) taskEvent()           {}
func (SaveTask) taskEvent()                    {}
func (DeleteTask) taskEvent()                  {}
