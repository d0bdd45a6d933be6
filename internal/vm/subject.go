package vm

import (
	"context"
	"strconv"
	"sync"

	"github.com/okutan/studia/internal/livequery"
	"github.com/okutan/studia/internal/store"
)

// SubjectState is the snapshot for one subject's detail screen.
type SubjectState struct {
	SubjectID      int64
	StudiedMinutes float64
	GoalMinutes    float64
	Progress       float64 // studied/goal, clamped to [0, 1]
	UpcomingTasks  []store.TaskView
	CompletedTasks []store.TaskView
	Sessions       []store.SessionView

	// Draft fields for the edit dialog, seeded from the stored subject.
	SubjectName     string
	GoalMinutesText string
	SubjectColors   []string

	PickedSession *store.Session
}

// SubjectViewModel drives the per-subject screen: editing the subject,
// deleting it (with cascade), and managing its tasks and sessions.
type SubjectViewModel struct {
	repos     Repos
	subjectID int64

	mu    sync.Mutex
	draft subjectDraft

	query    *livequery.Query[SubjectState]
	notifier *Notifier
	runner   *runner
}

type subjectDraft struct {
	name     string
	goalText string
	colors   []string
	picked   *store.Session
}

// NewSubject builds the view-model for subjectID, seeding the edit drafts
// from the stored subject when it exists.
func NewSubject(repos Repos, changed <-chan struct{}, subjectID int64) *SubjectViewModel {
	s := &SubjectViewModel{
		repos:     repos,
		subjectID: subjectID,
		notifier:  NewNotifier(),
		runner:    newRunner(),
	}
	s.draft.colors = store.RandomPalette()
	if sub, err := repos.Subjects.GetSubject(subjectID); err == nil && sub != nil {
		s.draft.name = sub.Name
		s.draft.goalText = formatGoalMinutes(sub.GoalMinutes)
		if len(sub.Colors) > 0 {
			s.draft.colors = sub.Colors
		}
	}
	s.query = livequery.New(SubjectState{
		SubjectID:     subjectID,
		SubjectName:   s.draft.name,
		SubjectColors: s.draft.colors,
	}, s.buildState, changed)
	return s
}

func (s *SubjectViewModel) Snapshot() SubjectState {
	return s.query.Latest()
}

// Refresh synchronously recombines the snapshot.
func (s *SubjectViewModel) Refresh() {
	s.query.Notify()
}

func (s *SubjectViewModel) Subscribe() (<-chan SubjectState, func()) {
	return s.query.Subscribe()
}

func (s *SubjectViewModel) Notifications() (<-chan Notification, func()) {
	return s.notifier.Subscribe()
}

func (s *SubjectViewModel) Close() {
	s.runner.close()
	s.notifier.closeAll()
	s.query.Close()
}

// OnEvent dispatches a user intent; the event set is closed.
func (s *SubjectViewModel) OnEvent(ev SubjectEvent) {
	switch ev := ev.(type) {
	case SubjectNameChanged:
		s.editDraft(func(dr *subjectDraft) { dr.name = ev.Name })
	case GoalMinutesChanged:
		s.editDraft(func(dr *subjectDraft) { dr.goalText = ev.Minutes })
	case SubjectColorsChanged:
		s.editDraft(func(dr *subjectDraft) { dr.colors = ev.Colors })
	case SessionPickedForDelete:
		sn := ev.Session
		s.editDraft(func(dr *subjectDraft) { dr.picked = &sn })
	case UpdateSubject:
		s.updateSubject()
	case DeleteSubject:
		s.deleteSubject()
	case DeleteSession:
		s.deleteSession()
	case TaskCompletionToggled:
		s.toggleTask(ev.Task)
	case UpdateProgress:
		s.query.Notify()
	}
}

func (s *SubjectViewModel) editDraft(apply func(*subjectDraft)) {
	s.mu.Lock()
	apply(&s.draft)
	s.mu.Unlock()
	s.query.Notify()
}

func (s *SubjectViewModel) buildState() (SubjectState, error) {
	sub, err := s.repos.Subjects.GetSubject(s.subjectID)
	if err != nil {
		return SubjectState{}, err
	}
	studiedSecs, err := s.repos.Sessions.TotalSessionSecondsForSubject(s.subjectID)
	if err != nil {
		return SubjectState{}, err
	}
	upcoming, err := s.repos.Tasks.ListUpcomingTaskViews(&s.subjectID)
	if err != nil {
		return SubjectState{}, err
	}
	completed, err := s.repos.Tasks.ListCompletedTaskViews(&s.subjectID)
	if err != nil {
		return SubjectState{}, err
	}
	sessions, err := s.repos.Sessions.ListSessionsForSubject(s.subjectID)
	if err != nil {
		return SubjectState{}, err
	}

	s.mu.Lock()
	dr := s.draft
	s.mu.Unlock()

	st := SubjectState{
		SubjectID:       s.subjectID,
		StudiedMinutes:  float64(studiedSecs) / 60,
		UpcomingTasks:   upcoming,
		CompletedTasks:  completed,
		Sessions:        sessions,
		SubjectName:     dr.name,
		GoalMinutesText: dr.goalText,
		SubjectColors:   dr.colors,
		PickedSession:   dr.picked,
	}
	if sub != nil {
		st.GoalMinutes = sub.GoalMinutes
	}
	if st.GoalMinutes > 0 {
		st.Progress = st.StudiedMinutes / st.GoalMinutes
		if st.Progress > 1 {
			st.Progress = 1
		}
	}
	return st, nil
}

func (s *SubjectViewModel) updateSubject() {
	s.mu.Lock()
	sub := &store.Subject{
		ID:          s.subjectID,
		Name:        s.draft.name,
		GoalMinutes: parseGoalMinutes(s.draft.goalText),
		Colors:      append([]string(nil), s.draft.colors...),
	}
	s.mu.Unlock()

	s.runner.enqueue(func(ctx context.Context) {
		err := s.repos.Subjects.UpsertSubject(sub)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.notifier.Publish(ShowMessage{Text: "Couldn't update subject. " + err.Error(), Long: true})
			return
		}
		s.notifier.Publish(ShowMessage{Text: "Subject updated successfully"})
	})
}

func (s *SubjectViewModel) deleteSubject() {
	s.runner.enqueue(func(ctx context.Context) {
		err := s.repos.Subjects.DeleteSubject(s.subjectID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.notifier.Publish(ShowMessage{Text: "Couldn't delete subject. " + err.Error(), Long: true})
			return
		}
		s.notifier.Publish(ShowMessage{Text: "Subject deleted successfully"})
		s.notifier.Publish(NavigateBack{})
	})
}

func (s *SubjectViewModel) deleteSession() {
	s.mu.Lock()
	picked := s.draft.picked
	s.mu.Unlock()
	if picked == nil {
		return
	}

	id := picked.ID
	s.runner.enqueue(func(ctx context.Context) {
		err := s.repos.Sessions.DeleteSession(id)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.notifier.Publish(ShowMessage{Text: "Couldn't delete session. " + err.Error(), Long: true})
			return
		}
		s.mu.Lock()
		s.draft.picked = nil
		s.mu.Unlock()
		s.query.Notify()
		s.notifier.Publish(ShowMessage{Text: "Session deleted successfully"})
	})
}

func formatGoalMinutes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *SubjectViewModel) toggleTask(task store.Task) {
	s.runner.enqueue(func(ctx context.Context) {
		task.IsComplete = !task.IsComplete
		err := s.repos.Tasks.UpsertTask(&task)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.notifier.Publish(ShowMessage{Text: "Couldn't update task. " + err.Error(), Long: true})
			return
		}
		s.notifier.Publish(ShowMessage{Text: "Saved in completed tasks."})
	})
}
