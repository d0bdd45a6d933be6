package vm

import (
	"context"
	"strconv"
	"sync"

	"github.com/okutan/studia/internal/livequery"
	"github.com/okutan/studia/internal/store"
)

// DashboardState is the immutable snapshot the dashboard renders from.
// It is rebuilt, never mutated: durable fields come from live queries,
// draft fields from the view-model's local editor state.
type DashboardState struct {
	TotalSubjectCount   int
	TotalGoalMinutes    float64
	TotalStudiedMinutes float64
	Subjects            []store.Subject
	StudySummary        []store.StudySummary
	UpcomingTasks       []store.TaskView
	RecentSessions      []store.SessionView

	// Draft fields for the add-subject dialog.
	SubjectName     string
	GoalMinutesText string
	SubjectColors   []string

	// Session selected for deletion, nil when none.
	PickedSession *store.Session
}

// DashboardViewModel is the dashboard's single mutation entry point: the
// UI dispatches events into OnEvent, draft edits apply synchronously, and
// persist commands run in order on a screen-scoped worker.
type DashboardViewModel struct {
	repos Repos

	mu    sync.Mutex
	draft dashboardDraft

	query    *livequery.Query[DashboardState]
	notifier *Notifier
	runner   *runner
}

type dashboardDraft struct {
	name     string
	goalText string
	colors   []string
	picked   *store.Session
}

// NewDashboard wires a dashboard view-model over the given repositories.
// changed should signal whenever subjects, tasks or sessions mutate.
func NewDashboard(repos Repos, changed <-chan struct{}) *DashboardViewModel {
	d := &DashboardViewModel{
		repos:    repos,
		notifier: NewNotifier(),
		runner:   newRunner(),
	}
	d.draft.colors = store.RandomPalette()
	d.query = livequery.New(DashboardState{SubjectColors: d.draft.colors}, d.buildState, changed)
	return d
}

// Snapshot returns the current combined state.
func (d *DashboardViewModel) Snapshot() DashboardState {
	return d.query.Latest()
}

// Refresh synchronously recombines the snapshot, for screens that want
// current data at attach time without waiting for a change signal.
func (d *DashboardViewModel) Refresh() {
	d.query.Notify()
}

// Subscribe observes every recombined snapshot, starting with the current one.
func (d *DashboardViewModel) Subscribe() (<-chan DashboardState, func()) {
	return d.query.Subscribe()
}

// Notifications observes transient outcome messages.
func (d *DashboardViewModel) Notifications() (<-chan Notification, func()) {
	return d.notifier.Subscribe()
}

// Close cancels in-flight persist commands and tears down the snapshot
// and notification streams. Canceled commands emit no notifications.
func (d *DashboardViewModel) Close() {
	d.runner.close()
	d.notifier.closeAll()
	d.query.Close()
}

// OnEvent dispatches a user intent. The event set is closed; every
// variant is handled here.
func (d *DashboardViewModel) OnEvent(ev DashboardEvent) {
	switch ev := ev.(type) {
	case SubjectNameChanged:
		d.editDraft(func(dr *dashboardDraft) { dr.name = ev.Name })
	case GoalMinutesChanged:
		d.editDraft(func(dr *dashboardDraft) { dr.goalText = ev.Minutes })
	case SubjectColorsChanged:
		d.editDraft(func(dr *dashboardDraft) { dr.colors = ev.Colors })
	case SessionPickedForDelete:
		sn := ev.Session
		d.editDraft(func(dr *dashboardDraft) { dr.picked = &sn })
	case SaveSubject:
		d.saveSubject()
	case DeleteSession:
		d.deleteSession()
	case TaskCompletionToggled:
		d.toggleTask(ev.Task)
	}
}

func (d *DashboardViewModel) editDraft(apply func(*dashboardDraft)) {
	d.mu.Lock()
	apply(&d.draft)
	d.mu.Unlock()
	d.query.Notify()
}

func (d *DashboardViewModel) buildState() (DashboardState, error) {
	count, err := d.repos.Subjects.CountSubjects()
	if err != nil {
		return DashboardState{}, err
	}
	goal, err := d.repos.Subjects.TotalGoalMinutes()
	if err != nil {
		return DashboardState{}, err
	}
	subjects, err := d.repos.Subjects.ListSubjects()
	if err != nil {
		return DashboardState{}, err
	}
	studiedSecs, err := d.repos.Sessions.TotalSessionSeconds()
	if err != nil {
		return DashboardState{}, err
	}
	tasks, err := d.repos.Tasks.ListUpcomingTaskViews(nil)
	if err != nil {
		return DashboardState{}, err
	}
	recent, err := d.repos.Sessions.ListRecentSessions(5)
	if err != nil {
		return DashboardState{}, err
	}
	summary, err := d.repos.Sessions.SubjectStudySummary()
	if err != nil {
		return DashboardState{}, err
	}

	d.mu.Lock()
	dr := d.draft
	d.mu.Unlock()

	return DashboardState{
		TotalSubjectCount:   count,
		TotalGoalMinutes:    goal,
		TotalStudiedMinutes: float64(studiedSecs) / 60,
		Subjects:            subjects,
		StudySummary:        summary,
		UpcomingTasks:       tasks,
		RecentSessions:      recent,
		SubjectName:         dr.name,
		GoalMinutesText:     dr.goalText,
		SubjectColors:       dr.colors,
		PickedSession:       dr.picked,
	}, nil
}

func (d *DashboardViewModel) saveSubject() {
	d.mu.Lock()
	sub := &store.Subject{
		Name:        d.draft.name,
		GoalMinutes: parseGoalMinutes(d.draft.goalText),
		Colors:      append([]string(nil), d.draft.colors...),
	}
	d.mu.Unlock()

	d.runner.enqueue(func(ctx context.Context) {
		err := d.repos.Subjects.UpsertSubject(sub)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.notifier.Publish(ShowMessage{Text: "Couldn't save subject. " + err.Error(), Long: true})
			return
		}
		// Only success resets the dialog drafts.
		d.mu.Lock()
		d.draft.name = ""
		d.draft.goalText = ""
		d.draft.colors = store.RandomPalette()
		d.mu.Unlock()
		d.query.Notify()
		d.notifier.Publish(ShowMessage{Text: "Subject saved successfully"})
	})
}

func (d *DashboardViewModel) deleteSession() {
	d.mu.Lock()
	picked := d.draft.picked
	d.mu.Unlock()
	if picked == nil {
		// Nothing selected: silent no-op, not an error.
		return
	}

	id := picked.ID
	d.runner.enqueue(func(ctx context.Context) {
		err := d.repos.Sessions.DeleteSession(id)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.notifier.Publish(ShowMessage{Text: "Couldn't delete session. " + err.Error(), Long: true})
			return
		}
		d.mu.Lock()
		d.draft.picked = nil
		d.mu.Unlock()
		d.query.Notify()
		d.notifier.Publish(ShowMessage{Text: "Session deleted successfully"})
	})
}

func (d *DashboardViewModel) toggleTask(task store.Task) {
	d.runner.enqueue(func(ctx context.Context) {
		task.IsComplete = !task.IsComplete
		err := d.repos.Tasks.UpsertTask(&task)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.notifier.Publish(ShowMessage{Text: "Couldn't update task. " + err.Error(), Long: true})
			return
		}
		d.notifier.Publish(ShowMessage{Text: "Saved in completed tasks."})
	})
}

// parseGoalMinutes mirrors the dialog's numeric field: the UI boundary
// validates before dispatch, so a non-numeric draft here falls back to
// the minimum goal rather than failing the save.
func parseGoalMinutes(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1
	}
	return v
}
