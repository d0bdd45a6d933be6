package vm

import (
	"context"
	"sync"
	"time"

	"github.com/okutan/studia/internal/livequery"
	"github.com/okutan/studia/internal/store"
)

// TaskState is the snapshot for the task editor screen.
type TaskState struct {
	Title              string
	Description        string
	DueDate            *time.Time
	Priority           store.Priority
	IsComplete         bool
	RelatedSubjectID   *int64
	RelatedSubjectName string

	// Subjects feeds the related-subject picker.
	Subjects []store.Subject
}

// TaskViewModel drives the task editor. A zero taskID means a new task;
// after the first successful save the assigned id is kept, so repeating
// the save command re-persists the same record instead of duplicating it.
type TaskViewModel struct {
	repos Repos

	mu     sync.Mutex
	taskID int64
	draft  taskDraft

	query    *livequery.Query[TaskState]
	notifier *Notifier
	runner   *runner
}

type taskDraft struct {
	title       string
	description string
	due         *time.Time
	priority    store.Priority
	isComplete  bool
	subjectID   *int64
	subjectName string
}

// NewTask builds the editor view-model. For an existing task the drafts
// are seeded from storage; for a new one, subjectID (when non-nil)
// preselects the related subject.
func NewTask(repos Repos, changed <-chan struct{}, taskID int64, subjectID *int64) *TaskViewModel {
	t := &TaskViewModel{
		repos:    repos,
		taskID:   taskID,
		notifier: NewNotifier(),
		runner:   newRunner(),
	}
	t.draft.priority = store.PriorityLow
	t.draft.subjectID = subjectID

	if taskID != 0 {
		if task, err := repos.Tasks.GetTask(taskID); err == nil && task != nil {
			t.draft.title = task.Title
			t.draft.description = task.Description
			t.draft.due = task.DueDate
			t.draft.priority = task.Priority
			t.draft.isComplete = task.IsComplete
			t.draft.subjectID = task.SubjectID
		}
	}
	if t.draft.subjectID != nil {
		if sub, err := repos.Subjects.GetSubject(*t.draft.subjectID); err == nil && sub != nil {
			t.draft.subjectName = sub.Name
		}
	}

	t.query = livequery.New(TaskState{Priority: t.draft.priority}, t.buildState, changed)
	return t
}

func (t *TaskViewModel) Snapshot() TaskState {
	return t.query.Latest()
}

// Refresh synchronously recombines the snapshot.
func (t *TaskViewModel) Refresh() {
	t.query.Notify()
}

func (t *TaskViewModel) Subscribe() (<-chan TaskState, func()) {
	return t.query.Subscribe()
}

func (t *TaskViewModel) Notifications() (<-chan Notification, func()) {
	return t.notifier.Subscribe()
}

func (t *TaskViewModel) Close() {
	t.runner.close()
	t.notifier.closeAll()
	t.query.Close()
}

// OnEvent dispatches a user intent; the event set is closed.
func (t *TaskViewModel) OnEvent(ev TaskEvent) {
	switch ev := ev.(type) {
	case TitleChanged:
		t.editDraft(func(dr *taskDraft) { dr.title = ev.Title })
	case DescriptionChanged:
		t.editDraft(func(dr *taskDraft) { dr.description = ev.Description })
	case DueDateChanged:
		t.editDraft(func(dr *taskDraft) { dr.due = ev.Date })
	case PriorityChanged:
		t.editDraft(func(dr *taskDraft) { dr.priority = ev.Priority })
	case RelatedSubjectSelected:
		id := ev.Subject.ID
		name := ev.Subject.Name
		t.editDraft(func(dr *taskDraft) {
			dr.subjectID = &id
			dr.subjectName = name
		})
	case CompletionToggled:
		t.editDraft(func(dr *taskDraft) { dr.isComplete = !dr.isComplete })
	case SaveTask:
		t.saveTask()
	case DeleteTask:
		t.deleteTask()
	}
}

func (t *TaskViewModel) editDraft(apply func(*taskDraft)) {
	t.mu.Lock()
	apply(&t.draft)
	t.mu.Unlock()
	t.query.Notify()
}

func (t *TaskViewModel) buildState() (TaskState, error) {
	subjects, err := t.repos.Subjects.ListSubjects()
	if err != nil {
		return TaskState{}, err
	}

	t.mu.Lock()
	dr := t.draft
	t.mu.Unlock()

	return TaskState{
		Title:              dr.title,
		Description:        dr.description,
		DueDate:            dr.due,
		Priority:           dr.priority,
		IsComplete:         dr.isComplete,
		RelatedSubjectID:   dr.subjectID,
		RelatedSubjectName: dr.subjectName,
		Subjects:           subjects,
	}, nil
}

func (t *TaskViewModel) saveTask() {
	t.mu.Lock()
	task := &store.Task{
		ID:          t.taskID,
		SubjectID:   t.draft.subjectID,
		Title:       t.draft.title,
		Description: t.draft.description,
		DueDate:     t.draft.due,
		Priority:    t.draft.priority,
		IsComplete:  t.draft.isComplete,
	}
	t.mu.Unlock()

	t.runner.enqueue(func(ctx context.Context) {
		err := t.repos.Tasks.UpsertTask(task)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			t.notifier.Publish(ShowMessage{Text: "Couldn't save task. " + err.Error(), Long: true})
			return
		}
		t.mu.Lock()
		t.taskID = task.ID
		t.mu.Unlock()
		t.notifier.Publish(ShowMessage{Text: "Task saved successfully"})
		t.notifier.Publish(NavigateBack{})
	})
}

func (t *TaskViewModel) deleteTask() {
	t.mu.Lock()
	id := t.taskID
	t.mu.Unlock()
	if id == 0 {
		// Never persisted: nothing to delete.
		return
	}

	t.runner.enqueue(func(ctx context.Context) {
		err := t.repos.Tasks.DeleteTask(id)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			t.notifier.Publish(ShowMessage{Text: "Couldn't delete task. " + err.Error(), Long: true})
			return
		}
		t.notifier.Publish(ShowMessage{Text: "Task deleted successfully"})
		t.notifier.Publish(NavigateBack{})
	})
}
