package vm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okutan/studia/internal/store"
)

func TestTaskSaveAssignsIDAndNavigatesBack(t *testing.T) {
	repos, s := newTestRepos(t)
	vm := NewTask(repos, nil, 0, nil)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	due := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	vm.OnEvent(TitleChanged{Title: "Read chapter 4"})
	vm.OnEvent(DescriptionChanged{Description: "Pages 80-120"})
	vm.OnEvent(DueDateChanged{Date: &due})
	vm.OnEvent(PriorityChanged{Priority: store.PriorityHigh})
	vm.OnEvent(SaveTask{})

	assert.Equal(t, ShowMessage{Text: "Task saved successfully"}, recvNote(t, notes))
	assert.Equal(t, NavigateBack{}, recvNote(t, notes))

	views, err := s.ListUpcomingTaskViews(nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Read chapter 4", views[0].Title)
	assert.Equal(t, store.PriorityHigh, views[0].Priority)
	require.NotNil(t, views[0].DueDate)
	assert.True(t, views[0].DueDate.Equal(due))
}

func TestTaskResaveUpdatesInsteadOfDuplicating(t *testing.T) {
	repos, s := newTestRepos(t)
	vm := NewTask(repos, nil, 0, nil)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(TitleChanged{Title: "First"})
	vm.OnEvent(SaveTask{})
	recvNote(t, notes) // saved
	recvNote(t, notes) // navigate back

	// The view-model adopted the assigned id; a re-save edits the row.
	vm.OnEvent(TitleChanged{Title: "Second"})
	vm.OnEvent(SaveTask{})
	recvNote(t, notes)
	recvNote(t, notes)

	views, err := s.ListUpcomingTaskViews(nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Second", views[0].Title)
}

func TestTaskSeedsFromExisting(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Latin", GoalMinutes: 20}
	require.NoError(t, s.UpsertSubject(sub))

	id := sub.ID
	task := &store.Task{SubjectID: &id, Title: "Declensions", Priority: store.PriorityMedium}
	require.NoError(t, s.UpsertTask(task))

	vm := NewTask(repos, nil, task.ID, nil)
	defer vm.Close()

	vm.Refresh()
	st := vm.Snapshot()
	assert.Equal(t, "Declensions", st.Title)
	assert.Equal(t, store.PriorityMedium, st.Priority)
	require.NotNil(t, st.RelatedSubjectID)
	assert.Equal(t, sub.ID, *st.RelatedSubjectID)
	assert.Equal(t, "Latin", st.RelatedSubjectName)
}

func TestTaskSnapshotListsSubjects(t *testing.T) {
	repos, s := newTestRepos(t)
	require.NoError(t, s.UpsertSubject(&store.Subject{Name: "Math", GoalMinutes: 60}))
	require.NoError(t, s.UpsertSubject(&store.Subject{Name: "Art", GoalMinutes: 30}))

	vm := NewTask(repos, nil, 0, nil)
	defer vm.Close()

	vm.Refresh()
	st := vm.Snapshot()
	require.Len(t, st.Subjects, 2)
	assert.Equal(t, "Art", st.Subjects[0].Name, "picker options are sorted by name")
}

func TestTaskRelatedSubjectSelected(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Math", GoalMinutes: 60}
	require.NoError(t, s.UpsertSubject(sub))

	vm := NewTask(repos, nil, 0, nil)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(TitleChanged{Title: "Exercises"})
	vm.OnEvent(RelatedSubjectSelected{Subject: *sub})
	vm.OnEvent(SaveTask{})
	recvNote(t, notes)
	recvNote(t, notes)

	views, err := s.ListUpcomingTaskViews(nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Math", views[0].SubjectName)
}

func TestTaskDeleteUnsavedIsNoOp(t *testing.T) {
	repos, _ := newTestRepos(t)
	vm := NewTask(repos, nil, 0, nil)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(DeleteTask{})
	expectNoNote(t, notes)
}

func TestTaskDelete(t *testing.T) {
	repos, s := newTestRepos(t)
	task := &store.Task{Title: "Ephemeral"}
	require.NoError(t, s.UpsertTask(task))

	vm := NewTask(repos, nil, task.ID, nil)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(DeleteTask{})

	assert.Equal(t, ShowMessage{Text: "Task deleted successfully"}, recvNote(t, notes))
	assert.Equal(t, NavigateBack{}, recvNote(t, notes))

	gone, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTaskCompletionToggledDraft(t *testing.T) {
	repos, s := newTestRepos(t)
	vm := NewTask(repos, nil, 0, nil)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(TitleChanged{Title: "Done on arrival"})
	vm.OnEvent(CompletionToggled{})
	vm.OnEvent(SaveTask{})
	recvNote(t, notes)
	recvNote(t, notes)

	completed, err := s.ListCompletedTaskViews(nil)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Done on arrival", completed[0].Title)
}
