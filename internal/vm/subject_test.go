package vm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okutan/studia/internal/store"
)

func TestSubjectSeedsDraftsFromStore(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Physics", GoalMinutes: 90.5, Colors: store.CardPalettes[3]}
	require.NoError(t, s.UpsertSubject(sub))

	vm := NewSubject(repos, nil, sub.ID)
	defer vm.Close()

	vm.Refresh()
	st := vm.Snapshot()
	assert.Equal(t, "Physics", st.SubjectName)
	assert.Equal(t, "90.5", st.GoalMinutesText)
	assert.Equal(t, store.CardPalettes[3], st.SubjectColors)
	assert.Equal(t, sub.ID, st.SubjectID)
}

func TestSubjectProgress(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Math", GoalMinutes: 60}
	require.NoError(t, s.UpsertSubject(sub))
	require.NoError(t, s.InsertSession(&store.Session{SubjectID: sub.ID, Duration: 30 * 60, Date: time.Now()}))

	vm := NewSubject(repos, nil, sub.ID)
	defer vm.Close()

	vm.Refresh()
	st := vm.Snapshot()
	assert.Equal(t, 30.0, st.StudiedMinutes)
	assert.Equal(t, 60.0, st.GoalMinutes)
	assert.Equal(t, 0.5, st.Progress)
}

func TestSubjectProgressClampsAtOne(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Math", GoalMinutes: 10}
	require.NoError(t, s.UpsertSubject(sub))
	require.NoError(t, s.InsertSession(&store.Session{SubjectID: sub.ID, Duration: 3600, Date: time.Now()}))

	vm := NewSubject(repos, nil, sub.ID)
	defer vm.Close()

	vm.Refresh()
	assert.Equal(t, 1.0, vm.Snapshot().Progress)
}

func TestSubjectTaskPartition(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Math", GoalMinutes: 60}
	require.NoError(t, s.UpsertSubject(sub))

	id := sub.ID
	require.NoError(t, s.UpsertTask(&store.Task{SubjectID: &id, Title: "Open"}))
	require.NoError(t, s.UpsertTask(&store.Task{SubjectID: &id, Title: "Done", IsComplete: true}))
	// A task for another scope must not bleed in.
	require.NoError(t, s.UpsertTask(&store.Task{Title: "Unrelated"}))

	vm := NewSubject(repos, nil, sub.ID)
	defer vm.Close()

	vm.Refresh()
	st := vm.Snapshot()
	require.Len(t, st.UpcomingTasks, 1)
	require.Len(t, st.CompletedTasks, 1)
	assert.Equal(t, "Open", st.UpcomingTasks[0].Title)
	assert.Equal(t, "Done", st.CompletedTasks[0].Title)
}

func TestSubjectUpdate(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Math", GoalMinutes: 60}
	require.NoError(t, s.UpsertSubject(sub))

	vm := NewSubject(repos, nil, sub.ID)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(SubjectNameChanged{Name: "Mathematics"})
	vm.OnEvent(GoalMinutesChanged{Minutes: "180"})
	vm.OnEvent(UpdateSubject{})

	note := recvNote(t, notes)
	assert.Equal(t, ShowMessage{Text: "Subject updated successfully"}, note)

	updated, err := s.GetSubject(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", updated.Name)
	assert.Equal(t, 180.0, updated.GoalMinutes)
}

func TestSubjectDeleteNavigatesBack(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Math", GoalMinutes: 60}
	require.NoError(t, s.UpsertSubject(sub))
	id := sub.ID
	require.NoError(t, s.UpsertTask(&store.Task{SubjectID: &id, Title: "Homework"}))
	require.NoError(t, s.InsertSession(&store.Session{SubjectID: sub.ID, Duration: 600, Date: time.Now()}))

	vm := NewSubject(repos, nil, sub.ID)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(DeleteSubject{})

	// The confirmation precedes the navigation.
	assert.Equal(t, ShowMessage{Text: "Subject deleted successfully"}, recvNote(t, notes))
	assert.Equal(t, NavigateBack{}, recvNote(t, notes))

	gone, err := s.GetSubject(sub.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	tasks, _ := s.ListUpcomingTaskViews(&id)
	assert.Empty(t, tasks, "cascade removes the subject's tasks")
	sessions, _ := s.ListSessionsForSubject(sub.ID)
	assert.Empty(t, sessions, "cascade removes the subject's sessions")
}

func TestSubjectDeleteSessionUpdatesProgress(t *testing.T) {
	repos, s := newTestRepos(t)
	sub := &store.Subject{Name: "Math", GoalMinutes: 60}
	require.NoError(t, s.UpsertSubject(sub))
	sn := &store.Session{SubjectID: sub.ID, Duration: 30 * 60, Date: time.Now()}
	require.NoError(t, s.InsertSession(sn))

	vm := NewSubject(repos, nil, sub.ID)
	defer vm.Close()

	notes, cancel := vm.Notifications()
	defer cancel()

	vm.OnEvent(SessionPickedForDelete{Session: *sn})
	vm.OnEvent(DeleteSession{})
	recvNote(t, notes)

	vm.Refresh()
	st := vm.Snapshot()
	assert.Equal(t, 0.0, st.StudiedMinutes)
	assert.Equal(t, 0.0, st.Progress)
	assert.Empty(t, st.Sessions)
}

func TestFormatGoalMinutes(t *testing.T) {
	assert.Equal(t, "60", formatGoalMinutes(60))
	assert.Equal(t, "90.5", formatGoalMinutes(90.5))
}
