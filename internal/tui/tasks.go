package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/okutan/studia/internal/store"
	"github.com/okutan/studia/internal/validate"
	"github.com/okutan/studia/internal/vm"
)

// tasksModel lists every task and hosts the task editor. The list loads
// on demand (tab switch, editor close); the editor is a TaskViewModel.
type tasksModel struct {
	repos  vm.Repos
	width  int
	height int

	upcoming  []store.TaskView
	completed []store.TaskView

	showCompleted bool
	cursor        int

	editor       *vm.TaskViewModel
	editorNotes  <-chan vm.Notification
	cancelNotes  func()
	editorActive bool
	form         *huh.Form

	formTitle    *string
	formDesc     *string
	formDue      *string
	formPriority *int
	formSubject  *int64
}

func newTasksModel(repos vm.Repos) tasksModel {
	title, desc, due := "", "", ""
	priority := 0
	subject := int64(-1)
	return tasksModel{
		repos:        repos,
		formTitle:    &title,
		formDesc:     &desc,
		formDue:      &due,
		formPriority: &priority,
		formSubject:  &subject,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tasksDataMsg struct {
	upcoming  []store.TaskView
	completed []store.TaskView
}

func (t tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		upcoming, _ := t.repos.Tasks.ListUpcomingTaskViews(nil)
		completed, _ := t.repos.Tasks.ListCompletedTaskViews(nil)
		return tasksDataMsg{upcoming: upcoming, completed: completed}
	}
}

func (t tasksModel) visible() []store.TaskView {
	if t.showCompleted {
		return t.completed
	}
	return t.upcoming
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksDataMsg:
		t.upcoming = msg.upcoming
		t.completed = msg.completed
		t.cursor = clampCursor(t.cursor, len(t.visible()))
		return t, nil

	case notificationMsg:
		// Editor outcomes: a NavigateBack closes the editor. Anything else
		// keeps the stream alive so the trailing NavigateBack still arrives.
		if _, ok := msg.note.(vm.NavigateBack); ok {
			t.closeEditor()
			return t, t.refresh()
		}
		if note, ok := msg.note.(vm.ShowMessage); ok && note.Long {
			// Persist failed; drop back to the list, the error is in the
			// status line.
			t.closeEditor()
			return t, t.refresh()
		}
		if t.editorNotes != nil {
			return t, listen(t.editorNotes, func(n vm.Notification) tea.Msg {
				return notificationMsg{note: n, from: viewTasks}
			})
		}
		return t, nil
	}

	if t.editorActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			t.cursor = clampCursor(t.cursor-1, len(t.visible()))
		case key.Matches(msg, keys.Down):
			t.cursor = clampCursor(t.cursor+1, len(t.visible()))
		case msg.String() == "left", msg.String() == "h":
			t.showCompleted = false
			t.cursor = 0
		case msg.String() == "right", msg.String() == "l":
			t.showCompleted = true
			t.cursor = 0
		case key.Matches(msg, keys.New):
			return t.openEditor(0)
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			if list := t.visible(); t.cursor < len(list) {
				return t.openEditor(list[t.cursor].ID)
			}
		case key.Matches(msg, keys.Toggle):
			if list := t.visible(); t.cursor < len(list) {
				task := list[t.cursor].Task
				task.IsComplete = !task.IsComplete
				if err := t.repos.Tasks.UpsertTask(&task); err != nil {
					return t, func() tea.Msg {
						return statusMsg{text: fmt.Sprintf("Couldn't update task. %v", err), isError: true}
					}
				}
				return t, t.refresh()
			}
		}
	}
	return t, nil
}

func (t tasksModel) openEditor(taskID int64) (tasksModel, tea.Cmd) {
	// The editor view-model needs no change feed: its snapshot is drafts
	// plus a one-shot subject list.
	t.editor = vm.NewTask(t.repos, nil, taskID, nil)
	t.editor.Refresh()
	st := t.editor.Snapshot()

	notes, cancel := t.editor.Notifications()
	t.editorNotes = notes
	t.cancelNotes = cancel

	*t.formTitle = st.Title
	*t.formDesc = st.Description
	*t.formDue = ""
	if st.DueDate != nil {
		*t.formDue = st.DueDate.Local().Format("2006-01-02")
	}
	*t.formPriority = int(st.Priority)
	*t.formSubject = -1
	if st.RelatedSubjectID != nil {
		*t.formSubject = *st.RelatedSubjectID
	}

	priorityOptions := []huh.Option[int]{
		huh.NewOption("Low", int(store.PriorityLow)),
		huh.NewOption("Medium", int(store.PriorityMedium)),
		huh.NewOption("High", int(store.PriorityHigh)),
	}
	subjectOptions := []huh.Option[int64]{huh.NewOption("(none)", int64(-1))}
	for _, sub := range st.Subjects {
		subjectOptions = append(subjectOptions, huh.NewOption(sub.Name, sub.ID))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.formTitle).Validate(validate.TaskTitle),
			huh.NewInput().Title("Description").Value(t.formDesc),
			huh.NewInput().Title("Due Date (YYYY-MM-DD)").Value(t.formDue).Validate(validateDueDate),
			huh.NewSelect[int]().Title("Priority").Options(priorityOptions...).Value(t.formPriority),
			huh.NewSelect[int64]().Title("Related Subject").Options(subjectOptions...).Value(t.formSubject),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.editorActive = true
	return t, tea.Batch(t.form.Init(), listen(notes, func(n vm.Notification) tea.Msg {
		return notificationMsg{note: n, from: viewTasks}
	}))
}

func (t *tasksModel) closeEditor() {
	// Close first so the notification channel closes and any pending
	// listen command returns; cancel only unregisters.
	if t.editor != nil {
		t.editor.Close()
		t.editor = nil
	}
	if t.cancelNotes != nil {
		t.cancelNotes()
		t.cancelNotes = nil
	}
	t.editorNotes = nil
	t.editorActive = false
	t.form = nil
}

func validateDueDate(s string) error {
	if s == "" {
		return nil
	}
	_, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.closeEditor()
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted && t.editor != nil {
		ed := t.editor
		ed.OnEvent(vm.TitleChanged{Title: *t.formTitle})
		ed.OnEvent(vm.DescriptionChanged{Description: *t.formDesc})
		if *t.formDue != "" {
			due, _ := time.ParseInLocation("2006-01-02", *t.formDue, time.Local)
			ed.OnEvent(vm.DueDateChanged{Date: &due})
		} else {
			ed.OnEvent(vm.DueDateChanged{Date: nil})
		}
		ed.OnEvent(vm.PriorityChanged{Priority: store.Priority(*t.formPriority)})
		if *t.formSubject >= 0 {
			for _, sub := range ed.Snapshot().Subjects {
				if sub.ID == *t.formSubject {
					ed.OnEvent(vm.RelatedSubjectSelected{Subject: sub})
					break
				}
			}
		}
		ed.OnEvent(vm.SaveTask{})
		// The editor stays open until its NavigateBack notification lands.
		t.form = nil
	}

	return t, cmd
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.editorActive {
		title := titleStyle.Render("Edit Task")
		body := mutedStyle.Render("Saving...")
		if t.form != nil {
			body = t.form.View()
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body)
		return panelStyle.Width(w).Render(content)
	}

	heading := "Upcoming Tasks"
	if t.showCompleted {
		heading = "Completed Tasks"
	}

	var rows []string
	rows = append(rows, titleStyle.Render(heading))
	rows = append(rows, "")

	list := t.visible()
	if len(list) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks here. Press n to create one."))
	}
	for i, task := range list {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := "☐"
		if task.IsComplete {
			mark = successStyle.Render("☑")
		}
		subject := ""
		if task.SubjectName != "" {
			dot := "●"
			if task.SubjectColor != "" {
				dot = lipgloss.NewStyle().Foreground(lipgloss.Color(task.SubjectColor)).Render("●")
			}
			subject = fmt.Sprintf(" %s %s", dot, mutedStyle.Render(task.SubjectName))
		}
		due := ""
		if task.DueDate != nil {
			due = " " + mutedStyle.Render(formatDate(*task.DueDate))
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s%s%s",
			cursor, mark, priorityBadge(task.Priority), style.Render(truncate(task.Title, 28)), subject, due))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: edit  c: toggle  ←/→: upcoming/completed"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
