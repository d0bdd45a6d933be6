package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/okutan/studia/internal/store"
	"github.com/okutan/studia/internal/validate"
	"github.com/okutan/studia/internal/vm"
)

type subjectFocus int

const (
	subjectFocusUpcoming subjectFocus = iota
	subjectFocusCompleted
	subjectFocusSessions
)

// subjectModel renders one subject's detail screen from its view-model
// snapshot. It exists only while a subject is open.
type subjectModel struct {
	vm     *vm.SubjectViewModel
	name   string
	width  int
	height int

	state  vm.SubjectState
	loaded bool

	focus         subjectFocus
	taskCursor    int
	sessionCursor int

	progress progress.Model

	formActive bool
	form       *huh.Form

	formName    *string
	formGoal    *string
	formPalette *int
}

func newSubjectModel(subVM *vm.SubjectViewModel, name string) subjectModel {
	fname, goal, palette := "", "", 0
	return subjectModel{
		vm:          subVM,
		name:        name,
		progress:    progress.New(progress.WithDefaultGradient()),
		formName:    &fname,
		formGoal:    &goal,
		formPalette: &palette,
	}
}

func (s *subjectModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.progress.Width = min(w-12, 50)
}

func (s *subjectModel) setState(st vm.SubjectState) {
	s.state = st
	s.loaded = true
	s.name = st.SubjectName
	s.taskCursor = clampCursor(s.taskCursor, s.focusedTaskLen())
	s.sessionCursor = clampCursor(s.sessionCursor, len(st.Sessions))
}

func (s subjectModel) focusedTaskLen() int {
	if s.focus == subjectFocusCompleted {
		return len(s.state.CompletedTasks)
	}
	return len(s.state.UpcomingTasks)
}

func (s subjectModel) update(msg tea.Msg) (subjectModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			s.moveCursor(-1)
		case key.Matches(msg, keys.Down):
			s.moveCursor(1)
		case msg.String() == "left", msg.String() == "h":
			if s.focus > subjectFocusUpcoming {
				s.focus--
			}
		case msg.String() == "right", msg.String() == "l":
			if s.focus < subjectFocusSessions {
				s.focus++
			}
		case key.Matches(msg, keys.Edit):
			return s.showEditForm()
		case key.Matches(msg, keys.Toggle):
			if task, ok := s.focusedTask(); ok {
				s.vm.OnEvent(vm.TaskCompletionToggled{Task: task})
			}
		case key.Matches(msg, keys.Delete):
			if s.focus == subjectFocusSessions {
				if s.sessionCursor < len(s.state.Sessions) {
					sn := s.state.Sessions[s.sessionCursor].Session
					s.vm.OnEvent(vm.SessionPickedForDelete{Session: sn})
					s.vm.OnEvent(vm.DeleteSession{})
				}
			} else {
				// Deleting the subject cascades to its tasks and sessions;
				// the view-model navigates back once the delete lands.
				s.vm.OnEvent(vm.DeleteSubject{})
			}
		}
	}
	return s, nil
}

func (s *subjectModel) moveCursor(delta int) {
	if s.focus == subjectFocusSessions {
		s.sessionCursor = clampCursor(s.sessionCursor+delta, len(s.state.Sessions))
	} else {
		s.taskCursor = clampCursor(s.taskCursor+delta, s.focusedTaskLen())
	}
}

func (s subjectModel) focusedTask() (store.Task, bool) {
	var list []store.TaskView
	switch s.focus {
	case subjectFocusUpcoming:
		list = s.state.UpcomingTasks
	case subjectFocusCompleted:
		list = s.state.CompletedTasks
	default:
		return store.Task{}, false
	}
	if s.taskCursor >= len(list) {
		return store.Task{}, false
	}
	return list[s.taskCursor].Task, true
}

func (s subjectModel) showEditForm() (subjectModel, tea.Cmd) {
	*s.formName = s.state.SubjectName
	*s.formGoal = s.state.GoalMinutesText
	*s.formPalette = paletteIndex(s.state.SubjectColors)

	paletteOptions := make([]huh.Option[int], len(store.CardPalettes))
	for i, colors := range store.CardPalettes {
		paletteOptions[i] = huh.NewOption(fmt.Sprintf("● %s", strings.Join(colors, " → ")), i)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject Name").Value(s.formName).Validate(validate.SubjectName),
			huh.NewInput().Title("Goal Study Minutes").Value(s.formGoal).Validate(validate.GoalMinutes),
			huh.NewSelect[int]().Title("Card Colors").Options(paletteOptions...).Value(s.formPalette),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s subjectModel) updateForm(msg tea.Msg) (subjectModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.vm.OnEvent(vm.SubjectNameChanged{Name: *s.formName})
		s.vm.OnEvent(vm.GoalMinutesChanged{Minutes: *s.formGoal})
		s.vm.OnEvent(vm.SubjectColorsChanged{Colors: store.CardPalettes[*s.formPalette]})
		s.vm.OnEvent(vm.UpdateSubject{})
	}

	return s, cmd
}

func paletteIndex(colors []string) int {
	for i, palette := range store.CardPalettes {
		if len(palette) == len(colors) && palette[0] == colors[0] {
			return i
		}
	}
	return 0
}

func (s subjectModel) view() string {
	w := s.width - 4

	if !s.loaded {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Edit Subject")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View())
		return panelStyle.Width(w).Render(content)
	}

	dot := "●"
	if len(s.state.SubjectColors) > 0 {
		dot = lipgloss.NewStyle().Foreground(lipgloss.Color(s.state.SubjectColors[0])).Render("●")
	}
	header := titleStyle.Render(fmt.Sprintf("%s %s", dot, s.state.SubjectName))

	progressLine := fmt.Sprintf("%s  %s / %s",
		s.progress.ViewAs(s.state.Progress),
		highlightStyle.Render(formatMinutes(s.state.StudiedMinutes)),
		mutedStyle.Render(formatMinutes(s.state.GoalMinutes)))

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		s.renderTaskPanel("Upcoming", s.state.UpcomingTasks, subjectFocusUpcoming),
		s.renderTaskPanel("Completed", s.state.CompletedTasks, subjectFocusCompleted),
		s.renderSessionsPanel(),
	)

	nav := mutedStyle.Render("  e: edit  c: toggle task  d: delete  esc: back")

	return lipgloss.JoinVertical(lipgloss.Left, header, "", progressLine, "", panels, nav)
}

func (s subjectModel) renderTaskPanel(title string, tasks []store.TaskView, focus subjectFocus) string {
	var rows []string
	rows = append(rows, titleStyle.Render(title))
	rows = append(rows, "")

	if len(tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks."))
	}
	for i, task := range tasks {
		cursor := "  "
		style := normalItemStyle
		if s.focus == focus && i == s.taskCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := "☐"
		if task.IsComplete {
			mark = successStyle.Render("☑")
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s", cursor, mark, priorityBadge(task.Priority), style.Render(truncate(task.Title, 16))))
	}

	return s.panelFor(focus, strings.Join(rows, "\n"))
}

func (s subjectModel) renderSessionsPanel() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Sessions"))
	rows = append(rows, "")

	if len(s.state.Sessions) == 0 {
		rows = append(rows, mutedStyle.Render("No sessions."))
	}
	for i, sn := range s.state.Sessions {
		cursor := "  "
		style := normalItemStyle
		if s.focus == subjectFocusSessions && i == s.sessionCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", cursor,
			style.Render(formatMinutes(sn.Minutes())),
			mutedStyle.Render(formatDate(sn.Date))))
	}

	return s.panelFor(subjectFocusSessions, strings.Join(rows, "\n"))
}

func (s subjectModel) panelFor(focus subjectFocus, content string) string {
	w := s.width/3 - 4
	if w < 20 {
		w = 20
	}
	style := panelStyle
	if s.focus == focus {
		style = panelStyle.BorderForeground(colorPrimary)
	}
	return style.Width(w).Render(content)
}
