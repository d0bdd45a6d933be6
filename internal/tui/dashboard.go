package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/okutan/studia/internal/store"
	"github.com/okutan/studia/internal/validate"
	"github.com/okutan/studia/internal/vm"
)

// dashboardFocus selects which panel the cursor keys act on.
type dashboardFocus int

const (
	focusSubjects dashboardFocus = iota
	focusTasks
	focusSessions
)

type dashboardModel struct {
	vm     *vm.DashboardViewModel
	width  int
	height int

	state vm.DashboardState

	focus         dashboardFocus
	subjectCursor int
	taskCursor    int
	sessionCursor int
	highlightList bool // set when a recorded session deep-links here

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName    *string
	formGoal    *string
	formPalette *int

	chart barchart.Model
}

func newDashboardModel(dashVM *vm.DashboardViewModel) dashboardModel {
	name, goal, palette := "", "", 0
	return dashboardModel{
		vm:          dashVM,
		formName:    &name,
		formGoal:    &goal,
		formPalette: &palette,
		chart:       barchart.New(50, 8),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d *dashboardModel) setState(st vm.DashboardState) {
	d.state = st
	d.subjectCursor = clampCursor(d.subjectCursor, len(st.Subjects))
	d.taskCursor = clampCursor(d.taskCursor, len(st.UpcomingTasks))
	d.sessionCursor = clampCursor(d.sessionCursor, len(st.RecentSessions))
	d.buildChart()
}

func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// selectedSubject returns the subject under the cursor, or nil.
func (d dashboardModel) selectedSubject() *store.Subject {
	if d.focus != focusSubjects || d.subjectCursor >= len(d.state.Subjects) {
		return nil
	}
	sub := d.state.Subjects[d.subjectCursor]
	return &sub
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			d.moveCursor(-1)
		case key.Matches(msg, keys.Down):
			d.moveCursor(1)
		case msg.String() == "left", msg.String() == "h":
			if d.focus > focusSubjects {
				d.focus--
			}
		case msg.String() == "right", msg.String() == "l":
			if d.focus < focusSessions {
				d.focus++
			}
		case key.Matches(msg, keys.New):
			return d.showAddSubjectForm()
		case key.Matches(msg, keys.Toggle):
			if d.focus == focusTasks && d.taskCursor < len(d.state.UpcomingTasks) {
				task := d.state.UpcomingTasks[d.taskCursor].Task
				d.vm.OnEvent(vm.TaskCompletionToggled{Task: task})
			}
		case key.Matches(msg, keys.Delete):
			if d.focus == focusSessions && d.sessionCursor < len(d.state.RecentSessions) {
				sn := d.state.RecentSessions[d.sessionCursor].Session
				d.vm.OnEvent(vm.SessionPickedForDelete{Session: sn})
				d.vm.OnEvent(vm.DeleteSession{})
			}
		}
	}
	return d, nil
}

func (d *dashboardModel) moveCursor(delta int) {
	switch d.focus {
	case focusSubjects:
		d.subjectCursor = clampCursor(d.subjectCursor+delta, len(d.state.Subjects))
	case focusTasks:
		d.taskCursor = clampCursor(d.taskCursor+delta, len(d.state.UpcomingTasks))
	case focusSessions:
		d.sessionCursor = clampCursor(d.sessionCursor+delta, len(d.state.RecentSessions))
	}
}

func (d dashboardModel) showAddSubjectForm() (dashboardModel, tea.Cmd) {
	*d.formName = ""
	*d.formGoal = ""
	*d.formPalette = 0

	paletteOptions := make([]huh.Option[int], len(store.CardPalettes))
	for i, colors := range store.CardPalettes {
		paletteOptions[i] = huh.NewOption(fmt.Sprintf("● %s", strings.Join(colors, " → ")), i)
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject Name").Value(d.formName).Validate(validate.SubjectName),
			huh.NewInput().Title("Goal Study Minutes").Value(d.formGoal).Validate(validate.GoalMinutes),
			huh.NewSelect[int]().Title("Card Colors").Options(paletteOptions...).Value(d.formPalette),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		// huh blocked completion until validation passed; the dispatcher
		// trusts these values.
		d.vm.OnEvent(vm.SubjectNameChanged{Name: *d.formName})
		d.vm.OnEvent(vm.GoalMinutesChanged{Minutes: *d.formGoal})
		d.vm.OnEvent(vm.SubjectColorsChanged{Colors: store.CardPalettes[*d.formPalette]})
		d.vm.OnEvent(vm.SaveSubject{})
	}

	return d, cmd
}

func (d *dashboardModel) buildChart() {
	chartWidth := d.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	if chartWidth > 60 {
		chartWidth = 60
	}
	d.chart = barchart.New(chartWidth, 8)

	var bars []barchart.BarData
	for _, sum := range d.state.StudySummary {
		color := sum.SubjectColor
		if color == "" {
			color = string(colorPrimary)
		}
		bars = append(bars, barchart.BarData{
			Label: truncate(sum.SubjectName, 8),
			Values: []barchart.BarValue{{
				Name:  sum.SubjectName,
				Value: float64(sum.TotalSeconds) / 60,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(color)),
			}},
		})
	}
	d.chart.PushAll(bars)
	d.chart.Draw()
}

func (d dashboardModel) view() string {
	if d.formActive && d.form != nil {
		title := titleStyle.Render("Add Subject")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View())
		return panelStyle.Width(d.width - 4).Render(content)
	}

	cards := d.renderCards()
	chart := d.renderChart()
	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		d.renderSubjects(),
		d.renderTasks(),
		d.renderSessions(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, cards, chart, panels)
}

func (d dashboardModel) renderCards() string {
	count := cardStyle.Render(fmt.Sprintf("%s\n%d", mutedStyle.Render("Subjects"), d.state.TotalSubjectCount))
	goal := cardStyle.Render(fmt.Sprintf("%s\n%s", mutedStyle.Render("Goal"), formatMinutes(d.state.TotalGoalMinutes)))
	studied := cardStyle.Render(fmt.Sprintf("%s\n%s", mutedStyle.Render("Studied"), formatMinutes(d.state.TotalStudiedMinutes)))
	return lipgloss.JoinHorizontal(lipgloss.Top, count, goal, studied)
}

func (d dashboardModel) renderChart() string {
	if len(d.state.StudySummary) == 0 {
		return ""
	}
	return panelStyle.Render(titleStyle.Render("Studied minutes by subject") + "\n" + d.chart.View())
}

func (d dashboardModel) renderSubjects() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Subjects"))
	rows = append(rows, "")

	if len(d.state.Subjects) == 0 {
		rows = append(rows, mutedStyle.Render("No subjects yet."))
		rows = append(rows, mutedStyle.Render("Press n to add one."))
	}
	for i, sub := range d.state.Subjects {
		dot := "●"
		if len(sub.Colors) > 0 {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(sub.Colors[0])).Render("●")
		}
		cursor := "  "
		style := normalItemStyle
		if d.focus == focusSubjects && i == d.subjectCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s",
			cursor, dot, style.Render(truncate(sub.Name, 18)),
			mutedStyle.Render(formatMinutes(sub.GoalMinutes))))
	}

	return d.panelFor(focusSubjects, strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTasks() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Upcoming Tasks"))
	rows = append(rows, "")

	if len(d.state.UpcomingTasks) == 0 {
		rows = append(rows, mutedStyle.Render("Nothing due."))
	}
	for i, task := range d.state.UpcomingTasks {
		cursor := "  "
		style := normalItemStyle
		if d.focus == focusTasks && i == d.taskCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		due := ""
		if task.DueDate != nil {
			due = " " + mutedStyle.Render(formatDate(*task.DueDate))
		}
		prio := priorityBadge(task.Priority)
		rows = append(rows, fmt.Sprintf("%s%s %s%s", cursor, prio, style.Render(truncate(task.Title, 20)), due))
	}

	return d.panelFor(focusTasks, strings.Join(rows, "\n"))
}

func (d dashboardModel) renderSessions() string {
	var rows []string
	title := "Recent Sessions"
	if d.highlightList {
		title = "Recent Sessions ●"
	}
	rows = append(rows, titleStyle.Render(title))
	rows = append(rows, "")

	if len(d.state.RecentSessions) == 0 {
		rows = append(rows, mutedStyle.Render("No sessions recorded."))
	}
	for i, sn := range d.state.RecentSessions {
		cursor := "  "
		style := normalItemStyle
		if d.focus == focusSessions && i == d.sessionCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s",
			cursor, style.Render(truncate(sn.SubjectName, 14)),
			highlightStyle.Render(formatMinutes(sn.Minutes())),
			mutedStyle.Render(formatDate(sn.Date))))
	}

	return d.panelFor(focusSessions, strings.Join(rows, "\n"))
}

func (d dashboardModel) panelFor(focus dashboardFocus, content string) string {
	w := d.width/3 - 4
	if w < 20 {
		w = 20
	}
	style := panelStyle
	if d.focus == focus {
		style = panelStyle.BorderForeground(colorPrimary)
	}
	return style.Width(w).Render(content)
}

func priorityBadge(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return errorStyle.Render("!")
	case store.PriorityMedium:
		return warningStyle.Render("~")
	default:
		return mutedStyle.Render("·")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
