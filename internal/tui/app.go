package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/okutan/studia/internal/export"
	"github.com/okutan/studia/internal/store"
	"github.com/okutan/studia/internal/vm"
)

// App is the root Bubble Tea model. It owns the dashboard view-model for
// the lifetime of the program and opens subject view-models on demand.
type App struct {
	store  *store.Store
	repos  vm.Repos
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashVM      *vm.DashboardViewModel
	dashWatcher *store.Watcher
	dashStates  <-chan vm.DashboardState
	dashNotes   <-chan vm.Notification
	dashCancel  func()
	notesCancel func()

	dashboard dashboardModel
	tasks     tasksModel
	timer     timerModel

	// Subject detail screen, opened from the dashboard subjects list.
	subject     *subjectModel
	subjWatcher *store.Watcher
	subjStates  <-chan vm.SubjectState
	subjNotes   <-chan vm.Notification
	subjCancel  func()
	subjNCancel func()

	help        help.Model
	status      string
	statusError bool
}

func NewApp(s *store.Store) App {
	h := help.New()
	h.ShowAll = false

	repos := vm.Repos{Subjects: s, Tasks: s, Sessions: s, Settings: s}

	watcher := s.Watch(store.TableSubjects, store.TableTasks, store.TableSessions)
	dashVM := vm.NewDashboard(repos, watcher.C)
	states, cancelStates := dashVM.Subscribe()
	notes, cancelNotes := dashVM.Notifications()

	return App{
		store:       s,
		repos:       repos,
		activeView:  viewDashboard,
		dashVM:      dashVM,
		dashWatcher: watcher,
		dashStates:  states,
		dashNotes:   notes,
		dashCancel:  cancelStates,
		notesCancel: cancelNotes,
		dashboard:   newDashboardModel(dashVM),
		tasks:       newTasksModel(repos),
		timer:       newTimerModel(repos),
		help:        h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.listenDashboard(),
		a.listenDashboardNotes(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) listenDashboard() tea.Cmd {
	return listen(a.dashStates, func(st vm.DashboardState) tea.Msg {
		return dashboardStateMsg(st)
	})
}

func (a App) listenDashboardNotes() tea.Cmd {
	return listen(a.dashNotes, func(n vm.Notification) tea.Msg {
		return notificationMsg{note: n, from: viewDashboard}
	})
}

func (a App) listenSubject() tea.Cmd {
	return listen(a.subjStates, func(st vm.SubjectState) tea.Msg {
		return subjectStateMsg(st)
	})
}

func (a App) listenSubjectNotes() tea.Cmd {
	return listen(a.subjNotes, func(n vm.Notification) tea.Msg {
		return notificationMsg{note: n, from: viewSubject}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.timer.setSize(a.width, contentHeight)
		if a.subject != nil {
			a.subject.setSize(a.width, contentHeight)
		}
		return a, nil

	case dashboardStateMsg:
		a.dashboard.setState(vm.DashboardState(msg))
		return a, a.listenDashboard()

	case subjectStateMsg:
		if a.subject != nil {
			a.subject.setState(vm.SubjectState(msg))
		}
		return a, a.listenSubject()

	case notificationMsg:
		return a.handleNotification(msg)

	case sessionRecordedMsg:
		// Recording a session jumps back to the dashboard with the
		// sessions list highlighted, so the new row is visible.
		a.activeView = viewDashboard
		a.dashboard.highlightList = true
		a.status = fmt.Sprintf("Recorded %s of study time", formatMinutes(msg.minutes))
		a.statusError = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	case tickMsg:
		cmds = append(cmds, tickCmd())
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A capturing child (form) sees every key first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			a.dashboard.highlightList = false
			return a, nil
		case key.Matches(msg, keys.Tab2):
			if a.subject != nil {
				a.activeView = viewSubject
			}
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewTimer
			return a, a.timer.loadSubjects()
		case key.Matches(msg, keys.Tab):
			return a.nextView()
		case key.Matches(msg, keys.Back):
			if a.activeView == viewSubject {
				a.closeSubject()
				return a, nil
			}
		case key.Matches(msg, keys.Enter):
			if a.activeView == viewDashboard {
				if sub := a.dashboard.selectedSubject(); sub != nil {
					return a.openSubject(*sub)
				}
			}
		}
	}

	return a.updateActiveView(msg)
}

func (a App) quit() tea.Cmd {
	a.closeSubject()
	a.dashVM.Close()
	a.dashCancel()
	a.notesCancel()
	a.dashWatcher.Close()
	return tea.Quit
}

func (a *App) nextView() (tea.Model, tea.Cmd) {
	next := a.activeView
	for {
		next = (next + 1) % viewState(len(viewNames))
		if next != viewSubject || a.subject != nil {
			break
		}
	}
	a.activeView = next
	switch next {
	case viewTasks:
		return *a, a.tasks.refresh()
	case viewTimer:
		return *a, a.timer.loadSubjects()
	case viewDashboard:
		a.dashboard.highlightList = false
	}
	return *a, nil
}

func (a App) openSubject(sub store.Subject) (tea.Model, tea.Cmd) {
	a.closeSubject()

	watcher := a.store.Watch(store.TableSubjects, store.TableTasks, store.TableSessions)
	subVM := vm.NewSubject(a.repos, watcher.C, sub.ID)
	states, cancelStates := subVM.Subscribe()
	notes, cancelNotes := subVM.Notifications()

	model := newSubjectModel(subVM, sub.Name)
	model.setSize(a.width, a.height-4)

	a.subject = &model
	a.subjWatcher = watcher
	a.subjStates = states
	a.subjNotes = notes
	a.subjCancel = cancelStates
	a.subjNCancel = cancelNotes
	a.activeView = viewSubject

	return a, tea.Batch(a.listenSubject(), a.listenSubjectNotes())
}

func (a *App) closeSubject() {
	if a.subject == nil {
		return
	}
	// Close before canceling: Close closes the subscription channels so
	// in-flight listen commands return, while cancel only unregisters.
	a.subject.vm.Close()
	a.subjCancel()
	a.subjNCancel()
	a.subjWatcher.Close()
	a.subject = nil
	a.subjStates = nil
	a.subjNotes = nil
	if a.activeView == viewSubject {
		a.activeView = viewDashboard
	}
}

func (a App) handleNotification(msg notificationMsg) (tea.Model, tea.Cmd) {
	var relisten tea.Cmd
	switch msg.from {
	case viewDashboard:
		relisten = a.listenDashboardNotes()
	case viewSubject:
		relisten = a.listenSubjectNotes()
	case viewTasks:
		// The tasks editor owns its notification stream; pass it along.
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		if note, ok := msg.note.(vm.ShowMessage); ok {
			a.status = note.Text
			a.statusError = note.Long
		}
		return a, cmd
	}

	switch note := msg.note.(type) {
	case vm.ShowMessage:
		a.status = note.Text
		a.statusError = note.Long
	case vm.NavigateBack:
		if msg.from == viewSubject {
			// Stream ends with the screen; don't re-listen on it.
			a.closeSubject()
			return a, nil
		}
	}
	return a, relisten
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewSubject:
		if a.subject != nil {
			var sm subjectModel
			sm, cmd = a.subject.update(msg)
			a.subject = &sm
		}
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewSubject:
		return a.subject != nil && a.subject.formActive
	case viewTasks:
		return a.tasks.editorActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewSubject:
		if a.subject != nil {
			content = a.subject.view()
		}
	case viewTasks:
		content = a.tasks.view()
	case viewTimer:
		content = a.timer.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == viewSubject {
			if a.subject == nil {
				continue
			}
			name = truncate(a.subject.name, 14)
		}
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studia")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.timer.running() {
		elapsed := a.timer.currentElapsed()
		timerInfo = successStyle.Render(" ● " + formatClock(elapsed))
		if a.timer.state == timerPaused {
			timerInfo = warningStyle.Render(" ⏸ " + formatClock(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

type exportDoneMsg struct {
	path string
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Sessions")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return panelStyle.Width(w).BorderForeground(colorPrimary).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		sessions, err := a.repos.Sessions.ListRecentSessions(0)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("studia-export-%s.csv", dateStr))
			if err := export.ToCSV(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("studia-export-%s.json", dateStr))
			if err := export.ToJSON(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
