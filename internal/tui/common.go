package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/okutan/studia/internal/vm"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewSubject
	viewTasks
	viewTimer
)

var viewNames = []string{"Dashboard", "Subject", "Tasks", "Timer"}

// --- Messages ---

type dashboardStateMsg vm.DashboardState

type subjectStateMsg vm.SubjectState

// notificationMsg carries a view-model notification into the update loop.
type notificationMsg struct {
	note vm.Notification
	from viewState
}

type statusMsg struct {
	text    string
	isError bool
}

type sessionRecordedMsg struct {
	minutes float64
}

type tickMsg time.Time

// listen turns a snapshot or notification channel into a command; the
// update loop re-issues it after every received message.
func listen[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

// --- Helpers ---

func formatClock(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatMinutes(mins float64) string {
	if mins >= 60 {
		return fmt.Sprintf("%.1fh", mins/60)
	}
	return fmt.Sprintf("%.0fm", mins)
}

func formatDate(t time.Time) string {
	return t.Local().Format("Jan 02")
}
