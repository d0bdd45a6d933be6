package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/okutan/studia/internal/store"
	"github.com/okutan/studia/internal/vm"
)

// timerState tracks the current state of the study timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel counts study time against a picked subject. Stopping the
// timer writes a session row; nothing is persisted until then.
type timerModel struct {
	repos  vm.Repos
	width  int
	height int

	state     timerState
	startTime time.Time
	pausedAt  time.Time
	pauseGap  time.Duration

	subjects    []store.Subject
	cursor      int
	subjectID   int64
	subjectName string

	// Study target in seconds, from the timer_duration setting.
	targetSeconds int64
}

func newTimerModel(repos vm.Repos) timerModel {
	return timerModel{repos: repos}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type timerSubjectsMsg struct {
	subjects      []store.Subject
	targetSeconds int64
}

func (t timerModel) loadSubjects() tea.Cmd {
	return func() tea.Msg {
		subjects, _ := t.repos.Subjects.ListSubjects()

		var target int64
		if t.repos.Settings != nil {
			if v, err := t.repos.Settings.GetSetting("timer_duration"); err == nil {
				target, _ = strconv.ParseInt(v, 10, 64)
			}
		}
		return timerSubjectsMsg{subjects: subjects, targetSeconds: target}
	}
}

func (t *timerModel) start(subject store.Subject) {
	t.state = timerRunning
	t.startTime = time.Now()
	t.pauseGap = 0
	t.subjectID = subject.ID
	t.subjectName = subject.Name
}

// stop records the elapsed time as a session and resets the timer.
// Returns nil when nothing was running or the run was under a second.
func (t *timerModel) stop() (*store.Session, error) {
	if t.state == timerStopped {
		return nil, nil
	}
	elapsed := t.currentElapsed()
	t.state = timerStopped
	t.pauseGap = 0

	seconds := int64(elapsed.Seconds())
	if seconds < 1 {
		return nil, nil
	}
	session := &store.Session{
		SubjectID: t.subjectID,
		Duration:  seconds,
		Date:      time.Now(),
	}
	if err := t.repos.Sessions.InsertSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = time.Now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += time.Since(t.pausedAt)
	t.state = timerRunning
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

// adjustTarget moves the study target in 5-minute steps and persists it,
// so the next launch keeps the chosen duration.
func (t timerModel) adjustTarget(delta int64) (timerModel, tea.Cmd) {
	target := t.targetSeconds + delta
	if target < 5*60 {
		target = 5 * 60
	}
	if target == t.targetSeconds {
		return t, nil
	}
	t.targetSeconds = target

	if t.repos.Settings != nil {
		if err := t.repos.Settings.SetSetting("timer_duration", strconv.FormatInt(target, 10)); err != nil {
			return t, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Couldn't save timer target. %v", err), isError: true}
			}
		}
	}
	return t, nil
}

func (t timerModel) targetReached() bool {
	return t.targetSeconds > 0 && t.currentElapsed() >= time.Duration(t.targetSeconds)*time.Second
}

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerStopped:
		return 0
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	}
	return time.Since(t.startTime) - t.pauseGap
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case timerSubjectsMsg:
		t.subjects = msg.subjects
		t.targetSeconds = msg.targetSeconds
		t.cursor = clampCursor(t.cursor, len(t.subjects))
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			t.cursor = clampCursor(t.cursor-1, len(t.subjects))
		case key.Matches(msg, keys.Down):
			t.cursor = clampCursor(t.cursor+1, len(t.subjects))
		case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
			if t.running() {
				t.toggle()
			} else if t.cursor < len(t.subjects) {
				t.start(t.subjects[t.cursor])
			}
		case msg.String() == "+", msg.String() == "=":
			return t.adjustTarget(5 * 60)
		case msg.String() == "-":
			return t.adjustTarget(-5 * 60)
		case key.Matches(msg, keys.Stop):
			session, err := t.stop()
			if err != nil {
				return t, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Couldn't record session. %v", err), isError: true}
				}
			}
			if session != nil {
				mins := session.Minutes()
				return t, func() tea.Msg {
					return sessionRecordedMsg{minutes: mins}
				}
			}
		}
	}
	return t, nil
}

func (t timerModel) view() string {
	w := t.width - 4

	var rows []string
	rows = append(rows, titleStyle.Render("Study Timer"))
	rows = append(rows, "")

	clock := formatClock(t.currentElapsed())
	switch t.state {
	case timerRunning:
		rows = append(rows, timerRunningStyle.Width(w-6).Render(clock))
		line := mutedStyle.Render("studying ") + highlightStyle.Render(t.subjectName)
		if t.targetReached() {
			line += successStyle.Render("  target reached!")
		} else if t.targetSeconds > 0 {
			remaining := time.Duration(t.targetSeconds)*time.Second - t.currentElapsed()
			line += mutedStyle.Render(fmt.Sprintf("  target in %s", formatClock(remaining)))
		}
		rows = append(rows, lipgloss.NewStyle().Width(w-6).Align(lipgloss.Center).Render(line))
	case timerPaused:
		rows = append(rows, timerStyle.Width(w-6).Render(clock))
		rows = append(rows, lipgloss.NewStyle().Width(w-6).Align(lipgloss.Center).
			Render(warningStyle.Render("paused ")+mutedStyle.Render(t.subjectName)))
	default:
		rows = append(rows, timerStyle.Width(w-6).Render(clock))
		rows = append(rows, lipgloss.NewStyle().Width(w-6).Align(lipgloss.Center).
			Render(mutedStyle.Render("pick a subject and press s")))
	}
	rows = append(rows, "")

	if len(t.subjects) == 0 {
		rows = append(rows, mutedStyle.Render("No subjects yet. Create one on the dashboard first."))
	}
	for i, sub := range t.subjects {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := "●"
		if len(sub.Colors) > 0 {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(sub.Colors[0])).Render("●")
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s",
			cursor, dot, style.Render(sub.Name), mutedStyle.Render(fmt.Sprintf("goal %s", formatMinutes(sub.GoalMinutes)))))
	}

	rows = append(rows, "")
	hint := "  s: start/pause  x: stop & record"
	if t.targetSeconds > 0 {
		hint += fmt.Sprintf("  +/-: target (%s)", formatMinutes(float64(t.targetSeconds)/60))
	}
	rows = append(rows, mutedStyle.Render(hint))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
