package store

import (
	"math/rand"
	"strings"
	"time"
)

// Priority orders tasks from least to most urgent.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "low"
	}
}

type Subject struct {
	ID          int64
	Name        string
	GoalMinutes float64
	Colors      []string // gradient stops from CardPalettes
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Task struct {
	ID          int64
	SubjectID   *int64
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	IsComplete  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskView is the read-side shape for task lists: a Task plus the related
// subject's display fields, joined at query time and never written back.
type TaskView struct {
	Task
	SubjectName  string
	SubjectColor string
}

type Session struct {
	ID        int64
	SubjectID int64
	Duration  int64 // seconds
	Date      time.Time
}

// SessionView embeds the related subject's name for list rendering.
type SessionView struct {
	Session
	SubjectName string
}

// Minutes converts the stored duration to minutes. All presentation and
// aggregation happens in minutes; seconds exist only in storage.
func (s Session) Minutes() float64 {
	return float64(s.Duration) / 60
}

type Setting struct {
	Key   string
	Value string
}

// CardPalettes is the fixed set of gradients a subject card can use.
var CardPalettes = [][]string{
	{"#6C63FF", "#46A6FF"},
	{"#2EC4B6", "#2ECC71"},
	{"#FF6B6B", "#F39C12"},
	{"#9B59B6", "#E74C3C"},
	{"#3498DB", "#7AA2F7"},
}

// RandomPalette picks one entry from CardPalettes.
func RandomPalette() []string {
	return CardPalettes[rand.Intn(len(CardPalettes))]
}

func joinColors(colors []string) string {
	return strings.Join(colors, ",")
}

func splitColors(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
