// Package validate holds the input rules the UI applies before it
// dispatches a persist command. View-models trust their callers: anything
// rejected here never reaches a dispatcher.
package validate

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

const (
	// MinSubjectNameLength and MaxSubjectNameLength bound a subject name.
	MinSubjectNameLength = 2
	MaxSubjectNameLength = 20

	// MinGoalMinutes and MaxGoalMinutes bound the study goal.
	MinGoalMinutes = 1
	MaxGoalMinutes = 100000

	// MaxTaskTitleLength bounds a task title.
	MaxTaskTitleLength = 50
)

// SubjectName checks the add/edit subject dialog's name field.
func SubjectName(name string) error {
	switch {
	case name == "":
		return errors.New("please enter a subject name")
	case utf8.RuneCountInString(name) < MinSubjectNameLength:
		return errors.New("subject name is too short")
	case utf8.RuneCountInString(name) > MaxSubjectNameLength:
		return errors.New("subject name is too long")
	}
	return nil
}

// GoalMinutes checks the goal field's raw text.
func GoalMinutes(text string) error {
	if text == "" {
		return errors.New("please enter the goal study minutes")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return errors.New("invalid number")
	}
	if v < MinGoalMinutes {
		return errors.New("please set at least 1 minute")
	}
	if v > MaxGoalMinutes {
		return errors.New("please set a maximum of 100000 minutes")
	}
	return nil
}

// TaskTitle checks the task editor's title field.
func TaskTitle(title string) error {
	switch {
	case title == "":
		return errors.New("please enter a task title")
	case utf8.RuneCountInString(title) > MaxTaskTitleLength:
		return errors.New("task title is too long")
	}
	return nil
}
