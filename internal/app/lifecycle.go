package app

import (
	"strings"
	"time"

	"live-poll-service/internal/domain"
)

// questionLifecycle owns the single current question. The time limit is
// advisory: clients run the countdown, the server keeps accepting answers
// until the question is superseded.
type questionLifecycle struct {
	current          *domain.Question
	pollID           string
	defaultTimeLimit int
}

func newQuestionLifecycle(defaultTimeLimit int) *questionLifecycle {
	if defaultTimeLimit <= 0 {
		defaultTimeLimit = DefaultTimeLimit
	}
	return &questionLifecycle{defaultTimeLimit: defaultTimeLimit}
}

func validateQuestion(prompt string, options []string) error {
	if strings.TrimSpace(prompt) == "" || len(options) < 2 {
		return domain.ErrInvalidQuestion
	}
	return nil
}

// canReplace implements the gating rule for opening a new question.
func (l *questionLifecycle) canReplace(answered, students int) bool {
	return l.current == nil || answered >= students
}

func (l *questionLifecycle) replace(pollID, prompt string, options []string, timeLimit int, at time.Time) domain.Question {
	if timeLimit <= 0 {
		timeLimit = l.defaultTimeLimit
	}
	q := domain.Question{
		Prompt:    prompt,
		Options:   append([]string(nil), options...),
		TimeLimit: timeLimit,
		CreatedAt: at,
	}
	l.current = &q
	l.pollID = pollID
	return q.Clone()
}

// question returns a copy of the current question, or nil.
func (l *questionLifecycle) question() *domain.Question {
	if l.current == nil {
		return nil
	}
	q := l.current.Clone()
	return &q
}

func (l *questionLifecycle) isActive() bool {
	return l.current != nil
}

func (l *questionLifecycle) timeLimit() int {
	if l.current == nil {
		return l.defaultTimeLimit
	}
	return l.current.TimeLimit
}
