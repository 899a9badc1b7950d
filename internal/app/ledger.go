package app

import (
	"time"

	"live-poll-service/internal/domain"
)

// answerLedger holds at most one answer per student for the current question.
type answerLedger struct {
	order   []string
	answers map[string]domain.Answer
}

func newAnswerLedger() *answerLedger {
	return &answerLedger{answers: make(map[string]domain.Answer)}
}

func (l *answerLedger) submit(studentID string, option int, at time.Time) (domain.Answer, error) {
	if _, ok := l.answers[studentID]; ok {
		return domain.Answer{}, domain.ErrDuplicateAnswer
	}
	a := domain.Answer{StudentID: studentID, Option: option, Timestamp: at}
	l.answers[studentID] = a
	l.order = append(l.order, studentID)
	return a, nil
}

func (l *answerLedger) answeredCount() int {
	return len(l.answers)
}

func (l *answerLedger) all() []domain.Answer {
	out := make([]domain.Answer, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.answers[id])
	}
	return out
}

func (l *answerLedger) clear() {
	l.order = nil
	l.answers = make(map[string]domain.Answer)
}
