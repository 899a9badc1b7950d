package app

import "live-poll-service/internal/domain"

// Tally aggregates answers for a question. Only declared option indices are
// counted; out-of-range selections stay in Answers and TotalAnswers but add
// to no bucket. With no question, Counts is empty.
func Tally(pollID string, question *domain.Question, answers []domain.Answer, totalStudents int) domain.Results {
	counts := make(map[int]int)
	if question != nil {
		for i := range question.Options {
			counts[i] = 0
		}
	}
	for _, a := range answers {
		if _, ok := counts[a.Option]; ok {
			counts[a.Option]++
		}
	}

	var q *domain.Question
	if question != nil {
		cp := question.Clone()
		q = &cp
	}
	return domain.Results{
		PollID:        pollID,
		Question:      q,
		Counts:        counts,
		TotalAnswers:  len(answers),
		TotalStudents: totalStudents,
		Answers:       append([]domain.Answer{}, answers...),
		IsActive:      question != nil,
	}
}
