package app

import (
	"testing"

	"live-poll-service/internal/domain"
)

func TestTallyCountsDeclaredOptionsOnly(t *testing.T) {
	q := &domain.Question{Prompt: "2+2?", Options: []string{"3", "4", "5"}}
	answers := []domain.Answer{
		{StudentID: "a", Option: 1},
		{StudentID: "b", Option: 1},
		{StudentID: "c", Option: 7},
		{StudentID: "d", Option: -1},
	}

	res := Tally("poll-1", q, answers, 5)

	want := map[int]int{0: 0, 1: 2, 2: 0}
	if len(res.Counts) != len(want) {
		t.Fatalf("expected %d buckets, got %v", len(want), res.Counts)
	}
	for k, v := range want {
		if res.Counts[k] != v {
			t.Fatalf("option %d: want %d, got %d", k, v, res.Counts[k])
		}
	}
	if res.TotalAnswers != 4 || len(res.Answers) != 4 {
		t.Fatalf("out-of-range answers must stay in the raw list, got total=%d", res.TotalAnswers)
	}
	if res.TotalStudents != 5 || !res.IsActive || res.PollID != "poll-1" {
		t.Fatalf("unexpected results header: %+v", res)
	}
}

func TestTallyWithoutQuestion(t *testing.T) {
	res := Tally("", nil, nil, 2)
	if res.IsActive || res.Question != nil || len(res.Counts) != 0 {
		t.Fatalf("expected empty inactive results, got %+v", res)
	}
	if res.Answers == nil {
		t.Fatalf("answers should be an empty list, not nil")
	}
}

func TestTallySumsToAnsweredCount(t *testing.T) {
	q := &domain.Question{Options: []string{"a", "b"}}
	answers := []domain.Answer{{StudentID: "1", Option: 0}, {StudentID: "2", Option: 1}, {StudentID: "3", Option: 1}}
	res := Tally("p", q, answers, 3)
	sum := 0
	for _, n := range res.Counts {
		sum += n
	}
	if sum != res.TotalAnswers {
		t.Fatalf("counts sum %d != answered %d", sum, res.TotalAnswers)
	}
}
