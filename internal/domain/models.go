package domain

import "time"

// Student is a registered participant of the live session.
type Student struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Question is a multiple-choice prompt. It is never mutated once created;
// the next question replaces it.
type Question struct {
	Prompt    string    `json:"question"`
	Options   []string  `json:"options"`
	TimeLimit int       `json:"timeLimit"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a copy that shares no backing arrays with q.
func (q Question) Clone() Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// Answer is one student's selection for the current question.
type Answer struct {
	StudentID string    `json:"studentId"`
	Option    int       `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is an entry of the session chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Results is the aggregated tally for the current question. Counts holds
// every declared option index, including those with zero votes.
type Results struct {
	PollID        string      `json:"pollId,omitempty"`
	Question      *Question   `json:"question"`
	Counts        map[int]int `json:"results"`
	TotalAnswers  int         `json:"totalAnswers"`
	TotalStudents int         `json:"totalStudents"`
	Answers       []Answer    `json:"answers"`
	IsActive      bool        `json:"isActive"`
}

// Status is the full snapshot sent to newly connecting clients.
type Status struct {
	PollID          string    `json:"pollId,omitempty"`
	CurrentQuestion *Question `json:"currentQuestion"`
	IsActive        bool      `json:"isActive"`
	TimeLimit       int       `json:"timeLimit"`
	Students        []Student `json:"students"`
	TotalStudents   int       `json:"totalStudents"`
	AnsweredCount   int       `json:"answeredCount"`
	Answers         []Answer  `json:"answers"`
}

// PollRecord is the final tally of a superseded question.
type PollRecord struct {
	PollID     string    `json:"pollId"`
	Results    Results   `json:"results"`
	ArchivedAt time.Time `json:"archivedAt"`
}
