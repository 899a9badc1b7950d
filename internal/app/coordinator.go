package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"live-poll-service/internal/domain"
)

// DefaultTimeLimit is the advisory countdown, in seconds, used when a
// question is created without one.
const DefaultTimeLimit = 60

// Broadcaster delivers events to every connected participant. Implementations
// must not block: the Coordinator calls Broadcast while holding its lock.
type Broadcaster interface {
	Broadcast(event domain.Event)
}

// ArchiveQueue receives the final tally of each superseded question.
// Enqueue must not block.
type ArchiveQueue interface {
	Enqueue(record domain.PollRecord)
}

// Coordinator is the only place session state is mutated. Every command runs
// under one write lock; reads take the read lock and return copies.
type Coordinator struct {
	mu        sync.RWMutex
	roster    *roster
	questions *questionLifecycle
	ledger    *answerLedger
	chat      *chatLog

	broadcaster Broadcaster
	archive     ArchiveQueue
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides time.Now, for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) { c.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithArchive hands superseded questions' results to q.
func WithArchive(q ArchiveQueue) Option {
	return func(c *Coordinator) { c.archive = q }
}

// WithDefaultTimeLimit sets the fallback time limit in seconds.
func WithDefaultTimeLimit(seconds int) Option {
	return func(c *Coordinator) { c.questions = newQuestionLifecycle(seconds) }
}

// NewCoordinator builds a Coordinator publishing to b. A nil b discards events.
func NewCoordinator(b Broadcaster, opts ...Option) *Coordinator {
	if b == nil {
		b = discard{}
	}
	c := &Coordinator{
		roster:      newRoster(),
		questions:   newQuestionLifecycle(DefaultTimeLimit),
		ledger:      newAnswerLedger(),
		chat:        &chatLog{},
		broadcaster: b,
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterStudent adds a student to the roster and announces it.
func (c *Coordinator) RegisterStudent(_ context.Context, name string) (domain.Student, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	student, err := c.roster.register(c.newID(), name, c.now())
	if err != nil {
		c.logger.Debug("register rejected", zap.String("name", name), zap.Error(err))
		return domain.Student{}, err
	}
	c.broadcaster.Broadcast(domain.Event{
		Type:    domain.EventStudentJoined,
		Payload: domain.StudentJoinedPayload{Student: student, TotalStudents: c.roster.count()},
	})
	c.logger.Info("student registered", zap.String("student_id", student.ID), zap.String("name", student.Name))
	return student, nil
}

// RemoveStudent drops a student from the roster. Their answer, if any, stays
// in the tally until the next question. Unknown ids are ignored.
func (c *Coordinator) RemoveStudent(_ context.Context, studentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roster.remove(studentID) {
		return false
	}
	c.broadcaster.Broadcast(domain.Event{
		Type:    domain.EventStudentLeft,
		Payload: domain.StudentLeftPayload{StudentID: studentID, TotalStudents: c.roster.count()},
	})
	c.logger.Info("student removed", zap.String("student_id", studentID))
	return true
}

// CreateQuestion opens a new question, superseding the current one when every
// registered student has answered it.
func (c *Coordinator) CreateQuestion(_ context.Context, prompt string, options []string, timeLimit int) (string, domain.Question, error) {
	if err := validateQuestion(prompt, options); err != nil {
		return "", domain.Question{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.questions.canReplace(c.ledger.answeredCount(), c.roster.count()) {
		c.logger.Debug("create question rejected",
			zap.Int("answered", c.ledger.answeredCount()),
			zap.Int("students", c.roster.count()))
		return "", domain.Question{}, domain.ErrPriorQuestionIncomplete
	}

	now := c.now()
	if c.questions.isActive() && c.archive != nil {
		c.archive.Enqueue(domain.PollRecord{
			PollID:     c.questions.pollID,
			Results:    c.resultsLocked(),
			ArchivedAt: now,
		})
	}

	pollID := c.newID()
	q := c.questions.replace(pollID, prompt, options, timeLimit, now)
	c.ledger.clear()

	c.broadcaster.Broadcast(domain.Event{
		Type:    domain.EventNewPoll,
		Payload: domain.NewPollPayload{PollID: pollID, Question: q.Clone(), TimeLimit: q.TimeLimit},
	})
	c.logger.Info("question created", zap.String("poll_id", pollID), zap.Int("options", len(q.Options)))
	return pollID, q, nil
}

// SubmitAnswer records a student's choice for the current question and
// broadcasts the new tally. Answers after the advisory time limit are accepted.
func (c *Coordinator) SubmitAnswer(_ context.Context, studentID string, option int) (domain.Answer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.questions.isActive() {
		return domain.Answer{}, domain.ErrNoActiveQuestion
	}
	if !c.roster.exists(studentID) {
		return domain.Answer{}, domain.ErrUnknownStudent
	}
	answer, err := c.ledger.submit(studentID, option, c.now())
	if err != nil {
		c.logger.Debug("answer rejected", zap.String("student_id", studentID), zap.Error(err))
		return domain.Answer{}, err
	}
	c.broadcaster.Broadcast(domain.Event{Type: domain.EventPollResults, Payload: c.resultsLocked()})
	return answer, nil
}

// PostChat appends to the chat log and broadcasts the message verbatim.
func (c *Coordinator) PostChat(_ context.Context, sender, body string) (domain.ChatMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := c.chat.append(c.newID(), sender, body, c.now())
	if err != nil {
		return domain.ChatMessage{}, err
	}
	c.broadcaster.Broadcast(domain.Event{Type: domain.EventChatMessage, Payload: msg})
	return msg, nil
}

// Status returns the full session snapshot.
func (c *Coordinator) Status(_ context.Context) domain.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusLocked()
}

// Results returns the current aggregation.
func (c *Coordinator) Results(_ context.Context) domain.Results {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resultsLocked()
}

// ChatHistory returns every chat message in order.
func (c *Coordinator) ChatHistory(_ context.Context) []domain.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chat.history()
}

// Student looks up a registered student.
func (c *Coordinator) Student(_ context.Context, studentID string) (domain.Student, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roster.get(studentID)
}

// Attach calls fn with the current status and chat history while holding the
// read lock. No mutation, and so no broadcast, can happen while fn runs: a
// connection that registers itself with the broadcaster inside fn sees every
// later event and none earlier.
func (c *Coordinator) Attach(fn func(status domain.Status, history []domain.ChatMessage)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.statusLocked(), c.chat.history())
}

func (c *Coordinator) statusLocked() domain.Status {
	students := c.roster.all()
	return domain.Status{
		PollID:          c.questions.pollID,
		CurrentQuestion: c.questions.question(),
		IsActive:        c.questions.isActive(),
		TimeLimit:       c.questions.timeLimit(),
		Students:        students,
		TotalStudents:   len(students),
		AnsweredCount:   c.ledger.answeredCount(),
		Answers:         c.ledger.all(),
	}
}

func (c *Coordinator) resultsLocked() domain.Results {
	return Tally(c.questions.pollID, c.questions.current, c.ledger.all(), c.roster.count())
}

type discard struct{}

func (discard) Broadcast(domain.Event) {}
