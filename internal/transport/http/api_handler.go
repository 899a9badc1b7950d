package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"live-poll-service/internal/domain"
)

// Session is the command surface of the session coordinator.
type Session interface {
	RegisterStudent(ctx context.Context, name string) (domain.Student, error)
	RemoveStudent(ctx context.Context, studentID string) bool
	CreateQuestion(ctx context.Context, prompt string, options []string, timeLimit int) (string, domain.Question, error)
	SubmitAnswer(ctx context.Context, studentID string, option int) (domain.Answer, error)
	PostChat(ctx context.Context, sender, body string) (domain.ChatMessage, error)
	Status(ctx context.Context) domain.Status
	Results(ctx context.Context) domain.Results
	Student(ctx context.Context, studentID string) (domain.Student, bool)
	Attach(fn func(status domain.Status, history []domain.ChatMessage))
}

// History lists archived results of superseded questions.
type History interface {
	Recent(ctx context.Context, limit int) ([]domain.PollRecord, error)
}

type registerRequest struct {
	Name string `json:"name"`
}

type registerResponse struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
}

type createRequest struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

type createResponse struct {
	PollID   string          `json:"pollId"`
	Question domain.Question `json:"question"`
}

type answerRequest struct {
	StudentID string `json:"studentId"`
	Answer    *int   `json:"answer"`
}

type answerResponse struct {
	Accepted bool `json:"accepted"`
	Answer   int  `json:"answer"`
}

// APIHandler serves the REST commands.
type APIHandler struct {
	session Session
	history History
	logger  *zap.Logger
}

func NewAPIHandler(session Session, history History, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{session: session, history: history, logger: logger}
}

func (h *APIHandler) Health(c *gin.Context) {
	ok(c, gin.H{"status": "ok", "message": "Server is running"})
}

// RegisterStudent handles POST /api/student/register.
func (h *APIHandler) RegisterStudent(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	student, err := h.session.RegisterStudent(c.Request.Context(), req.Name)
	if err != nil {
		commandError(c, err)
		return
	}
	ok(c, registerResponse{StudentID: student.ID, Name: student.Name})
}

// CreateQuestion handles POST /api/poll/create.
func (h *APIHandler) CreateQuestion(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	pollID, q, err := h.session.CreateQuestion(c.Request.Context(), req.Question, req.Options, req.TimeLimit)
	if err != nil {
		commandError(c, err)
		return
	}
	ok(c, createResponse{PollID: pollID, Question: q})
}

// SubmitAnswer handles POST /api/poll/answer.
func (h *APIHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Answer == nil {
		fail(c, http.StatusBadRequest, "answer is required")
		return
	}
	answer, err := h.session.SubmitAnswer(c.Request.Context(), req.StudentID, *req.Answer)
	if err != nil {
		commandError(c, err)
		return
	}
	ok(c, answerResponse{Accepted: true, Answer: answer.Option})
}

// Status handles GET /api/poll/status.
func (h *APIHandler) Status(c *gin.Context) {
	ok(c, h.session.Status(c.Request.Context()))
}

// Results handles GET /api/poll/results.
func (h *APIHandler) Results(c *gin.Context) {
	ok(c, h.session.Results(c.Request.Context()))
}

// History handles GET /api/poll/history?limit=n.
func (h *APIHandler) History(c *gin.Context) {
	if h.history == nil {
		ok(c, []domain.PollRecord{})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("load poll history", zap.Error(err))
		fail(c, http.StatusServiceUnavailable, "poll history unavailable")
		return
	}
	if records == nil {
		records = []domain.PollRecord{}
	}
	ok(c, records)
}
