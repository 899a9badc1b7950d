package domain

// Server -> client event types.
const (
	EventPollStatus    = "pollStatus"
	EventChatHistory   = "chatHistory"
	EventNewPoll       = "newPoll"
	EventPollResults   = "pollResults"
	EventStudentJoined = "studentJoined"
	EventStudentLeft   = "studentLeft"
	EventChatMessage   = "newChatMessage"
	EventKicked        = "kicked"
	EventIdentified    = "identified"
	EventError         = "error"
)

// Event is a notification delivered to connected clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewPollPayload announces a freshly created question.
type NewPollPayload struct {
	PollID    string   `json:"pollId"`
	Question  Question `json:"question"`
	TimeLimit int      `json:"timeLimit"`
}

// StudentJoinedPayload is broadcast after a registration.
type StudentJoinedPayload struct {
	Student       Student `json:"student"`
	TotalStudents int     `json:"totalStudents"`
}

// StudentLeftPayload is broadcast after a removal.
type StudentLeftPayload struct {
	StudentID     string `json:"studentId"`
	TotalStudents int    `json:"totalStudents"`
}
