package domain

import "errors"

var (
	// ErrEmptyName is returned when a student registers with a blank name.
	ErrEmptyName = errors.New("name is required")
	// ErrNameConflict is returned when an active student already uses the name.
	ErrNameConflict = errors.New("name already taken")
	// ErrInvalidQuestion indicates a blank prompt or fewer than two options.
	ErrInvalidQuestion = errors.New("question and at least 2 options are required")
	// ErrPriorQuestionIncomplete blocks a new question until every student answered.
	ErrPriorQuestionIncomplete = errors.New("previous question not completed by all students")
	// ErrNoActiveQuestion is returned when an answer arrives before any question.
	ErrNoActiveQuestion = errors.New("no active poll")
	// ErrUnknownStudent is returned when the student id is not in the roster.
	ErrUnknownStudent = errors.New("student not registered")
	// ErrDuplicateAnswer is returned on a second answer to the same question.
	ErrDuplicateAnswer = errors.New("answer already submitted")
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is required")
)

// ErrorKind classifies command failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindValidation covers malformed input.
	KindValidation
	// KindConflict covers legitimate concurrent-use conflicts.
	KindConflict
	// KindReference means the caller is out of sync with server state.
	KindReference
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of a command error.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrEmptyName), errors.Is(err, ErrInvalidQuestion), errors.Is(err, ErrEmptyMessage):
		return KindValidation
	case errors.Is(err, ErrNameConflict), errors.Is(err, ErrDuplicateAnswer), errors.Is(err, ErrPriorQuestionIncomplete):
		return KindConflict
	case errors.Is(err, ErrUnknownStudent), errors.Is(err, ErrNoActiveQuestion):
		return KindReference
	default:
		return KindUnknown
	}
}
