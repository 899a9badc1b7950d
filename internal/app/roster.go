package app

import (
	"strings"
	"time"

	"live-poll-service/internal/domain"
)

// roster tracks the currently registered students in join order.
// It is not safe for concurrent use; the Coordinator serializes access.
type roster struct {
	order    []string
	students map[string]domain.Student
}

func newRoster() *roster {
	return &roster{students: make(map[string]domain.Student)}
}

// register trims name and adds a student under id. Name uniqueness is
// case-insensitive and only checked against active students.
func (r *roster) register(id, name string, at time.Time) (domain.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Student{}, domain.ErrEmptyName
	}
	for _, existing := range r.students {
		if strings.EqualFold(existing.Name, name) {
			return domain.Student{}, domain.ErrNameConflict
		}
	}
	student := domain.Student{ID: id, Name: name, JoinedAt: at}
	r.students[id] = student
	r.order = append(r.order, id)
	return student, nil
}

// remove reports whether a student was actually deleted.
func (r *roster) remove(id string) bool {
	if _, ok := r.students[id]; !ok {
		return false
	}
	delete(r.students, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *roster) exists(id string) bool {
	_, ok := r.students[id]
	return ok
}

func (r *roster) get(id string) (domain.Student, bool) {
	s, ok := r.students[id]
	return s, ok
}

func (r *roster) count() int {
	return len(r.students)
}

func (r *roster) all() []domain.Student {
	out := make([]domain.Student, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.students[id])
	}
	return out
}
