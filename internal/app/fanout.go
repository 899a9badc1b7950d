package app

import "live-poll-service/internal/domain"

// FanOut broadcasts to several sinks in order. Nil sinks are skipped.
type FanOut []Broadcaster

func NewFanOut(sinks ...Broadcaster) FanOut {
	out := make(FanOut, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f FanOut) Broadcast(event domain.Event) {
	for _, s := range f {
		s.Broadcast(event)
	}
}
