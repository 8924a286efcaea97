package app

import "github.com/dkeye/relay/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a recipient whose outbound queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, id domain.ConnectionID) BackpressureAction
}

// SimplePolicy drops the frame, or kicks the slow recipient when Kick is set.
type SimplePolicy struct {
	Kick bool
}

func (p SimplePolicy) OnBackPressure(domain.RoomID, domain.ConnectionID) BackpressureAction {
	if p.Kick {
		return KickMember
	}
	return DropFrame
}
