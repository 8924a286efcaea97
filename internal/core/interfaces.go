package core

import (
	"errors"

	"github.com/dkeye/relay/internal/domain"
)

// Emitter delivers a frame to a single connection without blocking.
// A returned error only means the frame was dropped; callers never propagate it.
type Emitter interface {
	EmitTo(id domain.ConnectionID, f Frame) error
}

// Delivery reports fan-out stats for one broadcast.
type Delivery struct {
	Sent    int
	Dropped int
	// Slow lists recipients whose outbound queue was full.
	Slow []domain.ConnectionID
}

// Add records the outcome of one emit.
func (d *Delivery) Add(id domain.ConnectionID, err error) {
	switch {
	case err == nil:
		d.Sent++
	case errors.Is(err, domain.ErrBackpressure):
		d.Dropped++
		d.Slow = append(d.Slow, id)
	default:
		d.Dropped++
	}
}
