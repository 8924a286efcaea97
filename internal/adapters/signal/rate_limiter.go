package signal

import "golang.org/x/time/rate"

// EventLimiter throttles inbound events of one connection.
// A nil limiter allows everything.
type EventLimiter struct {
	lim *rate.Limiter
}

func NewEventLimiter(perSecond float64, burst int) *EventLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &EventLimiter{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *EventLimiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.lim.Allow()
}
