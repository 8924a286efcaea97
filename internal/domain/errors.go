package domain

import "errors"

var (
	ErrConnClosed   = errors.New("connection closed")
	ErrBackpressure = errors.New("backpressure")
	ErrTooManyConns = errors.New("too many connections")
	ErrUnknownConn  = errors.New("unknown connection")
)
