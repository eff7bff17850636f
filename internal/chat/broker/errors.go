package broker

import "errors"

var (
	// ErrUnderStopCondition - reported in case if Broker is under stop condition
	// and will not accept any new connections, such connection is closed immediately.
	ErrUnderStopCondition = errors.New("broker.Broker: under stop condition")

	// ErrConnKept - reported in case if connection is kept already.
	ErrConnKept = errors.New("broker.Broker: connection is kept already")
)
