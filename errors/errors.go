package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUnknownMessageType = fmt.Errorf("unknown message type")
)
