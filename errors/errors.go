package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEngineNotFound    = fmt.Errorf("engine binary not found")
	ErrEngineStartFailed = fmt.Errorf("engine start failed")
	ErrEngineUnavailable = fmt.Errorf("engine unavailable")
	ErrEngineNotRunning  = fmt.Errorf("engine not running")
	ErrDuplicateResponse = fmt.Errorf("duplicate response")
	ErrNotConnected      = fmt.Errorf("transport not connected")
)
