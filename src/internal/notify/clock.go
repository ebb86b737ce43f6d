package notify

import "time"

// Timer is a scheduled callback that can be canceled.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the grace period can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Executor runs functions on the serial execution context.
type Executor interface {
	Submit(fn func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Submit(fn func()) {
	f(fn)
}

// InlineExecutor runs submitted functions immediately on the caller's goroutine.
var InlineExecutor = ExecutorFunc(func(fn func()) { fn() })
