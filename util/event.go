// Package util holds small helpers shared by the cameo binary.
package util

import (
	"sync"
)

// Event is a one-shot signal, such as a request to quit. The zero value is
// not usable; call NewEvent.
type Event struct {
	once sync.Once
	c    chan struct{}
}

func NewEvent() *Event {
	return &Event{
		c: make(chan struct{}),
	}
}

// Notify fires the event. Later calls do nothing.
func (e *Event) Notify() {
	e.once.Do(func() { close(e.c) })
}

// Wait blocks until Notify is called.
func (e *Event) Wait() {
	<-e.c
}

// Done is closed once the event fires.
func (e *Event) Done() <-chan struct{} {
	return e.c
}

func (e *Event) HasBeenNotified() bool {
	select {
	case <-e.c:
		return true
	default:
		return false
	}
}
