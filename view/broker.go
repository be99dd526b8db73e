package view

import "time"

type (
	// Broker carries messages between the goroutines of the viewer. ToView
	// holds functions that must be run on the UI goroutine, typically tile
	// load results; the UI loop runs them and then invalidates the window.
	// ToHost carries notifications for the host application, such as
	// tiles.TileLoadFailed.
	Broker struct {
		ToView chan func()
		ToHost chan any

		CloseView    chan struct{}
		FinishedView chan struct{}
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToView:       make(chan func(), 1024),
		ToHost:       make(chan any, 1024),
		CloseView:    make(chan struct{}, 1),
		FinishedView: make(chan struct{}),
	}
}

// TimeoutReceive waits for a value from c for at most t. ok is false on a
// timeout or if c is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
