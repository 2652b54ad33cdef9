package repository

// Subscription is a live query registration. Callbacks fire with the initial
// snapshot and after every change until Stop is called; a subscription that is
// never stopped keeps its listener for the life of the process.
type Subscription interface {
	Stop()
}

// StopFunc adapts a function to Subscription.
type StopFunc func()

func (f StopFunc) Stop() { f() }
