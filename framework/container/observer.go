package container

// Observer receives bookkeeping events from scopes and bridges, for metrics.
// Implementations must be cheap; they are called inline on the DI goroutine.
type Observer interface {
	// Resolved is called for every successful resolution; created is false on
	// cache hits.
	Resolved(scope string, key Key, created bool)
	// Failed is called when a resolution fails.
	Failed(scope string, key Key, err error)
	// Released is called when a scope drops entries (Delete or Clear).
	Released(scope string, entries int)
	// Bound is called with the number of live host bindings after it changes.
	Bound(bindings int)
}

type nopObserver struct{}

func (nopObserver) Resolved(string, Key, bool) {}
func (nopObserver) Failed(string, Key, error) {}
func (nopObserver) Released(string, int) {}
func (nopObserver) Bound(int) {}
