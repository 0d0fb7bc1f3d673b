package seed

// Observer receives registry events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// OnRegister is called after a seed is stored.
	OnRegister(groupID, operationName string, kind Kind)
	// OnMatch is called when a request is answered by a seed.
	OnMatch(groupID, operationName string, kind Kind)
	// OnMiss is called when no seed matches a request.
	OnMiss(groupID, operationName string)
	// OnWarnings is called with the number of merge warnings of a response.
	OnWarnings(operationName string, count int)
	// OnExhausted is called when a seed is removed after its last use.
	OnExhausted(groupID, operationName string)
	// OnError is called when resolving a response fails.
	OnError(operationName string, err error)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) OnRegister(groupID, operationName string, kind Kind) {}
func (NoopObserver) OnMatch(groupID, operationName string, kind Kind)    {}
func (NoopObserver) OnMiss(groupID, operationName string)                {}
func (NoopObserver) OnWarnings(operationName string, count int)          {}
func (NoopObserver) OnExhausted(groupID, operationName string)           {}
func (NoopObserver) OnError(operationName string, err error)             {}
