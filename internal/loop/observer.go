package loop

// Observer receives the per-invocation event sequence: Start, then exactly
// one of Complete or Error. It is passed into dispatch explicitly so core
// logic stays testable without wiring a listener.
type Observer interface {
	Start(name string, args []byte)
	Complete(name string, args []byte, result string)
	Error(name string, args []byte, message string)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Start(name string, args []byte)                   {}
func (NopObserver) Complete(name string, args []byte, result string) {}
func (NopObserver) Error(name string, args []byte, message string)   {}
