package fevents

// nullEventProcessor discards every event. It backs clients configured
// with events disabled entirely.
type nullEventProcessor struct{}

// NewNullEventProcessor creates an EventProcessor that does nothing.
func NewNullEventProcessor() EventProcessor {
	return nullEventProcessor{}
}

func (nullEventProcessor) SendEvent(Event) {}

func (nullEventProcessor) Flush() {}

func (nullEventProcessor) Close() error { return nil }
