package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Samples contains all telemetry samples that were published.
	Samples []Sample

	// Alerts contains all alert transitions that were published.
	Alerts []AlertEvent

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// PublishError, if set, is returned by every publish method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// PublishSample records the sample.
func (f *FakePublisher) PublishSample(s Sample) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Samples = append(f.Samples, s)
	return nil
}

// PublishAlert records the alert transition.
func (f *FakePublisher) PublishAlert(e AlertEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Alerts = append(f.Alerts, e)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(e SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, e)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}
