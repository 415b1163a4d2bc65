package led

// FakeIndicator records LED color changes for test assertions.
type FakeIndicator struct {
	// History contains every color ever set, in order.
	History []Color

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIndicator creates a FakeIndicator for testing.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records the color.
func (f *FakeIndicator) Set(c Color) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.History = append(f.History, c)
	return nil
}

// Current returns the most recently set color, or OFF if none.
func (f *FakeIndicator) Current() Color {
	if len(f.History) == 0 {
		return ColorOff
	}
	return f.History[len(f.History)-1]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}
