package scd4x

import "time"

// FakeBus is a scripted test double for the sensor bus. Responses are
// queued per command; each Exec for a command consumes the next entry
// in FIFO order. A read command with an empty queue fails with
// ErrTimeout, which is what a silent sensor looks like.
type FakeBus struct {
	// Responses holds queued response words per command.
	Responses map[Command][][]uint16

	// Errs makes Exec fail for a command. Checked before Responses.
	Errs map[Command]error

	// Calls records every executed command in order.
	Calls []Command

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakeBus creates an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		Responses: make(map[Command][][]uint16),
		Errs:      make(map[Command]error),
	}
}

// Queue appends a response for the given command.
func (f *FakeBus) Queue(cmd Command, words ...uint16) {
	f.Responses[cmd] = append(f.Responses[cmd], words)
}

// QueueMeasurement queues a data-ready flag plus a raw measurement
// triple, the pair of frames one successful poll consumes.
func (f *FakeBus) QueueMeasurement(co2 uint16, tempRaw uint16, rhRaw uint16) {
	f.Queue(CmdDataReady, 0x07FF)
	f.Queue(CmdReadMeasurement, co2, tempRaw, rhRaw)
}

// QueueNotReady queues one "no data yet" data-ready response.
func (f *FakeBus) QueueNotReady() {
	f.Queue(CmdDataReady, 0x8000)
}

// Exec consumes the next scripted response for cmd.
func (f *FakeBus) Exec(cmd Command, args []uint16, nwords int, settle time.Duration) ([]uint16, error) {
	f.Calls = append(f.Calls, cmd)

	if err := f.Errs[cmd]; err != nil {
		return nil, err
	}
	if nwords == 0 {
		return nil, nil
	}

	queue := f.Responses[cmd]
	if len(queue) == 0 {
		return nil, ErrTimeout
	}
	words := queue[0]
	f.Responses[cmd] = queue[1:]
	return words, nil
}

// Close marks the bus as closed.
func (f *FakeBus) Close() error {
	f.Closed = true
	return nil
}

// CountCalls returns how many times cmd was executed.
func (f *FakeBus) CountCalls(cmd Command) int {
	n := 0
	for _, c := range f.Calls {
		if c == cmd {
			n++
		}
	}
	return n
}
