// Package scd4x drives an SCD4x CO2/temperature/humidity sensor over
// a serial bus adapter. It validates every response word against its
// CRC, converts raw register values to physical units, smooths them
// with an EMA, and recovers from a stalled sensor without ever taking
// the process down.
package scd4x

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Typed bus errors. ErrNack means the adapter accepted nothing (device
// absent or not acknowledging); ErrTimeout means no response arrived
// within the protocol timeout.
var (
	ErrTimeout = errors.New("scd4x: bus timeout")
	ErrNack    = errors.New("scd4x: no ack from sensor")
	ErrStale   = errors.New("scd4x: no valid reading within recovery window")
)

// Bus is the transport to the sensor. Exec writes one command frame
// and, when nwords > 0, reads back that many CRC-protected words after
// the settle delay. Implementations must bound every call with a hard
// timeout.
type Bus interface {
	Exec(cmd Command, args []uint16, nwords int, settle time.Duration) ([]uint16, error)
	Close() error
}

// SerialBus talks to the sensor through a serial bus adapter.
type SerialBus struct {
	port        serial.Port
	readTimeout time.Duration
}

// OpenSerial opens the named serial port and returns a Bus bound to
// it. readTimeout bounds every response read.
func OpenSerial(portName string, readTimeout time.Duration) (*SerialBus, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: 115200})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &SerialBus{port: port, readTimeout: readTimeout}, nil
}

// Exec writes the command frame, waits the sensor's settle time, then
// reads and decodes the response words.
func (b *SerialBus) Exec(cmd Command, args []uint16, nwords int, settle time.Duration) ([]uint16, error) {
	frame := EncodeCommand(cmd, args...)
	n, err := b.port.Write(frame)
	if err != nil {
		return nil, fmt.Errorf("write command %04x: %w", uint16(cmd), err)
	}
	if n == 0 {
		return nil, ErrNack
	}

	time.Sleep(settle)

	if nwords == 0 {
		return nil, nil
	}

	buf := make([]byte, 3*nwords)
	got := 0
	deadline := time.Now().Add(b.readTimeout)
	for got < len(buf) {
		n, err := b.port.Read(buf[got:])
		if err != nil {
			return nil, fmt.Errorf("read response to %04x: %w", uint16(cmd), err)
		}
		if n == 0 {
			// go.bug.st/serial signals a read timeout as a
			// zero-length read without error.
			return nil, ErrTimeout
		}
		got += n
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}

	return DecodeWords(buf)
}

// Close releases the serial port.
func (b *SerialBus) Close() error {
	return b.port.Close()
}
