package scd4x

import (
	"fmt"
)

// Command is a 16-bit SCD4x command opcode.
type Command uint16

// Command set from the SCD4x datasheet.
const (
	CmdStartPeriodic      Command = 0x21B1
	CmdReadMeasurement    Command = 0xEC05
	CmdStopPeriodic       Command = 0x3F86
	CmdWakeUp             Command = 0x36F6
	CmdReinit             Command = 0x3646
	CmdDataReady          Command = 0xE4B8
	CmdSetASCEnabled      Command = 0x2416
	CmdSetASCTarget       Command = 0x243A
	CmdSetAmbientPressure Command = 0xE000
	CmdSetTempOffset      Command = 0x241D
	CmdPersistSettings    Command = 0x3615
)

// ChecksumError reports a CRC mismatch on one word of a response
// frame. The whole frame is discarded when any word fails.
type ChecksumError struct {
	Word int
	Want byte
	Got  byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("scd4x: checksum mismatch on word %d: want %02x, got %02x", e.Word, e.Want, e.Got)
}

// EncodeCommand packs a command and optional argument words into a bus
// frame: 2 opcode bytes, then each argument as 2 data bytes followed
// by their CRC.
func EncodeCommand(cmd Command, args ...uint16) []byte {
	out := make([]byte, 0, 2+3*len(args))
	out = append(out, byte(cmd>>8), byte(cmd))
	for _, w := range args {
		d := []byte{byte(w >> 8), byte(w)}
		out = append(out, d[0], d[1], crc8(d))
	}
	return out
}

// DecodeWords unpacks a response frame of CRC-protected words. A frame
// whose length is not a multiple of 3 or with any failing checksum is
// rejected in full.
func DecodeWords(buf []byte) ([]uint16, error) {
	if len(buf) == 0 || len(buf)%3 != 0 {
		return nil, fmt.Errorf("scd4x: bad frame length %d", len(buf))
	}
	words := make([]uint16, 0, len(buf)/3)
	for i := 0; i < len(buf); i += 3 {
		d := buf[i : i+2]
		if want := crc8(d); want != buf[i+2] {
			return nil, &ChecksumError{Word: i / 3, Want: want, Got: buf[i+2]}
		}
		words = append(words, uint16(d[0])<<8|uint16(d[1]))
	}
	return words, nil
}
