// internal/bus/frame.go
package bus

import (
	"errors"
	"fmt"
)

// Bus frame layout.
//
// Master frame:
//
//	Addr(1) Type(1) Len(1) Payload(Len) CRC8(1)
//
// Slave response:
//
//	0x00                                  nothing to report
//	Len(1) Type(1) Payload(Len) CRC8(1)   input lines
//
// CRC8 covers every byte between the start of the frame and the checksum.

// ---- ADDRESSING ----

// BroadcastAddr is received by every panel on the bus.
const BroadcastAddr uint8 = 0

// MinSlaveAddr and MaxSlaveAddr bound assignable panel addresses.
// Everything above MaxSlaveAddr is reserved.
const (
	MinSlaveAddr uint8 = 1
	MaxSlaveAddr uint8 = 126
)

// ---- FRAME TYPES ----

const (
	TypeExport byte = 0x00 // master -> all: export stream bytes
	TypePoll   byte = 0x01 // master -> one slave: report inputs
	TypeInput  byte = 0x02 // slave -> master: input lines
)

// MaxPayload is the largest payload a one-byte length can describe.
const MaxPayload = 255

// Frame errors.
var (
	ErrPayloadTooLarge = errors.New("bus: payload too large")
	ErrBadAddress      = errors.New("bus: address outside 1..126")
	ErrMalformed       = errors.New("bus: malformed response")
	ErrTimeout         = errors.New("bus: response timeout")
)

// ValidSlave reports whether addr may be assigned to a panel.
func ValidSlave(addr uint8) bool {
	return addr >= MinSlaveAddr && addr <= MaxSlaveAddr
}

// AppendFrame appends one master frame.
func AppendFrame(dst []byte, addr uint8, typ byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return dst, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), MaxPayload)
	}
	start := len(dst)
	dst = append(dst, addr, typ, byte(len(payload)))
	dst = append(dst, payload...)
	return append(dst, crc8(dst[start:])), nil
}

// AppendPoll appends a poll frame for slave addr.
func AppendPoll(dst []byte, addr uint8) ([]byte, error) {
	if !ValidSlave(addr) {
		return dst, fmt.Errorf("%w: %d", ErrBadAddress, addr)
	}
	return AppendFrame(dst, addr, TypePoll, nil)
}

// AppendResponse appends a slave response. An empty payload encodes the
// single "nothing to report" byte.
func AppendResponse(dst []byte, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return append(dst, 0x00), nil
	}
	if len(payload) > MaxPayload {
		return dst, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), MaxPayload)
	}
	start := len(dst)
	dst = append(dst, byte(len(payload)), TypeInput)
	dst = append(dst, payload...)
	return append(dst, crc8(dst[start:])), nil
}

// ---- RESPONSE PARSER ----

type responseState uint8

const (
	respLength responseState = iota
	respType
	respPayload
	respChecksum
)

// ResponseParser reassembles one slave response from single bytes.
// The payload buffer is fixed; Payload is valid until the next Reset.
type ResponseParser struct {
	state  responseState
	length int
	typ    byte
	n      int
	buf    [MaxPayload]byte
}

// Reset prepares the parser for a new response.
func (p *ResponseParser) Reset() {
	p.state = respLength
	p.length = 0
	p.n = 0
}

// Feed consumes one byte. done is true once a full response was read;
// err is ErrMalformed for a bad type or checksum. The parser is ready for the
// next response after done.
func (p *ResponseParser) Feed(b byte) (done bool, err error) {
	switch p.state {
	case respLength:
		if b == 0 {
			p.length = 0
			p.n = 0
			return true, nil
		}
		p.length = int(b)
		p.state = respType

	case respType:
		if b != TypeInput {
			p.state = respLength
			return true, fmt.Errorf("%w: type 0x%02x", ErrMalformed, b)
		}
		p.typ = b
		p.n = 0
		p.state = respPayload

	case respPayload:
		p.buf[p.n] = b
		p.n++
		if p.n == p.length {
			p.state = respChecksum
		}

	case respChecksum:
		p.state = respLength
		sum := crc8Update(0, byte(p.length))
		sum = crc8Update(sum, p.typ)
		for _, c := range p.buf[:p.n] {
			sum = crc8Update(sum, c)
		}
		if sum != b {
			return true, fmt.Errorf("%w: checksum got=0x%02x want=0x%02x", ErrMalformed, b, sum)
		}
		return true, nil
	}
	return false, nil
}

// Payload returns the input bytes of the last complete response.
func (p *ResponseParser) Payload() []byte {
	return p.buf[:p.n]
}
