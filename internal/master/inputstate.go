// internal/master/inputstate.go
package master

import (
	"bytes"
	"errors"
	"fmt"
)

// InputState remembers the last value delivered per (slave, control).
// Each slave table holds at most maxControls controls; the bound is fixed
// at construction.
type InputState struct {
	maxControls int
	tables      map[uint8]map[string]string
}

// NewInputState allocates one bounded table per slave.
func NewInputState(slaves []uint8, maxControls int) *InputState {
	s := &InputState{
		maxControls: maxControls,
		tables:      make(map[uint8]map[string]string, len(slaves)),
	}
	for _, a := range slaves {
		s.tables[a] = make(map[string]string, maxControls)
	}
	return s
}

// Changed compares value with the last delivered report of control on slave.
// It does not modify the state and does not allocate.
// changed is false only for an exact repeat. overflow is true when the
// control could not be remembered because the slave table is full; such
// reports are always forwarded.
func (s *InputState) Changed(slave uint8, control, value []byte) (changed, overflow bool) {
	t, ok := s.tables[slave]
	if !ok {
		return true, true
	}
	if last, seen := t[string(control)]; seen {
		return last != string(value), false
	}
	return true, len(t) >= s.maxControls
}

// Commit stores value as delivered. A control that does not fit a full
// table is not stored.
func (s *InputState) Commit(slave uint8, control, value string) {
	t, ok := s.tables[slave]
	if !ok {
		return
	}
	if _, seen := t[control]; !seen && len(t) >= s.maxControls {
		return
	}
	t[control] = value
}

// Forget clears everything remembered for slave. Used when a slave comes
// back online so its first report after an outage is always forwarded.
func (s *InputState) Forget(slave uint8) {
	if t, ok := s.tables[slave]; ok {
		clear(t)
	}
}

// ---- INPUT LINES ----

var errBadLine = errors.New("master: malformed input line")

// walkLines calls fn for each newline-terminated "CONTROL VALUE" line.
// control and value alias payload. With a nil fn it only validates.
func walkLines(payload []byte, fn func(control, value []byte)) error {
	for len(payload) > 0 {
		i := bytes.IndexByte(payload, '\n')
		if i < 0 {
			return fmt.Errorf("%w: unterminated", errBadLine)
		}
		line := bytes.TrimRight(payload[:i], "\r")
		payload = payload[i+1:]

		if len(line) == 0 {
			continue
		}
		sp := bytes.IndexByte(line, ' ')
		if sp <= 0 || sp == len(line)-1 {
			return fmt.Errorf("%w: %q", errBadLine, line)
		}
		if fn != nil {
			fn(line[:sp], line[sp+1:])
		}
	}
	return nil
}
