// internal/link/sink.go
package link

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tamzrod/cockpit-bridge/internal/master"
)

// CommandSink forwards input events to the simulator as import command
// lines: "CONTROL VALUE\n". One write per event.
type CommandSink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// NewCommandSink wraps the upstream writer.
func NewCommandSink(w io.Writer) *CommandSink {
	return &CommandSink{w: w, buf: make([]byte, 0, 64)}
}

// Deliver implements master.Sink.
func (s *CommandSink) Deliver(ev master.InputEvent) error {
	if ev.Control == "" || strings.ContainsAny(ev.Control, " \r\n") {
		return fmt.Errorf("link: bad control name %q", ev.Control)
	}
	if ev.Value == "" || strings.ContainsAny(ev.Value, "\r\n") {
		return errors.New("link: input value must be a single non-empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf[:0], ev.Control...)
	s.buf = append(s.buf, ' ')
	s.buf = append(s.buf, ev.Value...)
	s.buf = append(s.buf, '\n')

	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("link: send %s: %w", ev.Control, err)
	}
	return nil
}
