// internal/ring/pump.go
package ring

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/goburrow/serial"
)

// pumpChunk bounds one read from the port.
const pumpChunk = 64

// Pump is the receive side of a link. It reads from r and pushes into buf,
// doing nothing else: no parsing and no waiting on the consumer.
// Read errors are logged, followed by a short backoff; EOF ends the pump.
// Pump returns when ctx is done.
func Pump(ctx context.Context, name string, r io.Reader, buf *Buffer, backoff time.Duration) {
	var chunk [pumpChunk]byte
	for {
		if ctx.Err() != nil {
			return
		}

		n, err := r.Read(chunk[:])
		if n > 0 {
			buf.Push(chunk[:n])
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			log.Printf("receive pump stopped (link=%s): eof", name)
			return
		}
		if n == 0 && !isTimeout(err) {
			log.Printf("receive pump read failed (link=%s): %v", name, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}
}

// isTimeout recognises read deadline expiry on serial ports and sockets.
// Those are expected on an idle link and are not logged.
func isTimeout(err error) bool {
	if errors.Is(err, serial.ErrTimeout) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
