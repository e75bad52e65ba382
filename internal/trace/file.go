// internal/trace/file.go
package trace

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor decoder mode: %v", err))
	}
}

// FileRecorder appends CBOR events to a file. Every event carries the
// session id assigned when the recorder was opened.
type FileRecorder struct {
	mu      sync.Mutex
	w       io.WriteCloser
	enc     *cbor.Encoder
	session string
	now     func() time.Time
	closed  bool
}

// OpenFile opens path for appending, creating it with 0644 if needed.
func OpenFile(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	return NewRecorder(f), nil
}

// NewRecorder writes events to w under a fresh session id.
func NewRecorder(w io.WriteCloser) *FileRecorder {
	return &FileRecorder{
		w:       w,
		enc:     encMode.NewEncoder(w),
		session: uuid.NewString(),
		now:     time.Now,
	}
}

// Session returns the id stamped on every event.
func (r *FileRecorder) Session() string { return r.session }

// Record stamps and writes ev. Encoding errors are ignored: tracing must
// not disturb the bridge.
func (r *FileRecorder) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now()
	}
	ev.Session = r.session
	_ = r.enc.Encode(ev)
}

// Close closes the underlying writer. Safe to call more than once.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.w.Close()
}

var _ Recorder = (*FileRecorder)(nil)

// ReadAll decodes every event from r until EOF.
func ReadAll(r io.Reader, fn func(Event) error) error {
	dec := decMode.NewDecoder(r)
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("trace: decode: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
