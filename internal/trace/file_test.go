// internal/trace/file_test.go
package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestFileRecorder_WriteAndRead(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRecorder(nopCloser{buf})

	r.Record(Event{Kind: KindWrite, Address: 0x1000, Value: 7})
	r.Record(Event{Kind: KindInput, Slave: 3, Control: "MASTER_ARM", Input: "1"})

	var got []Event
	require.NoError(t, ReadAll(bytes.NewReader(buf.Bytes()), func(ev Event) error {
		got = append(got, ev)
		return nil
	}))

	require.Len(t, got, 2)
	assert.Equal(t, KindWrite, got[0].Kind)
	assert.Equal(t, uint16(0x1000), got[0].Address)
	assert.Equal(t, uint16(7), got[0].Value)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Equal(t, "MASTER_ARM", got[1].Control)

	_, err := uuid.Parse(got[0].Session)
	assert.NoError(t, err)
	assert.Equal(t, r.Session(), got[1].Session)
}

func TestFileRecorder_IgnoresAfterClose(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRecorder(nopCloser{buf})

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	r.Record(Event{Kind: KindWrite})
	assert.Equal(t, 0, buf.Len())
}

func TestOpenFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.ctrace")

	for i := 0; i < 2; i++ {
		r, err := OpenFile(path)
		require.NoError(t, err)
		r.Record(Event{Kind: KindPollFail, Slave: uint8(i + 1), Error: "timeout"})
		require.NoError(t, r.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var slaves []uint8
	require.NoError(t, ReadAll(f, func(ev Event) error {
		slaves = append(slaves, ev.Slave)
		return nil
	}))
	assert.Equal(t, []uint8{1, 2}, slaves)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "BROADCAST", KindBroadcast.String())
	assert.Equal(t, "UNKNOWN", Kind(99).String())
}
