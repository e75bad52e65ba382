// internal/relay/relay_test.go
package relay

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/cockpit-bridge/internal/ring"
)

type flakyWriter struct {
	bytes.Buffer
	fail bool
}

func (f *flakyWriter) Write(p []byte) (int, error) {
	if f.fail {
		return 0, errors.New("tx underrun")
	}
	return f.Buffer.Write(p)
}

func newRings(t *testing.T) (*ring.Buffer, *ring.Buffer) {
	t.Helper()
	up, err := ring.New(1024)
	require.NoError(t, err)
	bus, err := ring.New(1024)
	require.NoError(t, err)
	return up, bus
}

func TestStep_CopiesVerbatimBothWays(t *testing.T) {
	upRx, busRx := newRings(t)
	var busTx, upTx bytes.Buffer

	b, err := New(upRx, &busTx, busRx, &upTx, nil)
	require.NoError(t, err)

	// garbage is relayed as-is, nothing is parsed
	upstream := append([]byte{0x55, 0x55, 0x55, 0x55, 0x01, 0x10, 0x03}, bytes.Repeat([]byte{0xAA}, 600)...)
	upRx.Push(upstream)
	busRx.Push([]byte("GEAR 1\n"))

	n, err := b.Step()
	require.NoError(t, err)
	assert.Equal(t, len(upstream)+7, n)
	assert.Equal(t, upstream, busTx.Bytes())
	assert.Equal(t, "GEAR 1\n", upTx.String())

	st := b.Stats()
	assert.Equal(t, uint64(len(upstream)), st.UpstreamToBus)
	assert.Equal(t, uint64(7), st.BusToUpstream)
	assert.Zero(t, st.Errors)
}

func TestStep_IdleMovesNothing(t *testing.T) {
	upRx, busRx := newRings(t)
	b, err := New(upRx, &bytes.Buffer{}, busRx, &bytes.Buffer{}, nil)
	require.NoError(t, err)

	n, err := b.Step()
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestStep_WriteErrorCountedOtherDirectionContinues(t *testing.T) {
	upRx, busRx := newRings(t)
	busTx := &flakyWriter{fail: true}
	var upTx bytes.Buffer

	b, err := New(upRx, busTx, busRx, &upTx, nil)
	require.NoError(t, err)

	upRx.Push([]byte{1, 2, 3})
	busRx.Push([]byte{4, 5})

	_, err = b.Step()
	require.Error(t, err)
	assert.Equal(t, []byte{4, 5}, upTx.Bytes())
	assert.Equal(t, uint64(1), b.Stats().Errors)

	// the link recovers; later bytes flow again
	busTx.fail = false
	upRx.Push([]byte{6})
	_, err = b.Step()
	require.NoError(t, err)
	assert.Equal(t, []byte{6}, busTx.Bytes())
}

func TestNew_RequiresAllEnds(t *testing.T) {
	upRx, busRx := newRings(t)
	_, err := New(upRx, nil, busRx, &bytes.Buffer{}, nil)
	assert.Error(t, err)
}
