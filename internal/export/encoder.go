// internal/export/encoder.go
package export

import (
	"cmp"
	"errors"
	"slices"
)

// Encoder serializes writes back into export records.
// Output is byte-exact with what Decoder accepts, so downstream panels can
// run an unmodified decoder on it.
type Encoder struct {
	maxWords int
}

// NewEncoder creates an encoder whose records never exceed maxPayload bytes.
func NewEncoder(maxPayload int) (*Encoder, error) {
	if maxPayload == 0 {
		maxPayload = DefaultMaxPayload
	}
	if maxPayload < 2 || maxPayload > HardMaxPayload || maxPayload%2 != 0 {
		return nil, errors.New("export: max payload must be even and within 2..254")
	}
	return &Encoder{maxWords: maxPayload / 2}, nil
}

// Encode appends records for updates to dst and returns the extended slice.
// updates is sorted in place by address; runs of consecutive word addresses
// are coalesced into one record, split at the payload limit.
func (e *Encoder) Encode(dst []byte, updates []AddressValueEvent) []byte {
	if len(updates) == 0 {
		return dst
	}

	slices.SortStableFunc(updates, func(a, b AddressValueEvent) int {
		return cmp.Compare(a.Address, b.Address)
	})

	start := 0
	for i := 1; i <= len(updates); i++ {
		if i < len(updates) &&
			i-start < e.maxWords &&
			updates[i].Address == updates[i-1].Address+WordStride {
			continue
		}
		dst = appendRecord(dst, updates[start:i])
		start = i
	}
	return dst
}

// appendRecord writes one record for a run of consecutive words.
func appendRecord(dst []byte, run []AddressValueEvent) []byte {
	for i := 0; i < SyncLen; i++ {
		dst = append(dst, SyncByte)
	}
	addr := run[0].Address
	dst = append(dst, byte(addr), byte(addr>>8), byte(len(run)*2))
	for _, u := range run {
		dst = append(dst, byte(u.Value), byte(u.Value>>8))
	}
	return dst
}

// MaxEncodedLen is the worst-case output size for n updates (one record each).
func MaxEncodedLen(n int) int {
	return n * RecordLen(1)
}

// WordsSent counts the words of an Encode output whose both bytes lie in
// the first n bytes of stream. Decoders emit a word as soon as it
// completes, so these are the words a receiver has seen. Words count in
// address order, the order Encode wrote them.
func WordsSent(stream []byte, n int) int {
	if n > len(stream) {
		n = len(stream)
	}
	words := 0
	pos := 0
	for pos+SyncLen+HeaderLen <= len(stream) {
		body := pos + SyncLen + HeaderLen
		count := int(stream[body-1])
		if n <= body {
			break
		}
		words += (min(n, body+count) - body) / 2
		if n < body+count {
			break
		}
		pos = body + count
	}
	return words
}
