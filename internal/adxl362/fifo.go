// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl362

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// FIFOSource is the transport side of a fill cycle: something that can
// report how many 16-bit entries are pending upstream and drain them
// into a caller-owned buffer. *Dev implements it over SPI; tests use a
// fake fed with synthetic streams.
type FIFOSource interface {
	// PendingEntries returns the number of 16-bit FIFO entries
	// (records, not sample sets) waiting to be read.
	PendingEntries() (int, error)
	// ReadFIFO performs one burst read of exactly len(dst) bytes.
	ReadFIFO(dst []byte) error
	// StoreTemp reports whether the FIFO is configured to store
	// temperature records (XYZT sets) or not (XYZ sets).
	StoreTemp() bool
}

// BufferState is the lifecycle of a CaptureBuffer. Exactly one fill may
// be in flight per buffer; the type enforces the transitions instead of
// leaving them to caller convention.
type BufferState int32

const (
	StateFree     BufferState = iota // available for a new fill
	StatePending                     // a transfer is outstanding
	StateComplete                    // filled, realigned, readable
)

func (s BufferState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StatePending:
		return "pending"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

var (
	// ErrBufferBusy is returned when a fill is requested against a
	// buffer that is not in the free state.
	ErrBufferBusy = errors.New("adxl362: capture buffer is not free")
	// ErrTempModeMismatch is returned when the buffer's temperature
	// mode no longer matches the device's FIFO configuration. The
	// buffer's carried bytes are discarded, since they were produced
	// under the old record layout.
	ErrTempModeMismatch = errors.New("adxl362: fifo temperature mode changed since buffer creation")
	// ErrNotComplete is returned by sample accessors when the buffer
	// holds no completed fill.
	ErrNotComplete = errors.New("adxl362: capture buffer has no completed fill")
)

// FillResult is delivered exactly once on the channel returned by
// BeginFill, on success or failure.
type FillResult struct {
	Samples int // complete sample sets decodable from the buffer
	Err     error
}

// CaptureBuffer owns one reusable byte region that FIFO bursts are
// drained into. The temperature mode is fixed at creation so that bytes
// carried across fill cycles can never be reinterpreted under a
// different record layout.
//
// The realignment it performs after every fill handles streams that do
// not start on a sample-set boundary: the device guarantees FIFO reads
// begin on a record boundary, but the first record may be mid-set, so
// the buffer scans for the first X-tagged record and discards what
// precedes it. Trailing bytes beyond the last complete set are carried
// into the next cycle, so a continuous stream split across fills loses
// and duplicates nothing.
type CaptureBuffer struct {
	mu        sync.Mutex
	state     BufferState
	storeTemp bool
	setSize   int

	buf   []byte
	carry []byte // tail of the previous fill, 0..setSize-1 bytes

	startOffset int
	sampleCount int
	bytesFilled int
	desyncs     int
}

// NewCaptureBuffer allocates a buffer of the given capacity for the
// given FIFO temperature mode. The capacity must hold at least one
// sample set.
func NewCaptureBuffer(capacity int, storeTemp bool) (*CaptureBuffer, error) {
	setSize := SampleSetSize(storeTemp)
	if capacity < setSize {
		return nil, fmt.Errorf("adxl362: capture buffer capacity %d below sample set size %d", capacity, setSize)
	}
	return &CaptureBuffer{
		storeTemp: storeTemp,
		setSize:   setSize,
		buf:       make([]byte, capacity),
		carry:     make([]byte, 0, setSize),
	}, nil
}

// State returns the buffer's lifecycle state.
func (b *CaptureBuffer) State() BufferState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StoreTemp reports the temperature mode the buffer was created with.
func (b *CaptureBuffer) StoreTemp() bool { return b.storeTemp }

// SampleSetSize returns 6 (XYZ) or 8 (XYZT) bytes.
func (b *CaptureBuffer) SampleSetSize() int { return b.setSize }

// Capacity returns the byte capacity of the buffer.
func (b *CaptureBuffer) Capacity() int { return len(b.buf) }

// Desyncs returns how many fills found no X-tagged record and were
// discarded wholesale.
func (b *CaptureBuffer) Desyncs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.desyncs
}

// BeginFill runs one fill cycle against src. It sizes the transfer from
// the pending entry count, clamps it so carried bytes plus complete
// samples never exceed the capacity, copies any carried bytes to the
// front of the buffer and issues the transfer asynchronously.
//
// started is false, with a nil error and channel, when fewer bytes than
// one full sample set are pending; that is steady-state "try again
// later", not a failure. When started is true the returned channel
// delivers exactly one FillResult and the buffer moves Pending →
// Complete (or back to Free on a transport error, with the carried
// bytes intact).
func (b *CaptureBuffer) BeginFill(src FIFOSource) (started bool, done <-chan FillResult, err error) {
	b.mu.Lock()
	if b.state != StateFree {
		err := fmt.Errorf("%w (state %s)", ErrBufferBusy, b.state)
		b.mu.Unlock()
		return false, nil, err
	}
	if src.StoreTemp() != b.storeTemp {
		// Carried bytes were cut under the other record layout;
		// decoding them now would corrupt every following sample.
		b.carry = b.carry[:0]
		b.mu.Unlock()
		return false, nil, ErrTempModeMismatch
	}

	entries, err := src.PendingEntries()
	if err != nil {
		b.mu.Unlock()
		return false, nil, fmt.Errorf("adxl362: reading fifo entry count: %w", err)
	}

	want := entries * RecordSize / b.setSize
	if maxFull := (len(b.buf) - len(b.carry)) / b.setSize; want > maxFull {
		// Backpressure: dropping the oldest unread hardware samples
		// beats overflowing the buffer.
		want = maxFull
	}
	if want < 1 {
		b.mu.Unlock()
		return false, nil, nil
	}

	n := want * b.setSize
	prefix := copy(b.buf, b.carry)
	b.state = StatePending
	b.mu.Unlock()

	ch := make(chan FillResult, 1)
	go func() {
		if err := src.ReadFIFO(b.buf[prefix : prefix+n]); err != nil {
			b.mu.Lock()
			b.state = StateFree
			b.mu.Unlock()
			ch <- FillResult{Err: fmt.Errorf("adxl362: fifo transfer: %w", err)}
			return
		}
		samples := b.complete(n)
		ch <- FillResult{Samples: samples}
	}()
	return true, ch, nil
}

// complete realigns a freshly transferred fill and stashes the
// undecodable tail for the next cycle.
func (b *CaptureBuffer) complete(transferred int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bytesFilled = len(b.carry) + transferred
	b.carry = b.carry[:0]

	start, count, carry, ok := realign(b.buf[:b.bytesFilled], b.setSize)
	if !ok {
		// No X-tagged record in a full sample-set window: the stream
		// is desynchronized (bus noise, device still booting). Drop
		// the fill and start clean next cycle.
		b.desyncs++
		log.Printf("adxl362: desynchronized fifo stream, discarding %d bytes (desyncs=%d)", b.bytesFilled, b.desyncs)
		b.startOffset = b.bytesFilled
		b.sampleCount = 0
		b.state = StateComplete
		return 0
	}

	b.startOffset = start
	b.sampleCount = count
	if carry > 0 {
		b.carry = append(b.carry[:0], b.buf[b.bytesFilled-carry:b.bytesFilled]...)
	}
	b.state = StateComplete
	return count
}

// realign locates the first X-tagged record boundary in buf, scanning
// even offsets within one sample-set window, and computes how many
// complete sample sets follow it and how many trailing bytes are left
// over. ok is false when no X tag exists in the window, which can only
// happen on a desynchronized stream since a merely mid-set start puts
// the next X record within setSize bytes.
func realign(buf []byte, setSize int) (start, count, carry int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, 0, true
	}
	limit := setSize
	if limit > len(buf) {
		limit = len(buf)
	}
	for start = 0; start < limit; start += RecordSize {
		if Axis(buf[start]>>6)&0x3 == AxisX {
			count = (len(buf) - start) / setSize
			carry = len(buf) - start - count*setSize
			return start, count, carry, true
		}
	}
	return len(buf), 0, 0, false
}

// Samples returns the number of complete sample sets in the buffer.
func (b *CaptureBuffer) Samples() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sampleCount
}

// StartOffset returns the byte offset of the first X-tagged record of
// the last fill.
func (b *CaptureBuffer) StartOffset() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startOffset
}

// BytesFilled returns the number of valid bytes in the buffer,
// including any prefix carried in from the previous cycle.
func (b *CaptureBuffer) BytesFilled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bytesFilled
}

// Bytes returns the raw filled region of the buffer. Only valid while
// the buffer is in the complete state; the next fill overwrites it.
func (b *CaptureBuffer) Bytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateComplete {
		return nil, ErrNotComplete
	}
	return b.buf[:b.bytesFilled], nil
}

// Set decodes sample set i. Valid for 0 <= i < Samples() on a complete
// buffer.
func (b *CaptureBuffer) Set(i int) (SampleSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateComplete {
		return SampleSet{}, ErrNotComplete
	}
	if i < 0 || i >= b.sampleCount {
		return SampleSet{}, fmt.Errorf("adxl362: sample index %d out of range [0,%d)", i, b.sampleCount)
	}
	return decodeSet(b.buf, b.startOffset+i*b.setSize, b.storeTemp), nil
}

// X returns the X-axis value of sample set i. Y, Z and T behave the
// same; T reads the temperature record and is only meaningful when the
// buffer stores temperature. Like Set, these are only valid on a
// complete buffer for 0 <= i < Samples(); anything else panics rather
// than decoding stale bytes.
func (b *CaptureBuffer) X(i int) int16 { return b.record(i, 0) }
func (b *CaptureBuffer) Y(i int) int16 { return b.record(i, 2) }
func (b *CaptureBuffer) Z(i int) int16 { return b.record(i, 4) }
func (b *CaptureBuffer) T(i int) int16 { return b.record(i, 6) }

func (b *CaptureBuffer) record(i, axisOff int) int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateComplete {
		panic("adxl362: sample access on a buffer with no completed fill")
	}
	if i < 0 || i >= b.sampleCount {
		panic(fmt.Sprintf("adxl362: sample index %d out of range [0,%d)", i, b.sampleCount))
	}
	off := b.startOffset + i*b.setSize + axisOff
	_, v := DecodeRecord(b.buf[off], b.buf[off+1])
	return v
}

// Release returns a complete buffer to the free state so the next fill
// cycle may run. Releasing a free buffer is a no-op; releasing a
// pending one is a caller error.
func (b *CaptureBuffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StatePending {
		return fmt.Errorf("adxl362: release while fill in flight")
	}
	b.state = StateFree
	return nil
}

// Reset drops any carried bytes and returns the buffer to the free
// state. Use after reconfiguring the device FIFO.
func (b *CaptureBuffer) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StatePending {
		return fmt.Errorf("adxl362: reset while fill in flight")
	}
	b.carry = b.carry[:0]
	b.startOffset = 0
	b.sampleCount = 0
	b.bytesFilled = 0
	b.state = StateFree
	return nil
}
