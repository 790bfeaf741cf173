package adxl362

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFIFO plays back a pre-built device stream. Reads consume the
// stream in order, like the hardware ring buffer does.
type fakeFIFO struct {
	stream    []byte
	pos       int
	storeTemp bool
	readErr   error
	entryErr  error
}

func (f *fakeFIFO) PendingEntries() (int, error) {
	if f.entryErr != nil {
		return 0, f.entryErr
	}
	return (len(f.stream) - f.pos) / RecordSize, nil
}

func (f *fakeFIFO) ReadFIFO(dst []byte) error {
	if f.readErr != nil {
		return f.readErr
	}
	n := copy(dst, f.stream[f.pos:])
	f.pos += n
	return nil
}

func (f *fakeFIFO) StoreTemp() bool { return f.storeTemp }

// stream builds a device byte stream of sequential sample sets.
func stream(n int, storeTemp bool) ([]byte, []SampleSet) {
	var buf []byte
	sets := make([]SampleSet, n)
	for i := range sets {
		sets[i] = SampleSet{
			X: int16(i*3 + 1),
			Y: int16(-(i*3 + 2)),
			Z: int16(i*3 + 3),
		}
		if storeTemp {
			sets[i].T = int16(300 + i)
		}
		buf = AppendSampleSet(buf, sets[i], storeTemp)
	}
	return buf, sets
}

func fill(t *testing.T, b *CaptureBuffer, src FIFOSource) FillResult {
	t.Helper()
	started, done, err := b.BeginFill(src)
	require.NoError(t, err)
	require.True(t, started)
	select {
	case res := <-done:
		require.NoError(t, res.Err)
		return res
	case <-time.After(time.Second):
		t.Fatal("fill did not complete")
		return FillResult{}
	}
}

func drain(t *testing.T, b *CaptureBuffer) []SampleSet {
	t.Helper()
	sets := make([]SampleSet, b.Samples())
	for i := range sets {
		s, err := b.Set(i)
		require.NoError(t, err)
		sets[i] = s
	}
	require.NoError(t, b.Release())
	return sets
}

func TestRealign_AlignedStream(t *testing.T) {
	t.Parallel()

	buf, _ := stream(4, false)
	start, count, carry, ok := realign(buf, SetSizeXYZ)
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, count)
	assert.Equal(t, 0, carry)
}

func TestRealign_MidSetStart(t *testing.T) {
	t.Parallel()

	buf, _ := stream(4, false)
	// Start at the Y record of the first set: X appears 4 bytes in.
	tail := buf[2:]
	start, count, carry, ok := realign(tail, SetSizeXYZ)
	require.True(t, ok)
	assert.Equal(t, 4, start)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, carry)
}

func TestRealign_TrailingPartialSet(t *testing.T) {
	t.Parallel()

	buf, _ := stream(3, false)
	cut := buf[:len(buf)-2] // drop the last Z record
	start, count, carry, ok := realign(cut, SetSizeXYZ)
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, count)
	assert.Equal(t, 4, carry)
}

func TestRealign_NoXTag(t *testing.T) {
	t.Parallel()

	// Nothing but Y records: desynchronized.
	var buf []byte
	for i := 0; i < 6; i++ {
		r := EncodeRecord(AxisY, int16(i))
		buf = append(buf, r[0], r[1])
	}
	start, count, carry, ok := realign(buf, SetSizeXYZ)
	assert.False(t, ok)
	assert.Equal(t, len(buf), start)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, carry)
}

// A fill whose X-tagged data starts after 2 garbage bytes yields 2
// complete samples and no leftover tail.
func TestRealign_GarbagePrefix(t *testing.T) {
	t.Parallel()

	data, _ := stream(2, false)
	zRec := EncodeRecord(AxisZ, 77)
	buf := append([]byte{zRec[0], zRec[1]}, data...)
	require.Len(t, buf, 14)

	start, count, carry, ok := realign(buf, SetSizeXYZ)
	require.True(t, ok)
	assert.Equal(t, 2, start)
	assert.Equal(t, 2, count)
	assert.Equal(t, 0, carry)
}

func TestCaptureBuffer_SingleFill(t *testing.T) {
	t.Parallel()

	data, want := stream(4, false)
	src := &fakeFIFO{stream: data}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	res := fill(t, b, src)
	assert.Equal(t, 4, res.Samples)
	assert.Equal(t, StateComplete, b.State())
	assert.Equal(t, 0, b.StartOffset())
	assert.Equal(t, 24, b.BytesFilled())

	assert.Equal(t, want[0].X, b.X(0))
	assert.Equal(t, want[0].Y, b.Y(0))
	assert.Equal(t, want[3].Z, b.Z(3))
	assert.Equal(t, want, drain(t, b))
	assert.Equal(t, StateFree, b.State())
}

func TestCaptureBuffer_TemperatureMode(t *testing.T) {
	t.Parallel()

	data, want := stream(3, true)
	src := &fakeFIFO{stream: data, storeTemp: true}
	b, err := NewCaptureBuffer(64, true)
	require.NoError(t, err)

	res := fill(t, b, src)
	assert.Equal(t, 3, res.Samples)
	assert.Equal(t, want[1].T, b.T(1))
	assert.Equal(t, want, drain(t, b))
}

func TestCaptureBuffer_NotReady(t *testing.T) {
	t.Parallel()

	// Two records pending: less than one full XYZ set.
	data, _ := stream(1, false)
	src := &fakeFIFO{stream: data[:4]}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	started, done, err := b.BeginFill(src)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Nil(t, done)
	assert.Equal(t, StateFree, b.State())
}

func TestCaptureBuffer_CapacityClamp(t *testing.T) {
	t.Parallel()

	// 10 sets pending but the buffer only holds 2.
	data, want := stream(10, false)
	src := &fakeFIFO{stream: data}
	b, err := NewCaptureBuffer(2*SetSizeXYZ + 3, false)
	require.NoError(t, err)

	res := fill(t, b, src)
	assert.Equal(t, 2, res.Samples)
	assert.LessOrEqual(t, b.BytesFilled(), b.Capacity())
	assert.Equal(t, want[:2], drain(t, b))

	// The next fill picks up where the hardware stream left off.
	res = fill(t, b, src)
	assert.Equal(t, 2, res.Samples)
	assert.Equal(t, want[2:4], drain(t, b))
}

func TestCaptureBuffer_CarryAcrossFills(t *testing.T) {
	t.Parallel()

	data, want := stream(7, false)
	// Force a misaligned first fill: chop the leading X record so the
	// remainder starts mid-set. The device initially holds sets 1-6.
	src := &fakeFIFO{stream: data[2:36]}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	// First cycle: 34 bytes pending, 5 sets requested. Realignment
	// discards the truncated first set and carries the X record of the
	// set cut at the end of the transfer.
	res := fill(t, b, src)
	assert.Equal(t, 4, res.Samples)
	got := drain(t, b)

	// More samples arrive; the carried X record completes set 6.
	src.stream = data[2:]
	res = fill(t, b, src)
	assert.Equal(t, 1, res.Samples)
	got = append(got, drain(t, b)...)

	assert.Equal(t, want[1:6], got)
}

// Splitting one continuous stream at every possible byte boundary and
// running two fill cycles must reproduce the unsplit decode, with no
// sample lost or duplicated.
func TestCaptureBuffer_NoLossAcrossSplit(t *testing.T) {
	t.Parallel()

	const n = 8
	data, want := stream(n, false)

	for split := 2; split < len(data)-2; split += 2 {
		// The fake reports only the bytes of the "first transfer" as
		// pending, then the rest: the reassembler sees the stream cut
		// at an arbitrary record boundary.
		src := &fakeFIFO{stream: data[:split]}
		b, err := NewCaptureBuffer(128, false)
		require.NoError(t, err)

		var got []SampleSet
		for cycle := 0; cycle < 2; cycle++ {
			started, done, err := b.BeginFill(src)
			require.NoError(t, err)
			if !started {
				src.stream = data
				continue
			}
			res := <-done
			require.NoError(t, res.Err)
			got = append(got, drain(t, b)...)
			src.stream = data // second cycle sees the remainder
		}
		require.Equal(t, want, got, "split at byte %d", split)
	}
}

func TestCaptureBuffer_DesyncRecovery(t *testing.T) {
	t.Parallel()

	// A stream with no X tags at all.
	var junk []byte
	for i := 0; i < 8; i++ {
		r := EncodeRecord(AxisT, int16(i))
		junk = append(junk, r[0], r[1])
	}
	src := &fakeFIFO{stream: junk}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	res := fill(t, b, src)
	assert.Equal(t, 0, res.Samples)
	assert.Equal(t, 1, b.Desyncs())
	require.NoError(t, b.Release())

	// A clean stream afterwards decodes normally: the desync did not
	// poison the carry.
	data, want := stream(2, false)
	src2 := &fakeFIFO{stream: data}
	res = fill(t, b, src2)
	assert.Equal(t, 2, res.Samples)
	assert.Equal(t, want, drain(t, b))
}

func TestCaptureBuffer_RejectsWhileBusy(t *testing.T) {
	t.Parallel()

	data, _ := stream(2, false)
	src := &fakeFIFO{stream: data}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	res := fill(t, b, src)
	require.Equal(t, 2, res.Samples)

	// Complete but not released: a second fill is a caller error.
	_, _, err = b.BeginFill(src)
	assert.ErrorIs(t, err, ErrBufferBusy)

	require.NoError(t, b.Release())
}

// slowFIFO holds the burst read open until the gate closes, keeping
// the buffer in the pending state for as long as the test needs.
type slowFIFO struct {
	fakeFIFO
	gate chan struct{}
}

func (f *slowFIFO) ReadFIFO(dst []byte) error {
	<-f.gate
	return f.fakeFIFO.ReadFIFO(dst)
}

// Probing a busy buffer with BeginFill while its fill is outstanding
// is an intended use of the lifecycle; the rejection path must stay
// race-free against the transfer goroutine's state write.
func TestCaptureBuffer_BusyPollDuringFill(t *testing.T) {
	t.Parallel()

	data, _ := stream(4, false)
	src := &slowFIFO{fakeFIFO: fakeFIFO{stream: data}, gate: make(chan struct{})}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	started, done, err := b.BeginFill(src)
	require.NoError(t, err)
	require.True(t, started)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				started, ch, err := b.BeginFill(src)
				assert.False(t, started)
				assert.Nil(t, ch)
				assert.ErrorIs(t, err, ErrBufferBusy)
			}
		}()
	}
	wg.Wait()

	close(src.gate)
	select {
	case res := <-done:
		require.NoError(t, res.Err)
		assert.Equal(t, 4, res.Samples)
	case <-time.After(time.Second):
		t.Fatal("fill did not complete")
	}
	require.NoError(t, b.Release())
}

func TestCaptureBuffer_AxisAccessorGuards(t *testing.T) {
	t.Parallel()

	data, want := stream(2, true)
	src := &fakeFIFO{stream: data, storeTemp: true}
	b, err := NewCaptureBuffer(64, true)
	require.NoError(t, err)

	// No completed fill yet: decoding would return stale bytes.
	assert.Panics(t, func() { b.X(0) })

	res := fill(t, b, src)
	require.Equal(t, 2, res.Samples)

	assert.Equal(t, want[0].X, b.X(0))
	assert.Equal(t, want[1].T, b.T(1))
	assert.Panics(t, func() { b.Y(-1) })
	assert.Panics(t, func() { b.Z(2) })

	require.NoError(t, b.Release())
	assert.Panics(t, func() { b.X(0) })
}

func TestCaptureBuffer_TempModeMismatch(t *testing.T) {
	t.Parallel()

	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	src := &fakeFIFO{storeTemp: true}
	_, _, err = b.BeginFill(src)
	assert.ErrorIs(t, err, ErrTempModeMismatch)
	assert.Equal(t, StateFree, b.State())
}

func TestCaptureBuffer_TransferFailure(t *testing.T) {
	t.Parallel()

	data, _ := stream(2, false)
	src := &fakeFIFO{stream: data, readErr: errors.New("bus fault")}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	started, done, err := b.BeginFill(src)
	require.NoError(t, err)
	require.True(t, started)
	res := <-done
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "bus fault")
	assert.Equal(t, StateFree, b.State())

	// The failed cycle did not consume the buffer: retrying works.
	src.readErr = nil
	res = fill(t, b, src)
	assert.Equal(t, 2, res.Samples)
	require.NoError(t, b.Release())
}

func TestCaptureBuffer_EntryCountFailure(t *testing.T) {
	t.Parallel()

	src := &fakeFIFO{entryErr: errors.New("spi timeout")}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	started, _, err := b.BeginFill(src)
	assert.False(t, started)
	assert.Error(t, err)
	assert.Equal(t, StateFree, b.State())
}

func TestNewCaptureBuffer_TooSmall(t *testing.T) {
	t.Parallel()

	_, err := NewCaptureBuffer(4, false)
	assert.Error(t, err)
	_, err = NewCaptureBuffer(6, true)
	assert.Error(t, err)
}

func TestCaptureBuffer_BytesView(t *testing.T) {
	t.Parallel()

	data, _ := stream(2, false)
	src := &fakeFIFO{stream: data}
	b, err := NewCaptureBuffer(64, false)
	require.NoError(t, err)

	_, err = b.Bytes()
	assert.ErrorIs(t, err, ErrNotComplete)

	fill(t, b, src)
	raw, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, raw)
	require.NoError(t, b.Release())
}
