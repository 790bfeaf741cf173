package adxl362

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDecoder_SingleChunk(t *testing.T) {
	t.Parallel()

	data, want := stream(5, false)
	d := NewStreamDecoder(false)
	assert.Equal(t, want, d.Decode(data))
}

// Feeding the stream in chunks of every size from 1 byte up must yield
// the same samples as one shot, in order, with none lost or repeated.
func TestStreamDecoder_ChunkedEquivalence(t *testing.T) {
	t.Parallel()

	data, want := stream(9, true)
	for chunk := 1; chunk <= len(data); chunk++ {
		d := NewStreamDecoder(true)
		var got []SampleSet
		for off := 0; off < len(data); off += chunk {
			end := off + chunk
			if end > len(data) {
				end = len(data)
			}
			got = append(got, d.Decode(data[off:end])...)
		}
		require.Equal(t, want, got, "chunk size %d", chunk)
	}
}

func TestStreamDecoder_MisalignedStart(t *testing.T) {
	t.Parallel()

	data, want := stream(4, false)
	d := NewStreamDecoder(false)
	// Join mid-set: the partial leading set is discarded.
	got := d.Decode(data[4:])
	assert.Equal(t, want[1:], got)
}

func TestStreamDecoder_DesyncThenRecover(t *testing.T) {
	t.Parallel()

	var junk []byte
	for i := 0; i < 4; i++ {
		r := EncodeRecord(AxisZ, int16(i))
		junk = append(junk, r[0], r[1])
	}
	d := NewStreamDecoder(false)
	assert.Nil(t, d.Decode(junk))
	assert.Equal(t, 1, d.Desyncs())

	data, want := stream(2, false)
	assert.Equal(t, want, d.Decode(data))
}

func TestStreamDecoder_Reset(t *testing.T) {
	t.Parallel()

	data, want := stream(2, false)
	d := NewStreamDecoder(false)
	d.Decode(data[:3])
	d.Reset()
	// After a reset the half-buffered set is gone; a fresh stream
	// decodes cleanly.
	assert.Equal(t, want, d.Decode(data))
}
