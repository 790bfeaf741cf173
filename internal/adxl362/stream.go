package adxl362

import "log"

// StreamDecoder decodes a FIFO byte stream that arrives in arbitrary
// chunks over some other transport (TCP, serial). It applies the same
// realignment and carry rules as CaptureBuffer, so feeding it a stream
// split at any byte boundary yields exactly the samples of the unsplit
// stream.
type StreamDecoder struct {
	storeTemp bool
	setSize   int
	pending   []byte
	desyncs   int
}

// NewStreamDecoder returns a decoder for the given temperature mode.
func NewStreamDecoder(storeTemp bool) *StreamDecoder {
	return &StreamDecoder{
		storeTemp: storeTemp,
		setSize:   SampleSetSize(storeTemp),
	}
}

// Decode consumes the next chunk of the stream and returns all complete
// sample sets that became decodable. It returns nil until at least one
// sample-set window has accumulated, so a desynchronized prefix is
// never misjudged on a short chunk.
func (d *StreamDecoder) Decode(chunk []byte) []SampleSet {
	d.pending = append(d.pending, chunk...)
	if len(d.pending) < d.setSize {
		return nil
	}

	start, count, carry, ok := realign(d.pending, d.setSize)
	if !ok {
		d.desyncs++
		log.Printf("adxl362: desynchronized stream, discarding %d bytes (desyncs=%d)", len(d.pending), d.desyncs)
		d.pending = d.pending[:0]
		return nil
	}
	if count == 0 {
		// Aligned but short; keep the tail and wait for more bytes.
		d.pending = append(d.pending[:0], d.pending[start:]...)
		return nil
	}

	sets := make([]SampleSet, count)
	for i := range sets {
		sets[i] = decodeSet(d.pending, start+i*d.setSize, d.storeTemp)
	}
	d.pending = append(d.pending[:0], d.pending[len(d.pending)-carry:]...)
	return sets
}

// Desyncs returns how many times the decoder had to discard its window
// for want of an X-tagged record.
func (d *StreamDecoder) Desyncs() int { return d.desyncs }

// Reset drops any buffered bytes, for reuse across connections.
func (d *StreamDecoder) Reset() {
	d.pending = d.pending[:0]
}
