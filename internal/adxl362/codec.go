package adxl362

// Axis identifies which axis a FIFO record belongs to. The tag travels
// in the top two bits of the first byte of every record.
type Axis uint8

const (
	AxisX Axis = 0
	AxisY Axis = 1
	AxisZ Axis = 2
	AxisT Axis = 3 // temperature, present only in XYZT mode
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisT:
		return "T"
	}
	return "?"
}

// RecordSize is the wire size of one tagged axis reading.
const RecordSize = 2

// Sample set sizes for the two FIFO formats.
const (
	SetSizeXYZ  = 3 * RecordSize
	SetSizeXYZT = 4 * RecordSize
)

// SampleSetSize returns the number of bytes one sample set occupies in
// the FIFO stream for the given temperature-storage mode.
func SampleSetSize(storeTemp bool) int {
	if storeTemp {
		return SetSizeXYZT
	}
	return SetSizeXYZ
}

// SampleSet is one decoded group of per-axis readings. T is only
// meaningful when the stream carries temperature records.
type SampleSet struct {
	X, Y, Z, T int16
}

// DecodeRecord decodes one 2-byte FIFO record. The first byte carries
// the axis tag in bits 7:6 and the six high bits of the value; the
// second byte is the low byte. The 14-bit payload is two's complement
// and is sign-extended to int16. Any input decodes; tag validity is the
// caller's problem.
func DecodeRecord(b0, b1 byte) (Axis, int16) {
	msb := b0 & 0x3f
	if msb&0x20 != 0 {
		msb |= 0xc0 // sign extension
	}
	return Axis(b0>>6) & 0x3, int16(uint16(msb)<<8 | uint16(b1))
}

// EncodeRecord is the inverse of DecodeRecord. Values outside the
// 14-bit range are truncated. Used by the fake transport and tests.
func EncodeRecord(axis Axis, v int16) [RecordSize]byte {
	u := uint16(v) & 0x3fff
	return [RecordSize]byte{byte(axis&0x3)<<6 | byte(u>>8), byte(u)}
}

// AppendSampleSet appends the wire encoding of one sample set to dst.
func AppendSampleSet(dst []byte, s SampleSet, storeTemp bool) []byte {
	for _, r := range []struct {
		axis Axis
		v    int16
	}{{AxisX, s.X}, {AxisY, s.Y}, {AxisZ, s.Z}, {AxisT, s.T}} {
		if r.axis == AxisT && !storeTemp {
			break
		}
		b := EncodeRecord(r.axis, r.v)
		dst = append(dst, b[0], b[1])
	}
	return dst
}

// decodeSet decodes one sample set starting at off. The caller
// guarantees setSize bytes are available.
func decodeSet(buf []byte, off int, storeTemp bool) SampleSet {
	var s SampleSet
	_, s.X = DecodeRecord(buf[off], buf[off+1])
	_, s.Y = DecodeRecord(buf[off+2], buf[off+3])
	_, s.Z = DecodeRecord(buf[off+4], buf[off+5])
	if storeTemp {
		_, s.T = DecodeRecord(buf[off+6], buf[off+7])
	}
	return s
}
