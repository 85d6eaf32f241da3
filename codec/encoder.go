package codec

import "encoding/binary"

// EncodeLogin builds the 17-byte wire form of an IMEI login frame.
// Used by tests (round-trip) and by device simulators exercising the
// gateway end to end.
func EncodeLogin(imei string) []byte {
	out := make([]byte, 2+len(imei))
	binary.BigEndian.PutUint16(out[0:2], uint16(len(imei)))
	copy(out[2:], imei)
	return out
}

// EncodeAVL builds the wire form of a Codec 8 / 8E data frame, including
// preamble, length, record counts, and a correctly computed CRC-16/IBM.
func EncodeAVL(frame *AVLFrame) []byte {
	w := idWidth(frame.CodecID)

	field := []byte{byte(frame.CodecID)}
	field = appendCount(field, 1, uint32(len(frame.Records)))
	for _, rec := range frame.Records {
		field = appendRecord(field, frame.CodecID, w, rec)
	}
	field = appendCount(field, 1, uint32(len(frame.Records)))

	out := make([]byte, 0, 8+len(field)+4)
	out = append(out, 0, 0, 0, 0)
	out = appendUint32(out, uint32(len(field)))
	out = append(out, field...)

	crc := crc16IBM(field)
	out = appendUint32(out, uint32(crc))
	return out
}

func appendRecord(buf []byte, codecID Codec, w int, rec AVLRecord) []byte {
	buf = appendUint(buf, 8, rec.TimestampMS)
	buf = append(buf, rec.Priority)
	buf = appendUint(buf, 4, uint64(uint32(rec.GPS.Longitude)))
	buf = appendUint(buf, 4, uint64(uint32(rec.GPS.Latitude)))
	buf = appendUint(buf, 2, uint64(uint16(rec.GPS.Altitude)))
	buf = appendUint(buf, 2, uint64(rec.GPS.Angle))
	buf = append(buf, rec.GPS.Satellites)
	buf = appendUint(buf, 2, uint64(rec.GPS.Speed))
	buf = appendCount(buf, w, uint32(rec.EventIOID))
	buf = appendCount(buf, w, uint32(rec.TotalIOCount))

	for _, width := range []int{1, 2, 4, 8} {
		var elems []IOElement
		for _, e := range rec.IOElements {
			if e.Width == width {
				elems = append(elems, e)
			}
		}
		buf = appendCount(buf, w, uint32(len(elems)))
		for _, e := range elems {
			buf = appendCount(buf, w, uint32(e.ID))
			buf = appendUint(buf, width, e.Value)
		}
	}

	if codecID == Codec8E {
		var elems []IOElement
		for _, e := range rec.IOElements {
			if e.Width == 0 {
				elems = append(elems, e)
			}
		}
		buf = appendCount(buf, w, uint32(len(elems)))
		for _, e := range elems {
			buf = appendCount(buf, w, uint32(e.ID))
			buf = appendCount(buf, 2, uint32(len(e.VariableData)))
			buf = append(buf, e.VariableData...)
		}
	}

	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint(buf []byte, width int, v uint64) []byte {
	tmp := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		tmp[i] = byte(v)
		v >>= 8
	}
	return append(buf, tmp...)
}

func appendCount(buf []byte, width int, v uint32) []byte {
	return appendUint(buf, width, uint64(v))
}
