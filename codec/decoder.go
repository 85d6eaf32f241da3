package codec

import (
	"encoding/binary"
	"errors"
)

// ErrIncomplete signals the decoder needs more bytes before it can
// produce a verdict; the frame reader must not advance its cursor.
var ErrIncomplete = errors.New("codec: incomplete frame")

// FaultKind classifies an unconditionally fatal decode error. Every
// FaultKind closes the connection; the protocol has no resynchronization
// delimiter that would make recovery safe.
type FaultKind string

const (
	FaultBadLogin       FaultKind = "BadLogin"
	FaultBadPreamble    FaultKind = "BadPreamble"
	FaultBadLength      FaultKind = "BadLength"
	FaultBadCodec       FaultKind = "BadCodec"
	FaultBadRecordCount FaultKind = "BadRecordCount"
	FaultBadCrc         FaultKind = "BadCrc"
)

// FaultError wraps a FaultKind so callers can type-assert with errors.As.
type FaultError struct {
	Kind FaultKind
}

func (e *FaultError) Error() string { return "codec: " + string(e.Kind) }

func fault(kind FaultKind) (*Frame, int, error) {
	return nil, 0, &FaultError{Kind: kind}
}

const (
	maxDataLength = 65528
	loginLength   = 15
)

// Decode consumes at most one frame from the head of data. expectLogin
// selects the grammar: true parses an IMEI login frame (session is
// Unauthenticated), false parses a Codec 8/8E AVL data frame (session is
// Authenticated). It returns (frame, bytesConsumed, nil) on success,
// (nil, 0, ErrIncomplete) when more bytes are needed, or (nil, 0,
// *FaultError) when the bytes are malformed beyond recovery.
func Decode(data []byte, expectLogin bool) (*Frame, int, error) {
	if expectLogin {
		return decodeLogin(data)
	}
	return decodeAVL(data)
}

func decodeLogin(data []byte) (*Frame, int, error) {
	if len(data) < 2 {
		return nil, 0, ErrIncomplete
	}
	length := binary.BigEndian.Uint16(data[0:2])
	if length != loginLength {
		return fault(FaultBadLogin)
	}
	if len(data) < 2+int(length) {
		return nil, 0, ErrIncomplete
	}
	imei := data[2 : 2+int(length)]
	for _, b := range imei {
		if b < '0' || b > '9' {
			return fault(FaultBadLogin)
		}
	}
	return &Frame{Login: &LoginFrame{IMEI: string(imei)}}, 2 + int(length), nil
}

func decodeAVL(data []byte) (*Frame, int, error) {
	if len(data) < 8 {
		return nil, 0, ErrIncomplete
	}
	for _, b := range data[0:4] {
		if b != 0x00 {
			return fault(FaultBadPreamble)
		}
	}
	dataLength := binary.BigEndian.Uint32(data[4:8])
	if dataLength == 0 || dataLength > maxDataLength {
		return fault(FaultBadLength)
	}
	total := 8 + int(dataLength) + 4
	if len(data) < total {
		return nil, 0, ErrIncomplete
	}

	field := data[8 : 8+int(dataLength)]
	codecID := Codec(field[0])
	if codecID != Codec8 && codecID != Codec8E {
		return fault(FaultBadCodec)
	}

	d := &decodeCursor{buf: field, pos: 1}
	recordCount1, ok := d.readCount(1)
	if !ok {
		return fault(FaultBadRecordCount)
	}

	records := make([]AVLRecord, 0, recordCount1)
	for i := uint32(0); i < recordCount1; i++ {
		rec, ok := decodeRecord(d, codecID)
		if !ok {
			return fault(FaultBadRecordCount)
		}
		records = append(records, rec)
	}

	recordCount2, ok := d.readCount(1)
	if !ok {
		return fault(FaultBadRecordCount)
	}
	if recordCount2 != recordCount1 || d.pos != len(field) {
		return fault(FaultBadRecordCount)
	}

	crcStored := binary.BigEndian.Uint32(data[8+int(dataLength):total]) & 0xFFFF
	if uint32(crc16IBM(field)) != crcStored {
		return fault(FaultBadCrc)
	}

	return &Frame{AVL: &AVLFrame{CodecID: codecID, Records: records}}, total, nil
}

// decodeCursor walks a bounds-checked cursor over a single data field.
// Every read is checked against buf's length; a short read is reported
// as !ok rather than panicking, so adversarial counts inside the field
// always surface as FaultBadRecordCount instead of a crash.
type decodeCursor struct {
	buf []byte
	pos int
}

func (d *decodeCursor) readN(n int) ([]byte, bool) {
	if d.pos+n > len(d.buf) {
		return nil, false
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, true
}

func (d *decodeCursor) readUint(n int) (uint64, bool) {
	b, ok := d.readN(n)
	if !ok {
		return 0, false
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, true
}

// readCount reads an id/count-class field: width 1 for Codec 8, 2 for
// Codec 8E. Callers pass the already-resolved width in bytes.
func (d *decodeCursor) readCount(width int) (uint32, bool) {
	v, ok := d.readUint(width)
	return uint32(v), ok
}

func idWidth(codecID Codec) int {
	if codecID == Codec8E {
		return 2
	}
	return 1
}

func decodeRecord(d *decodeCursor, codecID Codec) (AVLRecord, bool) {
	var rec AVLRecord

	ts, ok := d.readUint(8)
	if !ok {
		return rec, false
	}
	rec.TimestampMS = ts

	pr, ok := d.readUint(1)
	if !ok {
		return rec, false
	}
	rec.Priority = uint8(pr)

	lon, ok := d.readUint(4)
	if !ok {
		return rec, false
	}
	lat, ok := d.readUint(4)
	if !ok {
		return rec, false
	}
	alt, ok := d.readUint(2)
	if !ok {
		return rec, false
	}
	ang, ok := d.readUint(2)
	if !ok {
		return rec, false
	}
	sat, ok := d.readUint(1)
	if !ok {
		return rec, false
	}
	spd, ok := d.readUint(2)
	if !ok {
		return rec, false
	}
	rec.GPS = GPSElement{
		Longitude:  int32(lon),
		Latitude:   int32(lat),
		Altitude:   int16(alt),
		Angle:      uint16(ang),
		Satellites: uint8(sat),
		Speed:      uint16(spd),
	}

	w := idWidth(codecID)
	eventIO, ok := d.readUint(w)
	if !ok {
		return rec, false
	}
	rec.EventIOID = uint16(eventIO)

	totalIO, ok := d.readUint(w)
	if !ok {
		return rec, false
	}
	rec.TotalIOCount = uint16(totalIO)

	for _, width := range []int{1, 2, 4, 8} {
		count, ok := d.readCount(w)
		if !ok {
			return rec, false
		}
		for i := uint32(0); i < count; i++ {
			id, ok := d.readUint(w)
			if !ok {
				return rec, false
			}
			val, ok := d.readUint(width)
			if !ok {
				return rec, false
			}
			rec.IOElements = append(rec.IOElements, IOElement{ID: uint16(id), Width: width, Value: val})
		}
	}

	if codecID == Codec8E {
		count, ok := d.readCount(w)
		if !ok {
			return rec, false
		}
		for i := uint32(0); i < count; i++ {
			id, ok := d.readUint(w)
			if !ok {
				return rec, false
			}
			length, ok := d.readUint(2)
			if !ok {
				return rec, false
			}
			data, ok := d.readN(int(length))
			if !ok {
				return rec, false
			}
			buf := make([]byte, len(data))
			copy(buf, data)
			rec.IOElements = append(rec.IOElements, IOElement{ID: uint16(id), Width: 0, VariableData: buf})
		}
	}

	return rec, true
}
