package saves

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Tag is the four-byte record identifier, "ADVY" packed big-endian like a
// multi-character constant.
const Tag uint32 = 'A'<<24 | 'D'<<16 | 'V'<<8 | 'Y'

// Version is the record version. It is written but not interpreted.
const Version uint32 = 0

var (
	// ErrRecordNotOpened is returned by writes before OpenRecord.
	ErrRecordNotOpened = errors.New("record not opened")

	// ErrShortRecord is returned when a record payload is truncated.
	ErrShortRecord = errors.New("short record")
)

// Writer is the host's record writer.
type Writer interface {
	// OpenRecord starts a new record. Data written afterwards belongs to it.
	OpenRecord(tag, version uint32) error
	// WriteRecordData appends to the open record.
	WriteRecordData(p []byte) error
}

// Reader is the host's record reader.
type Reader interface {
	// NextRecordInfo advances to the next record, skipping whatever of
	// the current one was not read. ok is false after the last record.
	NextRecordInfo() (tag, version, length uint32, ok bool)
	// ReadRecordData reads from the current record. It returns io.EOF at
	// the end of the record.
	ReadRecordData(p []byte) (int, error)
}

// TagString renders a tag as its four characters.
func TagString(tag uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], tag)
	return string(b[:])
}

// writeChunk appends a little-endian uint32 length followed by data.
func writeChunk(w io.Writer, data []byte) error {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(data)))
	if _, err := w.Write(n[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// readChunk reads one length-prefixed chunk from data and returns it and
// the remainder.
func readChunk(data []byte) (chunk, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("%w: chunk header", ErrShortRecord)
	}
	n := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, fmt.Errorf("%w: chunk needs %d bytes, have %d", ErrShortRecord, n, len(data))
	}
	return data[:n], data[n:], nil
}
