package saves

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// cosaveMagic prefixes a marshaled Cosave.
var cosaveMagic = [4]byte{'A', 'C', 'O', 'S'}

// ErrBadCosave is returned by UnmarshalBinary for malformed input.
var ErrBadCosave = errors.New("malformed cosave")

type record struct {
	tag     uint32
	version uint32
	data    []byte
}

// Cosave is an in-memory record container implementing both Writer and
// Reader. Hosts without a native co-save file persist it with
// MarshalBinary and feed it back with UnmarshalBinary.
//
// Not safe for concurrent use.
type Cosave struct {
	records []record
	open    int // index of the record being written, -1 if none
	cursor  int // index of the record being read, -1 before the first
	offset  int // read offset within the current record
}

// NewCosave creates an empty container.
func NewCosave() *Cosave {
	return &Cosave{open: -1, cursor: -1}
}

// OpenRecord starts a new record.
func (c *Cosave) OpenRecord(tag, version uint32) error {
	c.records = append(c.records, record{tag: tag, version: version})
	c.open = len(c.records) - 1
	return nil
}

// WriteRecordData appends p to the open record.
func (c *Cosave) WriteRecordData(p []byte) error {
	if c.open < 0 {
		return ErrRecordNotOpened
	}
	c.records[c.open].data = append(c.records[c.open].data, p...)
	return nil
}

// NextRecordInfo advances to the next record.
func (c *Cosave) NextRecordInfo() (tag, version, length uint32, ok bool) {
	if c.cursor+1 >= len(c.records) {
		c.cursor = len(c.records)
		return 0, 0, 0, false
	}
	c.cursor++
	c.offset = 0
	r := c.records[c.cursor]
	return r.tag, r.version, uint32(len(r.data)), true
}

// ReadRecordData reads from the current record.
func (c *Cosave) ReadRecordData(p []byte) (int, error) {
	if c.cursor < 0 || c.cursor >= len(c.records) {
		return 0, io.EOF
	}
	data := c.records[c.cursor].data
	if c.offset >= len(data) {
		return 0, io.EOF
	}
	n := copy(p, data[c.offset:])
	c.offset += n
	return n, nil
}

// Rewind restarts reading from the first record.
func (c *Cosave) Rewind() {
	c.cursor = -1
	c.offset = 0
}

// Len returns the number of records.
func (c *Cosave) Len() int {
	return len(c.records)
}

// MarshalBinary encodes every record as tag, version, length and data,
// all integers little-endian uint32.
func (c *Cosave) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(cosaveMagic[:])
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(c.records)))
	for _, r := range c.records {
		_ = binary.Write(&buf, binary.LittleEndian, [3]uint32{r.tag, r.version, uint32(len(r.data))})
		buf.Write(r.data)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the container's records with the encoded ones
// and rewinds it.
func (c *Cosave) UnmarshalBinary(data []byte) error {
	rd := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(rd, magic[:]); err != nil || magic != cosaveMagic {
		return fmt.Errorf("%w: bad magic", ErrBadCosave)
	}

	var count uint32
	if err := binary.Read(rd, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("%w: record count: %v", ErrBadCosave, err)
	}

	records := make([]record, 0, count)
	for i := uint32(0); i < count; i++ {
		var hdr [3]uint32
		if err := binary.Read(rd, binary.LittleEndian, &hdr); err != nil {
			return fmt.Errorf("%w: record %d header: %v", ErrBadCosave, i, err)
		}
		if int64(hdr[2]) > int64(rd.Len()) {
			return fmt.Errorf("%w: record %d truncated", ErrBadCosave, i)
		}
		payload := make([]byte, hdr[2])
		if _, err := io.ReadFull(rd, payload); err != nil {
			return fmt.Errorf("%w: record %d data: %v", ErrBadCosave, i, err)
		}
		records = append(records, record{tag: hdr[0], version: hdr[1], data: payload})
	}

	c.records = records
	c.open = -1
	c.Rewind()
	return nil
}
