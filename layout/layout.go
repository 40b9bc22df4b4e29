// Package layout defines the on-media byte format shared by both banks:
// the bank header, the fixed-size log slots, and the rounding rules the
// flash write-block size imposes on both.
package layout

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// HeaderMagic marks a formatted bank. Unformatted (erased) flash reads
	// back as all-ones and never matches this.
	HeaderMagic uint32 = 0xC0DEF00D

	// KLEN is the fixed width, in bytes, of an object key. Shorter names
	// are zero-padded; longer names are truncated.
	KLEN = 16

	// WriteBlock is the minimum atomic program granularity of the
	// underlying flash. All appends are aligned and sized to multiples
	// of it. The default of 1 matches byte-writable NOR flash.
	WriteBlock = 1

	// maxLogSize is the largest logSize value treated as valid; above it
	// a header is assumed torn (interrupted write) rather than genuine.
	maxLogSize = 0x80000000

	// BlankWord is the all-ones 32-bit pattern erased flash reads back as.
	BlankWord uint32 = 0xFFFFFFFF
)

// BankHeader sits at offset 0 of every bank.
type BankHeader struct {
	Magic   uint32
	Version uint32
	LogSize uint32
}

// HeaderSize returns sizeof(BankHeader) rounded up to the write-block size.
func HeaderSize() uint32 {
	return RoundUpToWriteBlock(12)
}

// Encode serializes the header in the on-media little-endian layout,
// padded with 0xFF (the erased pattern) out to HeaderSize so a single
// Write call commits the whole thing at once — required because W may
// exceed 4 bytes, and a header must never be written piecemeal.
func (h *BankHeader) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, h.Magic)
	_ = binary.Write(buf, binary.LittleEndian, h.Version)
	_ = binary.Write(buf, binary.LittleEndian, h.LogSize)
	out := make([]byte, HeaderSize())
	for i := range out {
		out[i] = 0xFF
	}
	copy(out, buf.Bytes())
	return out
}

// DecodeBankHeader parses the first 12 bytes of a bank's mapped region.
func DecodeBankHeader(data []byte) (BankHeader, error) {
	if len(data) < 12 {
		return BankHeader{}, errors.New("layout: header region too short")
	}
	var h BankHeader
	r := bytes.NewReader(data[:12])
	if err := binary.Read(r, binary.LittleEndian, &h.Magic); err != nil {
		return BankHeader{}, errors.Wrap(err, "layout: decode magic")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return BankHeader{}, errors.Wrap(err, "layout: decode version")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.LogSize); err != nil {
		return BankHeader{}, errors.Wrap(err, "layout: decode logSize")
	}
	return h, nil
}

// Valid reports whether a decoded header looks like a formatted bank:
// correct magic and a log size that could not have come from a torn
// write (any genuine logSize is expected to be tiny compared to 2^31).
func (h BankHeader) Valid() bool {
	if h.Magic != HeaderMagic {
		return false
	}
	return h.LogSize <= maxLogSize
}

// LogEntry is one fixed-size slot in a bank's log array.
type LogEntry struct {
	Key       [KLEN]byte
	Start     uint32
	Len       uint32
	CRC       uint32
	HeaderCRC uint32
}

// EntrySize returns sizeof(LogEntry) rounded up to the write-block size.
func EntrySize() uint32 {
	return RoundUpToWriteBlock(KLEN + 4*4)
}

// Encode serializes a log entry in its on-media layout, padded out to
// EntrySize with 0xFF.
func (e *LogEntry) Encode() []byte {
	buf := new(bytes.Buffer)
	buf.Write(e.Key[:])
	_ = binary.Write(buf, binary.LittleEndian, e.Start)
	_ = binary.Write(buf, binary.LittleEndian, e.Len)
	_ = binary.Write(buf, binary.LittleEndian, e.CRC)
	_ = binary.Write(buf, binary.LittleEndian, e.HeaderCRC)
	out := make([]byte, EntrySize())
	for i := range out {
		out[i] = 0xFF
	}
	copy(out, buf.Bytes())
	return out
}

// DecodeLogEntry parses one slot's worth of bytes.
func DecodeLogEntry(data []byte) (LogEntry, error) {
	if len(data) < int(KLEN+16) {
		return LogEntry{}, errors.New("layout: entry region too short")
	}
	var e LogEntry
	copy(e.Key[:], data[:KLEN])
	r := bytes.NewReader(data[KLEN : KLEN+16])
	if err := binary.Read(r, binary.LittleEndian, &e.Start); err != nil {
		return LogEntry{}, errors.Wrap(err, "layout: decode start")
	}
	if err := binary.Read(r, binary.LittleEndian, &e.Len); err != nil {
		return LogEntry{}, errors.Wrap(err, "layout: decode len")
	}
	if err := binary.Read(r, binary.LittleEndian, &e.CRC); err != nil {
		return LogEntry{}, errors.Wrap(err, "layout: decode crc")
	}
	if err := binary.Read(r, binary.LittleEndian, &e.HeaderCRC); err != nil {
		return LogEntry{}, errors.Wrap(err, "layout: decode headerCRC")
	}
	return e, nil
}

// HeaderCRCInput returns the byte span {key, start, len, crc} a bank's
// CRC function is run over to produce/validate HeaderCRC. It
// deliberately excludes HeaderCRC itself.
func (e LogEntry) HeaderCRCInput() []byte {
	buf := new(bytes.Buffer)
	buf.Write(e.Key[:])
	_ = binary.Write(buf, binary.LittleEndian, e.Start)
	_ = binary.Write(buf, binary.LittleEndian, e.Len)
	_ = binary.Write(buf, binary.LittleEndian, e.CRC)
	return buf.Bytes()
}

// Blank reports whether this slot has never been written: both Start
// and Len still read back as the erased all-ones pattern. Both fields
// must agree, so a slot interrupted mid-write (one field committed, the
// other still blank) is not mistaken for either state.
func (e LogEntry) Blank() bool {
	return e.Start == BlankWord && e.Len == BlankWord
}

// Tombstone reports whether a (non-blank) entry represents a deletion.
func (e LogEntry) Tombstone() bool {
	return e.Len == 0
}

// BlankKey is the reserved all-ones key, used to mark a log slot whose
// tail (start/len/crc) has been committed but whose head (key) has not
// — the reservation state of the append engine.
func BlankKey() [KLEN]byte {
	var k [KLEN]byte
	for i := range k {
		k[i] = 0xFF
	}
	return k
}

// PadKey zero-pads or truncates name to the fixed key width.
func PadKey(name string) [KLEN]byte {
	var k [KLEN]byte
	copy(k[:], name)
	return k
}

// SlotOffset returns the byte offset of log slot i within a bank.
func SlotOffset(i uint32) uint32 {
	return HeaderSize() + i*EntrySize()
}

// DataAreaStart returns the first data-region byte offset for a bank
// formatted with the given log size, before any rounding from prior
// writes — i.e. the free-data pointer for a bank with an empty log.
func DataAreaStart(logSize uint32) uint32 {
	return RoundUpToWriteBlock(HeaderSize() + logSize*EntrySize())
}

// RoundUpToWriteBlock rounds val up to the next multiple of WriteBlock.
func RoundUpToWriteBlock(val uint32) uint32 {
	if WriteBlock <= 1 {
		return val
	}
	rem := val % WriteBlock
	if rem == 0 {
		return val
	}
	return val + (WriteBlock - rem)
}
