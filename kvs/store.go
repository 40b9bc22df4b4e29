package kvs

import (
	"bytes"
	"encoding/binary"

	"microkvs/layout"
)

// maxStoreAttempts works around flaky media where a write occasionally
// fails to verify on the first try; Store retries the whole
// reserve-write-verify sequence before giving up.
const maxStoreAttempts = 5

// Store writes name/data to the store, overwriting any existing value
// for name. It retries internally up to five times before reporting
// failure.
func (e *Engine) Store(name string, data []byte) bool {
	for i := 0; i < maxStoreAttempts; i++ {
		if e.storeInternal(name, data) {
			return true
		}
	}
	return false
}

func (e *Engine) storeInternal(name string, data []byte) bool {
	key := layout.PadKey(name)
	if key == layout.BlankKey() {
		e.logger.Warn("store: refusing reserved blank key", "name", name)
		return false
	}

	length := uint32(len(data))

	if e.FreeDataSpace() < length {
		if !e.Compact() {
			return false
		}
	}
	if e.FreeDataSpace() < length {
		return false
	}

	if e.FreeLogEntries() < 1 {
		e.Compact()
	}
	if e.FreeLogEntries() < 1 {
		return false
	}

	dataCRC := e.active.CRC(data)
	scratch := layout.LogEntry{Key: key, Start: e.firstFreeData, Len: length, CRC: dataCRC}
	headerCRC := e.active.CRC(scratch.HeaderCRCInput())

	// Reserve the slot: write the tail (start, len, crc, headerCRC)
	// while leaving the key blank. A crash here leaves a slot whose
	// header CRC does not match its blank key, so the scanner and Find
	// skip it, wasting the space until the next compaction but never
	// corrupting anything.
	logOff := layout.SlotOffset(e.firstFreeLogEntry)
	e.firstFreeLogEntry++

	tail := make([]byte, 16)
	binary.LittleEndian.PutUint32(tail[0:4], scratch.Start)
	binary.LittleEndian.PutUint32(tail[4:8], scratch.Len)
	binary.LittleEndian.PutUint32(tail[8:12], dataCRC)
	binary.LittleEndian.PutUint32(tail[12:16], headerCRC)
	if !e.active.Write(logOff+layout.KLEN, tail) {
		return false
	}

	if length != 0 {
		offset := scratch.Start
		for {
			if e.regionBlank(offset, length) {
				break
			}

			// Not blank: advance one write block and retry, compacting
			// if that runs us out of room.
			e.firstFreeData = layout.RoundUpToWriteBlock(e.firstFreeData + 1)
			offset = e.firstFreeData

			if e.FreeDataSpace() < length {
				if !e.Compact() {
					return false
				}
			}
			if e.FreeDataSpace() < length {
				return false
			}
		}

		e.firstFreeData = layout.RoundUpToWriteBlock(offset + length)
		if !e.active.Write(offset, data) {
			return false
		}
		if !bytes.Equal(data, e.active.Base()[offset:offset+length]) {
			return false
		}
	}

	if !e.active.Write(logOff, key[:]) {
		return false
	}
	if !bytes.Equal(key[:], e.active.Base()[logOff:logOff+layout.KLEN]) {
		return false
	}

	return true
}

func (e *Engine) regionBlank(offset, length uint32) bool {
	base := e.active.Base()
	for i := uint32(0); i < length; i++ {
		if base[offset+i] != 0xFF {
			return false
		}
	}
	return true
}
