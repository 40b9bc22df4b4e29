package kvs

import (
	"microkvs/bank"
	"microkvs/layout"
)

// decodeSlotFrom reads and parses log slot i out of b. It returns false
// only if the slot falls outside the mapped region entirely — a
// malformed logSize from a torn header, not ordinary corruption.
func (e *Engine) decodeSlotFrom(b bank.Bank, i uint32) (layout.LogEntry, bool) {
	off := layout.SlotOffset(i)
	base := b.Base()
	end := uint64(off) + uint64(layout.EntrySize())
	if end > uint64(len(base)) {
		return layout.LogEntry{}, false
	}
	entry, err := layout.DecodeLogEntry(base[off:end])
	if err != nil {
		return layout.LogEntry{}, false
	}
	return entry, true
}

func (e *Engine) decodeSlot(i uint32) (layout.LogEntry, bool) {
	return e.decodeSlotFrom(e.active, i)
}

// headerCRCValid reports whether entry's headerCRC checks out. A zero
// headerCRC means "not used", preserving compatibility with layouts
// that never computed one.
func (e *Engine) headerCRCValid(b bank.Bank, entry layout.LogEntry) bool {
	if entry.HeaderCRC == 0 {
		return true
	}
	return b.CRC(entry.HeaderCRCInput()) == entry.HeaderCRC
}

func (e *Engine) dataCRCValid(b bank.Bank, entry layout.LogEntry) bool {
	base := b.Base()
	end := uint64(entry.Start) + uint64(entry.Len)
	if end > uint64(len(base)) {
		return false
	}
	return b.CRC(base[entry.Start:end]) == entry.CRC
}

// scanActive walks the active bank's log from slot 0, tolerating
// corrupted slots, to find the first free log slot and the first free
// data byte. It stops at the first blank slot; the free-data pointer
// follows the last valid entry before it.
func (e *Engine) scanActive() {
	header, err := layout.DecodeBankHeader(e.active.Base())
	logSize := e.defaultLogSize
	if err == nil {
		logSize = header.LogSize
	}

	e.firstFreeLogEntry = logSize
	var lastValid *layout.LogEntry

	for i := uint32(0); i < logSize; i++ {
		e.resetFault()

		entry, ok := e.decodeSlot(i)
		if !ok {
			continue
		}

		if entry.Blank() {
			e.firstFreeLogEntry = i
			break
		}

		if !e.headerCRCValid(e.active, entry) {
			continue
		}
		if uint64(entry.Start)+uint64(entry.Len) > uint64(e.active.Size()) {
			continue
		}

		if e.faulted() {
			e.logFault("scanActive")
			continue
		}

		ec := entry
		lastValid = &ec
	}

	if lastValid == nil {
		e.firstFreeData = layout.DataAreaStart(logSize)
	} else {
		e.firstFreeData = layout.RoundUpToWriteBlock(lastValid.Start + lastValid.Len)
	}
}
