package kvs

import "microkvs/layout"

// Find resolves name to its latest valid version in the active bank, if
// any. It walks the log from the start, stopping at the first
// never-written slot (Start still the blank sentinel); among
// matching slots with a valid data CRC it remembers the last one seen,
// so a later valid write always shadows an earlier one. A tombstone
// (Len == 0) resolves to "not found".
func (e *Engine) Find(name string) (layout.LogEntry, bool) {
	key := layout.PadKey(name)

	header, err := layout.DecodeBankHeader(e.active.Base())
	logSize := e.defaultLogSize
	if err == nil {
		logSize = header.LogSize
	}

	var found *layout.LogEntry

	for i := uint32(0); i < logSize; i++ {
		entry, ok := e.decodeSlot(i)
		if !ok {
			break
		}
		if entry.Start == layout.BlankWord {
			break
		}
		if entry.Key != key {
			continue
		}

		e.resetFault()
		headerOK := e.headerCRCValid(e.active, entry)
		dataOK := headerOK && e.dataCRCValid(e.active, entry)

		if e.faulted() {
			e.logFault("find")
			continue
		}

		if dataOK {
			ec := entry
			found = &ec
		}
	}

	if found == nil || found.Tombstone() {
		return layout.LogEntry{}, false
	}
	return *found, true
}

// Map returns the bank-mapped slice backing entry's payload.
func (e *Engine) Map(entry layout.LogEntry) []byte {
	base := e.active.Base()
	return base[entry.Start : entry.Start+entry.Len]
}

// Read copies up to len(buf) bytes of name's value into buf, returning
// false if no valid version exists. Truncation when buf is smaller than
// the stored object is silent, not an error.
func (e *Engine) Read(name string, buf []byte) bool {
	entry, ok := e.Find(name)
	if !ok {
		return false
	}
	n := entry.Len
	if uint32(len(buf)) < n {
		n = uint32(len(buf))
	}
	copy(buf, e.Map(entry)[:n])
	return true
}
