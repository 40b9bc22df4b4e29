package kvs

import (
	"bytes"
	"sort"

	"microkvs/layout"
)

// ListEntry summarizes one key found during enumeration: its name,
// the size of its latest version, and how many versions of it (live or
// superseded) appear in the log.
type ListEntry struct {
	Key  [layout.KLEN]byte
	Size uint32
	Revs uint32
}

// Enumerate fills out with one ListEntry per distinct key seen in the
// active bank, walking the log in insertion order and stopping as soon
// as out is full; capacity is checked against the count of distinct
// keys seen, not every log entry visited. A key whose latest
// entry is a tombstone is still listed, with Size == 0, matching the
// reference implementation; callers that care distinguish it from a
// genuine empty value out of band. Returns the number of entries
// written. The result is sorted lexicographically by key.
func (e *Engine) Enumerate(out []ListEntry) uint32 {
	header, err := layout.DecodeBankHeader(e.active.Base())
	logSize := e.defaultLogSize
	if err == nil {
		logSize = header.LogSize
	}

	index := make(map[[layout.KLEN]byte]int)
	n := uint32(0)

	for i := uint32(0); i < logSize; i++ {
		entry, ok := e.decodeSlot(i)
		if !ok {
			break
		}
		if entry.Start == layout.BlankWord {
			break
		}

		e.resetFault()
		headerOK := e.headerCRCValid(e.active, entry)
		dataOK := headerOK && e.dataCRCValid(e.active, entry)
		if e.faulted() {
			e.logFault("enumerate")
			continue
		}
		if !headerOK || !dataOK {
			continue
		}

		if idx, seen := index[entry.Key]; seen {
			out[idx].Size = entry.Len
			out[idx].Revs++
			continue
		}

		if n >= uint32(len(out)) {
			break
		}

		out[n] = ListEntry{Key: entry.Key, Size: entry.Len, Revs: 1}
		index[entry.Key] = int(n)
		n++
	}

	result := out[:n]
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].Key[:], result[j].Key[:]) < 0
	})
	return n
}
