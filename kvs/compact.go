package kvs

import (
	"microkvs/bank"
	"microkvs/layout"

	"github.com/dgryski/go-metro"
)

// dedupCacheSize is the size of the small ring of recently-copied keys
// compaction keeps to avoid a full linear scan of the output log for
// every source entry in the common case.
const dedupCacheSize = 16

type cacheSlot struct {
	used bool
	hash uint64
	key  [layout.KLEN]byte
}

func keyHash(key [layout.KLEN]byte) uint64 {
	return metro.Hash64(key[:], 0)
}

// Compact copies the latest valid version of every key from the active
// bank to the inactive bank, newest-first so the first copy of each key
// wins, then switches the active bank. Tombstones and corrupted
// entries are not copied, reclaiming their space.
func (e *Engine) Compact() bool {
	inactive := e.right
	if e.active == e.right {
		inactive = e.left
	}

	// Erase the inactive bank and leave its header unwritten until the
	// very end: as long as its magic reads as the erased all-ones
	// pattern, findCurrentBank will never select it, so an interrupted
	// compaction always leaves the old bank authoritative.
	if !inactive.Erase() {
		return false
	}

	var cache [dedupCacheSize]cacheSlot
	nextCache := 0
	tombstoned := make(map[[layout.KLEN]byte]bool)

	nextLog := uint32(0)
	nextData := layout.DataAreaStart(e.defaultLogSize)

	for i := int64(e.firstFreeLogEntry) - 1; i >= 0; i-- {
		entry, ok := e.decodeSlot(uint32(i))
		if !ok {
			continue
		}

		if tombstoned[entry.Key] || alreadyCopied(cache[:], inactive, nextLog, entry) {
			continue
		}

		e.resetFault()
		headerOK := e.headerCRCValid(e.active, entry)
		dataOK := headerOK && e.dataCRCValid(e.active, entry)
		if e.faulted() {
			e.logFault("compact")
			continue
		}
		if !headerOK || !dataOK {
			continue
		}

		// Valid and not yet copied: this is the newest surviving
		// version of the key. Tombstones are recognized (so older
		// copies stay shadowed) but never written out, physically
		// removing them.
		if entry.Len != 0 {
			if !inactive.Write(nextData, e.active.Base()[entry.Start:entry.Start+entry.Len]) {
				return false
			}

			out := entry
			out.Start = nextData
			out.HeaderCRC = inactive.CRC(out.HeaderCRCInput())
			if !inactive.Write(layout.SlotOffset(nextLog), out.Encode()) {
				return false
			}

			nextData = layout.RoundUpToWriteBlock(nextData + entry.Len)
			nextLog++
		} else {
			tombstoned[entry.Key] = true
		}

		cache[nextCache] = cacheSlot{used: true, hash: keyHash(entry.Key), key: entry.Key}
		nextCache = (nextCache + 1) % dedupCacheSize
	}

	header := layout.BankHeader{
		Magic:   layout.HeaderMagic,
		Version: e.BankVersion() + 1,
		LogSize: e.defaultLogSize,
	}
	if !inactive.Write(0, header.Encode()) {
		return false
	}

	e.active = inactive
	e.firstFreeLogEntry = nextLog
	e.firstFreeData = nextData
	return true
}

// alreadyCopied reports whether entry's key has already been written to
// the destination bank by an earlier (newer, since compaction walks
// newest-first) iteration. The small hash-tagged ring is checked first;
// on a miss it falls back to a linear scan of the output log written so
// far.
func alreadyCopied(cache []cacheSlot, inactive bank.Bank, nextLog uint32, entry layout.LogEntry) bool {
	h := keyHash(entry.Key)
	for _, c := range cache {
		if c.used && c.hash == h && c.key == entry.Key {
			return true
		}
	}

	base := inactive.Base()
	for j := uint32(0); j < nextLog; j++ {
		off := layout.SlotOffset(j)
		out, err := layout.DecodeLogEntry(base[off : off+layout.EntrySize()])
		if err != nil {
			continue
		}
		if out.Key == entry.Key {
			return true
		}
	}
	return false
}
