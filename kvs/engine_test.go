package kvs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microkvs/bank"
	"microkvs/layout"
)

const testBankSize = 32768
const testLogSize = 128

func newTestBanks() (*bank.RAM, *bank.RAM) {
	return bank.NewRAM(testBankSize), bank.NewRAM(testBankSize)
}

func TestS4_FreshBanksInitializeLeftActive(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	assert.True(t, e.IsLeftActive())
	assert.Equal(t, uint32(0), e.BankVersion())
	assert.Equal(t, uint32(testLogSize), e.FreeLogEntries())
}

func TestS1_StoreThenRead(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("OHAI", []byte("hello world")))

	buf := make([]byte, 64)
	require.True(t, e.Read("OHAI", buf))
	entry, ok := e.Find("OHAI")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(e.Map(entry)))
}

func TestS2_LastWriterWinsAcrossKeys(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("OHAI", []byte("hello world")))
	require.True(t, e.Store("shibe", []byte("lolcat")))
	require.True(t, e.Store("OHAI", []byte("i herd u leik mudkipz")))

	ohai, ok := e.Find("OHAI")
	require.True(t, ok)
	assert.Equal(t, "i herd u leik mudkipz", string(e.Map(ohai)))

	shibe, ok := e.Find("shibe")
	require.True(t, ok)
	assert.Equal(t, "lolcat", string(e.Map(shibe)))
}

func TestS3_CompactionFlipsActiveBankAndReclaimsLog(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("OHAI", []byte("hello world")))
	require.True(t, e.Store("shibe", []byte("lolcat")))
	require.True(t, e.Store("OHAI", []byte("i herd u leik mudkipz")))
	require.True(t, e.Store("shibe", []byte("ceiling cat is watching")))
	require.True(t, e.Store("monorail", []byte("basement cat attacks!!!1!1!")))

	require.True(t, e.Compact())

	assert.True(t, e.IsRightActive())
	assert.Equal(t, uint32(testLogSize-3), e.FreeLogEntries())

	ohai, ok := e.Find("OHAI")
	require.True(t, ok)
	assert.Equal(t, "i herd u leik mudkipz", string(e.Map(ohai)))

	shibe, ok := e.Find("shibe")
	require.True(t, ok)
	assert.Equal(t, "ceiling cat is watching", string(e.Map(shibe)))

	mono, ok := e.Find("monorail")
	require.True(t, ok)
	assert.Equal(t, "basement cat attacks!!!1!1!", string(e.Map(mono)))
}

func TestS5_CRCFallbackOnCorruptedLatestVersion(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("k", []byte("version one")))
	entryOne, ok := e.Find("k")
	require.True(t, ok)
	offsetOne := entryOne.Start

	require.True(t, e.Store("k", []byte("version two")))
	entryTwo, ok := e.Find("k")
	require.True(t, ok)

	left.Corrupt(int(entryTwo.Start), 0xFF)

	got, ok := e.Find("k")
	require.True(t, ok, "should fall back to the previous valid version")
	assert.Equal(t, "version one", string(e.Map(got)))
	assert.Equal(t, offsetOne, got.Start)
}

func TestS5_CRCFallbackToNotFoundWhenNoPriorVersion(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("k", []byte("only version")))
	entry, ok := e.Find("k")
	require.True(t, ok)

	left.Corrupt(int(entry.Start), 0xFF)

	_, ok = e.Find("k")
	assert.False(t, ok)
}

// TestS6_FillStoreCompactThenSucceed fills all but one log slot with
// unique keys sized to consume most of the data region, leaving one
// free slot and a small leftover of data space. A store too large for
// that leftover fails; compacting is a no-op (there is no garbage to
// reclaim), and a smaller store then succeeds in the remaining room.
func TestS6_FillStoreCompactThenSucceed(t *testing.T) {
	left, right := newTestBanks()
	const fillLogSize = 16
	e := New(left, right, Options{DefaultLogSize: fillLogSize})

	capacity := e.DataCapacity()
	chunk := capacity / fillLogSize
	value := make([]byte, chunk)

	for i := 0; i < fillLogSize-1; i++ {
		require.True(t, e.Store(keyName(i), value))
	}

	tooBig := make([]byte, capacity)
	assert.False(t, e.Store("too-big", tooBig))

	require.True(t, e.Compact())
	assert.True(t, e.Store("small", []byte("ok")))
}

func keyName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(letters[(i/len(letters))%len(letters)])
}

func TestInvariant_Durability(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("a", []byte("1")))
	require.True(t, e.Store("b", []byte("2")))
	require.True(t, e.Store("c", []byte("3")))

	reopened := New(left, right, Options{DefaultLogSize: testLogSize})
	for k, v := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		entry, ok := reopened.Find(k)
		require.True(t, ok)
		assert.Equal(t, v, string(reopened.Map(entry)))
	}
}

func TestInvariant_Independence(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("k1", []byte("v1")))
	require.True(t, e.Store("k2", []byte("unrelated")))

	entry, ok := e.Find("k1")
	require.True(t, ok)
	assert.Equal(t, "v1", string(e.Map(entry)))
}

func TestInvariant_CompactionIdempotence(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("a", []byte("1")))
	require.True(t, e.Store("b", []byte("2")))

	v0 := e.BankVersion()
	require.True(t, e.Compact())
	require.True(t, e.Compact())
	v2 := e.BankVersion()

	assert.Equal(t, v0+2, v2)

	a, ok := e.Find("a")
	require.True(t, ok)
	assert.Equal(t, "1", string(e.Map(a)))
	b, ok := e.Find("b")
	require.True(t, ok)
	assert.Equal(t, "2", string(e.Map(b)))
}

func TestInvariant_TombstoneRemovalReclaimsSpace(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("gone", []byte("x")))
	require.True(t, e.Store("gone", nil))

	_, ok := e.Find("gone")
	assert.False(t, ok, "a tombstoned key must resolve to not-found")

	require.True(t, e.Compact())

	_, ok = e.Find("gone")
	assert.False(t, ok, "compaction must not resurrect a tombstoned key")
	assert.Equal(t, e.DataCapacity(), e.FreeDataSpace(), "compaction must reclaim the tombstoned key's data space")
}

// TestCrashDuringStoreLeavesPriorVersionIntact reproduces a power loss
// partway through Store: the reserved slot's tail (start, len, CRCs)
// and payload land on flash, but the crash happens before the key field
// of that slot is written back, so it still reads as the blank
// sentinel key. Reopening the engine must resolve the key to its
// pre-crash value, never a torn one.
func TestCrashDuringStoreLeavesPriorVersionIntact(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("k", []byte("before crash")))

	newData := []byte("after crash")
	logOff := layout.SlotOffset(e.firstFreeLogEntry)
	dataOff := e.firstFreeData

	scratch := layout.LogEntry{
		Key:   layout.PadKey("k"),
		Start: dataOff,
		Len:   uint32(len(newData)),
		CRC:   left.CRC(newData),
	}
	headerCRC := left.CRC(scratch.HeaderCRCInput())

	tail := make([]byte, 16)
	binary.LittleEndian.PutUint32(tail[0:4], scratch.Start)
	binary.LittleEndian.PutUint32(tail[4:8], scratch.Len)
	binary.LittleEndian.PutUint32(tail[8:12], scratch.CRC)
	binary.LittleEndian.PutUint32(tail[12:16], headerCRC)
	require.True(t, left.Write(logOff+layout.KLEN, tail))
	require.True(t, left.Write(dataOff, newData))
	// Crash here: the reserved slot's key field is never written, so it
	// still reads back as the all-0xFF sentinel.

	reopened := New(left, right, Options{DefaultLogSize: testLogSize})
	entry, ok := reopened.Find("k")
	require.True(t, ok)
	assert.Equal(t, "before crash", string(reopened.Map(entry)))
}

// TestCrashAfterKeyWriteCommitsNewVersion confirms the other side of the
// same interruption window: once the key field itself has landed, the
// new version is durable even though nothing else records that the
// write sequence "finished".
func TestCrashAfterKeyWriteCommitsNewVersion(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("k", []byte("before crash")))
	require.True(t, e.Store("k", []byte("after crash")))

	reopened := New(left, right, Options{DefaultLogSize: testLogSize})
	entry, ok := reopened.Find("k")
	require.True(t, ok)
	assert.Equal(t, "after crash", string(reopened.Map(entry)))
}

func TestBlankKeyRejected(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	blank := make([]byte, 16)
	for i := range blank {
		blank[i] = 0xFF
	}
	assert.False(t, e.Store(string(blank), []byte("x")))
}

func TestWipeInactiveLeavesActiveUntouched(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("k", []byte("v")))
	require.True(t, e.WipeInactive())

	entry, ok := e.Find("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(e.Map(entry)))
}

func TestWipeAllResetsBothBanks(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("k", []byte("v")))
	require.True(t, e.WipeAll())

	for _, b := range left.Base() {
		require.Equal(t, byte(0xFF), b)
	}
	for _, b := range right.Base() {
		require.Equal(t, byte(0xFF), b)
	}
}

func TestEnumerateSortsByKeyAndCountsRevisions(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("zzz", []byte("1")))
	require.True(t, e.Store("aaa", []byte("2")))
	require.True(t, e.Store("zzz", []byte("33")))

	out := make([]ListEntry, 8)
	n := e.Enumerate(out)
	require.Equal(t, uint32(2), n)

	assert.Equal(t, "aaa", trimName(out[0].Key))
	assert.Equal(t, "zzz", trimName(out[1].Key))
	assert.Equal(t, uint32(2), out[1].Revs)
	assert.Equal(t, uint32(2), out[1].Size)
}

func trimName(key [16]byte) string {
	n := 0
	for n < len(key) && key[n] != 0 {
		n++
	}
	return string(key[:n])
}

func TestEnumerateStopsAtCapacity(t *testing.T) {
	left, right := newTestBanks()
	e := New(left, right, Options{DefaultLogSize: testLogSize})

	require.True(t, e.Store("a", []byte("1")))
	require.True(t, e.Store("b", []byte("2")))
	require.True(t, e.Store("c", []byte("3")))

	out := make([]ListEntry, 2)
	n := e.Enumerate(out)
	assert.Equal(t, uint32(2), n)
}
