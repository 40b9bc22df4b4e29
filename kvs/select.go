package kvs

import (
	"microkvs/bank"
	"microkvs/layout"
)

// findCurrentBank determines which bank is active:
//
//  1. Neither header valid -> initialize left, left active.
//  2. Exactly one valid -> that one active.
//  3. Both valid -> left if its version is higher than right's and is
//     not the unwritten sentinel 0xFFFFFFFF; otherwise right (ties
//     included).
func (e *Engine) findCurrentBank() {
	lh, leftValid := e.readHeader(e.left)
	rh, rightValid := e.readHeader(e.right)

	switch {
	case !leftValid && !rightValid:
		e.initializeBank(e.left)
		e.active = e.left

	case leftValid && !rightValid:
		e.active = e.left

	case !leftValid && rightValid:
		e.active = e.right

	case lh.Version > rh.Version && lh.Version != layout.BlankWord:
		e.active = e.left

	default:
		e.active = e.right
	}
}

// readHeader decodes and validates a bank's header. A fault encountered
// while reading is treated the same as an invalid header, so a flaky
// read never masquerades as a confidently-selected bank.
func (e *Engine) readHeader(b bank.Bank) (layout.BankHeader, bool) {
	e.resetFault()
	h, err := layout.DecodeBankHeader(b.Base())
	if err != nil {
		return layout.BankHeader{}, false
	}
	if e.faulted() {
		e.logFault("findCurrentBank")
		return layout.BankHeader{}, false
	}
	return h, h.Valid()
}

// initializeBank erases bank and writes a fresh header with version 0.
// The header is written as a single call since the flash write block
// may exceed 4 bytes; it returns true only if both steps succeed, so a
// partially-erased or partially-written bank is never reported as
// ready.
func (e *Engine) initializeBank(b bank.Bank) bool {
	if !b.Erase() {
		return false
	}
	h := layout.BankHeader{
		Magic:   layout.HeaderMagic,
		Version: 0,
		LogSize: e.defaultLogSize,
	}
	return b.Write(0, h.Encode())
}
