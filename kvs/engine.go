// Package kvs implements the log-structured, two-bank key-value engine:
// bank selection, log scanning, lookup, append, compaction, enumeration
// and zeroization, built entirely against the bank.Bank capability
// contract. Every operation is synchronous and runs to completion on
// the caller's stack — there is no background goroutine, no mutex, and
// no cancellation, matching the single-threaded, non-preemptive
// execution model the engine is designed for.
package kvs

import (
	"io"
	"log/slog"

	"microkvs/bank"
)

// Options configures a new Engine.
type Options struct {
	// DefaultLogSize is the number of log slots a blank bank is
	// formatted with. Defaults to 128.
	DefaultLogSize uint32

	// Logger receives warnings about corrupted entries and ECC faults
	// encountered during scans, lookups, and compaction. Defaults to a
	// discarding logger, so library use is silent unless a caller opts
	// in.
	Logger *slog.Logger
}

// Engine is the top-level key-value store, built over a matched pair of
// banks. It is not safe for concurrent use from multiple goroutines:
// spec non-goals exclude concurrent multi-writer access, and the engine
// is written for a single core with no preemption inside its own calls.
type Engine struct {
	left, right bank.Bank
	active      bank.Bank

	defaultLogSize uint32

	firstFreeLogEntry uint32
	firstFreeData     uint32

	eccFault     bool
	eccFaultAddr uint32
	eccFaultPC   uint32

	logger *slog.Logger
}

const defaultLogSize = 128

// New builds an Engine over left and right, picking (or initializing)
// the active bank and scanning it for free space.
func New(left, right bank.Bank, opts Options) *Engine {
	logSize := opts.DefaultLogSize
	if logSize == 0 {
		logSize = defaultLogSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		left:           left,
		right:          right,
		defaultLogSize: logSize,
		logger:         logger,
	}
	e.findCurrentBank()
	e.scanActive()
	return e
}

// IsLeftActive reports whether the left bank is currently serving reads
// and appends.
func (e *Engine) IsLeftActive() bool { return e.active == e.left }

// IsRightActive reports whether the right bank is currently serving
// reads and appends.
func (e *Engine) IsRightActive() bool { return e.active == e.right }
