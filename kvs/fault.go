package kvs

// OnECCFault is intended to be called from a trap handler (bus fault,
// NMI, or similar) when an uncorrectable ECC error occurs reading flash
// within this engine's banks. It latches the fault so the in-flight
// read loop notices it once control returns to the faulting
// instruction's successor. A real MCU would wire this from an
// exception vector; bank.RAM.SetFaultHandler can route its
// fault-injection hook here so tests can exercise the same path.
func (e *Engine) OnECCFault(flashAddr, insnAddr uint32) {
	e.eccFault = true
	e.eccFaultAddr = flashAddr
	e.eccFaultPC = insnAddr
}

func (e *Engine) resetFault() {
	e.eccFault = false
}

func (e *Engine) faulted() bool {
	return e.eccFault
}

// logFault records a warning for the fault latched since the last
// resetFault and clears it, so the caller's retry/skip logic sees a
// clean flag on its next check.
func (e *Engine) logFault(op string) {
	e.logger.Warn("uncorrectable ECC fault",
		"op", op,
		"addr", e.eccFaultAddr,
		"pc", e.eccFaultPC,
	)
	e.resetFault()
}
