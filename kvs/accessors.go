package kvs

import "microkvs/layout"

func (e *Engine) activeLogSize() uint32 {
	header, err := layout.DecodeBankHeader(e.active.Base())
	if err != nil {
		return e.defaultLogSize
	}
	return header.LogSize
}

// FreeLogEntries returns the number of unused log slots in the active
// bank.
func (e *Engine) FreeLogEntries() uint32 {
	return e.activeLogSize() - e.firstFreeLogEntry
}

// FreeDataSpace returns the number of unused data bytes in the active
// bank.
func (e *Engine) FreeDataSpace() uint32 {
	return e.active.Size() - e.firstFreeData
}

// LogCapacity returns the total number of log slots in the active
// bank, used and unused.
func (e *Engine) LogCapacity() uint32 {
	return e.activeLogSize()
}

// BlockSize returns the active bank's total byte size.
func (e *Engine) BlockSize() uint32 {
	return e.active.Size()
}

// DataCapacity returns the total bytes allocated to data, used and
// unused.
func (e *Engine) DataCapacity() uint32 {
	return e.BlockSize() - layout.DataAreaStart(e.activeLogSize())
}

// BankVersion returns the active bank header's generation counter.
func (e *Engine) BankVersion() uint32 {
	header, err := layout.DecodeBankHeader(e.active.Base())
	if err != nil {
		return 0
	}
	return header.Version
}
