package kvs

// WipeInactive erases the bank that is not currently active, discarding
// whatever stale data it holds without affecting the live bank. Useful
// for pre-provisioning a device's second bank before it is ever
// selected.
func (e *Engine) WipeInactive() bool {
	inactive := e.right
	if e.active == e.right {
		inactive = e.left
	}
	return inactive.Erase()
}

// WipeAll erases both banks unconditionally, returning the store to a
// state indistinguishable from a device that has never been
// initialized. The next New call will reinitialize the left bank as
// active.
func (e *Engine) WipeAll() bool {
	okLeft := e.left.Erase()
	okRight := e.right.Erase()
	return okLeft && okRight
}
