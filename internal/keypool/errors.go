package keypool

// noSlotError signals that no slot became idle within the wait window.
type noSlotError struct{ kind CallKind }

func (e noSlotError) Error() string { return "no key slot available: " + string(e.kind) }

// IsNoSlot reports whether err indicates admission failure (no free slot).
func IsNoSlot(err error) bool {
	_, ok := err.(noSlotError)
	return ok
}
