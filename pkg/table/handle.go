package table

// Handle is the control handle passed to a transaction body alongside its
// row snapshot (spec.md §4.6). It captures whether the row existed when
// the transaction started and lets the body signal removal or, for a
// non-existing key, confirmation that the row should be materialized.
type Handle struct {
	existed    bool
	removeSet  bool
	confirmSet bool
}

func newHandle(existed bool) *Handle {
	return &Handle{existed: existed}
}

// Exists reports whether the row existed when the transaction started.
func (h *Handle) Exists() bool { return h.existed }

// Remove marks the row for removal on transaction completion and returns
// whether the row existed prior to this call.
func (h *Handle) Remove() bool {
	h.removeSet = true
	return h.existed
}

// Confirm marks a non-existing row for creation on transaction completion
// and returns true iff the row did not already exist.
func (h *Handle) Confirm() bool {
	h.confirmSet = true
	return !h.existed
}

// Removed reports whether Remove was called during this transaction.
func (h *Handle) Removed() bool { return h.removeSet }

// Confirmed reports whether Confirm was called during this transaction.
func (h *Handle) Confirmed() bool { return h.confirmSet }
