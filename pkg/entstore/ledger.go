package entstore

// ledger tracks per-operation bookkeeping: an in-flight flag and an optional
// error string, scoped by operation key. Entries are independent per key;
// clearing one key never touches another. Not safe for concurrent use; the
// Store's lock guards it.
type ledger struct {
	inFlight map[string]bool
	errs     map[string]string
}

func newLedger() *ledger {
	return &ledger{
		inFlight: make(map[string]bool),
		errs:     make(map[string]string),
	}
}

// begin marks the key in flight and discards any stale error for it.
// A second mutation against the same key overwrites the first's entry
// (last write wins for bookkeeping).
func (l *ledger) begin(key string) {
	l.inFlight[key] = true
	delete(l.errs, key)
}

// end clears the in-flight flag.
func (l *ledger) end(key string) {
	delete(l.inFlight, key)
}

// fail records an error for the key.
func (l *ledger) fail(key, msg string) {
	l.errs[key] = msg
}

func (l *ledger) loading(key string) bool {
	return l.inFlight[key]
}

func (l *ledger) errorFor(key string) string {
	return l.errs[key]
}

func (l *ledger) clearError(key string) {
	delete(l.errs, key)
}

func (l *ledger) clearAllErrors() {
	clear(l.errs)
}
