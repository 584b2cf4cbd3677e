package entstore

// Option configures optional Store collaborators.
type Option struct {
	apply func(notifier *Notifier, logf *func(format string, args ...any))
}

// WithNotifier injects the user-visible notification collaborator.
// Defaults to [NopNotifier].
func WithNotifier(n Notifier) Option {
	return Option{apply: func(notifier *Notifier, _ *func(string, ...any)) {
		if n != nil {
			*notifier = n
		}
	}}
}

// WithLogf injects a printf-style logger for failed mutations (e.g.
// (*log.Logger).Printf). The ledger and notifier remain the primary failure
// channels; the log is diagnostics only. Defaults to discard.
func WithLogf(logf func(format string, args ...any)) Option {
	return Option{apply: func(_ *Notifier, dst *func(string, ...any)) {
		if logf != nil {
			*dst = logf
		}
	}}
}
