package quality

// Applier is the host settings collaborator. Apply pushes one tier's level
// into the host's settings system; immediate requests an in-place change
// rather than a deferred one. The controller calls Apply at most once per
// tick and only when the tier actually changed.
type Applier interface {
	Apply(tier int, level Level, immediate bool) error
}

// ApplierFunc adapts a plain function to the Applier interface.
type ApplierFunc func(tier int, level Level, immediate bool) error

func (f ApplierFunc) Apply(tier int, level Level, immediate bool) error {
	return f(tier, level, immediate)
}
