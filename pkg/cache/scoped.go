package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share
// one cache directory without key collisions.
//
// Example usage:
//
//	projKeyer := NewScopedKeyer(NewDefaultKeyer(), "proj:bridge-a7:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DiffKey generates a prefixed key for comparison caching.
func (k *ScopedKeyer) DiffKey(hashA, hashB string, opts DiffKeyOpts) string {
	return k.prefix + k.inner.DiffKey(hashA, hashB, opts)
}

// PlanKey generates a prefixed key for fix plan caching.
func (k *ScopedKeyer) PlanKey(docHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(docHash, opts)
}
