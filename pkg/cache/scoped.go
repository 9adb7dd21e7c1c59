package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis instance.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AssetKey implements Keyer.
func (k *ScopedKeyer) AssetKey(kind, url string) string {
	return k.prefix + k.inner.AssetKey(kind, url)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(compositionHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(compositionHash, opts)
}
