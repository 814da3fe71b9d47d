package tree

// Config holds the tunables a Tree is constructed with, in the same spirit
// as the teacher's MptConfig: small, exported, and safe to leave zero for
// everything except what actually needs to be tuned.
type Config struct {
	// Name is a descriptive label used only for logging.
	Name string
	// NodeCacheSize bounds the LRU node cache that adapter.NewAdapter builds
	// with NewNodeCache. A value below 1 is treated as 1, so zero does not
	// disable caching; only a Tree constructed with a nil NodeCache has no
	// cache at all.
	NodeCacheSize int
}

// DefaultConfig is used by callers that have no specific tuning needs.
var DefaultConfig = Config{
	Name:          "xook",
	NodeCacheSize: 100_000,
}
