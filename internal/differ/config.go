package differ

// DiffConfig controls how change diffs are rendered.
type DiffConfig struct {
	ContextLines int // unchanged lines shown around each change
	MaxDiffChars int // rendered diff is cut to this many characters, 0 for no limit
}

// DefaultDiffConfig returns the default rendering settings.
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		ContextLines: 3,
		MaxDiffChars: 3500,
	}
}
