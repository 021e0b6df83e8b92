package config

// ConfigDiff describes what changed between two configs. Only fields that
// can be safely hot-reloaded are tracked; everything else (listen address,
// catalog source, LLM providers) requires a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// MatchingChanged is true when any matching threshold changed. The new
	// policy can be applied by swapping the resolver.
	MatchingChanged bool
	NewMatching     MatchingConfig

	// ExtractionChanged is true when any extraction window or guard changed.
	ExtractionChanged bool
	NewExtraction     ExtractionConfig
}

// Changed reports whether the diff contains any hot-reloadable change.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.MatchingChanged || d.ExtractionChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Matching != new.Matching {
		d.MatchingChanged = true
		d.NewMatching = new.Matching
	}

	if old.Extraction != new.Extraction {
		d.ExtractionChanged = true
		d.NewExtraction = new.Extraction
	}

	return d
}
