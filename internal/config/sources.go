package config

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterSources applies the include/exclude globs to a source list,
// preserving order. Empty include means everything is included; exclusions
// always win. Patterns match against slash-normalized paths.
func (c *Config) FilterSources(sources []string) []string {
	if len(c.Include) == 0 && len(c.Exclude) == 0 {
		return sources
	}
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		normalized := filepath.ToSlash(src)
		if len(c.Include) > 0 && !matchAny(c.Include, normalized) {
			continue
		}
		if matchAny(c.Exclude, normalized) {
			continue
		}
		out = append(out, src)
	}
	return out
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}
