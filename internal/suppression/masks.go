package suppression

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaskCacheSize = 256

// MaskMatcher matches values against lists of case-insensitive regular expressions.
// Compiled expressions are cached; masks that fail to compile never match.
type MaskMatcher struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewMaskMatcher creates a MaskMatcher caching up to size compiled masks.
func NewMaskMatcher(size int) *MaskMatcher {
	if size <= 0 {
		size = defaultMaskCacheSize
	}
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		// lru.New only fails for a non-positive size
		panic(err)
	}
	return &MaskMatcher{cache: cache}
}

// MatchAny reports whether value matches at least one of masks.
func (m *MaskMatcher) MatchAny(value string, masks []string) bool {
	for _, mask := range masks {
		if rgx := m.compile(mask); rgx != nil && rgx.MatchString(value) {
			return true
		}
	}
	return false
}

// Filter returns the values that match none of masks, preserving order.
func (m *MaskMatcher) Filter(values []string, masks []string) []string {
	if len(masks) == 0 {
		return values
	}
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if !m.MatchAny(v, masks) {
			kept = append(kept, v)
		}
	}
	return kept
}

func (m *MaskMatcher) compile(mask string) *regexp.Regexp {
	if rgx, ok := m.cache.Get(mask); ok {
		return rgx
	}
	rgx, err := regexp.Compile("(?i)" + mask)
	if err != nil {
		rgx = nil
	}
	m.cache.Add(mask, rgx)
	return rgx
}
