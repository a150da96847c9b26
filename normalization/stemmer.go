package normalization

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// RussianStemmer reduces Russian words to their stems using the Snowball
// algorithm. Stemming is optional in the normalization pipeline and is
// applied after the rewrite rules, so placeholders are stemmed the same
// way during training and inference.
type RussianStemmer struct {
	language string
	cache    map[string]string
	mu       sync.RWMutex
}

// NewRussianStemmer creates a caching Russian stemmer
func NewRussianStemmer() *RussianStemmer {
	return &RussianStemmer{
		language: "russian",
		cache:    make(map[string]string),
	}
}

// Stem returns the stemmed form of a single word.
// Falls back to the normalized word when the stemmer fails.
func (s *RussianStemmer) Stem(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return ""
	}

	s.mu.RLock()
	if cached, found := s.cache[normalized]; found {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	stemmed, err := snowball.Stem(normalized, s.language, true)
	if err != nil {
		stemmed = normalized
	}

	s.mu.Lock()
	s.cache[normalized] = stemmed
	s.mu.Unlock()

	return stemmed
}

// StemText stems every whitespace-separated word of a text
func (s *RussianStemmer) StemText(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	stemmed := make([]string, len(words))
	for i, word := range words {
		stemmed[i] = s.Stem(word)
	}

	return strings.Join(stemmed, " ")
}

// CacheSize returns the number of cached stems
func (s *RussianStemmer) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
