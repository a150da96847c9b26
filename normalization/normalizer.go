package normalization

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"intentserver/matching"
)

// ErrValidation возвращается, когда входной текст пустой, превышает
// максимальную длину или не проходит санитизацию
var ErrValidation = errors.New("validation error")

// DefaultMaxLength максимальная длина входного текста в рунах
const DefaultMaxLength = 1000

// deniedChars символы, удаляемые при санитизации входного текста
const deniedChars = `<>"'` + "`\\"

// Config настройки нормализатора текста
type Config struct {
	MaxLength   int  // Максимальная длина текста в рунах (0 = DefaultMaxLength)
	UseStemming bool // Применять ли стемминг Snowball после правил нормализации
}

// Normalizer выполняет предобработку текста перед классификацией:
// санитизация, приведение к нижнему регистру, исправление опечаток
// по словарю и детерминированные правила переписывания.
type Normalizer struct {
	matcher *matching.LevenshteinMatcher

	mu         sync.RWMutex
	dictionary []string

	maxLength int
	stemmer   *RussianStemmer
}

// NewNormalizer создает нормализатор. Словарь может быть пустым -
// тогда шаг исправления опечаток пропускается.
func NewNormalizer(matcher *matching.LevenshteinMatcher, dictionary []string, cfg Config) *Normalizer {
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var stemmer *RussianStemmer
	if cfg.UseStemming {
		stemmer = NewRussianStemmer()
	}

	return &Normalizer{
		matcher:    matcher,
		dictionary: dictionary,
		maxLength:  maxLength,
		stemmer:    stemmer,
	}
}

// DictionarySize возвращает размер словаря исправлений
func (n *Normalizer) DictionarySize() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.dictionary)
}

// Dictionary возвращает копию словаря исправлений
func (n *Normalizer) Dictionary() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.dictionary...)
}

// SetDictionary заменяет словарь исправлений
func (n *Normalizer) SetDictionary(dictionary []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dictionary = dictionary
}

// AddTerms добавляет термины в словарь исправлений без дубликатов.
// Существующие термины не удаляются. Словарь пересобирается в новый
// срез, чтобы не трогать снимок, который читает Normalize.
func (n *Normalizer) AddTerms(terms []string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	seen := make(map[string]bool, len(n.dictionary)+len(terms))
	merged := make([]string, 0, len(n.dictionary)+len(terms))
	for _, t := range n.dictionary {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		merged = append(merged, t)
	}
	sort.Strings(merged)
	n.dictionary = merged
}

// Normalize выполняет полный конвейер предобработки текста.
// Шаги строго упорядочены: санитизация, нижний регистр, исправление
// опечаток, правила переписывания, опциональный стемминг.
func (n *Normalizer) Normalize(raw string) (string, error) {
	sanitized, err := n.Sanitize(raw)
	if err != nil {
		return "", err
	}

	processed := strings.ToLower(sanitized)

	n.mu.RLock()
	dictionary := n.dictionary
	n.mu.RUnlock()
	if len(dictionary) > 0 {
		processed = n.matcher.CorrectText(processed, dictionary, false).CorrectedText
	}

	processed = ApplyRewrites(processed)

	if n.stemmer != nil {
		processed = n.stemmer.StemText(processed)
	}

	return processed, nil
}

// Sanitize удаляет управляющие и запрещенные символы, схлопывает
// повторяющиеся пробелы и проверяет длину. Превышение максимальной
// длины - ошибка валидации, а не молчаливое усечение.
func (n *Normalizer) Sanitize(raw string) (string, error) {
	if length := len([]rune(raw)); length > n.maxLength {
		return "", fmt.Errorf("%w: текст длиной %d превышает максимум %d", ErrValidation, length, n.maxLength)
	}

	var b strings.Builder
	for _, r := range raw {
		if unicode.IsControl(r) || strings.ContainsRune(deniedChars, r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	sanitized := strings.Join(strings.Fields(b.String()), " ")
	if sanitized == "" {
		return "", fmt.Errorf("%w: текст пустой", ErrValidation)
	}

	return sanitized, nil
}
