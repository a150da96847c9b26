package matching

import (
	"sort"
	"strings"
)

// correctionCutoff минимальная схожесть, при которой слово заменяется
// кандидатом из словаря при исправлении опечаток
const correctionCutoff = 0.7

// LevenshteinMatcher вычисляет расстояние Левенштейна и выполняет
// нечеткий поиск по коллекции строк
type LevenshteinMatcher struct {
	threshold float64 // Минимальный порог схожести для совпадений (0.0 - 1.0)
}

// Match результат нечеткого поиска: кандидат и его схожесть
type Match struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Correction описывает одно исправление опечатки в тексте
type Correction struct {
	Position   int     `json:"position"`
	Original   string  `json:"original"`
	Corrected  string  `json:"corrected"`
	Confidence float64 `json:"confidence"`
}

// CorrectionResult результат исправления опечаток в тексте
type CorrectionResult struct {
	OriginalText  string       `json:"original_text"`
	CorrectedText string       `json:"corrected_text"`
	Corrections   []Correction `json:"corrections"`
}

// NewLevenshteinMatcher создает матчер с указанным порогом схожести.
// Порог обрезается до диапазона [0, 1].
func NewLevenshteinMatcher(threshold float64) *LevenshteinMatcher {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	return &LevenshteinMatcher{threshold: threshold}
}

// Threshold возвращает текущий порог схожести
func (m *LevenshteinMatcher) Threshold() float64 {
	return m.threshold
}

// Distance вычисляет расстояние Левенштейна между двумя строками.
// Используется двухстрочная динамика: память O(min(|a|, |b|)).
func (m *LevenshteinMatcher) Distance(a, b string, caseSensitive bool) int {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}

	if a == b {
		return 0
	}

	r1 := []rune(a)
	r2 := []rune(b)

	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Держим более короткую строку во внутреннем цикле
	if len(r1) < len(r2) {
		r1, r2 = r2, r1
	}

	previous := make([]int, len(r2)+1)
	current := make([]int, len(r2)+1)
	for j := range previous {
		previous[j] = j
	}

	for i, c1 := range r1 {
		current[0] = i + 1
		for j, c2 := range r2 {
			insertion := previous[j+1] + 1
			deletion := current[j] + 1
			substitution := previous[j]
			if c1 != c2 {
				substitution++
			}
			current[j+1] = min3(insertion, deletion, substitution)
		}
		previous, current = current, previous
	}

	return previous[len(r2)]
}

// Similarity вычисляет схожесть строк на основе расстояния Левенштейна:
// 1.0 - идентичные строки, 0.0 - полностью разные.
// Две пустые строки считаются идентичными.
func (m *LevenshteinMatcher) Similarity(a, b string, caseSensitive bool) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := m.Distance(a, b, caseSensitive)
	return 1.0 - float64(distance)/float64(maxLen)
}

// FindBestMatch находит лучшее совпадение среди кандидатов.
// Возвращает false, если ни один кандидат не достиг порога.
// При равной схожести сохраняется первый встреченный кандидат,
// поэтому результат детерминирован относительно порядка кандидатов.
func (m *LevenshteinMatcher) FindBestMatch(query string, candidates []string, caseSensitive bool) (string, float64, bool) {
	best := ""
	bestScore := 0.0
	found := false

	for _, candidate := range candidates {
		score := m.Similarity(query, candidate, caseSensitive)
		if score < m.threshold {
			continue
		}
		if !found || score > bestScore {
			best = candidate
			bestScore = score
			found = true
		}
	}

	return best, bestScore, found
}

// FindMultipleMatches находит до limit лучших совпадений среди кандидатов,
// отсортированных по убыванию схожести. Сортировка стабильная: кандидаты
// с равной схожестью сохраняют исходный порядок.
func (m *LevenshteinMatcher) FindMultipleMatches(query string, candidates []string, limit int, caseSensitive bool) []Match {
	if len(candidates) == 0 || limit <= 0 {
		return nil
	}

	var matches []Match
	for _, candidate := range candidates {
		score := m.Similarity(query, candidate, caseSensitive)
		if score >= m.threshold {
			matches = append(matches, Match{Candidate: candidate, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// CorrectText исправляет опечатки в тексте по словарю. Каждое слово
// заменяется лучшим кандидатом, если его схожесть выше correctionCutoff
// и кандидат отличается от слова. Пустой текст или словарь - no-op.
func (m *LevenshteinMatcher) CorrectText(text string, dictionary []string, caseSensitive bool) CorrectionResult {
	result := CorrectionResult{
		OriginalText:  text,
		CorrectedText: text,
	}

	if text == "" || len(dictionary) == 0 {
		return result
	}

	words := strings.Fields(text)
	corrected := make([]string, 0, len(words))

	for i, word := range words {
		match, score, found := m.FindBestMatch(word, dictionary, caseSensitive)
		if found && score > correctionCutoff && match != word {
			corrected = append(corrected, match)
			result.Corrections = append(result.Corrections, Correction{
				Position:   i,
				Original:   word,
				Corrected:  match,
				Confidence: score,
			})
		} else {
			corrected = append(corrected, word)
		}
	}

	result.CorrectedText = strings.Join(corrected, " ")
	return result
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
