package normalization

import (
	"errors"
	"strings"
	"testing"

	"intentserver/matching"
)

func newTestNormalizer(dictionary []string) *Normalizer {
	return NewNormalizer(matching.NewLevenshteinMatcher(0.6), dictionary, Config{})
}

func TestSanitize(t *testing.T) {
	n := newTestNormalizer(nil)

	got, err := n.Sanitize("Создай   КС\t<script>на канцтовары")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if strings.ContainsAny(got, "<>") {
		t.Errorf("запрещенные символы не удалены: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("пробелы не схлопнуты: %q", got)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	n := newTestNormalizer(nil)

	for _, input := range []string{"", "   ", "<<>>", "\t\n"} {
		if _, err := n.Sanitize(input); !errors.Is(err, ErrValidation) {
			t.Errorf("Sanitize(%q): ожидалась ErrValidation, получено %v", input, err)
		}
	}
}

func TestSanitizeTooLong(t *testing.T) {
	n := newTestNormalizer(nil)

	long := strings.Repeat("а", DefaultMaxLength+1)
	if _, err := n.Sanitize(long); !errors.Is(err, ErrValidation) {
		t.Errorf("слишком длинный текст должен давать ErrValidation, получено %v", err)
	}

	ok := strings.Repeat("а", DefaultMaxLength)
	if _, err := n.Sanitize(ok); err != nil {
		t.Errorf("текст максимальной длины должен проходить: %v", err)
	}
}

func TestNormalizeLowercaseAndRules(t *testing.T) {
	n := newTestNormalizer(nil)

	got, err := n.Normalize("Создай КС на канцтовары")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got != "создать КС на канцтовары" {
		t.Errorf("получено %q", got)
	}
}

func TestNormalizeTypoCorrection(t *testing.T) {
	n := newTestNormalizer([]string{"контракт", "канцтовары", "создать"})

	got, err := n.Normalize("Найди контрак")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !strings.Contains(got, "контракт") {
		t.Errorf("опечатка не исправлена: %q", got)
	}
}

func TestNormalizeEmptyDictionarySkipsCorrection(t *testing.T) {
	n := newTestNormalizer(nil)

	got, err := n.Normalize("контрак")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got != "контрак" {
		t.Errorf("без словаря текст должен остаться как есть, получено %q", got)
	}
}

func TestApplyRewritesMoneyUnits(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"500 тыс", "AMOUNT"},
		{"500к", "AMOUNT"},
		{"2 млн", "AMOUNT"},
		{"100 руб", "AMOUNT"},
		{"100 рублей", "AMOUNT"},
		{"на 500 тыс рублей", "на AMOUNT рублей"},
	}

	for _, tt := range tests {
		if got := ApplyRewrites(tt.input); got != tt.expected {
			t.Errorf("ApplyRewrites(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestApplyRewritesLegalForms(t *testing.T) {
	got := ApplyRewrites("ооо ромашка и ип иванов")
	if got != "ООО ромашка и ИП иванов" {
		t.Errorf("получено %q", got)
	}
}

func TestApplyRewritesVerbGroups(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"создай кс", "создать КС"},
		{"сделай кс", "создать КС"},
		{"оформи договор", "создать контракт"},
		{"покажи контракты", "найти контракты"},
		{"требуется консультация", "нужен консультация"},
	}

	for _, tt := range tests {
		if got := ApplyRewrites(tt.input); got != tt.expected {
			t.Errorf("ApplyRewrites(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestApplyRewritesDocumentTypes(t *testing.T) {
	for _, word := range []string{"контракт", "договор", "соглашение"} {
		if got := ApplyRewrites(word); got != "контракт" {
			t.Errorf("ApplyRewrites(%q) = %q, want контракт", word, got)
		}
	}

	if got := ApplyRewrites("котировочная сессия"); got != "котировка" {
		t.Errorf("котировочная сессия -> %q", got)
	}
	if got := ApplyRewrites("котировку"); got != "котировка" {
		t.Errorf("котировку -> %q", got)
	}
}

func TestApplyRewritesCategories(t *testing.T) {
	if got := ApplyRewrites("канцелярские товары"); got != "канцтовары" {
		t.Errorf("получено %q", got)
	}
	if got := ApplyRewrites("продукты питания"); got != "продукты" {
		t.Errorf("получено %q", got)
	}
}

func TestApplyRewritesPlaceholders(t *testing.T) {
	if got := ApplyRewrites("заказ 123456"); got != "заказ NUMBER" {
		t.Errorf("получено %q", got)
	}
	// Трехзначные числа без единиц остаются как есть
	if got := ApplyRewrites("заказ 123"); got != "заказ 123" {
		t.Errorf("получено %q", got)
	}
}

func TestApplyRewritesPunctuation(t *testing.T) {
	got := ApplyRewrites("создай, кс; на: канцтовары")
	if got != "создать КС на канцтовары" {
		t.Errorf("получено %q", got)
	}
}

func TestApplyRewritesIdempotent(t *testing.T) {
	inputs := []string{
		"создай кс на канцтовары за 500 тыс",
		"ооо ромашка ИНН 1234567890",
		"найди договор до 15.12.2024",
		"котировочная сессия на 2 млн",
		"NUMBER AMOUNT создать КС",
	}

	for _, input := range inputs {
		once := ApplyRewrites(input)
		twice := ApplyRewrites(once)
		if once != twice {
			t.Errorf("не идемпотентно для %q: %q -> %q", input, once, twice)
		}
	}
}

func TestNormalizeWithStemming(t *testing.T) {
	n := NewNormalizer(matching.NewLevenshteinMatcher(0.6), nil, Config{UseStemming: true})

	got, err := n.Normalize("канцтовары канцтоварами")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	words := strings.Fields(got)
	if len(words) != 2 || words[0] != words[1] {
		t.Errorf("стемминг должен сводить словоформы к одной основе: %q", got)
	}
}

func TestStemmerCache(t *testing.T) {
	s := NewRussianStemmer()
	s.Stem("молотком")
	s.Stem("молотком")
	if s.CacheSize() != 1 {
		t.Errorf("ожидался 1 элемент в кэше, получено %d", s.CacheSize())
	}
}
