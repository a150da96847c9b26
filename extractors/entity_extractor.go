package extractors

import (
	"log"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPriority порядок обхода типов сущностей: идентификаторы
// раньше свободных текстовых полей, чтобы пересекающиеся совпадения
// разрешались детерминированно
var DefaultPriority = []string{
	"customer_inn", "inn", "bik", "amount",
	"customer_name", "company_name", "contract_name", "ks_name",
	"category", "law", "document_id", "deadline", "priority",
}

// nameTypes типы сущностей, для которых поиск идет по исходному тексту
// с сохранением регистра (названия организаций и документов)
var nameTypes = map[string]bool{
	"company_name":  true,
	"customer_name": true,
	"contract_name": true,
	"ks_name":       true,
}

var (
	reDigits     = regexp.MustCompile(`\D`)
	reInn        = regexp.MustCompile(`^(\d{10}|\d{12})$`)
	reBik        = regexp.MustCompile(`^\d{9}$`)
	reNumeric    = regexp.MustCompile(`^\d+$`)
	reDeadline   = regexp.MustCompile(`^\d{1,2}[./]\d{1,2}[./]\d{2,4}$`)
	reNameQuotes = regexp.MustCompile(`["'«»]`)
	reNameSpaces = regexp.MustCompile(`\s+`)
	reLawSuffix  = regexp.MustCompile(`(?i)[-\s]*фз`)
	reThousandK  = regexp.MustCompile(`\d\s*к($|[^а-яa-z])`)
)

// EntityExtractor извлекает структурированные сущности из текста
// по приоритетному набору регулярных выражений с валидацией и
// нормализацией по типам
type EntityExtractor struct {
	patterns map[string][]*regexp.Regexp
	priority []string
}

// NewEntityExtractor компилирует паттерны сущностей. Некорректные
// регулярные выражения логируются и пропускаются - ошибка конфигурации
// одного паттерна не должна ломать извлечение целиком.
// Пустой priority заменяется на DefaultPriority.
func NewEntityExtractor(patterns map[string][]string, priority []string) *EntityExtractor {
	compiled := make(map[string][]*regexp.Regexp, len(patterns))
	for entityType, raws := range patterns {
		for _, raw := range raws {
			re, err := regexp.Compile(raw)
			if err != nil {
				log.Printf("[EntityExtractor] пропущен некорректный паттерн %q для %s: %v", raw, entityType, err)
				continue
			}
			compiled[entityType] = append(compiled[entityType], re)
		}
	}

	if len(priority) == 0 {
		priority = DefaultPriority
	}

	return &EntityExtractor{
		patterns: compiled,
		priority: priority,
	}
}

// Types возвращает настроенные типы сущностей в порядке приоритета
func (e *EntityExtractor) Types() []string {
	types := make([]string, 0, len(e.patterns))
	for _, entityType := range e.priority {
		if _, ok := e.patterns[entityType]; ok {
			types = append(types, entityType)
		}
	}
	for entityType := range e.patterns {
		if !contains(e.priority, entityType) {
			types = append(types, entityType)
		}
	}
	return types
}

// Extract извлекает сущности из текста. Для каждого типа берется
// первое совпадение, прошедшее валидацию, - не больше одного значения
// на тип. Сначала обходятся приоритетные типы, затем остальные.
func (e *EntityExtractor) Extract(text string, intent string) map[string]string {
	entities := make(map[string]string)
	if len(e.patterns) == 0 {
		return entities
	}

	lowerText := strings.ToLower(text)

	for _, entityType := range e.priority {
		e.extractType(entityType, text, lowerText, entities)
	}
	for entityType := range e.patterns {
		if !contains(e.priority, entityType) {
			e.extractType(entityType, text, lowerText, entities)
		}
	}

	return entities
}

func (e *EntityExtractor) extractType(entityType, original, lower string, entities map[string]string) {
	patterns, ok := e.patterns[entityType]
	if !ok {
		return
	}
	if _, done := entities[entityType]; done {
		return
	}

	searchText := lower
	if nameTypes[entityType] {
		searchText = original
	}

	for _, re := range patterns {
		match := re.FindStringSubmatch(searchText)
		if len(match) < 2 {
			continue
		}
		value := strings.TrimSpace(match[1])
		if !validateEntity(entityType, value) {
			continue
		}
		entities[entityType] = normalizeEntity(entityType, value, match[0])
		return
	}
}

// validateEntity проверяет извлеченное значение по правилам типа
func validateEntity(entityType, value string) bool {
	if value == "" {
		return false
	}

	switch entityType {
	case "customer_inn", "inn":
		return reInn.MatchString(value)
	case "bik":
		return reBik.MatchString(value)
	case "amount":
		_, err := parseAmount(value)
		return err == nil
	case "customer_name", "company_name", "contract_name", "ks_name":
		return len([]rune(value)) >= 3 && !reNumeric.MatchString(value)
	case "document_id":
		return reNumeric.MatchString(value)
	case "deadline":
		return reDeadline.MatchString(value)
	default:
		return true
	}
}

// normalizeEntity приводит значение к канонической форме.
// context - полное совпадение паттерна: для сумм из него берется
// единица измерения (тыс/млн), на которую умножается значение.
func normalizeEntity(entityType, value, context string) string {
	switch entityType {
	case "amount":
		number, err := parseAmount(value)
		if err != nil {
			return value
		}
		number *= unitMultiplier(context)
		return formatAmount(number)
	case "customer_inn", "inn", "bik", "document_id":
		return reDigits.ReplaceAllString(value, "")
	case "customer_name", "company_name", "contract_name", "ks_name":
		cleaned := reNameQuotes.ReplaceAllString(value, "")
		return strings.TrimSpace(reNameSpaces.ReplaceAllString(cleaned, " "))
	case "law":
		return strings.ToUpper(reLawSuffix.ReplaceAllString(value, "-ФЗ"))
	case "category":
		return strings.ToLower(value)
	default:
		return value
	}
}

func parseAmount(value string) (float64, error) {
	cleaned := strings.ReplaceAll(value, ",", ".")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return strconv.ParseFloat(cleaned, 64)
}

// unitMultiplier определяет множитель суммы по контексту совпадения:
// "500 тыс" -> 1000, "2 млн" -> 1000000
func unitMultiplier(context string) float64 {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "млн") || strings.Contains(lower, "миллион"):
		return 1_000_000
	case strings.Contains(lower, "тыс"):
		return 1_000
	case reThousandK.MatchString(lower):
		return 1_000
	default:
		return 1
	}
}

// formatAmount форматирует сумму: целые без дробной части,
// дробные без хвостовых нулей
func formatAmount(number float64) string {
	if number == float64(int64(number)) {
		return strconv.FormatInt(int64(number), 10)
	}
	return strconv.FormatFloat(number, 'f', -1, 64)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
