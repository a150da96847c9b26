package normalization

import (
	"regexp"
	"strings"
)

// Плейсхолдеры, которыми заменяются числовые значения для лучшего
// обобщения классификатора: конкретная сумма не должна влиять на намерение.
const (
	NumberToken = "NUMBER"
	AmountToken = "AMOUNT"
)

// RE2 не поддерживает \b рядом с кириллицей (в \w входят только ASCII
// символы), поэтому границы слов моделируются явными группами
// (^|[^\p{L}]) и ($|[^\p{L}]), а однословные правила применяются
// по таблицам токенов.
var (
	reThousand = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:тысяч|тыс\.?|к)($|[^\p{L}])`)
	reMillion  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:миллионов|миллиона|миллион|млн\.?)($|[^\p{L}])`)
	reRubles   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:рублей|рубля|рубль|руб\.?)($|[^\p{L}])`)

	reQuoteSession = regexp.MustCompile(`(^|[^\p{L}])котировочн[а-я]*\s*сесси[а-я]*($|[^\p{L}])`)
	reStationery   = regexp.MustCompile(`(^|[^\p{L}])канцелярские\s+товары($|[^\p{L}])`)
	reFoodstuffs   = regexp.MustCompile(`(^|[^\p{L}])продукты\s+питания($|[^\p{L}])`)

	rePunctuation = regexp.MustCompile(`[,;:]+`)
	reWhitespace  = regexp.MustCompile(`\s+`)

	reBigNumber = regexp.MustCompile(`(^|[^\p{L}\p{N}])(\d{4,})($|[^\p{L}\p{N}])`)
	reAmount    = regexp.MustCompile(`(^|[^\p{L}\p{N}])(\d{1,3}(?:[.,]\d+)?)\s*(?:тысяч|млн|рублей)($|[^\p{L}])`)
)

// tokenRewrites отображение токена (в нижнем регистре) в каноническую
// форму: организационно-правовые формы, доменные аббревиатуры, группы
// глаголов-синонимов, типы документов и категории
var tokenRewrites = map[string]string{
	// Организационно-правовые формы
	"ооо": "ООО",
	"ао":  "АО",
	"пао": "ПАО",
	"зао": "ЗАО",
	"ип":  "ИП",
	"гуп": "ГУП",
	"муп": "МУП",

	// Доменные аббревиатуры
	"кс":  "КС",
	"инн": "ИНН",
	"бик": "БИК",
	"it":  "IT",
	"ид":  "ID",
	"id":  "ID",

	// Глаголы создания
	"создай":   "создать",
	"создать":  "создать",
	"сделай":   "создать",
	"оформи":   "создать",
	"оформить": "создать",

	// Глаголы поиска
	"найди":    "найти",
	"найти":    "найти",
	"покажи":   "найти",
	"показать": "найти",
	"поиск":    "найти",

	// Глаголы необходимости
	"требуется":  "нужен",
	"нужен":      "нужен",
	"нужна":      "нужен",
	"необходим":  "нужен",
	"необходимо": "нужен",

	// Типы документов
	"контракт":   "контракт",
	"договор":    "контракт",
	"соглашение": "контракт",

	// Котировочные сессии
	"котировк":  "котировка",
	"котировка": "котировка",
	"котировку": "котировка",
	"котировки": "котировка",
	"котировке": "котировка",
	"котировкы": "котировка",

	// Категории
	"канцтовары":   "канцтовары",
	"консультации": "консультации",
	"консультацие": "консультации",
}

// ApplyRewrites применяет упорядоченный набор детерминированных правил
// переписывания. Функция идемпотентна: повторное применение к своему
// результату ничего не меняет, плейсхолдеры стабилизируются за один проход.
func ApplyRewrites(text string) string {
	// Суммы и денежные единицы
	text = replaceStable(reThousand, text, "$1 тысяч$2")
	text = replaceStable(reMillion, text, "$1 млн$2")
	text = replaceStable(reRubles, text, "$1 рублей$2")

	// Многословные синонимы
	text = replaceStable(reQuoteSession, text, "${1}котировка${2}")
	text = replaceStable(reStationery, text, "${1}канцтовары${2}")
	text = replaceStable(reFoodstuffs, text, "${1}продукты${2}")

	// Знаки препинания и пробелы
	text = rePunctuation.ReplaceAllString(text, " ")
	text = strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))

	// Однословные правила по таблице токенов
	tokens := strings.Fields(text)
	for i, token := range tokens {
		if canonical, ok := tokenRewrites[strings.ToLower(token)]; ok {
			tokens[i] = canonical
		}
	}
	text = strings.Join(tokens, " ")

	// Замена числовых значений на плейсхолдеры
	text = replaceStable(reBigNumber, text, "${1}"+NumberToken+"${3}")
	text = replaceStable(reAmount, text, "${1}"+AmountToken+"${3}")

	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

// replaceStable повторяет замену, пока текст не перестанет меняться.
// Нужна, потому что граничные группы поглощают разделитель между
// соседними совпадениями и одного прохода может не хватить.
func replaceStable(re *regexp.Regexp, text, replacement string) string {
	for i := 0; i < 5; i++ {
		replaced := re.ReplaceAllString(text, replacement)
		if replaced == text {
			return replaced
		}
		text = replaced
	}
	return text
}
