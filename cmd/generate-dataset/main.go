// Генератор синтетической обучающей выборки для движка классификации.
// Комбинирует шаблоны запросов закупочного домена со случайными
// товарами, суммами и реквизитами компаний.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"intentserver/classification"
	"intentserver/importer"
)

var categories = []string{
	"канцтовары", "мебель", "продукты", "техника",
	"оборудование", "консультации", "ремонт", "строительство",
}

var intentTemplates = map[string][]string{
	"create_contract": {
		"создай контракт на {category}",
		"оформи прямой контракт на сумму {amount} рублей",
		"нужен контракт с поставщиком {company}",
		"сделай контракт на {category} по 44 фз",
	},
	"create_ks": {
		"создай кс на {category}",
		"создать котировочную сессию на {category}",
		"запусти кс на сумму {amount} тыс",
		"нужна котировочная сессия по {category}",
	},
	"create_zakupka": {
		"создай закупку {category}",
		"оформи закупку на {amount} рублей",
		"необходимо закупить {category}",
		"новая закупка по 223 фз на {category}",
	},
	"search_docs": {
		"найди документы по {category}",
		"покажи контракты за прошлый месяц",
		"поиск документов номер {number}",
		"найди закупки поставщика {company}",
	},
	"search_company": {
		"найди компанию {company}",
		"поиск организации инн {inn}",
		"покажи поставщика {company}",
		"найди фирму по инн {inn}",
	},
	"create_company_profile": {
		"создай профиль компании {company}",
		"оформи профиль организации инн {inn}",
		"зарегистрируй компанию {company} инн {inn}",
	},
	"help": {
		"помощь",
		"что ты умеешь",
		"справка по командам",
		"как создать закупку",
	},
}

func main() {
	var (
		out        = flag.String("out", "dataset.json", "путь к выходному JSON-файлу")
		perIntent  = flag.Int("per-intent", 30, "число примеров на намерение")
		randomSeed = flag.Int64("seed", 0, "seed генератора (0 - недетерминированный)")
	)
	flag.Parse()

	gofakeit.Seed(*randomSeed)

	var examples []classification.TrainingExample
	for intent, templates := range intentTemplates {
		for i := 0; i < *perIntent; i++ {
			template := templates[i%len(templates)]
			examples = append(examples, classification.TrainingExample{
				Text:   fillTemplate(template),
				Intent: intent,
			})
		}
	}

	if err := importer.SaveDatasetJSON(*out, examples); err != nil {
		log.Fatalf("Ошибка записи датасета: %v", err)
	}
	log.Printf("Записано %d примеров в %s", len(examples), *out)
}

func fillTemplate(template string) string {
	replacements := map[string]string{
		"{category}": categories[gofakeit.Number(0, len(categories)-1)],
		"{amount}":   fmt.Sprintf("%d", gofakeit.Number(10, 900)),
		"{company}":  gofakeit.Company(),
		"{inn}":      generateINN(),
		"{number}":   fmt.Sprintf("%d", gofakeit.Number(1000, 99999)),
	}

	text := template
	for placeholder, value := range replacements {
		text = strings.ReplaceAll(text, placeholder, value)
	}
	return text
}

// generateINN выдает правдоподобный десятизначный ИНН
func generateINN() string {
	var b strings.Builder
	b.WriteByte(byte('1' + gofakeit.Number(0, 8)))
	for i := 0; i < 9; i++ {
		b.WriteByte(byte('0' + gofakeit.Number(0, 9)))
	}
	return b.String()
}
