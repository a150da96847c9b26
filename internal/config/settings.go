package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// Settings предметные настройки движка классификации: намерения,
// словарь исправлений, паттерны сущностей и параметры модели.
// Загружаются из JSON-файла, отсутствующие секции добираются
// из значений по умолчанию.
type Settings struct {
	ProcurementIntents   map[string]string   `json:"procurement_intents"`
	CorrectionDictionary []string            `json:"correction_dictionary"`
	EntityPatterns       map[string][]string `json:"entity_patterns"`
	EntityPriority       []string            `json:"entity_priority"`
	MLConfig             map[string]any      `json:"ml_config"`
	LevenshteinThreshold float64             `json:"levenshtein_threshold"`
}

// DefaultLevenshteinThreshold порог сходства для исправления опечаток
const DefaultLevenshteinThreshold = 0.6

// DefaultSettings возвращает настройки по умолчанию для закупочного домена.
func DefaultSettings() *Settings {
	return &Settings{
		ProcurementIntents: map[string]string{
			"create_contract":        "Создание прямого контракта",
			"create_ks":              "Создание котировочной сессии",
			"create_zakupka":         "Создание закупки",
			"search_docs":            "Поиск документов",
			"search_company":         "Поиск компании",
			"create_company_profile": "Создание профиля компании",
			"help":                   "Справка",
		},
		CorrectionDictionary: []string{
			"контракт", "котировка", "котировочная", "сессия", "закупка",
			"поставщик", "заказчик", "компания", "документ", "канцтовары",
			"продукты", "мебель", "техника", "консультации", "профиль",
		},
		EntityPatterns: map[string][]string{
			"customer_inn": {
				`инн\s+заказчика\s*[:№]?\s*(\d{10}|\d{12})`,
			},
			"inn": {
				`инн\s*[:№]?\s*(\d{10}|\d{12})`,
			},
			"bik": {
				`бик\s*[:№]?\s*(\d{9})`,
			},
			"amount": {
				`(?:на\s+сумму|сумма|бюджет|стоимость|цена)\s*[:]?\s*(\d+(?:[.,]\d+)?)\s*(?:тысяч|тыс\.?|млн|миллион(?:ов)?|рублей|руб\.?|к)?`,
				`на\s+(\d+(?:[.,]\d+)?)\s*(?:тысяч|тыс\.?|млн|миллион(?:ов)?|рублей|руб\.?)`,
			},
			"customer_name": {
				`(?i)заказчик[а]?\s*[:]?\s*[«"]?([а-яёa-z0-9][а-яёa-z0-9\s.\-]{2,60})`,
			},
			"company_name": {
				`(?i)(?:компани[яию]|организаци[яию]|фирм[аыу]|поставщик[а]?)\s*[:]?\s*[«"]?([а-яёa-z0-9][а-яёa-z0-9\s.\-]{2,60})`,
			},
			"contract_name": {
				`(?i)контракт\s+(?:на\s+)?[«"]?([а-яёa-z0-9][а-яёa-z0-9\s.\-]{2,80})`,
			},
			"ks_name": {
				`(?i)(?:кс|котировочн[ау]ю?\s+сесси[юя])\s+(?:на\s+)?[«"]?([а-яёa-z][а-яёa-z0-9\s.\-]{2,80})`,
			},
			"category": {
				`(канцтовары|канцелярские\s+товары|продукты(?:\s+питания)?|мебель|техника|оборудование|консультации|строительство|ремонт)`,
			},
			"law": {
				`(\d{1,3}\s*[-\s]?\s*фз)`,
			},
			"document_id": {
				`(?:документ|заявка|номер|№)\s*[:]?\s*(\d+)`,
			},
			"deadline": {
				`(?:до|срок|к)\s+(\d{1,2}[./]\d{1,2}[./]\d{2,4})`,
			},
			"priority": {
				`приоритет\s*[:]?\s*(высокий|средний|низкий|срочный)`,
			},
		},
		MLConfig:             map[string]any{},
		LevenshteinThreshold: DefaultLevenshteinThreshold,
	}
}

// LoadSettings читает настройки из JSON-файла. Отсутствующий файл -
// не ошибка: используются настройки по умолчанию. Отсутствующие
// секции файла добираются из умолчаний, заданные заменяют их целиком.
func LoadSettings(path string) (*Settings, error) {
	defaults := DefaultSettings()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[Settings] файл %s не найден, используются настройки по умолчанию", path)
			return defaults, nil
		}
		return nil, fmt.Errorf("чтение настроек: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("разбор настроек %s: %w", path, err)
	}

	if loaded.ProcurementIntents == nil {
		loaded.ProcurementIntents = defaults.ProcurementIntents
	}
	if loaded.CorrectionDictionary == nil {
		loaded.CorrectionDictionary = defaults.CorrectionDictionary
	}
	if loaded.EntityPatterns == nil {
		loaded.EntityPatterns = defaults.EntityPatterns
	}
	if loaded.EntityPriority == nil {
		loaded.EntityPriority = defaults.EntityPriority
	}
	if loaded.MLConfig == nil {
		loaded.MLConfig = defaults.MLConfig
	}
	if loaded.LevenshteinThreshold == 0 {
		loaded.LevenshteinThreshold = DefaultLevenshteinThreshold
	}

	if err := loaded.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[Settings] настройки загружены из %s: %d намерений, %d типов сущностей",
		path, len(loaded.ProcurementIntents), len(loaded.EntityPatterns))
	return &loaded, nil
}

// Validate проверяет корректность настроек
func (s *Settings) Validate() error {
	if len(s.ProcurementIntents) == 0 {
		return fmt.Errorf("settings: procurement_intents is required")
	}
	for id, name := range s.ProcurementIntents {
		if id == "" || name == "" {
			return fmt.Errorf("settings: intent with empty id or name")
		}
	}
	if s.LevenshteinThreshold < 0 || s.LevenshteinThreshold > 1 {
		return fmt.Errorf("settings: levenshtein_threshold must be in [0, 1], got %f", s.LevenshteinThreshold)
	}
	return nil
}
