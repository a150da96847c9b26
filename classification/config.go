package classification

import "fmt"

// ModelConfig параметры векторизатора и линейного классификатора.
// Значения по умолчанию подобраны под короткие закупочные запросы.
type ModelConfig struct {
	// VectorizerMaxFeatures максимальный размер словаря TF-IDF
	VectorizerMaxFeatures int `json:"vectorizer_max_features"`
	// NgramMin и NgramMax диапазон длин словесных n-грамм включительно
	NgramMin int `json:"ngram_min"`
	NgramMax int `json:"ngram_max"`
	// MinDocumentFrequency минимальное число документов с термином
	MinDocumentFrequency int `json:"min_document_frequency"`
	// MaxDocumentFrequency максимальная доля документов с термином
	MaxDocumentFrequency float64 `json:"max_document_frequency"`
	// RegularizationStrength параметр C: больше значение - слабее L2
	RegularizationStrength float64 `json:"classifier_regularization_strength"`
	// ClassWeighting "balanced" или "none"
	ClassWeighting string `json:"classifier_class_weighting"`
	// TestSplitFraction доля тестовой выборки, 0 отключает отложенную оценку
	TestSplitFraction float64 `json:"test_split_fraction"`
	// RandomSeed используется только при перемешивании выборки для разбиения
	RandomSeed int64 `json:"random_seed"`
	// MaxIterations число шагов градиентного спуска
	MaxIterations int `json:"max_iterations"`
	// LearningRate шаг градиентного спуска
	LearningRate float64 `json:"learning_rate"`
	// UseStemming включает стемминг Portera после нормализации
	UseStemming bool `json:"use_stemming"`
}

// DefaultModelConfig возвращает конфигурацию по умолчанию.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		VectorizerMaxFeatures:  2000,
		NgramMin:               1,
		NgramMax:               3,
		MinDocumentFrequency:   1,
		MaxDocumentFrequency:   0.8,
		RegularizationStrength: 10.0,
		ClassWeighting:         "balanced",
		TestSplitFraction:      0.2,
		RandomSeed:             42,
		MaxIterations:          2000,
		LearningRate:           0.5,
		UseStemming:            false,
	}
}

// MergeModelConfig накладывает значения из произвольной карты настроек
// поверх конфигурации по умолчанию. Неизвестные ключи игнорируются,
// отсутствующие остаются со значениями по умолчанию.
func MergeModelConfig(raw map[string]any) ModelConfig {
	cfg := DefaultModelConfig()
	if raw == nil {
		return cfg
	}
	if v, ok := asInt(raw["vectorizer_max_features"]); ok {
		cfg.VectorizerMaxFeatures = v
	}
	if ngram, ok := raw["ngram_range"].([]any); ok && len(ngram) == 2 {
		if lo, okLo := asInt(ngram[0]); okLo {
			cfg.NgramMin = lo
		}
		if hi, okHi := asInt(ngram[1]); okHi {
			cfg.NgramMax = hi
		}
	}
	if v, ok := asInt(raw["min_document_frequency"]); ok {
		cfg.MinDocumentFrequency = v
	}
	if v, ok := asFloat(raw["max_document_frequency"]); ok {
		cfg.MaxDocumentFrequency = v
	}
	if v, ok := asFloat(raw["classifier_regularization_strength"]); ok {
		cfg.RegularizationStrength = v
	}
	if v, ok := raw["classifier_class_weighting"].(string); ok {
		cfg.ClassWeighting = v
	}
	if v, ok := asFloat(raw["test_split_fraction"]); ok {
		cfg.TestSplitFraction = v
	}
	if v, ok := asInt(raw["random_seed"]); ok {
		cfg.RandomSeed = int64(v)
	}
	if v, ok := asInt(raw["max_iterations"]); ok {
		cfg.MaxIterations = v
	}
	if v, ok := asFloat(raw["learning_rate"]); ok {
		cfg.LearningRate = v
	}
	if v, ok := raw["use_stemming"].(bool); ok {
		cfg.UseStemming = v
	}
	return cfg
}

// Validate проверяет согласованность параметров.
func (c ModelConfig) Validate() error {
	if c.VectorizerMaxFeatures < 1 {
		return fmt.Errorf("%w: vectorizer_max_features must be positive", ErrConfiguration)
	}
	if c.NgramMin < 1 || c.NgramMax < c.NgramMin {
		return fmt.Errorf("%w: invalid ngram range [%d, %d]", ErrConfiguration, c.NgramMin, c.NgramMax)
	}
	if c.MinDocumentFrequency < 1 {
		return fmt.Errorf("%w: min_document_frequency must be positive", ErrConfiguration)
	}
	if c.MaxDocumentFrequency <= 0 || c.MaxDocumentFrequency > 1 {
		return fmt.Errorf("%w: max_document_frequency must be in (0, 1]", ErrConfiguration)
	}
	if c.RegularizationStrength <= 0 {
		return fmt.Errorf("%w: regularization strength must be positive", ErrConfiguration)
	}
	if c.TestSplitFraction < 0 || c.TestSplitFraction >= 1 {
		return fmt.Errorf("%w: test_split_fraction must be in [0, 1)", ErrConfiguration)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be positive", ErrConfiguration)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be positive", ErrConfiguration)
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
