package classification

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
)

// maxBatchSize максимальный размер пакетного запроса предсказаний.
const maxBatchSize = 10

// ModelManager управляет жизненным циклом модели: первичная загрузка
// или обучение, переобучение, сохранение артефакта и обслуживание
// предсказаний. Переобучения сериализованы, предсказания идут
// параллельно и во время переобучения обслуживаются старой моделью.
type ModelManager struct {
	classifier *IntentClassifier
	modelPath  string

	// retrainMu сериализует Retrain вместе с сохранением артефакта
	retrainMu sync.Mutex
}

// ManagerOptions параметры сборки менеджера.
type ManagerOptions struct {
	ClassifierOptions
	// ModelPath путь к JSON-артефакту модели, пустой отключает персистентность
	ModelPath string
}

// BatchItem результат одного элемента пакетного предсказания.
// Ошибка одного элемента не прерывает обработку остальных.
type BatchItem struct {
	Index  int               `json:"index"`
	Result *PredictionResult `json:"result,omitempty"`
	Err    error             `json:"-"`
}

// ModelInfo снимок состояния модели для диагностики.
type ModelInfo struct {
	IsTrained                bool              `json:"is_trained"`
	ModelType                string            `json:"model_type"`
	Intents                  map[string]string `json:"intents"`
	Classes                  []string          `json:"classes,omitempty"`
	FeatureCount             int               `json:"feature_count"`
	CorrectionDictionarySize int               `json:"correction_dictionary_size"`
	EntityTypes              []string          `json:"entity_types"`
	ModelPath                string            `json:"model_path,omitempty"`
	TrainingHistory          []TrainingRecord  `json:"training_history,omitempty"`
}

// ManagerStats краткая статистика для проверок работоспособности.
type ManagerStats struct {
	IsTrained      bool            `json:"is_trained"`
	TrainingRuns   int             `json:"training_runs"`
	LastTraining   *TrainingRecord `json:"last_training,omitempty"`
	IntentCount    int             `json:"intent_count"`
	DictionarySize int             `json:"dictionary_size"`
}

// NewModelManager собирает менеджер поверх нового классификатора.
func NewModelManager(opts ManagerOptions) (*ModelManager, error) {
	classifier, err := NewIntentClassifier(opts.ClassifierOptions)
	if err != nil {
		return nil, err
	}
	return &ModelManager{
		classifier: classifier,
		modelPath:  opts.ModelPath,
	}, nil
}

// Initialize приводит модель в рабочее состояние: сначала пытается
// загрузить сохраненный артефакт, при неудаче обучает модель на
// переданной выборке и сохраняет результат. Ошибка сохранения
// логируется, но не мешает работе обученной модели.
func (m *ModelManager) Initialize(dataset []TrainingExample) error {
	if m.modelPath != "" {
		if _, err := os.Stat(m.modelPath); err == nil {
			if err := LoadModel(m.classifier, m.modelPath); err == nil {
				log.Printf("[ModelManager] модель загружена из %s", m.modelPath)
				return nil
			} else {
				log.Printf("[ModelManager] загрузка артефакта не удалась, переобучение: %v", err)
			}
		}
	}

	if len(dataset) == 0 {
		return fmt.Errorf("%w: нет ни артефакта, ни обучающей выборки", ErrInsufficientData)
	}

	if _, err := m.Retrain(dataset); err != nil {
		return err
	}
	return nil
}

// Predict классифицирует один запрос.
func (m *ModelManager) Predict(text string, detailed bool) (*PredictionResult, error) {
	return m.classifier.Predict(text, detailed)
}

// PredictBatch классифицирует до maxBatchSize запросов. Ошибки
// отдельных элементов возвращаются поэлементно в BatchItem.Err.
func (m *ModelManager) PredictBatch(texts []string, detailed bool) ([]BatchItem, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: пустой пакет", ErrValidation)
	}
	if len(texts) > maxBatchSize {
		return nil, fmt.Errorf("%w: размер пакета %d превышает максимум %d", ErrValidation, len(texts), maxBatchSize)
	}

	items := make([]BatchItem, len(texts))
	for i, text := range texts {
		result, err := m.classifier.Predict(text, detailed)
		items[i] = BatchItem{Index: i, Result: result, Err: err}
		// необученная модель - ошибка всего пакета, а не элемента
		if errors.Is(err, ErrNotTrained) {
			return nil, err
		}
	}
	return items, nil
}

// Retrain обучает модель на новой выборке и сохраняет артефакт.
// Текущая модель продолжает обслуживать предсказания до подмены.
func (m *ModelManager) Retrain(dataset []TrainingExample) (TrainingRecord, error) {
	m.retrainMu.Lock()
	defer m.retrainMu.Unlock()

	record, err := m.classifier.Train(dataset)
	if err != nil {
		return record, err
	}

	if m.modelPath != "" {
		if err := SaveModel(m.classifier, m.modelPath); err != nil {
			log.Printf("[ModelManager] сохранение артефакта не удалось: %v", err)
		} else {
			log.Printf("[ModelManager] артефакт сохранен в %s", m.modelPath)
		}
	}
	return record, nil
}

// IsTrained сообщает, готова ли модель к предсказаниям.
func (m *ModelManager) IsTrained() bool {
	return m.classifier.IsTrained()
}

// ListIntents возвращает маппинг идентификаторов намерений на имена.
func (m *ModelManager) ListIntents() map[string]string {
	return m.classifier.IntentMapping()
}

// UpdateIntents добавляет или переименовывает намерения.
func (m *ModelManager) UpdateIntents(updates map[string]string) {
	m.classifier.UpdateIntentMapping(updates)
}

// UpdateCorrectionDictionary добавляет термины в словарь исправлений.
func (m *ModelManager) UpdateCorrectionDictionary(terms []string) {
	m.classifier.UpdateCorrectionDictionary(terms)
}

// Info возвращает снимок состояния модели.
func (m *ModelManager) Info() ModelInfo {
	return ModelInfo{
		IsTrained:                m.classifier.IsTrained(),
		ModelType:                "tfidf_logistic_regression",
		Intents:                  m.classifier.IntentMapping(),
		Classes:                  m.classifier.Classes(),
		FeatureCount:             m.classifier.FeatureCount(),
		CorrectionDictionarySize: m.classifier.DictionarySize(),
		EntityTypes:              m.classifier.EntityTypes(),
		ModelPath:                m.modelPath,
		TrainingHistory:          m.classifier.History(),
	}
}

// Stats возвращает краткую статистику модели.
func (m *ModelManager) Stats() ManagerStats {
	history := m.classifier.History()
	stats := ManagerStats{
		IsTrained:      m.classifier.IsTrained(),
		TrainingRuns:   len(history),
		IntentCount:    len(m.classifier.IntentMapping()),
		DictionarySize: m.classifier.DictionarySize(),
	}
	if len(history) > 0 {
		last := history[len(history)-1]
		stats.LastTraining = &last
	}
	return stats
}
