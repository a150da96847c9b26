package classification

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"intentserver/extractors"
	"intentserver/matching"
	"intentserver/normalization"
)

// topPredictionsLimit размер топа вероятностей в детальном ответе.
const topPredictionsLimit = 3

// minExamplesForSplit ниже этого размера выборки отложенная оценка
// не проводится, вся выборка уходит в обучение.
const minExamplesForSplit = 4

// IntentClassifier связывает нормализацию, обучение и инференс.
// Обученный пайплайн подменяется атомарно, поэтому предсказания
// во время переобучения продолжают работать на старой модели.
type IntentClassifier struct {
	mu       sync.RWMutex
	pipeline *TrainedPipeline
	mapping  map[string]string
	history  []TrainingRecord

	// trainMu сериализует обучение, не блокируя предсказания
	trainMu sync.Mutex

	normalizer *normalization.Normalizer
	extractor  *extractors.EntityExtractor
	config     ModelConfig
}

// ClassifierOptions параметры сборки классификатора.
type ClassifierOptions struct {
	// IntentMapping идентификатор намерения -> человекочитаемое имя
	IntentMapping map[string]string
	// CorrectionDictionary словарь терминов для исправления опечаток
	CorrectionDictionary []string
	// EntityPatterns тип сущности -> список регулярных выражений
	EntityPatterns map[string][]string
	// EntityPriority порядок обхода типов сущностей
	EntityPriority []string
	// LevenshteinThreshold минимальное сходство для исправления опечатки
	LevenshteinThreshold float64
	Config               ModelConfig
}

// NewIntentClassifier собирает классификатор. Возвращает ErrConfiguration
// при пустом маппинге намерений или некорректной конфигурации модели.
func NewIntentClassifier(opts ClassifierOptions) (*IntentClassifier, error) {
	if len(opts.IntentMapping) == 0 {
		return nil, fmt.Errorf("%w: intent mapping is empty", ErrConfiguration)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	matcher := matching.NewLevenshteinMatcher(opts.LevenshteinThreshold)
	normalizer := normalization.NewNormalizer(matcher, opts.CorrectionDictionary, normalization.Config{
		MaxLength:   normalization.DefaultMaxLength,
		UseStemming: opts.Config.UseStemming,
	})

	priority := opts.EntityPriority
	if len(priority) == 0 {
		priority = extractors.DefaultPriority
	}

	mapping := make(map[string]string, len(opts.IntentMapping))
	for id, name := range opts.IntentMapping {
		mapping[id] = name
	}

	return &IntentClassifier{
		mapping:    mapping,
		normalizer: normalizer,
		extractor:  extractors.NewEntityExtractor(opts.EntityPatterns, priority),
		config:     opts.Config,
	}, nil
}

// Preprocess прогоняет текст через полный конвейер нормализации.
func (c *IntentClassifier) Preprocess(text string) (string, error) {
	return c.normalizer.Normalize(text)
}

// Train обучает новую модель на выборке и атомарно подменяет текущую.
// Старый пайплайн продолжает обслуживать предсказания до подмены.
func (c *IntentClassifier) Train(examples []TrainingExample) (TrainingRecord, error) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	var record TrainingRecord
	if len(examples) < 2 {
		return record, fmt.Errorf("%w: need at least 2 examples, got %d", ErrInsufficientData, len(examples))
	}

	c.mu.RLock()
	mapping := c.mapping
	c.mu.RUnlock()

	texts := make([]string, 0, len(examples))
	labels := make([]string, 0, len(examples))
	for i, ex := range examples {
		if _, ok := mapping[ex.Intent]; !ok {
			return record, fmt.Errorf("%w: %q in example %d", ErrUnknownIntent, ex.Intent, i)
		}
		processed, err := c.Preprocess(ex.Text)
		if err != nil {
			return record, fmt.Errorf("example %d: %w", i, err)
		}
		texts = append(texts, processed)
		labels = append(labels, ex.Intent)
	}

	classes := uniqueSorted(labels)
	if len(classes) < 2 {
		return record, fmt.Errorf("%w: need at least 2 distinct intents, got %d", ErrInsufficientData, len(classes))
	}
	classIndex := make(map[string]int, len(classes))
	for i, class := range classes {
		classIndex[class] = i
	}

	trainIdx, testIdx := stratifiedSplit(labels, c.config.TestSplitFraction, c.config.RandomSeed)

	trainTexts := make([]string, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainTexts[i] = texts[idx]
		trainY[i] = classIndex[labels[idx]]
	}

	vectorizer := NewTfidfVectorizer(c.config)
	if err := vectorizer.Fit(trainTexts); err != nil {
		return record, fmt.Errorf("vectorizer: %w", err)
	}
	trainX := vectorizer.TransformAll(trainTexts)

	model := NewLogisticRegression(c.config)
	model.Fit(trainX, trainY, len(classes))

	pipeline := &TrainedPipeline{
		Vectorizer: vectorizer,
		Model:      model,
		Classes:    classes,
		FittedAt:   time.Now(),
	}

	record = TrainingRecord{
		Timestamp:     pipeline.FittedAt,
		TrainingSize:  len(trainIdx),
		TestSize:      len(testIdx),
		TrainAccuracy: accuracy(pipeline, texts, labels, trainIdx),
		UniqueIntents: len(classes),
	}
	if len(testIdx) > 0 {
		acc := accuracy(pipeline, texts, labels, testIdx)
		record.TestAccuracy = &acc
	}

	c.mu.Lock()
	c.pipeline = pipeline
	c.history = append(c.history, record)
	c.mu.Unlock()

	log.Printf("[Classifier] обучение завершено: train=%d test=%d intents=%d accuracy=%.3f",
		record.TrainingSize, record.TestSize, record.UniqueIntents, record.TrainAccuracy)
	return record, nil
}

// Predict классифицирует запрос. При detailed результат дополняется
// полным распределением вероятностей и топом предсказаний.
func (c *IntentClassifier) Predict(text string, detailed bool) (*PredictionResult, error) {
	c.mu.RLock()
	pipeline := c.pipeline
	mapping := c.mapping
	c.mu.RUnlock()

	if pipeline == nil {
		return nil, ErrNotTrained
	}

	processed, err := c.Preprocess(text)
	if err != nil {
		return nil, err
	}

	intent, probs := pipeline.Predict(processed)
	best := classIndexOf(pipeline.Classes, intent)

	result := &PredictionResult{
		OriginalText:  text,
		ProcessedText: processed,
		Intent:        intent,
		IntentName:    mapping[intent],
		Confidence:    probs[best],
		Entities:      c.extractor.Extract(text, intent),
		Timestamp:     time.Now(),
	}

	if detailed {
		result.AllProbabilities = make(map[string]float64, len(probs))
		for i, class := range pipeline.Classes {
			result.AllProbabilities[class] = probs[i]
		}
		result.TopPredictions = topPredictions(pipeline.Classes, probs, mapping, topPredictionsLimit)
	}
	return result, nil
}

// IsTrained сообщает, готова ли модель к предсказаниям.
func (c *IntentClassifier) IsTrained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pipeline != nil
}

// Classes возвращает метки классов обученной модели.
func (c *IntentClassifier) Classes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pipeline == nil {
		return nil
	}
	return append([]string(nil), c.pipeline.Classes...)
}

// FeatureCount возвращает размер словаря обученной модели.
func (c *IntentClassifier) FeatureCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pipeline == nil {
		return 0
	}
	return c.pipeline.Vectorizer.FeatureCount()
}

// History возвращает копию истории обучений.
func (c *IntentClassifier) History() []TrainingRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]TrainingRecord(nil), c.history...)
}

// IntentMapping возвращает копию маппинга намерений.
func (c *IntentClassifier) IntentMapping() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mapping := make(map[string]string, len(c.mapping))
	for id, name := range c.mapping {
		mapping[id] = name
	}
	return mapping
}

// UpdateIntentMapping добавляет или переименовывает намерения.
// Удаления нет: модель могла быть обучена на существующих классах.
func (c *IntentClassifier) UpdateIntentMapping(updates map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make(map[string]string, len(c.mapping)+len(updates))
	for id, name := range c.mapping {
		merged[id] = name
	}
	for id, name := range updates {
		merged[id] = name
	}
	c.mapping = merged
}

// UpdateCorrectionDictionary добавляет термины в словарь исправлений.
func (c *IntentClassifier) UpdateCorrectionDictionary(terms []string) {
	c.normalizer.AddTerms(terms)
}

// DictionarySize возвращает размер словаря исправлений.
func (c *IntentClassifier) DictionarySize() int {
	return c.normalizer.DictionarySize()
}

// EntityTypes возвращает типы сущностей в порядке приоритета.
func (c *IntentClassifier) EntityTypes() []string {
	return c.extractor.Types()
}

// restore устанавливает пайплайн и историю из загруженного артефакта.
func (c *IntentClassifier) restore(pipeline *TrainedPipeline, history []TrainingRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipeline = pipeline
	c.history = history
}

// stratifiedSplit делит индексы выборки на обучающую и тестовую части,
// сохраняя пропорции классов. Классы, где на тест не набирается ни
// одного примера, целиком уходят в обучение. Seed влияет только на
// перемешивание внутри классов.
func stratifiedSplit(labels []string, frac float64, seed int64) (trainIdx, testIdx []int) {
	if frac <= 0 || len(labels) < minExamplesForSplit {
		trainIdx = make([]int, len(labels))
		for i := range labels {
			trainIdx[i] = i
		}
		return trainIdx, nil
	}

	byClass := make(map[string][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, class := range classes {
		idx := byClass[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(frac * float64(len(idx)))
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return trainIdx, testIdx
}

func accuracy(p *TrainedPipeline, texts, labels []string, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	correct := 0
	for _, i := range idx {
		predicted, _ := p.Predict(texts[i])
		if predicted == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(idx))
}

// topPredictions отбирает limit классов: по убыванию вероятности,
// при равенстве - по возрастанию идентификатора.
func topPredictions(classes []string, probs []float64, mapping map[string]string, limit int) []TopPrediction {
	order := make([]int, len(classes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if probs[order[a]] != probs[order[b]] {
			return probs[order[a]] > probs[order[b]]
		}
		return classes[order[a]] < classes[order[b]]
	})
	if limit > len(order) {
		limit = len(order)
	}
	top := make([]TopPrediction, limit)
	for i := 0; i < limit; i++ {
		c := order[i]
		top[i] = TopPrediction{
			Intent:      classes[c],
			IntentName:  mapping[classes[c]],
			Probability: probs[c],
		}
	}
	return top
}

func classIndexOf(classes []string, class string) int {
	for i, c := range classes {
		if c == class {
			return i
		}
	}
	return 0
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
