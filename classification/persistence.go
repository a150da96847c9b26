package classification

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// artifactFormatVersion версия формата артефакта на диске.
// Несовпадение версии при загрузке - ErrPersistence, модель
// в этом случае переобучается с нуля.
const artifactFormatVersion = 1

// modelArtifact сериализуемое состояние обученной модели.
type modelArtifact struct {
	FormatVersion        int                 `json:"format_version"`
	SavedAt              time.Time           `json:"saved_at"`
	IntentMapping        map[string]string   `json:"intent_mapping"`
	CorrectionDictionary []string            `json:"correction_dictionary"`
	TrainingHistory      []TrainingRecord    `json:"training_history"`
	Classes              []string            `json:"classes"`
	Vectorizer           *TfidfVectorizer    `json:"vectorizer"`
	Classifier           *LogisticRegression `json:"classifier"`
	FittedAt             time.Time           `json:"fitted_at"`
}

// SaveModel записывает обученную модель в JSON-файл. Запись идет
// через временный файл с последующим переименованием, чтобы сбой
// не оставил артефакт наполовину записанным.
func SaveModel(c *IntentClassifier, path string) error {
	c.mu.RLock()
	pipeline := c.pipeline
	artifact := modelArtifact{
		FormatVersion:   artifactFormatVersion,
		SavedAt:         time.Now(),
		IntentMapping:   make(map[string]string, len(c.mapping)),
		TrainingHistory: append([]TrainingRecord(nil), c.history...),
	}
	for id, name := range c.mapping {
		artifact.IntentMapping[id] = name
	}
	c.mu.RUnlock()

	if pipeline == nil {
		return fmt.Errorf("%w: %v", ErrPersistence, ErrNotTrained)
	}
	artifact.Classes = pipeline.Classes
	artifact.Vectorizer = pipeline.Vectorizer
	artifact.Classifier = pipeline.Model
	artifact.FittedAt = pipeline.FittedAt
	artifact.CorrectionDictionary = c.normalizer.Dictionary()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: создание каталога: %v", ErrPersistence, err)
		}
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: сериализация: %v", ErrPersistence, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: запись: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: переименование: %v", ErrPersistence, err)
	}
	return nil
}

// LoadModel восстанавливает состояние классификатора из артефакта.
// Маппинг намерений и словарь исправлений из файла дополняют
// сконфигурированные, чтобы не потерять классы обученной модели.
func LoadModel(c *IntentClassifier, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: чтение: %v", ErrPersistence, err)
	}

	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return fmt.Errorf("%w: разбор: %v", ErrPersistence, err)
	}
	if artifact.FormatVersion != artifactFormatVersion {
		return fmt.Errorf("%w: версия формата %d, ожидается %d",
			ErrPersistence, artifact.FormatVersion, artifactFormatVersion)
	}
	if artifact.Vectorizer == nil || artifact.Classifier == nil || len(artifact.Classes) == 0 {
		return fmt.Errorf("%w: артефакт неполон", ErrPersistence)
	}
	if len(artifact.Classifier.Weights) != len(artifact.Classes) {
		return fmt.Errorf("%w: число классов не совпадает с весами", ErrPersistence)
	}

	pipeline := &TrainedPipeline{
		Vectorizer: artifact.Vectorizer,
		Model:      artifact.Classifier,
		Classes:    artifact.Classes,
		FittedAt:   artifact.FittedAt,
	}

	c.UpdateIntentMapping(artifact.IntentMapping)
	c.normalizer.AddTerms(artifact.CorrectionDictionary)
	c.restore(pipeline, artifact.TrainingHistory)
	return nil
}
