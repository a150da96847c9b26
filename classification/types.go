package classification

import "time"

// TrainingExample одна пара текст-намерение обучающей выборки.
type TrainingExample struct {
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

// TrainingRecord итог одного запуска обучения, хранится в истории модели.
type TrainingRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	TrainingSize  int       `json:"training_size"`
	TestSize      int       `json:"test_size"`
	TrainAccuracy float64   `json:"train_accuracy"`
	// TestAccuracy nil, если отложенная оценка не проводилась
	TestAccuracy  *float64 `json:"test_accuracy,omitempty"`
	UniqueIntents int      `json:"unique_intents"`
}

// TopPrediction одна строка топа вероятностей в детальном ответе.
type TopPrediction struct {
	Intent      string  `json:"intent"`
	IntentName  string  `json:"intent_name"`
	Probability float64 `json:"probability"`
}

// PredictionResult полный результат классификации одного запроса.
type PredictionResult struct {
	OriginalText  string            `json:"original_text"`
	ProcessedText string            `json:"processed_text"`
	Intent        string            `json:"intent"`
	IntentName    string            `json:"intent_name"`
	Confidence    float64           `json:"confidence"`
	Entities      map[string]string `json:"entities"`
	Timestamp     time.Time         `json:"timestamp"`

	// заполняются только при детальном запросе
	AllProbabilities map[string]float64 `json:"all_probabilities,omitempty"`
	TopPredictions   []TopPrediction    `json:"top_predictions,omitempty"`
}
