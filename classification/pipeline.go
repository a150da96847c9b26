package classification

import "time"

// TrainedPipeline неизменяемая пара векторизатор + классификатор.
// После обучения пайплайн только читается, поэтому его можно
// безопасно разделять между горутинами без блокировок.
type TrainedPipeline struct {
	Vectorizer *TfidfVectorizer
	Model      *LogisticRegression
	// Classes метки классов в лексикографическом порядке,
	// индекс совпадает с индексом класса в модели
	Classes  []string
	FittedAt time.Time
}

// PredictProba возвращает вероятности по классам для нормализованного текста.
func (p *TrainedPipeline) PredictProba(processed string) []float64 {
	return p.Model.PredictProba(p.Vectorizer.Transform(processed))
}

// Predict возвращает метку лучшего класса и полный вектор вероятностей.
func (p *TrainedPipeline) Predict(processed string) (string, []float64) {
	probs := p.PredictProba(processed)
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return p.Classes[best], probs
}
