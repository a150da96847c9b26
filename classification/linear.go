package classification

import "math"

// LogisticRegression мультиномиальная логистическая регрессия с softmax.
// Обучается полнопакетным градиентным спуском с нулевой инициализацией,
// поэтому результат полностью детерминирован для фиксированного корпуса.
// Поля экспортированы для сериализации артефакта модели.
type LogisticRegression struct {
	Weights    [][]float64 `json:"weights"` // [класс][признак]
	Intercepts []float64   `json:"intercepts"`

	C            float64 `json:"c"`
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
	Balanced     bool    `json:"balanced"`
}

// NewLogisticRegression создает необученную модель из конфигурации.
func NewLogisticRegression(cfg ModelConfig) *LogisticRegression {
	return &LogisticRegression{
		C:            cfg.RegularizationStrength,
		MaxIter:      cfg.MaxIterations,
		LearningRate: cfg.LearningRate,
		Balanced:     cfg.ClassWeighting == "balanced",
	}
}

// Fit обучает модель на матрице признаков X и метках классов y из
// диапазона [0, numClasses). При балансировке вес примера обратно
// пропорционален размеру его класса: n / (k * count[class]).
func (m *LogisticRegression) Fit(x [][]float64, y []int, numClasses int) {
	n := len(x)
	if n == 0 || numClasses == 0 {
		return
	}
	dim := len(x[0])

	sampleWeight := make([]float64, n)
	if m.Balanced {
		counts := make([]float64, numClasses)
		for _, label := range y {
			counts[label]++
		}
		for i, label := range y {
			sampleWeight[i] = float64(n) / (float64(numClasses) * counts[label])
		}
	} else {
		for i := range sampleWeight {
			sampleWeight[i] = 1
		}
	}
	var weightSum float64
	for _, w := range sampleWeight {
		weightSum += w
	}

	m.Weights = make([][]float64, numClasses)
	for c := range m.Weights {
		m.Weights[c] = make([]float64, dim)
	}
	m.Intercepts = make([]float64, numClasses)

	gradW := make([][]float64, numClasses)
	for c := range gradW {
		gradW[c] = make([]float64, dim)
	}
	gradB := make([]float64, numClasses)
	lambda := 1 / (m.C * weightSum)

	for iter := 0; iter < m.MaxIter; iter++ {
		for c := range gradW {
			for d := range gradW[c] {
				gradW[c][d] = 0
			}
			gradB[c] = 0
		}
		for i, xi := range x {
			probs := m.PredictProba(xi)
			for c := range probs {
				delta := probs[c]
				if c == y[i] {
					delta -= 1
				}
				delta *= sampleWeight[i]
				for d, xv := range xi {
					if xv != 0 {
						gradW[c][d] += delta * xv
					}
				}
				gradB[c] += delta
			}
		}
		for c := range m.Weights {
			for d := range m.Weights[c] {
				m.Weights[c][d] -= m.LearningRate * (gradW[c][d]/weightSum + lambda*m.Weights[c][d])
			}
			m.Intercepts[c] -= m.LearningRate * gradB[c] / weightSum
		}
	}
}

// PredictProba возвращает softmax-вероятности классов для вектора признаков.
func (m *LogisticRegression) PredictProba(x []float64) []float64 {
	scores := make([]float64, len(m.Weights))
	for c, w := range m.Weights {
		s := m.Intercepts[c]
		for d, xv := range x {
			if xv != 0 {
				s += w[d] * xv
			}
		}
		scores[c] = s
	}
	// вычитание максимума для численной устойчивости
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for c, s := range scores {
		scores[c] = math.Exp(s - maxScore)
		sum += scores[c]
	}
	for c := range scores {
		scores[c] /= sum
	}
	return scores
}

// Predict возвращает индекс самого вероятного класса. При равных
// вероятностях выигрывает класс с меньшим индексом.
func (m *LogisticRegression) Predict(x []float64) int {
	probs := m.PredictProba(x)
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best
}
