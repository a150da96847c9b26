package classification

import (
	"math"
	"sort"
	"strings"
)

// TfidfVectorizer строит TF-IDF представление текста по словесным n-граммам.
// Словарь упорядочен лексикографически, поэтому при одинаковом корпусе
// обучение дает идентичные матрицы признаков. Поля экспортированы
// для сериализации артефакта модели.
type TfidfVectorizer struct {
	MaxFeatures int     `json:"max_features"`
	NgramMin    int     `json:"ngram_min"`
	NgramMax    int     `json:"ngram_max"`
	MinDF       int     `json:"min_df"`
	MaxDF       float64 `json:"max_df"`

	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// NewTfidfVectorizer создает ненастроенный векторизатор из конфигурации.
func NewTfidfVectorizer(cfg ModelConfig) *TfidfVectorizer {
	return &TfidfVectorizer{
		MaxFeatures: cfg.VectorizerMaxFeatures,
		NgramMin:    cfg.NgramMin,
		NgramMax:    cfg.NgramMax,
		MinDF:       cfg.MinDocumentFrequency,
		MaxDF:       cfg.MaxDocumentFrequency,
	}
}

// analyze разбивает уже нормализованный текст на словесные n-граммы.
func (v *TfidfVectorizer) analyze(text string) []string {
	words := strings.Fields(text)
	var terms []string
	for n := v.NgramMin; n <= v.NgramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}

// Fit строит словарь и IDF по корпусу документов. Термины, встречающиеся
// реже MinDF документов или чаще MaxDF доли документов, отбрасываются.
// При превышении MaxFeatures остаются самые частотные термины,
// при равной частоте - лексикографически меньшие.
func (v *TfidfVectorizer) Fit(docs []string) error {
	nDocs := len(docs)
	if nDocs == 0 {
		return ErrInsufficientData
	}

	docFreq := make(map[string]int)
	totalFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range v.analyze(doc) {
			totalFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	maxCount := int(v.MaxDF * float64(nDocs))
	var kept []string
	for term, df := range docFreq {
		if df < v.MinDF {
			continue
		}
		if v.MaxDF < 1 && df > maxCount {
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) == 0 {
		return ErrInsufficientData
	}

	if v.MaxFeatures > 0 && len(kept) > v.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if totalFreq[kept[i]] != totalFreq[kept[j]] {
				return totalFreq[kept[i]] > totalFreq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.MaxFeatures]
	}
	sort.Strings(kept)

	v.Vocabulary = make(map[string]int, len(kept))
	v.IDF = make([]float64, len(kept))
	for i, term := range kept {
		v.Vocabulary[term] = i
		// сглаженный IDF, не обнуляет вездесущие термины
		v.IDF[i] = math.Log(float64(1+nDocs)/float64(1+docFreq[term])) + 1
	}
	return nil
}

// Transform переводит документ в плотный L2-нормированный вектор TF-IDF.
// Термины вне словаря игнорируются.
func (v *TfidfVectorizer) Transform(doc string) []float64 {
	vec := make([]float64, len(v.IDF))
	for _, term := range v.analyze(doc) {
		if idx, ok := v.Vocabulary[term]; ok {
			vec[idx] += v.IDF[idx]
		}
	}
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// TransformAll применяет Transform к каждому документу корпуса.
func (v *TfidfVectorizer) TransformAll(docs []string) [][]float64 {
	rows := make([][]float64, len(docs))
	for i, doc := range docs {
		rows[i] = v.Transform(doc)
	}
	return rows
}

// FeatureCount возвращает размер построенного словаря.
func (v *TfidfVectorizer) FeatureCount() int {
	return len(v.IDF)
}
