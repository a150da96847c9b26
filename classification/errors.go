package classification

import (
	"errors"

	"intentserver/normalization"
)

// Ошибки движка классификации. Конкретные места возникновения
// оборачивают их через fmt.Errorf с %w, проверка - через errors.Is.
var (
	// ErrConfiguration пустой или некорректный маппинг намерений / конфигурация модели
	ErrConfiguration = errors.New("configuration error")

	// ErrInsufficientData обучающая выборка слишком мала или полностью отфильтрована
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrUnknownIntent датасет ссылается на намерение, отсутствующее в маппинге
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrNotTrained попытка предсказания до успешного обучения или загрузки
	ErrNotTrained = errors.New("model is not trained")

	// ErrValidation входной текст пустой, слишком длинный или не прошел санитизацию
	ErrValidation = normalization.ErrValidation

	// ErrPersistence артефакт модели не читается или не записывается
	ErrPersistence = errors.New("persistence error")
)
