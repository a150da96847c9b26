package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"intentserver/classification"
	"intentserver/database"
	apperrors "intentserver/server/errors"
	"intentserver/server/middleware"
)

// historyWriteTimeout запись истории не должна задерживать ответ надолго
const historyWriteTimeout = 5 * time.Second

type predictRequest struct {
	Text     string `json:"text" binding:"required"`
	Detailed bool   `json:"detailed"`
}

type predictBatchRequest struct {
	Texts    []string `json:"texts" binding:"required"`
	Detailed bool     `json:"detailed"`
}

type retrainRequest struct {
	Examples [][]string `json:"examples" binding:"required"`
}

// handleError пишет ошибку клиенту, сопоставив ее с HTTP статусом
func handleError(c *gin.Context, err error) {
	appErr := apperrors.FromDomainError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("[Server] request_id=%s: %v", middleware.GetRequestID(c), appErr)
	}
	c.JSON(appErr.StatusCode(), gin.H{
		"error":      appErr.UserMessage(),
		"request_id": middleware.GetRequestID(c),
	})
}

// handlePredict классифицирует один запрос
func (s *Server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewValidationError("Поле text обязательно", err))
		return
	}

	result, err := s.manager.Predict(req.Text, req.Detailed)
	if err != nil {
		handleError(c, err)
		return
	}

	s.recordHistory(middleware.GetRequestID(c), result)

	c.JSON(http.StatusOK, gin.H{
		"prediction": result,
		"action":     RouteIntent(result.Intent, result.Entities),
	})
}

// handlePredictBatch классифицирует пакет запросов, ошибки поэлементно
func (s *Server) handlePredictBatch(c *gin.Context) {
	var req predictBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewValidationError("Поле texts обязательно", err))
		return
	}

	items, err := s.manager.PredictBatch(req.Texts, req.Detailed)
	if err != nil {
		handleError(c, err)
		return
	}

	type batchItemResponse struct {
		Index      int                              `json:"index"`
		Prediction *classification.PredictionResult `json:"prediction,omitempty"`
		Error      string                           `json:"error,omitempty"`
	}

	responses := make([]batchItemResponse, len(items))
	for i, item := range items {
		responses[i] = batchItemResponse{Index: item.Index}
		if item.Err != nil {
			responses[i].Error = apperrors.FromDomainError(item.Err).UserMessage()
			continue
		}
		responses[i].Prediction = item.Result
		s.recordHistory(middleware.GetRequestID(c), item.Result)
	}

	c.JSON(http.StatusOK, gin.H{"results": responses})
}

// handleRetrain переобучает модель на переданной выборке
func (s *Server) handleRetrain(c *gin.Context) {
	var req retrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewValidationError("Поле examples обязательно", err))
		return
	}

	examples := make([]classification.TrainingExample, 0, len(req.Examples))
	for i, pair := range req.Examples {
		if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
			handleError(c, apperrors.NewValidationError(
				"Каждый пример должен быть парой [текст, намерение], строка "+strconv.Itoa(i), nil))
			return
		}
		examples = append(examples, classification.TrainingExample{Text: pair[0], Intent: pair[1]})
	}

	record, err := s.manager.Retrain(examples)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"training": record})
}

// handleModelInfo возвращает состояние модели
func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Info())
}

// handleIntents возвращает маппинг поддерживаемых намерений
func (s *Server) handleIntents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"intents": s.manager.ListIntents()})
}

// handleHealth проверка работоспособности сервиса
func (s *Server) handleHealth(c *gin.Context) {
	stats := s.manager.Stats()
	status := http.StatusOK
	state := "ok"
	if !stats.IsTrained {
		status = http.StatusServiceUnavailable
		state = "model_not_trained"
	}
	c.JSON(status, gin.H{
		"status": state,
		"stats":  stats,
	})
}

// handleHistory возвращает записи истории с фильтрами по запросу:
// ?limit=, ?intent=, ?search=, ?max_confidence=
func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		handleError(c, apperrors.NewServiceUnavailableError("История предсказаний отключена", nil))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	ctx := c.Request.Context()

	var (
		recs []database.HistoryRecord
		err  error
	)
	switch {
	case c.Query("intent") != "":
		recs, err = s.history.PredictionsByIntent(ctx, c.Query("intent"), limit)
	case c.Query("search") != "":
		recs, err = s.history.SearchPredictions(ctx, c.Query("search"), limit)
	case c.Query("max_confidence") != "":
		threshold, parseErr := strconv.ParseFloat(c.Query("max_confidence"), 64)
		if parseErr != nil {
			handleError(c, apperrors.NewValidationError("max_confidence должен быть числом", parseErr))
			return
		}
		recs, err = s.history.LowConfidencePredictions(ctx, threshold, limit)
	default:
		recs, err = s.history.RecentPredictions(ctx, limit)
	}
	if err != nil {
		handleError(c, apperrors.NewInternalError("чтение истории", err))
		return
	}

	if recs == nil {
		recs = []database.HistoryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"history": recs, "count": len(recs)})
}

// handleHistoryStats возвращает агрегированную статистику истории
func (s *Server) handleHistoryStats(c *gin.Context) {
	if s.history == nil {
		handleError(c, apperrors.NewServiceUnavailableError("История предсказаний отключена", nil))
		return
	}

	ctx := c.Request.Context()
	stats, err := s.history.Stats(ctx)
	if err != nil {
		handleError(c, apperrors.NewInternalError("статистика истории", err))
		return
	}
	top, err := s.history.TopIntents(ctx, 10)
	if err != nil {
		handleError(c, apperrors.NewInternalError("топ намерений", err))
		return
	}
	if top == nil {
		top = []database.IntentCount{}
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":       stats,
		"top_intents": top,
	})
}

// recordHistory пишет предсказание в историю, не блокируя ответ.
// Ошибка записи логируется и не влияет на результат запроса.
func (s *Server) recordHistory(requestID string, result *classification.PredictionResult) {
	if s.history == nil || result == nil {
		return
	}

	rec := database.HistoryRecord{
		RequestID:     requestID,
		OriginalText:  result.OriginalText,
		ProcessedText: result.ProcessedText,
		Intent:        result.Intent,
		IntentName:    result.IntentName,
		Confidence:    result.Confidence,
		Entities:      result.Entities,
		CreatedAt:     result.Timestamp,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		defer cancel()
		if _, err := s.history.InsertPrediction(ctx, rec); err != nil {
			log.Printf("[Server] запись истории не удалась: %v", err)
		}
	}()
}
