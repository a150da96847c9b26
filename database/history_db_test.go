package database

import (
	"context"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *HistoryDB {
	t.Helper()
	db, err := NewHistoryDB(":memory:")
	if err != nil {
		t.Fatalf("NewHistoryDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecord(text, intent string, confidence float64) HistoryRecord {
	return HistoryRecord{
		RequestID:     "req-1",
		OriginalText:  text,
		ProcessedText: text,
		Intent:        intent,
		IntentName:    intent,
		Confidence:    confidence,
	}
}

func TestInsertAndRecentPredictions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.InsertPrediction(ctx, sampleRecord("создай кс", "create_ks", 0.91))
	if err != nil {
		t.Fatalf("InsertPrediction() error = %v", err)
	}
	if id == 0 {
		t.Error("LastInsertId = 0")
	}

	recs, err := db.RecentPredictions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPredictions() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].OriginalText != "создай кс" || recs[0].Intent != "create_ks" {
		t.Errorf("запись не совпадает: %+v", recs[0])
	}
	if recs[0].Confidence != 0.91 {
		t.Errorf("Confidence = %f, want 0.91", recs[0].Confidence)
	}
	if recs[0].CreatedAt.IsZero() {
		t.Error("CreatedAt не заполнен")
	}
}

func TestRecentPredictionsOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"первый", "второй", "третий"} {
		rec := sampleRecord(text, "create_ks", 0.9)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := db.InsertPrediction(ctx, rec); err != nil {
			t.Fatalf("InsertPrediction() error = %v", err)
		}
	}

	recs, err := db.RecentPredictions(ctx, 2)
	if err != nil {
		t.Fatalf("RecentPredictions() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].OriginalText != "третий" || recs[1].OriginalText != "второй" {
		t.Errorf("порядок: %q, %q, want третий, второй", recs[0].OriginalText, recs[1].OriginalText)
	}
}

func TestInsertPredictionsBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	batch := []HistoryRecord{
		sampleRecord("создай кс", "create_ks", 0.9),
		sampleRecord("найди документы", "search_docs", 0.8),
		sampleRecord("создай контракт", "create_contract", 0.7),
	}
	if err := db.InsertPredictions(ctx, batch); err != nil {
		t.Fatalf("InsertPredictions() error = %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}

	if err := db.InsertPredictions(ctx, nil); err != nil {
		t.Errorf("InsertPredictions(nil) error = %v", err)
	}
}

func TestPredictionsByIntent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, rec := range []HistoryRecord{
		sampleRecord("создай кс", "create_ks", 0.9),
		sampleRecord("найди документы", "search_docs", 0.8),
		sampleRecord("сделай кс", "create_ks", 0.85),
	} {
		if _, err := db.InsertPrediction(ctx, rec); err != nil {
			t.Fatalf("InsertPrediction() error = %v", err)
		}
	}

	recs, err := db.PredictionsByIntent(ctx, "create_ks", 10)
	if err != nil {
		t.Fatalf("PredictionsByIntent() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.Intent != "create_ks" {
			t.Errorf("Intent = %q, want create_ks", rec.Intent)
		}
	}
}

func TestLowConfidencePredictions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, rec := range []HistoryRecord{
		sampleRecord("уверенный", "create_ks", 0.95),
		sampleRecord("сомнительный", "create_ks", 0.4),
		sampleRecord("слабый", "search_docs", 0.3),
	} {
		if _, err := db.InsertPrediction(ctx, rec); err != nil {
			t.Fatalf("InsertPrediction() error = %v", err)
		}
	}

	recs, err := db.LowConfidencePredictions(ctx, 0.5, 10)
	if err != nil {
		t.Fatalf("LowConfidencePredictions() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	// наименее уверенные первыми
	if recs[0].OriginalText != "слабый" || recs[1].OriginalText != "сомнительный" {
		t.Errorf("порядок: %q, %q", recs[0].OriginalText, recs[1].OriginalText)
	}
}

func TestSearchPredictions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, rec := range []HistoryRecord{
		sampleRecord("создай кс на канцтовары", "create_ks", 0.9),
		sampleRecord("найди документы", "search_docs", 0.8),
		sampleRecord("100% гарантия", "help", 0.7),
	} {
		if _, err := db.InsertPrediction(ctx, rec); err != nil {
			t.Fatalf("InsertPrediction() error = %v", err)
		}
	}

	recs, err := db.SearchPredictions(ctx, "канцтовары", 10)
	if err != nil {
		t.Fatalf("SearchPredictions() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Intent != "create_ks" {
		t.Errorf("поиск по подстроке вернул %d записей", len(recs))
	}

	// спецсимволы LIKE экранируются, а не трактуются как шаблон
	recs, err = db.SearchPredictions(ctx, "100%", 10)
	if err != nil {
		t.Fatalf("SearchPredictions() error = %v", err)
	}
	if len(recs) != 1 || recs[0].OriginalText != "100% гарантия" {
		t.Errorf("поиск со спецсимволом вернул %d записей", len(recs))
	}

	recs, err = db.SearchPredictions(ctx, "10_", 10)
	if err != nil {
		t.Fatalf("SearchPredictions() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("подчеркивание сработало как шаблон: %d записей", len(recs))
	}
}

func TestEntitiesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := sampleRecord("кс на 500 тыс", "create_ks", 0.92)
	rec.Entities = map[string]string{"amount": "500000", "category": "канцтовары"}
	if _, err := db.InsertPrediction(ctx, rec); err != nil {
		t.Fatalf("InsertPrediction() error = %v", err)
	}

	recs, err := db.RecentPredictions(ctx, 1)
	if err != nil {
		t.Fatalf("RecentPredictions() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Entities["amount"] != "500000" || recs[0].Entities["category"] != "канцтовары" {
		t.Errorf("Entities = %v", recs[0].Entities)
	}
}

func TestStatsEmptyHistory(t *testing.T) {
	db := newTestDB(t)

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 0 || stats.AvgConfidence != 0 {
		t.Errorf("Stats на пустой истории: %+v", stats)
	}
	if !stats.FirstAt.IsZero() || !stats.LastAt.IsZero() {
		t.Errorf("временные метки на пустой истории: %+v", stats)
	}
}

func TestTopIntents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	intents := []string{"create_ks", "create_ks", "create_ks", "search_docs", "search_docs", "help"}
	for _, intent := range intents {
		if _, err := db.InsertPrediction(ctx, sampleRecord("текст", intent, 0.8)); err != nil {
			t.Fatalf("InsertPrediction() error = %v", err)
		}
	}

	top, err := db.TopIntents(ctx, 2)
	if err != nil {
		t.Fatalf("TopIntents() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].Intent != "create_ks" || top[0].Count != 3 {
		t.Errorf("top[0] = %+v, want create_ks/3", top[0])
	}
	if top[1].Intent != "search_docs" || top[1].Count != 2 {
		t.Errorf("top[1] = %+v, want search_docs/2", top[1])
	}
}
