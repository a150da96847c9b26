package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryDB хранилище истории предсказаний в SQLite
type HistoryDB struct {
	conn *sql.DB
}

// HistoryRecord одна строка истории предсказаний
type HistoryRecord struct {
	ID            int64             `json:"id"`
	RequestID     string            `json:"request_id"`
	OriginalText  string            `json:"original_text"`
	ProcessedText string            `json:"processed_text"`
	Intent        string            `json:"intent"`
	IntentName    string            `json:"intent_name"`
	Confidence    float64           `json:"confidence"`
	Entities      map[string]string `json:"entities,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// HistoryStats агрегированная статистика по истории предсказаний
type HistoryStats struct {
	Total         int64     `json:"total"`
	AvgConfidence float64   `json:"avg_confidence"`
	FirstAt       time.Time `json:"first_at,omitempty"`
	LastAt        time.Time `json:"last_at,omitempty"`
}

// IntentCount частота одного намерения в истории
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int64  `json:"count"`
}

// NewHistoryDB открывает базу истории и применяет миграции.
// Для in-memory SQLite пул ограничивается одним соединением, иначе
// каждое новое соединение получит пустую БД без таблиц.
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("открытие базы истории: %w", err)
	}

	if isInMemoryPath(dbPath) {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(time.Hour)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("проверка соединения с базой истории: %w", err)
	}

	db := &HistoryDB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// isInMemoryPath определяет, что путь относится к in-memory SQLite
func isInMemoryPath(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}
	return strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory")
}

func (db *HistoryDB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS prediction_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL DEFAULT '',
			original_text TEXT NOT NULL,
			processed_text TEXT NOT NULL DEFAULT '',
			intent TEXT NOT NULL,
			intent_name TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL,
			entities TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_history_intent ON prediction_history(intent)`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_history_created_at ON prediction_history(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_history_confidence ON prediction_history(confidence)`,
	}

	for _, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			return fmt.Errorf("миграция базы истории: %w", err)
		}
	}
	log.Println("[HistoryDB] миграции применены")
	return nil
}

// Close закрывает соединение с базой
func (db *HistoryDB) Close() error {
	return db.conn.Close()
}

const insertHistorySQL = `INSERT INTO prediction_history
	(request_id, original_text, processed_text, intent, intent_name, confidence, entities, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// InsertPrediction сохраняет одну запись и возвращает ее идентификатор
func (db *HistoryDB) InsertPrediction(ctx context.Context, rec HistoryRecord) (int64, error) {
	entities, err := marshalEntities(rec.Entities)
	if err != nil {
		return 0, err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := db.conn.ExecContext(ctx, insertHistorySQL,
		rec.RequestID, rec.OriginalText, rec.ProcessedText,
		rec.Intent, rec.IntentName, rec.Confidence, entities, createdAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("запись истории предсказаний: %w", err)
	}
	return result.LastInsertId()
}

// InsertPredictions сохраняет пакет записей в одной транзакции.
// Ошибка на любой записи откатывает весь пакет.
func (db *HistoryDB) InsertPredictions(ctx context.Context, recs []HistoryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции истории: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertHistorySQL)
	if err != nil {
		return fmt.Errorf("подготовка вставки истории: %w", err)
	}
	defer stmt.Close()

	for i, rec := range recs {
		entities, err := marshalEntities(rec.Entities)
		if err != nil {
			return fmt.Errorf("запись %d: %w", i, err)
		}
		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			rec.RequestID, rec.OriginalText, rec.ProcessedText,
			rec.Intent, rec.IntentName, rec.Confidence, entities, createdAt.UTC()); err != nil {
			return fmt.Errorf("запись %d: %w", i, err)
		}
	}
	return tx.Commit()
}

const selectHistorySQL = `SELECT id, request_id, original_text, processed_text,
	intent, intent_name, confidence, entities, created_at
	FROM prediction_history`

// RecentPredictions возвращает последние записи, новые первыми
func (db *HistoryDB) RecentPredictions(ctx context.Context, limit int) ([]HistoryRecord, error) {
	return db.query(ctx, selectHistorySQL+` ORDER BY created_at DESC, id DESC LIMIT ?`, normalizeLimit(limit))
}

// PredictionsByIntent возвращает последние записи указанного намерения
func (db *HistoryDB) PredictionsByIntent(ctx context.Context, intent string, limit int) ([]HistoryRecord, error) {
	return db.query(ctx, selectHistorySQL+` WHERE intent = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		intent, normalizeLimit(limit))
}

// LowConfidencePredictions возвращает записи с уверенностью ниже порога,
// наименее уверенные первыми. Используется для ручного разбора ошибок.
func (db *HistoryDB) LowConfidencePredictions(ctx context.Context, threshold float64, limit int) ([]HistoryRecord, error) {
	return db.query(ctx, selectHistorySQL+` WHERE confidence < ? ORDER BY confidence ASC, id DESC LIMIT ?`,
		threshold, normalizeLimit(limit))
}

// SearchPredictions ищет записи по подстроке исходного текста
func (db *HistoryDB) SearchPredictions(ctx context.Context, substring string, limit int) ([]HistoryRecord, error) {
	pattern := "%" + escapeLike(substring) + "%"
	return db.query(ctx, selectHistorySQL+` WHERE original_text LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC LIMIT ?`, pattern, normalizeLimit(limit))
}

// Stats возвращает агрегированную статистику по всей истории
func (db *HistoryDB) Stats(ctx context.Context) (HistoryStats, error) {
	var stats HistoryStats
	var avg sql.NullFloat64
	var first, last sql.NullString

	row := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(confidence), MIN(created_at), MAX(created_at) FROM prediction_history`)
	if err := row.Scan(&stats.Total, &avg, &first, &last); err != nil {
		return stats, fmt.Errorf("статистика истории: %w", err)
	}

	if avg.Valid {
		stats.AvgConfidence = avg.Float64
	}
	stats.FirstAt = parseHistoryTime(first)
	stats.LastAt = parseHistoryTime(last)
	return stats, nil
}

// TopIntents возвращает самые частые намерения, по убыванию частоты
func (db *HistoryDB) TopIntents(ctx context.Context, limit int) ([]IntentCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT intent, COUNT(*) AS cnt FROM prediction_history
		GROUP BY intent ORDER BY cnt DESC, intent ASC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("топ намерений: %w", err)
	}
	defer rows.Close()

	var top []IntentCount
	for rows.Next() {
		var ic IntentCount
		if err := rows.Scan(&ic.Intent, &ic.Count); err != nil {
			return nil, fmt.Errorf("чтение топа намерений: %w", err)
		}
		top = append(top, ic)
	}
	return top, rows.Err()
}

func (db *HistoryDB) query(ctx context.Context, sqlText string, args ...any) ([]HistoryRecord, error) {
	rows, err := db.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("чтение истории: %w", err)
	}
	defer rows.Close()

	var recs []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		var entities string
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.OriginalText, &rec.ProcessedText,
			&rec.Intent, &rec.IntentName, &rec.Confidence, &entities, &createdAt); err != nil {
			return nil, fmt.Errorf("чтение строки истории: %w", err)
		}
		if entities != "" && entities != "{}" {
			if err := json.Unmarshal([]byte(entities), &rec.Entities); err != nil {
				log.Printf("[HistoryDB] поврежденные сущности в записи %d: %v", rec.ID, err)
			}
		}
		rec.CreatedAt = parseHistoryTime(sql.NullString{String: createdAt, Valid: createdAt != ""})
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

var historyTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func parseHistoryTime(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	for _, layout := range historyTimeLayouts {
		if ts, err := time.Parse(layout, v.String); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func marshalEntities(entities map[string]string) (string, error) {
	if len(entities) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return "", fmt.Errorf("сериализация сущностей: %w", err)
	}
	return string(data), nil
}

// escapeLike экранирует спецсимволы LIKE в пользовательской подстроке
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// defaultQueryLimit ограничивает выборки при нулевом или отрицательном лимите
const defaultQueryLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	return limit
}
