package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"intentserver/classification"
)

// LoadDataset читает обучающую выборку из файла. Формат выбирается
// по расширению: .json, .csv или .xlsx. Некорректные строки
// отфильтровываются с логированием; если валидных строк меньше двух,
// возвращается ErrInsufficientData.
func LoadDataset(path string) ([]classification.TrainingExample, error) {
	var (
		examples []classification.TrainingExample
		err      error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		examples, err = loadJSON(path)
	case ".csv":
		examples, err = loadCSV(path)
	case ".xlsx":
		examples, err = loadXLSX(path)
	default:
		return nil, fmt.Errorf("неподдерживаемый формат датасета: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if len(examples) < 2 {
		return nil, fmt.Errorf("%w: в датасете %s только %d валидных примеров",
			classification.ErrInsufficientData, path, len(examples))
	}
	log.Printf("[Importer] загружено %d примеров из %s", len(examples), path)
	return examples, nil
}

// loadJSON читает датасет в формате [["текст", "намерение"], ...]
// или [{"text": ..., "intent": ...}, ...].
func loadJSON(path string) ([]classification.TrainingExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение датасета: %w", err)
	}

	var pairs [][]string
	if err := json.Unmarshal(data, &pairs); err == nil {
		var examples []classification.TrainingExample
		for i, pair := range pairs {
			if len(pair) != 2 {
				log.Printf("[Importer] строка %d: ожидалась пара [текст, намерение], пропущена", i)
				continue
			}
			examples = appendValid(examples, pair[0], pair[1], i)
		}
		return examples, nil
	}

	var objects []classification.TrainingExample
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("разбор датасета %s: %w", path, err)
	}
	var examples []classification.TrainingExample
	for i, obj := range objects {
		examples = appendValid(examples, obj.Text, obj.Intent, i)
	}
	return examples, nil
}

// loadCSV читает датасет из CSV с колонками text и intent.
// Файлы из 1С часто приходят в Windows-1251, поэтому содержимое,
// не являющееся валидным UTF-8, прогоняется через декодер cp1251.
func loadCSV(path string) ([]classification.TrainingExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение датасета: %w", err)
	}

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("декодирование cp1251 в %s: %w", path, err)
		}
		data = decoded
		log.Printf("[Importer] %s декодирован из Windows-1251", path)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = detectDelimiter(string(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("разбор CSV %s: %w", path, err)
	}
	return rowsToExamples(rows), nil
}

// loadXLSX читает датасет с первого листа XLSX-файла.
func loadXLSX(path string) ([]classification.TrainingExample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("открытие XLSX %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("в файле %s нет листов", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("чтение листа %s: %w", sheets[0], err)
	}
	return rowsToExamples(rows), nil
}

// rowsToExamples преобразует табличные строки в примеры. Первая строка
// трактуется как заголовок, если содержит имена колонок text/intent,
// иначе колонки берутся позиционно: первая - текст, вторая - намерение.
func rowsToExamples(rows [][]string) []classification.TrainingExample {
	if len(rows) == 0 {
		return nil
	}

	textCol, intentCol := 0, 1
	start := 0
	if cols, ok := headerColumns(rows[0]); ok {
		textCol, intentCol = cols[0], cols[1]
		start = 1
	}

	var examples []classification.TrainingExample
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= textCol || len(row) <= intentCol {
			log.Printf("[Importer] строка %d: не хватает колонок, пропущена", i)
			continue
		}
		examples = appendValid(examples, row[textCol], row[intentCol], i)
	}
	return examples
}

// headerColumns распознает строку заголовка с колонками text и intent
func headerColumns(row []string) ([2]int, bool) {
	textCol, intentCol := -1, -1
	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "text", "текст":
			textCol = i
		case "intent", "намерение":
			intentCol = i
		}
	}
	if textCol >= 0 && intentCol >= 0 {
		return [2]int{textCol, intentCol}, true
	}
	return [2]int{}, false
}

func appendValid(examples []classification.TrainingExample, text, intent string, row int) []classification.TrainingExample {
	text = strings.TrimSpace(text)
	intent = strings.TrimSpace(intent)
	if text == "" || intent == "" {
		log.Printf("[Importer] строка %d: пустой текст или намерение, пропущена", row)
		return examples
	}
	return append(examples, classification.TrainingExample{Text: text, Intent: intent})
}

// detectDelimiter выбирает разделитель CSV по первой строке файла
func detectDelimiter(data string) rune {
	line := data
	if idx := strings.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// SaveDatasetJSON записывает выборку в JSON-формат [["текст", "намерение"], ...]
func SaveDatasetJSON(path string, examples []classification.TrainingExample) error {
	pairs := make([][]string, len(examples))
	for i, ex := range examples {
		pairs[i] = []string{ex.Text, ex.Intent}
	}
	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return fmt.Errorf("сериализация датасета: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("запись датасета: %w", err)
	}
	return nil
}
