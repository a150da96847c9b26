package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"intentserver/extractors"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.HistoryDatabasePath != "history.db" {
		t.Errorf("HistoryDatabasePath = %q", cfg.HistoryDatabasePath)
	}
	if cfg.RateLimitRPS != 50 {
		t.Errorf("RateLimitRPS = %f, want 50", cfg.RateLimitRPS)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Port = %q, want 9100", cfg.Port)
	}
	if cfg.RateLimitRPS != 5.5 {
		t.Errorf("RateLimitRPS = %f, want 5.5", cfg.RateLimitRPS)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "не-порт")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() с нечисловым портом не вернул ошибку")
	}

	t.Setenv("SERVER_PORT", "70000")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() с портом вне диапазона не вернул ошибку")
	}
}

func TestLoadConfigIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "abc")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RateLimitBurst != 100 {
		t.Errorf("RateLimitBurst = %d, want значение по умолчанию 100", cfg.RateLimitBurst)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(s.ProcurementIntents) != 7 {
		t.Errorf("len(ProcurementIntents) = %d, want 7", len(s.ProcurementIntents))
	}
	for _, intent := range []string{"create_ks", "create_contract", "search_docs", "help"} {
		if _, ok := s.ProcurementIntents[intent]; !ok {
			t.Errorf("намерение %q отсутствует в настройках по умолчанию", intent)
		}
	}
	if len(s.EntityPatterns["inn"]) == 0 {
		t.Error("паттерны для inn отсутствуют")
	}
	if s.LevenshteinThreshold != DefaultLevenshteinThreshold {
		t.Errorf("LevenshteinThreshold = %f", s.LevenshteinThreshold)
	}
}

func TestDefaultSettingsLawPattern(t *testing.T) {
	s := DefaultSettings()
	e := extractors.NewEntityExtractor(s.EntityPatterns, s.EntityPriority)

	cases := []struct {
		text string
		want string
	}{
		{"закупка по 44 фз", "44-ФЗ"},
		{"контракт по 44-фз", "44-ФЗ"},
		{"по 223 ФЗ", "223-ФЗ"},
	}
	for _, tc := range cases {
		entities := e.Extract(tc.text, "search_docs")
		if entities["law"] != tc.want {
			t.Errorf("Extract(%q): law = %q, want %q", tc.text, entities["law"], tc.want)
		}
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "нет.json"))
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if len(s.ProcurementIntents) == 0 {
		t.Error("настройки по умолчанию не применились")
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{
		"procurement_intents": {"create_ks": "Создание КС", "help": "Справка"},
		"levenshtein_threshold": 0.75
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if len(s.ProcurementIntents) != 2 {
		t.Errorf("len(ProcurementIntents) = %d, want 2", len(s.ProcurementIntents))
	}
	if s.LevenshteinThreshold != 0.75 {
		t.Errorf("LevenshteinThreshold = %f, want 0.75", s.LevenshteinThreshold)
	}
	// незаданные секции добираются из умолчаний
	if len(s.EntityPatterns) == 0 {
		t.Error("EntityPatterns не добрались из умолчаний")
	}
	if len(s.CorrectionDictionary) == 0 {
		t.Error("CorrectionDictionary не добрался из умолчаний")
	}
}

func TestLoadSettingsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{сломано"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("LoadSettings() на битом JSON не вернул ошибку")
	}
}

func TestLoadSettingsEmptyIntents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"procurement_intents": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("LoadSettings() с пустыми намерениями не вернул ошибку")
	}
}
