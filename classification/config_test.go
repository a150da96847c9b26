package classification

import (
	"errors"
	"testing"
)

func TestMergeModelConfigDefaults(t *testing.T) {
	cfg := MergeModelConfig(nil)
	if cfg.VectorizerMaxFeatures != 2000 {
		t.Errorf("VectorizerMaxFeatures = %d, want 2000", cfg.VectorizerMaxFeatures)
	}
	if cfg.NgramMin != 1 || cfg.NgramMax != 3 {
		t.Errorf("ngram = [%d, %d], want [1, 3]", cfg.NgramMin, cfg.NgramMax)
	}
	if cfg.RegularizationStrength != 10.0 {
		t.Errorf("RegularizationStrength = %f, want 10.0", cfg.RegularizationStrength)
	}
	if cfg.ClassWeighting != "balanced" {
		t.Errorf("ClassWeighting = %q, want balanced", cfg.ClassWeighting)
	}
	if cfg.TestSplitFraction != 0.2 {
		t.Errorf("TestSplitFraction = %f, want 0.2", cfg.TestSplitFraction)
	}
	if cfg.UseStemming {
		t.Error("UseStemming по умолчанию должен быть выключен")
	}
}

func TestMergeModelConfigOverrides(t *testing.T) {
	cfg := MergeModelConfig(map[string]any{
		"vectorizer_max_features": float64(500), // числа из JSON приходят как float64
		"ngram_range":             []any{float64(1), float64(2)},
		"test_split_fraction":     0.3,
		"use_stemming":            true,
	})
	if cfg.VectorizerMaxFeatures != 500 {
		t.Errorf("VectorizerMaxFeatures = %d, want 500", cfg.VectorizerMaxFeatures)
	}
	if cfg.NgramMin != 1 || cfg.NgramMax != 2 {
		t.Errorf("ngram = [%d, %d], want [1, 2]", cfg.NgramMin, cfg.NgramMax)
	}
	if cfg.TestSplitFraction != 0.3 {
		t.Errorf("TestSplitFraction = %f, want 0.3", cfg.TestSplitFraction)
	}
	if !cfg.UseStemming {
		t.Error("UseStemming не включился")
	}
	// незаданные ключи остаются со значениями по умолчанию
	if cfg.MaxIterations != 2000 {
		t.Errorf("MaxIterations = %d, want 2000", cfg.MaxIterations)
	}
}

func TestMergeModelConfigIgnoresUnknownKeys(t *testing.T) {
	cfg := MergeModelConfig(map[string]any{
		"solver":       "lbfgs",
		"warm_start":   true,
		"random_state": float64(7),
	})
	if cfg != DefaultModelConfig() {
		t.Error("неизвестные ключи изменили конфигурацию")
	}
}

func TestModelConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelConfig)
		valid  bool
	}{
		{"default", func(c *ModelConfig) {}, true},
		{"zero max features", func(c *ModelConfig) { c.VectorizerMaxFeatures = 0 }, false},
		{"inverted ngram range", func(c *ModelConfig) { c.NgramMin = 3; c.NgramMax = 1 }, false},
		{"negative split", func(c *ModelConfig) { c.TestSplitFraction = -0.1 }, false},
		{"split of one", func(c *ModelConfig) { c.TestSplitFraction = 1 }, false},
		{"zero split", func(c *ModelConfig) { c.TestSplitFraction = 0 }, true},
		{"zero learning rate", func(c *ModelConfig) { c.LearningRate = 0 }, false},
		{"bad max df", func(c *ModelConfig) { c.MaxDocumentFrequency = 1.5 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultModelConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("Validate() error = %v, want ErrConfiguration", err)
				}
			}
		})
	}
}
