package config_test

import (
	"errors"
	"testing"

	"github.com/ihuguet/picofst/internal/config"
)

func makeValidConfig() config.Config {
	return config.Config{
		LogLevel: config.LogLevelInfo,
		Lexicon: config.Lexicon{
			MainPath: "testdata/main.lex",
		},
		Pipeline: config.Pipeline{
			MaxWordHeads:     60,
			MaxSentenceHeads: 80,
			MaxSearchDepth:   64,
			MaxOutputBytes:   4096,
		},
		Metrics: config.Metrics{
			Enabled: false,
		},
	}
}

func TestConfigValidateValid(t *testing.T) {
	c := makeValidConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestConfigValidateInvalidLogLevel(t *testing.T) {
	c := makeValidConfig()
	c.LogLevel = "invalid"
	if !errors.Is(c.Validate(), config.ErrInvalidLogLevel) {
		t.Errorf("expected ErrInvalidLogLevel, got %v", c.Validate())
	}
}

func TestConfigValidateEmptyLexiconPath(t *testing.T) {
	c := makeValidConfig()
	c.Lexicon.MainPath = ""
	if !errors.Is(c.Validate(), config.ErrInvalidLexiconPath) {
		t.Errorf("expected ErrInvalidLexiconPath, got %v", c.Validate())
	}
}

func TestPipelineValidateNonPositiveFields(t *testing.T) {
	tests := []struct {
		name string
		p    config.Pipeline
		want error
	}{
		{"word heads", config.Pipeline{MaxWordHeads: 0, MaxSentenceHeads: 1, MaxSearchDepth: 1, MaxOutputBytes: 1}, config.ErrInvalidMaxWordHeads},
		{"sentence heads", config.Pipeline{MaxWordHeads: 1, MaxSentenceHeads: 0, MaxSearchDepth: 1, MaxOutputBytes: 1}, config.ErrInvalidMaxSentenceHeads},
		{"search depth", config.Pipeline{MaxWordHeads: 1, MaxSentenceHeads: 1, MaxSearchDepth: 0, MaxOutputBytes: 1}, config.ErrInvalidMaxSearchDepth},
		{"output bytes", config.Pipeline{MaxWordHeads: 1, MaxSentenceHeads: 1, MaxSearchDepth: 1, MaxOutputBytes: 0}, config.ErrInvalidMaxOutputBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.p.Validate(), tt.want) {
				t.Errorf("%s: got %v, want %v", tt.name, tt.p.Validate(), tt.want)
			}
		})
	}
}

func TestMetricsValidateDisabledSkipsChecks(t *testing.T) {
	m := config.Metrics{Enabled: false}
	if err := m.Validate(); err != nil {
		t.Errorf("expected nil error for disabled metrics, got %v", err)
	}
}

func TestMetricsValidateEnabledRequiresBindAndPort(t *testing.T) {
	m := config.Metrics{Enabled: true, Bind: "", Port: 9090}
	if !errors.Is(m.Validate(), config.ErrInvalidMetricsBindAddress) {
		t.Errorf("expected ErrInvalidMetricsBindAddress, got %v", m.Validate())
	}

	m = config.Metrics{Enabled: true, Bind: "[::]", Port: 0}
	if !errors.Is(m.Validate(), config.ErrInvalidMetricsPort) {
		t.Errorf("expected ErrInvalidMetricsPort, got %v", m.Validate())
	}

	m = config.Metrics{Enabled: true, Bind: "[::]", Port: 9090}
	if err := m.Validate(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestConfigValidateWithFieldsReturnsMultipleErrors(t *testing.T) {
	c := config.Config{
		LogLevel: "invalid",
		Lexicon:  config.Lexicon{MainPath: ""},
		Pipeline: config.Pipeline{MaxWordHeads: 0, MaxSentenceHeads: 0, MaxSearchDepth: 0, MaxOutputBytes: 0},
		Metrics:  config.Metrics{Enabled: true, Bind: "", Port: -1},
	}
	errs := c.ValidateWithFields()
	if len(errs) < 4 {
		t.Errorf("expected at least 4 validation errors, got %d: %v", len(errs), errs)
	}
}
