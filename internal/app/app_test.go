package app

import (
	"testing"

	"github.com/silacode/customer-support-agent/internal/config"
	"github.com/silacode/customer-support-agent/internal/testutil"
)

func TestQualifiedModelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"gemini default", config.ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"openai", config.ProviderOpenAI, "gpt-4o-mini", "openai/gpt-4o-mini"},
		{"ollama", config.ProviderOllama, "llama3.2", "ollama/llama3.2"},
		{"already qualified", config.ProviderGemini, "googleai/gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"qualified other provider", config.ProviderOpenAI, "mock/support-model", "mock/support-model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{Provider: tt.provider, ModelName: tt.model}
			if got := QualifiedModelName(cfg); got != tt.want {
				t.Errorf("QualifiedModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppCloseWithoutResources(t *testing.T) {
	t.Parallel()

	a := &App{Logger: testutil.DiscardLogger()}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
