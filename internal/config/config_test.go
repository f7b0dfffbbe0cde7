package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Market.BaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("unexpected market base URL: %s", cfg.Market.BaseURL)
	}
	if cfg.LLM.OpenAI.Model != "gpt-4o" {
		t.Errorf("unexpected openai model default: %s", cfg.LLM.OpenAI.Model)
	}
	if cfg.LLM.Mistral.BaseURL != "https://api.mistral.ai/v1" {
		t.Errorf("unexpected mistral base URL: %s", cfg.LLM.Mistral.BaseURL)
	}

	// No credentials by default — all providers start disabled.
	if cfg.LLM.OpenAI.APIKey != "" || cfg.LLM.Mistral.APIKey != "" || cfg.LLM.Gemini.FlowURL != "" {
		t.Error("expected no credentials by default")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	// t.Setenv scopes the variable to this test and restores it after.
	t.Setenv("STOCKS_SERVER_PORT", "9090")
	t.Setenv("STOCKS_LLM_OPENAI_API_KEY", "sk-test")
	t.Setenv("STOCKS_LLM_GEMINI_FLOW_URL", "http://localhost:7860/api/v1/run/analysis")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected env-overridden port 9090, got %d", cfg.Server.Port)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected env-provided API key, got %q", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.LLM.Gemini.FlowURL == "" {
		t.Error("expected env-provided flow URL")
	}
}

func TestAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9000}
	if got := s.Address(); got != "127.0.0.1:9000" {
		t.Errorf("expected 127.0.0.1:9000, got %s", got)
	}
}
