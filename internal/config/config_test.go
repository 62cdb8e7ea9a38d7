package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080, Mode: "release", ReadTimeout: 30 * time.Second},
		AI: AIConfig{
			Provider: "dashscope",
			Model:    "qwen-max",
			Options:  AIOptionsConfig{Temperature: 0.7, TopP: 0.9, MaxTokens: 2048},
		},
		Document: DocumentConfig{
			MaxFileSize:       10 << 20,
			AllowedExtensions: []string{"pdf", "txt"},
			ChunkSize:         500,
			ChunkOverlap:      50,
			TopK:              5,
			ScoreThreshold:    0.7,
		},
		Queue:   QueueConfig{Type: "memory", Workers: 2},
		Storage: StorageConfig{Type: "local"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "bad mode", mutate: func(c *Config) { c.Server.Mode = "prod" }, wantErr: true},
		{name: "temperature too high", mutate: func(c *Config) { c.AI.Options.Temperature = 2.5 }, wantErr: true},
		{name: "top_p too high", mutate: func(c *Config) { c.AI.Options.TopP = 1.1 }, wantErr: true},
		{name: "max_tokens too high", mutate: func(c *Config) { c.AI.Options.MaxTokens = 9000 }, wantErr: true},
		{name: "overlap not below chunk size", mutate: func(c *Config) { c.Document.ChunkOverlap = 500 }, wantErr: true},
		{name: "no file size", mutate: func(c *Config) { c.Document.MaxFileSize = 0 }, wantErr: true},
		{name: "unknown queue", mutate: func(c *Config) { c.Queue.Type = "kafka" }, wantErr: true},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "s3" }, wantErr: true},
		{name: "nats queue", mutate: func(c *Config) { c.Queue.Type = "nats" }},
		{name: "auth without secret", mutate: func(c *Config) { c.Auth.Enabled = true }, wantErr: true},
		{name: "auth with secret", mutate: func(c *Config) { c.Auth = AuthConfig{Enabled: true, JWTSecret: "s"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDocumentConfig_IsAllowed(t *testing.T) {
	cfg := DocumentConfig{AllowedExtensions: []string{".pdf", "txt", "DOCX"}}

	tests := []struct {
		ext  string
		want bool
	}{
		{"pdf", true},
		{".PDF", true},
		{"txt", true},
		{"docx", true},
		{"exe", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := cfg.IsAllowed(tt.ext); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}
