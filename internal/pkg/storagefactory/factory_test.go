package storagefactory

import (
	"context"
	"io"
	"strings"
	"testing"

	"docchat/internal/config"
)

func TestNewStorage(t *testing.T) {
	tmpDir := t.TempDir()
	baseURL := "http://localhost:8080/files"

	tests := []struct {
		name     string
		cfg      *config.StorageConfig
		wantErr  bool
		wantType string
	}{
		{
			name: "valid local storage config",
			cfg: &config.StorageConfig{
				Type: "local",
				Local: &config.LocalConfig{
					BasePath:      tmpDir,
					BaseURL:       baseURL,
					PresignExpiry: 3600,
				},
			},
			wantType: "local",
		},
		{
			name: "empty type defaults to local",
			cfg: &config.StorageConfig{
				Local: &config.LocalConfig{BasePath: tmpDir, BaseURL: baseURL},
			},
			wantType: "local",
		},
		{
			name:    "missing local config",
			cfg:     &config.StorageConfig{Type: "local"},
			wantErr: true,
		},
		{
			name:    "missing local base path",
			cfg:     &config.StorageConfig{Type: "local", Local: &config.LocalConfig{BaseURL: baseURL}},
			wantErr: true,
		},
		{
			name:    "oss without bucket",
			cfg:     &config.StorageConfig{Type: "oss", OSS: &config.OSSConfig{Endpoint: "oss-cn-hangzhou.aliyuncs.com"}},
			wantErr: true,
		},
		{
			name:    "missing oss config",
			cfg:     &config.StorageConfig{Type: "oss"},
			wantErr: true,
		},
		{
			name:    "unsupported storage type",
			cfg:     &config.StorageConfig{Type: "s3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStorage(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStorage() expected error, got nil")
				}
				if s != nil {
					t.Errorf("NewStorage() expected nil storage, got %v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStorage() unexpected error: %v", err)
			}
			if got := s.GetStorageType(); got != tt.wantType {
				t.Errorf("GetStorageType() = %v, want %v", got, tt.wantType)
			}
		})
	}
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(ctx, &config.StorageConfig{
		Type:  "local",
		Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/files"},
	})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	testKey := "documents/u1/doc_a.txt"
	testContent := "Hello, World! This is a test file."
	if _, err := s.Upload(ctx, testKey, strings.NewReader(testContent), "text/plain"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	reader, err := s.Download(ctx, testKey)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != testContent {
		t.Errorf("Download() content = %v, want %v", string(got), testContent)
	}

	presigned, err := s.GetPresignedDownloadURL(ctx, testKey, 0)
	if err != nil {
		t.Fatalf("GetPresignedDownloadURL() error = %v", err)
	}
	if !strings.HasPrefix(presigned, "http://localhost:8080/files/"+testKey+"?") {
		t.Errorf("GetPresignedDownloadURL() url = %v", presigned)
	}
}

func TestLocalStorage_DefaultDownloadPath(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(ctx, &config.StorageConfig{
		Local: &config.LocalConfig{BasePath: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}

	presigned, err := s.GetPresignedDownloadURL(ctx, "documents/u1/doc_b.md", 0)
	if err != nil {
		t.Fatalf("GetPresignedDownloadURL() error = %v", err)
	}
	if !strings.HasPrefix(presigned, DefaultDownloadPath+"/documents/u1/doc_b.md?") {
		t.Errorf("GetPresignedDownloadURL() url = %v", presigned)
	}
}
