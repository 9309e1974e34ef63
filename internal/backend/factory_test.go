package backend

import (
	"context"
	"path/filepath"
	"testing"
)

func TestBackendType_IsValid(t *testing.T) {
	tests := []struct {
		backendType BackendType
		want        bool
	}{
		{SQLiteBackend, true},
		{MemoryBackend, true},
		{BackendType("sheets"), false},
		{BackendType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.backendType), func(t *testing.T) {
			if got := tt.backendType.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFactory_CreateStore(t *testing.T) {
	factory := NewFactory(nil)
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		result, err := factory.CreateStore(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatalf("CreateStore() error = %v", err)
		}
		if result.Store == nil {
			t.Fatal("CreateStore() returned nil store")
		}
		if result.Cleanup != nil {
			t.Error("memory store should not need cleanup")
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")
		result, err := factory.CreateStore(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
		if err != nil {
			t.Fatalf("CreateStore() error = %v", err)
		}
		if result.Cleanup == nil {
			t.Fatal("sqlite store should expose cleanup")
		}
		if err := result.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		if _, err := factory.CreateStore(ctx, Config{Type: "sheets"}); err == nil {
			t.Error("CreateStore() should reject unknown backend types")
		}
	})
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(AppSettings{DataBackend: "sqlite", SQLiteDBPath: "./x.db"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "./x.db" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(AppSettings{DataBackend: "bogus"}); err == nil {
		t.Error("FromAppConfig() should reject unknown backends")
	}
}
