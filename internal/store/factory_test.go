package store

import (
	"context"
	"testing"

	"github.com/ygg-project/yggcore/internal/model"
)

func TestNewStore_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, "memory", "")
	if err != nil {
		t.Fatalf("NewStore('memory') failed: %v", err)
	}
	if s == nil {
		t.Fatal("expected non-nil store")
	}

	err = s.PutFeatures(ctx, "test", model.ClientFeatures{
		Features: []model.Toggle{{Name: "t", Enabled: true}},
	})
	if err != nil {
		t.Fatalf("PutFeatures failed: %v", err)
	}

	got, err := s.GetFeatures(ctx, "test")
	if err != nil {
		t.Fatalf("GetFeatures failed: %v", err)
	}
	if len(got.Features) != 1 {
		t.Errorf("expected 1 toggle, got %d", len(got.Features))
	}

	s.Close()
}

func TestNewStore_UnsupportedType(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, "invalid-type", "")
	if err == nil {
		t.Fatal("expected error for unsupported store type")
	}
}

func TestNewStore_PostgresRequiresDSN(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, "postgres", "")
	if err == nil {
		t.Fatal("expected error for empty DSN with postgres store")
	}
}

func TestNewStore_EmptyDSNForMemory(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, "memory", "")
	if err != nil {
		t.Fatalf("NewStore('memory') with empty DSN failed: %v", err)
	}
	if s == nil {
		t.Fatal("expected non-nil store")
	}
	s.Close()
}

func TestNewStore_CaseSensitivity(t *testing.T) {
	ctx := context.Background()

	if _, err := NewStore(ctx, "Memory", ""); err == nil {
		t.Error("expected error for 'Memory' (capital M)")
	}
	if _, err := NewStore(ctx, "MEMORY", ""); err == nil {
		t.Error("expected error for 'MEMORY' (all caps)")
	}

	s, err := NewStore(ctx, "memory", "")
	if err != nil {
		t.Fatalf("NewStore('memory') should work: %v", err)
	}
	s.Close()
}
