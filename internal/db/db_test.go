package db

import (
	"context"
	"testing"
)

func TestNewPostgresPoolNoDSN(t *testing.T) {
	pool, err := NewPostgresPool(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool != nil {
		t.Fatal("expected nil pool without dsn")
	}
}
