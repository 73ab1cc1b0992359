package db

import (
	"context"
	"testing"
	"time"
)

func TestPoolOptionsDefaults(t *testing.T) {
	got := PoolOptions{MaxOpenConns: 4, MaxIdleConns: 10}.withDefaults()
	if got.MaxOpenConns != 4 {
		t.Fatalf("expected 4 open conns, got %d", got.MaxOpenConns)
	}
	if got.MaxIdleConns != 4 {
		t.Fatalf("idle conns must not exceed open conns, got %d", got.MaxIdleConns)
	}
	if got.ConnMaxLifetime != time.Hour || got.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestNewPostgresDBRejectsEmptyDSN(t *testing.T) {
	if _, err := NewPostgresDB(context.Background(), "  ", PoolOptions{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
