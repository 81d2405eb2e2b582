package utils

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	got := PostgresPoolConfig{MaxOpenConns: 10, MaxIdleConns: 50}.withDefaults()
	if got.MaxIdleConns != 10 {
		t.Fatalf("idle conns must be capped by open conns, got %d", got.MaxIdleConns)
	}
	if got.PingTimeout != 5*time.Second || got.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestWithTx_NilDB(t *testing.T) {
	called := false
	err := WithTx(context.Background(), nil, nil, func(ctx context.Context, tx *sql.Tx) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected error for nil db")
	}
}

func TestNullString(t *testing.T) {
	if NullString("").Valid {
		t.Fatalf("empty string must map to NULL")
	}
	if ns := NullString("shop-1"); !ns.Valid || ns.String != "shop-1" {
		t.Fatalf("unexpected: %+v", ns)
	}
}
