// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	if err != nil {
		t.Fatalf("failed to create sessions table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_DevMode(t *testing.T) {
	sm, err := New(Options{DB: setupTestDB(t), Driver: "sqlite", IsDev: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name != "brainswarm_session" {
		t.Errorf("Cookie.Name = %q", sm.Cookie.Name)
	}
	if sm.Store == nil {
		t.Error("expected Store to be initialized")
	}
}

func TestNew_ProductionMode(t *testing.T) {
	sm, err := New(Options{DB: setupTestDB(t), Driver: "sqlite", Lifetime: 2 * time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != "__Host-session" {
		t.Errorf("expected __Host-session cookie name, got %q", sm.Cookie.Name)
	}
	if sm.Lifetime != 2*time.Hour {
		t.Errorf("Lifetime = %v, want 2h", sm.Lifetime)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite = Lax, got %v", sm.Cookie.SameSite)
	}
}

func TestNew_BasePath(t *testing.T) {
	sm, err := New(Options{DB: setupTestDB(t), Driver: "sqlite", BasePath: "/site"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sm.Cookie.Path != "/site" {
		t.Errorf("Cookie.Path = %q, want /site", sm.Cookie.Path)
	}
	if sm.Cookie.Name == "__Host-session" {
		t.Error("__Host- prefix requires Path=/")
	}
	if sm.Lifetime != time.Hour {
		t.Errorf("default Lifetime = %v, want 1h", sm.Lifetime)
	}
}

func TestNew_Stores(t *testing.T) {
	db := setupTestDB(t)

	if _, err := New(Options{DB: db, Driver: "mysql", IsDev: true}); err != nil {
		t.Errorf("mysql store: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })
	if _, err := New(Options{Redis: client, IsDev: true}); err != nil {
		t.Errorf("redis store: %v", err)
	}

	if _, err := New(Options{DB: db, Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	sm, err := New(Options{DB: setupTestDB(t), Driver: "sqlite", IsDev: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sm.Put(ctx, KeyUserID, int64(42))
	if got := sm.GetInt64(ctx, KeyUserID); got != 42 {
		t.Errorf("GetInt64 = %d, want 42", got)
	}
	sm.Remove(ctx, KeyUserID)
	if sm.Exists(ctx, KeyUserID) {
		t.Error("key still present after Remove")
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
