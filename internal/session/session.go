// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session builds the scs session manager and its backing store.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"
)

// KeyUserID is the session key holding the signed-in user's id.
const KeyUserID = "user_id"

// Options configures the session manager.
type Options struct {
	DB       *sql.DB
	Driver   string // "sqlite" or "mysql"; ignored when Redis is set
	Redis    *redis.Client
	Lifetime time.Duration
	IsDev    bool
	BasePath string
}

// New creates a session manager backed by Redis when a client is given,
// otherwise by the sessions table of the configured database.
func New(opts Options) (*scs.SessionManager, error) {
	sm := scs.New()

	switch {
	case opts.Redis != nil:
		sm.Store = goredisstore.New(opts.Redis)
	case opts.Driver == "mysql":
		sm.Store = mysqlstore.New(opts.DB)
	case opts.Driver == "sqlite" || opts.Driver == "sqlite3":
		sm.Store = sqlite3store.New(opts.DB)
	default:
		return nil, fmt.Errorf("no session store for driver %q", opts.Driver)
	}

	sm.Lifetime = opts.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = time.Hour
	}
	sm.Cookie.Name = "brainswarm_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !opts.IsDev
	sm.Cookie.Path = "/"
	if base := strings.TrimRight(opts.BasePath, "/"); base != "" {
		sm.Cookie.Path = base
	} else if !opts.IsDev {
		// __Host- cookies require Secure, Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}

	return sm, nil
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}
