// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/brainswarm/brainswarm/internal/logging"
)

// MsgTooManyAttempts is shown when sign-in is rate limited or locked out.
const MsgTooManyAttempts = "Too many login attempts. Please try again later."

// LoginProtection provides combined IP rate limiting and account lockout protection.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	failedAttempts map[string]*loginAttempt
	attemptsMu     sync.RWMutex

	maxFailedAttempts int
	lockoutDuration   time.Duration // doubles with each lockout
	attemptWindow     time.Duration

	now func() time.Time
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is sign-in POSTs per second per IP (default: 0.5)
	IPRateLimit float64
	// IPBurst is the maximum burst size for IP rate limiting (default: 5)
	IPBurst int
	// MaxFailedAttempts before account lockout (default: 5)
	MaxFailedAttempts int
	// LockoutDuration is the base lockout time (default: 15 minutes)
	LockoutDuration time.Duration
	// AttemptWindow is the time window for counting failed attempts (default: 15 minutes)
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a new login protection instance. Zero config
// values fall back to the defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}

	return &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		failedAttempts:    make(map[string]*loginAttempt),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		now:               time.Now,
	}
}

// accountKey normalises usernames so lockouts are case-insensitive.
func accountKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// AllowIP reports whether a sign-in attempt from ip is within the rate limit.
func (lp *LoginProtection) AllowIP(ip string) bool {
	if lp.ipLimiters.get(ip).Allow() {
		return true
	}
	slog.Warn("login rate limit exceeded", logging.Audit(0, ip))
	return false
}

// IsAccountLocked reports whether the account is locked and for how long.
func (lp *LoginProtection) IsAccountLocked(username string) (bool, time.Duration) {
	lp.attemptsMu.RLock()
	attempt, exists := lp.failedAttempts[accountKey(username)]
	lp.attemptsMu.RUnlock()

	if !exists {
		return false, 0
	}
	if now := lp.now(); now.Before(attempt.lockedUntil) {
		return true, attempt.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailedAttempt records a failed sign-in for username.
// It returns true and the lockout duration when the account becomes locked.
func (lp *LoginProtection) RecordFailedAttempt(username, ip string) (bool, time.Duration) {
	key := accountKey(username)

	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	now := lp.now()
	attempt, exists := lp.failedAttempts[key]
	if !exists || now.Sub(attempt.firstFailed) > lp.attemptWindow {
		if !exists {
			attempt = &loginAttempt{}
			lp.failedAttempts[key] = attempt
		}
		attempt.count = 1
		attempt.firstFailed = now
		return false, 0
	}

	attempt.count++
	if attempt.count < lp.maxFailedAttempts {
		return false, 0
	}

	lockDuration := lp.lockoutDuration
	for i := 0; i < attempt.lockouts; i++ {
		lockDuration *= 2
		if lockDuration > 24*time.Hour {
			lockDuration = 24 * time.Hour
			break
		}
	}
	attempt.lockedUntil = now.Add(lockDuration)
	attempt.lockouts++
	attempt.count = 0

	slog.Warn("account locked due to failed attempts",
		logging.Audit(0, ip),
		"username", key,
		"lockouts", attempt.lockouts,
		"duration", lockDuration,
	)
	return true, lockDuration
}

// RecordSuccessfulLogin clears failed attempt tracking for an account.
func (lp *LoginProtection) RecordSuccessfulLogin(username string) {
	lp.attemptsMu.Lock()
	delete(lp.failedAttempts, accountKey(username))
	lp.attemptsMu.Unlock()
}

// RemainingAttempts returns the number of failures left before lockout.
func (lp *LoginProtection) RemainingAttempts(username string) int {
	lp.attemptsMu.RLock()
	attempt, exists := lp.failedAttempts[accountKey(username)]
	lp.attemptsMu.RUnlock()

	if !exists || lp.now().Sub(attempt.firstFailed) > lp.attemptWindow {
		return lp.maxFailedAttempts
	}
	return max(lp.maxFailedAttempts-attempt.count, 0)
}

// Cleanup drops expired lockouts and resets the IP limiters once they grow
// past maxIPs. The scheduler calls it periodically.
func (lp *LoginProtection) Cleanup(maxIPs int) {
	if lp.ipLimiters.clearIfExceeds(maxIPs) {
		slog.Info("cleared login rate limiters due to size")
	}

	now := lp.now()
	lp.attemptsMu.Lock()
	for key, attempt := range lp.failedAttempts {
		if now.After(attempt.lockedUntil) && now.Sub(attempt.firstFailed) > lp.attemptWindow {
			delete(lp.failedAttempts, key)
		}
	}
	lp.attemptsMu.Unlock()
}

// limiterCache is a keyed set of token-bucket limiters with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()
	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}
