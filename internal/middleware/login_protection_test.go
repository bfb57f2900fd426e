// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"testing"
	"time"
)

// testLoginProtectionConfig returns a config suitable for fast testing.
func testLoginProtectionConfig(maxAttempts int, lockoutDuration, attemptWindow time.Duration) LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockoutDuration,
		AttemptWindow:     attemptWindow,
	}
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})
	def := DefaultLoginProtectionConfig()

	if lp.maxFailedAttempts != def.MaxFailedAttempts {
		t.Errorf("maxFailedAttempts = %d, want %d", lp.maxFailedAttempts, def.MaxFailedAttempts)
	}
	if lp.lockoutDuration != def.LockoutDuration {
		t.Errorf("lockoutDuration = %v, want %v", lp.lockoutDuration, def.LockoutDuration)
	}
	if lp.attemptWindow != def.AttemptWindow {
		t.Errorf("attemptWindow = %v, want %v", lp.attemptWindow, def.AttemptWindow)
	}
}

func TestLoginProtection_Lockout(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(3, time.Minute, time.Hour))

	for i := 1; i < 3; i++ {
		if locked, _ := lp.RecordFailedAttempt("Alice", "10.0.0.1"); locked {
			t.Fatalf("locked after %d attempts", i)
		}
	}
	if got := lp.RemainingAttempts("alice"); got != 1 {
		t.Errorf("RemainingAttempts = %d, want 1", got)
	}

	locked, d := lp.RecordFailedAttempt("alice", "10.0.0.1")
	if !locked || d != time.Minute {
		t.Fatalf("RecordFailedAttempt = (%v, %v), want (true, 1m)", locked, d)
	}
	if locked, remaining := lp.IsAccountLocked(" ALICE "); !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked = (%v, %v), want locked", locked, remaining)
	}
	if locked, _ := lp.IsAccountLocked("bob"); locked {
		t.Error("unrelated account locked")
	}
}

func TestLoginProtection_LockoutDoubles(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(1, time.Minute, time.Hour))
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return current }

	// The first failure of a window only starts the count.
	lp.RecordFailedAttempt("carol", "ip")
	if _, d := lp.RecordFailedAttempt("carol", "ip"); d != time.Minute {
		t.Fatalf("first lockout = %v, want 1m", d)
	}
	current = current.Add(2 * time.Minute)
	if _, d := lp.RecordFailedAttempt("carol", "ip"); d != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m", d)
	}
}

func TestLoginProtection_WindowResets(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(2, time.Minute, time.Minute))
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return current }

	lp.RecordFailedAttempt("dave", "ip")
	current = current.Add(2 * time.Minute)
	if locked, _ := lp.RecordFailedAttempt("dave", "ip"); locked {
		t.Error("locked although the window had passed")
	}
}

func TestLoginProtection_SuccessClears(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(3, time.Minute, time.Hour))
	lp.RecordFailedAttempt("erin", "ip")
	lp.RecordFailedAttempt("erin", "ip")
	lp.RecordSuccessfulLogin("erin")

	if got := lp.RemainingAttempts("erin"); got != 3 {
		t.Errorf("RemainingAttempts = %d, want 3", got)
	}
}

func TestLoginProtection_AllowIP(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})

	if !lp.AllowIP("10.0.0.9") || !lp.AllowIP("10.0.0.9") {
		t.Fatal("burst requests rejected")
	}
	if lp.AllowIP("10.0.0.9") {
		t.Error("request beyond burst allowed")
	}
	if !lp.AllowIP("10.0.0.10") {
		t.Error("other IP rejected")
	}
}

func TestLoginProtection_Cleanup(t *testing.T) {
	lp := NewLoginProtection(testLoginProtectionConfig(5, time.Minute, time.Minute))
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return current }

	lp.RecordFailedAttempt("frank", "ip")
	lp.AllowIP("1.1.1.1")
	lp.AllowIP("2.2.2.2")

	current = current.Add(time.Hour)
	lp.Cleanup(1)

	if len(lp.failedAttempts) != 0 {
		t.Errorf("failedAttempts = %d, want 0", len(lp.failedAttempts))
	}
	if len(lp.ipLimiters.limiters) != 0 {
		t.Errorf("limiters = %d, want 0", len(lp.ipLimiters.limiters))
	}
}
