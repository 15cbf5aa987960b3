// Package entitlement decides whether a user's signal strength currently
// unlocks investment payouts.
package entitlement

import "time"

// MinPayoutStrength is the lowest signal strength that unlocks payouts.
const MinPayoutStrength = 3

// Active reports whether payouts are unlocked at now. The expiry is exclusive:
// a grant that expires exactly at now is no longer active.
func Active(now time.Time, strength int, expiresAt *time.Time) bool {
	return strength >= MinPayoutStrength && expiresAt != nil && expiresAt.After(now)
}

// ExpiringWithin reports an elevated signal (strength above the floor) that is
// still valid but lapses within window.
func ExpiringWithin(now time.Time, strength int, expiresAt *time.Time, window time.Duration) bool {
	if strength <= 1 || expiresAt == nil {
		return false
	}
	return expiresAt.After(now) && !expiresAt.After(now.Add(window))
}

// JustExpired reports an elevated signal whose expiry passed in the last window.
func JustExpired(now time.Time, strength int, expiresAt *time.Time, window time.Duration) bool {
	if strength <= 1 || expiresAt == nil {
		return false
	}
	return !expiresAt.After(now) && expiresAt.After(now.Add(-window))
}
