package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(t time.Time) *time.Time { return &t }

func TestActive(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		strength int
		expires  *time.Time
		want     bool
	}{
		{"strength 3 valid", 3, ptr(now.Add(time.Hour)), true},
		{"strength 4 valid", 4, ptr(now.Add(time.Minute)), true},
		{"strength 2 valid", 2, ptr(now.Add(time.Hour)), false},
		{"no expiry", 4, nil, false},
		{"expired", 4, ptr(now.Add(-time.Second)), false},
		{"expires exactly now", 3, ptr(now), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Active(now, tc.strength, tc.expires))
		})
	}
}

func TestExpiringWithin(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	assert.True(t, ExpiringWithin(now, 3, ptr(now.Add(23*time.Hour)), day))
	assert.True(t, ExpiringWithin(now, 2, ptr(now.Add(day)), day))
	assert.False(t, ExpiringWithin(now, 3, ptr(now.Add(25*time.Hour)), day))
	assert.False(t, ExpiringWithin(now, 1, ptr(now.Add(time.Hour)), day))
	assert.False(t, ExpiringWithin(now, 3, ptr(now.Add(-time.Minute)), day))
	assert.False(t, ExpiringWithin(now, 3, nil, day))
}

func TestJustExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, JustExpired(now, 3, ptr(now.Add(-30*time.Minute)), time.Hour))
	assert.True(t, JustExpired(now, 4, ptr(now), time.Hour))
	assert.False(t, JustExpired(now, 3, ptr(now.Add(-2*time.Hour)), time.Hour))
	assert.False(t, JustExpired(now, 1, ptr(now.Add(-time.Minute)), time.Hour))
	assert.False(t, JustExpired(now, 3, ptr(now.Add(time.Minute)), time.Hour))
}
