package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuantize_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, "1.01", Format(Quantize(decimal.RequireFromString("1.005"))))
	assert.Equal(t, "1.00", Format(Quantize(decimal.RequireFromString("1.004"))))
	assert.Equal(t, "20.00", Format(Quantize(decimal.NewFromInt(20))))
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(1000), decimal.RequireFromString("2.00"))
	assert.True(t, got.Equal(decimal.NewFromInt(20)), got.String())

	got = Percent(decimal.RequireFromString("333.33"), decimal.RequireFromString("1.5"))
	assert.Equal(t, "5.00", Format(got))
}

func TestMinAndPositive(t *testing.T) {
	a := decimal.NewFromInt(3)
	b := decimal.NewFromInt(5)
	assert.True(t, Min(a, b).Equal(a))
	assert.True(t, Min(b, a).Equal(a))
	assert.True(t, Positive(a))
	assert.False(t, Positive(decimal.Zero))
	assert.False(t, Positive(decimal.NewFromInt(-1)))
}
