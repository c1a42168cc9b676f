package ledpwm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimingDuty(t *testing.T) {
	// Values from the WS2812B and SK6812-RGBW datasheets with a timer whose
	// full period counts to 50.
	one, zero := WS2812B.Duty(50)
	assert.EqualValues(t, 32, one)
	assert.EqualValues(t, 16, zero)

	one, zero = SK6812RGBW.Duty(50)
	assert.EqualValues(t, 24, one)
	assert.EqualValues(t, 12, zero)
}

func TestTimingResetLen(t *testing.T) {
	assert.Equal(t, 40, WS2812B.ResetLen())
	assert.Equal(t, 64, SK6812RGBW.ResetLen())
}

func TestTimingBitRate(t *testing.T) {
	assert.Equal(t, 800_000, WS2812B.BitRate())
	assert.Equal(t, 800_000, SK6812RGBW.BitRate())
}

func TestTimingOrder(t *testing.T) {
	assert.Equal(t, GRB, WS2812B.Order)
	assert.Equal(t, RGB, SK6812RGBW.Order)
}
