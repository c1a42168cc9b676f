package ledpwm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOneDuty  uint16 = 32
	testZeroDuty uint16 = 16
)

// expandByte expands a channel byte the way the buffer is expected to,
// most significant bit first.
func expandByte(v uint8) []uint16 {
	duties := make([]uint16, 8)
	for i := 0; i < 8; i++ {
		if v&(1<<(7-i)) != 0 {
			duties[i] = testOneDuty
		} else {
			duties[i] = testZeroDuty
		}
	}
	return duties
}

func TestBufferLen(t *testing.T) {
	tests := []struct {
		bitsPerLED int
		numLEDs    int
		resetLen   int
		want       int
	}{
		{ColorBits, 3, 40, 112},
		{ColorWBits, 5, 64, 224},
		{ColorBits, 0, 40, 40},
		{ColorWBits, 1, 0, 32},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BufferLen(tt.bitsPerLED, tt.numLEDs, tt.resetLen))
	}
}

func TestFill_GRB(t *testing.T) {
	b := NewBuffer(BufferLen(ColorBits, 1, 40), testOneDuty, testZeroDuty, GRB)

	require.NoError(t, Fill(b, []Color{{R: 255}}, 0))

	duties := b.Duties()
	for i, duty := range duties[0:8] {
		assert.Equal(t, testZeroDuty, duty, "green slot %d", i)
	}
	for i, duty := range duties[8:16] {
		assert.Equal(t, testOneDuty, duty, "red slot %d", i)
	}
	for i, duty := range duties[16:24] {
		assert.Equal(t, testZeroDuty, duty, "blue slot %d", i)
	}
	for i, duty := range duties[24:] {
		assert.Zero(t, duty, "reset slot %d", i)
	}
}

func TestFill_RGB(t *testing.T) {
	b := NewBuffer(BufferLen(ColorBits, 1, 40), testOneDuty, testZeroDuty, RGB)

	require.NoError(t, Fill(b, []Color{{G: 255}}, 0))

	duties := b.Duties()
	assert.Equal(t, expandByte(0), duties[0:8], "red")
	assert.Equal(t, expandByte(255), duties[8:16], "green")
	assert.Equal(t, expandByte(0), duties[16:24], "blue")
}

func TestFill_RGBW(t *testing.T) {
	b := NewBuffer(BufferLen(ColorWBits, 1, 64), testOneDuty, testZeroDuty, RGB)

	require.NoError(t, Fill(b, []ColorW{{R: 0xA1, G: 0xB2, B: 0xC3, W: 0xD4}}, 0))

	duties := b.Duties()
	assert.Equal(t, expandByte(0xA1), duties[0:8], "red")
	assert.Equal(t, expandByte(0xB2), duties[8:16], "green")
	assert.Equal(t, expandByte(0xC3), duties[16:24], "blue")
	assert.Equal(t, expandByte(0xD4), duties[24:32], "white")
}

func TestFill_MSBFirst(t *testing.T) {
	b := NewBuffer(BufferLen(ColorBits, 1, 0), testOneDuty, testZeroDuty, RGB)

	// 0b10110001
	require.NoError(t, Fill(b, []Color{{R: 0xB1}}, 0))

	want := []uint16{32, 16, 32, 32, 16, 16, 16, 32}
	assert.Equal(t, want, b.Duties()[0:8])
}

func TestFill_Rotate(t *testing.T) {
	colors := []Color{{R: 1}, {R: 2}, {R: 3}}

	tests := []struct {
		name   string
		rotate int
		// want is the channel byte expected at each LED position.
		want []uint8
	}{
		{"none", 0, []uint8{1, 2, 3}},
		{"right", 1, []uint8{3, 1, 2}},
		{"left", -1, []uint8{2, 3, 1}},
		{"full turn", 3, []uint8{1, 2, 3}},
		{"wraps", 7, []uint8{3, 1, 2}},
		{"negative wraps", -4, []uint8{2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(BufferLen(ColorBits, 3, 40), testOneDuty, testZeroDuty, RGB)
			require.NoError(t, Fill(b, colors, tt.rotate))

			duties := b.Duties()
			for pos, v := range tt.want {
				off := pos * ColorBits
				assert.Equal(t, expandByte(v), duties[off:off+8], "red byte of led %d", pos)
			}
		})
	}
}

func TestFill_TooManyLEDs(t *testing.T) {
	b := NewBuffer(BufferLen(ColorBits, 2, 40), testOneDuty, testZeroDuty, GRB)
	require.NoError(t, Fill(b, []Color{{R: 255}, {G: 255}}, 0))

	before := append([]uint16(nil), b.Duties()...)

	err := Fill(b, []Color{{}, {}, {}, {}, {}}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyLEDs))

	assert.Equal(t, before, b.Duties(), "failed fill must not touch the buffer")
}

func TestFill_Idempotent(t *testing.T) {
	colors := []Color{{R: 10, G: 20, B: 30}, {R: 200, G: 100, B: 50}}

	b := NewBuffer(BufferLen(ColorBits, 2, 40), testOneDuty, testZeroDuty, GRB)
	require.NoError(t, Fill(b, colors, 0))
	first := append([]uint16(nil), b.Duties()...)

	require.NoError(t, Fill(b, colors, 0))
	assert.Equal(t, first, b.Duties())
}

func TestFillWithBrightness(t *testing.T) {
	tests := []struct {
		value      uint8
		brightness uint8
		want       uint8
	}{
		// Scaling truncates: 255 at 50% is 127, not 128.
		{255, 50, 127},
		{255, 100, 255},
		{255, 0, 0},
		{200, 0, 0},
		{200, 100, 200},
		{100, 33, 33},
		{1, 99, 0},
	}

	for _, tt := range tests {
		b := NewBuffer(BufferLen(ColorBits, 1, 0), testOneDuty, testZeroDuty, RGB)
		err := FillWithBrightness(b, []Color{{R: tt.value}}, 0, tt.brightness)
		require.NoError(t, err)

		assert.Equal(t, expandByte(tt.want), b.Duties()[0:8],
			"%d at %d%%", tt.value, tt.brightness)
		assert.EqualValues(t, 100, b.brightness, "brightness must reset after fill")
	}
}

func TestFillWithBrightness_OutOfRange(t *testing.T) {
	b := NewBuffer(BufferLen(ColorBits, 1, 40), testOneDuty, testZeroDuty, GRB)
	require.NoError(t, Fill(b, []Color{{R: 255}}, 0))
	before := append([]uint16(nil), b.Duties()...)

	err := FillWithBrightness(b, []Color{{G: 255}}, 0, 101)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBrightnessRange))

	assert.Equal(t, before, b.Duties(), "failed fill must not touch the buffer")
	assert.EqualValues(t, 100, b.brightness)
}

func TestFillWithBrightness_ResetOnError(t *testing.T) {
	b := NewBuffer(BufferLen(ColorBits, 1, 0), testOneDuty, testZeroDuty, GRB)

	// Valid brightness but an oversized slice: the fill fails, yet the
	// brightness must still come back to 100.
	err := FillWithBrightness(b, []Color{{}, {}}, 0, 25)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyLEDs))
	assert.EqualValues(t, 100, b.brightness)

	// A plain fill afterwards must encode at full brightness.
	require.NoError(t, Fill(b, []Color{{R: 255}}, 0))
	assert.Equal(t, expandByte(255), b.Duties()[0:8])
}

func TestFill_StaleTail(t *testing.T) {
	// Refilling with fewer LEDs leaves the previous tail in place. This is
	// part of the contract: callers reconstruct the buffer when shrinking.
	b := NewBuffer(BufferLen(ColorBits, 2, 0), testOneDuty, testZeroDuty, RGB)
	require.NoError(t, Fill(b, []Color{{R: 255}, {R: 255}}, 0))

	require.NoError(t, Fill(b, []Color{{}}, 0))
	assert.Equal(t, expandByte(0), b.Duties()[0:8])
	assert.Equal(t, expandByte(255), b.Duties()[24:32], "stale slots stay")
}
