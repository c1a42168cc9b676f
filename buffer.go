// Package ledpwm encodes RGB and RGBW color frames into PWM duty-cycle
// buffers for addressable LED strips (WS2812-family, SK6812-family).
//
// Each color bit becomes one uint16 timer compare value: a high duty for a
// logical one, a low duty for a logical zero. The populated buffer is handed
// as-is to whatever streams it to a timer peripheral, typically a DMA channel
// on a bridge microcontroller fed over the dutyserial protocol.
package ledpwm

import (
	"github.com/pkg/errors"
)

var (
	// ErrTooManyLEDs is returned when a color slice does not fit in the
	// buffer's capacity.
	ErrTooManyLEDs = errors.New("led slice does not fit in the duty buffer")
	// ErrBrightnessRange is returned when a requested brightness exceeds 100.
	ErrBrightnessRange = errors.New("brightness exceeds 100%")
)

// BufferLen returns the buffer capacity needed for numLEDs LEDs of
// bitsPerLED bits each, followed by resetLen idle-low slots for the strip's
// reset code. Use ColorBits or ColorWBits for bitsPerLED; derive resetLen
// from the datasheet's reset period divided by the data transfer time.
func BufferLen(bitsPerLED, numLEDs, resetLen int) int {
	return bitsPerLED*numLEDs + resetLen
}

// Buffer is a fixed-capacity sequence of PWM duty values encoding one frame
// of LED data. It is created once per strip and refilled every frame. A
// Buffer is not safe for concurrent use; the caller must also not refill it
// while its duty slice is being streamed to hardware.
type Buffer struct {
	duties     []uint16
	oneDuty    uint16
	zeroDuty   uint16
	order      Composition
	brightness uint8
}

// NewBuffer creates a zero-filled duty buffer of the given size, usually
// computed with BufferLen. oneDuty and zeroDuty are the timer compare values
// for a logical one and zero bit; derive them from the datasheet with
// Timing.Duty. The composition is fixed for the lifetime of the buffer.
func NewBuffer(size int, oneDuty, zeroDuty uint16, order Composition) *Buffer {
	return &Buffer{
		duties:     make([]uint16, size),
		oneDuty:    oneDuty,
		zeroDuty:   zeroDuty,
		order:      order,
		brightness: 100,
	}
}

// Duties returns the duty slice backing the buffer. The slice must not be
// modified; it is valid until the next Fill. Slots past the last encoded LED
// stay zero and form the strip's reset period.
func (b *Buffer) Duties() []uint16 {
	return b.duties
}

// Len returns the buffer's capacity in duty slots.
func (b *Buffer) Len() int {
	return len(b.duties)
}

// Fill encodes leds into the buffer, one Sample per LED position.
//
// rotate shifts where each LED's bits land: position i encodes at
// (i+rotate) mod len(leds), so a positive rotate moves the pattern right and
// a negative rotate moves it left. Pass 0 to keep positions as-is.
//
// If the slice does not fit, Fill returns ErrTooManyLEDs and the buffer is
// left untouched. Fill never clears slots past the encoded region: refilling
// with fewer LEDs than before leaves the old tail in place, so reconstruct
// the buffer when shrinking the strip.
func Fill[T Sample](b *Buffer, leds []T, rotate int) error {
	var zero T
	if len(leds)*zero.Bits() > len(b.duties) {
		return errors.Wrapf(ErrTooManyLEDs,
			"%d leds at %d bits each into %d slots", len(leds), zero.Bits(), len(b.duties))
	}

	for i, led := range leds {
		pos := i
		if rotate != 0 {
			pos = (i + rotate) % len(leds)
			if pos < 0 {
				pos += len(leds)
			}
		}
		led.encode(b, pos*zero.Bits())
	}

	return nil
}

// FillWithBrightness is Fill with the channel values scaled to the given
// brightness percentage for this call only. Brightness above 100 returns
// ErrBrightnessRange without touching the buffer. The buffer is always back
// at full brightness when FillWithBrightness returns, even when the fill
// itself fails.
func FillWithBrightness[T Sample](b *Buffer, leds []T, rotate int, brightness uint8) error {
	if brightness > 100 {
		return errors.Wrapf(ErrBrightnessRange, "%d%%", brightness)
	}

	b.brightness = brightness
	defer func() { b.brightness = 100 }()

	return Fill(b, leds, rotate)
}

// writeByte expands one channel byte into 8 duty slots starting at off,
// most significant bit first.
func (b *Buffer) writeByte(v uint8, off int) {
	// Truncating integer scale: 255 at 50% is 127, not 128.
	adjusted := uint8(uint16(v) * uint16(b.brightness) / 100)

	for i := 0; i < 8; i++ {
		if adjusted&(1<<(7-i)) != 0 {
			b.duties[off+i] = b.oneDuty
		} else {
			b.duties[off+i] = b.zeroDuty
		}
	}
}
