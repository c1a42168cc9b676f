package ledpwm

import "time"

// Timing describes the bit-level timing of an addressable LED protocol, as
// given in its datasheet. All durations are per bit except Reset, which is
// the idle-low period that latches a frame.
type Timing struct {
	// Transfer is the data transfer time of one bit.
	Transfer time.Duration
	// OneHigh is the high-voltage time of a logical one bit.
	OneHigh time.Duration
	// ZeroHigh is the high-voltage time of a logical zero bit.
	ZeroHigh time.Duration
	// Reset is the minimum low-voltage time of the reset code.
	Reset time.Duration
	// Order is the channel composition the datasheet specifies.
	Order Composition
}

// Datasheet timings for the supported strip families.
//
// WS2812B: https://cdn-shop.adafruit.com/datasheets/WS2812B.pdf
// SK6812-RGBW: https://cdn-shop.adafruit.com/product-files/2757/p2757_SK6812RGBW_REV01.pdf
var (
	WS2812B = Timing{
		Transfer: 1250 * time.Nanosecond,
		OneHigh:  800 * time.Nanosecond,
		ZeroHigh: 400 * time.Nanosecond,
		Reset:    50 * time.Microsecond,
		Order:    GRB,
	}
	SK6812RGBW = Timing{
		Transfer: 1250 * time.Nanosecond,
		OneHigh:  600 * time.Nanosecond,
		ZeroHigh: 300 * time.Nanosecond,
		Reset:    80 * time.Microsecond,
		Order:    RGB,
	}
)

// Duty converts the timing into the two timer compare values for a timer
// whose full PWM period counts up to maxDuty. For WS2812B at maxDuty 50 this
// is (32, 16); for SK6812-RGBW it is (24, 12).
func (t Timing) Duty(maxDuty uint16) (one, zero uint16) {
	one = uint16(int64(t.OneHigh) * int64(maxDuty) / int64(t.Transfer))
	zero = uint16(int64(t.ZeroHigh) * int64(maxDuty) / int64(t.Transfer))
	return one, zero
}

// ResetLen returns the number of zero-duty slots needed to hold the line low
// for the reset period: 40 for WS2812B, 64 for SK6812-RGBW.
func (t Timing) ResetLen() int {
	return int((t.Reset + t.Transfer - 1) / t.Transfer)
}

// BitRate returns the PWM frequency in Hz that makes one timer period equal
// one bit: 800kHz for both supported families.
func (t Timing) BitRate() int {
	return int(time.Second / t.Transfer)
}
