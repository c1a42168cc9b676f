package ledpwm

import (
	"encoding"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config is the configuration for the ledpwm daemon.
type Config struct {
	// Device is the path to the serial device of the bridge controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Rate is the refresh rate for the LEDs in frames per second.
	Rate int `toml:"rate"`
	// MaxDuty is the timer's duty count for a full PWM period, as reported by
	// the bridge controller's timer setup.
	MaxDuty uint16 `toml:"max_duty"`
	// Strip describes the physical strip.
	Strip StripConfig `toml:"strip"`
	// Animation describes what to display.
	Animation AnimationConfig `toml:"animation"`
}

// StripConfig describes the physical LED strip.
type StripConfig struct {
	// Protocol selects the datasheet timing preset, either "ws2812b" or
	// "sk6812rgbw".
	Protocol string `toml:"protocol"`
	// Count is the number of LEDs on the strip.
	Count int `toml:"count"`

	// The remaining fields override the preset when set, for strips whose
	// datasheet deviates from it.

	// Order overrides the channel composition, "rgb" or "grb".
	Order string `toml:"order,omitempty"`
	// OneDuty and ZeroDuty override the derived duty thresholds.
	OneDuty  uint16 `toml:"one_duty,omitempty"`
	ZeroDuty uint16 `toml:"zero_duty,omitempty"`
	// ResetLen overrides the derived reset tail length in duty slots.
	ResetLen int `toml:"reset_len,omitempty"`
}

// AnimationConfig describes what the daemon displays.
type AnimationConfig struct {
	// Mode is one of "static", "rotate" or "breathe".
	Mode string `toml:"mode"`
	// Colors is the palette painted across the strip, repeated to fill it.
	Colors []HexColor `toml:"colors"`
	// Speed is the delay between animation steps. Unused by static mode.
	Speed TOMLDuration `toml:"speed,omitempty"`
	// Brightness is the brightness percentage for modes that do not animate
	// it. 0 means full brightness.
	Brightness uint8 `toml:"brightness,omitempty"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("no serial device configured")
	}
	if c.Baud <= 0 {
		return errors.New("baud rate must be positive")
	}
	if c.Rate <= 0 {
		return errors.New("refresh rate must be positive")
	}
	if c.MaxDuty == 0 {
		return errors.New("max_duty must be positive")
	}
	if c.Strip.Count <= 0 {
		return errors.New("strip has no LEDs")
	}
	if _, err := c.Timing(); err != nil {
		return err
	}
	if (c.Strip.OneDuty == 0) != (c.Strip.ZeroDuty == 0) {
		return errors.New("one_duty and zero_duty must be set together")
	}
	bufLen, err := c.BufferLen()
	if err != nil {
		return err
	}
	if bufLen > math.MaxUint16 {
		return fmt.Errorf("duty buffer of %d slots exceeds the wire limit of %d slots", bufLen, math.MaxUint16)
	}
	switch c.Animation.Mode {
	case "", "static", "rotate", "breathe":
	default:
		return fmt.Errorf("unknown animation mode %q", c.Animation.Mode)
	}
	if len(c.Animation.Colors) == 0 {
		return errors.New("no animation colors configured")
	}
	if c.Animation.Brightness > 100 {
		return fmt.Errorf("animation brightness %d%% exceeds 100%%", c.Animation.Brightness)
	}
	return nil
}

// Timing resolves the strip's protocol preset with any configured overrides
// applied.
func (c *Config) Timing() (Timing, error) {
	var t Timing
	switch c.Strip.Protocol {
	case "ws2812b":
		t = WS2812B
	case "sk6812rgbw":
		t = SK6812RGBW
	default:
		return t, fmt.Errorf("unknown strip protocol %q", c.Strip.Protocol)
	}

	switch c.Strip.Order {
	case "":
	case "rgb":
		t.Order = RGB
	case "grb":
		t.Order = GRB
	default:
		return t, fmt.Errorf("unknown channel order %q", c.Strip.Order)
	}

	return t, nil
}

// FourChannel reports whether the strip carries a white channel.
func (c *Config) FourChannel() bool {
	return c.Strip.Protocol == "sk6812rgbw"
}

// BitsPerLED returns the bit width of one LED on the strip.
func (c *Config) BitsPerLED() int {
	if c.FourChannel() {
		return ColorWBits
	}
	return ColorBits
}

// Thresholds returns the one and zero duty values for the strip, either the
// configured overrides or the values derived from the protocol timing. The
// overrides only apply as a pair; Validate rejects a config setting just one.
func (c *Config) Thresholds() (one, zero uint16, err error) {
	if c.Strip.OneDuty != 0 && c.Strip.ZeroDuty != 0 {
		return c.Strip.OneDuty, c.Strip.ZeroDuty, nil
	}
	t, err := c.Timing()
	if err != nil {
		return 0, 0, err
	}
	one, zero = t.Duty(c.MaxDuty)
	return one, zero, nil
}

// BufferLen returns the duty buffer capacity for the configured strip.
func (c *Config) BufferLen() (int, error) {
	resetLen := c.Strip.ResetLen
	if resetLen == 0 {
		t, err := c.Timing()
		if err != nil {
			return 0, err
		}
		resetLen = t.ResetLen()
	}
	return BufferLen(c.BitsPerLED(), c.Strip.Count, resetLen), nil
}

// HexColor is a Color that can be parsed from TOML as "#rrggbb".
type HexColor Color

var (
	_ encoding.TextUnmarshaler = (*HexColor)(nil)
	_ encoding.TextMarshaler   = (*HexColor)(nil)
)

func (c *HexColor) UnmarshalText(text []byte) error {
	var r, g, b uint8
	if _, err := fmt.Sscanf(string(text), "#%02x%02x%02x", &r, &g, &b); err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}
	*c = HexColor{R: r, G: g, B: b}
	return nil
}

func (c HexColor) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)), nil
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
