// Package anim implements the daemon's built-in strip animations.
package anim

import (
	"fmt"
	"time"

	"libdb.so/ledpwm"
)

// FromConfig builds the animator described by the configuration.
func FromConfig(cfg ledpwm.AnimationConfig) (ledpwm.Animator, error) {
	palette := make([]ledpwm.Color, len(cfg.Colors))
	for i, c := range cfg.Colors {
		palette[i] = ledpwm.Color(c)
	}

	brightness := cfg.Brightness
	if brightness == 0 {
		brightness = 100
	}

	speed := time.Duration(cfg.Speed)
	if speed == 0 {
		speed = 100 * time.Millisecond
	}

	switch cfg.Mode {
	case "", "static":
		return &Static{Palette: palette, Brightness: brightness}, nil
	case "rotate":
		return &Rotate{Palette: palette, Brightness: brightness, Step: speed}, nil
	case "breathe":
		return &Breathe{Palette: palette, Step: speed}, nil
	default:
		return nil, fmt.Errorf("unknown animation mode %q", cfg.Mode)
	}
}

// paint tiles the palette across the frame.
func paint(f ledpwm.Frame, palette []ledpwm.Color) {
	for i := range f {
		f[i] = palette[i%len(palette)]
	}
}

// Static paints the palette once and leaves it there.
type Static struct {
	Palette    []ledpwm.Color
	Brightness uint8
}

// Advance implements ledpwm.Animator.
func (s *Static) Advance(f ledpwm.Frame) (int, uint8) {
	paint(f, s.Palette)
	return 0, s.Brightness
}

// Rotate shifts the painted palette one LED further every Step.
type Rotate struct {
	Palette    []ledpwm.Color
	Brightness uint8
	Step       time.Duration

	offset int
	last   time.Time
}

// Advance implements ledpwm.Animator.
func (r *Rotate) Advance(f ledpwm.Frame) (int, uint8) {
	paint(f, r.Palette)

	now := time.Now()
	if now.Sub(r.last) >= r.Step {
		r.offset++
		r.last = now
	}

	return r.offset, r.Brightness
}

// Breathe fades the whole strip between off and full brightness, one percent
// point every Step.
type Breathe struct {
	Palette []ledpwm.Color
	Step    time.Duration

	brightness uint8
	decreasing bool
	last       time.Time
}

// Advance implements ledpwm.Animator.
func (b *Breathe) Advance(f ledpwm.Frame) (int, uint8) {
	paint(f, b.Palette)

	now := time.Now()
	if now.Sub(b.last) >= b.Step {
		if b.brightness >= 100 {
			b.decreasing = true
		} else if b.brightness == 0 {
			b.decreasing = false
		}
		if b.decreasing {
			b.brightness--
		} else {
			b.brightness++
		}
		b.last = now
	}

	return 0, b.brightness
}
