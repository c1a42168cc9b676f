package ledpwm

// Frame describes one frame of a 3-channel strip. It is a preallocated slice
// of Color, one entry per LED, initialized to black (off).
type Frame []Color

// NewFrame creates a frame for numLEDs LEDs.
func NewFrame(numLEDs int) Frame {
	return make(Frame, numLEDs)
}

// Set sets the color of the LED at the given index.
func (f Frame) Set(i int, c Color) {
	f[i] = c
}

// SetRange sets the color of the LEDs in [start, end).
func (f Frame) SetRange(start, end int, c Color) {
	for i := start; i < end; i++ {
		f[i] = c
	}
}

// FrameW describes one frame of a 4-channel strip.
type FrameW []ColorW

// NewFrameW creates a frame for numLEDs LEDs.
func NewFrameW(numLEDs int) FrameW {
	return make(FrameW, numLEDs)
}

// Set sets the color of the LED at the given index.
func (f FrameW) Set(i int, c ColorW) {
	f[i] = c
}

// SetRange sets the color of the LEDs in [start, end).
func (f FrameW) SetRange(start, end int, c ColorW) {
	for i := start; i < end; i++ {
		f[i] = c
	}
}
