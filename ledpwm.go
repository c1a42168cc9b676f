package ledpwm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledpwm/dutyserial"
)

// Animator is the interface for types that produce the strip's frames.
// It is kept to a minimum.
type Animator interface {
	// Advance produces the next frame. It may repaint f in place and returns
	// the rotation and brightness percentage to encode the frame with.
	Advance(f Frame) (rotate int, brightness uint8)
}

// Daemon drives one LED strip: it encodes frames into a duty buffer and
// streams them over serial to the bridge controller that owns the strip's
// timer and DMA channel.
type Daemon struct {
	cfg    *Config
	anim   Animator
	logger *slog.Logger
}

// NewDaemon creates a new ledpwm daemon.
func NewDaemon(cfg *Config, anim Animator, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if anim == nil {
		return nil, errors.New("no animator given")
	}

	return &Daemon{
		cfg:    cfg,
		anim:   anim,
		logger: logger,
	}, nil
}

// Run starts the daemon. It blocks until the given context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	return (&internalDaemon{Daemon: d}).Run(ctx)
}

type internalDaemon struct {
	*Daemon
	port serial.Port
}

func (d *internalDaemon) Run(ctx context.Context) error {
	port, err := serial.Open(d.cfg.Device, &serial.Mode{
		BaudRate: d.cfg.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}
	defer port.Close()

	d.port = port

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		d.logger.Debug("closing serial port")
		if err := port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})

	outPackets := make(chan dutyserial.OutgoingPacket)
	errg.Go(func() error {
		return d.mainLoop(ctx, outPackets)
	})
	errg.Go(func() error {
		return d.readPackets(ctx, outPackets)
	})

	return errg.Wait()
}

func (d *internalDaemon) mainLoop(ctx context.Context, packets <-chan dutyserial.OutgoingPacket) error {
	timing, err := d.cfg.Timing()
	if err != nil {
		return err
	}
	one, zero, err := d.cfg.Thresholds()
	if err != nil {
		return err
	}
	bufLen, err := d.cfg.BufferLen()
	if err != nil {
		return err
	}

	buffer := NewBuffer(bufLen, one, zero, timing.Order)
	frame := NewFrame(d.cfg.Strip.Count)

	d.logger.Debug(
		"configured duty buffer",
		"len", bufLen,
		"one_duty", one,
		"zero_duty", zero,
		"order", timing.Order)

	d.logger.Debug("waiting 100ms for the read loop to start...")
	time.Sleep(100 * time.Millisecond)

	d.logger.Debug("sending initialize packet")
	if !d.writePacket(ctx, dutyserial.InitializePacket{
		BufferLen: uint16(bufLen),
		BitRate:   uint32(timing.BitRate()),
	}) {
		return errors.New("failed to initialize strip")
	}

	frameTicker := time.NewTicker(time.Second / time.Duration(d.cfg.Rate))
	defer frameTicker.Stop()

	// nil until the controller acks the previous frame. The buffer is on
	// loan to the serial writer until then, so it must not be refilled.
	var nextFrame <-chan time.Time

eventLoop:
	for {
		select {
		case <-ctx.Done():
			break eventLoop

		case p := <-packets:
			d.logger.Debug("handling packet", "type", p.Type())

			switch p := p.(type) {
			case dutyserial.AckPacket:
				d.logger.Debug(
					"received ack packet from controller",
					"acked_for", p.IncomingPacketType)
				nextFrame = frameTicker.C

			case dutyserial.ErrorPacket:
				d.logger.Warn(
					"received error packet from controller",
					"message", p.Message)
				return errors.New("controller reported error")

			case dutyserial.PanicPacket:
				d.logger.Error("controller unrecoverably panicked")
				return errors.New("controller panicked")

			case dutyserial.LogPacket:
				d.logger.Info(
					"received log packet from controller",
					"message", p.Message)

			default:
				return fmt.Errorf("received unknown packet from controller: %s", p.Type())
			}

		case <-nextFrame:
			rotate, brightness := d.anim.Advance(frame)

			if err := d.fillBuffer(buffer, frame, rotate, brightness); err != nil {
				// Expected only on a misbehaving animator. Skip the frame.
				d.logger.Warn(
					"failed to encode frame",
					"rotate", rotate,
					"brightness", brightness,
					"error", err)
				continue
			}

			if !d.writePacket(ctx, dutyserial.FramePacket{
				Duties: buffer.Duties(),
			}) {
				// No ack will ever come for a frame that never left, so
				// waiting for one would hang the loop.
				return errors.New("failed to write frame packet")
			}

			// Hold off until the controller acks this frame.
			nextFrame = nil
		}
	}

	return nil
}

// fillBuffer encodes the frame, widening it to four channels when the strip
// has a white channel. The white channel stays off; the strip's RGB channels
// cover the configured colors.
func (d *internalDaemon) fillBuffer(b *Buffer, f Frame, rotate int, brightness uint8) error {
	if !d.cfg.FourChannel() {
		return FillWithBrightness(b, f, rotate, brightness)
	}

	fw := make(FrameW, len(f))
	for i, c := range f {
		fw[i] = ColorW{R: c.R, G: c.G, B: c.B}
	}
	return FillWithBrightness(b, fw, rotate, brightness)
}

func (d *internalDaemon) readPackets(ctx context.Context, dst chan<- dutyserial.OutgoingPacket) error {
	if err := d.port.SetReadTimeout(serial.NoTimeout); err != nil {
		return errors.Wrap(err, "failed to reset read timeout")
	}

	for ctx.Err() == nil {
		p, err := dutyserial.ReadOutgoingPacket(d.port, dutyserial.ReadContext{})
		if err != nil {
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		d.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case dst <- p:
			// ok
		}
	}

	return ctx.Err()
}

func (d *internalDaemon) writePacket(ctx context.Context, p dutyserial.IncomingPacket) bool {
	d.logger.Debug(
		"writing packet",
		"type", p.Type())

	if err := dutyserial.WriteIncomingPacket(d.port, p); err != nil {
		d.logger.Warn(
			"failed to write packet",
			"packet", p.Type(),
			"error", err)
		return false
	}

	return true
}
