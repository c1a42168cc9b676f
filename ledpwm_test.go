package ledpwm

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"libdb.so/ledpwm/dutyserial"
)

type solidAnimator struct{}

func (solidAnimator) Advance(f Frame) (int, uint8) {
	for i := range f {
		f[i] = Color{R: 255}
	}
	return 0, 100
}

// brokenPort accepts a fixed number of writes and fails the rest.
type brokenPort struct {
	serial.Port
	writes     int
	goodWrites int
}

func (p *brokenPort) Write(b []byte) (int, error) {
	p.writes++
	if p.writes > p.goodWrites {
		return 0, errors.New("port gone")
	}
	return len(b), nil
}

func (p *brokenPort) Close() error { return nil }

func TestMainLoop_FrameWriteFailure(t *testing.T) {
	cfg := &Config{
		Device:  "/dev/null",
		Baud:    115200,
		Rate:    100,
		MaxDuty: 50,
		Strip:   StripConfig{Protocol: "ws2812b", Count: 1},
	}

	// The initialize packet takes three writes (type, payload, checksum);
	// everything after that fails, so the first frame cannot leave.
	port := &brokenPort{goodWrites: 3}

	d := &internalDaemon{
		Daemon: &Daemon{
			cfg:    cfg,
			anim:   solidAnimator{},
			logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		port: port,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	packets := make(chan dutyserial.OutgoingPacket, 1)
	packets <- dutyserial.AckPacket{IncomingPacketType: dutyserial.TypeInitializePacket}

	errc := make(chan error, 1)
	go func() { errc <- d.mainLoop(ctx, packets) }()

	select {
	case err := <-errc:
		require.Error(t, err, "a frame that cannot be written must fail the loop, not stall it")
		assert.Contains(t, err.Error(), "frame")
	case <-time.After(10 * time.Second):
		t.Fatal("main loop hung after failed frame write")
	}
}
