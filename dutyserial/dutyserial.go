// Package dutyserial implements the serial protocol that carries PWM duty
// buffers to the bridge controller feeding the strip's timer/DMA peripheral.
package dutyserial

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// IncomingPacketType is a type of packet sent to the controller.
type IncomingPacketType uint8

const (
	TypeInitializePacket IncomingPacketType = iota
	TypeFramePacket
	TypeIdlePacket
)

// String returns a string representation of the packet type.
func (t IncomingPacketType) String() string {
	switch t {
	case TypeInitializePacket:
		return "initialize"
	case TypeFramePacket:
		return "frame"
	case TypeIdlePacket:
		return "idle"
	default:
		return fmt.Sprintf("IncomingPacketType(%d)", t)
	}
}

// IncomingPacket is a packet sent to the controller.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// InitializePacket tells the controller how the strip's timer must be set up.
type InitializePacket struct {
	// BufferLen is the duty slot count of every following FramePacket.
	BufferLen uint16
	// BitRate is the PWM frequency in Hz, usually Timing.BitRate.
	BitRate uint32
}

// FramePacket carries one fully encoded duty buffer.
type FramePacket struct {
	Duties []uint16
}

// IdlePacket tells the controller to hold the line low.
type IdlePacket struct{}

func (p InitializePacket) Type() IncomingPacketType { return TypeInitializePacket }
func (p FramePacket) Type() IncomingPacketType      { return TypeFramePacket }
func (p IdlePacket) Type() IncomingPacketType       { return TypeIdlePacket }

// OutgoingPacketType is a type of packet sent by the controller.
type OutgoingPacketType uint8

const (
	TypeAckPacket OutgoingPacketType = iota
	TypeErrorPacket
	TypePanicPacket
	TypeLogPacket
)

// String returns a string representation of the packet type.
func (t OutgoingPacketType) String() string {
	switch t {
	case TypeAckPacket:
		return "ack"
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	default:
		return fmt.Sprintf("OutgoingPacketType(%d)", t)
	}
}

// OutgoingPacket is a packet sent by the controller.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// AckPacket acknowledges an incoming packet. The controller sends it once
// the packet's duty buffer has been fully streamed to the timer.
type AckPacket struct {
	IncomingPacketType IncomingPacketType
}

// ErrorPacket indicates an error occurred.
type ErrorPacket struct {
	Message string
}

// PanicPacket indicates the controller cannot recover.
type PanicPacket struct{}

// LogPacket contains a log message.
type LogPacket struct {
	Message string
}

func (p AckPacket) Type() OutgoingPacketType   { return TypeAckPacket }
func (p ErrorPacket) Type() OutgoingPacketType { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType { return TypePanicPacket }
func (p LogPacket) Type() OutgoingPacketType   { return TypeLogPacket }

// ReadContext is the state the controller negotiated during initialization.
// It is required to size incoming frame reads.
type ReadContext struct {
	// BufferLen is the duty slot count from the InitializePacket.
	BufferLen uint16
}

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader, context ReadContext) (IncomingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet IncomingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	switch ptype := IncomingPacketType(ptypeBuf[0]); ptype {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read timer setup: %w", err)
		}
		packet = p

	case TypeFramePacket:
		var p FramePacket
		p.Duties = make([]uint16, context.BufferLen)
		if err := binary.Read(r, Endianness, p.Duties); err != nil {
			return nil, fmt.Errorf("failed to read duty data: %w", err)
		}
		packet = p

	case TypeIdlePacket:
		var p IdlePacket
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	sum := hash.Sum32()

	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return nil, fmt.Errorf("failed to read packet checksum: %w", err)
	}

	if checksum != sum {
		return nil, fmt.Errorf("packet checksum mismatch")
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	switch p := p.(type) {
	case InitializePacket:
		if err := binary.Write(w, Endianness, TypeInitializePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case FramePacket:
		if err := binary.Write(w, Endianness, TypeFramePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p.Duties); err != nil {
			return fmt.Errorf("failed to write duty data: %w", err)
		}
	case IdlePacket:
		if err := binary.Write(w, Endianness, TypeIdlePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader, context ReadContext) (OutgoingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet OutgoingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	switch ptype := OutgoingPacketType(ptypeBuf[0]); ptype {
	case TypeAckPacket:
		var p AckPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read acked packet type: %w", err)
		}
		packet = p

	case TypeErrorPacket:
		var p ErrorPacket
		var length uint16
		if err := binary.Read(r, Endianness, &length); err != nil {
			return nil, fmt.Errorf("failed to read error message length: %w", err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		p.Message = string(buf)
		packet = p

	case TypePanicPacket:
		var p PanicPacket
		packet = p

	case TypeLogPacket:
		var p LogPacket
		var length uint16
		if err := binary.Read(r, Endianness, &length); err != nil {
			return nil, fmt.Errorf("failed to read log message length: %w", err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		p.Message = string(buf)
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	sum := hash.Sum32()

	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return nil, fmt.Errorf("failed to read packet checksum: %w", err)
	}

	if checksum != sum {
		return nil, fmt.Errorf("packet checksum mismatch")
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	switch p := p.(type) {
	case AckPacket:
		if err := binary.Write(w, Endianness, TypeAckPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ErrorPacket:
		if err := binary.Write(w, Endianness, TypeErrorPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, uint16(len(p.Message))); err != nil {
			return fmt.Errorf("failed to write error message length: %w", err)
		}
		if _, err := w.Write([]byte(p.Message)); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
		if err := binary.Write(w, Endianness, TypePanicPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
	case LogPacket:
		if err := binary.Write(w, Endianness, TypeLogPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, uint16(len(p.Message))); err != nil {
			return fmt.Errorf("failed to write log message length: %w", err)
		}
		if _, err := w.Write([]byte(p.Message)); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}
