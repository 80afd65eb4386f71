package mcpquic

import (
	"errors"
	"fmt"
	"io"

	"github.com/quic-go/quic-go"
)

// Magic is written by the client as the first bytes of the MCP stream.
const Magic = "TFX1"

// Stream error codes.
const (
	StreamErrProtocol quic.StreamErrorCode = 0x02
)

// Connection error codes.
const (
	ConnErrNone            quic.ApplicationErrorCode = 0x00
	ConnErrUnsupportedALPN quic.ApplicationErrorCode = 0x01
	ConnErrProtocol        quic.ApplicationErrorCode = 0x03
	ConnErrDisabled        quic.ApplicationErrorCode = 0x10
)

var (
	ErrBadMagic        = errors.New("mcpquic: bad magic bytes")
	ErrUnsupportedALPN = errors.New("mcpquic: server did not select " + ALPN)
	ErrNotConnected    = errors.New("mcpquic: client not connected")
)

// ReadMagic consumes the magic prefix from r.
func ReadMagic(r io.Reader) error {
	buf := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(buf) != Magic {
		return fmt.Errorf("%w: got %q", ErrBadMagic, buf)
	}
	return nil
}

// WriteMagic writes the magic prefix to w.
func WriteMagic(w io.Writer) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	return nil
}
