// Package transport provides the byte-level link to the WiFi module.
// The dispatcher and codec only see the Port interface; the real
// implementation is a UART, tests use the in-memory Loopback.
package transport

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is a byte stream to the module. Reads may time out and return
// (0, nil) so that a reader loop can observe shutdown; callers must
// treat a zero-byte read as "try again", not EOF.
type Port interface {
	io.ReadWriteCloser
}

// SerialConfig describes the UART link.
type SerialConfig struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// OpenSerial opens the UART device the module is attached to.
func OpenSerial(cfg SerialConfig) (Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device is empty")
	}
	if cfg.Baud <= 0 {
		return nil, fmt.Errorf("serial baud must be positive, got %d", cfg.Baud)
	}

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 100 * time.Millisecond
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}
