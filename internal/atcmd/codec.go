package atcmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/events"
	"github.com/espwifi/wifid/internal/log"
	"github.com/espwifi/wifid/internal/transport"
)

// Codec drives one module over a transport port. It implements
// dispatch.Codec; the dispatcher guarantees Execute is never called
// concurrently, so the codec needs no locking around the command flow.
//
// A dedicated reader goroutine owns the port's read side for the
// codec's whole lifetime. It tokenizes module output, forwards command
// responses to Execute through a channel and publishes URCs to the
// event hub as they arrive, whether or not a command is in flight.
type Codec struct {
	port   transport.Port
	hub    *events.Hub
	logger *slog.Logger

	lines chan string
}

// New creates a codec and starts its reader goroutine. hub may be nil
// when nobody consumes module events.
func New(port transport.Port, hub *events.Hub) *Codec {
	c := &Codec{
		port:   port,
		hub:    hub,
		logger: log.WithComponent("atcmd"),
		lines:  make(chan string, 32),
	}
	go c.readLoop()
	return c
}

// Close shuts the transport down. The reader goroutine exits once the
// port read fails, and any in-flight Execute fails with a device error.
func (c *Codec) Close() error {
	return c.port.Close()
}

// Execute sends the wire command for p and consumes response lines
// until the module's final result code, then applies the data lines to
// the payload's output fields.
func (c *Codec) Execute(ctx context.Context, p dispatch.Payload) error {
	cmd, err := encode(p)
	if err != nil {
		return err
	}

	// A previous command that timed out may have left its late response
	// in the channel. Those lines belong to nobody now; drop them so
	// they are not misread as this command's answer.
	c.drainStale()

	c.logger.Debug("sending command", "cmd", cmd)
	if _, err := c.port.Write([]byte(cmd + CRLF)); err != nil {
		return fmt.Errorf("%w: write: %v", dispatch.ErrDevice, err)
	}

	var data []string
	var errDetail string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-c.lines:
			if !ok {
				return fmt.Errorf("%w: link closed", dispatch.ErrDevice)
			}
			switch Classify(line) {
			case TypeFinal:
				if line == OK {
					return decode(p, data)
				}
				if errDetail != "" {
					return fmt.Errorf("%w: module replied %s (%s)", dispatch.ErrDevice, line, errDetail)
				}
				return fmt.Errorf("%w: module replied %s", dispatch.ErrDevice, line)
			case TypeData:
				if rest, ok := strings.CutPrefix(line, PrefixErrCode); ok {
					errDetail = strings.TrimSpace(rest)
					continue
				}
				data = append(data, line)
			}
		}
	}
}

func (c *Codec) drainStale() {
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return
			}
			c.logger.Debug("dropping stale response line", "line", line)
		default:
			return
		}
	}
}

// readLoop owns the port's read side. It runs until the port is closed
// or fails, then closes the line channel so Execute observes the dead
// link.
func (c *Codec) readLoop() {
	defer close(c.lines)

	scanner := bufio.NewScanner(portReader{c.port})
	scanner.Split(Splitter)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if Classify(line) == TypeURC {
			c.handleURC(line)
			continue
		}
		c.lines <- line
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("transport read failed", "error", err)
	}
}

// portReader retries zero-byte reads. A UART with a read timeout
// returns (0, nil) when the line is idle; bufio.Scanner would treat a
// run of those as a broken reader.
type portReader struct {
	p transport.Port
}

func (r portReader) Read(b []byte) (int, error) {
	for {
		n, err := r.p.Read(b)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// handleURC turns an unsolicited notification into a hub event.
func (c *Codec) handleURC(line string) {
	if c.hub == nil {
		return
	}

	switch {
	case line == UrcReady:
		c.hub.Publish(events.TypeModuleReady, nil)

	case strings.HasPrefix(line, UrcStationConnected):
		mac := unquote(strings.TrimPrefix(line, UrcStationConnected))
		c.logger.Info("station connected", "mac", mac)
		c.hub.Publish(events.TypeStationConnected, events.StationEvent{MAC: mac})

	case strings.HasPrefix(line, UrcStationDisconnected):
		mac := unquote(strings.TrimPrefix(line, UrcStationDisconnected))
		c.logger.Info("station disconnected", "mac", mac)
		c.hub.Publish(events.TypeStationDisconnected, events.StationEvent{MAC: mac})

	case strings.HasPrefix(line, UrcStationGotIP):
		rest := strings.TrimPrefix(line, UrcStationGotIP)
		macStr, ipStr, ok := strings.Cut(rest, ",")
		if !ok {
			c.logger.Warn("malformed station IP notification", "line", line)
			return
		}
		c.hub.Publish(events.TypeStationGotIP, events.StationEvent{
			MAC: unquote(macStr),
			IP:  unquote(ipStr),
		})
	}
}
